// Package dot renders a flow graph to Graphviz DOT and SVG, for
// inspecting sync results outside the editor.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/adnumaro/storyarn/pkg/flow"
)

// Options configures flow rendering.
type Options struct {
	// Detailed includes payload excerpts and origin tags in node labels.
	// When false, only the kind and id are shown.
	Detailed bool
}

// ToDOT converts a flow graph to Graphviz DOT format. Choice-pin edges
// are labeled with their choice id, condition edges with true/false.
// Manual nodes get a dashed outline so ownership is visible at a glance.
func ToDOT(nodes []*flow.Node, conns []*flow.Connection, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph flow {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range nodes {
		label := fmtLabel(n, opts.Detailed)
		attrs := fmtAttrs(n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range conns {
		if label := edgeLabel(c); label != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", c.SourceNodeID, c.TargetNodeID, label)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", c.SourceNodeID, c.TargetNodeID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func edgeLabel(c *flow.Connection) string {
	if c.SourcePin == flow.PinOutput {
		return ""
	}
	if flow.IsChoicePin(c.SourcePin) {
		return "choice " + c.SourcePin
	}
	return c.SourcePin
}

func fmtLabel(n *flow.Node, detailed bool) string {
	head := fmt.Sprintf("%s\n%s", n.Kind, n.ID)
	if !detailed {
		return head
	}

	var parts []string
	if excerpt := payloadExcerpt(n); excerpt != "" {
		parts = append(parts, excerpt)
	}
	parts = append(parts, "origin: "+string(n.Origin))
	if len(n.ElementIDs) > 0 {
		parts = append(parts, fmt.Sprintf("elements: %d", len(n.ElementIDs)))
	}
	return head + "\n" + strings.Join(parts, "\n")
}

func payloadExcerpt(n *flow.Node) string {
	var s string
	switch {
	case n.Data.Scene != nil:
		s = strings.TrimSpace(n.Data.Scene.IntExt + " " + n.Data.Scene.Description)
	case n.Data.Dialogue != nil:
		s = n.Data.Dialogue.Text
		if s == "" {
			s = n.Data.Dialogue.StageDirections
		}
	case n.Data.Exit != nil:
		s = n.Data.Exit.Label
	case n.Data.Hub != nil:
		s = n.Data.Hub.Label
	case n.Data.Jump != nil:
		s = "-> " + n.Data.Jump.TargetHubID
	}
	const max = 40
	if r := []rune(s); len(r) > max {
		s = string(r[:max]) + "…"
	}
	return s
}

func fmtAttrs(n *flow.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.IsManual() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
