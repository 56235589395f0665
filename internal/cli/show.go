package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/adnumaro/storyarn/pkg/screenplay"
	"github.com/adnumaro/storyarn/pkg/store"
)

var (
	colorCyan   = lipgloss.Color("36")  // Teal - page titles
	colorGreen  = lipgloss.Color("35")  // Green - sync links
	colorYellow = lipgloss.Color("220") // Amber - element kinds
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text

	pageStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	kindStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	linkStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	contentStyle = lipgloss.NewStyle().Foreground(colorGray)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

// newShowCmd creates the show command displaying a page tree with its
// elements and sync links.
func newShowCmd(config configFn) *cobra.Command {
	var elements bool

	cmd := &cobra.Command{
		Use:   "show <page-id>",
		Short: "Display a page tree and its sync state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config()
			if err != nil {
				return err
			}
			st, _, shutdown, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer shutdown()

			out, err := renderPageTree(ctx, st, args[0], elements)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&elements, "elements", "e", false, "list each page's elements")
	return cmd
}

func renderPageTree(ctx context.Context, st store.Store, pageID string, withElements bool) (string, error) {
	var b strings.Builder
	visited := make(map[string]bool)
	if err := renderPage(ctx, st, pageID, 0, withElements, visited, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderPage(ctx context.Context, st store.Store, pageID string, depth int,
	withElements bool, visited map[string]bool, b *strings.Builder) error {

	if visited[pageID] {
		return nil
	}
	visited[pageID] = true

	page, err := st.Page(ctx, pageID)
	if err != nil {
		return err
	}

	indent := strings.Repeat("  ", depth)
	title := page.Title
	if title == "" {
		title = page.ID
	}
	fmt.Fprintf(b, "%s%s", indent, pageStyle.Render(title))
	if page.LinkedFlowID != "" {
		fmt.Fprintf(b, " %s", linkStyle.Render("⇄ "+page.LinkedFlowID))
	}
	b.WriteString("\n")

	if withElements {
		els, err := st.Elements(ctx, pageID)
		if err != nil {
			return err
		}
		for _, e := range els {
			renderElement(e, indent+"  ", b)
		}
	}

	children, err := st.ChildPages(ctx, pageID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := renderPage(ctx, st, child.ID, depth+1, withElements, visited, b); err != nil {
			return err
		}
	}
	return nil
}

func renderElement(e *screenplay.Element, indent string, b *strings.Builder) {
	content := e.Content
	if content == "" && e.Data.Response != nil {
		content = fmt.Sprintf("%d choices", len(e.Data.Response.Choices))
	}
	const max = 60
	if r := []rune(content); len(r) > max {
		content = string(r[:max]) + "…"
	}

	fmt.Fprintf(b, "%s%s %s", indent, kindStyle.Render(string(e.Kind)), contentStyle.Render(content))
	if e.LinkedNodeID != "" {
		fmt.Fprintf(b, " %s", dimStyle.Render("→ "+e.LinkedNodeID))
	}
	b.WriteString("\n")
}
