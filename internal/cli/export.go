package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adnumaro/storyarn/pkg/export/dot"
)

// newExportCmd creates the export command rendering a flow as DOT or SVG.
func newExportCmd(config configFn) *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "export <flow-id>",
		Short: "Export a flow graph as Graphviz DOT or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if format != "dot" && format != "svg" {
				return fmt.Errorf("invalid format: %s (must be 'dot' or 'svg')", format)
			}

			cfg, err := config()
			if err != nil {
				return err
			}
			st, _, shutdown, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer shutdown()

			flowID := args[0]
			if _, err := st.Flow(ctx, flowID); err != nil {
				return err
			}
			nodes, err := st.Nodes(ctx, flowID)
			if err != nil {
				return err
			}
			conns, err := st.Connections(ctx, flowID)
			if err != nil {
				return err
			}

			data := []byte(dot.ToDOT(nodes, conns, dot.Options{Detailed: detailed}))
			if format == "svg" {
				if data, err = dot.RenderSVG(ctx, string(data)); err != nil {
					return err
				}
			}

			path := output
			if path == "" {
				path = strings.ReplaceAll(flowID, "/", "_") + "." + format
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			loggerFromContext(ctx).Infof("Generated %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to <flow-id>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot (default), svg")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include payload excerpts and origin tags in node labels")

	return cmd
}
