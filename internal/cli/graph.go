package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MalithGihan/blueprint-service/internal/export"
	"github.com/MalithGihan/blueprint-service/internal/layout"
	"github.com/MalithGihan/blueprint-service/internal/quality"
	"github.com/MalithGihan/blueprint-service/internal/validate"
	"github.com/MalithGihan/blueprint-service/pkg/types"
)

// readGraph decodes a graph JSON document from path, or stdin when path is "-".
func readGraph(cmd *cobra.Command, path string) (types.Graph, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return types.Graph{}, err
		}
		defer f.Close()
		r = f
	}
	var g types.Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return types.Graph{}, fmt.Errorf("decode graph %s: %w", path, err)
	}
	return g, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newAnalyzeCmd() *cobra.Command {
	var mode string
	var failOnBlocked bool

	cmd := &cobra.Command{
		Use:   "analyze [graph.json]",
		Short: "Score a graph and print its quality report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraph(cmd, args[0])
			if err != nil {
				return err
			}
			report := quality.AnalyzeArchitectureQuality(g.Nodes, g.Edges, mode, validate.Rules{})
			loggerFromContext(cmd.Context()).Debug("analyzed graph", "nodes", len(g.Nodes), "edges", len(g.Edges), "score", report.Score)
			if err := printJSON(cmd, report); err != nil {
				return err
			}
			if failOnBlocked && report.IsExportBlocked {
				return fmt.Errorf("export blocked: %d blocker(s)", len(report.Blockers))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(types.ModeDefault), "scoring mode: default, startup or enterprise")
	cmd.Flags().BoolVar(&failOnBlocked, "fail-on-blocked", false, "exit non-zero when the report blocks export")
	return cmd
}

func newMermaidCmd() *cobra.Command {
	var output string
	opts := export.DefaultMermaidOptions()
	var noSubgraphs bool

	cmd := &cobra.Command{
		Use:   "mermaid [graph.json]",
		Short: "Render a graph as a Mermaid flowchart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraph(cmd, args[0])
			if err != nil {
				return err
			}
			opts.IncludeSubgraphs = !noSubgraphs
			return writeOutput(cmd, output, []byte(export.GenerateMermaidFlowchart(g.Nodes, g.Edges, opts)))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.Direction, "direction", "d", opts.Direction, "flowchart direction: TD, TB, BT, LR or RL")
	cmd.Flags().BoolVar(&noSubgraphs, "no-subgraphs", false, "do not group components into layer subgraphs")
	return cmd
}

func newBoundsCmd() *cobra.Command {
	padding := layout.DefaultPadding

	cmd := &cobra.Command{
		Use:   "bounds [graph.json]",
		Short: "Compute the export canvas bounds of a laid out graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if padding < 0 {
				return fmt.Errorf("padding must not be negative")
			}
			g, err := readGraph(cmd, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, layout.CalculateGraphExportBounds(g.Nodes, padding))
		},
	}
	cmd.Flags().Float64Var(&padding, "padding", padding, "padding around the nodes")
	return cmd
}

func newExportCmd() *cobra.Command {
	var name, description, mode, outDir string

	cmd := &cobra.Command{
		Use:   "export [graph.json]",
		Short: "Write Mermaid, Cursor rules, skill package and context files for a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			g, err := readGraph(cmd, args[0])
			if err != nil {
				return err
			}
			report := quality.AnalyzeArchitectureQuality(g.Nodes, g.Edges, mode, validate.Rules{})
			bundle, err := export.BuildBundle(export.Project{Name: name, Description: description}, g.Nodes, g.Edges, report)
			if err != nil {
				for _, b := range report.Blockers {
					logger.Error("blocker", "reason", b)
				}
				return err
			}
			for _, a := range bundle {
				p := filepath.Join(outDir, filepath.FromSlash(a.Name))
				if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
					return err
				}
				if err := os.WriteFile(p, a.Body, 0o644); err != nil {
					return err
				}
				logger.Debug("wrote artifact", "path", p)
			}
			logger.Info("export written", "dir", outDir, "files", len(bundle), "score", report.Score, "grade", report.Grade)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Architecture", "project name")
	cmd.Flags().StringVar(&description, "description", "", "project description")
	cmd.Flags().StringVar(&mode, "mode", string(types.ModeDefault), "scoring mode: default, startup or enterprise")
	cmd.Flags().StringVarP(&outDir, "out", "o", "blueprint-export", "output directory")
	return cmd
}
