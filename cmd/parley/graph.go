package main

import (
	"context"
	"fmt"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <document-id>",
	Short: "Export the dialogue graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the document's nodes and connections.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		eng, err := parley.New(cfg.Docs)
		if err != nil {
			return fmt.Errorf("failed to init engine: %w", err)
		}
		defer eng.Close()

		doc, err := eng.Document(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(doc, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
