package main

import (
	"context"
	"fmt"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [document-id]",
	Short: "Check documents for consistency",
	Long: `Checks the graph structure of the documents (single root, reachability,
valid connections) and lints them against their blackboard schema.
Warnings do not fail validation; structural errors do.`,
	Args: cobra.MaximumNArgs(1),
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

		ctx := context.Background()
		var results []validator.Result
		if len(args) > 0 {
			doc, err := eng.Document(ctx, args[0])
			if err != nil {
				return err
			}
			results = append(results, validator.Validate(doc))
		} else if results, err = validator.ValidateAll(ctx, eng.Loader()); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, res := range results {
			if res.Valid() {
				fmt.Fprintf(out, "✅ %s\n", res.DocumentID)
			} else {
				failed++
				fmt.Fprintf(out, "❌ %s\n", res.DocumentID)
				for _, p := range res.Report.Problems() {
					fmt.Fprintf(out, "   error: %s\n", p)
				}
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(out, "   warning: %s\n", w)
			}
		}
		if failed > 0 {
			return fmt.Errorf("validation failed: %d of %d documents invalid", failed, len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
