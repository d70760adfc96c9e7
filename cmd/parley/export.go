package main

import (
	"fmt"
	"os"

	"github.com/aretw0/parley/pkg/document"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Convert a document file to JSON or YAML",
	Long: `Reads a document written in JSON, YAML or HCL and writes it in the
requested format. GUIDs and counts are preserved, so the output can be
imported again. With --duplicate-as, the copy gets a new ID and fresh GUIDs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")
		newID, _ := cmd.Flags().GetString("duplicate-as")

		doc, err := document.ReadFile(args[0])
		if err != nil {
			return err
		}
		if newID != "" {
			if doc, err = document.Duplicate(doc, newID); err != nil {
				return err
			}
		}
		data, err := document.Marshal(doc, document.Format(format))
		if err != nil {
			return err
		}
		if outPath == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("format", "f", string(document.FormatJSON), "Output format: json or yaml")
	exportCmd.Flags().StringP("out", "o", "", "Write to this file instead of stdout")
	exportCmd.Flags().String("duplicate-as", "", "Export a copy under this document ID with fresh GUIDs")
}
