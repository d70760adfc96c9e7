package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [document-id]",
	Short: "Play a dialogue in the terminal",
	Long: `Plays a dialogue document interactively. Press Enter to continue after
a line of speech and type the number or the text of an option to pick it.

Without a document ID, 'start', 'main', 'index' or the directory name is played.
With --json, steps are written as JSON lines and inputs read from stdin:
an empty line advances, a number picks the option with that index.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := cli.RunOptions{Config: cfg}
		if len(args) > 0 {
			opts.DocumentID = args[0]
		}
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		return cli.Execute(opts)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Bool("json", false, "Speak JSON lines on stdin/stdout")
	playCmd.Flags().BoolP("watch", "w", false, "Restart the dialogue when a document changes")
	playCmd.Flags().Bool("debug", false, "Log traversal events to stderr")
	playCmd.Flags().Bool("fresh", false, "Reset the runtime blackboard before playing")
}
