package cli

import (
	"errors"
	"io"
	"os"

	"github.com/aretw0/parley/internal/config"
)

// RunOptions contains all the configuration for the play command.
type RunOptions struct {
	Config     *config.Config
	DocumentID string
	JSON       bool
	Watch      bool
	Debug      bool
	Fresh      bool

	In  io.Reader
	Out io.Writer
}

// Execute handles the 'play' command logic, dispatching to Session or Watch mode.
func Execute(opts RunOptions) error {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Watch {
		if opts.JSON {
			return errors.New("--watch and --json cannot be used together")
		}
		return RunWatch(opts)
	}
	return RunSession(opts)
}
