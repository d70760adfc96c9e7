package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/runner"
)

// stdout receives system messages; replaced in tests.
var stdout io.Writer = os.Stdout

// NewLogger configures the application logger.
// It writes to Stderr (to separate from Stdout dialogue UI).
func NewLogger(level slog.Level, debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(level)
}

// printSystemMessage prints a standardized system message to stdout.
func printSystemMessage(format string, args ...any) {
	fmt.Fprintf(stdout, ">>> %s\n", fmt.Sprintf(format, args...))
}

type closablePresenter interface {
	ports.Presenter
	Closed() <-chan struct{}
}

// newPresenter picks the JSON-Lines presenter or the console one, rendering
// markdown only when stdout is a terminal.
func newPresenter(jsonMode bool, in io.Reader, out io.Writer) closablePresenter {
	if jsonMode {
		return runner.NewJSONPresenter(in, out)
	}
	var opts []runner.ConsoleOption
	if f, ok := out.(*os.File); ok && tui.IsTerminal(f) {
		opts = append(opts, runner.WithRenderer(tui.NewRenderer()))
	}
	return runner.NewConsolePresenter(in, out, opts...)
}

// determineEntryPoint picks the document played when none is named:
// "start", "main", "index", the directory name, then the only document.
func determineEntryPoint(ids []string, dir string) (string, error) {
	candidates := []string{"start", "main", "index"}
	if abs, err := filepath.Abs(dir); err == nil {
		candidates = append(candidates, filepath.Base(abs))
	}
	for _, c := range candidates {
		if slices.Contains(ids, c) {
			return c, nil
		}
	}
	if len(ids) == 1 {
		return ids[0], nil
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("no documents found in %s", dir)
	}
	return "", fmt.Errorf("several documents found in %s, name one of %v", dir, ids)
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, runner.ErrInputClosed)
}

func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}

// logCompletion reports how the session ended.
func logCompletion(step domain.Step, err error, quiet bool, signals *runner.SignalManager) {
	if quiet {
		return
	}
	switch {
	case err == nil:
		printSystemMessage("Finished (%s).", step.Reason)
	case signals != nil && signals.Interrupted():
		fmt.Fprintf(stdout, "[CTRL+C]\n")
		printSystemMessage("Interrupted in '%s'.", step.DocumentID)
	case isInterrupted(err):
		printSystemMessage("Input closed in '%s'.", step.DocumentID)
	default:
		printSystemMessage("Stopped in '%s': %v", step.DocumentID, err)
	}
}
