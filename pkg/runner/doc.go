/*
Package runner plays dialogue documents interactively.

The Runner bridges the traversal engine and a ports.Presenter: it presents
each suspension point, waits for the presenter's callback and resumes the
engine. It also owns the two timed behaviors of the graph: speech nodes with
AutoAdvanceSeconds continue on their own, and option nodes with TimeoutSeconds
pick their default option.

# Presenters

  - ConsolePresenter: line-oriented terminal; Enter advances, options are
    chosen by number or text. Speech text can be rendered as markdown.
  - JSONPresenter: headless JSON-Lines for scripted clients.

# Usage

	signals := runner.NewSignalManager(ctx)
	defer signals.Stop()

	presenter := runner.NewConsolePresenter(os.Stdin, os.Stdout)
	signals.CloseOn(presenter.Closed())

	step, err := runner.NewRunner(presenter).Play(signals.Context(), engine, doc)
*/
package runner
