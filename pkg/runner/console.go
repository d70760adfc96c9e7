package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/muesli/termenv"
)

// ContentRenderer transforms speech text before it is written, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)

// ConsolePresenter presents dialogue on a line-oriented terminal.
// Enter advances speech; options are picked by their number or their text.
type ConsolePresenter struct {
	Writer   io.Writer
	Renderer ContentRenderer

	out   *termenv.Output
	lines *lineDispatcher
	wmu   sync.Mutex
}

// ConsoleOption configures a ConsolePresenter.
type ConsoleOption func(*ConsolePresenter)

// WithRenderer configures the content renderer applied to speech text.
func WithRenderer(renderer ContentRenderer) ConsoleOption {
	return func(p *ConsolePresenter) {
		p.Renderer = renderer
	}
}

// NewConsolePresenter creates a presenter reading r and writing w.
// Nil arguments default to Stdin and Stdout.
func NewConsolePresenter(r io.Reader, w io.Writer, opts ...ConsoleOption) *ConsolePresenter {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	p := &ConsolePresenter{
		Writer: w,
		out:    termenv.NewOutput(w),
	}
	p.lines = newLineDispatcher(r, func(err error) { p.printf("! %v\n", err) })
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Closed is closed once the input reaches EOF or fails.
func (p *ConsolePresenter) Closed() <-chan struct{} {
	return p.lines.closed
}

// PresentSpeech writes the speaker and text, then waits for Enter.
func (p *ConsolePresenter) PresentSpeech(ctx context.Context, node *domain.SpeechNode, text string, onAdvance func()) {
	if node.Speaker != "" {
		label := node.Speaker
		if node.Icon != "" {
			label = node.Icon + " " + label
		}
		p.printf("%s\n", p.out.String(label).Bold().Foreground(p.out.Color("#a78bfa")))
	}
	p.printf("%s\n", p.render(text))
	if node.AutoAdvanceSeconds <= 0 {
		p.printf("%s\n", p.out.String("(press Enter)").Faint())
	}

	p.lines.await(func(string) bool {
		onAdvance()
		return true
	})
}

// PresentOptions lists the options numbered from 1 in presentation order.
func (p *ConsolePresenter) PresentOptions(ctx context.Context, node *domain.OptionNode, options []ports.PresentedOption, onChoice func(index int)) {
	for i, opt := range options {
		num := p.out.String(strconv.Itoa(i + 1)).Foreground(p.out.Color("#818cf8"))
		p.printf("  %s) %s\n", num, opt.Text)
	}
	p.printf("> ")

	p.lines.await(func(line string) bool {
		if index, ok := matchOption(line, options); ok {
			onChoice(index)
			return true
		}
		p.printf("Pick 1-%d: ", len(options))
		return false
	})
}

// Hide clears any pending prompt.
func (p *ConsolePresenter) Hide(ctx context.Context) {
	p.lines.cancel()
}

func (p *ConsolePresenter) render(text string) string {
	if p.Renderer == nil {
		return text
	}
	rendered, err := p.Renderer(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}

func (p *ConsolePresenter) printf(format string, args ...any) {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	_, _ = fmt.Fprintf(p.Writer, format, args...)
}

// matchOption resolves a typed line to an absolute option index, by its
// 1-based position or by case-insensitive text.
func matchOption(line string, options []ports.PresentedOption) (int, bool) {
	if n, err := strconv.Atoi(line); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1].Index, true
		}
		return 0, false
	}
	for _, opt := range options {
		if line != "" && strings.EqualFold(line, opt.Text) {
			return opt.Index, true
		}
	}
	return 0, false
}
