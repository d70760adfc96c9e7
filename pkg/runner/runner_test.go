package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsl"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPresenter answers speech immediately (unless silent) and options
// from a queue of absolute indices. An exhausted queue leaves options unanswered.
type scriptedPresenter struct {
	mu       sync.Mutex
	silent   bool
	choices  []int
	speeches []string
	menus    [][]ports.PresentedOption
	hidden   int
}

func (p *scriptedPresenter) PresentSpeech(ctx context.Context, node *domain.SpeechNode, text string, onAdvance func()) {
	p.mu.Lock()
	p.speeches = append(p.speeches, text)
	silent := p.silent
	p.mu.Unlock()
	if !silent {
		onAdvance()
	}
}

func (p *scriptedPresenter) PresentOptions(ctx context.Context, node *domain.OptionNode, options []ports.PresentedOption, onChoice func(index int)) {
	p.mu.Lock()
	p.menus = append(p.menus, options)
	if len(p.choices) == 0 {
		p.mu.Unlock()
		return
	}
	choice := p.choices[0]
	p.choices = p.choices[1:]
	p.mu.Unlock()
	go onChoice(choice)
}

func (p *scriptedPresenter) Hide(ctx context.Context) {
	p.mu.Lock()
	p.hidden++
	p.mu.Unlock()
}

// tavern: greet -> menu [0: "Buy a drink" if gold >= 3, 1: "Ask about {rumor}", 2: "Leave"].
func tavern(t *testing.T, configure func(menu *dsl.NodeBuilder, greet *dsl.NodeBuilder)) *domain.Document {
	t.Helper()
	b := dsl.New("tavern")
	b.Var("gold", domain.KindInt, 1)
	b.Var("rumor", domain.KindString, "the dragon")

	b.Root().Go("greet")
	greet := b.Speech("greet", "Welcome! You have {gold} gold.").Speaker("Barkeep").Go("menu")
	menu := b.Options("menu").
		Option("Buy a drink", "drink", dsl.Int("gold", domain.GreaterOrEqual, 3)).
		Option("Ask about {rumor}", "rumor").
		Option("Leave", "bye")
	b.Speech("drink", "Cheers.").Do(dsl.IntOp("gold", domain.OpSubtract, 3))
	b.Speech("rumor", "They say {rumor} sleeps in the hills.")
	b.Speech("bye", "Safe travels.")
	if configure != nil {
		configure(menu, greet)
	}

	doc, err := b.Build()
	require.NoError(t, err)
	return doc
}

func TestRunner_PlaysToTheEnd(t *testing.T) {
	presenter := &scriptedPresenter{choices: []int{1}}
	r := runner.NewRunner(presenter)

	step, err := r.Play(context.Background(), runtime.NewEngine(), tavern(t, nil))
	require.NoError(t, err)
	assert.Equal(t, domain.EndNoConnection, step.Reason)

	assert.Equal(t, []string{"Welcome! You have 1 gold.", "They say the dragon sleeps in the hills."}, presenter.speeches)
	require.Len(t, presenter.menus, 1)
	assert.Equal(t, []ports.PresentedOption{
		{Index: 1, Text: "Ask about the dragon"},
		{Index: 2, Text: "Leave"},
	}, presenter.menus[0])
	assert.Equal(t, 1, presenter.hidden)
}

func TestRunner_InvalidChoiceIsPresentedAgain(t *testing.T) {
	presenter := &scriptedPresenter{choices: []int{0, 2}}
	r := runner.NewRunner(presenter)

	step, err := r.Play(context.Background(), runtime.NewEngine(), tavern(t, nil))
	require.NoError(t, err)
	assert.True(t, step.IsEnded())
	assert.Len(t, presenter.menus, 2, "the hidden option is rejected and the menu shown again")
	assert.Equal(t, "Safe travels.", presenter.speeches[len(presenter.speeches)-1])
}

func TestRunner_AutoAdvance(t *testing.T) {
	presenter := &scriptedPresenter{silent: true, choices: []int{2}}
	doc := tavern(t, func(_ *dsl.NodeBuilder, greet *dsl.NodeBuilder) {
		greet.AutoAdvance(0.01)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := runner.NewRunner(presenter).Play(ctx, runtime.NewEngine(), doc)
	// "bye" has no auto advance and the presenter is silent, so the run is cut by the deadline.
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, presenter.menus, 1, "the greeting advanced on its own")
}

func TestRunner_OptionTimeout(t *testing.T) {
	tests := []struct {
		name        string
		defaultIdx  int
		wantSpeech  string
		description string
	}{
		{"default available", 2, "Safe travels.", "picks the default option"},
		{"default hidden", 0, "They say the dragon sleeps in the hills.", "falls back to the first available option"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			presenter := &scriptedPresenter{}
			doc := tavern(t, func(menu *dsl.NodeBuilder, _ *dsl.NodeBuilder) {
				menu.Timeout(0.01, tt.defaultIdx)
			})

			step, err := runner.NewRunner(presenter).Play(context.Background(), runtime.NewEngine(), doc)
			require.NoError(t, err)
			assert.True(t, step.IsEnded())
			assert.Equal(t, tt.wantSpeech, presenter.speeches[len(presenter.speeches)-1], tt.description)
		})
	}
}

func TestRunner_OptionTimeoutWithoutDefault(t *testing.T) {
	presenter := &scriptedPresenter{}
	engine := runtime.NewEngine()
	doc := tavern(t, func(menu *dsl.NodeBuilder, _ *dsl.NodeBuilder) {
		menu.Timeout(0.01, -1)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := runner.NewRunner(presenter).Play(ctx, engine, doc)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "the menu waits for an explicit choice")
	assert.Len(t, presenter.menus, 1)
	assert.Equal(t, []string{"Welcome! You have 1 gold."}, presenter.speeches)
}

func TestRunner_CancelEndsSession(t *testing.T) {
	presenter := &scriptedPresenter{}
	engine := runtime.NewEngine()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := runner.NewRunner(presenter).Play(ctx, engine, tavern(t, nil))
		done <- err
	}()

	require.Eventually(t, func() bool {
		step, ok := engine.Current()
		return ok && step.Status == domain.AwaitingChoice
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Play did not return after cancellation")
	}
	_, active := engine.Current()
	assert.False(t, active)
	assert.Equal(t, 1, presenter.hidden)
}

func TestRunner_StartError(t *testing.T) {
	presenter := &scriptedPresenter{}
	_, err := runner.NewRunner(presenter).Play(context.Background(), runtime.NewEngine(), domain.NewDocument("empty"))
	assert.ErrorIs(t, err, domain.ErrNoRoot)
	assert.Equal(t, 1, presenter.hidden)
}

func TestDefaultChoice(t *testing.T) {
	avail := []domain.AvailableOption{{Index: 1}, {Index: 2}}
	tests := []struct {
		name       string
		defaultIdx int
		available  []domain.AvailableOption
		want       int
		wantOK     bool
	}{
		{"default available", 2, avail, 2, true},
		{"default hidden", 0, avail, 1, true},
		{"no default", -1, avail, 0, false},
		{"nothing available", 2, nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &domain.OptionNode{DefaultOptionIndex: tt.defaultIdx, TimeoutSeconds: 1}
			got, ok := runner.DefaultChoice(node, tt.available)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConsolePresenter_Play(t *testing.T) {
	in := strings.NewReader("\nfoo\nleave\n\n")
	var out bytes.Buffer
	presenter := runner.NewConsolePresenter(in, &out, runner.WithRenderer(func(s string) (string, error) {
		return strings.ToUpper(s), nil
	}))

	step, err := runner.NewRunner(presenter).Play(context.Background(), runtime.NewEngine(), tavern(t, nil))
	require.NoError(t, err)
	assert.True(t, step.IsEnded())

	text := out.String()
	assert.Contains(t, text, "Barkeep")
	assert.Contains(t, text, "WELCOME! YOU HAVE 1 GOLD.")
	assert.Contains(t, text, "1) Ask about the dragon")
	assert.Contains(t, text, "2) Leave")
	assert.Contains(t, text, "Pick 1-2")
	assert.Contains(t, text, "SAFE TRAVELS.")
	assert.NotContains(t, text, "Buy a drink")
}

func TestConsolePresenter_Closed(t *testing.T) {
	presenter := runner.NewConsolePresenter(strings.NewReader(""), &bytes.Buffer{})
	presenter.PresentSpeech(context.Background(), &domain.SpeechNode{Text: "hi"}, "hi", func() {})

	select {
	case <-presenter.Closed():
	case <-time.After(time.Second):
		t.Fatal("presenter not closed at EOF")
	}
}

func TestJSONPresenter_Play(t *testing.T) {
	in := strings.NewReader("\n\"oops\"\n{\"kind\":\"choose\",\"choice\":2}\n\n")
	var out bytes.Buffer
	presenter := runner.NewJSONPresenter(in, &out)

	_, err := runner.NewRunner(presenter).Play(context.Background(), runtime.NewEngine(), tavern(t, nil))
	require.NoError(t, err)

	var types []string
	dec := json.NewDecoder(&out)
	for dec.More() {
		var ev runner.Event
		require.NoError(t, dec.Decode(&ev))
		types = append(types, ev.Type)
		if ev.Type == runner.EventOptions {
			assert.Len(t, ev.Options, 2)
		}
	}
	assert.Equal(t, []string{
		runner.EventSpeech,
		runner.EventOptions,
		runner.EventError,
		runner.EventSpeech,
		runner.EventHide,
	}, types)
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Input
		wantErr bool
	}{
		{"", domain.Advance(), false},
		{"3", domain.Choose(3), false},
		{`{"kind":"choose","choice":1}`, domain.Choose(1), false},
		{`{}`, domain.Advance(), false},
		{`nope`, domain.Input{}, true},
	}
	for _, tt := range tests {
		got, err := runner.ParseInput(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
