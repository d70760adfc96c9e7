package runner

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Event is a single JSON line written by JSONPresenter.
type Event struct {
	Type     string                  `json:"type"`
	NodeID   string                  `json:"node_id,omitempty"`
	Speaker  string                  `json:"speaker,omitempty"`
	Text     string                  `json:"text,omitempty"`
	Icon     string                  `json:"icon,omitempty"`
	Audio    string                  `json:"audio_signal,omitempty"`
	Options  []ports.PresentedOption `json:"options,omitempty"`
	Default  *int                    `json:"default_option_index,omitempty"`
	Timeout  float64                 `json:"timeout_seconds,omitempty"`
	AutoNext float64                 `json:"auto_advance_seconds,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// Event types.
const (
	EventSpeech  = "speech"
	EventOptions = "options"
	EventHide    = "hide"
	EventError   = "error"
)

// JSONPresenter is a headless presenter speaking JSON-Lines.
// Each presentation is one Event line. Input lines are either empty (advance),
// an absolute option index, or an object such as {"kind":"choose","choice":2}.
type JSONPresenter struct {
	Encoder *json.Encoder

	lines *lineDispatcher
	mu    sync.Mutex
}

// NewJSONPresenter creates a presenter for JSON IO.
func NewJSONPresenter(r io.Reader, w io.Writer) *JSONPresenter {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &JSONPresenter{Encoder: json.NewEncoder(w)}
	h.lines = newLineDispatcher(r, h.fail)
	return h
}

// Closed is closed once the input reaches EOF or fails.
func (h *JSONPresenter) Closed() <-chan struct{} {
	return h.lines.closed
}

func (h *JSONPresenter) PresentSpeech(ctx context.Context, node *domain.SpeechNode, text string, onAdvance func()) {
	h.emit(Event{
		Type:     EventSpeech,
		NodeID:   node.ID,
		Speaker:  node.Speaker,
		Text:     text,
		Icon:     node.Icon,
		Audio:    node.AudioSignal,
		AutoNext: node.AutoAdvanceSeconds,
	})
	h.lines.await(func(string) bool {
		onAdvance()
		return true
	})
}

func (h *JSONPresenter) PresentOptions(ctx context.Context, node *domain.OptionNode, options []ports.PresentedOption, onChoice func(index int)) {
	ev := Event{
		Type:    EventOptions,
		NodeID:  node.ID,
		Options: options,
		Timeout: node.TimeoutSeconds,
	}
	if node.DefaultOptionIndex >= 0 {
		def := node.DefaultOptionIndex
		ev.Default = &def
	}
	h.emit(ev)
	h.lines.await(func(line string) bool {
		in, err := ParseInput(line)
		if err != nil {
			h.fail(err)
			return false
		}
		if in.Kind != domain.InputChoose {
			h.fail(domain.ErrUnexpectedInput)
			return false
		}
		onChoice(in.Choice)
		return true
	})
}

func (h *JSONPresenter) Hide(ctx context.Context) {
	h.lines.cancel()
	h.emit(Event{Type: EventHide})
}

func (h *JSONPresenter) fail(err error) {
	h.emit(Event{Type: EventError, Error: err.Error()})
}

func (h *JSONPresenter) emit(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = h.Encoder.Encode(ev)
}

// ParseInput decodes a JSON-Lines input: "" advances, a bare integer chooses,
// and objects are decoded as domain.Input.
func ParseInput(text string) (domain.Input, error) {
	if text == "" {
		return domain.Advance(), nil
	}
	if n, err := strconv.Atoi(text); err == nil {
		return domain.Choose(n), nil
	}
	var in domain.Input
	if err := json.Unmarshal([]byte(text), &in); err != nil {
		return domain.Input{}, err
	}
	if in.Kind == "" {
		in.Kind = domain.InputAdvance
	}
	return in, nil
}
