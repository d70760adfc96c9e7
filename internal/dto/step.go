package dto

import (
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Step is the wire form of a domain.Step shared by the HTTP, websocket and
// MCP surfaces. Texts are already interpolated.
type Step struct {
	Status     string                  `json:"status"`
	DocumentID string                  `json:"document_id,omitempty"`
	Node       *Node                   `json:"node,omitempty"`
	Options    []ports.PresentedOption `json:"options,omitempty"`
	Reason     string                  `json:"reason,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// Node describes the presented node.
type Node struct {
	ID                 string  `json:"id"`
	Kind               string  `json:"kind"`
	Speaker            string  `json:"speaker,omitempty"`
	Text               string  `json:"text,omitempty"`
	Icon               string  `json:"icon,omitempty"`
	AudioSignal        string  `json:"audio_signal,omitempty"`
	AutoAdvanceSeconds float64 `json:"auto_advance_seconds,omitempty"`
	OnActivated        string  `json:"on_activated,omitempty"`
	OnCompleted        string  `json:"on_completed,omitempty"`
	TimeoutSeconds     float64 `json:"timeout_seconds,omitempty"`
	DefaultOptionIndex *int    `json:"default_option_index,omitempty"`
}

// Variable is a blackboard entry with its parsed value.
type Variable struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

// FromStep converts a step. render interpolates texts; nil keeps them as authored.
func FromStep(step domain.Step, render func(string) string) Step {
	if render == nil {
		render = func(s string) string { return s }
	}
	out := Step{
		Status:     string(step.Status),
		DocumentID: step.DocumentID,
		Reason:     string(step.Reason),
	}
	if step.Err != nil {
		out.Error = step.Err.Error()
	}

	if node, ok := step.Speech(); ok {
		out.Node = &Node{
			ID:                 node.ID,
			Kind:               string(node.Kind()),
			Speaker:            node.Speaker,
			Text:               render(node.Text),
			Icon:               node.Icon,
			AudioSignal:        node.AudioSignal,
			AutoAdvanceSeconds: node.AutoAdvanceSeconds,
			OnActivated:        node.OnActivated,
			OnCompleted:        node.OnCompleted,
		}
	}
	if node, ok := step.Choice(); ok {
		out.Node = &Node{
			ID:             node.ID,
			Kind:           string(node.Kind()),
			TimeoutSeconds: node.TimeoutSeconds,
		}
		if node.DefaultOptionIndex >= 0 {
			def := node.DefaultOptionIndex
			out.Node.DefaultOptionIndex = &def
		}
		out.Options = make([]ports.PresentedOption, 0, len(step.Options))
		for _, opt := range step.Options {
			out.Options = append(out.Options, ports.PresentedOption{Index: opt.Index, Text: render(opt.Option.Text)})
		}
	}
	return out
}

// FromVariable converts a variable, falling back to its canonical string
// when it cannot be parsed.
func FromVariable(v domain.Variable) Variable {
	value, err := v.Parsed()
	if err != nil {
		return Variable{Name: v.Name, Kind: string(v.Kind), Value: v.Value}
	}
	return Variable{Name: v.Name, Kind: string(v.Kind), Value: value}
}
