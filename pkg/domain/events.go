package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter        EventType = "node_enter"
	EventNodeLeave        EventType = "node_leave"
	EventOptionSelected   EventType = "option_selected"
	EventSessionStart     EventType = "session_start"
	EventSessionEnd       EventType = "session_end"
	EventVariablesChanged EventType = "variables_changed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       EventType `json:"type"`
	DocumentID string    `json:"document_id"`
}

// NodeEvent represents entry into or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID   string   `json:"node_id"`
	NodeKind NodeKind `json:"node_kind"`
}

// OptionEvent is emitted when the player picks an option.
type OptionEvent struct {
	EventBase
	NodeID string `json:"node_id"`
	Index  int    `json:"index"`
	Text   string `json:"text"`
	// HookID is the option's OnSelected identifier.
	HookID string `json:"hook_id,omitempty"`
}

// SessionEvent marks the start or the end of a session.
type SessionEvent struct {
	EventBase
	Reason EndReason `json:"reason,omitempty"`
	Err    error     `json:"-"`
}

// VariablesEvent carries the blackboard changes made by a node's actions.
type VariablesEvent struct {
	EventBase
	NodeID string          `json:"node_id"`
	Diff   *BlackboardDiff `json:"diff"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter        func(context.Context, *NodeEvent)
	OnNodeLeave        func(context.Context, *NodeEvent)
	OnOptionSelected   func(context.Context, *OptionEvent)
	OnSessionStart     func(context.Context, *SessionEvent)
	OnSessionEnd       func(context.Context, *SessionEvent)
	OnVariablesChanged func(context.Context, *VariablesEvent)
}

// Merge returns hooks calling h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter:        chain(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave:        chain(h.OnNodeLeave, other.OnNodeLeave),
		OnOptionSelected:   chain(h.OnOptionSelected, other.OnOptionSelected),
		OnSessionStart:     chain(h.OnSessionStart, other.OnSessionStart),
		OnSessionEnd:       chain(h.OnSessionEnd, other.OnSessionEnd),
		OnVariablesChanged: chain(h.OnVariablesChanged, other.OnVariablesChanged),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
