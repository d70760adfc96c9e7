package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NodeKind identifies a node variant.
type NodeKind string

const (
	KindRoot   NodeKind = "root"
	KindSpeech NodeKind = "speech"
	KindOption NodeKind = "option"
	KindBranch NodeKind = "branch"
)

// Branch output ports.
const (
	PortTrue  = 0
	PortFalse = 1
)

// Position is the editor placement of a node. The engine never reads it.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeBase holds the attributes shared by every node variant.
type NodeBase struct {
	ID       string
	Position Position
	Actions  []Action
}

// Base gives access to the shared attributes.
func (b *NodeBase) Base() *NodeBase { return b }

// Node is a vertex of the dialogue graph.
type Node interface {
	Base() *NodeBase
	Kind() NodeKind
	InputPortCount() int
	OutputPortCount() int
	DisplayTitle() string
}

// NewGUID returns a fresh node or connection identifier.
func NewGUID() string {
	return uuid.NewString()
}

// NewNode creates an empty node of the given kind with a fresh GUID.
func NewNode(kind NodeKind) (Node, error) {
	base := NodeBase{ID: NewGUID()}
	switch kind {
	case KindRoot:
		return &RootNode{NodeBase: base}, nil
	case KindSpeech:
		return &SpeechNode{NodeBase: base}, nil
	case KindOption:
		return &OptionNode{NodeBase: base, DefaultOptionIndex: -1}, nil
	case KindBranch:
		return &BranchNode{NodeBase: base}, nil
	}
	return nil, fmt.Errorf("%w: node kind %q", ErrUnknownKind, kind)
}

// RootNode is the single entry point of a document.
type RootNode struct {
	NodeBase
}

func (n *RootNode) Kind() NodeKind       { return KindRoot }
func (n *RootNode) InputPortCount() int  { return 0 }
func (n *RootNode) OutputPortCount() int { return 1 }
func (n *RootNode) DisplayTitle() string { return "Start" }

// SpeechNode shows a line of dialogue and waits for the presentation layer.
type SpeechNode struct {
	NodeBase
	Speaker     string
	Text        string
	Icon        string
	AudioSignal string
	// AutoAdvanceSeconds advances without input after the delay. Zero waits.
	AutoAdvanceSeconds float64
	// OnActivated and OnCompleted name hooks fired by the presentation layer.
	OnActivated string
	OnCompleted string
}

func (n *SpeechNode) Kind() NodeKind       { return KindSpeech }
func (n *SpeechNode) InputPortCount() int  { return 1 }
func (n *SpeechNode) OutputPortCount() int { return 1 }

func (n *SpeechNode) DisplayTitle() string {
	if n.Speaker == "" {
		return "Speech"
	}
	return n.Speaker
}

// Option is one player choice of an OptionNode.
type Option struct {
	Text       string
	Conditions []Condition
	OnSelected string
}

// AvailableOption is an option that passed its guard, with its absolute index.
type AvailableOption struct {
	Index  int     `json:"index"`
	Option *Option `json:"-"`
}

// OptionNode presents a set of choices. Each option owns one output port.
type OptionNode struct {
	NodeBase
	Options []*Option
	// TimeoutSeconds picks DefaultOptionIndex when it elapses. Zero disables it.
	TimeoutSeconds     float64
	DefaultOptionIndex int
}

func (n *OptionNode) Kind() NodeKind       { return KindOption }
func (n *OptionNode) InputPortCount() int  { return 1 }
func (n *OptionNode) OutputPortCount() int { return len(n.Options) }

func (n *OptionNode) DisplayTitle() string {
	return fmt.Sprintf("Choice (%d)", len(n.Options))
}

// AddOption appends an option and returns its port index.
func (n *OptionNode) AddOption(opt *Option) int {
	n.Options = append(n.Options, opt)
	return len(n.Options) - 1
}

// RemoveOption deletes the option at index. Connections leaving the removed
// or later ports must be fixed by the owning document (see Document.RemoveOption).
func (n *OptionNode) RemoveOption(index int) error {
	if index < 0 || index >= len(n.Options) {
		return fmt.Errorf("%w: option %d of %d", ErrInvalidPort, index, len(n.Options))
	}
	n.Options = append(n.Options[:index], n.Options[index+1:]...)
	switch {
	case n.DefaultOptionIndex == index:
		n.DefaultOptionIndex = -1
	case n.DefaultOptionIndex > index:
		n.DefaultOptionIndex--
	}
	return nil
}

// Available returns the options whose guards hold, keeping absolute indices.
// Nil options are skipped.
func (n *OptionNode) Available(vars VariableReader) ([]AvailableOption, error) {
	var (
		out  []AvailableOption
		errs []error
	)
	for i, opt := range n.Options {
		if opt == nil {
			continue
		}
		ok, err := EvaluateAll(opt.Conditions, vars)
		if err != nil {
			errs = append(errs, fmt.Errorf("option %d: %w", i, err))
		}
		if ok {
			out = append(out, AvailableOption{Index: i, Option: opt})
		}
	}
	return out, errors.Join(errs...)
}

// BranchNode routes through PortTrue when all its conditions hold, PortFalse otherwise.
type BranchNode struct {
	NodeBase
	Conditions []Condition
}

func (n *BranchNode) Kind() NodeKind       { return KindBranch }
func (n *BranchNode) InputPortCount() int  { return 1 }
func (n *BranchNode) OutputPortCount() int { return 2 }

func (n *BranchNode) DisplayTitle() string {
	if len(n.Conditions) == 0 {
		return "Branch"
	}
	names := make([]string, 0, len(n.Conditions))
	for _, c := range n.Conditions {
		if c != nil {
			names = append(names, c.VariableName())
		}
	}
	return "Branch: " + strings.Join(names, ", ")
}

// Evaluate returns the output port selected by the branch conditions.
func (n *BranchNode) Evaluate(vars VariableReader) (int, error) {
	ok, err := EvaluateAll(n.Conditions, vars)
	if ok {
		return PortTrue, err
	}
	return PortFalse, err
}

// OpaqueNode stands for a node whose kind this build does not know.
// It is kept so documents survive a round trip; traversal ends on it.
type OpaqueNode struct {
	NodeBase
	Type string
}

func (n *OpaqueNode) Kind() NodeKind       { return NodeKind(n.Type) }
func (n *OpaqueNode) InputPortCount() int  { return 1 }
func (n *OpaqueNode) OutputPortCount() int { return 0 }
func (n *OpaqueNode) DisplayTitle() string { return "Unknown: " + n.Type }
