package dsl

import "github.com/aretw0/parley/pkg/domain"

type edge struct {
	port   int
	to     string
	guards []domain.Condition
}

// NodeBuilder provides a fluent API for configuring a node.
// Setters that do not apply to the node kind are ignored.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
	edges   []edge
}

// At sets the editor position.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.node.Base().Position = domain.Position{X: x, Y: y}
	return n
}

// Do appends actions executed when the node is entered.
func (n *NodeBuilder) Do(actions ...domain.Action) *NodeBuilder {
	base := n.node.Base()
	base.Actions = append(base.Actions, actions...)
	return n
}

// Speaker sets the speaker of a speech node.
func (n *NodeBuilder) Speaker(name string) *NodeBuilder {
	if s, ok := n.node.(*domain.SpeechNode); ok {
		s.Speaker = name
	}
	return n
}

// Icon sets the icon of a speech node.
func (n *NodeBuilder) Icon(icon string) *NodeBuilder {
	if s, ok := n.node.(*domain.SpeechNode); ok {
		s.Icon = icon
	}
	return n
}

// Audio sets the audio signal of a speech node.
func (n *NodeBuilder) Audio(signal string) *NodeBuilder {
	if s, ok := n.node.(*domain.SpeechNode); ok {
		s.AudioSignal = signal
	}
	return n
}

// AutoAdvance makes a speech node continue on its own after seconds.
func (n *NodeBuilder) AutoAdvance(seconds float64) *NodeBuilder {
	if s, ok := n.node.(*domain.SpeechNode); ok {
		s.AutoAdvanceSeconds = seconds
	}
	return n
}

// Hooks names the hooks fired when a speech node is activated and completed.
func (n *NodeBuilder) Hooks(activated, completed string) *NodeBuilder {
	if s, ok := n.node.(*domain.SpeechNode); ok {
		s.OnActivated = activated
		s.OnCompleted = completed
	}
	return n
}

// Option appends a choice leading to target, shown only when guards hold.
func (n *NodeBuilder) Option(text, target string, guards ...domain.Condition) *NodeBuilder {
	if o, ok := n.node.(*domain.OptionNode); ok {
		port := o.AddOption(&domain.Option{Text: text, Conditions: guards})
		if target != "" {
			n.edges = append(n.edges, edge{port: port, to: target})
		}
	}
	return n
}

// Selected names the hook fired when the last added option is chosen.
func (n *NodeBuilder) Selected(hook string) *NodeBuilder {
	if o, ok := n.node.(*domain.OptionNode); ok && len(o.Options) > 0 {
		o.Options[len(o.Options)-1].OnSelected = hook
	}
	return n
}

// Timeout picks the option at defaultIndex after seconds without a choice.
func (n *NodeBuilder) Timeout(seconds float64, defaultIndex int) *NodeBuilder {
	if o, ok := n.node.(*domain.OptionNode); ok {
		o.TimeoutSeconds = seconds
		o.DefaultOptionIndex = defaultIndex
	}
	return n
}

// Go connects output port 0 to target.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	return n.GoIf(target)
}

// GoIf connects output port 0 to target through a guarded connection.
// Connections are tried in declaration order.
func (n *NodeBuilder) GoIf(target string, guards ...domain.Condition) *NodeBuilder {
	n.edges = append(n.edges, edge{port: 0, to: target, guards: guards})
	return n
}

// Then connects the true port of a branch node.
func (n *NodeBuilder) Then(target string) *NodeBuilder {
	n.edges = append(n.edges, edge{port: domain.PortTrue, to: target})
	return n
}

// Else connects the false port of a branch node.
func (n *NodeBuilder) Else(target string) *NodeBuilder {
	n.edges = append(n.edges, edge{port: domain.PortFalse, to: target})
	return n
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}
