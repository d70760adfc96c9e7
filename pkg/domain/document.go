package domain

import (
	"errors"
	"fmt"
)

// Document is the authored unit: an arena of nodes keyed by GUID, the
// connections between them and the blackboard schema.
type Document struct {
	ID     string
	Name   string
	Schema *Blackboard

	nodes       []Node
	index       map[string]Node
	connections []*Connection
	dirty       bool
}

// NewDocument creates an empty document with an empty schema.
func NewDocument(id string) *Document {
	return &Document{
		ID:     id,
		Schema: NewBlackboard(),
		index:  make(map[string]Node),
	}
}

// Restore replaces the document contents without any checks. It is meant for
// decoders; call Repair afterwards to restore the invariants.
func (d *Document) Restore(nodes []Node, connections []*Connection) {
	d.nodes = d.nodes[:0]
	d.index = make(map[string]Node, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		d.nodes = append(d.nodes, n)
		if _, taken := d.index[n.Base().ID]; !taken {
			d.index[n.Base().ID] = n
		}
	}
	d.connections = d.connections[:0]
	for _, c := range connections {
		if c != nil {
			d.connections = append(d.connections, c)
		}
	}
}

// Nodes returns the nodes in insertion order.
func (d *Document) Nodes() []Node {
	out := make([]Node, len(d.nodes))
	copy(out, d.nodes)
	return out
}

// Connections returns the connections in declaration order.
func (d *Document) Connections() []*Connection {
	out := make([]*Connection, len(d.connections))
	copy(out, d.connections)
	return out
}

// Node resolves a GUID.
func (d *Document) Node(guid string) (Node, bool) {
	n, ok := d.index[guid]
	return n, ok
}

// Root returns the Root node, if any.
func (d *Document) Root() (Node, bool) {
	for _, n := range d.nodes {
		if n.Kind() == KindRoot {
			return n, true
		}
	}
	return nil, false
}

// AddNode inserts a node. A document holds at most one Root.
func (d *Document) AddNode(n Node) error {
	if n == nil {
		return fmt.Errorf("add node: %w", ErrNodeNotFound)
	}
	id := n.Base().ID
	if id == "" {
		return fmt.Errorf("add node: %w", ErrDuplicateNode)
	}
	if d.index == nil {
		d.index = make(map[string]Node)
	}
	if _, taken := d.index[id]; taken {
		return fmt.Errorf("add node %s: %w", id, ErrDuplicateNode)
	}
	if n.Kind() == KindRoot {
		if _, ok := d.Root(); ok {
			return ErrRootExists
		}
	}
	d.nodes = append(d.nodes, n)
	d.index[id] = n
	return nil
}

// RemoveNode deletes a node and every connection touching it.
// The Root node cannot be removed.
func (d *Document) RemoveNode(guid string) error {
	n, ok := d.index[guid]
	if !ok {
		return fmt.Errorf("remove node %s: %w", guid, ErrNodeNotFound)
	}
	if n.Kind() == KindRoot {
		return ErrRootRemoval
	}
	for i, candidate := range d.nodes {
		if candidate == n {
			d.nodes = append(d.nodes[:i], d.nodes[i+1:]...)
			break
		}
	}
	delete(d.index, guid)
	d.filterConnections(func(c *Connection) bool {
		return c.From != guid && c.To != guid
	})
	return nil
}

// AddConnection inserts a connection. Every output port holds a single
// connection, so an existing one from the same port is replaced.
func (d *Document) AddConnection(c *Connection) error {
	if c == nil {
		return errors.New("add connection: nil connection")
	}
	from, ok := d.index[c.From]
	if !ok {
		return fmt.Errorf("add connection from %s: %w", c.From, ErrNodeNotFound)
	}
	to, ok := d.index[c.To]
	if !ok {
		return fmt.Errorf("add connection to %s: %w", c.To, ErrNodeNotFound)
	}
	if c.FromPort < 0 || c.FromPort >= from.OutputPortCount() {
		return fmt.Errorf("add connection: output %d of %s: %w", c.FromPort, from.DisplayTitle(), ErrInvalidPort)
	}
	if c.ToPort < 0 || c.ToPort >= to.InputPortCount() {
		return fmt.Errorf("add connection: input %d of %s: %w", c.ToPort, to.DisplayTitle(), ErrInvalidPort)
	}
	if c.ID == "" {
		c.ID = NewGUID()
	}
	d.filterConnections(func(existing *Connection) bool {
		return existing.From != c.From || existing.FromPort != c.FromPort
	})
	d.connections = append(d.connections, c)
	return nil
}

// Connect links an output port of from to the input of to.
func (d *Document) Connect(from Node, port int, to Node, guards ...Condition) (*Connection, error) {
	c := &Connection{
		ID:         NewGUID(),
		From:       from.Base().ID,
		FromPort:   port,
		To:         to.Base().ID,
		Conditions: guards,
	}
	if err := d.AddConnection(c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveConnection deletes a connection by GUID.
func (d *Document) RemoveConnection(guid string) bool {
	before := len(d.connections)
	d.filterConnections(func(c *Connection) bool { return c.ID != guid })
	return len(d.connections) != before
}

// RemoveOption deletes an option and keeps the connections of the remaining
// options attached to the right ports.
func (d *Document) RemoveOption(nodeGUID string, index int) error {
	n, ok := d.index[nodeGUID]
	if !ok {
		return fmt.Errorf("remove option: %s: %w", nodeGUID, ErrNodeNotFound)
	}
	opt, ok := n.(*OptionNode)
	if !ok {
		return fmt.Errorf("remove option: %s is a %s node: %w", nodeGUID, n.Kind(), ErrInvalidPort)
	}
	if err := opt.RemoveOption(index); err != nil {
		return err
	}
	d.filterConnections(func(c *Connection) bool {
		return c.From != nodeGUID || c.FromPort != index
	})
	for _, c := range d.connections {
		if c.From == nodeGUID && c.FromPort > index {
			c.FromPort--
		}
	}
	return nil
}

// Outgoing returns the connections leaving a port, in declaration order.
func (d *Document) Outgoing(guid string, port int) []*Connection {
	var out []*Connection
	for _, c := range d.connections {
		if c.From == guid && c.FromPort == port {
			out = append(out, c)
		}
	}
	return out
}

// NextNode returns the target of the first connection leaving a port,
// regardless of its guards.
func (d *Document) NextNode(guid string, port int) (Node, bool) {
	for _, c := range d.Outgoing(guid, port) {
		if n, ok := d.index[c.To]; ok {
			return n, true
		}
	}
	return nil, false
}

// Dirty reports whether a repair changed the document since the last MarkClean.
func (d *Document) Dirty() bool { return d.dirty }

// MarkClean resets the dirty flag, typically after the document was saved.
func (d *Document) MarkClean() { d.dirty = false }

func (d *Document) filterConnections(keep func(*Connection) bool) {
	kept := d.connections[:0]
	for _, c := range d.connections {
		if keep(c) {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(d.connections); i++ {
		d.connections[i] = nil
	}
	d.connections = kept
}
