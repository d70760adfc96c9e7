package document

import (
	"errors"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
)

// Codec converts between documents and their persisted form.
type Codec struct {
	Conditions *registry.Registry[domain.Condition]
	Actions    *registry.Registry[domain.Action]
}

// NewCodec returns a codec knowing the built-in conditions and actions.
func NewCodec() *Codec {
	return &Codec{
		Conditions: registry.NewConditions(),
		Actions:    registry.NewActions(),
	}
}

var defaultCodec = NewCodec()

// Encode converts a document with the built-in registries.
func Encode(doc *domain.Document) (File, error) { return defaultCodec.Encode(doc) }

// Decode converts a persisted document with the built-in registries.
func Decode(f File) (*domain.Document, error) { return defaultCodec.Decode(f) }

// Encode converts doc to its persisted form.
func (c *Codec) Encode(doc *domain.Document) (File, error) {
	f := File{ID: doc.ID, Name: doc.Name}

	for _, v := range doc.Schema.Variables() {
		f.Blackboard = append(f.Blackboard, VariableFile{Name: v.Name, Kind: string(v.Kind), Default: v.Value})
	}

	for _, n := range doc.Nodes() {
		nf, err := c.encodeNode(n)
		if err != nil {
			return File{}, fmt.Errorf("encode node %s: %w", n.Base().ID, err)
		}
		f.Nodes = append(f.Nodes, nf)
	}

	for _, conn := range doc.Connections() {
		guards, err := encodeSpecs(conn.Conditions, registry.EncodeCondition)
		if err != nil {
			return File{}, fmt.Errorf("encode connection %s: %w", conn.ID, err)
		}
		f.Connections = append(f.Connections, ConnectionFile{
			GUID:       conn.ID,
			From:       conn.From,
			FromPort:   conn.FromPort,
			To:         conn.To,
			ToPort:     conn.ToPort,
			Conditions: guards,
		})
	}
	return f, nil
}

func (c *Codec) encodeNode(n domain.Node) (NodeFile, error) {
	base := n.Base()
	actions, err := encodeSpecs(base.Actions, registry.EncodeAction)
	if err != nil {
		return NodeFile{}, err
	}
	nf := NodeFile{
		GUID:     base.ID,
		Kind:     string(n.Kind()),
		Position: PositionFile{X: base.Position.X, Y: base.Position.Y},
		Actions:  actions,
	}

	switch n := n.(type) {
	case *domain.SpeechNode:
		nf.Speaker = n.Speaker
		nf.Text = n.Text
		nf.Icon = n.Icon
		nf.AudioSignal = n.AudioSignal
		nf.AutoAdvanceSeconds = n.AutoAdvanceSeconds
		nf.OnActivated = n.OnActivated
		nf.OnCompleted = n.OnCompleted
	case *domain.OptionNode:
		for _, opt := range n.Options {
			if opt == nil {
				nf.Options = append(nf.Options, OptionFile{})
				continue
			}
			guards, err := encodeSpecs(opt.Conditions, registry.EncodeCondition)
			if err != nil {
				return NodeFile{}, err
			}
			nf.Options = append(nf.Options, OptionFile{Text: opt.Text, Conditions: guards, OnSelected: opt.OnSelected})
		}
		nf.TimeoutSeconds = n.TimeoutSeconds
		def := n.DefaultOptionIndex
		nf.DefaultOptionIndex = &def
	case *domain.BranchNode:
		guards, err := encodeSpecs(n.Conditions, registry.EncodeCondition)
		if err != nil {
			return NodeFile{}, err
		}
		nf.Conditions = guards
	}
	return nf, nil
}

// Decode builds a document from its persisted form. The result is not
// repaired: corrupted connections and duplicate GUIDs are kept so that
// validation tooling can report them.
func (c *Codec) Decode(f File) (*domain.Document, error) {
	doc := domain.NewDocument(f.ID)
	doc.Name = f.Name

	var errs []error
	for _, v := range f.Blackboard {
		kind, err := domain.ParseVariableKind(v.Kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("variable %s: %w", v.Name, err))
			continue
		}
		var value any
		if v.Default != "" {
			value = v.Default
		}
		if err := doc.Schema.Define(v.Name, kind, value); err != nil {
			errs = append(errs, err)
		}
	}

	nodes := make([]domain.Node, 0, len(f.Nodes))
	for i, nf := range f.Nodes {
		n, err := c.decodeNode(nf)
		if err != nil {
			errs = append(errs, fmt.Errorf("node %d (%s): %w", i, nf.GUID, err))
			continue
		}
		nodes = append(nodes, n)
	}

	conns := make([]*domain.Connection, 0, len(f.Connections))
	for _, cf := range f.Connections {
		guards, err := decodeSpecs(cf.Conditions, c.Conditions)
		if err != nil {
			errs = append(errs, fmt.Errorf("connection %s: %w", cf.GUID, err))
			continue
		}
		conns = append(conns, &domain.Connection{
			ID:         cf.GUID,
			From:       cf.From,
			FromPort:   cf.FromPort,
			To:         cf.To,
			ToPort:     cf.ToPort,
			Conditions: guards,
		})
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", f.ID, err)
	}
	doc.Restore(nodes, conns)
	return doc, nil
}

func (c *Codec) decodeNode(nf NodeFile) (domain.Node, error) {
	actions, err := decodeSpecs(nf.Actions, c.Actions)
	if err != nil {
		return nil, err
	}
	base := domain.NodeBase{
		ID:       nf.GUID,
		Position: domain.Position{X: nf.Position.X, Y: nf.Position.Y},
		Actions:  actions,
	}

	switch domain.NodeKind(nf.Kind) {
	case domain.KindRoot:
		return &domain.RootNode{NodeBase: base}, nil
	case domain.KindSpeech:
		return &domain.SpeechNode{
			NodeBase:           base,
			Speaker:            nf.Speaker,
			Text:               nf.Text,
			Icon:               nf.Icon,
			AudioSignal:        nf.AudioSignal,
			AutoAdvanceSeconds: nf.AutoAdvanceSeconds,
			OnActivated:        nf.OnActivated,
			OnCompleted:        nf.OnCompleted,
		}, nil
	case domain.KindOption:
		n := &domain.OptionNode{NodeBase: base, TimeoutSeconds: nf.TimeoutSeconds, DefaultOptionIndex: -1}
		if nf.DefaultOptionIndex != nil {
			n.DefaultOptionIndex = *nf.DefaultOptionIndex
		}
		for _, of := range nf.Options {
			guards, err := decodeSpecs(of.Conditions, c.Conditions)
			if err != nil {
				return nil, err
			}
			n.Options = append(n.Options, &domain.Option{Text: of.Text, Conditions: guards, OnSelected: of.OnSelected})
		}
		return n, nil
	case domain.KindBranch:
		guards, err := decodeSpecs(nf.Conditions, c.Conditions)
		if err != nil {
			return nil, err
		}
		return &domain.BranchNode{NodeBase: base, Conditions: guards}, nil
	case "":
		return nil, fmt.Errorf("%w: empty node kind", domain.ErrUnknownKind)
	}
	return &domain.OpaqueNode{NodeBase: base, Type: nf.Kind}, nil
}

func encodeSpecs[T any](items []T, encode func(T) (registry.Spec, error)) ([]registry.Spec, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]registry.Spec, 0, len(items))
	for _, item := range items {
		if any(item) == nil {
			continue
		}
		spec, err := encode(item)
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, nil
}

func decodeSpecs[T any](specs []registry.Spec, reg *registry.Registry[T]) ([]T, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make([]T, 0, len(specs))
	for _, spec := range specs {
		v, err := reg.Decode(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
