package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	doc   *domain.Document
	order []*NodeBuilder
	nodes map[string]*NodeBuilder
	errs  []error
}

// New creates a new document builder.
func New(id string) *Builder {
	return &Builder{
		doc:   domain.NewDocument(id),
		nodes: make(map[string]*NodeBuilder),
	}
}

// Name sets the display name of the document.
func (b *Builder) Name(name string) *Builder {
	b.doc.Name = name
	return b
}

// Var declares a blackboard variable with its default value.
func (b *Builder) Var(name string, kind domain.VariableKind, value any) *Builder {
	if err := b.doc.Schema.Define(name, kind, value); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Root adds the entry node. Its ID is "root".
func (b *Builder) Root() *NodeBuilder {
	return b.add("root", &domain.RootNode{})
}

// Speech adds a speech node with the given text.
func (b *Builder) Speech(id, text string) *NodeBuilder {
	return b.add(id, &domain.SpeechNode{Text: text})
}

// Options adds an option node. Options are appended with NodeBuilder.Option.
func (b *Builder) Options(id string) *NodeBuilder {
	return b.add(id, &domain.OptionNode{DefaultOptionIndex: -1})
}

// Branch adds a branch node guarded by conditions.
func (b *Builder) Branch(id string, conditions ...domain.Condition) *NodeBuilder {
	return b.add(id, &domain.BranchNode{Conditions: conditions})
}

// add registers a node. If the id is taken, the existing builder is returned
// and the kind mismatch, if any, is reported by Build.
func (b *Builder) add(id string, node domain.Node) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		if nb.node.Kind() != node.Kind() {
			b.errs = append(b.errs, fmt.Errorf("%w: %q redeclared as %s", domain.ErrDuplicateNode, id, node.Kind()))
		}
		return nb
	}
	node.Base().ID = id
	nb := &NodeBuilder{node: node, builder: b}
	b.nodes[id] = nb
	b.order = append(b.order, nb)
	return nb
}

// Build compiles the nodes and their edges into a document.
func (b *Builder) Build() (*domain.Document, error) {
	errs := append([]error(nil), b.errs...)
	for _, nb := range b.order {
		if err := b.doc.AddNode(nb.node); err != nil {
			errs = append(errs, err)
		}
	}
	for _, nb := range b.order {
		for _, e := range nb.edges {
			target, ok := b.doc.Node(e.to)
			if !ok {
				errs = append(errs, fmt.Errorf("%w: %q -> %q", domain.ErrNodeNotFound, nb.node.Base().ID, e.to))
				continue
			}
			if _, err := b.doc.Connect(nb.node, e.port, target, e.guards...); err != nil {
				errs = append(errs, fmt.Errorf("%q port %d: %w", nb.node.Base().ID, e.port, err))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	b.doc.MarkClean()
	return b.doc, nil
}

// Loader builds the document and serves it from a memory loader.
func (b *Builder) Loader() (*memory.Loader, error) {
	doc, err := b.Build()
	if err != nil {
		return nil, err
	}
	loader, err := memory.NewLoader(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
