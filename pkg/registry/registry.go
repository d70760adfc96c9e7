package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Spec is the serialized form shared by conditions and actions.
// Value always holds the canonical string of the operand.
type Spec struct {
	Type          string  `json:"type" yaml:"type" mapstructure:"type"`
	Variable      string  `json:"variable" yaml:"variable" mapstructure:"variable"`
	Op            string  `json:"op,omitempty" yaml:"op,omitempty" mapstructure:"op"`
	Value         string  `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	Tolerance     float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty" mapstructure:"tolerance"`
	CaseSensitive bool    `json:"case_sensitive,omitempty" yaml:"case_sensitive,omitempty" mapstructure:"case_sensitive"`
}

// Decoder builds a value from its Spec.
type Decoder[T any] func(Spec) (T, error)

// Encodable is implemented by custom conditions and actions that know their
// own serialized form.
type Encodable interface {
	Spec() (Spec, error)
}

// Registry maps a stable type tag to a decoder.
type Registry[T any] struct {
	mu       sync.RWMutex
	decoders map[string]Decoder[T]
}

// New creates a new empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{
		decoders: make(map[string]Decoder[T]),
	}
}

// Register adds a decoder to the registry.
// If a decoder with the same tag exists, it is overwritten.
func (r *Registry[T]) Register(tag string, fn Decoder[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[tag] = fn
}

// Decode looks up the decoder of spec.Type and runs it.
func (r *Registry[T]) Decode(spec Spec) (T, error) {
	r.mu.RLock()
	fn, ok := r.decoders[spec.Type]
	r.mu.RUnlock()

	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: type %q", domain.ErrUnknownKind, spec.Type)
	}
	return fn(spec)
}

// Tags lists the registered type tags, sorted.
func (r *Registry[T]) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.decoders))
	for tag := range r.decoders {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
