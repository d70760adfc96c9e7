package domain

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// VariableReader is the read side of a Blackboard, used by Conditions.
type VariableReader interface {
	Lookup(name string) (Variable, bool)
}

// Blackboard is a fixed-schema store of typed variables.
// A document owns one as its schema; sessions work on a deep copy of it.
type Blackboard struct {
	mu    sync.RWMutex
	vars  map[string]*Variable
	order []string
}

// NewBlackboard creates a blackboard pre-populated with vars.
// Later duplicates of a name are ignored.
func NewBlackboard(vars ...Variable) *Blackboard {
	b := &Blackboard{vars: make(map[string]*Variable, len(vars))}
	for _, v := range vars {
		if _, exists := b.vars[v.Name]; exists {
			continue
		}
		cp := v
		b.vars[v.Name] = &cp
		b.order = append(b.order, v.Name)
	}
	return b
}

// Define adds a variable to the schema. It is the only way to create a variable.
func (b *Blackboard) Define(name string, kind VariableKind, value any) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("define variable: empty name")
	}
	raw := ZeroValue(kind)
	if value != nil {
		s, err := FormatValue(kind, value)
		if err != nil {
			return &TypeMismatchError{Variable: name, Want: kind, Got: fmt.Sprintf("%v", value)}
		}
		raw = s
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.vars == nil {
		b.vars = make(map[string]*Variable)
	}
	if _, exists := b.vars[name]; exists {
		return fmt.Errorf("%w: %s", ErrVariableExists, name)
	}
	b.vars[name] = &Variable{Name: name, Kind: kind, Value: raw}
	b.order = append(b.order, name)
	return nil
}

// Undefine removes a variable from the schema.
func (b *Blackboard) Undefine(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.vars[name]; !exists {
		return false
	}
	delete(b.vars, name)
	for i, n := range b.order {
		if n == name {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

// Lookup returns a copy of the named variable.
func (b *Blackboard) Lookup(name string) (Variable, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.vars[name]
	if !ok {
		return Variable{}, false
	}
	return *v, true
}

// Has reports whether the variable is defined.
func (b *Blackboard) Has(name string) bool {
	_, ok := b.Lookup(name)
	return ok
}

// Get returns the value of the variable parsed according to its kind.
func (b *Blackboard) Get(name string) (any, bool) {
	v, ok := b.Lookup(name)
	if !ok {
		return nil, false
	}
	parsed, err := v.Parsed()
	if err != nil {
		return nil, false
	}
	return parsed, true
}

// Set replaces the value of an existing variable.
// The value must be coercible to the variable's kind; the store is left
// unchanged otherwise.
func (b *Blackboard) Set(name string, value any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.vars[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrVariableNotFound, name)
	}
	raw, err := FormatValue(v.Kind, value)
	if err != nil {
		return &TypeMismatchError{Variable: name, Want: v.Kind, Got: fmt.Sprintf("%T(%v)", value, value)}
	}
	v.Value = raw
	return nil
}

// Bool reads a bool variable.
func (b *Blackboard) Bool(name string) (bool, error) {
	return Typed[bool](b, name)
}

// Int reads an int variable.
func (b *Blackboard) Int(name string) (int64, error) {
	return Typed[int64](b, name)
}

// Float reads a float variable.
func (b *Blackboard) Float(name string) (float64, error) {
	return Typed[float64](b, name)
}

// String reads a variable as text. Every kind has a text form.
func (b *Blackboard) String(name string) (string, error) {
	return Typed[string](b, name)
}

// Typed reads a variable and coerces its canonical string into T.
// On failure the zero value of T is returned together with the cause.
func Typed[T bool | int64 | int | float64 | string](r VariableReader, name string) (T, error) {
	var zero T
	v, ok := r.Lookup(name)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrVariableNotFound, name)
	}

	var (
		out any
		err error
	)
	switch any(zero).(type) {
	case bool:
		out, err = strconv.ParseBool(strings.TrimSpace(v.Value))
	case int64:
		out, err = strconv.ParseInt(strings.TrimSpace(v.Value), 10, 64)
	case int:
		out, err = strconv.Atoi(strings.TrimSpace(v.Value))
	case float64:
		out, err = strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
	case string:
		out = v.Value
	}
	if err != nil {
		return zero, &TypeMismatchError{Variable: name, Want: kindOf(zero), Got: fmt.Sprintf("%s %q", v.Kind, v.Value)}
	}
	return out.(T), nil
}

func kindOf(v any) VariableKind {
	switch v.(type) {
	case bool:
		return KindBool
	case int, int64:
		return KindInt
	case float64:
		return KindFloat
	}
	return KindString
}

// Variables returns a snapshot of all variables in definition order.
func (b *Blackboard) Variables() []Variable {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Variable, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, *b.vars[name])
	}
	return out
}

// Len returns the number of defined variables.
func (b *Blackboard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

// Clone returns a deep copy that shares no mutable state with b.
func (b *Blackboard) Clone() *Blackboard {
	if b == nil {
		return NewBlackboard()
	}
	return NewBlackboard(b.Variables()...)
}

// Reset restores every variable to the value it has in schema.
// Variables missing from schema are dropped and new ones are added.
func (b *Blackboard) Reset(schema *Blackboard) {
	fresh := schema.Clone()
	fresh.mu.Lock()
	vars, order := fresh.vars, fresh.order
	fresh.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.vars, b.order = vars, order
}

// Snapshot returns the parsed values keyed by name.
func (b *Blackboard) Snapshot() map[string]any {
	out := make(map[string]any)
	for _, v := range b.Variables() {
		if parsed, err := v.Parsed(); err == nil {
			out[v.Name] = parsed
		} else {
			out[v.Name] = v.Value
		}
	}
	return out
}
