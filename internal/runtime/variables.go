package runtime

import (
	"context"
	"errors"

	"github.com/aretw0/parley/pkg/domain"
)

// Lookup reads a variable of the bound runtime blackboard. It makes the
// engine a domain.VariableReader, so domain.Typed works on it directly.
func (e *Engine) Lookup(name string) (domain.Variable, bool) {
	b := e.bound.Load()
	if b == nil {
		return domain.Variable{}, false
	}
	return b.vars.Lookup(name)
}

// GetVariable returns the parsed value of a variable. Outside a session it
// reads the runtime blackboard of the last document played.
func (e *Engine) GetVariable(name string) (any, bool) {
	b := e.bound.Load()
	if b == nil {
		e.logger.Warn("no runtime blackboard", "variable", name)
		return nil, false
	}
	v, ok := b.vars.Get(name)
	if !ok {
		e.logger.Warn("variable not found", "document_id", b.documentID, "variable", name)
	}
	return v, ok
}

// SetVariable writes a variable and persists the runtime blackboard.
// Unknown variables are never created; the failure is logged and returned.
func (e *Engine) SetVariable(ctx context.Context, name string, value any) error {
	b := e.bound.Load()
	if b == nil {
		e.logger.Warn("no runtime blackboard", "variable", name)
		return domain.ErrNoActiveSession
	}

	var before *domain.Blackboard
	if e.hooks.OnVariablesChanged != nil {
		before = b.vars.Clone()
	}
	if err := b.vars.Set(name, value); err != nil {
		var mismatch *domain.TypeMismatchError
		if errors.As(err, &mismatch) {
			e.logger.Warn("variable type mismatch", "document_id", b.documentID, "variable", name, "err", err)
		} else {
			e.logger.Warn("variable not found", "document_id", b.documentID, "variable", name)
		}
		return err
	}
	if before != nil {
		if diff := domain.Diff(before, b.vars); diff != nil {
			e.hooks.OnVariablesChanged(ctx, &domain.VariablesEvent{
				EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventVariablesChanged, DocumentID: b.documentID},
				Diff:      diff,
			})
		}
	}
	if err := e.sessions.Save(ctx, b.documentID, b.vars); err != nil {
		e.logger.Error("failed to persist runtime blackboard", "document_id", b.documentID, "err", err)
		return err
	}
	return nil
}

// Variables returns a snapshot of the bound runtime blackboard.
func (e *Engine) Variables() ([]domain.Variable, bool) {
	b := e.bound.Load()
	if b == nil {
		return nil, false
	}
	return b.vars.Variables(), true
}

// Render replaces {variable} placeholders using the bound runtime blackboard.
// Unknown placeholders are kept and logged.
func (e *Engine) Render(text string) string {
	b := e.bound.Load()
	if b == nil {
		return text
	}
	out, missing := domain.Interpolate(text, b.vars)
	if len(missing) > 0 {
		e.logger.Warn("text references unknown variables", "document_id", b.documentID, "variables", missing)
	}
	return out
}
