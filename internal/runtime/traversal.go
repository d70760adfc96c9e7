package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
)

// run enters guid and keeps going until a node suspends or the session ends.
func (e *Engine) run(ctx context.Context, guid string) domain.Step {
	s := e.active
	for entered := 0; ; entered++ {
		if entered >= e.budget {
			return e.finish(ctx, domain.EndStepBudget,
				fmt.Errorf("%w: %d nodes entered without presenting anything", domain.ErrStepBudgetExceeded, entered))
		}
		if err := ctx.Err(); err != nil {
			return e.finish(ctx, domain.EndContextCancel, err)
		}

		node, ok := s.doc.Node(guid)
		if !ok || node == nil {
			return e.finish(ctx, domain.EndMissingNode, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, guid))
		}
		e.enter(ctx, node)

		switch n := node.(type) {
		case *domain.RootNode:
			next, ok := e.follow(ctx, 0)
			if !ok {
				return e.finish(ctx, domain.EndNoConnection, nil)
			}
			guid = next

		case *domain.BranchNode:
			port, err := n.Evaluate(s.vars)
			if err != nil {
				e.logger.Warn("branch condition problems", "node_id", n.ID, "err", err)
			}
			next, ok := e.follow(ctx, port)
			if !ok {
				return e.finish(ctx, domain.EndNoConnection, nil)
			}
			guid = next

		case *domain.SpeechNode:
			s.step = domain.Step{Status: domain.AwaitingSpeech, DocumentID: s.doc.ID, Node: n}
			return s.step

		case *domain.OptionNode:
			available, err := n.Available(s.vars)
			if err != nil {
				e.logger.Warn("option condition problems", "node_id", n.ID, "err", err)
			}
			if len(available) == 0 {
				return e.finish(ctx, domain.EndNoOptions, nil)
			}
			s.step = domain.Step{Status: domain.AwaitingChoice, DocumentID: s.doc.ID, Node: n, Options: available}
			return s.step

		default:
			return e.finish(ctx, domain.EndUnknownKind,
				fmt.Errorf("%w: node %s of kind %q", domain.ErrUnknownKind, guid, node.Kind()))
		}
	}
}

// advance leaves the suspended node through port and runs from its target.
func (e *Engine) advance(ctx context.Context, port int) domain.Step {
	next, ok := e.follow(ctx, port)
	if !ok {
		return e.finish(ctx, domain.EndNoConnection, nil)
	}
	return e.run(ctx, next)
}

// enter makes node current and runs its actions.
func (e *Engine) enter(ctx context.Context, node domain.Node) {
	s := e.active
	s.current = node
	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
			EventBase: e.event(domain.EventNodeEnter),
			NodeID:    node.Base().ID,
			NodeKind:  node.Kind(),
		})
	}

	actions := node.Base().Actions
	if len(actions) == 0 {
		return
	}
	var before *domain.Blackboard
	if e.hooks.OnVariablesChanged != nil {
		before = s.vars.Clone()
	}
	if err := domain.ExecuteAll(actions, s.vars); err != nil {
		e.logger.Warn("action problems", "node_id", node.Base().ID, "err", err)
	}
	if before != nil {
		if diff := domain.Diff(before, s.vars); diff != nil {
			e.hooks.OnVariablesChanged(ctx, &domain.VariablesEvent{
				EventBase: e.event(domain.EventVariablesChanged),
				NodeID:    node.Base().ID,
				Diff:      diff,
			})
		}
	}
}

// leave emits the exit of the current node, if any.
func (e *Engine) leave(ctx context.Context) {
	s := e.active
	if s == nil || s.current == nil {
		return
	}
	if e.hooks.OnNodeLeave != nil {
		e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
			EventBase: e.event(domain.EventNodeLeave),
			NodeID:    s.current.Base().ID,
			NodeKind:  s.current.Kind(),
		})
	}
	s.current = nil
}

// follow selects the first connection leaving the current node through port
// whose guards hold, in declaration order, and leaves the node.
func (e *Engine) follow(ctx context.Context, port int) (string, bool) {
	s := e.active
	from := s.current.Base().ID
	for _, c := range s.doc.Outgoing(from, port) {
		ok, err := c.Eligible(s.vars)
		if err != nil {
			e.logger.Warn("connection condition problems", "connection_id", c.ID, "err", err)
		}
		if ok {
			e.leave(ctx)
			return c.To, true
		}
	}
	return "", false
}
