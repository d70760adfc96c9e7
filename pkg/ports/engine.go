package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// Engine is the step/resume surface of a dialogue engine, used by adapters
// (HTTP, MCP, runner) that drive sessions on behalf of a client.
type Engine interface {
	// Start begins a session on the document, ending any active one first.
	Start(ctx context.Context, doc *domain.Document) (domain.Step, error)

	// Resume continues the suspended session.
	Resume(ctx context.Context, input domain.Input) (domain.Step, error)

	// End terminates the active session. It is safe to call at any time.
	End(ctx context.Context) error

	// Current returns the last step of the active session.
	Current() (domain.Step, bool)

	// Render interpolates {variable} placeholders against the active blackboard.
	Render(text string) string

	// GetVariable reads a variable of the active session.
	GetVariable(name string) (any, bool)

	// SetVariable writes a variable of the active session.
	SetVariable(ctx context.Context, name string, value any) error
}
