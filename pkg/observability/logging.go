package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/parley/pkg/domain"
)

// LoggingHooks writes one record per lifecycle event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "document_id", e.DocumentID, "node_id", e.NodeID, "kind", e.NodeKind)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_leave", "document_id", e.DocumentID, "node_id", e.NodeID)
		},
		OnOptionSelected: func(ctx context.Context, e *domain.OptionEvent) {
			logger.InfoContext(ctx, "option_selected",
				"document_id", e.DocumentID,
				"node_id", e.NodeID,
				"index", e.Index,
				"hook", e.HookID,
			)
		},
		OnSessionStart: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_start", "document_id", e.DocumentID)
		},
		OnSessionEnd: func(ctx context.Context, e *domain.SessionEvent) {
			attrs := []any{"document_id", e.DocumentID, "reason", e.Reason}
			if e.Err != nil {
				attrs = append(attrs, "err", e.Err)
			}
			logger.InfoContext(ctx, "session_end", attrs...)
		},
		OnVariablesChanged: func(ctx context.Context, e *domain.VariablesEvent) {
			logger.DebugContext(ctx, "variables_changed", "document_id", e.DocumentID, "node_id", e.NodeID, "diff", e.Diff)
		},
	}
}
