package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/agent-go/domain/hitl"
	"github.com/felixgeelhaar/agent-go/domain/middleware"
	"github.com/felixgeelhaar/agent-go/domain/tool"
)

// ApprovalConfig configures the approval middleware.
type ApprovalConfig struct {
	// Coordinator resolves HITL approval requests.
	Coordinator *hitl.Coordinator
	// AgentID identifies the owning agent on the emitted request.
	AgentID string
	// Timeout bounds how long the coordinator waits on a decision.
	Timeout time.Duration
}

// Approval returns middleware that enforces approval for high-risk tools,
// a standalone chain-composable alternative to the approval gate the
// Agent Executor runs inline. Tools whose annotations mark them as
// requiring approval must be approved before execution.
func Approval(cfg ApprovalConfig) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			t := execCtx.Tool
			annotations := t.Annotations()

			// Check if approval is required
			if !annotations.ShouldRequireApproval() {
				return next(ctx, execCtx)
			}

			// No coordinator configured - fail if approval required
			if cfg.Coordinator == nil {
				return tool.Result{}, fmt.Errorf("%w: no HITL coordinator configured for tool %s",
					tool.ErrApprovalRequired, t.Name())
			}

			req := hitl.New(execCtx.RunID+"-"+t.Name(), execCtx.RunID, cfg.AgentID, t.Name(), execCtx.Reason,
				execCtx.Input, annotations.RiskLevel.String(), execCtx.Reason, cfg.Timeout)

			status, err := cfg.Coordinator.RequestApproval(ctx, req, cfg.Timeout)
			if err != nil {
				return tool.Result{}, fmt.Errorf("approval error: %w", err)
			}

			if status != hitl.StatusApproved {
				return tool.Result{}, fmt.Errorf("%w: %s", tool.ErrApprovalDenied, status)
			}

			return next(ctx, execCtx)
		}
	}
}
