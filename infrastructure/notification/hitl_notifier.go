package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/agent-go/domain/hitl"
	"github.com/felixgeelhaar/agent-go/domain/notification"
)

// HITLNotifier adapts a domain/notification.Notifier (typically a
// WebhookNotifier) into a domain/hitl.Notifier, translating a pending
// Request into an approval.needed event so existing webhook
// infrastructure can alert an operator without the HITL package
// depending on the notification package directly.
type HITLNotifier struct {
	notifier notification.Notifier
}

// NewHITLNotifier wraps notifier as a hitl.Notifier.
func NewHITLNotifier(notifier notification.Notifier) *HITLNotifier {
	return &HITLNotifier{notifier: notifier}
}

// Notify translates r into an approval.needed notification.Event and
// forwards it. A marshal failure (ApprovalNeededPayload is always
// marshalable) or a delivery failure is returned as-is; per
// domain/hitl.Notifier's contract this never fails the request itself.
func (n *HITLNotifier) Notify(ctx context.Context, r *hitl.Request) error {
	event, err := notification.NewEvent(uuid.NewString(), notification.EventApprovalNeeded, r.RunID, notification.ApprovalNeededPayload{
		ToolName:  r.ActionType,
		Input:     r.ActionParameters,
		RiskLevel: r.RiskLevel,
	})
	if err != nil {
		return err
	}
	return n.notifier.Notify(ctx, event)
}

var _ hitl.Notifier = (*HITLNotifier)(nil)
