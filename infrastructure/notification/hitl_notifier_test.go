package notification_test

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/agent-go/domain/hitl"
	"github.com/felixgeelhaar/agent-go/domain/notification"
	infranotification "github.com/felixgeelhaar/agent-go/infrastructure/notification"
)

type recordingNotifier struct {
	events []*notification.Event
}

func (r *recordingNotifier) Notify(ctx context.Context, event *notification.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingNotifier) NotifyBatch(ctx context.Context, events []*notification.Event) error {
	r.events = append(r.events, events...)
	return nil
}

func (r *recordingNotifier) Close() error { return nil }

func TestHITLNotifier_TranslatesRequestToApprovalEvent(t *testing.T) {
	t.Parallel()

	rec := &recordingNotifier{}
	n := infranotification.NewHITLNotifier(rec)

	req := hitl.New("hitl-1", "run-1", "agent-1", "data_deletion", "delete the record", nil, "critical", "risky action", 0)

	if err := n.Notify(context.Background(), req); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(rec.events) != 1 {
		t.Fatalf("events recorded = %d, want 1", len(rec.events))
	}
	got := rec.events[0]
	if got.Type != notification.EventApprovalNeeded {
		t.Errorf("Type = %q, want %q", got.Type, notification.EventApprovalNeeded)
	}
	if got.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", got.RunID)
	}

	var payload notification.ApprovalNeededPayload
	if err := got.DecodePayload(&payload); err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if payload.ToolName != "data_deletion" {
		t.Errorf("ToolName = %q, want data_deletion", payload.ToolName)
	}
	if payload.RiskLevel != "critical" {
		t.Errorf("RiskLevel = %q, want critical", payload.RiskLevel)
	}
}
