package hitl

import (
	"context"
	"sync"
	"time"
)

// Coordinator tracks in-flight requests and lets the executor block on a
// decision while an operator (via Respond) or a timer resolves it. The
// pending-map-plus-buffered-channel-plus-select shape mirrors the approval
// wait pattern used by Slack-based approvers in this codebase, generalized
// here to any Notifier rather than one transport.
type Coordinator struct {
	store    Store
	notifier Notifier

	mu      sync.Mutex
	waiters map[string]chan Status // request id -> outcome channel
}

// NewCoordinator creates a Coordinator backed by store, notifying operators
// through notifier. A nil notifier is equivalent to NoopNotifier.
func NewCoordinator(store Store, notifier Notifier) *Coordinator {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &Coordinator{
		store:    store,
		notifier: notifier,
		waiters:  make(map[string]chan Status),
	}
}

// RequestApproval creates a pending request, notifies the operator, and
// blocks until Respond resolves it, the timeout argument elapses, or ctx
// is cancelled. It never leaves a request both pending in the store and
// silently treated as rejected by the caller: whenever the returned error
// is nil, the returned Status matches what Get(id) would report afterward.
func (c *Coordinator) RequestApproval(ctx context.Context, r *Request, timeout time.Duration) (Status, error) {
	if err := c.store.Save(ctx, r); err != nil {
		return "", err
	}

	wait := make(chan Status, 1)
	c.mu.Lock()
	c.waiters[r.ID] = wait
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.waiters, r.ID)
		c.mu.Unlock()
	}()

	_ = c.notifier.Notify(ctx, r)

	select {
	case status := <-wait:
		return status, nil
	case <-time.After(timeout):
		if err := r.TimeOut(); err != nil {
			return r.Status, err
		}
		if err := c.store.Update(ctx, r); err != nil {
			return "", err
		}
		return StatusTimedOut, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Respond resolves a pending request by id, waking any in-process waiter.
// It is safe to call even if no waiter is currently blocked (e.g. the
// requester's process restarted); the store update still lands, and a
// caller can always re-read the resolved Request via Get.
func (c *Coordinator) Respond(ctx context.Context, id string, decision Decision, respondedBy string) error {
	r, err := c.store.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := r.Respond(decision, respondedBy); err != nil {
		return err
	}

	if err := c.store.Update(ctx, r); err != nil {
		return err
	}

	c.mu.Lock()
	wait, ok := c.waiters[id]
	c.mu.Unlock()
	if ok {
		wait <- r.Status
	}
	return nil
}
