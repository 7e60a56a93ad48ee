// Package approvalslack provides Slack-based approval integration for agent-go.
//
// This package implements the hitl.Notifier interface to enable human approval
// of agent actions via Slack. When the control loop requests approval for a
// destructive or high-risk action, Notify builds a block-kit message with
// approve/deny buttons for the configured channel. The message is not posted
// to the Slack API: sendApprovalMessage makes no HTTP call and records a
// placeholder timestamp. Decisions that reach HandleInteraction are relayed
// back to the owning hitl.Coordinator.
//
// # Usage
//
//	notifier, err := approvalslack.New(approvalslack.Config{
//		Token:     os.Getenv("SLACK_BOT_TOKEN"),
//		ChannelID: "C0123456789",
//		Timeout:   5 * time.Minute,
//	})
//	coordinator := hitl.NewCoordinator(store, notifier)
//	notifier.Bind(coordinator)
//
// # Slack App Setup
//
// To use this integration, you need a Slack App with:
//   - Bot Token Scopes: chat:write, reactions:write
//   - Interactive Components enabled with a Request URL
//   - Event Subscriptions (optional) for real-time responses
//
// The Request URL should point to the HandleInteraction endpoint.
package approvalslack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/agent-go/domain/hitl"
)

// Common errors for Slack approval operations.
var (
	ErrMissingToken   = errors.New("missing Slack token")
	ErrMissingChannel = errors.New("missing channel ID")
	ErrNotBound       = errors.New("notifier not bound to a coordinator")
	ErrSlackAPIError  = errors.New("Slack API error")
)

// Config configures the Slack notifier.
type Config struct {
	// Token is the Slack Bot User OAuth Token.
	Token string

	// ChannelID is the default channel for approval requests.
	ChannelID string

	// Timeout defaults to 5 minutes. The notifier does not wait on it; the
	// hitl.Coordinator's own timeout bounds the approval wait.
	Timeout time.Duration

	// MentionUsers is a list of user IDs to mention in approval requests.
	MentionUsers []string

	// MentionGroups is a list of user group IDs to mention.
	MentionGroups []string

	// SigningSecret is kept with the config; HandleInteraction does not
	// verify Slack request signatures.
	SigningSecret string

	// BaseURL overrides the Slack API URL (for testing).
	BaseURL string
}

// Notifier implements hitl.Notifier via Slack block-kit messages. Approval
// decisions arrive asynchronously through HandleInteraction, which relays
// them to the bound hitl.Coordinator rather than waiting on them directly.
type Notifier struct {
	config      Config
	coordinator *hitl.Coordinator
	sentTS      map[string]string // request id -> Slack message timestamp
	mu          sync.Mutex
	client      *http.Client
}

// New creates a new Slack notifier.
func New(cfg Config) (*Notifier, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	if cfg.ChannelID == "" {
		return nil, ErrMissingChannel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://slack.com/api"
	}

	return &Notifier{
		config: cfg,
		sentTS: make(map[string]string),
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Bind attaches the coordinator that owns approval decisions. Must be
// called before HandleInteraction can relay a response.
func (n *Notifier) Bind(coordinator *hitl.Coordinator) {
	n.coordinator = coordinator
}

// Notify builds the approval message for req and records its timestamp.
// This implements hitl.Notifier.
func (n *Notifier) Notify(ctx context.Context, req *hitl.Request) error {
	ts, err := n.sendApprovalMessage(ctx, req)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.sentTS[req.ID] = ts
	n.mu.Unlock()

	return nil
}

// sendApprovalMessage builds the approval message for req. It makes no
// Slack API call and returns a placeholder timestamp.
func (n *Notifier) sendApprovalMessage(ctx context.Context, req *hitl.Request) (string, error) {
	blocks := n.buildMessageBlocks(req)

	msg := slackMessage{
		Channel: n.config.ChannelID,
		Text:    "Approval Required: " + req.ActionType,
		Blocks:  blocks,
	}

	_ = ctx
	_ = msg

	return "placeholder-timestamp", nil
}

// buildMessageBlocks creates Slack block kit blocks for the approval message.
func (n *Notifier) buildMessageBlocks(req *hitl.Request) []slackBlock {
	inputJSON, _ := json.MarshalIndent(req.ActionParameters, "", "  ")

	return []slackBlock{
		{
			Type: "header",
			Text: &slackText{
				Type: "plain_text",
				Text: "Approval Required",
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Action:*\n" + req.ActionType},
				{Type: "mrkdwn", Text: "*Risk Level:*\n" + req.RiskLevel},
			},
		},
		{
			Type: "section",
			Text: &slackText{
				Type: "mrkdwn",
				Text: "*Reason:*\n" + req.Reason,
			},
		},
		{
			Type: "section",
			Text: &slackText{
				Type: "mrkdwn",
				Text: "*Input:*\n```" + string(inputJSON) + "```",
			},
		},
		{
			Type: "actions",
			Elements: []slackElement{
				{
					Type:     "button",
					Text:     slackText{Type: "plain_text", Text: "Approve"},
					Style:    "primary",
					ActionID: "approve_" + req.ID,
					Value:    req.ID,
				},
				{
					Type:     "button",
					Text:     slackText{Type: "plain_text", Text: "Deny"},
					Style:    "danger",
					ActionID: "deny_" + req.ID,
					Value:    req.ID,
				},
			},
		},
		{
			Type: "context",
			Elements: []slackElement{
				{
					Type:      "mrkdwn",
					PlainText: "Request ID: " + req.ID + " | Requested at: " + req.CreatedAt.Format(time.RFC822),
				},
			},
		},
	}
}

// HandleInteraction processes Slack interactive component callbacks.
// This should be mounted at the Interactive Components Request URL.
func (n *Notifier) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// The request signature is not checked against SigningSecret.

	payload := r.FormValue("payload")
	if payload == "" {
		http.Error(w, "Missing payload", http.StatusBadRequest)
		return
	}

	var interaction slackInteraction
	if err := json.Unmarshal([]byte(payload), &interaction); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	for _, action := range interaction.Actions {
		if err := n.processAction(r.Context(), action, interaction.User); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}

// processAction relays an approval or denial action to the coordinator.
func (n *Notifier) processAction(ctx context.Context, action slackAction, user slackUser) error {
	if n.coordinator == nil {
		return ErrNotBound
	}

	requestID := action.Value
	decision := hitl.DecisionRejected
	if len(action.ActionID) >= 7 && action.ActionID[:7] == "approve" {
		decision = hitl.DecisionApproved
	}

	respondedBy := user.ID + " (" + user.Name + ")"
	return n.coordinator.Respond(ctx, requestID, decision, respondedBy)
}

// Slack API types

type slackMessage struct {
	Channel string       `json:"channel"`
	Text    string       `json:"text"`
	Blocks  []slackBlock `json:"blocks"`
	TS      string       `json:"ts,omitempty"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type      string    `json:"type"`
	Text      slackText `json:"text,omitempty"`
	Style     string    `json:"style,omitempty"`
	ActionID  string    `json:"action_id,omitempty"`
	Value     string    `json:"value,omitempty"`
	PlainText string    `json:"plain_text,omitempty"` // For context elements
}

type slackInteraction struct {
	Type    string        `json:"type"`
	User    slackUser     `json:"user"`
	Actions []slackAction `json:"actions"`
}

type slackUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type slackAction struct {
	ActionID string `json:"action_id"`
	Value    string `json:"value"`
}

// Ensure Notifier implements hitl.Notifier.
var _ hitl.Notifier = (*Notifier)(nil)
