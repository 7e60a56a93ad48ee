package application

import (
	"time"

	"github.com/felixgeelhaar/agent-go/domain/feedback"
	"github.com/felixgeelhaar/agent-go/domain/hitl"
	domainmiddleware "github.com/felixgeelhaar/agent-go/domain/middleware"
	"github.com/felixgeelhaar/agent-go/domain/memory"
	"github.com/felixgeelhaar/agent-go/domain/run"
	"github.com/felixgeelhaar/agent-go/domain/tool"
	"github.com/felixgeelhaar/agent-go/domain/trace"
	"github.com/felixgeelhaar/agent-go/domain/vector"
	"github.com/felixgeelhaar/agent-go/infrastructure/reasoning"
	"github.com/felixgeelhaar/agent-go/infrastructure/resilience"
	infraMiddleware "github.com/felixgeelhaar/agent-go/infrastructure/middleware"
)

// Config collects an Executor's collaborators. Runs, Traces, HITLStore,
// Tools and Reasoner are required; the rest fall back to sensible
// defaults, mirroring the teacher's EngineConfig.
type Config struct {
	Runs     run.Store
	Traces   trace.Store
	Feedback feedback.Store
	Memories memory.Store
	Vectors  vector.Store

	HITLStore    hitl.Store
	HITLNotifier hitl.Notifier

	Tools    tool.Registry
	Reasoner *reasoning.Engine
	Resilient *resilience.Executor

	// RelevantMemoryCount is the Context Manager's k for semantic
	// retrieval. <= 0 uses DefaultRelevantMemories.
	RelevantMemoryCount int

	// ApprovalTimeout bounds how long the executor waits on a pending
	// HITL decision. <= 0 uses DefaultApprovalTimeout.
	ApprovalTimeout time.Duration

	// ToolMiddleware, when non-empty, wraps every tool dispatch in act
	// with these middleware, in order (the first entry sees the call
	// first). A nil slice uses DefaultToolMiddleware(); a non-nil empty
	// slice skips the chain, matching the executor's original
	// direct-dispatch behavior.
	ToolMiddleware []domainmiddleware.Middleware
}

// DefaultToolMiddleware returns the logging and input-validation
// middleware every deployment gets unless it overrides ToolMiddleware:
// cheap, store-free cross-cutting checks that belong on every tool call
// regardless of which backend a deployment wires for caching, budget
// tracking, or tracing.
func DefaultToolMiddleware() []domainmiddleware.Middleware {
	return []domainmiddleware.Middleware{
		infraMiddleware.Logging(infraMiddleware.LoggingConfig{}),
		infraMiddleware.Validation(infraMiddleware.DefaultValidationConfig()),
	}
}

// NewExecutorFromConfig builds an Executor, filling in a default
// resilient tool executor when cfg.Resilient is nil and a default tool
// middleware chain when cfg.ToolMiddleware is nil.
func NewExecutorFromConfig(cfg Config) *Executor {
	resilient := cfg.Resilient
	if resilient == nil {
		resilient = resilience.NewDefaultExecutor()
	}

	mws := cfg.ToolMiddleware
	if mws == nil {
		mws = DefaultToolMiddleware()
	}

	coordinator := hitl.NewCoordinator(cfg.HITLStore, cfg.HITLNotifier)
	contextManager := NewContextManager(cfg.Memories, cfg.Vectors, cfg.RelevantMemoryCount)

	executor := NewExecutor(
		cfg.Runs,
		cfg.Traces,
		cfg.Feedback,
		coordinator,
		cfg.Tools,
		cfg.Reasoner,
		resilient,
		contextManager,
		cfg.ApprovalTimeout,
	)
	if len(mws) > 0 {
		executor.WithToolMiddleware(domainmiddleware.Chain(mws...))
	}
	return executor
}
