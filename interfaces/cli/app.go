// Package cli provides a command-line interface for the agent-go runtime.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/agent-go/application"
	domainconfig "github.com/felixgeelhaar/agent-go/domain/config"
	"github.com/felixgeelhaar/agent-go/domain/vector"
	infraconfig "github.com/felixgeelhaar/agent-go/infrastructure/config"
	"github.com/felixgeelhaar/agent-go/infrastructure/logging"
	"github.com/felixgeelhaar/agent-go/infrastructure/reasoning"
	"github.com/felixgeelhaar/agent-go/infrastructure/storage/badger"
	memorystore "github.com/felixgeelhaar/agent-go/infrastructure/storage/memory"
	infratool "github.com/felixgeelhaar/agent-go/infrastructure/tool"
	"github.com/felixgeelhaar/agent-go/infrastructure/vectorstore"
	"github.com/felixgeelhaar/agent-go/interfaces/api"
)

// Version information set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App represents the CLI application. It wires a single in-process
// Service backed by in-memory stores, so that a `run` followed by a
// `hitl respond` in the same process sees consistent state. Nothing
// here is persisted across process restarts; a real deployment wires
// api.NewService against its own relational stores instead.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	agents *memorystore.AgentStore
	svc    *api.Service
}

// New creates a new CLI application. Process configuration (provider API
// keys, the vector store backend, the HITL approval timeout, and the
// embedding model) is read from the spec's environment variables; see
// infrastructure/config.LoadRuntimeFromEnv.
func New() *App {
	agents := memorystore.NewAgentStore()
	runs := memorystore.NewRunStore()
	traces := memorystore.NewTraceStore()
	memories := memorystore.NewMemoryItemStore()
	feedback := memorystore.NewFeedbackStore()
	hitlStore := memorystore.NewHITLStore()
	registry := infratool.NewRegistry(memorystore.NewDeclaredToolStore())

	runtime := infraconfig.LoadRuntimeFromEnv()

	executor := application.NewExecutorFromConfig(application.Config{
		Runs:            runs,
		Traces:          traces,
		Feedback:        feedback,
		Memories:        memories,
		Vectors:         newVectorStore(runtime),
		HITLStore:       hitlStore,
		Tools:           registry,
		Reasoner:        reasoning.NewEngine(reasoningProviderOptions(runtime)...),
		ApprovalTimeout: time.Duration(runtime.ApprovalTimeoutSeconds) * time.Second,
	})

	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
		agents: agents,
		svc:    api.NewService(agents, runs, traces, memories, feedback, hitlStore, executor),
	}

	app.root = &cobra.Command{
		Use:   "agent",
		Short: "State-driven agent runtime for Go",
		Long: `agent-go is a state-driven agent runtime that enables developers to build
trustworthy, adaptable AI-powered systems by designing the structure and
constraints of agent behavior rather than scripting intelligence with prompts.

Key principle: Trust is the product. Intelligence is constrained by design, not hope.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add subcommands
	app.root.AddCommand(
		app.newVersionCmd(),
		app.newRunCmd(),
		app.newHITLCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	// Set up signal handling
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// newVectorStore builds the Vector Store backend from VECTOR_PATH: an
// on-disk badger database when VectorPath is set, otherwise the in-memory
// cosine backend. VECTOR_BACKEND is not consulted. A badger open failure
// falls back to the in-memory backend rather than failing CLI startup.
func newVectorStore(runtime domainconfig.RuntimeSettings) vector.Store {
	embedder := vectorstore.NewHashEmbedder(embeddingDimension(runtime.EmbeddingModel))

	if runtime.VectorPath == "" {
		return vectorstore.NewMemoryStore(embedder)
	}

	store, err := badger.NewVectorStore(badger.Config{Dir: runtime.VectorPath}, embedder)
	if err != nil {
		logging.Warn().Add(logging.ErrorField(err)).
			Add(logging.Str("vector_path", runtime.VectorPath)).
			Msg("failed to open badger vector store, falling back to in-memory")
		return vectorstore.NewMemoryStore(embedder)
	}
	return store
}

// embeddingDimension maps EMBEDDING_MODEL to a hash-embedder dimension,
// falling back to the spec's default 1536-dimension vectors.
func embeddingDimension(model string) int {
	switch model {
	case "hash-384":
		return 384
	case "hash-768":
		return 768
	default:
		return 1536
	}
}

// reasoningProviderOptions wires a reasoning.Provider for every provider
// with a MODEL_PROVIDER_API_KEY_* value set.
func reasoningProviderOptions(runtime domainconfig.RuntimeSettings) []reasoning.Option {
	var opts []reasoning.Option
	for name, key := range runtime.ProviderAPIKeys {
		switch name {
		case "openai":
			opts = append(opts, reasoning.WithProvider(name, reasoning.NewOpenAIProvider(reasoning.OpenAIConfig{APIKey: key})))
		case "anthropic":
			opts = append(opts, reasoning.WithProvider(name, reasoning.NewAnthropicProvider(reasoning.AnthropicConfig{APIKey: key})))
		case "cohere":
			opts = append(opts, reasoning.WithProvider(name, reasoning.NewCohereProvider(reasoning.CohereConfig{APIKey: key})))
		case "gemini":
			opts = append(opts, reasoning.WithProvider(name, reasoning.NewGeminiProvider(reasoning.GeminiConfig{APIKey: key})))
		}
	}
	return opts
}

// newVersionCmd creates the version command.
func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "agent-go version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}
