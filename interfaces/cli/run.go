package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/agent-go/domain/run"
	infraconfig "github.com/felixgeelhaar/agent-go/infrastructure/config"
)

// runOptions holds options for the run command.
type runOptions struct {
	agentPath     string
	agentID       string
	task          string
	maxIterations int
	jsonOutput    bool
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [task]",
		Short: "Execute a task against a locally configured agent",
		Long: `Run loads an Agent definition from a YAML or JSON file and drives it
through execute_task to a terminal state.

Examples:
  agent run -a agent.yaml "summarize the quarterly report"
  agent run -a agent.json --id agent-1 --max-iterations 5 --json "check the system status"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.task = args[0]
			}
			return a.runAgent(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.agentPath, "agent", "a", "", "Path to an agent definition file (YAML or JSON, required)")
	cmd.Flags().StringVar(&opts.agentID, "id", "", "Agent id to assign; defaults to the definition's name")
	cmd.Flags().IntVar(&opts.maxIterations, "max-iterations", 0, "Override the agent's configured iteration cap")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the result as JSON")
	_ = cmd.MarkFlagRequired("agent")

	return cmd
}

func (a *App) runAgent(cmd *cobra.Command, opts *runOptions) error {
	if opts.task == "" {
		return fmt.Errorf("no task specified (pass it as an argument)")
	}

	cfg, err := infraconfig.NewLoader().LoadFile(opts.agentPath)
	if err != nil {
		return fmt.Errorf("loading agent definition: %w", err)
	}

	id := opts.agentID
	if id == "" {
		id = cfg.Name
	}
	if id == "" {
		return fmt.Errorf("agent definition has no name; pass --id")
	}

	ag := cfg.ToAgent(id)
	a.agents.Put(ag)

	var maxIterations *int
	if opts.maxIterations > 0 {
		maxIterations = &opts.maxIterations
	}

	result, err := a.svc.ExecuteTask(cmd.Context(), ag.ID, run.Task{Description: opts.task}, nil, maxIterations)
	if err != nil {
		return fmt.Errorf("execute_task: %w", err)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(a.stdout, "Status: %s\n", result.Status)
	fmt.Fprintf(a.stdout, "Iterations: %d\n", result.Iterations)
	fmt.Fprintf(a.stdout, "Actions taken: %d\n", result.ActionsTaken)
	if result.Reason != "" {
		fmt.Fprintf(a.stdout, "Reason: %s\n", result.Reason)
	}
	if result.Error != "" {
		fmt.Fprintf(a.stdout, "Error: %s\n", result.Error)
	}
	if len(result.Result) > 0 {
		fmt.Fprintf(a.stdout, "Result: %s\n", string(result.Result))
	}
	return nil
}
