package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/agent-go/domain/hitl"
)

// newHITLCmd groups the human-in-the-loop inspection and response
// subcommands: pending, respond, stats.
func (a *App) newHITLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hitl",
		Short: "Inspect and resolve pending human-in-the-loop approvals",
	}
	cmd.AddCommand(
		a.newHITLPendingCmd(),
		a.newHITLRespondCmd(),
		a.newHITLStatsCmd(),
	)
	return cmd
}

func (a *App) newHITLPendingCmd() *cobra.Command {
	var limit int
	var riskLevel string

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List pending approval requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			requests, err := a.svc.HITLPending(cmd.Context(), limit, riskLevel)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(requests)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of requests to return (0 = no limit)")
	cmd.Flags().StringVar(&riskLevel, "risk-level", "", "Filter by risk level (low, medium, high, critical)")
	return cmd
}

func (a *App) newHITLRespondCmd() *cobra.Command {
	var decision string
	var respondedBy string

	cmd := &cobra.Command{
		Use:   "respond [request-id]",
		Short: "Approve or reject a pending approval request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var d hitl.Decision
			switch decision {
			case "approved", "approve":
				d = hitl.DecisionApproved
			case "rejected", "reject":
				d = hitl.DecisionRejected
			default:
				return fmt.Errorf("--decision must be approved or rejected, got %q", decision)
			}
			if err := a.svc.HITLRespond(cmd.Context(), args[0], d, respondedBy); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Request %s resolved: %s\n", args[0], decision)
			return nil
		},
	}
	cmd.Flags().StringVar(&decision, "decision", "", "approved or rejected (required)")
	cmd.Flags().StringVar(&respondedBy, "responded-by", "", "Identifier of the responding operator")
	_ = cmd.MarkFlagRequired("decision")
	return cmd
}

func (a *App) newHITLStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print aggregate approval outcome counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.svc.HITLStats(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
}
