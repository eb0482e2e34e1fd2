package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
	"github.com/jakechorley/facilitator-allocator/pkg/core/services"
	"github.com/jakechorley/facilitator-allocator/pkg/core/swap"
)

// SwapCmd creates the swap command and its subcommands
func SwapCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Propose, review and list assignment swaps",
		Long: `Facilitators exchange assignments in two steps: the target facilitator
confirms the request, then a coordinator approves it. Approval swaps the
facilitators of both assignments.`,
	}

	cmd.AddCommand(swapProposeCmd(app))
	cmd.AddCommand(swapDecisionCmd(app, swap.ActionConfirm, swap.ActorFacilitator, "Confirm a swap request as the target facilitator"))
	cmd.AddCommand(swapDecisionCmd(app, swap.ActionDecline, swap.ActorFacilitator, "Decline a swap request as the target facilitator"))
	cmd.AddCommand(swapDecisionCmd(app, swap.ActionApprove, swap.ActorCoordinator, "Approve a confirmed swap request and exchange the facilitators"))
	cmd.AddCommand(swapDecisionCmd(app, swap.ActionReject, swap.ActorCoordinator, "Reject a confirmed swap request"))
	cmd.AddCommand(swapListCmd(app))

	return cmd
}

func swapProposeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "propose <your_assignment_id> <target_assignment_id>",
		Short: "Ask another facilitator to exchange assignments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actorID, _ := cmd.Flags().GetString("actor-id")
			actor := swap.Actor{Kind: swap.ActorFacilitator, ID: actorID}

			app.Logger.Debug("swap propose command",
				zap.String("actor_id", actorID),
				zap.Strings("assignments", args))

			result, err := services.ProposeSwap(app.Ctx, app.Database, app.Notifier(), app.Cfg, app.Logger, actor, args[0], args[1], time.Now())
			if err != nil {
				return swapError(err)
			}

			fmt.Printf("\n✓ Swap request created\n\n")
			printSwapResult(result)
			return nil
		},
	}

	cmd.Flags().String("actor-id", "", "Facilitator ID of the person proposing")
	cmd.MarkFlagRequired("actor-id")
	return cmd
}

func swapDecisionCmd(app *AppContext, action swap.Action, defaultKind swap.ActorKind, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(action) + " <request_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actorID, _ := cmd.Flags().GetString("actor-id")
			actorKind, _ := cmd.Flags().GetString("actor-kind")
			reason, _ := cmd.Flags().GetString("reason")

			switch kind := swap.ActorKind(actorKind); kind {
			case swap.ActorFacilitator, swap.ActorCoordinator, swap.ActorAdmin:
			default:
				return fmt.Errorf("unknown actor kind %q", kind)
			}

			decision := swap.Decision{
				Action: action,
				Actor:  swap.Actor{Kind: swap.ActorKind(actorKind), ID: actorID},
				Reason: reason,
				Now:    time.Now(),
			}

			app.Logger.Debug("swap decision command",
				zap.String("swap_request_id", args[0]),
				zap.String("action", string(action)),
				zap.String("actor_kind", actorKind),
				zap.String("actor_id", actorID))

			result, err := services.DecideSwap(app.Ctx, app.Database, app.Notifier(), app.Cfg, app.Logger, args[0], decision)
			if err != nil {
				return swapError(err)
			}

			fmt.Printf("\n✓ Swap request %s\n\n", result.Request.Status)
			printSwapResult(result)
			return nil
		},
	}

	cmd.Flags().String("actor-id", "", "ID of the person acting")
	cmd.Flags().String("actor-kind", string(defaultKind), "Capacity of the person acting (facilitator, coordinator or admin)")
	cmd.Flags().String("reason", "", "Reason recorded on decline or reject")
	cmd.MarkFlagRequired("actor-id")
	return cmd
}

func swapListCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List swap requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")

			requests, err := services.ListSwaps(app.Ctx, app.Database, app.Logger, model.SwapStatus(status))
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d swap requests:\n\n", len(requests))
			if len(requests) == 0 {
				return nil
			}
			fmt.Printf("%s%-36s  %-20s  %-36s  %-36s  %s%s\n", colorBold, "ID", "Status", "Requester assignment", "Target assignment", "Created", colorReset)
			for _, r := range requests {
				fmt.Printf("%-36s  %-20s  %-36s  %-36s  %s\n",
					r.ID,
					r.Status.Canonical(),
					r.RequesterAssignmentID,
					r.TargetAssignmentID,
					r.CreatedAt.Format("2006-01-02 15:04"))
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("status", "", "Only list requests in this status")
	return cmd
}

func printSwapResult(result *services.SwapResult) {
	r := result.Request
	fmt.Printf("Request ID:  %s\n", r.ID)
	fmt.Printf("Status:      %s\n", r.Status)
	fmt.Printf("Requester:   %s\n", r.RequesterAssignmentID)
	fmt.Printf("Target:      %s\n", r.TargetAssignmentID)
	for _, a := range result.Applied {
		fmt.Printf("  • Assignment %s is now held by %s\n", a.ID, a.FacilitatorID)
	}
	if len(result.Notified) > 0 {
		fmt.Printf("📧 Notified %d facilitator(s)\n", len(result.Notified))
	}
	for _, failed := range result.FailedEmails {
		fmt.Printf("%s⚠️  Failed to email %s: %s%s\n", colorYellow, failed.Email, failed.Error, colorReset)
	}
	fmt.Println()
}

// swapError labels rejected transitions so they read differently from failures
func swapError(err error) error {
	if model.ErrorKind(err) == "state_conflict" {
		return fmt.Errorf("swap not allowed: %w", err)
	}
	return err
}
