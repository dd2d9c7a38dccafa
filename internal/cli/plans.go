package cli

import (
	"context"
	"fmt"

	"github.com/rahul/planwise/internal/plan"
	"github.com/spf13/cobra"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List stored plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(commandContext(cmd), false)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		plans := a.plans.Plans()
		if len(plans) == 0 {
			fmt.Fprintln(out, "No plans yet.")
			return nil
		}
		active := a.plans.ActiveID()
		for _, p := range plans {
			marker := " "
			if p.ID == active {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s  %-30s %2d cards  %3d%%\n", marker, p.ID, p.Meta.Goal, len(p.Cards), plan.Percent(p))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show [planID]",
	Short: "Show a plan's cards (the active plan by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(commandContext(cmd), false)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := pickPlan(a, args)
		if err != nil {
			return err
		}
		printPlan(cmd.OutOrStdout(), p, true)
		return nil
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <planID> <cardID>",
	Short: "Mark a card as done",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		existing, ok := a.plans.Get(args[0])
		if !ok {
			return fmt.Errorf("plan %s not found", args[0])
		}
		if !existing.HasCard(args[1]) {
			return fmt.Errorf("card %s is not part of plan %s", args[1], args[0])
		}

		p, _ := a.plans.CompleteCard(ctx, args[0], args[1])
		fmt.Fprintf(cmd.OutOrStdout(), "Progress: %d%%\n", plan.Percent(p))
		return nil
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress [planID]",
	Short: "Print completion of a plan (the active plan by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(commandContext(cmd), false)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := pickPlan(a, args)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d%%\n", plan.Percent(p))
		return nil
	},
}

func pickPlan(a *app, args []string) (*plan.Plan, error) {
	if len(args) == 1 {
		p, ok := a.plans.Get(args[0])
		if !ok {
			return nil, fmt.Errorf("plan %s not found", args[0])
		}
		return p, nil
	}
	p, ok := a.plans.Active()
	if !ok {
		return nil, fmt.Errorf("no plans yet")
	}
	return p, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
