package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/rahul/planwise/internal/agent"
	"github.com/rahul/planwise/internal/plan"
	"github.com/spf13/cobra"
)

var genFlags struct {
	role  string
	goal  string
	count int
	unit  string
	focus string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new plan and make it active",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		req := agent.BuildRequest(plan.Role(genFlags.role), genFlags.goal, genFlags.count, plan.Unit(genFlags.unit), genFlags.focus)
		res, err := a.pipeline.Run(ctx, "cli", req)
		if errors.Is(err, agent.ErrNoCards) {
			fmt.Fprintln(cmd.OutOrStdout(), "The model returned no cards; no plan was created.")
			return nil
		}
		if err != nil {
			return err
		}

		printPlan(cmd.OutOrStdout(), res.Plan, true)
		return nil
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genFlags.role, "role", string(plan.RoleStudent), "who the plan is for: student, professional or self-learner")
	f.StringVar(&genFlags.goal, "goal", "", "what you want to achieve")
	f.IntVar(&genFlags.count, "count", 1, "number of cards")
	f.StringVar(&genFlags.unit, "unit", string(plan.UnitDays), "duration unit: days, weeks or months")
	f.StringVar(&genFlags.focus, "focus", "General", "skill focus")
	_ = generateCmd.MarkFlagRequired("goal")
}

func printPlan(w io.Writer, p *plan.Plan, details bool) {
	fmt.Fprintf(w, "Plan %s\n", p.ID)
	fmt.Fprintf(w, "  %s, %d %s, focus %s (%s)\n", p.Meta.Goal, p.Meta.DurationNumber, p.Meta.DurationUnit, p.Meta.SkillFocus, p.Meta.UserType)
	fmt.Fprintf(w, "  created %s, progress %d%%\n\n", p.Created().Format("2006-01-02 15:04"), plan.Percent(p))

	for _, c := range p.Cards {
		mark := " "
		if p.IsCompleted(c.ID) {
			mark = "x"
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", mark, c.Title, c.Info)
		if !details {
			continue
		}
		fmt.Fprintf(w, "    id %s, image %s\n", c.ID, c.Image)
		for _, b := range c.Bullets() {
			fmt.Fprintf(w, "    - %s\n", b)
		}
	}
}
