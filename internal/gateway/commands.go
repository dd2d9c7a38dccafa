package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rahul/planwise/internal/agent"
	"github.com/rahul/planwise/internal/plan"
	"github.com/rahul/planwise/internal/store"
)

const helpText = `Commands:
/new <count> <days|weeks|months> <goal> [| focus]
/plans - list your plans
/select <n> - switch the active plan
/card <n> - show a card of the active plan
/done <n> - mark a card of the active plan as done
/progress - progress of the active plan`

// Commands interprets chat commands against the planner and plan store.
type Commands struct {
	Planner      Planner
	Plans        *store.PlanStore
	DefaultRole  plan.Role
	DefaultFocus string
}

// Handle runs one chat message and returns the reply text.
func (c *Commands) Handle(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return helpText
	}

	// "/done@planwise_bot 2" in group chats
	cmd, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]

	switch cmd {
	case "/new":
		return c.newPlan(ctx, strings.TrimSpace(strings.TrimPrefix(text, fields[0])))
	case "/plans":
		return c.listPlans()
	case "/select":
		return c.selectPlan(args)
	case "/card":
		return c.showCard(args)
	case "/done":
		return c.completeCard(ctx, args)
	case "/progress":
		return c.progress()
	default:
		return helpText
	}
}

func (c *Commands) newPlan(ctx context.Context, rest string) string {
	rest, focus, hasFocus := strings.Cut(rest, "|")
	fields := strings.Fields(rest)
	if len(fields) < 3 {
		return "Usage: /new <count> <days|weeks|months> <goal> [| focus]"
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil {
		return "Count must be a number."
	}
	if !hasFocus || strings.TrimSpace(focus) == "" {
		focus = c.DefaultFocus
	}

	req := agent.BuildRequest(c.DefaultRole, strings.Join(fields[2:], " "), count, plan.Unit(fields[1]), strings.TrimSpace(focus))
	res, err := c.Planner.Run(ctx, "telegram", req)
	switch {
	case errors.Is(err, agent.ErrBusy):
		return "Already generating a plan, try again in a moment."
	case errors.Is(err, agent.ErrNoCards):
		return "The model didn't return any cards. Try rephrasing your goal."
	case err != nil:
		return "I couldn't reach the planning service right now."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "New plan for %q with %d cards:\n", res.Plan.Meta.Goal, len(res.Plan.Cards))
	for _, card := range res.Plan.Cards {
		fmt.Fprintf(&b, "\n%s: %s", card.Title, card.Info)
	}
	return b.String()
}

func (c *Commands) listPlans() string {
	plans := c.Plans.Plans()
	if len(plans) == 0 {
		return "No plans yet. Create one with /new."
	}

	active := c.Plans.ActiveID()
	var b strings.Builder
	for i, p := range plans {
		marker := ""
		if p.ID == active {
			marker = " (active)"
		}
		fmt.Fprintf(&b, "%d. %s - %d %s, %d%%%s\n", i+1, p.Meta.Goal, len(p.Cards), p.Meta.DurationUnit, plan.Percent(p), marker)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c *Commands) selectPlan(args []string) string {
	plans := c.Plans.Plans()
	n, ok := indexArg(args, len(plans))
	if !ok {
		return fmt.Sprintf("Pick a plan between 1 and %d.", len(plans))
	}
	c.Plans.SelectActive(plans[n].ID)
	return fmt.Sprintf("Active plan: %s", plans[n].Meta.Goal)
}

func (c *Commands) showCard(args []string) string {
	p, ok := c.Plans.Active()
	if !ok {
		return "No active plan."
	}
	n, ok := indexArg(args, len(p.Cards))
	if !ok {
		return fmt.Sprintf("Pick a card between 1 and %d.", len(p.Cards))
	}
	return renderCard(p, p.Cards[n])
}

func (c *Commands) completeCard(ctx context.Context, args []string) string {
	p, ok := c.Plans.Active()
	if !ok {
		return "No active plan."
	}
	n, ok := indexArg(args, len(p.Cards))
	if !ok {
		return fmt.Sprintf("Pick a card between 1 and %d.", len(p.Cards))
	}

	card := p.Cards[n]
	p, _ = c.Plans.CompleteCard(ctx, p.ID, card.ID)
	return fmt.Sprintf("%s done. Progress: %d%%", card.Title, plan.Percent(p))
}

func (c *Commands) progress() string {
	p, ok := c.Plans.Active()
	if !ok {
		return "No active plan."
	}
	return fmt.Sprintf("%s: %d/%d cards done (%d%%)", p.Meta.Goal, len(p.Completed), len(p.Cards), plan.Percent(p))
}

func renderCard(p *plan.Plan, card plan.Card) string {
	var b strings.Builder
	status := ""
	if p.IsCompleted(card.ID) {
		status = " [done]"
	}
	fmt.Fprintf(&b, "%s%s\n%s\n", card.Title, status, card.Info)
	for _, line := range card.Bullets() {
		fmt.Fprintf(&b, "\n• %s", line)
	}
	return strings.TrimRight(b.String(), "\n")
}

// indexArg parses a 1-based position argument into a 0-based index < n.
func indexArg(args []string, n int) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}
