package gateway

import (
	"context"
	"fmt"

	"github.com/rahul/planwise/internal/agent"
	"github.com/rahul/planwise/internal/plan"
	"github.com/rahul/planwise/internal/store"
)

// stubPlanner parses canned model text and stores the plan the way the real
// pipeline does, without a network call.
type stubPlanner struct {
	plans *store.PlanStore
	text  string
	err   error
	busy  bool

	got []plan.Request
}

func (s *stubPlanner) Run(ctx context.Context, source string, req plan.Request) (agent.Result, error) {
	s.got = append(s.got, req)
	res := agent.Result{Cards: []plan.CardDescriptor{}}
	if s.busy {
		return res, agent.ErrBusy
	}
	if s.err != nil {
		return res, s.err
	}
	res.Cards = agent.ParseCards(s.text)
	if len(res.Cards) == 0 {
		return res, agent.ErrNoCards
	}
	res.Plan = plan.NewAssembler().Assemble(res.Cards, req, plan.DefaultImages())
	if err := s.plans.CreateAndActivate(ctx, res.Plan); err != nil {
		return res, err
	}
	return res, nil
}

func (s *stubPlanner) Busy() bool { return s.busy }

const threeCards = "```json\n" +
	`[{"info":"Study daily","description":"Review notes. Practice problems. Rest well."},` +
	`{"info":"Drill","description":"Timed practice."},` +
	`{"info":"Review","description":"Go over mistakes."}]` +
	"\n```"

func newStub(text string) (*stubPlanner, *store.PlanStore) {
	plans := store.NewPlanStore(store.NewMemoryKV(), nil)
	plans.Load(context.Background())
	return &stubPlanner{plans: plans, text: text}, plans
}

var errUpstream = fmt.Errorf("%w: API returned unexpected status code: 503", agent.ErrUpstreamUnavailable)
