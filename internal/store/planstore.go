package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rahul/planwise/internal/observability"
	"github.com/rahul/planwise/internal/plan"
)

// PlansKey is the single key the whole plan collection is stored under.
const PlansKey = "plans"

// PlanStore owns the plan collection and the active-plan pointer. Every
// mutation runs under one lock and writes the whole collection back, so
// persisted snapshots never interleave.
type PlanStore struct {
	mu     sync.Mutex
	kv     KV
	logger *observability.Logger
	plans  []*plan.Plan
	active string
}

func NewPlanStore(kv KV, logger *observability.Logger) *PlanStore {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &PlanStore{kv: kv, logger: logger}
}

// Load replaces the in-memory collection with what is persisted and makes
// the last plan active. Missing, empty or unreadable data all yield an
// empty collection; read errors are logged, not returned.
func (s *PlanStore) Load(ctx context.Context) []*plan.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans = nil
	s.active = ""

	plans, err := s.read(ctx)
	if err != nil {
		s.logger.LogPersistence("load", err)
	}
	if len(plans) > 0 {
		s.plans = plans
		s.active = plans[len(plans)-1].ID
	}
	return s.snapshot()
}

func (s *PlanStore) read(ctx context.Context) ([]*plan.Plan, error) {
	data, ok, err := s.kv.Get(ctx, PlansKey)
	if err != nil || !ok || len(data) == 0 {
		return nil, err
	}
	var plans []*plan.Plan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, err
	}
	// drop null entries so the rest of the store can rely on non-nil plans
	valid := plans[:0]
	for _, p := range plans {
		if p != nil {
			p.Completed = knownCompleted(p)
			valid = append(valid, p)
		}
	}
	return valid, nil
}

// knownCompleted keeps the first occurrence of each completed id that names
// one of p's cards.
func knownCompleted(p *plan.Plan) []string {
	out := make([]string, 0, len(p.Completed))
	seen := make(map[string]bool, len(p.Completed))
	for _, id := range p.Completed {
		if seen[id] || !p.HasCard(id) {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// persist writes the full collection. Callers hold s.mu. The write outlives
// cancellation of ctx, since memory has already been mutated.
func (s *PlanStore) persist(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	plans := s.plans
	if plans == nil {
		plans = []*plan.Plan{}
	}
	data, err := json.Marshal(plans)
	if err == nil {
		err = s.kv.Put(ctx, PlansKey, data)
	}
	if err != nil {
		s.logger.LogPersistence("save", err)
	}
}

// CreateAndActivate appends p, makes it active and persists.
func (s *PlanStore) CreateAndActivate(ctx context.Context, p *plan.Plan) error {
	if p == nil || len(p.Cards) == 0 {
		return errors.New("refusing to store a plan without cards")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans = append(s.plans, p.Clone())
	s.active = p.ID
	s.persist(ctx)
	return nil
}

// SelectActive moves the active pointer to planID. Unknown ids are ignored.
// Selection is not persisted: after a restart the newest plan is active.
func (s *PlanStore) SelectActive(planID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(planID) == nil {
		return false
	}
	s.active = planID
	return true
}

// CompleteCard marks cardID done in plan planID and persists. Completing an
// already completed card, or naming an unknown plan or card, changes nothing.
// It returns the plan after the call and whether the plan exists.
func (s *PlanStore) CompleteCard(ctx context.Context, planID, cardID string) (*plan.Plan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.find(planID)
	if p == nil {
		return nil, false
	}
	if !p.HasCard(cardID) || p.IsCompleted(cardID) {
		return p.Clone(), true
	}

	p.Completed = append(p.Completed, cardID)
	s.persist(ctx)
	s.logger.LogCardCompleted(planID, cardID, plan.Percent(p))
	return p.Clone(), true
}

// Plans returns copies of all plans in creation order.
func (s *PlanStore) Plans() []*plan.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Active returns a copy of the active plan.
func (s *PlanStore) Active() (*plan.Plan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(s.active)
	if p == nil {
		return nil, false
	}
	return p.Clone(), true
}

// ActiveID returns the id of the active plan, or "".
func (s *PlanStore) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Get returns a copy of the plan with id planID.
func (s *PlanStore) Get(planID string) (*plan.Plan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(planID)
	if p == nil {
		return nil, false
	}
	return p.Clone(), true
}

func (s *PlanStore) find(planID string) *plan.Plan {
	if planID == "" {
		return nil
	}
	for _, p := range s.plans {
		if p.ID == planID {
			return p
		}
	}
	return nil
}

func (s *PlanStore) snapshot() []*plan.Plan {
	out := make([]*plan.Plan, len(s.plans))
	for i, p := range s.plans {
		out[i] = p.Clone()
	}
	return out
}
