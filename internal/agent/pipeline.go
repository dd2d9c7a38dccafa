package agent

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rahul/planwise/internal/observability"
	"github.com/rahul/planwise/internal/plan"
	"github.com/rahul/planwise/internal/store"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrBusy is returned when a generation is already in flight.
	ErrBusy = errors.New("a plan is already being generated")
	// ErrNoCards means the service answered but nothing could be parsed.
	ErrNoCards = errors.New("no cards in response")
)

// CardGenerator produces raw completion text for a request.
type CardGenerator interface {
	Generate(ctx context.Context, req plan.Request) (string, error)
}

// Result is what one pipeline run produced. Cards is never nil; Plan is nil
// unless a plan was created and activated.
type Result struct {
	Cards []plan.CardDescriptor
	Plan  *plan.Plan
}

// Pipeline runs generate -> parse -> assemble -> store for one request at a
// time. A second Run while one is outstanding is rejected with ErrBusy
// instead of racing for the active plan.
type Pipeline struct {
	generator CardGenerator
	assembler *plan.Assembler
	images    plan.ImagePool
	store     *store.PlanStore
	logger    *observability.Logger
	gate      *semaphore.Weighted
	inflight  atomic.Bool
}

func NewPipeline(gen CardGenerator, assembler *plan.Assembler, images plan.ImagePool, plans *store.PlanStore, logger *observability.Logger) *Pipeline {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if assembler == nil {
		assembler = plan.NewAssembler()
	}
	return &Pipeline{
		generator: gen,
		assembler: assembler,
		images:    images,
		store:     plans,
		logger:    logger,
		gate:      semaphore.NewWeighted(1),
	}
}

// Run generates a plan for req. On success the new plan is appended to the
// store and made active. Failures and empty results leave the store alone.
func (p *Pipeline) Run(ctx context.Context, source string, req plan.Request) (Result, error) {
	res := Result{Cards: []plan.CardDescriptor{}}

	if !p.gate.TryAcquire(1) {
		p.logger.LogBusy(source)
		return res, ErrBusy
	}
	defer p.gate.Release(1)
	p.inflight.Store(true)
	defer p.inflight.Store(false)

	observability.SetStatus(observability.RoleGenerating, req.Goal)
	defer observability.SetStatus(observability.RoleIdle, "")

	p.logger.LogRequest(source, req)

	raw, err := p.generator.Generate(ctx, req)
	if err != nil {
		return res, err
	}

	res.Cards = ParseCards(raw)
	if len(res.Cards) == 0 {
		p.logger.LogParse(0, len(raw))
		return res, ErrNoCards
	}

	created := p.assembler.Assemble(res.Cards, req, p.images)
	if err := p.store.CreateAndActivate(ctx, created); err != nil {
		return res, err
	}
	p.logger.LogPlanCreated(created.ID, len(created.Cards), source)

	res.Plan = created
	return res, nil
}

// Busy reports whether a generation is in flight.
func (p *Pipeline) Busy() bool {
	return p.inflight.Load()
}
