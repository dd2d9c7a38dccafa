package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rahul/planwise/internal/plan"
	"github.com/rahul/planwise/internal/store"
)

type stubGenerator struct {
	text  string
	err   error
	calls int

	started chan struct{}
	release chan struct{}
}

func (s *stubGenerator) Generate(ctx context.Context, req plan.Request) (string, error) {
	s.calls++
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		<-s.release
	}
	return s.text, s.err
}

func newTestPipeline(gen CardGenerator) (*Pipeline, *store.PlanStore) {
	plans := store.NewPlanStore(store.NewMemoryKV(), nil)
	plans.Load(context.Background())
	pool := plan.ImagePool{"/card3.jpg", "/card1.jpg", "/card2.jpg"}
	return NewPipeline(gen, plan.NewAssembler(), pool, plans, nil), plans
}

const examResponse = "```json\n" +
	`[{"info":"Study daily","description":"Review notes. Practice problems. Rest well."},` +
	`{"info":"Drill","description":"Timed practice."},` +
	`{"info":"Review","description":"Go over mistakes."}]` +
	"\n```"

func TestPipeline_CreatesAndActivatesPlan(t *testing.T) {
	p, plans := newTestPipeline(&stubGenerator{text: examResponse})

	res, err := p.Run(context.Background(), "test", examReq)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Cards) != 3 || res.Plan == nil {
		t.Fatalf("unexpected result: %+v", res)
	}

	for i, c := range res.Plan.Cards {
		if want := fmt.Sprintf("Day %d", i+1); c.Title != want {
			t.Errorf("card %d title = %q, want %q", i, c.Title, want)
		}
	}
	if res.Plan.Cards[0].Image != "/card3.jpg" || res.Plan.Cards[2].Image != "/card2.jpg" {
		t.Errorf("images not taken from the pool in order: %+v", res.Plan.Cards)
	}

	all := plans.Plans()
	if len(all) != 1 || all[0].ID != res.Plan.ID {
		t.Fatalf("plan not appended: %+v", all)
	}
	if plans.ActiveID() != res.Plan.ID {
		t.Errorf("plan not activated")
	}
}

func TestPipeline_UpstreamFailureLeavesStoreUntouched(t *testing.T) {
	p, plans := newTestPipeline(&stubGenerator{text: examResponse})
	first, err := p.Run(context.Background(), "test", examReq)
	if err != nil {
		t.Fatal(err)
	}

	p.generator = &stubGenerator{err: fmt.Errorf("%w: status 503", ErrUpstreamUnavailable)}
	res, err := p.Run(context.Background(), "test", examReq)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if res.Plan != nil || res.Cards == nil || len(res.Cards) != 0 {
		t.Errorf("unexpected result on failure: %+v", res)
	}
	if len(plans.Plans()) != 1 || plans.ActiveID() != first.Plan.ID {
		t.Error("failed generation changed the collection")
	}
}

func TestPipeline_NoCardsCreatesNothing(t *testing.T) {
	for _, text := range []string{"I cannot help with that.", ""} {
		p, plans := newTestPipeline(&stubGenerator{text: text})

		res, err := p.Run(context.Background(), "test", examReq)
		if !errors.Is(err, ErrNoCards) {
			t.Fatalf("%q: expected ErrNoCards, got %v", text, err)
		}
		if res.Plan != nil || len(res.Cards) != 0 {
			t.Errorf("%q: unexpected result %+v", text, res)
		}
		if len(plans.Plans()) != 0 || plans.ActiveID() != "" {
			t.Errorf("%q: store changed", text)
		}
	}
}

func TestPipeline_RejectsConcurrentRun(t *testing.T) {
	gen := &stubGenerator{
		text:    examResponse,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	p, plans := newTestPipeline(gen)

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), "first", examReq)
		done <- err
	}()

	select {
	case <-gen.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never reached the generator")
	}
	if !p.Busy() {
		t.Error("pipeline should report busy")
	}

	if _, err := p.Run(context.Background(), "second", examReq); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	close(gen.release)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}
	if len(plans.Plans()) != 1 {
		t.Errorf("expected exactly one plan, got %d", len(plans.Plans()))
	}
	if p.Busy() {
		t.Error("pipeline still busy after run finished")
	}
}
