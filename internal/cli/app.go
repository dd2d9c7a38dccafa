package cli

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rahul/planwise/internal/agent"
	"github.com/rahul/planwise/internal/observability"
	"github.com/rahul/planwise/internal/plan"
	"github.com/rahul/planwise/internal/store"
	"github.com/rahul/planwise/pkg/config"
)

// app is everything a command needs, wired from config.
type app struct {
	cfg      *config.Config
	logger   *observability.Logger
	kv       store.KV
	plans    *store.PlanStore
	pipeline *agent.Pipeline
}

// newApp loads config, opens storage and restores the plan collection. The
// pipeline is only built when withPipeline is set, since it needs an api key.
func newApp(ctx context.Context, withPipeline bool) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(observability.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		LLMLogPath: cfg.Logging.LLMLogPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialise logger: %w", err)
	}

	kv, err := store.Open(cfg.Memory.Type, cfg.Memory.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan storage: %w", err)
	}
	plans := store.NewPlanStore(kv, logger)
	plans.Load(ctx)

	a := &app{cfg: cfg, logger: logger, kv: kv, plans: plans}
	if !withPipeline {
		return a, nil
	}

	if a.pipeline, err = a.buildPipeline(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) buildPipeline() (*agent.Pipeline, error) {
	pName, pCfg := a.cfg.GetDefaultProvider()
	if pName == "" {
		return nil, fmt.Errorf("no enabled provider found in config")
	}
	if pCfg.APIKey == "" {
		return nil, fmt.Errorf("provider %s has no api key (set %s)", pName, config.APIKeyEnv)
	}

	model, err := agent.NewModel(agent.ProviderOptions{
		Name:    pName,
		APIKey:  pCfg.APIKey,
		Model:   pCfg.Model,
		BaseURL: pCfg.BaseURL,
		Referer: a.cfg.App.Referer,
		Title:   a.cfg.App.Name,
	}, a.logger)
	if err != nil {
		return nil, err
	}

	prompts, err := agent.NewPromptManager(a.cfg.App.PromptsDir)
	if err != nil {
		return nil, err
	}

	gen := agent.NewGenerator(model, prompts, a.logger, pCfg.Temperature)
	return agent.NewPipeline(gen, plan.NewAssembler(), a.imagePool(), a.plans, a.logger), nil
}

// imagePool shuffles the configured images. Called once per process.
func (a *app) imagePool() plan.ImagePool {
	images := plan.DefaultImages()
	if len(a.cfg.Plans.Images) > 0 {
		images = plan.ImagePool(a.cfg.Plans.Images)
	}
	seed := a.cfg.Plans.ShuffleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return plan.Shuffle(images, rand.New(rand.NewSource(seed)))
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		a.logger.LogPersistence("close", err)
	}
	a.logger.Sync()
}
