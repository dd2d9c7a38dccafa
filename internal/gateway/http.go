package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rahul/planwise/internal/agent"
	"github.com/rahul/planwise/internal/observability"
	"github.com/rahul/planwise/internal/plan"
	"github.com/rahul/planwise/internal/store"
)

// HTTPGateway serves the generate endpoint and the plan management API.
type HTTPGateway struct {
	Planner Planner
	Plans   *store.PlanStore
	Logger  *observability.Logger

	server *http.Server
}

func NewHTTPGateway(addr string, planner Planner, plans *store.PlanStore, logger *observability.Logger) *HTTPGateway {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	g := &HTTPGateway{
		Planner: planner,
		Plans:   plans,
		Logger:  logger,
	}
	g.server = &http.Server{
		Addr:              addr,
		Handler:           g.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return g
}

// Handler returns the routed handler, wrapped in CORS.
func (g *HTTPGateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate-cards", g.handleGenerateCards)
	mux.HandleFunc("POST /api/generate-cards", g.handleGenerateCards)

	mux.HandleFunc("GET /api/plans", g.handleListPlans)
	mux.HandleFunc("POST /api/plans", g.handleCreatePlan)
	mux.HandleFunc("GET /api/plans/active", g.handleActivePlan)
	mux.HandleFunc("POST /api/plans/{planID}/select", g.handleSelectPlan)
	mux.HandleFunc("POST /api/plans/{planID}/cards/{cardID}/complete", g.handleCompleteCard)

	mux.HandleFunc("GET /healthz", g.handleHealth)
	return withCORS(mux)
}

func (g *HTTPGateway) Start() error {
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *HTTPGateway) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.server.Shutdown(ctx)
}

// handleGenerateCards answers 200 with the parsed cards, which may be an
// empty array, or 500 with [] when the upstream call failed.
func (g *HTTPGateway) handleGenerateCards(w http.ResponseWriter, r *http.Request) {
	var req plan.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusInternalServerError, []plan.CardDescriptor{})
		return
	}

	res, err := g.Planner.Run(r.Context(), "http", req)
	if res.Cards == nil {
		res.Cards = []plan.CardDescriptor{}
	}
	switch {
	case err == nil, errors.Is(err, agent.ErrNoCards), errors.Is(err, agent.ErrBusy):
		writeJSON(w, http.StatusOK, res.Cards)
	default:
		writeJSON(w, http.StatusInternalServerError, []plan.CardDescriptor{})
	}
}

type planView struct {
	Plan     *plan.Plan `json:"plan"`
	Progress int        `json:"progress"`
}

type errorView struct {
	Error string `json:"error"`
}

func (g *HTTPGateway) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req plan.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorView{Error: "invalid request body"})
		return
	}

	res, err := g.Planner.Run(r.Context(), "api", req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, planView{Plan: res.Plan, Progress: plan.Percent(res.Plan)})
	case errors.Is(err, agent.ErrBusy):
		writeJSON(w, http.StatusConflict, errorView{Error: err.Error()})
	case errors.Is(err, agent.ErrNoCards):
		writeJSON(w, http.StatusUnprocessableEntity, errorView{Error: err.Error()})
	case errors.Is(err, agent.ErrUpstreamUnavailable):
		writeJSON(w, http.StatusBadGateway, errorView{Error: agent.ErrUpstreamUnavailable.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorView{Error: "internal error"})
	}
}

func (g *HTTPGateway) handleListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Plans        []*plan.Plan `json:"plans"`
		ActivePlanID string       `json:"activePlanId"`
	}{
		Plans:        g.Plans.Plans(),
		ActivePlanID: g.Plans.ActiveID(),
	})
}

func (g *HTTPGateway) handleActivePlan(w http.ResponseWriter, r *http.Request) {
	p, ok := g.Plans.Active()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorView{Error: "no active plan"})
		return
	}
	writeJSON(w, http.StatusOK, planView{Plan: p, Progress: plan.Percent(p)})
}

func (g *HTTPGateway) handleSelectPlan(w http.ResponseWriter, r *http.Request) {
	if !g.Plans.SelectActive(r.PathValue("planID")) {
		writeJSON(w, http.StatusNotFound, errorView{Error: "plan not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *HTTPGateway) handleCompleteCard(w http.ResponseWriter, r *http.Request) {
	planID, cardID := r.PathValue("planID"), r.PathValue("cardID")

	p, ok := g.Plans.Get(planID)
	if !ok || !p.HasCard(cardID) {
		writeJSON(w, http.StatusNotFound, errorView{Error: "card not found"})
		return
	}

	p, _ = g.Plans.CompleteCard(r.Context(), planID, cardID)
	writeJSON(w, http.StatusOK, planView{Plan: p, Progress: plan.Percent(p)})
}

func (g *HTTPGateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	role, _, since := observability.GetStatus()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"generating":    g.Planner.Busy(),
		"role":          role,
		"since":         since,
		"lastHeartbeat": observability.LastHeartbeat(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
