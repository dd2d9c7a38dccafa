package plan

import (
	"regexp"
	"slices"
	"strings"
	"time"
)

// Role identifies who the plan is written for.
type Role string

const (
	RoleStudent      Role = "student"
	RoleProfessional Role = "professional"
	RoleSelfLearner  Role = "self-learner"
)

// Unit is the duration unit a plan is split into. One card per unit.
type Unit string

const (
	UnitDays   Unit = "days"
	UnitWeeks  Unit = "weeks"
	UnitMonths Unit = "months"
)

// Request holds the parameters a plan is generated from. Field names follow
// the JSON body accepted by the generate endpoint.
type Request struct {
	UserType       Role   `json:"userType"`
	Goal           string `json:"goal"`
	DurationNumber int    `json:"durationNumber"`
	DurationUnit   Unit   `json:"durationUnit"`
	SkillFocus     string `json:"skillFocus"`
}

// CardDescriptor is the raw card shape extracted from model output, before
// it gets an id, title or image.
type CardDescriptor struct {
	Info        string `json:"info"`
	Description string `json:"description"`
}

// Card is one actionable unit inside a Plan.
type Card struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Info        string `json:"info"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// Bullets splits the description into sentences.
func (c Card) Bullets() []string {
	text := strings.TrimSpace(c.Description)
	if text == "" {
		return nil
	}

	var bullets []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		// keep the punctuation, drop the whitespace
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			bullets = append(bullets, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		bullets = append(bullets, s)
	}
	return bullets
}

// Plan is a generated sequence of cards plus the request it came from.
// Only Completed changes after creation.
type Plan struct {
	ID        string   `json:"id"`
	CreatedAt int64    `json:"createdAt"` // unix milliseconds
	Meta      Request  `json:"meta"`
	Cards     []Card   `json:"cards"`
	Completed []string `json:"completed"`
}

// Created returns CreatedAt as a time.
func (p *Plan) Created() time.Time {
	return time.UnixMilli(p.CreatedAt)
}

// HasCard reports whether cardID belongs to the plan.
func (p *Plan) HasCard(cardID string) bool {
	return p.CardIndex(cardID) >= 0
}

// CardIndex returns the position of cardID in Cards, or -1.
func (p *Plan) CardIndex(cardID string) int {
	return slices.IndexFunc(p.Cards, func(c Card) bool { return c.ID == cardID })
}

// IsCompleted reports whether cardID has been marked done.
func (p *Plan) IsCompleted(cardID string) bool {
	return slices.Contains(p.Completed, cardID)
}

// Clone returns a deep copy so callers can't mutate store-owned state.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Cards = slices.Clone(p.Cards)
	cp.Completed = slices.Clone(p.Completed)
	if cp.Completed == nil {
		cp.Completed = []string{}
	}
	return &cp
}
