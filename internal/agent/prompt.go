package agent

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/rahul/planwise/internal/plan"
)

const defaultSystemPrompt = "You output JSON only."

const defaultUserPrompt = `
Generate {{.DurationNumber}} motivational planning cards.

RULES:
- Output ONLY valid JSON
- No markdown
- No explanations

FORMAT:
[
  {
    "info": "Short motivational sentence (max 15 words)",
    "description": "Clear, practical advice (3-5 sentences)"
  }
]

CONTEXT:
User type: {{.UserType}}
Goal: {{.Goal}}
Duration unit: {{.DurationUnit}}
Focus: {{.SkillFocus}}
`

// BuildRequest packs the user's parameters into a Request. Nothing is
// validated or normalised: odd values flow into the prompt as typed.
func BuildRequest(role plan.Role, goal string, count int, unit plan.Unit, focus string) plan.Request {
	return plan.Request{
		UserType:       role,
		Goal:           goal,
		DurationNumber: count,
		DurationUnit:   unit,
		SkillFocus:     focus,
	}
}

// PromptManager renders the system and user instructions. Files named
// system.md and user.md in Directory override the built-in text; user.md is
// a text/template executed against plan.Request.
type PromptManager struct {
	Directory string

	system string
	user   *template.Template
}

func NewPromptManager(dir string) (*PromptManager, error) {
	pm := &PromptManager{
		Directory: dir,
		system:    defaultSystemPrompt,
	}

	userText := defaultUserPrompt
	if dir != "" {
		if data, err := os.ReadFile(filepath.Join(dir, "system.md")); err == nil {
			pm.system = string(data)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read system prompt: %w", err)
		}
		if data, err := os.ReadFile(filepath.Join(dir, "user.md")); err == nil {
			userText = string(data)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read user prompt: %w", err)
		}
	}

	tmpl, err := template.New("user").Option("missingkey=error").Parse(userText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user prompt: %w", err)
	}
	pm.user = tmpl
	return pm, nil
}

// SystemPrompt returns the instruction sent as the system message.
func (pm *PromptManager) SystemPrompt() string {
	return pm.system
}

// UserPrompt renders the user instruction for req.
func (pm *PromptManager) UserPrompt(req plan.Request) (string, error) {
	var buf bytes.Buffer
	if err := pm.user.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("failed to render user prompt: %w", err)
	}
	return buf.String(), nil
}
