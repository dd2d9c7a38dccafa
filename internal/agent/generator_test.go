package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rahul/planwise/internal/plan"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

type fakeModel struct {
	resp *llms.ContentResponse
	err  error

	calls    int
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	f.messages = messages
	for _, opt := range options {
		opt(&f.opts)
	}
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func textResponse(content string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}
}

func newTestGenerator(t *testing.T, model llms.Model) *Generator {
	t.Helper()
	pm, err := NewPromptManager("")
	if err != nil {
		t.Fatal(err)
	}
	return NewGenerator(model, pm, nil, 0.7)
}

var examReq = plan.Request{
	UserType:       plan.RoleStudent,
	Goal:           "Prepare for exams",
	DurationNumber: 3,
	DurationUnit:   plan.UnitDays,
	SkillFocus:     "Math",
}

func TestGenerator_Success(t *testing.T) {
	model := &fakeModel{resp: textResponse(`[{"info":"a","description":"b"}]`)}
	g := newTestGenerator(t, model)

	got, err := g.Generate(context.Background(), examReq)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != `[{"info":"a","description":"b"}]` {
		t.Errorf("content = %q", got)
	}

	if model.calls != 1 {
		t.Errorf("expected exactly one call, got %d", model.calls)
	}
	if len(model.messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(model.messages))
	}
	if model.messages[0].Role != llms.ChatMessageTypeSystem || model.messages[1].Role != llms.ChatMessageTypeHuman {
		t.Errorf("unexpected roles %s, %s", model.messages[0].Role, model.messages[1].Role)
	}
	if model.opts.Temperature != 0.7 {
		t.Errorf("temperature = %v", model.opts.Temperature)
	}
}

func TestGenerator_ErrorIsUnavailable(t *testing.T) {
	model := &fakeModel{err: errors.New("API returned unexpected status code: 503")}
	g := newTestGenerator(t, model)

	_, err := g.Generate(context.Background(), examReq)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if model.calls != 1 {
		t.Errorf("expected no retries, got %d calls", model.calls)
	}
}

func TestGenerator_EmptyIsSuccess(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{"empty content", &fakeModel{resp: textResponse("")}},
		{"no choices", &fakeModel{resp: &llms.ContentResponse{}}},
		{"langchaingo empty response", &fakeModel{err: openai.ErrEmptyResponse}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestGenerator(t, tt.model).Generate(context.Background(), examReq)
			if err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if got != "" {
				t.Errorf("expected empty text, got %q", got)
			}
		})
	}
}

// upstream runs a fake OpenRouter chat completion endpoint.
func upstream(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	client := &http.Client{}
	t.Cleanup(func() {
		client.CloseIdleConnections()
		srv.Close()
	})
	return srv, client
}

func TestNewModel_OpenRouterWire(t *testing.T) {
	var gotBody map[string]any
	srv, client := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "PlanWise" {
			t.Errorf("X-Title = %q", got)
		}
		if got := r.Header.Get("HTTP-Referer"); got != "http://localhost:3000" {
			t.Errorf("HTTP-Referer = %q", got)
		}
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &gotBody); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"`+
			"```json\\n[{\\\"info\\\":\\\"Study daily\\\",\\\"description\\\":\\\"Review notes.\\\"}]\\n```"+`"}}]}`)
	})

	model, err := NewModel(ProviderOptions{
		Name:    "openrouter",
		APIKey:  "test-key",
		Model:   "test/model",
		BaseURL: srv.URL,
		Referer: "http://localhost:3000",
		Title:   "PlanWise",
		Client:  client,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	got, err := newTestGenerator(t, model).Generate(context.Background(), examReq)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	cards := ParseCards(got)
	if len(cards) != 1 || cards[0].Info != "Study daily" {
		t.Errorf("unexpected cards from %q: %+v", got, cards)
	}

	if gotBody["temperature"] != 0.7 {
		t.Errorf("temperature = %v", gotBody["temperature"])
	}
	if gotBody["model"] != "test/model" {
		t.Errorf("model = %v", gotBody["model"])
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Errorf("expected 2 messages, got %d", len(msgs))
	}
}

func TestNewModel_ServiceUnavailable(t *testing.T) {
	srv, client := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "upstream overloaded")
	})

	model, err := NewModel(ProviderOptions{APIKey: "test-key", Model: "test/model", BaseURL: srv.URL, Client: client}, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = newTestGenerator(t, model).Generate(context.Background(), examReq)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestNewModel_NoChoicesIsEmpty(t *testing.T) {
	srv, client := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[]}`)
	})

	model, err := NewModel(ProviderOptions{APIKey: "test-key", Model: "test/model", BaseURL: srv.URL, Client: client}, nil)
	if err != nil {
		t.Fatal(err)
	}

	got, err := newTestGenerator(t, model).Generate(context.Background(), examReq)
	if err != nil {
		t.Fatalf("expected empty success, got %v", err)
	}
	if got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}

func TestNewModel_UnknownProvider(t *testing.T) {
	if _, err := NewModel(ProviderOptions{Name: "anthropic", APIKey: "k"}, nil); err == nil {
		t.Error("expected error for unsupported provider")
	}
}
