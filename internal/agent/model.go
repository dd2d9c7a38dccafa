package agent

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/rahul/planwise/internal/observability"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// maxErrorBody caps how much of a failed response is kept for the logs.
const maxErrorBody = 64 << 10

// ProviderOptions describes an OpenAI-compatible chat completion endpoint.
type ProviderOptions struct {
	Name    string
	APIKey  string
	Model   string
	BaseURL string
	Referer string // sent as HTTP-Referer, OpenRouter attribution
	Title   string // sent as X-Title
	Client  *http.Client
}

// NewModel builds the langchaingo model for an OpenAI-compatible provider.
func NewModel(opts ProviderOptions, logger *observability.Logger) (llms.Model, error) {
	switch opts.Name {
	case "openai", "openrouter", "":
	default:
		return nil, fmt.Errorf("provider %s not supported", opts.Name)
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	llmOpts := []openai.Option{
		openai.WithToken(opts.APIKey),
		openai.WithModel(opts.Model),
		openai.WithHTTPClient(&attributionDoer{
			client:  client,
			referer: opts.Referer,
			title:   opts.Title,
			logger:  logger,
		}),
	}
	if opts.BaseURL != "" {
		llmOpts = append(llmOpts, openai.WithBaseURL(opts.BaseURL))
	}
	return openai.New(llmOpts...)
}

// attributionDoer adds the OpenRouter attribution headers and keeps the raw
// body of non-200 responses for the logs; langchaingo only surfaces the
// parsed error message.
type attributionDoer struct {
	client  *http.Client
	referer string
	title   string
	logger  *observability.Logger
}

func (d *attributionDoer) Do(req *http.Request) (*http.Response, error) {
	if d.referer != "" {
		req.Header.Set("HTTP-Referer", d.referer)
	}
	if d.title != "" {
		req.Header.Set("X-Title", d.title)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		d.logger.LogUpstreamError(nil, resp.StatusCode, string(body))
		resp.Body = io.NopCloser(bytes.NewReader(body))
	}
	return resp, nil
}
