package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrGenerationUnavailable marks failures reaching the generation
// endpoint: network errors, timeouts, or non-success HTTP statuses.
var ErrGenerationUnavailable = errors.New("generation endpoint unavailable")

// Generator produces raw model output for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options are the sampling parameters sent with every generate call.
type Options struct {
	Temperature float64
	TopP        float64
	NumCtx      int
}

// DefaultOptions returns the sampling parameters used for ticket
// enhancement. Low temperature keeps rewrites consistent.
func DefaultOptions() Options {
	return Options{
		Temperature: 0.1,
		TopP:        0.9,
		NumCtx:      4096,
	}
}

// OllamaClient calls an Ollama server's /api/generate endpoint. The wire
// body is fixed: the model expects exactly this shape, so the request is
// built by hand rather than through a provider SDK.
type OllamaClient struct {
	baseURL    string
	model      string
	options    Options
	httpClient *http.Client
}

// NewOllamaClient creates a generation client. A zero timeout defaults to
// 60 seconds, the only bound on the blocking call.
func NewOllamaClient(baseURL, model string, options Options, timeout time.Duration) *OllamaClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		options: options,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumCtx      int     `json:"num_ctx"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate performs a single blocking, non-streaming generate call and
// returns the model's text output. An absent response field is an empty
// string, not an error.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: c.options.Temperature,
			TopP:        c.options.TopP,
			NumCtx:      c.options.NumCtx,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generate request: %w", err)
	}

	url := c.baseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Str("model", c.model).Int("prompt_len", len(prompt)).Msg("Sending generate request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrGenerationUnavailable, resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}

	return decoded.Response, nil
}
