package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// ValidateModel checks that the Ollama server is reachable and that the
// configured model can produce output. It runs a tiny generation through
// the langchaingo client rather than hitting a raw endpoint, so a model
// that is pulled but broken still fails the check.
func ValidateModel(ctx context.Context, baseURL, model string) error {
	httpClient := &http.Client{
		Timeout: 2 * time.Minute,
		Transport: &http.Transport{
			ResponseHeaderTimeout: 60 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
		},
	}

	client, err := ollama.New(
		ollama.WithServerURL(baseURL),
		ollama.WithModel(model),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		return fmt.Errorf("failed to create ollama client: %w", err)
	}

	_, err = client.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "Reply with the single word OK."),
	}, llms.WithMaxTokens(4))
	if err != nil {
		return fmt.Errorf("model %s did not respond: %w", model, err)
	}

	return nil
}
