// internal/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cryptoreed-server/internal/common/config"
	httpclient "cryptoreed-server/internal/common/http"
	"cryptoreed-server/internal/common/logger"
	"cryptoreed-server/internal/models"
)

// Sentinel errors for the completion path.
var (
	ErrLLMRequestFailed = errors.New("LLM_REQUEST_FAILED")
	ErrLLMTimeout       = errors.New("LLM_TIMEOUT")
)

// Client talks to the OpenRouter chat-completion API. The credential is
// injected at construction and never read from the environment here.
type Client struct {
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	http        *httpclient.Client
	logger      logger.Logger
}

func NewClient(cfg config.OpenRouterConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		http:        httpclient.NewBearerClient(config.GetDuration(cfg.Timeout), cfg.APIKey),
		logger:      log,
	}
}

type completionRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	MaxTokens   int                  `json:"max_tokens"`
	Temperature float64              `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the conversation and returns the model's answer, trimmed
// and cut at a sentence boundary. An empty answer is not an error; the
// caller decides what an empty answer means.
func (c *Client) Complete(ctx context.Context, conv models.Conversation) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    conv,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLLMRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLLMRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrLLMTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrLLMRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrLLMRequestFailed, resp.StatusCode)
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrLLMRequestFailed, err)
	}
	if len(decoded.Choices) == 0 {
		return "", nil
	}

	answer := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if answer == "" {
		return "", nil
	}
	return TruncateSentence(answer), nil
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ListModels returns the upstream model identifiers. A response that does
// not match the expected shape yields an empty list, not an error.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMRequestFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrLLMRequestFailed, resp.StatusCode)
	}

	var decoded modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.WithError(err).Warn("model list not parseable", nil)
		return []string{}, nil
	}

	ids := make([]string, 0, len(decoded.Data))
	for _, m := range decoded.Data {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

// TruncateSentence drops a trailing partial sentence. When the text does
// not end with a period, everything after the last period is cut; text
// with no period at all is returned untouched.
func TruncateSentence(text string) string {
	if text == "" || strings.HasSuffix(text, ".") {
		return text
	}
	idx := strings.LastIndex(text, ".")
	if idx < 0 {
		return text
	}
	return text[:idx+1]
}
