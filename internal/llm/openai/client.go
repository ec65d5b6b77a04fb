package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"study-backend/internal/llm"
	"study-backend/internal/shared/telemetry"
)

const defaultTimeout = 120 * time.Second

// Config holds the provider settings for Transport.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Transport implements llm.Transport using OpenAI-compatible Chat Completions.
type Transport struct {
	client *goopenai.Client
	model  string
}

// NewTransport constructs a Transport.
func NewTransport(cfg Config) (*Transport, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	clientCfg.HTTPClient = httpClient

	return &Transport{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Send issues one chat completion. A request the provider rejects because of the sampling
// temperature is re-sent once with the provider default.
func (t *Transport) Send(ctx context.Context, req llm.Request) (string, error) {
	body := t.buildRequest(req)
	if omitsTemperature(t.model) {
		body.Temperature = 0
	}

	resp, err := t.client.CreateChatCompletion(ctx, body)
	if err != nil && body.Temperature != 0 && isTemperatureUnsupported(err) {
		telemetry.Warn("llm.temperature_unsupported", map[string]any{"model": t.model})
		body.Temperature = 0
		resp, err = t.client.CreateChatCompletion(ctx, body)
	}
	if err != nil {
		return "", toProviderError(err)
	}

	logUsage(t.model, req, resp.Usage)
	if len(resp.Choices) == 0 {
		return "", &llm.ProviderError{Message: "response missing choices", Type: "empty_response"}
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", &llm.ProviderError{Message: "response empty content", Type: "empty_response"}
	}
	return content, nil
}

func (t *Transport) buildRequest(req llm.Request) goopenai.ChatCompletionRequest {
	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	if req.IsVision() {
		detail := goopenai.ImageURLDetail(req.ImageDetail)
		if detail == "" {
			detail = goopenai.ImageURLDetailAuto
		}
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role: goopenai.ChatMessageRoleUser,
			MultiContent: []goopenai.ChatMessagePart{
				{Type: goopenai.ChatMessagePartTypeText, Text: req.User},
				{Type: goopenai.ChatMessagePartTypeImageURL, ImageURL: &goopenai.ChatMessageImageURL{
					URL:    req.ImageURL,
					Detail: detail,
				}},
			},
		})
	} else {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleUser,
			Content: req.User,
		})
	}
	return goopenai.ChatCompletionRequest{
		Model:       t.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
}

func toProviderError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &llm.ProviderError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Type:       apiErr.Type,
			Err:        err,
		}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		msg := ""
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		if msg == "" {
			msg = http.StatusText(reqErr.HTTPStatusCode)
		}
		return &llm.ProviderError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    msg,
			Err:        err,
		}
	}
	return &llm.ProviderError{Err: err}
}

func isTemperatureUnsupported(err error) bool {
	var apiErr *goopenai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "temperature") && (strings.Contains(msg, "unsupported") || strings.Contains(msg, "does not support"))
}

// omitsTemperature reports models that only accept the default sampling temperature.
func omitsTemperature(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	return strings.HasPrefix(m, "gpt-5") || strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3")
}

func logUsage(model string, req llm.Request, usage goopenai.Usage) {
	telemetry.Info("llm.response", map[string]any{
		"model":             model,
		"vision":            req.IsVision(),
		"max_tokens":        req.MaxTokens,
		"prompt_tokens":     usage.PromptTokens,
		"completion_tokens": usage.CompletionTokens,
		"total_tokens":      usage.TotalTokens,
	})
}

var _ llm.Transport = (*Transport)(nil)
