package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultModel       = openai.GPT4o
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.7
	DefaultTimeout     = 60 * time.Second

	DefaultSystemPrompt = `Você é um assistente virtual inteligente e prestativo.
Responda de forma clara, concisa e amigável.
Seja útil e profissional em todas as interações.`

	completionsSuffix = "/chat/completions"
)

var ErrEmptyCompletion = errors.New("completion returned no content")

// Config configures the OpenAI reply generator
type Config struct {
	ApiKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  float32
	SystemPrompt string
	Timeout      time.Duration
}

// OpenAIGenerator produces replies with the Chat Completions API
type OpenAIGenerator struct {
	client       *openai.Client
	model        string
	maxTokens    int
	temperature  float32
	systemPrompt string
	logger       *slog.Logger
}

// NewOpenAIGenerator creates a generator. Zero config values fall back to the
// package defaults.
func NewOpenAIGenerator(conf Config, logger *slog.Logger) *OpenAIGenerator {
	clientConf := openai.DefaultConfig(conf.ApiKey)
	if base := BaseURL(conf.BaseURL); base != "" {
		clientConf.BaseURL = base
	}

	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	clientConf.HTTPClient = &http.Client{Timeout: timeout}

	g := &OpenAIGenerator{
		client:       openai.NewClientWithConfig(clientConf),
		model:        conf.Model,
		maxTokens:    conf.MaxTokens,
		temperature:  conf.Temperature,
		systemPrompt: conf.SystemPrompt,
		logger:       logger,
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.maxTokens <= 0 {
		g.maxTokens = DefaultMaxTokens
	}
	if g.temperature == 0 {
		g.temperature = DefaultTemperature
	}
	if g.systemPrompt == "" {
		g.systemPrompt = DefaultSystemPrompt
	}
	return g
}

// BaseURL accepts either an API base URL or a full chat completions URL and
// returns the base URL the client expects
func BaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	return strings.TrimSuffix(base, completionsSuffix)
}

// UserPrompt prefixes the message with the sender name when known
func UserPrompt(text string, senderName *string) string {
	if senderName == nil || *senderName == "" {
		return text
	}
	return fmt.Sprintf("%s disse: %s", *senderName, text)
}

// Generate returns the trimmed completion for text
func (g *OpenAIGenerator) Generate(ctx context.Context, text string, senderName *string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: g.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: UserPrompt(text, senderName)},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	g.logger.Debug("requesting completion", slog.String("model", g.model))

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai api error (status %d): %w", apiErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("openai request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}

	g.logger.Debug("completion received",
		slog.Int("totalTokens", resp.Usage.TotalTokens),
		slog.String("finishReason", string(resp.Choices[0].FinishReason)))

	return content, nil
}
