package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/callvia/callvia/pkg/call"
	"github.com/callvia/callvia/pkg/utils"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const (
	// DefaultModel is used when OPENAI_MODEL is not configured
	DefaultModel = "gpt-4o-mini"

	// DefaultRequestTimeout bounds a single completion call
	DefaultRequestTimeout = 30 * time.Second
)

// OpenAIClient implements Client over the OpenAI chat completions API
type OpenAIClient struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClient creates a client from configuration. OPENAI_API_KEY is
// required; OPENAI_MODEL and OPENAI_BASE_URL are optional.
func NewOpenAIClient(cfg *utils.Config) (*OpenAIClient, error) {
	apiKey := cfg.Get("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set in config or environment")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := cfg.Get("OPENAI_BASE_URL"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	timeout := DefaultRequestTimeout
	if seconds := cfg.GetInt("OPENAI_TIMEOUT_SECONDS"); seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		model:   cfg.GetWithDefault("OPENAI_MODEL", DefaultModel),
		timeout: timeout,
	}, nil
}

// Complete sends the framing, window, and input as a chat completion request
func (c *OpenAIClient) Complete(ctx context.Context, framing string, window []call.Turn, input string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(window)+2)
	messages = append(messages, openai.SystemMessage(framing))

	for _, turn := range window {
		switch turn.Speaker {
		case call.SpeakerCaller:
			messages = append(messages, openai.UserMessage(turn.Text))
		case call.SpeakerSystem:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		}
	}

	messages = append(messages, openai.UserMessage(input))

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}
