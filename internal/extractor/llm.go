package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

var (
	// ErrLLMFailed indicates the model call failed or returned nothing.
	ErrLLMFailed = errors.New("LLM request failed")
	// ErrInvalidConfig indicates missing or invalid LLM configuration.
	ErrInvalidConfig = errors.New("invalid LLM configuration")
)

// LLM generates a completion for a system message and user prompt.
// maxTokens caps the response length for this call; zero falls back
// to the configured default.
type LLM interface {
	Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

// LLMConfig holds the model parameters shared by all pipeline calls.
type LLMConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// OpenAILLM implements LLM using OpenAI's chat completions API.
type OpenAILLM struct {
	client openai.Client
	config LLMConfig
}

// NewOpenAILLM creates an OpenAI-backed LLM. The API key falls back to
// the OPENAI_API_KEY environment variable.
func NewOpenAILLM(config LLMConfig) (*OpenAILLM, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing API key (set OPENAI_API_KEY or provide in config)", ErrInvalidConfig)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAILLM{
		client: client,
		config: config,
	}, nil
}

// Generate sends the system message and prompt to OpenAI and returns
// the generated text.
func (o *OpenAILLM) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrInvalidConfig)
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	}
	if o.config.Temperature > 0 {
		params.Temperature = openai.Float(o.config.Temperature)
	}
	if maxTokens == 0 {
		maxTokens = o.config.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no response generated", ErrLLMFailed)
	}
	return completion.Choices[0].Message.Content, nil
}
