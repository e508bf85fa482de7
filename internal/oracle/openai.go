package oracle

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig selects the models behind each oracle mode.
type OpenAIConfig struct {
	DeepModel string // defaults to gpt-4o
	FastModel string // defaults to gpt-4o-mini
	BaseURL   string // override for compatible endpoints
}

// OpenAIProvider implements Provider against the OpenAI chat completions
// API.
type OpenAIProvider struct {
	client *openai.Client
	cfg    OpenAIConfig
}

// NewOpenAI creates an OpenAI provider using the OPENAI_API_KEY env var.
func NewOpenAI(cfg OpenAIConfig) (*OpenAIProvider, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if cfg.DeepModel == "" {
		cfg.DeepModel = openai.GPT4o
	}
	if cfg.FastModel == "" {
		cfg.FastModel = openai.GPT4oMini
	}

	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}, nil
}

func (o *OpenAIProvider) Name() string { return "openai" }

func (o *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	model := o.cfg.DeepModel
	if req.Mode == ModeFast {
		model = o.cfg.FastModel
	}

	prompt := req.Prompt
	if req.SchemaHint != "" {
		prompt = prompt + "\n\n" + req.SchemaHint
	}

	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	if req.ResponseFormat == "json" {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("oracle %s: %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("oracle %s: no choices in response", model)
	}
	return resp.Choices[0].Message.Content, nil
}
