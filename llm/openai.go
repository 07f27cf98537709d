package llm

import (
	"context"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/phildougherty/llmsh/errors"
)

// OpenAIClient is a client for the OpenAI Chat Completion API. With a custom
// base URL it also covers OpenAI-compatible local servers such as Ollama,
// which need no API key.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAIClient. The API key comes from the
// OPENAI_API_KEY environment variable; baseURL overrides the endpoint and
// falls back to OPENAI_BASE_URL when empty.
func NewOpenAIClient(modelName, baseURL string) (*OpenAIClient, error) {
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" && baseURL == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	var options []option.RequestOption
	if apiKey != "" {
		options = append(options, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	// The v2 SDK uses functional options for configuration.
	c := openai.NewClient(options...)
	return &OpenAIClient{client: &c, model: modelName}, nil
}

func (o *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	system, user := promptFor(req)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", errors.Wrapf(err, "failed to send message to OpenAI")
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
