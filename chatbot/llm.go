package chatbot

import (
    "context"
    "fmt"
    "strings"
    "time"

    "github.com/sashabaranov/go-openai"
)

// Generator is the narrow adapter over the external text-generation service.
// Both call sites (classification and composition) go through it; nothing
// else in the pipeline talks to the model directly.
type Generator interface {
    Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds the text-generation settings. It is built by the application
// entry point and injected into New; there is no package-level client.
type Config struct {
    APIKey  string
    Model   string
    BaseURL string // custom endpoint, empty for the default
    Timeout int    // seconds per call, no retry
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
    return Config{
        Model:   openai.GPT4oMini,
        Timeout: 30,
    }
}

// OpenAIGenerator implements Generator over the chat completions API
type OpenAIGenerator struct {
    client *openai.Client
    config Config
}

// NewOpenAIGenerator creates the production generator
func NewOpenAIGenerator(config Config) (*OpenAIGenerator, error) {
    if config.APIKey == "" {
        return nil, fmt.Errorf("OpenAI API key is required")
    }

    clientConfig := openai.DefaultConfig(config.APIKey)
    if config.BaseURL != "" {
        clientConfig.BaseURL = config.BaseURL
    }

    return &OpenAIGenerator{
        client: openai.NewClientWithConfig(clientConfig),
        config: config,
    }, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
    model := g.config.Model
    if model == "" {
        model = openai.GPT4oMini
    }

    timeout := time.Duration(g.config.Timeout) * time.Second
    if timeout == 0 {
        timeout = 30 * time.Second
    }
    ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
    defer cancel()

    resp, err := g.client.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
        Model: model,
        Messages: []openai.ChatCompletionMessage{
            {
                Role:    openai.ChatMessageRoleSystem,
                Content: systemPrompt,
            },
            {
                Role:    openai.ChatMessageRoleUser,
                Content: prompt,
            },
        },
        Temperature: 0.2,
    })
    if err != nil {
        return "", fmt.Errorf("OpenAI API error: %w", err)
    }

    if len(resp.Choices) == 0 {
        return "", fmt.Errorf("no response from OpenAI")
    }

    return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

const systemPrompt = `Eres un asistente experto en análisis de datos de seguridad del departamento de Santander, Colombia.
Tu rol es ayudar a los usuarios a entender los datos de criminalidad de la región.
Responde siempre en español, sé conciso y no inventes datos.`
