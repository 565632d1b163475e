package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
)

const classifierPrompt = `You route user requests about web pages to exactly one tool.
Tools: scanPages, scanAllPendingPages, extractDataFromPage, performSeoAnalysis,
analyzeImageFromUrl, fetchSitemap, checkAccessibility, analyzePerformance,
summarizePage, detectTechStack.
Reply with JSON only: {"category": "...", "tool": "...", "parameters": {...}}.
If no tool applies reply with {"category": "", "tool": "", "parameters": {}}.`

// OpenAIConfig configures the LLM-backed classifier.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// OpenAIClassifier asks a chat model to pick the tool. It honors the same
// contract as RuleClassifier and falls back to it when the model response is
// unusable, so a flaky upstream never blocks the conversation.
type OpenAIClassifier struct {
	client   *openai.Client
	model    string
	fallback Classifier
	logger   logging.Logger
}

func NewOpenAIClassifier(cfg OpenAIConfig, fallback Classifier, logger logging.Logger) (*OpenAIClassifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("intent: openai api key is empty")
	}
	mdl := cfg.Model
	if mdl == "" {
		mdl = openai.GPT4oMini
	}
	return &OpenAIClassifier{
		client:   openai.NewClient(cfg.APIKey),
		model:    mdl,
		fallback: fallback,
		logger:   logger.With(logging.Field{Key: "component", Value: "intent-openai"}),
	}, nil
}

func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (*Classification, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifierPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		c.logger.Warn("model classification failed, using rule fallback",
			logging.Field{Key: "error", Value: err.Error()})
		return c.classifyFallback(ctx, text)
	}

	if len(resp.Choices) == 0 {
		return c.classifyFallback(ctx, text)
	}

	var parsed struct {
		Category   string         `json:"category"`
		Tool       string         `json:"tool"`
		Parameters map[string]any `json:"parameters"`
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.Trim(content, "` \n")
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		c.logger.Warn("unparseable model reply, using rule fallback",
			logging.Field{Key: "error", Value: err.Error()})
		return c.classifyFallback(ctx, text)
	}

	if parsed.Tool == "" {
		return nil, nil
	}
	return &Classification{
		Category: parsed.Category,
		Request:  model.ToolRequest{Name: parsed.Tool, Parameters: parsed.Parameters},
	}, nil
}

func (c *OpenAIClassifier) classifyFallback(ctx context.Context, text string) (*Classification, error) {
	if c.fallback == nil {
		return nil, nil
	}
	return c.fallback.Classify(ctx, text)
}
