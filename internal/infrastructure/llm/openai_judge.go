package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"JournalDigest/internal/config"
	"JournalDigest/internal/ports"
)

const systemPrompt = `You screen newly published academic articles for a researcher.
Reply with exactly one word: YES if the article matches the research interest, NO otherwise.`

// answerTokens leaves room for the one-word answer plus whatever the provider
// counts around it.
const answerTokens = 16

// OpenAIJudge implements ports.SemanticJudge on any OpenAI-compatible Chat Completions API.
type OpenAIJudge struct {
	client openai.Client
	model  string
}

var _ ports.SemanticJudge = (*OpenAIJudge)(nil)

// NewOpenAIJudge builds a judge from configuration. Retries are disabled: a failed
// call is simply a negative verdict and the article is seen again only if undelivered.
func NewOpenAIJudge(cfg config.JudgeConfig) (*OpenAIJudge, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai judge: api key missing")
	}
	if cfg.Model == "" {
		return nil, errors.New("openai judge: model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAIJudge{client: openai.NewClient(opts...), model: cfg.Model}, nil
}

// Judge asks the model for a one-word relevance answer.
func (j *OpenAIJudge) Judge(ctx context.Context, req ports.JudgeRequest) (string, error) {
	resp, err := j.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(j.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(req)),
		},
		Temperature:         openai.Float(0),
		MaxCompletionTokens: openai.Int(answerTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func userPrompt(req ports.JudgeRequest) string {
	var sb strings.Builder
	sb.WriteString("Research interest:\n")
	sb.WriteString(strings.TrimSpace(req.Interest))
	sb.WriteString("\n\nTitle: ")
	sb.WriteString(req.Title)
	if summary := strings.TrimSpace(req.Summary); summary != "" {
		sb.WriteString("\nAbstract: ")
		sb.WriteString(summary)
	}
	return sb.String()
}

// String names the backend and model for logs.
func (j *OpenAIJudge) String() string {
	return fmt.Sprintf("openai(%s)", j.model)
}
