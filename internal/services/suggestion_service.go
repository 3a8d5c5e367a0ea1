package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/prefeitura-rio/app-social/internal/models"
	"github.com/prefeitura-rio/app-social/internal/observability"
)

// defaultSuggestionPrompt is used when the caller supplies no text of
// their own to improve on
const defaultSuggestionPrompt = "Help me describe my situation for a government assistance application."

// systemPrompts holds the fixed instruction per suggestion field
var systemPrompts = map[models.SuggestionField]string{
	models.FieldFinancialSituation:      "You are helping someone describe their current financial situation for a government assistance application. Write a clear, respectful, and professional description in 2-3 sentences.",
	models.FieldEmploymentCircumstances: "You are helping someone describe their employment circumstances for a government assistance application. Write a clear, respectful, and professional description in 2-3 sentences.",
	models.FieldReasonForApplying:       "You are helping someone explain why they are applying for government financial assistance. Write a clear, respectful, and professional explanation in 2-3 sentences.",
}

// SuggestionService wraps the generative text backend for the three
// free-text situation fields. It performs no retries; regeneration is a
// caller action.
type SuggestionService struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// SuggestionConfig carries the backend settings for the suggestion service
type SuggestionConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewSuggestionService creates the suggestion service. A missing API key
// is not fatal here: the service is constructed disabled and every
// Generate call reports the configuration problem.
func NewSuggestionService(cfg SuggestionConfig, logger *zap.Logger) *SuggestionService {
	s := &SuggestionService{
		model:  cfg.Model,
		logger: logger,
	}
	if s.model == "" {
		s.model = openai.GPT3Dot5Turbo
	}

	if cfg.APIKey == "" {
		logger.Warn("suggestion backend disabled: no API key configured")
		return s
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	s.client = openai.NewClientWithConfig(clientConfig)
	return s
}

// Enabled reports whether a backend credential is configured
func (s *SuggestionService) Enabled() bool {
	return s.client != nil
}

// Generate requests suggestion text for one field. The returned text is
// trimmed and never empty; failures map to the sentinel errors in the
// models package.
func (s *SuggestionService) Generate(ctx context.Context, field models.SuggestionField, prompt string) (string, error) {
	if !field.IsValid() {
		return "", fmt.Errorf("%w: unsupported field %q", models.ErrSuggestionFailed, field)
	}

	if s.client == nil {
		observability.SuggestionRequests.WithLabelValues(string(field), "not_configured").Inc()
		return "", models.ErrSuggestionNotConfigured
	}

	if strings.TrimSpace(prompt) == "" {
		prompt = defaultSuggestionPrompt
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompts[field]},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   200,
		Temperature: 0.7,
	})
	if err != nil {
		classified := s.classifyError(err)
		s.logger.Warn("suggestion generation failed",
			zap.String("field", string(field)),
			zap.Error(err))
		observability.SuggestionRequests.WithLabelValues(string(field), outcomeLabel(classified)).Inc()
		return "", classified
	}

	text := ""
	if len(resp.Choices) > 0 {
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if text == "" {
		observability.SuggestionRequests.WithLabelValues(string(field), "empty").Inc()
		return "", models.ErrSuggestionEmpty
	}

	observability.SuggestionRequests.WithLabelValues(string(field), "success").Inc()
	return text, nil
}

// classifyError maps backend failures onto the suggestion error taxonomy
func (s *SuggestionService) classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || errorCode(apiErr) == "insufficient_quota" {
			return models.ErrSuggestionQuota
		}
		if apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return models.ErrSuggestionAuth
		}
		if apiErr.Message != "" {
			return fmt.Errorf("%w: %s", models.ErrSuggestionFailed, apiErr.Message)
		}
		return models.ErrSuggestionFailed
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return models.ErrSuggestionQuota
		case http.StatusUnauthorized:
			return models.ErrSuggestionAuth
		}
	}

	return fmt.Errorf("%w: %v", models.ErrSuggestionFailed, err)
}

func errorCode(apiErr *openai.APIError) string {
	if code, ok := apiErr.Code.(string); ok {
		return code
	}
	return ""
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, models.ErrSuggestionQuota):
		return "quota_exceeded"
	case errors.Is(err, models.ErrSuggestionAuth):
		return "auth_failed"
	case errors.Is(err, models.ErrSuggestionNotConfigured):
		return "not_configured"
	case errors.Is(err, models.ErrSuggestionEmpty):
		return "empty"
	default:
		return "error"
	}
}
