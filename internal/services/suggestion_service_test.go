package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prefeitura-rio/app-social/internal/models"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// newSuggestionBackend runs a fake chat-completion endpoint and returns a
// service pointed at it
func newSuggestionBackend(t *testing.T, handler http.HandlerFunc) (*SuggestionService, *chatRequest) {
	t.Helper()
	captured := &chatRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(captured)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	svc := NewSuggestionService(SuggestionConfig{
		APIKey:  "test-key",
		Model:   "gpt-3.5-turbo",
		BaseURL: srv.URL + "/v1",
	}, zap.NewNop())
	return svc, captured
}

func chatSuccess(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}
}

func chatError(status int, code, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
				"type":    "invalid_request_error",
				"code":    code,
			},
		})
	}
}

func TestSuggestionNotConfigured(t *testing.T) {
	svc := NewSuggestionService(SuggestionConfig{}, zap.NewNop())
	assert.False(t, svc.Enabled())

	_, err := svc.Generate(context.Background(), models.FieldFinancialSituation, "")
	assert.ErrorIs(t, err, models.ErrSuggestionNotConfigured)
}

func TestSuggestionSuccessTrimsText(t *testing.T) {
	svc, captured := newSuggestionBackend(t, chatSuccess("  I am currently facing financial hardship.  \n"))

	text, err := svc.Generate(context.Background(), models.FieldFinancialSituation, "my own words")
	require.NoError(t, err)
	assert.Equal(t, "I am currently facing financial hardship.", text)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, systemPrompts[models.FieldFinancialSituation], captured.Messages[0].Content)
	assert.Equal(t, "my own words", captured.Messages[1].Content)
}

func TestSuggestionDefaultPrompt(t *testing.T) {
	svc, captured := newSuggestionBackend(t, chatSuccess("Some suggestion."))

	_, err := svc.Generate(context.Background(), models.FieldReasonForApplying, "   ")
	require.NoError(t, err)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, defaultSuggestionPrompt, captured.Messages[1].Content)
	assert.Equal(t, systemPrompts[models.FieldReasonForApplying], captured.Messages[0].Content)
}

func TestSuggestionEmptyResponse(t *testing.T) {
	t.Run("no choices", func(t *testing.T) {
		svc, _ := newSuggestionBackend(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
		})
		_, err := svc.Generate(context.Background(), models.FieldFinancialSituation, "")
		assert.ErrorIs(t, err, models.ErrSuggestionEmpty)
	})

	t.Run("whitespace-only content", func(t *testing.T) {
		svc, _ := newSuggestionBackend(t, chatSuccess("   \n\t  "))
		_, err := svc.Generate(context.Background(), models.FieldFinancialSituation, "")
		assert.ErrorIs(t, err, models.ErrSuggestionEmpty)
	})
}

func TestSuggestionQuotaErrors(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		svc, _ := newSuggestionBackend(t, chatError(http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit reached"))
		_, err := svc.Generate(context.Background(), models.FieldFinancialSituation, "")
		assert.ErrorIs(t, err, models.ErrSuggestionQuota)
	})

	t.Run("insufficient quota", func(t *testing.T) {
		svc, _ := newSuggestionBackend(t, chatError(http.StatusForbidden, "insufficient_quota", "You exceeded your current quota"))
		_, err := svc.Generate(context.Background(), models.FieldFinancialSituation, "")
		assert.ErrorIs(t, err, models.ErrSuggestionQuota)
	})
}

func TestSuggestionAuthError(t *testing.T) {
	svc, _ := newSuggestionBackend(t, chatError(http.StatusUnauthorized, "invalid_api_key", "Incorrect API key provided"))
	_, err := svc.Generate(context.Background(), models.FieldEmploymentCircumstances, "")
	assert.ErrorIs(t, err, models.ErrSuggestionAuth)
}

func TestSuggestionGenericFailure(t *testing.T) {
	svc, _ := newSuggestionBackend(t, chatError(http.StatusInternalServerError, "server_error", "The server had an error"))
	_, err := svc.Generate(context.Background(), models.FieldFinancialSituation, "")
	assert.ErrorIs(t, err, models.ErrSuggestionFailed)
	assert.Contains(t, err.Error(), "The server had an error")
}

func TestSuggestionUnsupportedField(t *testing.T) {
	svc, _ := newSuggestionBackend(t, chatSuccess("unused"))
	_, err := svc.Generate(context.Background(), "name", "")
	assert.ErrorIs(t, err, models.ErrSuggestionFailed)
}
