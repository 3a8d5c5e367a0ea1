package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/prefeitura-rio/app-social/internal/models"
	"github.com/prefeitura-rio/app-social/internal/services"
)

// SuggestionHandler serves AI text suggestions for the free-text fields
type SuggestionHandler struct {
	suggestions *services.SuggestionService
	logger      *zap.Logger
}

// NewSuggestionHandler creates the suggestion handler
func NewSuggestionHandler(suggestions *services.SuggestionService, logger *zap.Logger) *SuggestionHandler {
	return &SuggestionHandler{
		suggestions: suggestions,
		logger:      logger,
	}
}

// SuggestionRequest asks for generated text for one free-text field
type SuggestionRequest struct {
	FieldType models.SuggestionField `json:"field_type" binding:"required"`
	Prompt    string                 `json:"prompt"`
}

// Generate godoc
// @Summary Generate suggestion text for a free-text field
// @Description Produces a 2-3 sentence suggestion for one of the situation fields. The caller may edit the text before accepting it into the draft via the regular field edit.
// @Tags suggestions
// @Accept json
// @Produce json
// @Param request body SuggestionRequest true "Suggestion request"
// @Success 200 {object} SuggestionResponse
// @Failure 400 {object} ErrorResponse "Unsupported field type"
// @Failure 429 {object} ErrorResponse "Quota exceeded"
// @Failure 502 {object} ErrorResponse "Generation failed"
// @Failure 503 {object} ErrorResponse "Suggestion backend not configured"
// @Router /suggestions [post]
func (h *SuggestionHandler) Generate(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "GenerateSuggestion")
	defer span.End()

	var req SuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "field_type is required"})
		return
	}

	span.SetAttributes(attribute.String("field_type", string(req.FieldType)))

	if !req.FieldType.IsValid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unsupported field_type"})
		return
	}

	text, err := h.suggestions.Generate(ctx, req.FieldType, req.Prompt)
	if err != nil {
		h.respondError(c, req.FieldType, err)
		return
	}

	c.JSON(http.StatusOK, SuggestionResponse{Text: text})
}

func (h *SuggestionHandler) respondError(c *gin.Context, field models.SuggestionField, err error) {
	h.logger.Warn("suggestion request failed",
		zap.String("field_type", string(field)),
		zap.Error(err))

	switch {
	case errors.Is(err, models.ErrSuggestionNotConfigured):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrSuggestionQuota):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrSuggestionAuth),
		errors.Is(err, models.ErrSuggestionEmpty):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	}
}
