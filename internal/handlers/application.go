package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/prefeitura-rio/app-social/internal/models"
	"github.com/prefeitura-rio/app-social/internal/services"
)

// ApplicationHandler serves the multi-step application form API
type ApplicationHandler struct {
	sessions *services.SessionManager
	repo     services.ApplicationRepository
	logger   *zap.Logger
}

// NewApplicationHandler creates the application handler
func NewApplicationHandler(sessions *services.SessionManager, repo services.ApplicationRepository, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		sessions: sessions,
		repo:     repo,
		logger:   logger,
	}
}

// EditFieldRequest is the payload for a single field edit
type EditFieldRequest struct {
	Field string      `json:"field" binding:"required"`
	Value interface{} `json:"value"`
}

func (h *ApplicationHandler) controller(c *gin.Context) *services.FormController {
	sessionID := c.GetHeader("X-Session-ID")
	lang := "en"
	if strings.HasPrefix(c.GetHeader("Accept-Language"), "ar") {
		lang = "ar"
	}
	return h.sessions.Controller(c.Request.Context(), sessionID, lang)
}

// GetState godoc
// @Summary Get the current form state
// @Description Returns the draft, current step, validation errors and submission flag for this session.
// @Tags application
// @Produce json
// @Success 200 {object} services.FormState
// @Router /application [get]
func (h *ApplicationHandler) GetState(c *gin.Context) {
	_, span := otel.Tracer("").Start(c.Request.Context(), "GetState")
	defer span.End()

	c.JSON(http.StatusOK, h.controller(c).State())
}

// EditField godoc
// @Summary Edit one application field
// @Description Merges a single field value into the draft, clears that field's validation error and persists the draft slot.
// @Tags application
// @Accept json
// @Produce json
// @Param request body EditFieldRequest true "Field edit"
// @Success 200 {object} services.FormState
// @Failure 400 {object} ErrorResponse "Unknown field or invalid value"
// @Router /application/field [put]
func (h *ApplicationHandler) EditField(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "EditField")
	defer span.End()

	var req EditFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "field is required"})
		return
	}

	span.SetAttributes(attribute.String("field", req.Field))

	state, err := h.controller(c).Edit(ctx, req.Field, req.Value)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// NextStep godoc
// @Summary Advance to the next step
// @Description Validates the current step; advances on success, otherwise returns the state with per-field errors.
// @Tags application
// @Produce json
// @Success 200 {object} services.FormState
// @Failure 422 {object} services.FormState "Validation errors"
// @Router /application/next [post]
func (h *ApplicationHandler) NextStep(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "NextStep")
	defer span.End()

	state, err := h.controller(c).Next(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(state.Errors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

// PreviousStep godoc
// @Summary Go back one step
// @Tags application
// @Produce json
// @Success 200 {object} services.FormState
// @Router /application/previous [post]
func (h *ApplicationHandler) PreviousStep(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "PreviousStep")
	defer span.End()

	state, err := h.controller(c).Previous(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// SaveProgress godoc
// @Summary Save the draft to the backend
// @Description Upserts the application record and stores the returned id in the draft. Failure leaves the local draft untouched.
// @Tags application
// @Produce json
// @Success 200 {object} SaveResponse
// @Failure 500 {object} ErrorResponse "Save failed"
// @Router /application/save [post]
func (h *ApplicationHandler) SaveProgress(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "SaveProgress")
	defer span.End()

	state, err := h.controller(c).SaveProgress(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SaveResponse{ID: state.Draft.ID})
}

// Submit godoc
// @Summary Submit the application
// @Description Validates the final step, persists the record and marks it submitted. The draft slot is cleared only when the full sequence succeeds.
// @Tags application
// @Produce json
// @Success 200 {object} services.FormState
// @Failure 409 {object} ErrorResponse "Not on the final step or already submitted"
// @Failure 422 {object} services.FormState "Validation errors"
// @Failure 500 {object} ErrorResponse "Submit failed"
// @Router /application/submit [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "Submit")
	defer span.End()

	state, err := h.controller(c).Submit(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(state.Errors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Acknowledge godoc
// @Summary Acknowledge a successful submission
// @Description Resets the session to a fresh empty form on step 1.
// @Tags application
// @Produce json
// @Success 200 {object} services.FormState
// @Failure 409 {object} ErrorResponse "Nothing submitted yet"
// @Router /application/acknowledge [post]
func (h *ApplicationHandler) Acknowledge(c *gin.Context) {
	_, span := otel.Tracer("").Start(c.Request.Context(), "Acknowledge")
	defer span.End()

	state, err := h.controller(c).AcknowledgeSuccess()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetApplication godoc
// @Summary Fetch a stored application by id
// @Tags application
// @Produce json
// @Param id path string true "Application id"
// @Success 200 {object} models.ApplicationDraft
// @Failure 404 {object} ErrorResponse "Application not found"
// @Router /application/{id} [get]
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "GetApplication")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("application_id", id))

	draft, err := h.repo.Fetch(ctx, id)
	if err != nil || draft == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "application not found"})
		return
	}
	c.JSON(http.StatusOK, draft)
}

// respondError maps controller and repository errors to HTTP statuses
func (h *ApplicationHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrUnknownField), errors.Is(err, models.ErrInvalidFieldValue):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrAlreadySubmitted),
		errors.Is(err, models.ErrNotSubmitted),
		errors.Is(err, models.ErrNotOnFinalStep),
		errors.Is(err, models.ErrSaveInProgress),
		errors.Is(err, models.ErrSubmitInProgress):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("application operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
