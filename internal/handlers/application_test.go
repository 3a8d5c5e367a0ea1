package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prefeitura-rio/app-social/internal/models"
	"github.com/prefeitura-rio/app-social/internal/redisclient"
	"github.com/prefeitura-rio/app-social/internal/services"
	"github.com/prefeitura-rio/app-social/internal/utils"
)

// fakeRepo implements services.ApplicationRepository in memory
type fakeRepo struct {
	upsertErr  error
	submitErr  error
	fetchDraft *models.ApplicationDraft
	submits    int
}

func (f *fakeRepo) Upsert(_ context.Context, draft *models.ApplicationDraft) (string, error) {
	if f.upsertErr != nil {
		return "", f.upsertErr
	}
	if draft.ID != "" {
		return draft.ID, nil
	}
	return "65f000000000000000000001", nil
}

func (f *fakeRepo) Submit(_ context.Context, _ string, _ *models.ApplicationDraft) error {
	f.submits++
	return f.submitErr
}

func (f *fakeRepo) Fetch(_ context.Context, _ string) (*models.ApplicationDraft, error) {
	return f.fetchDraft, nil
}

func newTestRouter(t *testing.T, repo services.ApplicationRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := services.NewSessionManager(redisclient.NewClient(client), repo, time.Hour, zap.NewNop())
	h := NewApplicationHandler(sessions, repo, zap.NewNop())

	router := gin.New()
	v1 := router.Group("/v1")
	{
		v1.GET("/application", h.GetState)
		v1.PUT("/application/field", h.EditField)
		v1.POST("/application/next", h.NextStep)
		v1.POST("/application/previous", h.PreviousStep)
		v1.POST("/application/save", h.SaveProgress)
		v1.POST("/application/submit", h.Submit)
		v1.POST("/application/acknowledge", h.Acknowledge)
		v1.GET("/application/:id", h.GetApplication)
	}
	return router
}

func doRequest(router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) services.FormState {
	t.Helper()
	var state services.FormState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	return state
}

func editField(t *testing.T, router *gin.Engine, session, field string, value interface{}) {
	t.Helper()
	w := doRequest(router, http.MethodPut, "/v1/application/field",
		EditFieldRequest{Field: field, Value: value},
		map[string]string{"X-Session-ID": session})
	require.Equal(t, http.StatusOK, w.Code, "edit %s: %s", field, w.Body.String())
}

func fillStep1Fields(t *testing.T, router *gin.Engine, session string) {
	t.Helper()
	fields := map[string]interface{}{
		"name":          "Maria Silva",
		"national_id":   "12345678901",
		"date_of_birth": "1990-01-01",
		"gender":        models.GenderFemale,
		"address":       "Avenida Rio Branco 156",
		"city":          "Rio de Janeiro",
		"state":         "RJ",
		"country":       "Brazil",
		"phone":         "+5521987654321",
		"email":         "maria@example.com",
	}
	for field, value := range fields {
		editField(t, router, session, field, value)
	}
}

func fillStep2Fields(t *testing.T, router *gin.Engine, session string) {
	t.Helper()
	fields := map[string]interface{}{
		"marital_status":    models.MaritalSingle,
		"dependents":        0,
		"employment_status": models.EmploymentUnemployed,
		"monthly_income":    0,
		"housing_status":    models.HousingRented,
	}
	for field, value := range fields {
		editField(t, router, session, field, value)
	}
}

func fillStep3Fields(t *testing.T, router *gin.Engine, session string) {
	t.Helper()
	fields := map[string]interface{}{
		"financial_situation":      "I cannot cover rent and groceries this month.",
		"employment_circumstances": "I was laid off three months ago.",
		"reason_for_applying":      "I need temporary support while I search for work.",
	}
	for field, value := range fields {
		editField(t, router, session, field, value)
	}
}

func TestGetStateStartsAtStepOne(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{})

	w := doRequest(router, http.MethodGet, "/v1/application", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	state := decodeState(t, w)
	assert.Equal(t, models.StepPersonal, state.Step)
	assert.False(t, state.Submitted)
}

func TestEditFieldValidation(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{})

	t.Run("missing field name", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/v1/application/field",
			map[string]interface{}{"value": "x"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/v1/application/field",
			EditFieldRequest{Field: "favorite_color", Value: "blue"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong value type", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/v1/application/field",
			EditFieldRequest{Field: "dependents", Value: "three"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("valid edit echoes state", func(t *testing.T) {
		w := doRequest(router, http.MethodPut, "/v1/application/field",
			EditFieldRequest{Field: "name", Value: "Maria Silva"}, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Maria Silva", decodeState(t, w).Draft.Name)
	})
}

func TestNextStepReturnsErrors(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{})

	w := doRequest(router, http.MethodPost, "/v1/application/next", nil, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	state := decodeState(t, w)
	assert.Equal(t, models.StepPersonal, state.Step)
	assert.Equal(t, utils.DefaultMessages().Required, state.Errors["name"])
}

func TestNextStepLocalizedErrors(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{})

	w := doRequest(router, http.MethodPost, "/v1/application/next", nil,
		map[string]string{"X-Session-ID": "arabic", "Accept-Language": "ar-EG"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, utils.MessagesFor("ar").Required, decodeState(t, w).Errors["name"])
}

func TestSessionsAreIsolated(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{})

	editField(t, router, "session-a", "name", "Maria Silva")

	w := doRequest(router, http.MethodGet, "/v1/application", nil,
		map[string]string{"X-Session-ID": "session-b"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeState(t, w).Draft.Name)
}

func TestSubmitBeforeFinalStepConflicts(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{})

	w := doRequest(router, http.MethodPost, "/v1/application/submit", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSaveProgressReturnsID(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{})
	fillStep1Fields(t, router, "saver")

	w := doRequest(router, http.MethodPost, "/v1/application/save", nil,
		map[string]string{"X-Session-ID": "saver"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp SaveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "65f000000000000000000001", resp.ID)
}

func TestSaveProgressFailure(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{upsertErr: models.ErrPersistence})

	w := doRequest(router, http.MethodPost, "/v1/application/save", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestFullSubmissionFlow(t *testing.T) {
	repo := &fakeRepo{}
	router := newTestRouter(t, repo)
	session := map[string]string{"X-Session-ID": "flow"}

	fillStep1Fields(t, router, "flow")
	w := doRequest(router, http.MethodPost, "/v1/application/next", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.StepFamily, decodeState(t, w).Step)

	fillStep2Fields(t, router, "flow")
	w = doRequest(router, http.MethodPost, "/v1/application/next", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.StepSituation, decodeState(t, w).Step)

	// submitting with empty descriptions is rejected with field errors
	w = doRequest(router, http.MethodPost, "/v1/application/submit", nil, session)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NotEmpty(t, decodeState(t, w).Errors["reason_for_applying"])

	fillStep3Fields(t, router, "flow")
	w = doRequest(router, http.MethodPost, "/v1/application/submit", nil, session)
	require.Equal(t, http.StatusOK, w.Code)

	state := decodeState(t, w)
	assert.True(t, state.Submitted)
	assert.Equal(t, models.StatusSubmitted, state.Draft.Status)
	assert.Equal(t, 1, repo.submits)

	// duplicate submit conflicts
	w = doRequest(router, http.MethodPost, "/v1/application/submit", nil, session)
	assert.Equal(t, http.StatusConflict, w.Code)

	// acknowledge resets the session
	w = doRequest(router, http.MethodPost, "/v1/application/acknowledge", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	reset := decodeState(t, w)
	assert.Equal(t, models.StepPersonal, reset.Step)
	assert.False(t, reset.Submitted)
	assert.Empty(t, reset.Draft.Name)
}

func TestAcknowledgeWithoutSubmit(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{})

	w := doRequest(router, http.MethodPost, "/v1/application/acknowledge", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPreviousStep(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{})
	session := map[string]string{"X-Session-ID": "back"}

	fillStep1Fields(t, router, "back")
	w := doRequest(router, http.MethodPost, "/v1/application/next", nil, session)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPost, "/v1/application/previous", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StepPersonal, decodeState(t, w).Step)
}

func TestGetApplication(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		router := newTestRouter(t, &fakeRepo{fetchDraft: &models.ApplicationDraft{
			ID:   "65f000000000000000000001",
			Name: "Maria Silva",
		}})
		w := doRequest(router, http.MethodGet, "/v1/application/65f000000000000000000001", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var draft models.ApplicationDraft
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &draft))
		assert.Equal(t, "Maria Silva", draft.Name)
	})

	t.Run("absent", func(t *testing.T) {
		router := newTestRouter(t, &fakeRepo{})
		w := doRequest(router, http.MethodGet, "/v1/application/does-not-exist", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
