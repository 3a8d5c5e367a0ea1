package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prefeitura-rio/app-social/internal/config"
	"github.com/prefeitura-rio/app-social/internal/models"
	"github.com/prefeitura-rio/app-social/internal/services"
	"github.com/prefeitura-rio/app-social/internal/utils"
)

func TestApplicationRepositoryLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	tc := SetupTestContainers(t)
	defer tc.Cleanup()

	ctx := context.Background()
	repo := services.NewMongoApplicationRepository(
		tc.MongoDB.Collection(config.AppConfig.ApplicationCollection),
		zap.NewNop(),
	)

	deps := 2
	income := 1500.50
	draft := &models.ApplicationDraft{
		Name:          "  Maria Silva  ",
		NationalID:    "12345678901",
		DateOfBirth:   "1990-01-01",
		Gender:        models.GenderFemale,
		Address:       "Avenida Rio Branco 156",
		City:          "Rio de Janeiro",
		State:         "RJ",
		Country:       "Brazil",
		Phone:         "(21) 98765-4321",
		Email:         "maria@example.com",
		MaritalStatus: models.MaritalSingle,
		Dependents:    &deps,
		MonthlyIncome: &income,
		HousingStatus: models.HousingRented,
		CurrentStep:   models.StepFamily,
	}

	t.Run("Upsert creates a record", func(t *testing.T) {
		id, err := repo.Upsert(ctx, draft)
		require.NoError(t, err)
		require.NotEmpty(t, id)
		draft.ID = id

		fetched, err := repo.Fetch(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, "Maria Silva", fetched.Name, "strings are sanitized on write")
		assert.Equal(t, "+5521987654321", fetched.Phone, "phone is normalized to E.164")
		assert.Equal(t, models.StatusDraft, fetched.Status)
		require.NotNil(t, fetched.Dependents)
		assert.Equal(t, 2, *fetched.Dependents)
		require.NotNil(t, fetched.MonthlyIncome)
		assert.Equal(t, 1500.50, *fetched.MonthlyIncome)
		assert.Equal(t, models.StepFamily, fetched.CurrentStep)
		assert.NotNil(t, fetched.CreatedAt)
		assert.Nil(t, fetched.SubmittedAt)
	})

	t.Run("Upsert with id updates in place", func(t *testing.T) {
		draft.City = "Niterói"
		id, err := repo.Upsert(ctx, draft)
		require.NoError(t, err)
		assert.Equal(t, draft.ID, id)

		fetched, err := repo.Fetch(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, "Niterói", fetched.City)
	})

	t.Run("Submit stamps status and submitted_at", func(t *testing.T) {
		draft.FinancialSituation = "I cannot cover basic expenses."
		draft.EmploymentCircumstances = "Laid off three months ago."
		draft.ReasonForApplying = "Temporary support while job hunting."

		require.NoError(t, repo.Submit(ctx, draft.ID, draft))

		fetched, err := repo.Fetch(ctx, draft.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, models.StatusSubmitted, fetched.Status)
		assert.NotNil(t, fetched.SubmittedAt)
	})

	t.Run("Submit unknown id reports not found", func(t *testing.T) {
		err := repo.Submit(ctx, "65f0000000000000000000ff", draft)
		assert.ErrorIs(t, err, models.ErrApplicationNotFound)
	})

	t.Run("Fetch bad id is absent, not an error", func(t *testing.T) {
		fetched, err := repo.Fetch(ctx, "not-a-hex-id")
		assert.NoError(t, err)
		assert.Nil(t, fetched)
	})
}

func TestFormWorkflowAgainstBackends(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	tc := SetupTestContainers(t)
	defer tc.Cleanup()

	ctx := context.Background()
	repo := services.NewMongoApplicationRepository(
		tc.MongoDB.Collection(config.AppConfig.ApplicationCollection),
		zap.NewNop(),
	)
	sessions := services.NewSessionManager(tc.Redis, repo, config.AppConfig.DraftTTL, zap.NewNop())

	c := sessions.Controller(ctx, "workflow", "en")

	step1 := map[string]interface{}{
		"name": "Maria Silva", "national_id": "12345678901",
		"date_of_birth": "1990-01-01", "gender": models.GenderFemale,
		"address": "Avenida Rio Branco 156", "city": "Rio de Janeiro",
		"state": "RJ", "country": "Brazil",
		"phone": "+5521987654321", "email": "maria@example.com",
	}
	for field, value := range step1 {
		_, err := c.Edit(ctx, field, value)
		require.NoError(t, err)
	}
	state, err := c.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, models.StepFamily, state.Step)

	step2 := map[string]interface{}{
		"marital_status": models.MaritalSingle, "dependents": float64(0),
		"employment_status": models.EmploymentUnemployed,
		"monthly_income":    float64(0), "housing_status": models.HousingRented,
	}
	for field, value := range step2 {
		_, err := c.Edit(ctx, field, value)
		require.NoError(t, err)
	}
	state, err = c.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, models.StepSituation, state.Step)

	step3 := map[string]interface{}{
		"financial_situation":      "I cannot cover rent this month.",
		"employment_circumstances": "I was laid off three months ago.",
		"reason_for_applying":      "I need support while searching for work.",
	}
	for field, value := range step3 {
		_, err := c.Edit(ctx, field, value)
		require.NoError(t, err)
	}

	// a released session restores from its Redis slot
	sessions.Release("workflow")
	restored := sessions.Controller(ctx, "workflow", "en")
	require.Equal(t, models.StepSituation, restored.State().Step)
	require.Equal(t, "Maria Silva", restored.State().Draft.Name)

	state, err = restored.Submit(ctx)
	require.NoError(t, err)
	assert.True(t, state.Submitted)
	require.NotEmpty(t, state.Draft.ID)

	fetched, err := repo.Fetch(ctx, state.Draft.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, models.StatusSubmitted, fetched.Status)
	assert.Equal(t, utils.NormalizePhone("+5521987654321", ""), fetched.Phone)
}
