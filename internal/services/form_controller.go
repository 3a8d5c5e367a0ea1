package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/prefeitura-rio/app-social/internal/models"
	"github.com/prefeitura-rio/app-social/internal/utils"
)

// FormState is the explicit state object owned by the controller. Every
// operation returns a snapshot of it; there is no ambient global state.
type FormState struct {
	Draft     models.ApplicationDraft `json:"draft"`
	Step      models.FormStep         `json:"current_step"`
	Errors    models.ValidationErrors `json:"errors"`
	Submitted bool                    `json:"submitted"`
}

// FormController drives the three-step application form: it merges field
// edits into the draft, gates navigation and submission on the step
// validators, mirrors every change into the draft store, and talks to
// the application repository for explicit saves and the final submit.
type FormController struct {
	mu         sync.Mutex
	store      *DraftStore
	repo       ApplicationRepository
	messages   utils.Messages
	logger     *zap.Logger
	state      FormState
	saving     bool
	submitting bool
}

// NewFormController creates a controller seeded from the draft store. A
// previously saved draft restores its step, clamped to the valid range.
func NewFormController(ctx context.Context, store *DraftStore, repo ApplicationRepository, messages utils.Messages, logger *zap.Logger) *FormController {
	c := &FormController{
		store:    store,
		repo:     repo,
		messages: messages,
		logger:   logger,
		state: FormState{
			Step:   models.StepPersonal,
			Errors: models.ValidationErrors{},
		},
	}

	if draft, ok := store.Load(ctx); ok {
		c.state.Draft = *draft
		if draft.CurrentStep != 0 {
			c.state.Step = draft.CurrentStep.Clamp()
		}
		logger.Info("restored draft from slot",
			zap.String("slot", store.Slot()),
			zap.Int("step", int(c.state.Step)))
	}

	return c
}

// State returns a snapshot of the current form state
func (c *FormController) State() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Edit merges one field value into the draft, clears that field's
// validation error, and persists the draft to the slot. Valid on any
// editing step; the step does not change.
func (c *FormController) Edit(ctx context.Context, field string, value interface{}) (FormState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Submitted {
		return c.snapshot(), models.ErrAlreadySubmitted
	}

	if err := c.state.Draft.ApplyField(field, value); err != nil {
		return c.snapshot(), err
	}

	delete(c.state.Errors, field)
	c.persistLocked(ctx)
	return c.snapshot(), nil
}

// Next validates the current step and advances on success. On failure
// the step stays put and the returned state carries the error mapping.
func (c *FormController) Next(ctx context.Context) (FormState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Submitted {
		return c.snapshot(), models.ErrAlreadySubmitted
	}
	if c.state.Step >= models.StepSituation {
		return c.snapshot(), nil
	}

	errs := utils.ValidateStep(c.state.Step, &c.state.Draft, c.messages)
	c.state.Errors = errs
	if len(errs) > 0 {
		return c.snapshot(), nil
	}

	c.state.Step++
	c.persistLocked(ctx)
	return c.snapshot(), nil
}

// Previous moves back one step without validation
func (c *FormController) Previous(ctx context.Context) (FormState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Submitted {
		return c.snapshot(), models.ErrAlreadySubmitted
	}
	if c.state.Step <= models.StepPersonal {
		return c.snapshot(), nil
	}

	c.state.Step--
	c.persistLocked(ctx)
	return c.snapshot(), nil
}

// SaveProgress pushes the draft to the remote repository and records the
// returned id. A failure is non-fatal: the state is unchanged and the
// draft remains locally persisted.
func (c *FormController) SaveProgress(ctx context.Context) (FormState, error) {
	c.mu.Lock()
	if c.state.Submitted {
		defer c.mu.Unlock()
		return c.snapshot(), models.ErrAlreadySubmitted
	}
	if c.saving {
		defer c.mu.Unlock()
		return c.snapshot(), models.ErrSaveInProgress
	}
	c.saving = true
	draft := c.state.Draft
	draft.CurrentStep = c.state.Step
	c.mu.Unlock()

	// Remote call happens outside the lock so edits stay possible while
	// a save is pending.
	id, err := c.repo.Upsert(ctx, &draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saving = false

	if err != nil {
		c.logger.Warn("save progress failed", zap.Error(err))
		return c.snapshot(), err
	}

	c.state.Draft.ID = id
	c.persistLocked(ctx)
	return c.snapshot(), nil
}

// Submit validates the final step, persists the record (creating it
// first when it has no id), and marks it submitted. Only a fully
// successful sequence clears the draft slot and transitions the state.
func (c *FormController) Submit(ctx context.Context) (FormState, error) {
	c.mu.Lock()
	if c.state.Submitted {
		defer c.mu.Unlock()
		return c.snapshot(), models.ErrAlreadySubmitted
	}
	if c.state.Step != models.StepSituation {
		defer c.mu.Unlock()
		return c.snapshot(), models.ErrNotOnFinalStep
	}
	if c.submitting {
		defer c.mu.Unlock()
		return c.snapshot(), models.ErrSubmitInProgress
	}

	errs := utils.ValidateStep3(&c.state.Draft, c.messages)
	c.state.Errors = errs
	if len(errs) > 0 {
		defer c.mu.Unlock()
		return c.snapshot(), nil
	}

	c.submitting = true
	draft := c.state.Draft
	draft.CurrentStep = c.state.Step
	c.mu.Unlock()

	id := draft.ID
	var err error
	if id == "" {
		id, err = c.repo.Upsert(ctx, &draft)
	}
	if err == nil {
		draft.ID = id
		err = c.repo.Submit(ctx, id, &draft)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	if err != nil {
		// No partial transition: the draft and slot survive for a retry.
		c.logger.Warn("submit failed", zap.Error(err))
		c.state.Draft.ID = id
		return c.snapshot(), err
	}

	c.state.Draft.ID = id
	c.state.Draft.Status = models.StatusSubmitted
	c.state.Submitted = true
	c.store.Clear(ctx)
	c.logger.Info("application submitted", zap.String("application_id", id))
	return c.snapshot(), nil
}

// AcknowledgeSuccess resets the controller to a fresh empty session
// after a successful submit
func (c *FormController) AcknowledgeSuccess() (FormState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Submitted {
		return c.snapshot(), models.ErrNotSubmitted
	}

	c.state = FormState{
		Step:   models.StepPersonal,
		Errors: models.ValidationErrors{},
	}
	return c.snapshot(), nil
}

// persistLocked mirrors the draft (including the current step) into the
// slot. Must be called with the mutex held; failures are swallowed by
// the store.
func (c *FormController) persistLocked(ctx context.Context) {
	c.state.Draft.CurrentStep = c.state.Step
	draft := c.state.Draft
	c.store.Save(ctx, &draft)
}

// snapshot copies the state so callers never share the live error map
func (c *FormController) snapshot() FormState {
	s := c.state
	errs := make(models.ValidationErrors, len(c.state.Errors))
	for k, v := range c.state.Errors {
		errs[k] = v
	}
	s.Errors = errs
	return s
}
