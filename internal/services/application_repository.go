package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/prefeitura-rio/app-social/internal/models"
	"github.com/prefeitura-rio/app-social/internal/observability"
	"github.com/prefeitura-rio/app-social/internal/utils"
)

// ApplicationRepository abstracts the remote persistence backend for
// application records
type ApplicationRepository interface {
	// Upsert creates the record when the draft has no id, updates it
	// otherwise, and returns the record id
	Upsert(ctx context.Context, draft *models.ApplicationDraft) (string, error)
	// Submit marks the record as submitted and stamps submitted_at
	Submit(ctx context.Context, id string, draft *models.ApplicationDraft) error
	// Fetch is a best-effort lookup; absence and backend failures both
	// report (nil, nil)
	Fetch(ctx context.Context, id string) (*models.ApplicationDraft, error)
}

// MongoApplicationRepository stores applications in a MongoDB collection
type MongoApplicationRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewMongoApplicationRepository creates a repository over the given collection
func NewMongoApplicationRepository(collection *mongo.Collection, logger *zap.Logger) *MongoApplicationRepository {
	return &MongoApplicationRepository{
		collection: collection,
		logger:     logger,
	}
}

// Upsert writes the full draft to the applications collection. A draft
// without an id gets a fresh one; repeated saves with the returned id
// update the same record.
func (r *MongoApplicationRepository) Upsert(ctx context.Context, draft *models.ApplicationDraft) (string, error) {
	id, err := r.resolveID(draft.ID)
	if err != nil {
		observability.ApplicationUpserts.WithLabelValues("error").Inc()
		return "", err
	}

	now := time.Now().UTC()
	doc := r.persistedFields(draft)
	doc["updated_at"] = now

	update := bson.M{
		"$set": doc,
		"$setOnInsert": bson.M{
			"created_at": now,
			"status":     models.StatusDraft,
		},
	}

	_, err = r.collection.UpdateByID(ctx, id, update, options.Update().SetUpsert(true))
	if err != nil {
		r.logger.Error("failed to upsert application",
			zap.String("application_id", id.Hex()),
			zap.Error(err))
		observability.ApplicationUpserts.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	observability.ApplicationUpserts.WithLabelValues("success").Inc()
	return id.Hex(), nil
}

// Submit updates the record at id, setting status to submitted and
// stamping submitted_at alongside the usual updated_at.
func (r *MongoApplicationRepository) Submit(ctx context.Context, id string, draft *models.ApplicationDraft) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		observability.ApplicationSubmissions.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: invalid application id %q", models.ErrPersistence, id)
	}

	now := time.Now().UTC()
	doc := r.persistedFields(draft)
	doc["status"] = models.StatusSubmitted
	doc["submitted_at"] = now
	doc["updated_at"] = now

	result, err := r.collection.UpdateByID(ctx, oid, bson.M{"$set": doc})
	if err != nil {
		r.logger.Error("failed to submit application",
			zap.String("application_id", id),
			zap.Error(err))
		observability.ApplicationSubmissions.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	if result.MatchedCount == 0 {
		observability.ApplicationSubmissions.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %s", models.ErrApplicationNotFound, id)
	}

	observability.ApplicationSubmissions.WithLabelValues("success").Inc()
	return nil
}

// Fetch looks up an application by id. Both a missing record and a
// backend failure yield (nil, nil): this path is best-effort in the UI.
func (r *MongoApplicationRepository) Fetch(ctx context.Context, id string) (*models.ApplicationDraft, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var raw bson.M
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&raw)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			r.logger.Warn("failed to fetch application, treating as absent",
				zap.String("application_id", id),
				zap.Error(err))
		}
		return nil, nil
	}

	draft := decodeApplication(raw)
	draft.ID = id
	return draft, nil
}

func (r *MongoApplicationRepository) resolveID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NewObjectID(), nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid application id %q", models.ErrPersistence, id)
	}
	return oid, nil
}

// persistedFields builds the $set document for the user-entered fields.
// Metadata stamps (id, status, timestamps) are managed by the repository
// itself, never copied from the draft.
func (r *MongoApplicationRepository) persistedFields(draft *models.ApplicationDraft) bson.M {
	doc := bson.M{
		"name":                     utils.SanitizeString(draft.Name),
		"national_id":              utils.SanitizeString(draft.NationalID),
		"date_of_birth":            draft.DateOfBirth,
		"gender":                   draft.Gender,
		"address":                  utils.SanitizeString(draft.Address),
		"city":                     utils.SanitizeString(draft.City),
		"state":                    utils.SanitizeString(draft.State),
		"country":                  utils.SanitizeString(draft.Country),
		"phone":                    utils.NormalizePhone(draft.Phone, ""),
		"email":                    utils.SanitizeString(draft.Email),
		"marital_status":           draft.MaritalStatus,
		"employment_status":        draft.EmploymentStatus,
		"housing_status":           draft.HousingStatus,
		"financial_situation":      utils.SanitizeString(draft.FinancialSituation),
		"employment_circumstances": utils.SanitizeString(draft.EmploymentCircumstances),
		"reason_for_applying":      utils.SanitizeString(draft.ReasonForApplying),
		"current_step":             draft.CurrentStep,
	}
	if draft.Dependents != nil {
		doc["dependents"] = *draft.Dependents
	}
	if draft.MonthlyIncome != nil {
		doc["monthly_income"] = *draft.MonthlyIncome
	}
	return doc
}

// decodeApplication converts a raw BSON document to a draft with type
// handling for numerics and timestamps
func decodeApplication(raw bson.M) *models.ApplicationDraft {
	draft := &models.ApplicationDraft{}

	getString := func(key string) string {
		if v, ok := raw[key].(string); ok {
			return v
		}
		return ""
	}

	draft.Name = getString("name")
	draft.NationalID = getString("national_id")
	draft.DateOfBirth = getString("date_of_birth")
	draft.Gender = getString("gender")
	draft.Address = getString("address")
	draft.City = getString("city")
	draft.State = getString("state")
	draft.Country = getString("country")
	draft.Phone = getString("phone")
	draft.Email = getString("email")
	draft.MaritalStatus = getString("marital_status")
	draft.EmploymentStatus = getString("employment_status")
	draft.HousingStatus = getString("housing_status")
	draft.FinancialSituation = getString("financial_situation")
	draft.EmploymentCircumstances = getString("employment_circumstances")
	draft.ReasonForApplying = getString("reason_for_applying")
	draft.Status = getString("status")

	if n, ok := asInt(raw["dependents"]); ok {
		draft.Dependents = &n
	}
	if f, ok := asFloat(raw["monthly_income"]); ok {
		draft.MonthlyIncome = &f
	}
	if n, ok := asInt(raw["current_step"]); ok {
		draft.CurrentStep = models.FormStep(n).Clamp()
	}

	draft.CreatedAt = asTime(raw["created_at"])
	draft.UpdatedAt = asTime(raw["updated_at"])
	draft.SubmittedAt = asTime(raw["submitted_at"])

	return draft
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asTime(v interface{}) *time.Time {
	switch t := v.(type) {
	case primitive.DateTime:
		parsed := t.Time()
		return &parsed
	case time.Time:
		return &t
	}
	return nil
}
