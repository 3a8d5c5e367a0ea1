package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// FormStep identifies one of the three sequential form sections
type FormStep int

const (
	StepPersonal  FormStep = 1
	StepFamily    FormStep = 2
	StepSituation FormStep = 3
)

// Clamp forces a persisted step value back into the valid range
func (s FormStep) Clamp() FormStep {
	if s < StepPersonal {
		return StepPersonal
	}
	if s > StepSituation {
		return StepSituation
	}
	return s
}

// Application status values
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
)

// Gender options
const (
	GenderMale           = "male"
	GenderFemale         = "female"
	GenderOther          = "other"
	GenderPreferNotToSay = "prefer_not_to_say"
)

// Marital status options
const (
	MaritalSingle   = "single"
	MaritalMarried  = "married"
	MaritalDivorced = "divorced"
	MaritalWidowed  = "widowed"
)

// Employment status options
const (
	EmploymentEmployed     = "employed"
	EmploymentPartTime     = "part_time"
	EmploymentSelfEmployed = "self_employed"
	EmploymentUnemployed   = "unemployed"
	EmploymentRetired      = "retired"
	EmploymentStudent      = "student"
	EmploymentDisabled     = "disabled"
)

// Housing status options
const (
	HousingOwned      = "owned"
	HousingRented     = "rented"
	HousingMortgage   = "mortgage"
	HousingWithFamily = "with_family"
	HousingHomeless   = "homeless"
	HousingTemporary  = "temporary"
)

// SuggestionField identifies a free-text field eligible for AI suggestions
type SuggestionField string

const (
	FieldFinancialSituation      SuggestionField = "financial_situation"
	FieldEmploymentCircumstances SuggestionField = "employment_circumstances"
	FieldReasonForApplying       SuggestionField = "reason_for_applying"
)

// IsValid reports whether the field is one of the three suggestion targets
func (f SuggestionField) IsValid() bool {
	switch f {
	case FieldFinancialSituation, FieldEmploymentCircumstances, FieldReasonForApplying:
		return true
	}
	return false
}

// ApplicationDraft is the single mutable entity representing one
// in-progress or submitted assistance application
type ApplicationDraft struct {
	ID string `bson:"_id,omitempty" json:"id,omitempty"`

	// Personal information (step 1)
	Name        string `bson:"name,omitempty" json:"name,omitempty"`
	NationalID  string `bson:"national_id,omitempty" json:"national_id,omitempty"`
	DateOfBirth string `bson:"date_of_birth,omitempty" json:"date_of_birth,omitempty"`
	Gender      string `bson:"gender,omitempty" json:"gender,omitempty"`
	Address     string `bson:"address,omitempty" json:"address,omitempty"`
	City        string `bson:"city,omitempty" json:"city,omitempty"`
	State       string `bson:"state,omitempty" json:"state,omitempty"`
	Country     string `bson:"country,omitempty" json:"country,omitempty"`
	Phone       string `bson:"phone,omitempty" json:"phone,omitempty"`
	Email       string `bson:"email,omitempty" json:"email,omitempty"`

	// Family and financial information (step 2). Dependents and
	// MonthlyIncome are pointers so an explicit 0 is distinguishable
	// from "not yet entered".
	MaritalStatus    string   `bson:"marital_status,omitempty" json:"marital_status,omitempty"`
	Dependents       *int     `bson:"dependents,omitempty" json:"dependents,omitempty"`
	EmploymentStatus string   `bson:"employment_status,omitempty" json:"employment_status,omitempty"`
	MonthlyIncome    *float64 `bson:"monthly_income,omitempty" json:"monthly_income,omitempty"`
	HousingStatus    string   `bson:"housing_status,omitempty" json:"housing_status,omitempty"`

	// Situation descriptions (step 3)
	FinancialSituation      string `bson:"financial_situation,omitempty" json:"financial_situation,omitempty"`
	EmploymentCircumstances string `bson:"employment_circumstances,omitempty" json:"employment_circumstances,omitempty"`
	ReasonForApplying       string `bson:"reason_for_applying,omitempty" json:"reason_for_applying,omitempty"`

	// Metadata
	Status      string     `bson:"status,omitempty" json:"status,omitempty"`
	CurrentStep FormStep   `bson:"current_step,omitempty" json:"current_step,omitempty"`
	CreatedAt   *time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt   *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	SubmittedAt *time.Time `bson:"submitted_at,omitempty" json:"submitted_at,omitempty"`
}

// ValidationErrors maps a field name to a human-readable message.
// An empty map means the checked step is valid.
type ValidationErrors map[string]string

// ApplyField merges a single field edit into the draft. Values arrive as
// decoded JSON, so numbers show up as float64 or json.Number.
func (d *ApplicationDraft) ApplyField(field string, value interface{}) error {
	switch field {
	case "name":
		return assignString(&d.Name, field, value)
	case "national_id":
		return assignString(&d.NationalID, field, value)
	case "date_of_birth":
		return assignString(&d.DateOfBirth, field, value)
	case "gender":
		return assignString(&d.Gender, field, value)
	case "address":
		return assignString(&d.Address, field, value)
	case "city":
		return assignString(&d.City, field, value)
	case "state":
		return assignString(&d.State, field, value)
	case "country":
		return assignString(&d.Country, field, value)
	case "phone":
		return assignString(&d.Phone, field, value)
	case "email":
		return assignString(&d.Email, field, value)
	case "marital_status":
		return assignString(&d.MaritalStatus, field, value)
	case "employment_status":
		return assignString(&d.EmploymentStatus, field, value)
	case "housing_status":
		return assignString(&d.HousingStatus, field, value)
	case "financial_situation":
		return assignString(&d.FinancialSituation, field, value)
	case "employment_circumstances":
		return assignString(&d.EmploymentCircumstances, field, value)
	case "reason_for_applying":
		return assignString(&d.ReasonForApplying, field, value)
	case "dependents":
		n, ok, err := toFloat(field, value)
		if err != nil {
			return err
		}
		if !ok {
			d.Dependents = nil
			return nil
		}
		v := int(n)
		d.Dependents = &v
		return nil
	case "monthly_income":
		n, ok, err := toFloat(field, value)
		if err != nil {
			return err
		}
		if !ok {
			d.MonthlyIncome = nil
			return nil
		}
		d.MonthlyIncome = &n
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownField, field)
}

func assignString(dst *string, field string, value interface{}) error {
	if value == nil {
		*dst = ""
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: %s expects a string", ErrInvalidFieldValue, field)
	}
	*dst = s
	return nil
}

// toFloat converts a decoded JSON value to a number. A nil value or an
// empty string clears the field (ok=false, no error).
func toFloat(field string, value interface{}) (float64, bool, error) {
	switch v := value.(type) {
	case nil:
		return 0, false, nil
	case string:
		if v == "" {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%w: %s expects a number", ErrInvalidFieldValue, field)
	case float64:
		return v, true, nil
	case int:
		return float64(v), true, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false, fmt.Errorf("%w: %s expects a number", ErrInvalidFieldValue, field)
		}
		return f, true, nil
	}
	return 0, false, fmt.Errorf("%w: %s expects a number", ErrInvalidFieldValue, field)
}
