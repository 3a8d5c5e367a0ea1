package utils

import (
	"regexp"
	"strings"
	"time"

	"github.com/prefeitura-rio/app-social/internal/models"
)

// Messages holds the human-readable validation messages for one language
type Messages struct {
	Required       string `json:"required"`
	InvalidEmail   string `json:"invalid_email"`
	InvalidDate    string `json:"invalid_date"`
	MustBePositive string `json:"must_be_positive"`
}

var messagesByLanguage = map[string]Messages{
	"en": {
		Required:       "This field is required",
		InvalidEmail:   "Please enter a valid email address",
		InvalidDate:    "Please enter a valid date",
		MustBePositive: "Must be a positive number",
	},
	"ar": {
		Required:       "هذا الحقل مطلوب",
		InvalidEmail:   "يرجى إدخال عنوان بريد إلكتروني صحيح",
		InvalidDate:    "يرجى إدخال تاريخ صحيح",
		MustBePositive: "يجب أن يكون رقماً موجباً",
	},
}

// DefaultMessages returns the English message table
func DefaultMessages() Messages {
	return messagesByLanguage["en"]
}

// MessagesFor returns the message table for a language tag, falling back
// to English for unknown tags
func MessagesFor(lang string) Messages {
	if m, ok := messagesByLanguage[lang]; ok {
		return m
	}
	return DefaultMessages()
}

// One "@", a domain segment and a dot-separated suffix. Full RFC 5322
// compliance is intentionally out of scope.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmailFormat checks the local@domain.tld shape
func ValidateEmailFormat(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidateDate checks that a value parses as a real calendar date
func ValidateDate(date string) bool {
	if date == "" {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// ValidateStep1 checks the personal information section. All fields must
// be non-empty after trimming; date_of_birth must parse as a calendar
// date and email must have a plausible shape.
func ValidateStep1(draft *models.ApplicationDraft, t Messages) models.ValidationErrors {
	errors := models.ValidationErrors{}

	if strings.TrimSpace(draft.Name) == "" {
		errors["name"] = t.Required
	}
	if strings.TrimSpace(draft.NationalID) == "" {
		errors["national_id"] = t.Required
	}
	if draft.DateOfBirth == "" {
		errors["date_of_birth"] = t.Required
	} else if !ValidateDate(draft.DateOfBirth) {
		errors["date_of_birth"] = t.InvalidDate
	}
	if draft.Gender == "" {
		errors["gender"] = t.Required
	}
	if strings.TrimSpace(draft.Address) == "" {
		errors["address"] = t.Required
	}
	if strings.TrimSpace(draft.City) == "" {
		errors["city"] = t.Required
	}
	if strings.TrimSpace(draft.State) == "" {
		errors["state"] = t.Required
	}
	if strings.TrimSpace(draft.Country) == "" {
		errors["country"] = t.Required
	}
	if strings.TrimSpace(draft.Phone) == "" {
		errors["phone"] = t.Required
	}
	if strings.TrimSpace(draft.Email) == "" {
		errors["email"] = t.Required
	} else if !ValidateEmailFormat(draft.Email) {
		errors["email"] = t.InvalidEmail
	}

	return errors
}

// ValidateStep2 checks the family and financial section. A nil numeric
// field means "not yet entered"; an explicit zero is a valid value.
func ValidateStep2(draft *models.ApplicationDraft, t Messages) models.ValidationErrors {
	errors := models.ValidationErrors{}

	if draft.MaritalStatus == "" {
		errors["marital_status"] = t.Required
	}
	if draft.Dependents == nil {
		errors["dependents"] = t.Required
	} else if *draft.Dependents < 0 {
		errors["dependents"] = t.MustBePositive
	}
	if draft.EmploymentStatus == "" {
		errors["employment_status"] = t.Required
	}
	if draft.MonthlyIncome == nil {
		errors["monthly_income"] = t.Required
	} else if *draft.MonthlyIncome < 0 {
		errors["monthly_income"] = t.MustBePositive
	}
	if draft.HousingStatus == "" {
		errors["housing_status"] = t.Required
	}

	return errors
}

// ValidateStep3 checks the situation descriptions section
func ValidateStep3(draft *models.ApplicationDraft, t Messages) models.ValidationErrors {
	errors := models.ValidationErrors{}

	if strings.TrimSpace(draft.FinancialSituation) == "" {
		errors["financial_situation"] = t.Required
	}
	if strings.TrimSpace(draft.EmploymentCircumstances) == "" {
		errors["employment_circumstances"] = t.Required
	}
	if strings.TrimSpace(draft.ReasonForApplying) == "" {
		errors["reason_for_applying"] = t.Required
	}

	return errors
}

// ValidateStep dispatches to the step's validator
func ValidateStep(step models.FormStep, draft *models.ApplicationDraft, t Messages) models.ValidationErrors {
	switch step {
	case models.StepPersonal:
		return ValidateStep1(draft, t)
	case models.StepFamily:
		return ValidateStep2(draft, t)
	default:
		return ValidateStep3(draft, t)
	}
}

// SanitizeString removes leading/trailing whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(s)
}
