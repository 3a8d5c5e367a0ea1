package utils

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is assumed when a phone number carries no country prefix
const DefaultPhoneRegion = "BR"

// NormalizePhone formats a user-entered phone number as E.164 when it
// parses as a valid number. Unparseable input is returned trimmed but
// otherwise unchanged; the validator only requires presence, so
// normalization is best-effort.
func NormalizePhone(raw, region string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}
	if region == "" {
		region = DefaultPhoneRegion
	}

	parsed, err := phonenumbers.Parse(trimmed, region)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return trimmed
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
