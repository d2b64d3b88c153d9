package reminder

import (
	"regexp"
)

// DefaultCountryCode is prefixed to bare 10-digit national numbers.
const DefaultCountryCode = "+91"

var (
	nonDialable = regexp.MustCompile(`[^\d+]`)
	nonDigit    = regexp.MustCompile(`\D`)
	e164        = regexp.MustCompile(`^\+\d{7,15}$`)
	tenDigits   = regexp.MustCompile(`^\d{10}$`)
)

// NormalizePhone returns raw in E.164 form. International numbers pass
// through, 10-digit numbers get countryCode, anything else is rejected.
func NormalizePhone(raw, countryCode string) (string, bool) {
	if raw == "" {
		return "", false
	}
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	trimmed := nonDialable.ReplaceAllString(raw, "")
	if e164.MatchString(trimmed) {
		return trimmed, true
	}

	digits := nonDigit.ReplaceAllString(trimmed, "")
	if tenDigits.MatchString(digits) {
		return countryCode + digits, true
	}
	return "", false
}

// IsE164 reports whether s is already a valid international number.
func IsE164(s string) bool {
	return e164.MatchString(s)
}
