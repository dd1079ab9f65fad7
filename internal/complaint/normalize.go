package complaint

import (
	"ouvidoria/backend/internal/config"
	"strings"
)

// DigitsOnly drops every rune that is not an ASCII digit, so formatted input
// such as "123.456.789-09" becomes "12345678909".
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// NormalizeNationalID returns the digits of id or an invalid_national_id error
// when they do not make up exactly config.NationalIDLength digits.
func NormalizeNationalID(id string) (string, error) {
	digits := DigitsOnly(id)
	if len(digits) != config.NationalIDLength {
		return "", newError(KindInvalidNationalID, "national_id", nil)
	}
	return digits, nil
}

// NormalizeEnrollmentID is the enrollment counterpart of NormalizeNationalID.
func NormalizeEnrollmentID(id string) (string, error) {
	digits := DigitsOnly(id)
	if len(digits) != config.EnrollmentIDLength {
		return "", newError(KindInvalidEnrollmentID, "enrollment_id", nil)
	}
	return digits, nil
}
