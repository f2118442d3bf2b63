package helpers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yuenlok/eventpass/internal/models"
)

var (
	emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	e164Regexp  = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
)

func IsValidEmail(email string) bool {
	return emailRegexp.MatchString(email)
}

// IsE164 reports whether number is a full international number. The purchase
// endpoint only enforces the leading "+" (the form does the full check before
// submitting); this is used where contact details are edited server-side.
func IsE164(number string) bool {
	return e164Regexp.MatchString(number)
}

func IsValidContactMethod(method string) bool {
	switch method {
	case models.ContactMethodWhatsApp, models.ContactMethodEmail, models.ContactMethodPhone:
		return true
	}
	return false
}

// RequiresInternationalNumber reports whether the contact method's info field
// must carry a "+"-prefixed phone number.
func RequiresInternationalNumber(method string) bool {
	return method == models.ContactMethodWhatsApp || method == models.ContactMethodPhone
}

func HasInternationalPrefix(number string) bool {
	return strings.HasPrefix(number, "+")
}

func StringToInt(s string) (int, error) {
	return strconv.Atoi(s)
}
