package validate

import (
	"regexp"
	"strings"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// Payment methods the buying desk accepts.
var paymentMethods = map[string]bool{
	"cash": true, "check": true, "digital": true, "trade": true,
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a simple resource identifier (asset/session/container ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// PaymentMethod normalizes and checks the method enum.
func PaymentMethod(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, paymentMethods[s]
}

// Name validates a displayable counterparty/buyer name.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 80 {
		return "", false
	}
	return s, true
}

// Amount checks a money value is non-negative.
func Amount(v float64) bool { return v >= 0 }

// Percent checks a 0..100 percentage.
func Percent(v float64) bool { return v >= 0 && v <= 100 }

// Password enforces the login password policy.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 20 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
