package person

import "strings"

// NormalizePhone reduces a phone number to its canonical Israeli digit form so that
// "+972-50-123-4567", "00972501234567", "972501234567" and "050 1234567" compare equal.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "00972") {
		digits = digits[2:]
	}
	if strings.HasPrefix(digits, "972") && len(digits) > 9 {
		digits = "0" + strings.TrimLeft(digits[3:], "0")
	}
	if !strings.HasPrefix(digits, "0") && (len(digits) == 8 || len(digits) == 9) {
		digits = "0" + digits
	}
	return digits
}

func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
