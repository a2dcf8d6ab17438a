package usecase

import (
	"crypto/subtle"
	"net/mail"
	"strings"
)

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// fallbackDisplayName derives a display name from the email local part.
func fallbackDisplayName(email string) string {
	addr, err := mail.ParseAddress(email)
	if err == nil {
		email = addr.Address
	}
	local, _, _ := strings.Cut(email, "@")
	if len(local) < 2 {
		return "user"
	}
	return local
}
