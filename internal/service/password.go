package service

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	passwordSymbols   = "!@#$%^&*()_+-=[]{}|;:'\",.<>/?`~"
)

// PasswordPolicy returns a list of human-readable violations rather than
// failing fast on the first one.
type PasswordPolicy struct{}

func (PasswordPolicy) Validate(plaintext string) []string {
	var violations []string
	if len(plaintext) < minPasswordLength {
		violations = append(violations, "password must be at least 8 characters long")
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range plaintext {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}
	if !hasLower {
		violations = append(violations, "password must contain a lowercase letter")
	}
	if !hasUpper {
		violations = append(violations, "password must contain an uppercase letter")
	}
	if !hasDigit {
		violations = append(violations, "password must contain a digit")
	}
	if !hasSymbol {
		violations = append(violations, "password must contain a special character")
	}
	return violations
}

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", NewValidationError("password must be at least 8 characters long")
	}
	cost := h.Cost
	if cost == 0 {
		cost = 12
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
