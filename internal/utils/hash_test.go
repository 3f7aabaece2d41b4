package utils

import (
	"strings"
	"testing"
	"unicode"
)

func TestGenerateRandomToken(t *testing.T) {
	first, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("GenerateRandomToken: %v", err)
	}
	second, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("GenerateRandomToken: %v", err)
	}
	if first == second {
		t.Error("two tokens are identical")
	}
	if strings.ContainsAny(first, "+/=") {
		t.Errorf("token %q is not URL safe", first)
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Error("same input hashed differently")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Error("different inputs collided")
	}
	if HashToken("abc") == "abc" {
		t.Error("hash equals input")
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"  Grace@Uhuru.AC.KE ": "grace@uhuru.ac.ke",
		"plain@example.com":    "plain@example.com",
		"   ":                  "",
	}
	for input, want := range cases {
		if got := NormalizeEmail(input); got != want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestGenerateTempPasswordCharacterClasses(t *testing.T) {
	for i := 0; i < 20; i++ {
		password, err := GenerateTempPassword(14)
		if err != nil {
			t.Fatalf("GenerateTempPassword: %v", err)
		}
		if len(password) != 14 {
			t.Fatalf("length = %d, want 14", len(password))
		}
		var hasLower, hasUpper, hasDigit, hasSymbol bool
		for _, r := range password {
			switch {
			case unicode.IsLower(r):
				hasLower = true
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsDigit(r):
				hasDigit = true
			default:
				hasSymbol = true
			}
		}
		if !hasLower || !hasUpper || !hasDigit || !hasSymbol {
			t.Fatalf("password %q missing a required character class", password)
		}
	}
}

func TestGenerateTempPasswordMinimumLength(t *testing.T) {
	password, err := GenerateTempPassword(4)
	if err != nil {
		t.Fatalf("GenerateTempPassword: %v", err)
	}
	if len(password) < 12 {
		t.Errorf("length = %d, want at least 12", len(password))
	}
}
