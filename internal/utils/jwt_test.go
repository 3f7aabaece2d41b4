package utils

import (
	"errors"
	"testing"
	"time"
)

func TestJWTManagerRoundTrip(t *testing.T) {
	manager := JWTManager{
		Secret:         []byte("unit-test-secret"),
		Issuer:         "shulehub-test",
		AccessTokenTTL: 15 * time.Minute,
	}

	token, ttl, err := manager.IssueAccessToken("user-1", "teacher@example.com", "teacher", "school-1", "session-1")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if ttl != 15*time.Minute {
		t.Errorf("ttl = %v, want 15m", ttl)
	}

	claims, err := manager.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %s", claims.Subject)
	}
	if claims.Email != "teacher@example.com" {
		t.Errorf("Email = %s", claims.Email)
	}
	if claims.Role != "teacher" {
		t.Errorf("Role = %s", claims.Role)
	}
	if claims.SchoolID != "school-1" {
		t.Errorf("SchoolID = %s", claims.SchoolID)
	}
	if claims.SessionID != "session-1" {
		t.Errorf("SessionID = %s", claims.SessionID)
	}
}

func TestJWTManagerRejectsExpiredToken(t *testing.T) {
	manager := JWTManager{
		Secret:         []byte("unit-test-secret"),
		AccessTokenTTL: -time.Minute,
	}
	token, _, err := manager.IssueAccessToken("user-1", "a@b.c", "parent", "", "s")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if _, err := manager.ParseAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTManagerRejectsWrongSecret(t *testing.T) {
	issuer := JWTManager{Secret: []byte("secret-a"), AccessTokenTTL: time.Minute}
	verifier := JWTManager{Secret: []byte("secret-b"), AccessTokenTTL: time.Minute}

	token, _, err := issuer.IssueAccessToken("user-1", "a@b.c", "parent", "", "s")
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if _, err := verifier.ParseAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTManagerRejectsGarbage(t *testing.T) {
	manager := JWTManager{Secret: []byte("unit-test-secret")}
	if _, err := manager.ParseAccessToken("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage error = %v, want ErrInvalidToken", err)
	}
}
