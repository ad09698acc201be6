package jwtutil

import (
	"testing"

	"inspection-service/pkg/config"
)

func TestTokenRoundTrip(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})

	token, err := GenerateToken("alice@example.com", 42, "user")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", claims.Email)
	}
	if claims.UserID != 42 {
		t.Errorf("user id = %d, want 42", claims.UserID)
	}
	if claims.Role != "user" {
		t.Errorf("role = %q, want user", claims.Role)
	}
}

func TestValidateTokenWrongKey(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "key-one", ExpirationHours: 1})
	token, err := GenerateToken("bob@example.com", 7, "user")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	Initialize(&config.JWTConfig{SigningKey: "key-two", ExpirationHours: 1})
	if _, err := ValidateToken(token); err == nil {
		t.Fatal("token signed with different key validated")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: -1})
	token, err := GenerateToken("carol@example.com", 9, "user")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := ValidateToken(token); err == nil {
		t.Fatal("expired token validated")
	}
}

func TestGenerateWithoutInitialize(t *testing.T) {
	Initialize(nil)
	defer Initialize(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})

	if _, err := GenerateToken("x@example.com", 1, "user"); err == nil {
		t.Fatal("expected error when configuration missing")
	}
}
