package model

import (
	"testing"
	"time"
)

func TestGenerateCodeFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := GenerateCode()
		if len(code) != 4 {
			t.Fatalf("code %q has length %d, want 4", code, len(code))
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit %q", code, r)
			}
		}
	}
}

func TestCheckCode(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(10 * time.Minute)
	past := now.Add(-1 * time.Minute)

	tests := []struct {
		name      string
		stored    string
		expiresAt *time.Time
		submitted string
		want      CodeState
	}{
		{"valid code within window", "1234", &future, "1234", CodeOK},
		{"wrong code within window", "1234", &future, "9999", CodeInvalid},
		{"correct code after expiry", "1234", &past, "1234", CodeExpired},
		{"wrong code after expiry", "1234", &past, "9999", CodeExpired},
		{"no code stored", "", nil, "1234", CodeInvalid},
		{"code stored without expiry", "1234", nil, "1234", CodeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckCode(tt.stored, tt.expiresAt, tt.submitted, now)
			if got != tt.want {
				t.Errorf("CheckCode() = %v, want %v", got, tt.want)
			}
		})
	}
}
