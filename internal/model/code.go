package model

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// CodeTTL is the validity window for emailed verification codes
const CodeTTL = 15 * time.Minute

// CodeState classifies the outcome of checking a submitted code
type CodeState int

const (
	CodeOK CodeState = iota
	CodeInvalid
	CodeExpired
)

// GenerateCode returns a 4-digit numeric code, zero-padded
func GenerateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// crypto/rand never fails on supported platforms
		panic("generate code: " + err.Error())
	}
	return fmt.Sprintf("%04d", n.Int64())
}

// CheckCode compares a submitted code against the stored code and expiry.
// Expiry is checked first so a correct-but-stale code reports expired,
// letting the caller distinguish "invalid" from "expired" in the response.
func CheckCode(stored string, expiresAt *time.Time, submitted string, now time.Time) CodeState {
	if stored == "" || expiresAt == nil {
		return CodeInvalid
	}
	if now.After(*expiresAt) {
		return CodeExpired
	}
	if stored != submitted {
		return CodeInvalid
	}
	return CodeOK
}
