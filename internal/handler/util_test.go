package handler

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestIsDuplicate(t *testing.T) {
	if !isDuplicate(gorm.ErrDuplicatedKey) {
		t.Error("ErrDuplicatedKey not detected")
	}
	if !isDuplicate(fmt.Errorf("create user: %w", gorm.ErrDuplicatedKey)) {
		t.Error("wrapped ErrDuplicatedKey not detected")
	}
	if isDuplicate(errors.New("connection refused")) {
		t.Error("unrelated error flagged as duplicate")
	}
	if isDuplicate(nil) {
		t.Error("nil error flagged as duplicate")
	}
}
