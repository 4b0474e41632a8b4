package hub

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cultrix/deepresearch/internal/errs"
)

func TestLoginRejectsEmptyToken(t *testing.T) {
	_, err := Login(context.Background(), "  ")
	var cerr *errs.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestRequire(t *testing.T) {
	t.Setenv("DR_TEST_PRESENT", "x")
	t.Setenv("DR_TEST_MISSING", "")
	if err := Require("DR_TEST_PRESENT"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := Require("DR_TEST_PRESENT", "DR_TEST_MISSING")
	var cerr *errs.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if !strings.Contains(cerr.Reason, "DR_TEST_MISSING") {
		t.Fatalf("error should name the missing variable: %v", err)
	}
}
