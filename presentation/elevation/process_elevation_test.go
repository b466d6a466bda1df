package elevation

import (
	"errors"
	"testing"
)

type fixedElevation bool

func (f fixedElevation) IsElevated() bool { return bool(f) }
func (fixedElevation) Hint() string { return "run as root" }

func TestRequire(t *testing.T) {
	if err := Require(fixedElevation(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := Require(fixedElevation(false))
	if !errors.Is(err, ErrNotElevated) {
		t.Fatalf("expected ErrNotElevated, got %v", err)
	}
}

func TestHint(t *testing.T) {
	if h := NewProcessElevation().Hint(); h == "" {
		t.Fatal("expected non-empty hint")
	}
}
