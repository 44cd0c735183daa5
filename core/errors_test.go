package core

import (
	"testing"

	"github.com/pkg/errors"
)

func TestViolations_Err(t *testing.T) {
	errA := NewBusinessError(KindValidation, "a", "rule a failed")
	errB := NewConflictError("b", "rule b failed")
	summary := errors.New("not eligible")

	tests := []struct {
		name       string
		add        map[string]error
		wantNil    bool
		wantFields int
	}{
		{name: "nothing recorded", add: map[string]error{"a": nil}, wantNil: true},
		{name: "one violation", add: map[string]error{"a": errA, "b": nil}, wantFields: 1},
		{name: "two violations", add: map[string]error{"a": errA, "b": errB}, wantFields: 2},
		{
			name:       "nested validation error is flattened",
			add:        map[string]error{"nested": NewValidationError(nil, FieldError{Field: "x", Error: "x"}, FieldError{Field: "y", Error: "y"})},
			wantFields: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Violations
			for fld, err := range tt.add {
				v.Add(fld, err)
			}
			err := v.Err(summary)
			if tt.wantNil {
				if err != nil {
					t.Errorf("Violations.Err() = %v, want nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Violations.Err() = %T, want *ValidationError", err)
			}
			if len(verr.Fields) != tt.wantFields {
				t.Errorf("len(Fields) = %d, want %d", len(verr.Fields), tt.wantFields)
			}
			if !errors.Is(err, summary) {
				t.Errorf("errors.Is(err, summary) = false")
			}
		})
	}
}

func TestValidationError_Has(t *testing.T) {
	errA := NewBusinessError(KindValidation, "a", "rule a failed")
	errB := NewBusinessError(KindValidation, "b", "rule b failed")

	var v Violations
	v.Add("a", errors.Wrap(errA, "checking a"))
	err := v.Err(nil).(*ValidationError)

	if !err.Has(errA) {
		t.Errorf("Has(errA) = false, want true")
	}
	if err.Has(errB) {
		t.Errorf("Has(errB) = true, want false")
	}
	if err.Error() != "a: checking a: rule a failed" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestKindOf(t *testing.T) {
	notFound := NewNotFoundError("x", "x not found")
	conflict := NewConflictError("y", "y already exists")

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "plain error", err: errors.New("boom"), want: 0},
		{name: "not found", err: notFound, want: KindNotFound},
		{name: "wrapped conflict", err: errors.Wrap(conflict, "adding"), want: KindConflict},
		{name: "validation without cause", err: NewValidationError(nil), want: KindValidation},
		{name: "validation wrapping conflict", err: NewValidationError(conflict), want: KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsShutdown(t *testing.T) {
	if !IsShutdown(errors.Wrap(NewShutdownError("bye"), "serving")) {
		t.Errorf("IsShutdown() = false, want true")
	}
	if IsShutdown(errors.New("bye")) {
		t.Errorf("IsShutdown() = true, want false")
	}
}
