package domain

import (
	"encoding/json"
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestConfigError_SingleField(t *testing.T) {
	t.Parallel()

	err := NewConfigError("run.pairs", "required")

	if got := err.Error(); got != "configuration: run.pairs: required" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Fatal("errors.Is(err, ErrConfiguration) = false")
	}
}

func TestConfigError_MultipleFields(t *testing.T) {
	t.Parallel()

	err := NewConfigErrors([]FieldError{
		{Field: "run.pairs", Message: "required"},
		{Field: "run.bank_size", Message: "must be positive"},
	})

	if got := err.Error(); got != "configuration: 2 errors" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if len(err.Errors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(err.Errors))
	}
}

func TestRecordError_UnwrapsBoth(t *testing.T) {
	t.Parallel()

	cause := json.Unmarshal([]byte("{"), &struct{}{})
	err := &RecordError{Line: 7, Err: cause}

	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatal("errors.Is(err, ErrMalformedRecord) = false")
	}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is(err, cause) = false")
	}
	if got := err.Error(); !strings.HasPrefix(got, "line 7: ") {
		t.Fatalf("unexpected Error(): %q", got)
	}
}

func TestIOError_Unwrap(t *testing.T) {
	t.Parallel()

	err := &IOError{Path: "dict.zip", Err: fs.ErrPermission}
	if !errors.Is(err, ErrIO) {
		t.Fatal("errors.Is(err, ErrIO) = false")
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatal("errors.Is(err, fs.ErrPermission) = false")
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	all := []error{
		ErrMalformedRecord, ErrMissingField, ErrMergeConflict,
		ErrConfiguration, ErrIO, ErrCorruptSource, ErrLocked,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v should not match %v", a, b)
			}
		}
	}
}
