package propbind

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name   string
		errors []FieldError
		want   string
	}{
		{
			name: "no errors",
			want: "property validation failed: no errors",
		},
		{
			name: "single error",
			errors: []FieldError{
				{FieldPath: "Database.Host", Code: ErrCodeRequired, Message: "field is required"},
			},
			want: "property validation failed: 1 error\n  - Database.Host: required (field is required)",
		},
		{
			name: "multiple errors keep order",
			errors: []FieldError{
				{FieldPath: "Server.Port", Code: ErrCodeMin, Message: "value 80 is below minimum 1024"},
				{FieldPath: "Mode", Code: ErrCodeOneOf, Message: "must be one of: dev, prod"},
			},
			want: "property validation failed: 2 errors\n" +
				"  - Server.Port: min (value 80 is below minimum 1024)\n" +
				"  - Mode: oneof (must be one of: dev, prod)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := (&ValidationError{FieldErrors: tt.errors}).Error()
			if got != tt.want {
				t.Errorf("Error()\ngot:  %q\nwant: %q", got, tt.want)
			}
		})
	}
}

func TestBindError(t *testing.T) {
	cause := &ValidationError{FieldErrors: []FieldError{{FieldPath: "Count", Code: ErrCodeInvalidType, Message: "bad"}}}
	err := error(&BindError{Target: "*app.Config", Prefix: "app", Err: cause})

	want := "cannot bind to *app.Config: property validation failed: 1 error\n  - Count: invalid_type (bad)"
	if err.Error() != want {
		t.Errorf("Error()\ngot:  %q\nwant: %q", err.Error(), want)
	}

	var valErr *ValidationError
	if !errors.As(err, &valErr) || valErr != cause {
		t.Error("errors.As should reach the cause")
	}

	wrapped := fmt.Errorf("startup: %w", err)
	var bindErr *BindError
	if !errors.As(wrapped, &bindErr) || bindErr.Prefix != "app" {
		t.Error("errors.As should find the BindError through wrapping")
	}
}

type stringerTarget struct{}

func (stringerTarget) String() string { return "the target" }

func TestDescribeTarget(t *testing.T) {
	var nilStringer *namedTarget
	tests := []struct {
		target any
		want   string
	}{
		{nil, "<nil>"},
		{nilStringer, "*propbind.namedTarget(nil)"},
		{stringerTarget{}, "the target"},
		{&stringerTarget{}, "the target"},
		{&struct{ A int }{}, "*struct { A int }"},
		{map[string]any{}, "map[string]interface {}"},
		{NewProperties(), "*propbind.Properties"},
	}

	for _, tt := range tests {
		if got := describeTarget(tt.target); got != tt.want {
			t.Errorf("describeTarget(%T) = %q, want %q", tt.target, got, tt.want)
		}
	}
}
