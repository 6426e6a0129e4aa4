package propbind

import (
	"reflect"
	"testing"
)

func TestValidateField(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		tags     tagConfig
		provided bool
		wantCode string
	}{
		{"required with value", "hello", tagConfig{required: true}, false, ""},
		{"required empty string", "", tagConfig{required: true}, false, ErrCodeRequired},
		{"required zero int", 0, tagConfig{required: true}, false, ErrCodeRequired},
		{"required empty slice", []string{}, tagConfig{required: true}, false, ErrCodeRequired},
		{"optional zero skips bounds", 0, tagConfig{min: "10"}, false, ""},
		{"int below min", 5, tagConfig{min: "10"}, false, ErrCodeMin},
		{"int above max", 11, tagConfig{max: "10"}, false, ErrCodeMax},
		{"uint within bounds", uint(7), tagConfig{min: "1", max: "10"}, false, ""},
		{"float below min", 0.5, tagConfig{min: "1.5"}, false, ErrCodeMin},
		{"string length above max", "abcdef", tagConfig{max: "3"}, false, ErrCodeMax},
		{"slice length below min", []int{1}, tagConfig{min: "2"}, false, ErrCodeMin},
		{"unparseable bound ignored", 5, tagConfig{min: "lots"}, false, ""},
		{"oneof match", "prod", tagConfig{oneof: []string{"dev", "prod"}}, false, ""},
		{"oneof miss", "qa", tagConfig{oneof: []string{"dev", "prod"}}, false, ErrCodeOneOf},
		{"oneof int", 3, tagConfig{oneof: []string{"1", "2"}}, false, ErrCodeOneOf},
		{"oneof bool", true, tagConfig{oneof: []string{"true"}}, false, ""},
		{"required provided zero int", 0, tagConfig{required: true}, true, ""},
		{"required provided false", false, tagConfig{required: true}, true, ""},
		{"required provided empty string", "", tagConfig{required: true}, true, ""},
		{"provided zero checked against min", 0, tagConfig{min: "1"}, true, ErrCodeMin},
		{"provided nil pointer", (*int)(nil), tagConfig{min: "1"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateField(reflect.ValueOf(tt.value), "Field", tt.tags, tt.provided)
			if tt.wantCode == "" {
				if len(errs) > 0 {
					t.Errorf("expected no errors, got %v", errs)
				}
				return
			}
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %v", errs)
			}
			if errs[0].Code != tt.wantCode {
				t.Errorf("code = %q, want %q", errs[0].Code, tt.wantCode)
			}
			if errs[0].FieldPath != "Field" {
				t.Errorf("field path = %q, want Field", errs[0].FieldPath)
			}
		})
	}
}

func TestValidateField_Messages(t *testing.T) {
	errs := validateField(reflect.ValueOf(80), "Port", tagConfig{min: "1024"}, true)
	if got, want := errs[0].Message, "value 80 is below minimum 1024"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}

	errs = validateField(reflect.ValueOf("qa"), "Mode", tagConfig{oneof: []string{"dev", "prod"}}, true)
	if got, want := errs[0].Message, `value "qa" must be one of: dev, prod`; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestValidateStruct_Nested(t *testing.T) {
	type limits struct {
		Max int `prop:"max:10"`
	}
	type config struct {
		Name     string        `prop:"required"`
		Extra    *limits       `prop:"required"`
		Level    Optional[int] `prop:"min:1"`
		Unset    Optional[int] `prop:"min:1"`
		Skipped  string        `prop:"-"`
		Limits   limits
		Optional *limits
	}

	cfg := config{
		Limits:   limits{Max: 11},
		Optional: &limits{Max: 20},
		Level:    Optional[int]{Value: 0, Set: true},
	}

	errs := validateStruct(reflect.ValueOf(cfg), DefaultTagName, nil)
	sortFieldErrors(errs)

	got := map[string]string{}
	for _, fe := range errs {
		got[fe.FieldPath] = fe.Code
	}
	want := map[string]string{
		"Extra":        ErrCodeRequired,
		"Limits.Max":   ErrCodeMax,
		"Name":         ErrCodeRequired,
		"Optional.Max": ErrCodeMax,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("errors = %v, want %v", got, want)
	}
}

func TestValidateStruct_BoundFields(t *testing.T) {
	type config struct {
		Port    int    `prop:"required"`
		Enabled bool   `prop:"required"`
		Count   int    `prop:"required,min:1"`
		Name    string `prop:"required"`
	}

	bound := newBoundFields()
	bound.provided["Port"] = true
	bound.provided["Enabled"] = true
	bound.failed["Count"] = true

	errs := validateStruct(reflect.ValueOf(config{}), DefaultTagName, bound)
	if len(errs) != 1 || errs[0].FieldPath != "Name" || errs[0].Code != ErrCodeRequired {
		t.Errorf("errors = %v, want a single required error for Name", errs)
	}
}

func TestIsZeroValue(t *testing.T) {
	var nilPtr *int
	tests := []struct {
		value any
		want  bool
	}{
		{"", true},
		{"x", false},
		{0, true},
		{false, true},
		{[]int{}, true},
		{map[string]int{}, true},
		{nilPtr, true},
		{intPtr(0), false},
	}
	for _, tt := range tests {
		if got := isZeroValue(reflect.ValueOf(tt.value)); got != tt.want {
			t.Errorf("isZeroValue(%#v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
