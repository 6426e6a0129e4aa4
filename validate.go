package propbind

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// boundFields tracks, by field path, which fields a bind supplied a value for
// and which failed to coerce. A nil *boundFields marks nothing.
type boundFields struct {
	provided map[string]bool
	failed   map[string]bool
}

func newBoundFields() *boundFields {
	return &boundFields{provided: make(map[string]bool), failed: make(map[string]bool)}
}

func (f *boundFields) wasProvided(fieldPath string) bool {
	return f != nil && f.provided[fieldPath]
}

func (f *boundFields) hasFailed(fieldPath string) bool {
	return f != nil && f.failed[fieldPath]
}

// validateStruct walks a bound struct and checks the tag constraints of every field.
// Nested structs are validated recursively. A required field passes when the
// bind supplied it, even with a zero value. Fields that failed to coerce are skipped.
func validateStruct(cfg reflect.Value, tagName string, bound *boundFields) []FieldError {
	return validateStructRecursive(cfg, "", tagName, bound)
}

func validateStructRecursive(cfg reflect.Value, parentFieldPath, tagName string, bound *boundFields) []FieldError {
	var fieldErrors []FieldError

	if cfg.Kind() == reflect.Ptr {
		if cfg.IsNil() {
			return fieldErrors
		}
		cfg = cfg.Elem()
	}
	if cfg.Kind() != reflect.Struct {
		return fieldErrors
	}

	cfgType := cfg.Type()
	for i := 0; i < cfg.NumField(); i++ {
		field := cfgType.Field(i)
		fieldValue := cfg.Field(i)

		if !field.IsExported() {
			continue
		}

		tags := parseTag(field.Tag.Get(tagName))
		if tags.skip {
			continue
		}

		fieldPath := field.Name
		if parentFieldPath != "" {
			fieldPath = parentFieldPath + "." + field.Name
		}

		if bound.hasFailed(fieldPath) {
			continue
		}

		switch {
		case isOptionalType(field.Type):
			// Optional values are only checked when present
			if fieldValue.Field(1).Bool() {
				fieldErrors = append(fieldErrors, validateField(fieldValue.Field(0), fieldPath, tags, true)...)
			}

		case isNestedStruct(field.Type):
			fieldErrors = append(fieldErrors, validateStructRecursive(fieldValue, fieldPath, tagName, bound)...)

		case field.Type.Kind() == reflect.Ptr && isNestedStruct(field.Type.Elem()):
			if fieldValue.IsNil() {
				if tags.required {
					fieldErrors = append(fieldErrors, requiredError(fieldPath))
				}
				continue
			}
			fieldErrors = append(fieldErrors, validateStructRecursive(fieldValue, fieldPath, tagName, bound)...)

		default:
			fieldErrors = append(fieldErrors, validateField(fieldValue, fieldPath, tags, bound.wasProvided(fieldPath))...)
		}
	}

	return fieldErrors
}

// validateField validates a single field value against required, min, max and oneof.
// provided reports whether a property or default supplied the value; a value
// that was neither provided nor set by the caller counts as missing.
func validateField(fieldValue reflect.Value, fieldPath string, tags tagConfig, provided bool) []FieldError {
	if !provided && isZeroValue(fieldValue) {
		if tags.required {
			return []FieldError{requiredError(fieldPath)}
		}
		// Constraints only apply to provided values
		return nil
	}

	if fieldValue.Kind() == reflect.Ptr {
		if fieldValue.IsNil() {
			return nil
		}
		fieldValue = fieldValue.Elem()
	}

	var errors []FieldError
	switch fieldValue.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		errors = append(errors, checkBounds(fieldPath, tags, float64(fieldValue.Int()), "value %d", fieldValue.Int())...)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		errors = append(errors, checkBounds(fieldPath, tags, float64(fieldValue.Uint()), "value %d", fieldValue.Uint())...)
	case reflect.Float32, reflect.Float64:
		errors = append(errors, checkBounds(fieldPath, tags, fieldValue.Float(), "value %g", fieldValue.Float())...)
	case reflect.String, reflect.Slice, reflect.Map:
		errors = append(errors, checkBounds(fieldPath, tags, float64(fieldValue.Len()), "length %d", fieldValue.Len())...)
	}

	if len(tags.oneof) > 0 {
		errors = append(errors, validateOneof(fieldValue, fieldPath, tags)...)
	}

	return errors
}

// checkBounds compares value to the min and max directives.
// Unparseable bounds are ignored.
func checkBounds(fieldPath string, tags tagConfig, value float64, format string, display any) []FieldError {
	var errors []FieldError
	shown := fmt.Sprintf(format, display)

	if tags.min != "" {
		if minVal, err := strconv.ParseFloat(tags.min, 64); err == nil && value < minVal {
			errors = append(errors, FieldError{
				FieldPath: fieldPath,
				Code:      ErrCodeMin,
				Message:   fmt.Sprintf("%s is below minimum %s", shown, tags.min),
			})
		}
	}

	if tags.max != "" {
		if maxVal, err := strconv.ParseFloat(tags.max, 64); err == nil && value > maxVal {
			errors = append(errors, FieldError{
				FieldPath: fieldPath,
				Code:      ErrCodeMax,
				Message:   fmt.Sprintf("%s exceeds maximum %s", shown, tags.max),
			})
		}
	}

	return errors
}

// validateOneof validates that a field value is one of the allowed options.
func validateOneof(fieldValue reflect.Value, fieldPath string, tags tagConfig) []FieldError {
	var valueStr string
	switch fieldValue.Kind() {
	case reflect.String:
		valueStr = fieldValue.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		valueStr = strconv.FormatInt(fieldValue.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		valueStr = strconv.FormatUint(fieldValue.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		valueStr = strconv.FormatFloat(fieldValue.Float(), 'f', -1, 64)
	case reflect.Bool:
		valueStr = strconv.FormatBool(fieldValue.Bool())
	default:
		return nil
	}

	for _, allowed := range tags.oneof {
		if valueStr == allowed {
			return nil
		}
	}

	return []FieldError{{
		FieldPath: fieldPath,
		Code:      ErrCodeOneOf,
		Message:   fmt.Sprintf("value %q must be one of: %s", valueStr, strings.Join(tags.oneof, ", ")),
	}}
}

func requiredError(fieldPath string) FieldError {
	return FieldError{
		FieldPath: fieldPath,
		Code:      ErrCodeRequired,
		Message:   "field is required but not provided",
	}
}

// isZeroValue checks if a reflect.Value is the zero value for its type.
// Empty strings, slices and maps count as zero.
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}

func sortFieldErrors(errs []FieldError) {
	sort.Slice(errs, func(i, j int) bool {
		return errs[i].FieldPath < errs[j].FieldPath
	})
}
