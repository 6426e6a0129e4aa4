package propbind

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// coerce converts a raw property value into a value of type t.
func coerce(raw any, t reflect.Type) (reflect.Value, error) {
	if raw == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	if t.Kind() == reflect.Ptr {
		elem, err := coerce(raw, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}

	if t == durationType {
		return coerceDuration(raw)
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) && t.Kind() != reflect.String {
		s, err := scalarString(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return reflect.Value{}, fmt.Errorf("invalid %s value %q: %w", t, s, err)
		}
		return ptr.Elem(), nil
	}

	switch t.Kind() {
	case reflect.String:
		s, err := scalarString(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(s).Convert(t), nil

	case reflect.Bool:
		return coerceBool(raw, t)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return coerceInt(raw, t)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return coerceUint(raw, t)

	case reflect.Float32, reflect.Float64:
		return coerceFloat(raw, t)

	case reflect.Slice:
		return coerceSlice(raw, t)

	case reflect.Map:
		return coerceMap(raw, t)
	}

	return reflect.Value{}, fmt.Errorf("cannot convert %T to %s", raw, t)
}

// scalarString renders a scalar raw value as a string. Lists and maps are rejected.
func scalarString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}

	switch reflect.ValueOf(raw).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		return "", fmt.Errorf("cannot convert %T to string", raw)
	}
	return fmt.Sprint(raw), nil
}

func coerceDuration(raw any) (reflect.Value, error) {
	switch v := raw.(type) {
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			// Bare numbers are milliseconds
			if ms, convErr := strconv.ParseInt(strings.TrimSpace(v), 10, 64); convErr == nil {
				return reflect.ValueOf(time.Duration(ms) * time.Millisecond), nil
			}
			return reflect.Value{}, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		return reflect.ValueOf(d), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		ms := reflect.ValueOf(v).Convert(reflect.TypeOf(int64(0))).Int()
		return reflect.ValueOf(time.Duration(ms) * time.Millisecond), nil
	case float64:
		return reflect.ValueOf(time.Duration(v * float64(time.Millisecond))), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot convert %T to duration", raw)
}

func coerceBool(raw any, t reflect.Type) (reflect.Value, error) {
	var b bool
	switch v := raw.(type) {
	case bool:
		b = v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			// Be lenient with boolean values
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "on", "yes", "y":
				parsed = true
			case "off", "no", "n", "":
				parsed = false
			default:
				return reflect.Value{}, fmt.Errorf("invalid bool value %q", v)
			}
		}
		b = parsed
	default:
		return reflect.Value{}, fmt.Errorf("cannot convert %T to bool", raw)
	}
	return reflect.ValueOf(b).Convert(t), nil
}

func coerceInt(raw any, t reflect.Type) (reflect.Value, error) {
	var n int64
	rv := reflect.ValueOf(raw)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return reflect.Value{}, fmt.Errorf("value %d overflows %s", rv.Uint(), t)
		}
		n = int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) {
			return reflect.Value{}, fmt.Errorf("value %v is not an integer", f)
		}
		n = int64(f)
	case reflect.String:
		parsed, err := strconv.ParseInt(strings.TrimSpace(rv.String()), 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid int value %q", rv.String())
		}
		n = parsed
	default:
		return reflect.Value{}, fmt.Errorf("cannot convert %T to %s", raw, t)
	}

	out := reflect.New(t).Elem()
	if out.OverflowInt(n) {
		return reflect.Value{}, fmt.Errorf("value %d overflows %s", n, t)
	}
	out.SetInt(n)
	return out, nil
}

func coerceUint(raw any, t reflect.Type) (reflect.Value, error) {
	var n uint64
	rv := reflect.ValueOf(raw)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() < 0 {
			return reflect.Value{}, fmt.Errorf("value %d is negative", rv.Int())
		}
		n = uint64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n = rv.Uint()
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f < 0 || f != math.Trunc(f) {
			return reflect.Value{}, fmt.Errorf("value %v is not an unsigned integer", f)
		}
		n = uint64(f)
	case reflect.String:
		parsed, err := strconv.ParseUint(strings.TrimSpace(rv.String()), 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid uint value %q", rv.String())
		}
		n = parsed
	default:
		return reflect.Value{}, fmt.Errorf("cannot convert %T to %s", raw, t)
	}

	out := reflect.New(t).Elem()
	if out.OverflowUint(n) {
		return reflect.Value{}, fmt.Errorf("value %d overflows %s", n, t)
	}
	out.SetUint(n)
	return out, nil
}

func coerceFloat(raw any, t reflect.Type) (reflect.Value, error) {
	var f float64
	rv := reflect.ValueOf(raw)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f = float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		f = rv.Float()
	case reflect.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid float value %q", rv.String())
		}
		f = parsed
	default:
		return reflect.Value{}, fmt.Errorf("cannot convert %T to %s", raw, t)
	}

	out := reflect.New(t).Elem()
	if out.OverflowFloat(f) {
		return reflect.Value{}, fmt.Errorf("value %v overflows %s", f, t)
	}
	out.SetFloat(f)
	return out, nil
}

// coerceSlice accepts lists, or comma-separated strings.
func coerceSlice(raw any, t reflect.Type) (reflect.Value, error) {
	var items []any
	rv := reflect.ValueOf(raw)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			items = append(items, rv.Index(i).Interface())
		}
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		if s != "" {
			for _, part := range strings.Split(s, ",") {
				items = append(items, strings.TrimSpace(part))
			}
		}
	default:
		items = []any{raw}
	}

	out := reflect.MakeSlice(t, len(items), len(items))
	for i, item := range items {
		elem, err := coerce(item, t.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(elem)
	}
	return out, nil
}

func coerceMap(raw any, t reflect.Type) (reflect.Value, error) {
	if t.Key().Kind() != reflect.String {
		return reflect.Value{}, fmt.Errorf("unsupported map key type %s", t.Key())
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map {
		return reflect.Value{}, fmt.Errorf("cannot convert %T to %s", raw, t)
	}

	out := reflect.MakeMapWithSize(t, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := fmt.Sprint(iter.Key().Interface())
		elem, err := coerce(iter.Value().Interface(), t.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key %q: %w", key, err)
		}
		out.SetMapIndex(reflect.ValueOf(key).Convert(t.Key()), elem)
	}
	return out, nil
}
