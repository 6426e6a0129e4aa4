package propbind

import (
	"math"
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type logLevel string

func TestCoerce(t *testing.T) {
	ip := net.ParseIP("10.0.0.1")
	tests := []struct {
		name string
		raw  any
		typ  reflect.Type
		want any
	}{
		{"nil to zero", nil, reflect.TypeOf(0), 0},
		{"assignable", "x", reflect.TypeOf(""), "x"},
		{"int to string", 42, reflect.TypeOf(""), "42"},
		{"bool to string", true, reflect.TypeOf(""), "true"},
		{"named string", "debug", reflect.TypeOf(logLevel("")), logLevel("debug")},
		{"string to int", " 12 ", reflect.TypeOf(0), 12},
		{"integral float to int", float64(3), reflect.TypeOf(0), 3},
		{"int64 to int8", int64(-8), reflect.TypeOf(int8(0)), int8(-8)},
		{"string to uint16", "65535", reflect.TypeOf(uint16(0)), uint16(65535)},
		{"string to float", "2.5", reflect.TypeOf(float64(0)), 2.5},
		{"int to float32", 2, reflect.TypeOf(float32(0)), float32(2)},
		{"lenient bool yes", "yes", reflect.TypeOf(false), true},
		{"lenient bool off", "off", reflect.TypeOf(false), false},
		{"bool parse", "TRUE", reflect.TypeOf(false), true},
		{"duration string", "1m30s", reflect.TypeOf(time.Duration(0)), 90 * time.Second},
		{"duration bare millis", "1500", reflect.TypeOf(time.Duration(0)), 1500 * time.Millisecond},
		{"duration int millis", 20, reflect.TypeOf(time.Duration(0)), 20 * time.Millisecond},
		{"comma list", "a, b,c", reflect.TypeOf([]string{}), []string{"a", "b", "c"}},
		{"empty list", "  ", reflect.TypeOf([]string{}), []string{}},
		{"any list to ints", []any{"1", 2, 3.0}, reflect.TypeOf([]int{}), []int{1, 2, 3}},
		{"scalar to list", 7, reflect.TypeOf([]int{}), []int{7}},
		{"map", map[string]any{"a": "1"}, reflect.TypeOf(map[string]int{}), map[string]int{"a": 1}},
		{"yaml style map", map[any]any{"a": true}, reflect.TypeOf(map[string]bool{}), map[string]bool{"a": true}},
		{"pointer", "5", reflect.TypeOf((*int)(nil)), intPtr(5)},
		{"text unmarshaler", "10.0.0.1", reflect.TypeOf(net.IP{}), ip},
		{"decimal", "0.1", reflect.TypeOf(decimal.Decimal{}), decimal.RequireFromString("0.1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerce(tt.raw, tt.typ)
			if err != nil {
				t.Fatalf("coerce(%v, %s) error = %v", tt.raw, tt.typ, err)
			}
			if !reflect.DeepEqual(got.Interface(), tt.want) {
				t.Errorf("coerce(%v, %s) = %#v, want %#v", tt.raw, tt.typ, got.Interface(), tt.want)
			}
		})
	}
}

func TestCoerce_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		typ     reflect.Type
		wantErr string
	}{
		{"not a number", "notanumber", reflect.TypeOf(0), `invalid int value "notanumber"`},
		{"fractional float to int", 1.5, reflect.TypeOf(0), "is not an integer"},
		{"int8 overflow", 300, reflect.TypeOf(int8(0)), "overflows int8"},
		{"negative to uint", -1, reflect.TypeOf(uint(0)), "is negative"},
		{"uint64 overflows int64", uint64(math.MaxUint64), reflect.TypeOf(int64(0)), "overflows"},
		{"float32 overflow", math.MaxFloat64, reflect.TypeOf(float32(0)), "overflows float32"},
		{"bad bool", "maybe", reflect.TypeOf(false), `invalid bool value "maybe"`},
		{"bool from int", 1, reflect.TypeOf(false), "cannot convert int to bool"},
		{"bad duration", "soon", reflect.TypeOf(time.Duration(0)), `invalid duration "soon"`},
		{"list to string", []any{"a"}, reflect.TypeOf(""), "cannot convert []interface {} to string"},
		{"bad list element", []any{"x"}, reflect.TypeOf([]int{}), "element 0"},
		{"map from string", "a=b", reflect.TypeOf(map[string]string{}), "cannot convert string"},
		{"map with int keys", map[string]any{}, reflect.TypeOf(map[int]string{}), "unsupported map key type"},
		{"text unmarshal failure", "nope", reflect.TypeOf(decimal.Decimal{}), "invalid decimal.Decimal value"},
		{"unsupported kind", "x", reflect.TypeOf(make(chan int)), "cannot convert string to chan int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coerce(tt.raw, tt.typ)
			if err == nil {
				t.Fatalf("coerce(%v, %s) expected error", tt.raw, tt.typ)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func intPtr(n int) *int { return &n }
