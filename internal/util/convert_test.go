package util

import (
	"encoding/json"
	"math"
	"testing"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{148.0, 148, true},
		{int(3), 3, true},
		{json.Number("0.627"), 0.627, true},
		{" 33.6 ", 33.6, true},
		{"n/a", 0, false},
		{"NaN", 0, false},
		{"Infinity", 0, false},
		{"-Inf", 0, false},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{json.Number("1e400"), 0, false},
		{nil, 0, false},
		{map[string]any{"a": 1.0}, 0, false},
	}

	for _, tt := range tests {
		got, ok := ToFloat(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ToFloat(%#v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"2025-05-01", "2025-05-01"},
		{148.0, "148"},
		{0.5, "0.5"},
		{0.627, "0.627"},
		{true, "true"},
		{json.Number("12"), "12"},
		{map[string]any{"Glucose": 0.4}, `{"Glucose":0.4}`},
	}

	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
