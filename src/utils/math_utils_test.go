package utils

import (
	"math"
	"testing"
)

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		val       float64
		precision uint
		want      float64
	}{
		{2.344, 2, 2.34},
		{8360.0, 2, 8360.0},
		{0, 2, 0},
		{1234.5678, 0, 1235},
	}
	for _, tc := range tests {
		if got := RoundFloat(tc.val, tc.precision); got != tc.want {
			t.Errorf("RoundFloat(%v, %d) = %v, want %v", tc.val, tc.precision, got, tc.want)
		}
	}
}

func TestRound2HalfUp(t *testing.T) {
	tests := []struct {
		val  float64
		want float64
	}{
		{2.345, 2.35}, // binary 2.34499... still rounds up
		{2.344, 2.34},
		{0.005, 0.01},
		{8955.0 * 25 / 100, 2238.75},
		{0, 0},
	}
	for _, tc := range tests {
		if got := Round2(tc.val); got != tc.want {
			t.Errorf("Round2(%v) = %v, want %v", tc.val, got, tc.want)
		}
	}
}

func TestSafeNumber(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  float64
	}{
		{"float64", 12.5, 12.5},
		{"int", 7, 7},
		{"int64", int64(-3), -3},
		{"numeric string", "300000", 300000},
		{"string with thousands separators", "1,250,000.50", 1250000.50},
		{"string with currency symbol", "$5000", 5000},
		{"empty string", "", 0},
		{"garbage string", "abc", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
		{"NaN", math.NaN(), 0},
		{"Inf", math.Inf(1), 0},
		{"Inf string", "Inf", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SafeNumber(tc.input); got != tc.want {
				t.Errorf("SafeNumber(%v) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}
