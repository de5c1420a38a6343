package util

import (
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestEstimateMinutes(t *testing.T) {
	tests := []struct {
		name   string
		input  *string
		want   int
		wantOK bool
	}{
		{"nil", nil, 0, false},
		{"empty", strPtr(""), 0, false},
		{"no digits", strPtr("just do it, no rush"), 0, false},
		{"embedded", strPtr("Take 45 minutes or so"), 45, true},
		{"first match wins", strPtr("between 5 and 10 min"), 5, true},
		{"leading zeros", strPtr("007 steps"), 7, true},
		{"zero", strPtr("0 effort"), 0, true},
		{"glued to words", strPtr("approx20min"), 20, true},
		{"overflow skipped", strPtr("99999999999999999999999 then 12"), 12, true},
		{"minus sign ignored", strPtr("-15 minutes"), 15, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EstimateMinutes(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("EstimateMinutes() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"PT1H", time.Hour, false},
		{"PT30M", 30 * time.Minute, false},
		{"PT1H30M", 90 * time.Minute, false},
		{"PT45S", 45 * time.Second, false},
		{"1h", 0, true},
		{"P1D", 0, true},
		{"PT", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
