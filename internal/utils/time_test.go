package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{name: "empty string returns local", timezone: ""},
		{name: "Local returns local", timezone: "Local"},
		{name: "valid timezone UTC", timezone: "UTC"},
		{name: "valid timezone America/New_York", timezone: "America/New_York"},
		{name: "invalid timezone", timezone: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation() returned nil location without error")
			}
		})
	}
}

func TestParseDateInLocation(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")

	got, err := ParseDateInLocation("2026-03-08", ny)
	if err != nil {
		t.Fatalf("ParseDateInLocation() error = %v", err)
	}
	if got.Hour() != 0 || got.Day() != 8 || got.Location() != ny {
		t.Errorf("ParseDateInLocation() = %v", got)
	}

	if _, err := ParseDateInLocation("03/08/2026", ny); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2026, 1, 5, 17, 42, 10, 5, time.UTC)
	got := StartOfDay(in)
	want := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got, want)
	}
}

func TestValidateTimeFormat(t *testing.T) {
	if !ValidateTimeFormat("07:30") {
		t.Error("07:30 should be valid")
	}
	if ValidateTimeFormat("7.30") {
		t.Error("7.30 should be invalid")
	}
	if !ValidateTimezone("UTC") || ValidateTimezone("Mars/Base") {
		t.Error("ValidateTimezone misclassified input")
	}
}
