package validation

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestValidateLocation_EmptyAndWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tab", "\t"},
		{"newline", " \n "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateLocation(tc.input, 100)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrLocationEmpty) {
				t.Errorf("error = %v, want ErrLocationEmpty", err)
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error = %v, want it to wrap ErrInvalid", err)
			}
		})
	}
}

func TestValidateLocation_TooLong(t *testing.T) {
	_, err := ValidateLocation(strings.Repeat("a", 101), 100)
	if !errors.Is(err, ErrLocationTooLong) {
		t.Errorf("error = %v, want ErrLocationTooLong", err)
	}
}

func TestValidateLocation_NoMaxWhenZero(t *testing.T) {
	if _, err := ValidateLocation(strings.Repeat("a", 1000), 0); err != nil {
		t.Errorf("error = %v, want nil when maxLen is 0", err)
	}
}

func TestValidateLocation_ControlChars(t *testing.T) {
	for _, in := range []string{"sea\x00ttle", "sea\x1bttle"} {
		_, err := ValidateLocation(in, 100)
		if !errors.Is(err, ErrLocationInvalidChars) {
			t.Errorf("ValidateLocation(%q) error = %v, want ErrLocationInvalidChars", in, err)
		}
	}
}

func TestValidateLocation_Valid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantNorm string
	}{
		{"simple", "Seattle", "Seattle"},
		{"with space", "New York", "New York"},
		{"comma", "London,uk", "London,uk"},
		{"apostrophe and dot", "St. John's", "St. John's"},
		{"trimmed", "  Boston  ", "Boston"},
		{"unicode", "Zürich", "Zürich"},
		{"ampersand", "Rio & Co", "Rio & Co"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateLocation(tc.input, 100)
			if err != nil {
				t.Fatalf("ValidateLocation() err = %v", err)
			}
			if got != tc.wantNorm {
				t.Errorf("normalized = %q, want %q", got, tc.wantNorm)
			}
		})
	}
}

func TestValidateLocation_MaxBoundaryCountsRunes(t *testing.T) {
	s := strings.Repeat("ü", 100)
	got, err := ValidateLocation(s, 100)
	if err != nil {
		t.Fatalf("max boundary: err = %v", err)
	}
	if len([]rune(got)) != 100 {
		t.Errorf("rune count = %d, want 100", len([]rune(got)))
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		wantErr  bool
	}{
		{"origin", 0, 0, false},
		{"bounds", -90, 180, false},
		{"seattle", 47.6, -122.3, false},
		{"lat too big", 90.1, 0, true},
		{"lon too small", 0, -180.5, true},
		{"nan", math.NaN(), 0, true},
		{"inf", 0, math.Inf(1), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCoordinates(tc.lat, tc.lon)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateCoordinates(%v, %v) error = %v, wantErr %v", tc.lat, tc.lon, err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrCoordinatesOutOfRange) {
				t.Errorf("error = %v, want ErrCoordinatesOutOfRange", err)
			}
		})
	}
}
