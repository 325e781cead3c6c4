package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// ErrInvalid is wrapped by every error this package returns.
var ErrInvalid = errors.New("invalid input")

// ErrLocationEmpty is returned when location is empty or whitespace-only after trim.
var ErrLocationEmpty = fmt.Errorf("%w: location is required", ErrInvalid)

// ErrLocationTooLong is returned when location length exceeds the maximum.
var ErrLocationTooLong = fmt.Errorf("%w: location too long", ErrInvalid)

// ErrLocationInvalidChars is returned when location contains control characters.
var ErrLocationInvalidChars = fmt.Errorf("%w: location contains invalid characters", ErrInvalid)

// ErrCoordinatesOutOfRange is returned for latitudes outside [-90, 90],
// longitudes outside [-180, 180], or non-finite values.
var ErrCoordinatesOutOfRange = fmt.Errorf("%w: coordinates out of range", ErrInvalid)

// ValidateLocation trims the input and enforces a maximum length in runes
// (maxLen <= 0 disables the bound). Any printable text is accepted, since
// place names carry apostrophes, dots and other punctuation; control
// characters are rejected. Returns the trimmed string.
func ValidateLocation(input string, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrLocationEmpty
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrLocationTooLong
	}
	for _, c := range r {
		if unicode.IsControl(c) {
			return "", ErrLocationInvalidChars
		}
	}
	return s, nil
}

// ValidateCoordinates checks latitude and longitude ranges.
func ValidateCoordinates(lat, lon float64) error {
	if !finite(lat) || !finite(lon) {
		return ErrCoordinatesOutOfRange
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrCoordinatesOutOfRange
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
