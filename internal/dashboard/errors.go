package dashboard

import (
	"errors"
	"fmt"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

var (
	// ErrNoQuery is returned by Refresh before any search has succeeded.
	ErrNoQuery = errors.New("nothing to refresh")
	// ErrGeolocationUnsupported is returned by UseMyLocation when no Locator is configured.
	ErrGeolocationUnsupported = errors.New("geolocation not supported")
)

// ValidationError wraps bad user input. It is raised before any network call.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "validation: " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// GeolocationError wraps a failed user-invoked location lookup.
type GeolocationError struct {
	Err error
}

func (e *GeolocationError) Error() string { return "geolocation: " + e.Err.Error() }

func (e *GeolocationError) Unwrap() error { return e.Err }

// Message returns the user-facing status text for an action error.
func Message(err error) string {
	var (
		valErr *ValidationError
		geoErr *GeolocationError
		apiErr *client.APIError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &valErr):
		switch {
		case errors.Is(err, validation.ErrLocationTooLong):
			return "location too long"
		case errors.Is(err, validation.ErrLocationInvalidChars):
			return "location contains invalid characters"
		case errors.Is(err, validation.ErrCoordinatesOutOfRange):
			return "coordinates out of range"
		}
		return "please enter a location"
	case errors.Is(err, ErrNoQuery):
		return "nothing to refresh"
	case errors.Is(err, ErrGeolocationUnsupported):
		return "geolocation not supported"
	case errors.As(err, &geoErr):
		return "unable to get location"
	case errors.Is(err, client.ErrAuth):
		return "invalid credential, check configuration"
	case errors.Is(err, client.ErrNotFound):
		return "location not found"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("provider error %d: %s", apiErr.Status, apiErr.Body)
	case errors.Is(err, client.ErrNetwork):
		return "network error, check your connection"
	case errors.Is(err, client.ErrParse):
		return "unexpected response from provider"
	}
	return "unexpected error"
}

// outcome is the dashboardActionsTotal outcome label for err.
func outcome(err error) string {
	var valErr *ValidationError
	var geoErr *GeolocationError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &valErr):
		return "validation"
	case errors.Is(err, ErrNoQuery):
		return "no_query"
	case errors.Is(err, ErrGeolocationUnsupported), errors.As(err, &geoErr):
		return "geolocation"
	}
	return string(client.CategorizeError(err))
}

// userError reports whether err was caused by the caller rather than a dependency.
func userError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr) || errors.Is(err, ErrNoQuery)
}
