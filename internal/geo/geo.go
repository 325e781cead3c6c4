// Package geo resolves the user's approximate position. The server cannot see
// the browser's position, so it asks an IP geolocation service or falls back
// to a configured fixed point.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
)

// DefaultIPURL is the ip-api.com JSON endpoint.
const DefaultIPURL = "http://ip-api.com/json/"

var (
	// ErrUnavailable means no position could be determined (lookup failed or timed out).
	ErrUnavailable = errors.New("location unavailable")
	// ErrDenied means the lookup service refused to answer.
	ErrDenied = errors.New("location permission denied")
)

// Locator returns the current position. Implementations must honour ctx deadlines.
type Locator interface {
	Locate(ctx context.Context) (models.Coordinates, error)
}

// IPLocator looks the caller up via an ip-api compatible endpoint.
type IPLocator struct {
	url        string
	httpClient *http.Client
}

// NewIPLocator returns a locator for url (DefaultIPURL when empty). timeout
// bounds each lookup in addition to any ctx deadline.
func NewIPLocator(url string, timeout time.Duration) *IPLocator {
	if url == "" {
		url = DefaultIPURL
	}
	return &IPLocator{url: url, httpClient: &http.Client{Timeout: timeout}}
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Locate implements Locator.
func (l *IPLocator) Locate(ctx context.Context) (models.Coordinates, error) {
	c, err := l.locate(ctx)
	observeLookup(err)
	return c, err
}

func (l *IPLocator) locate(ctx context.Context) (models.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return models.Coordinates{}, fmt.Errorf("%w: status %d", ErrDenied, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return models.Coordinates{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var r ipAPIResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if r.Status != "" && r.Status != "success" {
		return models.Coordinates{}, fmt.Errorf("%w: %s", ErrUnavailable, r.Message)
	}
	c := models.Coordinates{Latitude: r.Lat, Longitude: r.Lon}
	if err := validation.ValidateCoordinates(c.Latitude, c.Longitude); err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return c, nil
}

// StaticLocator always reports the same position.
type StaticLocator struct {
	Coords models.Coordinates
}

func (s StaticLocator) Locate(ctx context.Context) (models.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		observeLookup(err)
		return models.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	observeLookup(nil)
	return s.Coords, nil
}

func observeLookup(err error) {
	outcome := "success"
	switch {
	case errors.Is(err, ErrDenied):
		outcome = "denied"
	case err != nil:
		outcome = "unavailable"
	}
	observability.GeolocationLookupsTotal.WithLabelValues(outcome).Inc()
}
