//go:build integration
// +build integration

package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"testing"
	"time"
)

func isValidAPIKeyFormat(key string) error {
	if len(key) != 32 {
		return fmt.Errorf("API key length is %d, expected 32", len(key))
	}

	hexPattern := regexp.MustCompile(`^[0-9a-fA-F]+$`)
	if !hexPattern.MatchString(key) {
		return fmt.Errorf("API key contains non-hexadecimal characters")
	}

	return nil
}

func weatherURL(params url.Values) string {
	return "https://api.openweathermap.org/data/2.5/weather?" + params.Encode()
}

func TestHTTPClient_FetchJSON_Integration(t *testing.T) {
	apiKey := os.Getenv("WEATHER_API_KEY")
	if apiKey == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}
	if err := isValidAPIKeyFormat(apiKey); err != nil {
		t.Fatalf("API key format validation failed: %v", err)
	}

	c := New(5 * time.Second)
	var out struct {
		Name string `json:"name"`
	}
	err := c.FetchJSON(context.Background(), weatherURL(url.Values{"q": {"London"}, "appid": {apiKey}, "units": {"metric"}}), &out)
	if err != nil {
		t.Fatalf("FetchJSON() error = %v (API key may not be activated yet)", err)
	}
	if out.Name == "" {
		t.Error("FetchJSON() returned empty name")
	}
}

func TestHTTPClient_FetchJSON_BadKey_Integration(t *testing.T) {
	if os.Getenv("WEATHER_API_KEY") == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}

	c := New(5 * time.Second)
	var out struct{}
	err := c.FetchJSON(context.Background(), weatherURL(url.Values{"q": {"London"}, "appid": {"0000000000000000000000000000000"}}), &out)
	if !errors.Is(err, ErrAuth) {
		t.Errorf("FetchJSON() error = %v, want ErrAuth", err)
	}
}
