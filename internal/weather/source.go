// Package weather builds OpenWeatherMap query URLs and maps the current and
// 5-day/3-hour forecast responses to dashboard models.
package weather

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/client"
	"github.com/kjstillabower/weather-dashboard/internal/models"
)

const (
	DefaultBaseURL  = "https://api.openweathermap.org/data/2.5"
	DefaultIconBase = "https://openweathermap.org/img/wn/"
	DefaultUnits    = "metric"
)

// Source is the weather data source used by the dashboard session.
type Source interface {
	CurrentByCity(ctx context.Context, name string) (models.CurrentConditions, error)
	ForecastByCity(ctx context.Context, name string) ([]models.Interval, error)
	CurrentByCoordinates(ctx context.Context, lat, lon float64) (models.CurrentConditions, error)
	ForecastByCoordinates(ctx context.Context, lat, lon float64) ([]models.Interval, error)
}

// OpenWeatherSource implements Source against the OpenWeatherMap 2.5 API.
// Every call is one fresh round trip; nothing is cached.
type OpenWeatherSource struct {
	fetcher client.Fetcher
	baseURL string
	apiKey  string
	units   string
}

// NewOpenWeatherSource returns a source. baseURL is the API root without the
// endpoint segment (e.g. https://api.openweathermap.org/data/2.5).
func NewOpenWeatherSource(fetcher client.Fetcher, baseURL, apiKey, units string) (*OpenWeatherSource, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("weather source: fetcher is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("weather source: %w: API key is required", client.ErrAuth)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("weather source: invalid base URL: %w", err)
	}
	if units == "" {
		units = DefaultUnits
	}
	return &OpenWeatherSource{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		units:   units,
	}, nil
}

// CurrentByCity fetches current conditions for a free-text location name.
func (s *OpenWeatherSource) CurrentByCity(ctx context.Context, name string) (models.CurrentConditions, error) {
	var resp currentResponse
	if err := s.fetcher.FetchJSON(ctx, s.cityURL("weather", name), &resp); err != nil {
		return models.CurrentConditions{}, fmt.Errorf("current weather for %q: %w", name, err)
	}
	return mapCurrent(resp)
}

// ForecastByCity fetches the 3-hour forecast for a free-text location name.
func (s *OpenWeatherSource) ForecastByCity(ctx context.Context, name string) ([]models.Interval, error) {
	var resp forecastResponse
	if err := s.fetcher.FetchJSON(ctx, s.cityURL("forecast", name), &resp); err != nil {
		return nil, fmt.Errorf("forecast for %q: %w", name, err)
	}
	return mapForecast(resp)
}

// CurrentByCoordinates fetches current conditions for a coordinate pair.
func (s *OpenWeatherSource) CurrentByCoordinates(ctx context.Context, lat, lon float64) (models.CurrentConditions, error) {
	var resp currentResponse
	if err := s.fetcher.FetchJSON(ctx, s.coordsURL("weather", lat, lon), &resp); err != nil {
		return models.CurrentConditions{}, fmt.Errorf("current weather for %.4f,%.4f: %w", lat, lon, err)
	}
	return mapCurrent(resp)
}

// ForecastByCoordinates fetches the 3-hour forecast for a coordinate pair.
func (s *OpenWeatherSource) ForecastByCoordinates(ctx context.Context, lat, lon float64) ([]models.Interval, error) {
	var resp forecastResponse
	if err := s.fetcher.FetchJSON(ctx, s.coordsURL("forecast", lat, lon), &resp); err != nil {
		return nil, fmt.Errorf("forecast for %.4f,%.4f: %w", lat, lon, err)
	}
	return mapForecast(resp)
}

// cityURL builds <base>/<endpoint>?q=..&units=..&appid=.. ; url.Values percent-encodes the name.
func (s *OpenWeatherSource) cityURL(endpoint, name string) string {
	params := url.Values{}
	params.Set("q", name)
	return s.buildURL(endpoint, params)
}

func (s *OpenWeatherSource) coordsURL(endpoint string, lat, lon float64) string {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return s.buildURL(endpoint, params)
}

func (s *OpenWeatherSource) buildURL(endpoint string, params url.Values) string {
	params.Set("units", s.units)
	params.Set("appid", s.apiKey)
	return s.baseURL + "/" + endpoint + "?" + params.Encode()
}

type condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type currentResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
		Pressure int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []condition `json:"weather"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			TempMin float64 `json:"temp_min"`
			TempMax float64 `json:"temp_max"`
		} `json:"main"`
		Weather []condition `json:"weather"`
	} `json:"list"`
}

// mapCurrent requires at least one weather condition entry.
func mapCurrent(resp currentResponse) (models.CurrentConditions, error) {
	if len(resp.Weather) == 0 {
		return models.CurrentConditions{}, &client.ParseError{Reason: "current conditions have no weather entries"}
	}
	w := resp.Weather[0]
	return models.CurrentConditions{
		Name:        resp.Name,
		Country:     resp.Sys.Country,
		Temperature: resp.Main.Temp,
		Description: w.Description,
		Icon:        w.Icon,
		Category:    models.ParseCategory(w.Main),
		Humidity:    resp.Main.Humidity,
		WindSpeed:   resp.Wind.Speed,
		Pressure:    resp.Main.Pressure,
	}, nil
}

// mapForecast keeps provider order and requires a condition entry on every interval.
func mapForecast(resp forecastResponse) ([]models.Interval, error) {
	out := make([]models.Interval, 0, len(resp.List))
	for i, item := range resp.List {
		if len(item.Weather) == 0 {
			return nil, &client.ParseError{Reason: fmt.Sprintf("forecast interval %d has no weather entries", i)}
		}
		w := item.Weather[0]
		out = append(out, models.Interval{
			Time:        time.Unix(item.Dt, 0).UTC(),
			TempMin:     item.Main.TempMin,
			TempMax:     item.Main.TempMax,
			Category:    models.ParseCategory(w.Main),
			Icon:        w.Icon,
			Description: w.Description,
		})
	}
	return out, nil
}

// IconURL returns the 2x icon image URL for an icon identifier.
func IconURL(base, icon string) string {
	if icon == "" {
		return ""
	}
	if base == "" {
		base = DefaultIconBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(icon) + "@2x.png"
}
