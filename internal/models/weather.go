package models

import (
	"fmt"
	"strings"
	"time"
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// Category is the provider's weather group ("main" field), collapsed to the
// groups the dashboard distinguishes.
type Category string

const (
	CategoryClear        Category = "Clear"
	CategoryClouds       Category = "Clouds"
	CategoryRain         Category = "Rain"
	CategoryDrizzle      Category = "Drizzle"
	CategoryThunderstorm Category = "Thunderstorm"
	CategorySnow         Category = "Snow"
	CategoryAtmosphere   Category = "Atmosphere"
	CategoryUnknown      Category = "Unknown"
)

// ParseCategory maps the provider's "main" value to a Category.
// Mist, Smoke, Haze, Dust, Fog and the other atmospheric groups share one bucket.
func ParseCategory(main string) Category {
	switch strings.ToLower(strings.TrimSpace(main)) {
	case "clear":
		return CategoryClear
	case "clouds":
		return CategoryClouds
	case "rain":
		return CategoryRain
	case "drizzle":
		return CategoryDrizzle
	case "thunderstorm":
		return CategoryThunderstorm
	case "snow":
		return CategorySnow
	case "mist", "smoke", "haze", "dust", "fog", "sand", "ash", "squall", "tornado":
		return CategoryAtmosphere
	default:
		return CategoryUnknown
	}
}

// CurrentConditions is the current-weather summary for one location.
type CurrentConditions struct {
	Name        string   `json:"name"`
	Country     string   `json:"country"`
	Temperature float64  `json:"temperature"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Category    Category `json:"category"`
	Humidity    int      `json:"humidity"`
	WindSpeed   float64  `json:"windSpeed"`
	Pressure    int      `json:"pressure"`
}

// DisplayName returns "Name, CC" with "Unknown" for a missing name.
func (c CurrentConditions) DisplayName() string {
	name := c.Name
	if name == "" {
		name = "Unknown"
	}
	return name + ", " + c.Country
}

// Interval is one 3-hour forecast sample.
type Interval struct {
	Time        time.Time `json:"time"`
	TempMin     float64   `json:"tempMin"`
	TempMax     float64   `json:"tempMax"`
	Category    Category  `json:"category"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
}

// Theme is the persisted display theme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns ThemeLight for "light" and ThemeDark for anything else.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(ThemeLight)) {
		return ThemeLight
	}
	return ThemeDark
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// Status is the user-facing status line.
type Status struct {
	Text    string `json:"text"`
	IsError bool   `json:"isError"`
}
