package models

import "fmt"

// QueryKind distinguishes the two search targets.
type QueryKind string

const (
	QueryCity   QueryKind = "city"
	QueryCoords QueryKind = "coords"
)

// Query is the last search target, kept so refresh can replay it.
// Values are replaced, never mutated.
type Query struct {
	Kind   QueryKind   `json:"kind"`
	City   string      `json:"city,omitempty"`
	Coords Coordinates `json:"coords"`
}

// CityQuery returns a city-name query.
func CityQuery(name string) Query {
	return Query{Kind: QueryCity, City: name}
}

// CoordsQuery returns a coordinates query.
func CoordsQuery(c Coordinates) Query {
	return Query{Kind: QueryCoords, Coords: c}
}

func (q Query) String() string {
	if q.Kind == QueryCity {
		return fmt.Sprintf("city:%s", q.City)
	}
	return fmt.Sprintf("coords:%s", q.Coords)
}
