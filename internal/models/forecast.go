package models

import (
	"fmt"
	"time"
)

// Date is a calendar day in some time zone. It is comparable and used as the
// grouping key for daily summaries, so it never depends on locale formatting.
type Date struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DateOf returns the calendar day of t in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight of the day in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Short formats the day as "Mon, Oct 12".
func (d Date) Short() string {
	return d.Time(time.UTC).Format("Mon, Jan 2")
}

// DailySummary aggregates one calendar day of intervals.
type DailySummary struct {
	Date        Date     `json:"date"`
	Min         int      `json:"min"`
	Max         int      `json:"max"`
	Icon        string   `json:"icon"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
}
