// Package forecast collapses 3-hour forecast intervals into daily summaries.
package forecast

import (
	"math"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// MaxDays is the most daily summaries Aggregate returns.
const MaxDays = 5

// middayHour is the local hour the representative interval is chosen against.
const middayHour = 12

// Aggregate groups intervals by calendar day in loc and summarizes each day:
// min of TempMin, max of TempMax, and icon/description/category from the
// interval closest to local noon (first one wins on ties). Days are emitted in
// first-seen order and truncated to MaxDays. A nil loc means time.Local.
func Aggregate(intervals []models.Interval, loc *time.Location) []models.DailySummary {
	if loc == nil {
		loc = time.Local
	}

	order := make([]models.Date, 0, MaxDays)
	groups := make(map[models.Date][]models.Interval)
	for _, it := range intervals {
		key := models.DateOf(it.Time, loc)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], it)
	}

	if len(order) > MaxDays {
		order = order[:MaxDays]
	}

	out := make([]models.DailySummary, 0, len(order))
	for _, day := range order {
		out = append(out, summarize(day, groups[day], loc))
	}
	return out
}

// summarize requires a non-empty group; every key in Aggregate has at least one member.
func summarize(day models.Date, group []models.Interval, loc *time.Location) models.DailySummary {
	lo, hi := group[0].TempMin, group[0].TempMax
	best := group[0]
	bestDist := middayDistance(best.Time, loc)

	for _, it := range group[1:] {
		lo = math.Min(lo, it.TempMin)
		hi = math.Max(hi, it.TempMax)
		if d := middayDistance(it.Time, loc); d < bestDist {
			best, bestDist = it, d
		}
	}

	return models.DailySummary{
		Date:        day,
		Min:         roundTemp(lo),
		Max:         roundTemp(hi),
		Icon:        best.Icon,
		Description: best.Description,
		Category:    best.Category,
	}
}

func middayDistance(t time.Time, loc *time.Location) int {
	d := t.In(loc).Hour() - middayHour
	if d < 0 {
		return -d
	}
	return d
}

// roundTemp rounds half away from zero (math.Round), so -0.5 becomes -1.
func roundTemp(v float64) int {
	return int(math.Round(v))
}
