// Package view keeps the dashboard's rendered state. Board receives updates
// from the session and serves consistent snapshots to HTTP readers.
package view

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/weather"
)

// CurrentCard is the current-conditions card as displayed.
type CurrentCard struct {
	Location    string          `json:"location"`
	Temperature int             `json:"temperature"`
	Description string          `json:"description"`
	IconURL     string          `json:"iconUrl"`
	Humidity    int             `json:"humidity"`
	WindSpeed   float64         `json:"windSpeed"`
	Pressure    int             `json:"pressure"`
	Category    models.Category `json:"category"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// DayCard is one row of the forecast list.
type DayCard struct {
	Date        string `json:"date"`
	Label       string `json:"label"`
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	Description string `json:"description"`
	IconURL     string `json:"iconUrl"`
}

// Snapshot is a copy of everything on the board. Version increases on every change.
type Snapshot struct {
	Version   uint64        `json:"version"`
	Current   *CurrentCard  `json:"current,omitempty"`
	Forecast  []DayCard     `json:"forecast"`
	Status    models.Status `json:"status"`
	Theme     models.Theme  `json:"theme"`
	Animation string        `json:"animation,omitempty"`
}

// Board implements dashboard.Presenter.
type Board struct {
	host     AnimationHost
	iconBase string
	now      func() time.Time
	logger   *zap.Logger

	mu   sync.RWMutex
	snap Snapshot
	anim Animation
}

// NewBoard returns a board showing the Clear animation and the dark theme.
// iconBase is the provider icon URL prefix (weather.DefaultIconBase when empty).
func NewBoard(host AnimationHost, iconBase string, logger *zap.Logger) *Board {
	if host == nil {
		host = NewAssetHost(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Board{
		host:     host,
		iconBase: iconBase,
		now:      time.Now,
		logger:   logger,
		snap:     Snapshot{Forecast: []DayCard{}, Theme: models.ThemeDark},
	}
	b.mu.Lock()
	b.playLocked(models.CategoryClear)
	b.mu.Unlock()
	return b
}

// Snapshot returns a copy of the board.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := b.snap
	if s.Current != nil {
		c := *s.Current
		s.Current = &c
	}
	s.Forecast = append([]DayCard(nil), s.Forecast...)
	return s
}

func (b *Board) DisplayCurrent(c models.CurrentConditions) {
	card := b.currentCard(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.Current = card
	b.snap.Version++
}

func (b *Board) DisplayForecast(days []models.DailySummary) {
	cards := b.dayCards(days)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.Forecast = cards
	b.snap.Version++
}

// DisplayResult swaps the current card, the forecast and the animation under
// one lock and one version bump.
func (b *Board) DisplayResult(c models.CurrentConditions, days []models.DailySummary) {
	card := b.currentCard(c)
	cards := b.dayCards(days)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.Current = card
	b.snap.Forecast = cards
	b.playLocked(c.Category)
	b.snap.Version++
}

func (b *Board) currentCard(c models.CurrentConditions) *CurrentCard {
	return &CurrentCard{
		Location:    c.DisplayName(),
		Temperature: int(math.Round(c.Temperature)),
		Description: c.Description,
		IconURL:     weather.IconURL(b.iconBase, c.Icon),
		Humidity:    c.Humidity,
		WindSpeed:   c.WindSpeed,
		Pressure:    c.Pressure,
		Category:    c.Category,
		UpdatedAt:   b.now(),
	}
}

func (b *Board) dayCards(days []models.DailySummary) []DayCard {
	cards := make([]DayCard, 0, len(days))
	for _, d := range days {
		cards = append(cards, DayCard{
			Date:        d.Date.String(),
			Label:       d.Date.Short(),
			Min:         d.Min,
			Max:         d.Max,
			Description: d.Description,
			IconURL:     weather.IconURL(b.iconBase, d.Icon),
		})
	}
	return cards
}

func (b *Board) DisplayStatus(text string, isError bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.Status = models.Status{Text: text, IsError: isError}
	b.snap.Version++
}

func (b *Board) DisplayTheme(t models.Theme) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.Theme = t
	b.snap.Version++
}

func (b *Board) DisplayAmbientAnimation(c models.Category) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playLocked(c)
	b.snap.Version++
}

// playLocked swaps the animation. The previous handle is released before the
// next is acquired, even if acquisition panics.
func (b *Board) playLocked(c models.Category) {
	func() {
		prev := b.anim
		b.anim = nil
		b.snap.Animation = ""
		if prev != nil {
			defer prev.Release()
		}
	}()

	anim, err := b.host.Acquire(c)
	if err != nil {
		b.logger.Warn("animation unavailable", zap.String("category", string(c)), zap.Error(err))
		return
	}
	b.anim = anim
	b.snap.Animation = anim.Asset()
}

// Close releases the playing animation.
func (b *Board) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.anim != nil {
		b.anim.Release()
		b.anim = nil
		b.snap.Animation = ""
	}
	return nil
}
