package view

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

type countingHost struct {
	acquired  []models.Category
	released  int
	failNext  bool
	panicNext bool
}

type countingAnimation struct {
	host  *countingHost
	asset string
}

func (a *countingAnimation) Asset() string { return a.asset }
func (a *countingAnimation) Release()      { a.host.released++ }

func (h *countingHost) Acquire(c models.Category) (Animation, error) {
	if h.panicNext {
		h.panicNext = false
		panic("renderer crashed")
	}
	if h.failNext {
		h.failNext = false
		return nil, errors.New("no renderer")
	}
	h.acquired = append(h.acquired, c)
	return &countingAnimation{host: h, asset: "anim:" + string(c)}, nil
}

func (h *countingHost) live() int { return len(h.acquired) - h.released }

func TestNewBoard_Defaults(t *testing.T) {
	b := NewBoard(nil, "", nil)
	s := b.Snapshot()
	if s.Theme != models.ThemeDark {
		t.Errorf("Theme = %q, want dark", s.Theme)
	}
	if s.Animation != DefaultAssets[models.CategoryClear] {
		t.Errorf("Animation = %q, want the Clear asset", s.Animation)
	}
	if s.Forecast == nil || len(s.Forecast) != 0 {
		t.Errorf("Forecast = %v, want empty", s.Forecast)
	}
	if s.Current != nil {
		t.Error("Current should be nil before any update")
	}
}

func TestBoard_DisplayCurrent(t *testing.T) {
	b := NewBoard(&countingHost{}, "https://icons.test/", nil)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	b.DisplayCurrent(models.CurrentConditions{
		Name: "Lisbon", Country: "PT", Temperature: 18.5, Description: "clear sky",
		Icon: "01d", Category: models.CategoryClear, Humidity: 40, WindSpeed: 2.1, Pressure: 1020,
	})
	c := b.Snapshot().Current
	if c == nil {
		t.Fatal("Current is nil")
	}
	if c.Location != "Lisbon, PT" || c.Temperature != 19 {
		t.Errorf("card = %+v", c)
	}
	if c.IconURL != "https://icons.test/01d@2x.png" {
		t.Errorf("IconURL = %q", c.IconURL)
	}
	if !c.UpdatedAt.Equal(fixed) {
		t.Errorf("UpdatedAt = %v", c.UpdatedAt)
	}
}

func TestBoard_DisplayForecast(t *testing.T) {
	b := NewBoard(&countingHost{}, "", nil)
	b.DisplayForecast([]models.DailySummary{
		{Date: models.Date{Year: 2024, Month: time.October, Day: 14}, Min: 3, Max: 9, Icon: "10d", Description: "rain"},
	})
	f := b.Snapshot().Forecast
	if len(f) != 1 {
		t.Fatalf("len = %d", len(f))
	}
	want := DayCard{Date: "2024-10-14", Label: "Mon, Oct 14", Min: 3, Max: 9, Description: "rain",
		IconURL: "https://openweathermap.org/img/wn/10d@2x.png"}
	if f[0] != want {
		t.Errorf("card = %+v, want %+v", f[0], want)
	}
}

func TestBoard_DisplayResult(t *testing.T) {
	host := &countingHost{}
	b := NewBoard(host, "", nil)
	v0 := b.Snapshot().Version
	b.DisplayResult(models.CurrentConditions{Name: "Oslo", Country: "NO", Category: models.CategorySnow},
		[]models.DailySummary{{Min: -4, Max: 1}})

	s := b.Snapshot()
	if s.Version != v0+1 {
		t.Errorf("Version = %d, want %d", s.Version, v0+1)
	}
	if s.Current == nil || s.Current.Location != "Oslo, NO" {
		t.Fatalf("Current = %+v", s.Current)
	}
	if len(s.Forecast) != 1 || s.Forecast[0].Min != -4 {
		t.Errorf("Forecast = %+v", s.Forecast)
	}
	if s.Animation != "anim:Snow" || host.live() != 1 {
		t.Errorf("Animation = %q, live = %d", s.Animation, host.live())
	}
}

// Readers must never see a current card paired with another result's forecast.
func TestBoard_DisplayResultIsAtomic(t *testing.T) {
	b := NewBoard(&countingHost{}, "", nil)
	results := []struct {
		name string
		min  int
	}{{"A", 1}, {"B", 2}}
	b.DisplayResult(models.CurrentConditions{Name: "A", Country: "GB"}, []models.DailySummary{{Min: 1}})

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			r := results[i%2]
			b.DisplayResult(models.CurrentConditions{Name: r.name, Country: "GB"}, []models.DailySummary{{Min: r.min}})
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			wg.Wait()
			return
		default:
		}
		s := b.Snapshot()
		want := map[string]int{"A, GB": 1, "B, GB": 2}[s.Current.Location]
		if len(s.Forecast) != 1 || s.Forecast[0].Min != want {
			t.Fatalf("current %q paired with forecast %+v", s.Current.Location, s.Forecast)
		}
	}
}

func TestBoard_SnapshotIsACopy(t *testing.T) {
	b := NewBoard(&countingHost{}, "", nil)
	b.DisplayCurrent(models.CurrentConditions{Name: "A"})
	b.DisplayForecast([]models.DailySummary{{Min: 1}})

	s := b.Snapshot()
	s.Current.Location = "mutated"
	s.Forecast[0].Min = 99
	again := b.Snapshot()
	if again.Current.Location == "mutated" || again.Forecast[0].Min == 99 {
		t.Error("Snapshot() shares memory with the board")
	}
}

func TestBoard_VersionIncreases(t *testing.T) {
	b := NewBoard(&countingHost{}, "", nil)
	v0 := b.Snapshot().Version
	b.DisplayStatus("searching...", false)
	b.DisplayTheme(models.ThemeLight)
	s := b.Snapshot()
	if s.Version != v0+2 {
		t.Errorf("Version = %d, want %d", s.Version, v0+2)
	}
	if s.Status != (models.Status{Text: "searching..."}) || s.Theme != models.ThemeLight {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestBoard_AnimationReleasedBeforeNextAcquire(t *testing.T) {
	host := &countingHost{}
	b := NewBoard(host, "", nil)
	for _, c := range []models.Category{models.CategoryRain, models.CategorySnow, models.CategoryClouds} {
		b.DisplayAmbientAnimation(c)
		if host.live() != 1 {
			t.Fatalf("after %s: live animations = %d, want 1", c, host.live())
		}
	}
	if got := b.Snapshot().Animation; got != "anim:Clouds" {
		t.Errorf("Animation = %q", got)
	}
	b.Close()
	if host.live() != 0 {
		t.Errorf("live after Close = %d, want 0", host.live())
	}
}

func TestBoard_AnimationReleasedWhenAcquireFails(t *testing.T) {
	host := &countingHost{}
	b := NewBoard(host, "", nil)

	host.failNext = true
	b.DisplayAmbientAnimation(models.CategoryRain)
	if host.live() != 0 {
		t.Errorf("live = %d, want 0 after failed acquire", host.live())
	}
	if b.Snapshot().Animation != "" {
		t.Error("Animation should be cleared after failed acquire")
	}

	b.DisplayAmbientAnimation(models.CategorySnow)
	host.panicNext = true
	func() {
		defer func() { _ = recover() }()
		b.DisplayAmbientAnimation(models.CategoryRain)
	}()
	if host.live() != 0 {
		t.Errorf("live = %d, want 0 after panicking acquire", host.live())
	}
}

func TestAssetHost(t *testing.T) {
	h := NewAssetHost(nil)
	tests := []struct {
		c    models.Category
		want string
	}{
		{models.CategoryDrizzle, DefaultAssets[models.CategoryRain]},
		{models.CategoryAtmosphere, "https://assets3.lottiefiles.com/packages/lf20_u4yrau.json"},
		{models.CategoryUnknown, DefaultAssets[models.CategoryClear]},
	}
	for _, tt := range tests {
		a, err := h.Acquire(tt.c)
		if err != nil {
			t.Fatal(err)
		}
		if a.Asset() != tt.want {
			t.Errorf("Acquire(%s).Asset() = %q, want %q", tt.c, a.Asset(), tt.want)
		}
		a.Release()
		a.Release()
	}
	if h.Live() != 0 {
		t.Errorf("Live() = %d, want 0", h.Live())
	}
}
