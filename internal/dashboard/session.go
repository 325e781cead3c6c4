// Package dashboard holds the per-process dashboard session: it sequences
// weather fetches for each user action, remembers the last successful query
// for refresh, and maps failures to status text for the presenter.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/forecast"
	"github.com/kjstillabower/weather-dashboard/internal/geo"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/prefs"
	"github.com/kjstillabower/weather-dashboard/internal/traffic"
	"github.com/kjstillabower/weather-dashboard/internal/validation"
	"github.com/kjstillabower/weather-dashboard/internal/weather"
)

// Progress and success status lines.
const (
	StatusSearching       = "searching..."
	StatusUpdated         = "updated"
	StatusFetchingCoords  = "fetching weather for your location..."
	StatusUpdatedCoords   = "updated for your location"
	StatusRefreshing      = "refreshing..."
	StatusGettingLocation = "getting location..."
)

// Default geolocation timeouts for the startup attempt and the user action.
const (
	DefaultAutoLocateTimeout = 8 * time.Second
	DefaultUserLocateTimeout = 10 * time.Second
)

// Presenter receives everything the session wants shown. Calls are opaque sinks.
type Presenter interface {
	DisplayCurrent(models.CurrentConditions)
	DisplayForecast([]models.DailySummary)
	DisplayStatus(text string, isError bool)
	DisplayAmbientAnimation(models.Category)
	DisplayTheme(models.Theme)
}

// Options configures a Session. Source and Presenter are required.
type Options struct {
	Source    weather.Source
	Presenter Presenter
	// Locator is optional; nil means the user-invoked location action is unsupported.
	Locator geo.Locator
	// Store defaults to an in-memory store.
	Store prefs.Store
	// Location is the viewer's time zone for grouping forecast days; nil means time.Local.
	Location          *time.Location
	MaxLocationLength int
	AutoLocateTimeout time.Duration
	UserLocateTimeout time.Duration
	Logger            *zap.Logger
}

// Session is created at startup and lives for the process. Actions are
// serialized: a second action waits for the one in flight to finish.
type Session struct {
	source    weather.Source
	presenter Presenter
	locator   geo.Locator
	store     prefs.Store
	loc       *time.Location
	maxLen    int
	autoWait  time.Duration
	userWait  time.Duration
	logger    *zap.Logger

	mu     sync.Mutex
	query  *models.Query
	status models.Status
	theme  models.Theme
}

// NewSession builds a session and publishes the persisted theme.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.Source == nil {
		return nil, errors.New("dashboard: source is required")
	}
	if opts.Presenter == nil {
		return nil, errors.New("dashboard: presenter is required")
	}
	s := &Session{
		source:    opts.Source,
		presenter: opts.Presenter,
		locator:   opts.Locator,
		store:     opts.Store,
		loc:       opts.Location,
		maxLen:    opts.MaxLocationLength,
		autoWait:  opts.AutoLocateTimeout,
		userWait:  opts.UserLocateTimeout,
		logger:    opts.Logger,
	}
	if s.store == nil {
		s.store = prefs.NewMemoryStore()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.autoWait <= 0 {
		s.autoWait = DefaultAutoLocateTimeout
	}
	if s.userWait <= 0 {
		s.userWait = DefaultUserLocateTimeout
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	theme, err := prefs.LoadTheme(ctx, s.store)
	if err != nil {
		s.logger.Warn("load theme failed, using default", zap.Error(err))
	}
	s.theme = theme
	s.presenter.DisplayTheme(theme)
	return s, nil
}

// loggerFor prefers the request-scoped logger carried in ctx.
func (s *Session) loggerFor(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return s.logger
}

// Query returns the last successful query, ok=false before any.
func (s *Session) Query() (models.Query, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.query == nil {
		return models.Query{}, false
	}
	return *s.query, true
}

// Status returns the current status line.
func (s *Session) Status() models.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Theme returns the active theme.
func (s *Session) Theme() models.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// SearchByCity looks up current conditions and then the forecast for name.
// The forecast is fetched only once the current-conditions lookup has
// resolved the city, and nothing is displayed until both have succeeded.
func (s *Session) SearchByCity(ctx context.Context, name string) error {
	unlock, err := s.begin(ctx, "search")
	if err != nil {
		return err
	}
	defer unlock()
	return s.finish(ctx, "search", s.searchByCity(ctx, name))
}

// SearchByCoordinates fetches current conditions and forecast for a point
// concurrently and publishes them only if both succeed. Nothing is persisted.
func (s *Session) SearchByCoordinates(ctx context.Context, lat, lon float64) error {
	unlock, err := s.begin(ctx, "search_coords")
	if err != nil {
		return err
	}
	defer unlock()
	return s.finish(ctx, "search_coords", s.searchByCoordinates(ctx, models.Coordinates{Latitude: lat, Longitude: lon}))
}

// SearchMyCoordinates is the user-location search for a position the client
// resolved itself. Valid coordinates are saved as the last location before
// the weather is fetched, as UseMyLocation does.
func (s *Session) SearchMyCoordinates(ctx context.Context, lat, lon float64) error {
	unlock, err := s.begin(ctx, "search_my_coords")
	if err != nil {
		return err
	}
	defer unlock()
	coords := models.Coordinates{Latitude: lat, Longitude: lon}
	if err := validation.ValidateCoordinates(lat, lon); err != nil {
		return s.finish(ctx, "search_my_coords", &ValidationError{Err: err})
	}
	s.saveLastLocation(ctx, coords)
	return s.finish(ctx, "search_my_coords", s.searchByCoordinates(ctx, coords))
}

// Refresh replays the last successful query.
func (s *Session) Refresh(ctx context.Context) error {
	unlock, err := s.begin(ctx, "refresh")
	if err != nil {
		return err
	}
	defer unlock()
	return s.finish(ctx, "refresh", s.refresh(ctx))
}

// AutoDetectOnce is the best-effort startup load. A persisted last location
// is loaded directly; otherwise the Locator is asked once. Lookup failures
// are logged at debug and never reach the status line.
func (s *Session) AutoDetectOnce(ctx context.Context) error {
	unlock, err := s.begin(ctx, "auto_detect")
	if err != nil {
		return err
	}
	defer unlock()
	logger := s.loggerFor(ctx)

	coords, ok, err := prefs.LoadLastLocation(ctx, s.store)
	if err != nil {
		logger.Warn("load last location failed", zap.Error(err))
	}
	if ok {
		logger.Info("loading last location", zap.Stringer("coords", coords))
		return s.finish(ctx, "auto_detect", s.searchByCoordinates(ctx, coords))
	}

	if s.locator == nil {
		logger.Debug("auto-detect skipped, no locator configured")
		return nil
	}
	lctx, cancel := context.WithTimeout(ctx, s.autoWait)
	coords, err = s.locator.Locate(lctx)
	cancel()
	if err != nil {
		logger.Debug("auto-detect location unavailable", zap.Error(err))
		observability.RecordAction("auto_detect", "skipped")
		return nil
	}
	s.saveLastLocation(ctx, coords)
	return s.finish(ctx, "auto_detect", s.searchByCoordinates(ctx, coords))
}

// UseMyLocation is the user-invoked location action. Unlike AutoDetectOnce it
// reports lookup failures on the status line.
func (s *Session) UseMyLocation(ctx context.Context) error {
	unlock, err := s.begin(ctx, "locate")
	if err != nil {
		return err
	}
	defer unlock()
	return s.finish(ctx, "locate", s.useMyLocation(ctx))
}

// ToggleTheme flips between light and dark, persists the choice and publishes it.
// A persistence failure is returned but the theme still changes for this session.
func (s *Session) ToggleTheme(ctx context.Context) (models.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.theme = s.theme.Toggle()
	s.presenter.DisplayTheme(s.theme)
	err := prefs.SaveTheme(ctx, s.store, s.theme)
	if err != nil {
		s.loggerFor(ctx).Warn("save theme failed", zap.Error(err))
		err = fmt.Errorf("save theme: %w", err)
	}
	observability.RecordAction("theme", outcomeOrStorage(err))
	return s.theme, err
}

func outcomeOrStorage(err error) string {
	if err != nil {
		return "storage"
	}
	return "success"
}

func (s *Session) searchByCity(ctx context.Context, name string) error {
	city, err := validation.ValidateLocation(name, s.maxLen)
	if err != nil {
		return &ValidationError{Err: err}
	}
	s.setStatus(StatusSearching, false)

	current, err := s.source.CurrentByCity(ctx, city)
	if err != nil {
		return err
	}
	q := models.CityQuery(city)
	s.query = &q

	intervals, err := s.source.ForecastByCity(ctx, city)
	if err != nil {
		return err
	}
	s.publish(current, intervals)
	s.setStatus(StatusUpdated, false)
	return nil
}

type currentResult struct {
	conditions models.CurrentConditions
	err        error
}

type forecastResult struct {
	intervals []models.Interval
	err       error
}

func (s *Session) searchByCoordinates(ctx context.Context, coords models.Coordinates) error {
	if err := validation.ValidateCoordinates(coords.Latitude, coords.Longitude); err != nil {
		return &ValidationError{Err: err}
	}
	s.setStatus(StatusFetchingCoords, false)

	var (
		wg  sync.WaitGroup
		cur currentResult
		fc  forecastResult
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		cur.conditions, cur.err = s.source.CurrentByCoordinates(ctx, coords.Latitude, coords.Longitude)
	}()
	go func() {
		defer wg.Done()
		fc.intervals, fc.err = s.source.ForecastByCoordinates(ctx, coords.Latitude, coords.Longitude)
	}()
	wg.Wait()

	if cur.err != nil {
		return cur.err
	}
	if fc.err != nil {
		return fc.err
	}
	s.publish(cur.conditions, fc.intervals)
	q := models.CoordsQuery(coords)
	s.query = &q
	s.setStatus(StatusUpdatedCoords, false)
	return nil
}

func (s *Session) refresh(ctx context.Context) error {
	if s.query == nil {
		return ErrNoQuery
	}
	s.setStatus(StatusRefreshing, false)
	q := *s.query
	if q.Kind == models.QueryCity {
		return s.searchByCity(ctx, q.City)
	}
	return s.searchByCoordinates(ctx, q.Coords)
}

func (s *Session) useMyLocation(ctx context.Context) error {
	if s.locator == nil {
		return ErrGeolocationUnsupported
	}
	s.setStatus(StatusGettingLocation, false)

	lctx, cancel := context.WithTimeout(ctx, s.userWait)
	coords, err := s.locator.Locate(lctx)
	cancel()
	if err != nil {
		return &GeolocationError{Err: err}
	}
	s.saveLastLocation(ctx, coords)
	return s.searchByCoordinates(ctx, coords)
}

// ResultPresenter is implemented by presenters that can apply a complete
// result in one step, so readers never see the new current card beside the
// old forecast.
type ResultPresenter interface {
	DisplayResult(current models.CurrentConditions, days []models.DailySummary)
}

// publish hands a complete result set to the presenter.
func (s *Session) publish(current models.CurrentConditions, intervals []models.Interval) {
	days := forecast.Aggregate(intervals, s.loc)
	observability.ForecastDaysEmitted.Observe(float64(len(days)))
	if rp, ok := s.presenter.(ResultPresenter); ok {
		rp.DisplayResult(current, days)
		return
	}
	s.presenter.DisplayCurrent(current)
	s.presenter.DisplayForecast(days)
	s.presenter.DisplayAmbientAnimation(current.Category)
}

func (s *Session) saveLastLocation(ctx context.Context, coords models.Coordinates) {
	if err := prefs.SaveLastLocation(ctx, s.store, coords); err != nil {
		s.loggerFor(ctx).Warn("save last location failed", zap.Error(err))
	}
}

func (s *Session) setStatus(text string, isError bool) {
	s.status = models.Status{Text: text, IsError: isError}
	s.presenter.DisplayStatus(text, isError)
}

// begin takes the action lock. An action whose context ended while it was
// queued behind another is dropped before it touches the status line.
func (s *Session) begin(ctx context.Context, action string) (func(), error) {
	s.mu.Lock()
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		observability.RecordAction(action, outcome(err))
		s.loggerFor(ctx).Info("dashboard action dropped", zap.String("action", action), zap.Error(err))
		return nil, err
	}
	return s.mu.Unlock, nil
}

// finish surfaces err on the status line and records the action outcome.
func (s *Session) finish(ctx context.Context, action string, err error) error {
	logger := s.loggerFor(ctx)
	observability.RecordAction(action, outcome(err))
	switch {
	case err == nil:
		traffic.RecordSuccess()
		logger.Info("dashboard action completed", zap.String("action", action))
		return nil
	case userError(err):
		logger.Info("dashboard action rejected", zap.String("action", action), zap.Error(err))
	default:
		traffic.RecordError()
		logger.Warn("dashboard action failed", zap.String("action", action), zap.Error(err))
	}
	s.setStatus(Message(err), true)
	return err
}
