package widget

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lox/weatherwidget/internal/condition"
	"github.com/lox/weatherwidget/internal/metrics"
	"github.com/lox/weatherwidget/internal/models"
	"github.com/lox/weatherwidget/internal/owm"
	"github.com/lox/weatherwidget/internal/textutil"
	"github.com/lox/weatherwidget/internal/units"
)

const DefaultTimeout = 10 * time.Second

// Fetcher retrieves current conditions for a query.
type Fetcher interface {
	Fetch(ctx context.Context, q owm.Query) (*models.Reading, *owm.FetchResult, error)
}

// Recorder keeps an audit trail of lookups.
type Recorder interface {
	StartLookup(session string, seq int64, kind, query string) (*models.Lookup, error)
	CompleteLookup(l *models.Lookup) error
}

// Options configures a Widget. Zero values get sensible defaults.
type Options struct {
	// BaseUnit is the unit temperatures arrive in from the fetcher.
	BaseUnit units.Unit
	// Timeout bounds a single lookup, including geolocation.
	Timeout  time.Duration
	Session  string
	Recorder Recorder
	Clock    clockwork.Clock
}

// Widget owns one display and serialises the lookups that update it. Every lookup
// takes a ticket from a monotonically increasing sequence; only the result for the
// most recently issued ticket is applied, and starting a lookup cancels the one in
// flight.
type Widget struct {
	fetcher Fetcher
	opts    Options

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	display Display
}

// New creates a widget with an empty display.
func New(fetcher Fetcher, opts Options) *Widget {
	if opts.BaseUnit == units.Unknown {
		opts.BaseUnit = units.Celsius
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Widget{
		fetcher: fetcher,
		opts:    opts,
		display: Display{Temperature: units.DisplayTemperature{Unit: opts.BaseUnit}},
	}
}

// Display returns a copy of the current display.
func (w *Widget) Display() Display {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.display
}

// Locate shows the weather at the position reported by loc. A nil locator or a
// locator error shows the navigation failure without contacting the service.
func (w *Widget) Locate(ctx context.Context, loc Locator) Display {
	ticket, ctx, done := w.begin(ctx)
	defer done()

	if loc == nil {
		return w.fail(ticket, FailureNavigation, nil, "geolocation", "", ErrNavigationUnavailable)
	}
	coords, err := loc.Locate(ctx)
	if err != nil {
		return w.fail(ticket, FailureNavigation, nil, "geolocation", "", err)
	}
	return w.lookup(ctx, ticket, owm.Query{Coords: &coords})
}

// Search shows the weather for a free-text place. An empty place is rejected as
// unavailable navigation before any request is made.
func (w *Widget) Search(ctx context.Context, place string) Display {
	ticket, ctx, done := w.begin(ctx)
	defer done()

	place = strings.TrimSpace(place)
	if place == "" {
		return w.fail(ticket, FailureNavigation, nil, "place", "", errors.New("empty search"))
	}
	return w.lookup(ctx, ticket, owm.Query{Place: place})
}

// ToggleUnit switches the displayed temperature between Celsius and Fahrenheit.
// It fails with ErrNoReading while the unit controls are hidden.
func (w *Widget) ToggleUnit() (Display, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.display.ShowUnitControls() {
		return w.display, ErrNoReading
	}
	t, err := w.display.Temperature.Toggle()
	if err != nil {
		return w.display, err
	}
	w.display.Temperature = t
	return w.display, nil
}

// begin issues a new ticket, cancels any lookup still in flight and returns a
// context bounded by the lookup timeout.
func (w *Widget) begin(parent context.Context) (uint64, context.Context, func()) {
	ctx, cancel := context.WithTimeout(parent, w.opts.Timeout)

	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.seq++
	ticket := w.seq
	w.cancel = cancel
	w.mu.Unlock()

	return ticket, ctx, cancel
}

func (w *Widget) lookup(ctx context.Context, ticket uint64, q owm.Query) Display {
	run := w.startRecord(ticket, q.Kind(), q.String())

	reading, result, err := w.fetcher.Fetch(ctx, q)
	if result != nil && run != nil && result.HTTPStatus > 0 {
		run.HTTPStatus = sql.NullInt64{Int64: int64(result.HTTPStatus), Valid: true}
	}
	if err != nil {
		return w.fail(ticket, FailureLocation, run, q.Kind(), q.String(), err)
	}

	pair, ok := condition.Classify(reading.Condition)
	if run != nil {
		run.Condition = sql.NullString{String: reading.Condition, Valid: reading.Condition != ""}
	}
	if !ok {
		metrics.ClassifierMisses.WithLabelValues(missReason(reading.Condition)).Inc()
		return w.fail(ticket, FailureLocation, run, q.Kind(), q.String(), errors.New("unknown condition "+reading.Condition))
	}

	d := Display{
		Ready:       true,
		Background:  pair.Background,
		Icon:        pair.Icon,
		Label:       reading.LocationLabel,
		Condition:   reading.Condition,
		Temperature: units.DisplayTemperature{Value: reading.Temperature, Unit: w.opts.BaseUnit},
		Description: textutil.Normalize(reading.Description),
	}
	return w.apply(ticket, d, run, models.OutcomeOK)
}

// missReason maps an unclassifiable condition onto a fixed label value; the raw
// string only goes to the audit row.
func missReason(main string) string {
	if strings.TrimSpace(main) == "" {
		return "empty"
	}
	return "unrecognised"
}

func (w *Widget) fail(ticket uint64, kind FailureKind, run *models.Lookup, queryKind, query string, cause error) Display {
	if cause != nil {
		log.Printf("widget: %s lookup %q failed: %v", queryKind, query, cause)
	}
	if run == nil {
		run = w.startRecord(ticket, queryKind, query)
	}
	if run != nil && cause != nil {
		run.ErrorMessage = sql.NullString{String: cause.Error(), Valid: true}
	}
	return w.apply(ticket, failureDisplay(kind, w.opts.BaseUnit), run, kind.String())
}

// apply publishes d if ticket is still the latest; otherwise the result is dropped.
// It returns whatever is on display afterwards.
func (w *Widget) apply(ticket uint64, d Display, run *models.Lookup, outcome string) Display {
	w.mu.Lock()
	stale := ticket != w.seq
	if !stale {
		d.Seq = ticket
		d.UpdatedAt = w.opts.Clock.Now()
		w.display = d
		w.cancel = nil
	}
	current := w.display
	w.mu.Unlock()

	if stale {
		metrics.StaleResults.Inc()
		outcome = models.OutcomeStale
	} else {
		metrics.ReadingsTotal.WithLabelValues(outcome).Inc()
	}
	w.completeRecord(run, outcome)
	return current
}

func (w *Widget) startRecord(ticket uint64, kind, query string) *models.Lookup {
	if w.opts.Recorder == nil {
		return nil
	}
	run, err := w.opts.Recorder.StartLookup(w.opts.Session, int64(ticket), kind, query)
	if err != nil {
		log.Printf("widget: start lookup record: %v", err)
		return nil
	}
	return run
}

func (w *Widget) completeRecord(run *models.Lookup, outcome string) {
	if w.opts.Recorder == nil || run == nil {
		return
	}
	run.Outcome = outcome
	if err := w.opts.Recorder.CompleteLookup(run); err != nil {
		log.Printf("widget: complete lookup record: %v", err)
	}
}
