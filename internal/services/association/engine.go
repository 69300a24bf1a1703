package association

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/services/summary"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/logger"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/util"
)

// DefaultWindowDays is the proximity window used when none is configured.
const DefaultWindowDays = 90

const statementDateLayout = "January 02, 2006"

// Engine associates change points with a read-only event catalog.
type Engine struct {
	events []models.EventRecord
	source string
	log    *logger.Logger
}

type Option func(*Engine)

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New builds an engine over events. The events are copied and put in chronological order.
func New(events []models.EventRecord, opts ...Option) *Engine {
	e := &Engine{
		events: append([]models.EventRecord(nil), events...),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	sortChronological(e.events)
	return e
}

// NewFromFile loads the catalog at path. A missing file is an error, never an empty catalog.
func NewFromFile(path string, opts ...Option) (*Engine, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open event catalog: %w", err)
	}
	defer f.Close()

	events, err := ReadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	e := New(events, opts...)
	e.source = path
	e.log.Info("event catalog loaded",
		logger.String("path", path),
		logger.Int("events", len(events)),
	)
	return e, nil
}

// Events returns a copy of the catalog in chronological order.
func (e *Engine) Events() []models.EventRecord {
	return append([]models.EventRecord(nil), e.events...)
}

// FindNearbyEvents returns catalog events dated within windowDays of date,
// bounds included, nearest first. Equidistant events keep catalog order.
func (e *Engine) FindNearbyEvents(date time.Time, windowDays int) []models.NearbyEvent {
	if windowDays < 0 {
		windowDays = 0
	}
	from := date.AddDate(0, 0, -windowDays)
	to := date.AddDate(0, 0, windowDays)

	out := []models.NearbyEvent{}
	for _, ev := range e.events {
		if !util.InRange(ev.Date, from, to) {
			continue
		}
		out = append(out, models.NearbyEvent{
			EventRecord:    ev,
			DaysDifference: util.DaysBetween(date, ev.Date),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AbsDays() < out[j].AbsDays() })

	e.log.Debug("nearby events",
		logger.Time("date", date),
		logger.Int("window_days", windowDays),
		logger.Int("found", len(out)),
	)
	return out
}

// Associate quantifies the shift at a change point and attaches nearby events.
// Price fields are filled only when both prices are given.
func (e *Engine) Associate(date time.Time, muBefore, muAfter float64, priceBefore, priceAfter *float64, windowDays int) models.Association {
	impact := muAfter - muBefore
	a := models.Association{
		ChangePointDate: date,
		MuBefore:        muBefore,
		MuAfter:         muAfter,
		ImpactLog:       impact,
		ImpactPercent:   summary.ImpactPercent(impact),
		WindowDays:      windowDays,
		NearbyEvents:    e.FindNearbyEvents(date, windowDays),
		Confidence:      models.ConfidenceNone,
	}
	if priceBefore != nil && priceAfter != nil {
		pb, pa := *priceBefore, *priceAfter
		usd := pa - pb
		a.PriceBefore, a.PriceAfter, a.ImpactUSD = &pb, &pa, &usd
	}
	if len(a.NearbyEvents) > 0 {
		closest := a.NearbyEvents[0]
		a.ClosestEvent = &closest
		a.Confidence = models.ConfidenceFromDays(closest.AbsDays())
	}
	return a
}

// FormatImpactStatement renders the association as one sentence. The event
// clause is omitted when eventName is empty.
func (e *Engine) FormatImpactStatement(a models.Association, eventName string) string {
	var b strings.Builder
	date := a.ChangePointDate.Format(statementDateLayout)
	if eventName != "" {
		fmt.Fprintf(&b, "Following the %s around %s, the model detects a change point", eventName, date)
	} else {
		fmt.Fprintf(&b, "On %s, the model detects a change point", date)
	}
	if a.PriceBefore != nil && a.PriceAfter != nil {
		fmt.Fprintf(&b, ", with the average daily price shifting from $%.2f to $%.2f", *a.PriceBefore, *a.PriceAfter)
	}
	direction := "a decrease"
	if a.ImpactPercent > 0 {
		direction = "an increase"
	}
	pct := a.ImpactPercent
	if pct < 0 {
		pct = -pct
	}
	fmt.Fprintf(&b, ", %s of %.2f%%.", direction, pct)
	return b.String()
}
