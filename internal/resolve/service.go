package resolve

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fairwork-tools/holidaycheck/internal/holidays"
	"github.com/fairwork-tools/holidaycheck/internal/lga"
	"github.com/fairwork-tools/holidaycheck/internal/model"
	"github.com/fairwork-tools/holidaycheck/internal/rules"
	"github.com/fairwork-tools/holidaycheck/pkg/geocode"
)

// Request is one address lookup.
type Request struct {
	Address string

	// StateHint, when set, is cross-checked against the geocoded state; a
	// disagreement caps the verdict at LOW_CONFIDENCE.
	StateHint model.State

	// Year selects the calendar year; zero means the year of PeriodStart,
	// or the current year if no period is given.
	Year int

	// PeriodStart and PeriodEnd (YYYY-MM-DD, inclusive) optionally restrict
	// the reported holidays to a pay period.
	PeriodStart string
	PeriodEnd   string

	// IncludeRestricted also applies rules gazetted for public-service or
	// banking employers only; most callers want the default ALL-only view.
	IncludeRestricted bool
}

// Service wires the pipeline stages together for single lookups.
type Service struct {
	geo    geocode.Client
	lgas   *lga.Index
	source holidays.Source
	store  *rules.Store
	log    *zap.Logger

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewService constructs a Service over the loaded pipeline stages.
func NewService(geo geocode.Client, lgas *lga.Index, source holidays.Source, store *rules.Store) *Service {
	return &Service{
		geo:    geo,
		lgas:   lgas,
		source: source,
		store:  store,
		log:    zap.L().With(zap.String("component", "resolve")),
		now:    time.Now,
	}
}

// Resolve runs one lookup end to end. It is total: every failure mode is
// converted into a ResolutionResult with a NOT_FOUND status and an audit
// code, so a bad address can never abort a caller's run.
func (s *Service) Resolve(ctx context.Context, req Request) *model.ResolutionResult {
	res := &model.ResolutionResult{
		InputAddress: req.Address,
		Holidays:     []model.ResolvedHoliday{},
	}

	raw, err := s.geo.Geocode(ctx, req.Address)
	if err != nil {
		return s.fail(res, AuditGeocodeFailed, err)
	}

	loc, err := geocode.Validate(raw)
	if err != nil {
		return s.fail(res, AuditOutsideServiceArea, err)
	}
	res.Location = &loc
	if loc.FallbackQuery {
		res.AuditNotes = append(res.AuditNotes, "geocoded via simplified fallback query")
	}

	match := s.lgas.Resolve(loc.Latitude, loc.Longitude)
	var lgaName string
	if match.Area != nil {
		lgaName = match.Area.Name
		res.LGA = lgaName
	}

	year := req.Year
	if year == 0 {
		year = s.defaultYear(req)
	}

	base, err := s.source.Holidays(ctx, year)
	if err != nil {
		return s.fail(res, AuditCalendarUnavailable, err)
	}

	matched := s.store.RulesFor(rules.Query{
		State:             loc.State,
		LGA:               lgaName,
		Locality:          loc.Locality,
		Postcode:          loc.Postcode,
		IncludeRestricted: req.IncludeRestricted,
	})

	merged, applied, notes := Merge(holidays.ForState(base, loc.State), matched)
	res.Holidays = merged
	res.RulesApplied = applied
	res.AuditNotes = append(res.AuditNotes, notes...)

	if req.PeriodStart != "" && req.PeriodEnd != "" {
		inPeriod, err := FilterPeriod(merged, req.PeriodStart, req.PeriodEnd)
		if err != nil {
			return s.fail(res, AuditInvalidPeriod, err)
		}
		res.HolidaysInPeriod = inPeriod
	}

	verdict := Compose(Assessment{
		Granularity:       loc.Granularity,
		LGAMatch:          match.Kind,
		StateHintMismatch: req.StateHint != "" && req.StateHint != loc.State,
	})
	res.Status = verdict.Status
	res.ConfidenceScore = verdict.Score
	res.ManualReviewRequired = verdict.ManualReview
	res.AuditCode = verdict.AuditCode
	res.AuditMessage = verdict.AuditMessage

	s.log.Debug("lookup resolved",
		zap.String("address", req.Address),
		zap.String("status", string(res.Status)),
		zap.Float64("confidence", res.ConfidenceScore),
		zap.String("audit_code", res.AuditCode),
	)
	return res
}

// fail finalizes a result as NOT_FOUND with the given audit code. The
// underlying error goes to the audit notes and the log, never to a panic
// or a returned error.
func (s *Service) fail(res *model.ResolutionResult, code string, err error) *model.ResolutionResult {
	res.Status = model.StatusNotFound
	res.ConfidenceScore = 0
	res.ManualReviewRequired = true
	res.AuditCode = code
	res.AuditMessage = auditMessages[code]
	res.AuditNotes = append(res.AuditNotes, err.Error())

	s.log.Warn("lookup failed",
		zap.String("address", res.InputAddress),
		zap.String("audit_code", code),
		zap.Error(err),
	)
	return res
}

func (s *Service) defaultYear(req Request) int {
	if req.PeriodStart != "" {
		if t, err := parseDay(req.PeriodStart); err == nil {
			return t.Year()
		}
	}
	return s.now().Year()
}
