// Package resolve is the core resolution engine: it merges base calendars
// with curated regional rules and composes the confidence verdict for each
// lookup.
package resolve

import (
	"github.com/fairwork-tools/holidaycheck/internal/lga"
	"github.com/fairwork-tools/holidaycheck/internal/model"
)

// Audit codes. Every lookup verdict carries exactly one of these; the
// message text comes from the fixed template table so downstream systems
// can match on either form.
const (
	AuditExactMatch           = "EXACT_MATCH"
	AuditCoarseLocation       = "COARSE_LOCATION"
	AuditUnclassifiedLocation = "UNCLASSIFIED_LOCATION"
	AuditBoundaryFallback     = "BOUNDARY_FALLBACK"
	AuditLGAAmbiguous         = "LGA_AMBIGUOUS"
	AuditLGAUnmatched         = "LGA_UNMATCHED"
	AuditStateHintMismatch    = "STATE_HINT_MISMATCH"
	AuditGeocodeFailed        = "GEOCODE_FAILED"
	AuditOutsideServiceArea   = "OUTSIDE_SERVICE_AREA"
	AuditCalendarUnavailable  = "CALENDAR_UNAVAILABLE"
	AuditInvalidPeriod        = "INVALID_PERIOD"
)

var auditMessages = map[string]string{
	AuditExactMatch:           "address resolved at street level with a direct boundary match",
	AuditCoarseLocation:       "address resolved only to an approximate location; regional holidays may be incomplete",
	AuditUnclassifiedLocation: "the provider response could not be classified to any usable precision",
	AuditBoundaryFallback:     "point fell outside all simplified boundaries and was attributed to the nearest one",
	AuditLGAAmbiguous:         "point lies inside more than one boundary; no local government area was attributed",
	AuditLGAUnmatched:         "no local government area contains or adjoins the resolved point",
	AuditStateHintMismatch:    "geocoded state disagrees with the caller-supplied state hint",
	AuditGeocodeFailed:        "the address could not be geocoded",
	AuditOutsideServiceArea:   "the geocoded location is not a usable Australian address",
	AuditCalendarUnavailable:  "the base holiday calendar could not be fetched",
	AuditInvalidPeriod:        "the requested pay period is malformed or inverted",
}

// AuditMessage returns the fixed message template for an audit code.
func AuditMessage(code string) string { return auditMessages[code] }

// granularityWeights and lgaWeights are the two confidence components.
// Street-level direct matches score 1.0; everything coarser decays.
var granularityWeights = map[model.MatchGranularity]float64{
	model.GranularityStreet:           1.0,
	model.GranularitySuburb:           0.85,
	model.GranularityPostcodeCentroid: 0.5,
	model.GranularityStateCentroid:    0.3,
	model.GranularityUnknown:          0,
}

var lgaWeights = map[lga.MatchKind]float64{
	lga.MatchDirect:    1.0,
	lga.MatchBoundary:  0.7,
	lga.MatchAmbiguous: 0,
	lga.MatchNone:      0,
}

// Component weights and the OK threshold. Geocode precision carries more
// weight than the spatial match.
const (
	granularityShare = 0.6
	lgaShare         = 0.4
	okThreshold      = 0.75
)

// Assessment captures the per-lookup signals the verdict is derived from.
type Assessment struct {
	Granularity       model.MatchGranularity
	LGAMatch          lga.MatchKind
	StateHintMismatch bool
}

// Verdict is the composed confidence outcome.
type Verdict struct {
	Score        float64
	Status       model.ResolutionStatus
	ManualReview bool
	AuditCode    string
	AuditMessage string
}

// Compose derives the verdict from an assessment. It is a pure function:
// the same assessment always yields the same verdict, with no clock, I/O,
// or randomness involved.
func Compose(a Assessment) Verdict {
	score := granularityShare*granularityWeights[a.Granularity] + lgaShare*lgaWeights[a.LGAMatch]

	status := model.StatusOK
	switch {
	case a.Granularity == model.GranularityUnknown:
		// A location the provider could not classify gives no basis for any
		// regional attribution at all.
		status = model.StatusNotFound
	case score < okThreshold || a.StateHintMismatch || a.LGAMatch == lga.MatchBoundary:
		// Boundary attribution is a nearest-edge guess and a state-hint
		// conflict contradicts the caller; neither composes to OK no matter
		// how high the score.
		status = model.StatusLowConfidence
	}

	code := auditCode(a)
	return Verdict{
		Score:        score,
		Status:       status,
		ManualReview: status != model.StatusOK,
		AuditCode:    code,
		AuditMessage: auditMessages[code],
	}
}

// auditCode picks the single most decision-relevant code for the
// assessment. Ordering matters: a state-hint conflict outranks boundary
// trouble, which outranks mere coarseness.
func auditCode(a Assessment) string {
	switch {
	case a.Granularity == model.GranularityUnknown:
		return AuditUnclassifiedLocation
	case a.StateHintMismatch:
		return AuditStateHintMismatch
	case a.LGAMatch == lga.MatchAmbiguous:
		return AuditLGAAmbiguous
	case a.LGAMatch == lga.MatchNone:
		return AuditLGAUnmatched
	case a.LGAMatch == lga.MatchBoundary:
		return AuditBoundaryFallback
	case a.Granularity != model.GranularityStreet:
		return AuditCoarseLocation
	default:
		return AuditExactMatch
	}
}
