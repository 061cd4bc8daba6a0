// Package model defines the core domain types shared across the resolver:
// states, geocode results, holiday scopes, and the final resolution result.
package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// State is an Australian state or territory code.
type State string

// The eight Australian states and territories.
const (
	NSW State = "NSW"
	VIC State = "VIC"
	QLD State = "QLD"
	SA  State = "SA"
	WA  State = "WA"
	TAS State = "TAS"
	NT  State = "NT"
	ACT State = "ACT"
)

// stateNames maps full state names (as geocoding providers return them) to codes.
var stateNames = map[string]State{
	"new south wales":              NSW,
	"victoria":                     VIC,
	"queensland":                   QLD,
	"south australia":              SA,
	"western australia":            WA,
	"tasmania":                     TAS,
	"northern territory":           NT,
	"australian capital territory": ACT,
}

var validStates = map[State]bool{
	NSW: true, VIC: true, QLD: true, SA: true,
	WA: true, TAS: true, NT: true, ACT: true,
}

// ParseState accepts a state code ("VIC") or full name ("Victoria").
func ParseState(s string) (State, error) {
	trimmed := strings.TrimSpace(s)
	if st := State(strings.ToUpper(trimmed)); validStates[st] {
		return st, nil
	}
	if st, ok := stateNames[strings.ToLower(trimmed)]; ok {
		return st, nil
	}
	return "", eris.Errorf("model: unknown state %q", s)
}

// MatchGranularity describes how precisely a geocoding provider located an
// address. It is classified strictly from provider evidence and is never
// upgraded to a finer level than the provider actually returned.
type MatchGranularity string

const (
	GranularityStreet           MatchGranularity = "STREET"
	GranularitySuburb           MatchGranularity = "SUBURB"
	GranularityPostcodeCentroid MatchGranularity = "POSTCODE_CENTROID"
	GranularityStateCentroid    MatchGranularity = "STATE_CENTROID"
	GranularityUnknown          MatchGranularity = "UNKNOWN"
)

// Australian bounding box, generous enough to include offshore territories
// near the mainland but tight enough to reject swapped or zeroed coordinates.
const (
	AUMinLat = -44.0
	AUMaxLat = -9.0
	AUMinLon = 112.0
	AUMaxLon = 154.5
)

// InAustralia reports whether the coordinates fall inside the AU bounding range.
func InAustralia(lat, lon float64) bool {
	return lat >= AUMinLat && lat <= AUMaxLat && lon >= AUMinLon && lon <= AUMaxLon
}

// GeocodedLocation is the validated output of a geocoding provider response.
type GeocodedLocation struct {
	FormattedAddress string           `json:"formatted_address"`
	State            State            `json:"state"`
	Locality         string           `json:"locality,omitempty"`
	Postcode         string           `json:"postcode,omitempty"`
	Latitude         float64          `json:"latitude"`
	Longitude        float64          `json:"longitude"`
	Granularity      MatchGranularity `json:"granularity"`

	// FallbackQuery is set when the provider only matched after the address
	// was simplified (street parts stripped), which caps granularity.
	FallbackQuery bool `json:"fallback_query,omitempty"`
}

// HolidayScope identifies the administrative layer a resolved holiday came from.
type HolidayScope string

const (
	ScopeNational HolidayScope = "NATIONAL"
	ScopeState    HolidayScope = "STATE"
	ScopeLGA      HolidayScope = "LGA"
	ScopeLocality HolidayScope = "LOCALITY"
	ScopePostcode HolidayScope = "POSTCODE"
)

// scopeRank orders scopes from least to most specific. A locality rule beats
// an LGA rule, which beats a postcode rule, which beats state and national.
var scopeRank = map[HolidayScope]int{
	ScopeNational: 0,
	ScopeState:    1,
	ScopePostcode: 2,
	ScopeLGA:      3,
	ScopeLocality: 4,
}

// Specificity returns the scope's rank; higher is more specific.
func (s HolidayScope) Specificity() int { return scopeRank[s] }

// DayPart records how much of the day a holiday covers. Base calendar
// holidays are full days; some gazetted regional days are half days.
type DayPart string

const (
	FullDay   DayPart = "FULL_DAY"
	HalfDayAM DayPart = "HALF_DAY_AM"
	HalfDayPM DayPart = "HALF_DAY_PM"
)

// BaseHoliday is a national or state-wide holiday from the calendar source.
// Its identifier for replacement purposes is the canonical Name; regional
// rules reference names, never dates.
type BaseHoliday struct {
	Date  time.Time `json:"date"`
	Name  string    `json:"name"`
	State State     `json:"state,omitempty"` // empty = national
}

// National reports whether the holiday applies Australia-wide.
func (h BaseHoliday) National() bool { return h.State == "" }

// ResolvedHoliday is a single entry in the merged holiday list. Immutable
// once produced by the resolution engine.
type ResolvedHoliday struct {
	Date         time.Time    `json:"date"`
	Name         string       `json:"name"`
	Scope        HolidayScope `json:"scope"`
	DayPart      DayPart      `json:"day_part"`
	SourceRuleID string       `json:"source_rule_id,omitempty"`
}

// ResolutionStatus is the terminal verdict for a lookup.
type ResolutionStatus string

const (
	StatusOK            ResolutionStatus = "OK"
	StatusLowConfidence ResolutionStatus = "LOW_CONFIDENCE"
	StatusNotFound      ResolutionStatus = "NOT_FOUND"
)

// ResolutionResult is the complete outcome of a single lookup. It is
// constructed once per request and never mutated or cached by the core.
type ResolutionResult struct {
	InputAddress         string           `json:"input_address"`
	Status               ResolutionStatus `json:"status"`
	ConfidenceScore      float64          `json:"confidence_score"`
	ManualReviewRequired bool             `json:"manual_review_required"`
	AuditCode            string           `json:"audit_code"`
	AuditMessage         string           `json:"audit_message"`

	Location *GeocodedLocation `json:"location,omitempty"`
	LGA      string            `json:"lga,omitempty"`

	Holidays         []ResolvedHoliday `json:"holidays"`
	HolidaysInPeriod []ResolvedHoliday `json:"holidays_in_period,omitempty"`
	RulesApplied     []string          `json:"rules_applied,omitempty"`
	AuditNotes       []string          `json:"audit_notes,omitempty"`
}
