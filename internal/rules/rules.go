// Package rules loads and indexes curated regional holiday rules: records
// asserting that a holiday applies to (and optionally replaces another
// holiday within) a specific LGA, locality, or postcode.
package rules

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fairwork-tools/holidaycheck/internal/model"
)

// ScopeType classifies what a rule's match value refers to.
type ScopeType string

const (
	ScopeTypeLGA      ScopeType = "LGA"
	ScopeTypeLocality ScopeType = "LOCALITY"
	ScopeTypePostcode ScopeType = "POSTCODE"
)

var validScopeTypes = map[ScopeType]bool{
	ScopeTypeLGA: true, ScopeTypeLocality: true, ScopeTypePostcode: true,
}

// HolidayScope maps the rule scope onto the resolved-holiday scope tag.
func (s ScopeType) HolidayScope() model.HolidayScope {
	switch s {
	case ScopeTypeLGA:
		return model.ScopeLGA
	case ScopeTypeLocality:
		return model.ScopeLocality
	default:
		return model.ScopePostcode
	}
}

// AppliesTo restricts which employers observe a rule. Rules narrower than
// ALL are excluded from lookups unless the caller opts in.
type AppliesTo string

const (
	AppliesToAll           AppliesTo = "ALL"
	AppliesToPublicService AppliesTo = "PUBLIC_SERVICE_ONLY"
	AppliesToBanking       AppliesTo = "BANKING_ONLY"
)

var validDayParts = map[model.DayPart]bool{
	model.FullDay: true, model.HalfDayAM: true, model.HalfDayPM: true,
}

var validAppliesTo = map[AppliesTo]bool{
	AppliesToAll: true, AppliesToPublicService: true, AppliesToBanking: true,
}

// Rule is one curated regional holiday record. MatchValue is stored
// normalized; comparison against resolved location fields uses the same
// normalization and is always exact.
type Rule struct {
	ID         string
	Scope      ScopeType
	MatchValue string // normalized
	State      model.State
	Date       time.Time
	Name       string

	// Replaces names the base holiday this rule substitutes, by canonical
	// holiday name. Empty for purely additive rules.
	Replaces string

	// DayPart and AppliesTo default to FULL_DAY and ALL when the columns
	// are absent or blank.
	DayPart   model.DayPart
	AppliesTo AppliesTo

	Source string
	Notes  string
}

// LoadError reports a malformed row in the curated rule file. Rule data
// problems are fatal at load time, never discovered per-lookup.
type LoadError struct {
	Row    int
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("rules: row %d: %s", e.Row, e.Reason)
}

// expected CSV header for the curated rule file; only the first five
// columns are mandatory.
var ruleColumns = []string{"scope_type", "match_value", "state", "date", "name", "replaces", "day_part", "applies_to", "source", "notes"}

// LoadFile reads the curated rule CSV at path. See Load.
func LoadFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rules: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return Load(f)
}

// Load parses curated rules from CSV. Any malformed row aborts the load
// with a LoadError carrying the row number and reason.
func Load(r io.Reader) ([]Rule, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &LoadError{Row: 1, Reason: "empty rule file"}
	}
	if err != nil {
		return nil, eris.Wrap(err, "rules: read header")
	}

	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range ruleColumns[:5] {
		if _, ok := col[required]; !ok {
			return nil, &LoadError{Row: 1, Reason: "missing column " + required}
		}
	}

	get := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var out []Rule
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, &LoadError{Row: row, Reason: err.Error()}
		}

		// Blank lines from CSV editors are tolerated.
		if isBlank(record) {
			continue
		}

		scope := ScopeType(strings.ToUpper(get(record, "scope_type")))
		if !validScopeTypes[scope] {
			return nil, &LoadError{Row: row, Reason: "invalid scope_type " + get(record, "scope_type")}
		}

		matchValue := model.NormalizeKey(get(record, "match_value"))
		if matchValue == "" {
			return nil, &LoadError{Row: row, Reason: "empty match_value"}
		}

		state, err := model.ParseState(get(record, "state"))
		if err != nil {
			return nil, &LoadError{Row: row, Reason: "invalid state " + get(record, "state")}
		}

		date, err := time.Parse("2006-01-02", get(record, "date"))
		if err != nil {
			return nil, &LoadError{Row: row, Reason: "invalid date " + get(record, "date")}
		}

		name := get(record, "name")
		if name == "" {
			return nil, &LoadError{Row: row, Reason: "empty name"}
		}

		dayPart := model.DayPart(strings.ToUpper(get(record, "day_part")))
		if dayPart == "" {
			dayPart = model.FullDay
		}
		if !validDayParts[dayPart] {
			return nil, &LoadError{Row: row, Reason: "invalid day_part " + get(record, "day_part")}
		}

		appliesTo := AppliesTo(strings.ToUpper(get(record, "applies_to")))
		if appliesTo == "" {
			appliesTo = AppliesToAll
		}
		if !validAppliesTo[appliesTo] {
			return nil, &LoadError{Row: row, Reason: "invalid applies_to " + get(record, "applies_to")}
		}

		out = append(out, Rule{
			ID:         fmt.Sprintf("rule-%03d", row),
			Scope:      scope,
			MatchValue: matchValue,
			State:      state,
			Date:       date,
			Name:       name,
			Replaces:   get(record, "replaces"),
			DayPart:    dayPart,
			AppliesTo:  appliesTo,
			Source:     get(record, "source"),
			Notes:      get(record, "notes"),
		})
	}

	zap.L().Info("rules: curated rules loaded", zap.Int("rules", len(out)))
	return out, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
