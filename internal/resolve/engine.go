package resolve

import (
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fairwork-tools/holidaycheck/internal/model"
	"github.com/fairwork-tools/holidaycheck/internal/rules"
)

// Merge combines a state-filtered base calendar with the regional rules
// matched for a location. Replacement rules remove the base holiday they
// name (by canonical name, never by date) before adding their own entry;
// additive rules only add. Duplicate (date, name) entries keep the most
// specific scope. The result is sorted by date, then specificity, then
// name, and the whole operation is deterministic: merging the same inputs
// twice yields identical output.
func Merge(base []model.BaseHoliday, matched []rules.Rule) ([]model.ResolvedHoliday, []string, []string) {
	merged := make([]model.ResolvedHoliday, 0, len(base)+len(matched))
	for _, h := range base {
		scope := model.ScopeState
		if h.National() {
			scope = model.ScopeNational
		}
		merged = append(merged, model.ResolvedHoliday{Date: h.Date, Name: h.Name, Scope: scope, DayPart: model.FullDay})
	}

	// Rules apply least specific first so a locality rule can still replace
	// a holiday an LGA rule introduced.
	ordered := make([]rules.Rule, len(matched))
	copy(ordered, matched)
	sort.SliceStable(ordered, func(i, j int) bool {
		si, sj := ordered[i].Scope.HolidayScope().Specificity(), ordered[j].Scope.HolidayScope().Specificity()
		if si != sj {
			return si < sj
		}
		return ordered[i].ID < ordered[j].ID
	})

	var applied, notes []string
	for _, r := range ordered {
		if r.Replaces != "" {
			target := model.NormalizeKey(r.Replaces)
			removed := false
			kept := merged[:0]
			for _, h := range merged {
				if model.NormalizeKey(h.Name) == target {
					removed = true
					continue
				}
				kept = append(kept, h)
			}
			merged = kept
			if !removed {
				// A stale replacement target is a data problem worth flagging,
				// not a lookup failure; the rule still adds its holiday.
				note := fmt.Sprintf("rule %s replaces %q but no such holiday is in the calendar", r.ID, r.Replaces)
				notes = append(notes, note)
				zap.L().Warn("replacement target missing",
					zap.String("rule", r.ID), zap.String("replaces", r.Replaces))
			}
		}

		merged = append(merged, model.ResolvedHoliday{
			Date:         r.Date,
			Name:         r.Name,
			Scope:        r.Scope.HolidayScope(),
			DayPart:      r.DayPart,
			SourceRuleID: r.ID,
		})
		applied = append(applied, r.ID)
	}

	merged = dedupe(merged)

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].Date.Equal(merged[j].Date) {
			return merged[i].Date.Before(merged[j].Date)
		}
		if merged[i].Scope.Specificity() != merged[j].Scope.Specificity() {
			return merged[i].Scope.Specificity() > merged[j].Scope.Specificity()
		}
		return merged[i].Name < merged[j].Name
	})

	return merged, applied, notes
}

// dedupe collapses entries sharing (date, normalized name), keeping the one
// from the most specific scope.
func dedupe(in []model.ResolvedHoliday) []model.ResolvedHoliday {
	type key struct {
		date string
		name string
	}
	best := make(map[key]int, len(in))
	out := in[:0]
	for _, h := range in {
		k := key{date: h.Date.Format("2006-01-02"), name: model.NormalizeKey(h.Name)}
		if i, ok := best[k]; ok {
			if h.Scope.Specificity() > out[i].Scope.Specificity() {
				out[i] = h
			}
			continue
		}
		best[k] = len(out)
		out = append(out, h)
	}
	return out
}

// FilterPeriod returns the holidays falling inside [start, end] inclusive.
func FilterPeriod(all []model.ResolvedHoliday, start, end string) ([]model.ResolvedHoliday, error) {
	s, err := parseDay(start)
	if err != nil {
		return nil, err
	}
	e, err := parseDay(end)
	if err != nil {
		return nil, err
	}
	if e.Before(s) {
		return nil, eris.Errorf("resolve: period end %s before start %s", end, start)
	}

	var out []model.ResolvedHoliday
	for _, h := range all {
		if !h.Date.Before(s) && !h.Date.After(e) {
			out = append(out, h)
		}
	}
	return out, nil
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "resolve: parse date %s", s)
	}
	return t, nil
}
