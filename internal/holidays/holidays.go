// Package holidays fetches national and state base holiday calendars from
// the Nager.Date public holiday API.
package holidays

import (
	"context"

	"github.com/fairwork-tools/holidaycheck/internal/model"
)

// Source yields the base holiday calendar for a year. Implementations must
// be safe for concurrent use.
type Source interface {
	// Holidays returns every Australian public holiday for the year,
	// national entries first.
	Holidays(ctx context.Context, year int) ([]model.BaseHoliday, error)
}

// ForState filters a base calendar down to the holidays observed in one
// state: national holidays plus that state's own.
func ForState(all []model.BaseHoliday, state model.State) []model.BaseHoliday {
	out := make([]model.BaseHoliday, 0, len(all))
	for _, h := range all {
		if h.National() || h.State == state {
			out = append(out, h)
		}
	}
	return out
}
