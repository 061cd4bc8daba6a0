package rules

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairwork-tools/holidaycheck/internal/model"
)

const sampleCSV = `scope_type,match_value,state,date,name,replaces,day_part,applies_to,source,notes
LGA,Ballarat,VIC,2025-11-04,Ballarat Cup Day,Melbourne Cup Day,,,VIC Gazette,
LGA,Colac-Otway (S),VIC,2025-10-20,Colac Cup Day,Melbourne Cup Day,HALF_DAY_PM,,VIC Gazette,
LOCALITY,Broken Hill,NSW,2025-09-26,Broken Hill St Patrick's Race Day,,,,NSW IR,
POSTCODE,4217,QLD,2025-08-27,Gold Coast Show Day,,,,QLD OIR,
LGA,Ballarat,VIC,2025-03-10,Public Sector Day,,,PUBLIC_SERVICE_ONLY,VIC Gazette,
`

func TestLoad(t *testing.T) {
	rules, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rules, 5)

	r := rules[0]
	assert.Equal(t, ScopeTypeLGA, r.Scope)
	assert.Equal(t, "ballarat", r.MatchValue)
	assert.Equal(t, model.VIC, r.State)
	assert.Equal(t, time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, "Ballarat Cup Day", r.Name)
	assert.Equal(t, "Melbourne Cup Day", r.Replaces)

	// Blank day_part and applies_to take the defaults.
	assert.Equal(t, model.FullDay, r.DayPart)
	assert.Equal(t, AppliesToAll, r.AppliesTo)

	// Punctuated LGA names normalize the same way resolved names do.
	assert.Equal(t, "colac otway s", rules[1].MatchValue)
	assert.Equal(t, model.HalfDayPM, rules[1].DayPart)

	// Additive rule: no replacement target.
	assert.Empty(t, rules[2].Replaces)

	assert.Equal(t, AppliesToPublicService, rules[4].AppliesTo)
}

func TestLoad_MalformedRowsFatal(t *testing.T) {
	header := "scope_type,match_value,state,date,name,replaces,day_part,applies_to,source,notes\n"

	tests := []struct {
		name   string
		row    string
		reason string
	}{
		{"bad scope", "SUBURB,Ballarat,VIC,2025-11-04,X,,,,,", "invalid scope_type"},
		{"bad state", "LGA,Ballarat,ZZ,2025-11-04,X,,,,,", "invalid state"},
		{"bad date", "LGA,Ballarat,VIC,04/11/2025,X,,,,,", "invalid date"},
		{"empty match", "LGA,,VIC,2025-11-04,X,,,,,", "empty match_value"},
		{"empty name", "LGA,Ballarat,VIC,2025-11-04,,,,,,", "empty name"},
		{"bad day part", "LGA,Ballarat,VIC,2025-11-04,X,,HALF_DAY,,,", "invalid day_part"},
		{"bad applies to", "LGA,Ballarat,VIC,2025-11-04,X,,,COUNCIL_ONLY,,", "invalid applies_to"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(header + tc.row + "\n"))
			require.Error(t, err)

			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, 2, le.Row)
			assert.Contains(t, le.Reason, tc.reason)
		})
	}
}

func TestLoad_MissingColumn(t *testing.T) {
	_, err := Load(strings.NewReader("scope_type,match_value,state,name\n"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Reason, "missing column date")
}

func TestLoad_BlankRowsSkipped(t *testing.T) {
	csv := "scope_type,match_value,state,date,name,replaces,source,notes\n" +
		",,,,,,,\n" +
		"LGA,Ballarat,VIC,2025-11-04,Ballarat Cup Day,Melbourne Cup Day,,\n"
	rules, err := Load(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestStore_RulesFor(t *testing.T) {
	rules, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	store := NewStore(rules)
	assert.Equal(t, 5, store.Len())

	t.Run("lga match", func(t *testing.T) {
		got := store.RulesFor(Query{State: model.VIC, LGA: "Ballarat"})
		require.Len(t, got, 1)
		assert.Equal(t, "Ballarat Cup Day", got[0].Name)
	})

	t.Run("restricted excluded by default", func(t *testing.T) {
		got := store.RulesFor(Query{State: model.VIC, LGA: "Ballarat"})
		for _, r := range got {
			assert.Equal(t, AppliesToAll, r.AppliesTo)
		}
	})

	t.Run("restricted included on request", func(t *testing.T) {
		got := store.RulesFor(Query{State: model.VIC, LGA: "Ballarat", IncludeRestricted: true})
		require.Len(t, got, 2)
		names := []string{got[0].Name, got[1].Name}
		assert.Contains(t, names, "Public Sector Day")
	})

	t.Run("punctuation insensitive", func(t *testing.T) {
		got := store.RulesFor(Query{State: model.VIC, LGA: "Colac Otway (S)"})
		require.Len(t, got, 1)
		assert.Equal(t, "Colac Cup Day", got[0].Name)
	})

	t.Run("state restricted", func(t *testing.T) {
		// Same LGA name in the wrong state matches nothing.
		got := store.RulesFor(Query{State: model.NSW, LGA: "Ballarat"})
		assert.Empty(t, got)
	})

	t.Run("independent facets", func(t *testing.T) {
		got := store.RulesFor(Query{
			State:    model.NSW,
			LGA:      "Broken Hill City",
			Locality: "Broken Hill",
			Postcode: "2880",
		})
		require.Len(t, got, 1)
		assert.Equal(t, ScopeTypeLocality, got[0].Scope)
	})

	t.Run("postcode match", func(t *testing.T) {
		got := store.RulesFor(Query{State: model.QLD, Postcode: "4217"})
		require.Len(t, got, 1)
		assert.Equal(t, "Gold Coast Show Day", got[0].Name)
	})

	t.Run("no facets", func(t *testing.T) {
		assert.Empty(t, store.RulesFor(Query{State: model.VIC}))
	})
}
