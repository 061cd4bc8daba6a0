package resolve

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/fairwork-tools/holidaycheck/internal/holidays"
	"github.com/fairwork-tools/holidaycheck/internal/lga"
	"github.com/fairwork-tools/holidaycheck/internal/model"
	"github.com/fairwork-tools/holidaycheck/internal/rules"
	"github.com/fairwork-tools/holidaycheck/pkg/geocode"
)

// stubGeo maps exact addresses to canned provider results.
type stubGeo struct {
	results map[string]*geocode.RawResult
}

func (s *stubGeo) Geocode(ctx context.Context, address string) (*geocode.RawResult, error) {
	if r, ok := s.results[address]; ok {
		return r, nil
	}
	return nil, &geocode.Error{Reason: geocode.ReasonNoResult, Msg: "no result for " + address}
}

type stubSource struct {
	base []model.BaseHoliday
	err  error
}

func (s *stubSource) Holidays(ctx context.Context, year int) ([]model.BaseHoliday, error) {
	return s.base, s.err
}

func quad(minX, minY, maxX, maxY float64) *geom.MultiPolygon {
	poly := geom.NewPolygon(geom.XY)
	if err := poly.Push(geom.NewLinearRingFlat(geom.XY, []float64{
		minX, minY, maxX, minY, maxX, maxY, minX, maxY, minX, minY,
	})); err != nil {
		panic(err)
	}
	mp := geom.NewMultiPolygon(geom.XY)
	if err := mp.Push(poly); err != nil {
		panic(err)
	}
	return mp
}

func rooftop(addr string, lat, lon float64, locality, postcode string) *geocode.RawResult {
	return &geocode.RawResult{
		FormattedAddress: addr,
		Latitude:         lat,
		Longitude:        lon,
		LocationType:     "ROOFTOP",
		Components: map[string]string{
			"street_number":               "1",
			"locality":                    locality,
			"postal_code":                 postcode,
			"administrative_area_level_1": "Victoria",
		},
	}
}

const sampleRules = `scope_type,match_value,state,date,name,replaces,day_part,applies_to,source,notes
LGA,Ballarat,VIC,2025-11-11,Ballarat Cup Day,Melbourne Cup Day,,,VIC Gazette,
LGA,Ballarat,VIC,2025-03-10,Public Sector Day,,HALF_DAY_AM,PUBLIC_SERVICE_ONLY,VIC Gazette,
`

func testService(t *testing.T) *Service {
	t.Helper()

	geo := &stubGeo{results: map[string]*geocode.RawResult{
		"200 Collins St, Melbourne VIC 3000": rooftop(
			"200 Collins St, Melbourne VIC 3000", -37.80, 144.95, "Melbourne", "3000"),
		"1 Sturt St, Ballarat VIC 3350": rooftop(
			"1 Sturt St, Ballarat VIC 3350", -37.55, 143.85, "Ballarat Central", "3350"),
		"VIC 3000": {
			FormattedAddress: "VIC 3000, Australia",
			Latitude:         -37.80, Longitude: 144.95,
			LocationType: "APPROXIMATE",
			Components: map[string]string{
				"postal_code":                 "3000",
				"administrative_area_level_1": "Victoria",
			},
		},
	}}

	index := lga.NewIndex([]lga.Area{
		{Name: "Melbourne", State: model.VIC, Geometry: quad(144.90, -37.85, 145.00, -37.75)},
		{Name: "Ballarat", State: model.VIC, Geometry: quad(143.80, -37.60, 143.90, -37.50)},
	}, lga.DefaultBoundaryTolerance)

	loaded, err := rules.Load(strings.NewReader(sampleRules))
	require.NoError(t, err)

	return NewService(geo, index, &stubSource{base: vicBase()}, rules.NewStore(loaded))
}

func TestResolve_StreetLevelOK(t *testing.T) {
	svc := testService(t)

	res := svc.Resolve(context.Background(), Request{
		Address: "200 Collins St, Melbourne VIC 3000",
		Year:    2025,
	})

	assert.Equal(t, model.StatusOK, res.Status)
	assert.Equal(t, AuditExactMatch, res.AuditCode)
	assert.InDelta(t, 1.0, res.ConfidenceScore, 1e-9)
	assert.False(t, res.ManualReviewRequired)
	assert.Equal(t, "Melbourne", res.LGA)
	require.NotNil(t, res.Location)
	assert.Equal(t, model.GranularityStreet, res.Location.Granularity)

	// No Melbourne rule fires, so the base VIC calendar comes back whole.
	require.Len(t, res.Holidays, 3)
	assert.Empty(t, res.RulesApplied)
}

func TestResolve_RegionalReplacement(t *testing.T) {
	svc := testService(t)

	res := svc.Resolve(context.Background(), Request{
		Address: "1 Sturt St, Ballarat VIC 3350",
		Year:    2025,
	})

	require.Equal(t, model.StatusOK, res.Status)
	assert.Equal(t, "Ballarat", res.LGA)
	assert.Equal(t, []string{"rule-002"}, res.RulesApplied)

	names := make([]string, 0, len(res.Holidays))
	for _, h := range res.Holidays {
		names = append(names, h.Name)
	}
	assert.Contains(t, names, "Ballarat Cup Day")
	assert.NotContains(t, names, "Melbourne Cup Day")
}

func TestResolve_IncludeRestrictedRules(t *testing.T) {
	svc := testService(t)

	res := svc.Resolve(context.Background(), Request{
		Address:           "1 Sturt St, Ballarat VIC 3350",
		Year:              2025,
		IncludeRestricted: true,
	})

	require.Equal(t, model.StatusOK, res.Status)
	assert.Contains(t, res.RulesApplied, "rule-003")

	found := false
	for _, h := range res.Holidays {
		if h.Name == "Public Sector Day" {
			found = true
			assert.Equal(t, model.HalfDayAM, h.DayPart)
		}
	}
	assert.True(t, found)
}

func TestResolve_PostcodeCentroidLowConfidence(t *testing.T) {
	svc := testService(t)

	res := svc.Resolve(context.Background(), Request{Address: "VIC 3000", Year: 2025})

	assert.Equal(t, model.StatusLowConfidence, res.Status)
	assert.True(t, res.ManualReviewRequired)
	assert.Equal(t, AuditCoarseLocation, res.AuditCode)
	require.NotNil(t, res.Location)
	assert.Equal(t, model.GranularityPostcodeCentroid, res.Location.Granularity)

	// The coarse lookup still returns the state calendar.
	assert.Len(t, res.Holidays, 3)
}

func TestResolve_GeocodeFailureIsNotFound(t *testing.T) {
	svc := testService(t)

	res := svc.Resolve(context.Background(), Request{Address: "asdfghjkl", Year: 2025})

	assert.Equal(t, model.StatusNotFound, res.Status)
	assert.Equal(t, AuditGeocodeFailed, res.AuditCode)
	assert.Zero(t, res.ConfidenceScore)
	assert.True(t, res.ManualReviewRequired)
	assert.Empty(t, res.Holidays)
	require.NotEmpty(t, res.AuditNotes)
	assert.Contains(t, res.AuditNotes[0], "NO_RESULT")
}

func TestResolve_StateHintMismatch(t *testing.T) {
	svc := testService(t)

	res := svc.Resolve(context.Background(), Request{
		Address:   "200 Collins St, Melbourne VIC 3000",
		StateHint: model.NSW,
		Year:      2025,
	})

	assert.Equal(t, model.StatusLowConfidence, res.Status)
	assert.Equal(t, AuditStateHintMismatch, res.AuditCode)
	assert.True(t, res.ManualReviewRequired)
}

func TestResolve_CalendarUnavailable(t *testing.T) {
	svc := testService(t)
	svc.source = &stubSource{err: assert.AnError}

	res := svc.Resolve(context.Background(), Request{
		Address: "200 Collins St, Melbourne VIC 3000",
		Year:    2025,
	})

	assert.Equal(t, model.StatusNotFound, res.Status)
	assert.Equal(t, AuditCalendarUnavailable, res.AuditCode)
}

func TestResolve_PayPeriodFilter(t *testing.T) {
	svc := testService(t)

	res := svc.Resolve(context.Background(), Request{
		Address:     "200 Collins St, Melbourne VIC 3000",
		PeriodStart: "2025-11-01",
		PeriodEnd:   "2025-11-14",
	})

	require.Equal(t, model.StatusOK, res.Status)
	assert.Len(t, res.Holidays, 3, "full calendar is always reported")
	require.Len(t, res.HolidaysInPeriod, 1)
	assert.Equal(t, "Melbourne Cup Day", res.HolidaysInPeriod[0].Name)
}

func TestResolve_InvalidPeriod(t *testing.T) {
	svc := testService(t)

	tests := []struct {
		name  string
		start string
		end   string
	}{
		{name: "inverted", start: "2025-11-14", end: "2025-11-01"},
		{name: "malformed start", start: "14/11/2025", end: "2025-11-14"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := svc.Resolve(context.Background(), Request{
				Address:     "200 Collins St, Melbourne VIC 3000",
				PeriodStart: tc.start,
				PeriodEnd:   tc.end,
			})

			assert.Equal(t, model.StatusNotFound, res.Status)
			assert.Equal(t, AuditInvalidPeriod, res.AuditCode)
			assert.Equal(t, AuditMessage(AuditInvalidPeriod), res.AuditMessage)
			assert.True(t, res.ManualReviewRequired)
		})
	}
}

func TestReadRows(t *testing.T) {
	csv := `employee_id,office_address,home_address,work_mode,year,start_date,end_date
E001,200 Collins St Melbourne VIC 3000,12 Home St Brunswick VIC 3056,OFFICE,2025,2025-11-01,2025-11-14
E002,,,OFFICE,2025,,
E003,Office Addr,9 Hill Rd Ballarat VIC 3350,home,2025,,
`
	rows, err := ReadRows(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "E001", rows[0].EmployeeID)
	assert.Equal(t, WorkModeOffice, rows[0].WorkMode)
	assert.Equal(t, "200 Collins St Melbourne VIC 3000", rows[0].Address())
	assert.Equal(t, 2025, rows[0].Year)

	// Lowercase work mode is normalized; home rows select the home address.
	assert.Equal(t, WorkModeHome, rows[2].WorkMode)
	assert.Equal(t, "9 Hill Rd Ballarat VIC 3350", rows[2].Address())
}

func TestReadRows_MissingColumn(t *testing.T) {
	_, err := ReadRows(strings.NewReader("employee_id,office_address\nE001,x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "home_address")
}

func TestRunBatch_RowIsolation(t *testing.T) {
	svc := testService(t)

	csv := `employee_id,office_address,home_address,work_mode,year,start_date,end_date
E001,200 Collins St Melbourne VIC 3000,,OFFICE,2025,,
E002,,,OFFICE,2025,,
E003,,1 Sturt St Ballarat VIC 3350,HOME,2025,,
`
	// Addresses in the stub are keyed with commas; rewrite to match.
	csv = strings.ReplaceAll(csv, "200 Collins St Melbourne VIC 3000", "\"200 Collins St, Melbourne VIC 3000\"")
	csv = strings.ReplaceAll(csv, "1 Sturt St Ballarat VIC 3350", "\"1 Sturt St, Ballarat VIC 3350\"")

	rows, err := ReadRows(strings.NewReader(csv))
	require.NoError(t, err)

	out := svc.RunBatch(context.Background(), rows, 2)
	require.NotEmpty(t, out.RunID)
	require.Len(t, out.Rows, 3)

	// Output order matches input order regardless of worker scheduling.
	assert.Equal(t, "E001", out.Rows[0].Row.EmployeeID)
	assert.Equal(t, model.StatusOK, out.Rows[0].Result.Status)

	// The empty row fails alone; its neighbors still resolve.
	assert.Equal(t, model.StatusNotFound, out.Rows[1].Result.Status)

	assert.Equal(t, model.StatusOK, out.Rows[2].Result.Status)
	assert.Equal(t, "Ballarat", out.Rows[2].Result.LGA)
}

func TestRunBatch_MalformedPeriodRow(t *testing.T) {
	svc := testService(t)

	out := svc.RunBatch(context.Background(), []Row{
		{Line: 2, EmployeeID: "E001", OfficeAddress: "200 Collins St, Melbourne VIC 3000",
			WorkMode: WorkModeOffice, Year: 2025, StartDate: "bogus", EndDate: "2025-11-14"},
		{Line: 3, EmployeeID: "E002", OfficeAddress: "200 Collins St, Melbourne VIC 3000",
			WorkMode: WorkModeOffice, Year: 2025},
	}, 1)

	require.Len(t, out.Rows, 2)
	assert.Equal(t, model.StatusNotFound, out.Rows[0].Result.Status)
	assert.Equal(t, AuditInvalidPeriod, out.Rows[0].Result.AuditCode)
	assert.Equal(t, model.StatusOK, out.Rows[1].Result.Status)
}

func TestRunBatch_InvalidWorkMode(t *testing.T) {
	svc := testService(t)

	out := svc.RunBatch(context.Background(), []Row{
		{Line: 2, EmployeeID: "E001", OfficeAddress: "x", WorkMode: "HYBRID"},
	}, 1)

	require.Len(t, out.Rows, 1)
	res := out.Rows[0].Result
	assert.Equal(t, model.StatusNotFound, res.Status)
	require.NotEmpty(t, res.AuditNotes)
	assert.Contains(t, res.AuditNotes[0], "work_mode")
}

func TestForStateWiring(t *testing.T) {
	// NSW-tagged base entries never leak into a VIC lookup.
	svc := testService(t)
	svc.source = &stubSource{base: append(vicBase(),
		model.BaseHoliday{Date: day(2025, 8, 4), Name: "Bank Holiday", State: model.NSW})}

	res := svc.Resolve(context.Background(), Request{
		Address: "200 Collins St, Melbourne VIC 3000",
		Year:    2025,
	})
	for _, h := range res.Holidays {
		assert.NotEqual(t, "Bank Holiday", h.Name)
	}
}

func TestHolidaysSourceInterfaceSatisfied(t *testing.T) {
	var _ holidays.Source = &stubSource{}
}
