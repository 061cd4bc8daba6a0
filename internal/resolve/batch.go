package resolve

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fairwork-tools/holidaycheck/internal/model"
)

// WorkMode selects which of an employee's addresses governs their holidays.
type WorkMode string

const (
	WorkModeOffice WorkMode = "OFFICE"
	WorkModeHome   WorkMode = "HOME"
)

// Row is one employee record from a batch input file.
type Row struct {
	Line          int
	EmployeeID    string
	OfficeAddress string
	HomeAddress   string
	WorkMode      WorkMode
	Year          int
	StartDate     string
	EndDate       string
}

// Address returns the address the row's work mode selects.
func (r Row) Address() string {
	if r.WorkMode == WorkModeHome {
		return r.HomeAddress
	}
	return r.OfficeAddress
}

// RowResult pairs a batch row with its resolution outcome.
type RowResult struct {
	Row    Row
	Result *model.ResolutionResult
}

// BatchResult is the outcome of one batch run.
type BatchResult struct {
	RunID string
	Rows  []RowResult
}

// expected batch input header.
var batchColumns = []string{"employee_id", "office_address", "home_address", "work_mode", "year", "start_date", "end_date"}

// ReadRows parses a batch input CSV. Structural problems in a row (missing
// work mode, bad year) do not abort the read: the row is kept with enough
// context for the runner to emit a NOT_FOUND result for it, so one bad row
// never sinks the file.
func ReadRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("resolve: empty batch file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "resolve: read batch header")
	}

	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range batchColumns[:4] {
		if _, ok := col[required]; !ok {
			return nil, eris.Errorf("resolve: batch file missing column %s", required)
		}
	}

	get := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, eris.Wrapf(err, "resolve: batch row %d", line)
		}

		year := 0
		if y := get(record, "year"); y != "" {
			if parsed, err := strconv.Atoi(y); err == nil {
				year = parsed
			}
		}

		rows = append(rows, Row{
			Line:          line,
			EmployeeID:    get(record, "employee_id"),
			OfficeAddress: get(record, "office_address"),
			HomeAddress:   get(record, "home_address"),
			WorkMode:      WorkMode(strings.ToUpper(get(record, "work_mode"))),
			Year:          year,
			StartDate:     get(record, "start_date"),
			EndDate:       get(record, "end_date"),
		})
	}
	return rows, nil
}

// RunBatch resolves every row concurrently, up to the given parallelism.
// Rows are isolated: an unusable row yields a NOT_FOUND result in its
// output slot and the run continues. Output order matches input order.
func (s *Service) RunBatch(ctx context.Context, rows []Row, concurrency int) *BatchResult {
	if concurrency < 1 {
		concurrency = 4
	}

	runID := uuid.NewString()
	log := s.log.With(zap.String("run_id", runID))
	log.Info("batch run starting", zap.Int("rows", len(rows)), zap.Int("concurrency", concurrency))

	out := make([]RowResult, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, row := range rows {
		g.Go(func() error {
			out[i] = RowResult{Row: row, Result: s.resolveRow(gctx, row)}
			return nil
		})
	}
	// Workers never return errors; per-row failures live in the results.
	_ = g.Wait()

	var failed int
	for _, rr := range out {
		if rr.Result.Status == model.StatusNotFound {
			failed++
		}
	}
	log.Info("batch run finished", zap.Int("rows", len(rows)), zap.Int("not_found", failed))

	return &BatchResult{RunID: runID, Rows: out}
}

// resolveRow validates the row shape, then delegates to Resolve. Shape
// problems become NOT_FOUND results the same way lookup failures do.
func (s *Service) resolveRow(ctx context.Context, row Row) *model.ResolutionResult {
	if row.WorkMode != WorkModeOffice && row.WorkMode != WorkModeHome {
		res := &model.ResolutionResult{Holidays: []model.ResolvedHoliday{}}
		return s.fail(res, AuditGeocodeFailed,
			eris.Errorf("resolve: row %d: invalid work_mode %q", row.Line, string(row.WorkMode)))
	}

	address := row.Address()
	if address == "" {
		res := &model.ResolutionResult{Holidays: []model.ResolvedHoliday{}}
		return s.fail(res, AuditGeocodeFailed,
			eris.Errorf("resolve: row %d: no address for work_mode %s", row.Line, string(row.WorkMode)))
	}

	return s.Resolve(ctx, Request{
		Address:     address,
		Year:        row.Year,
		PeriodStart: row.StartDate,
		PeriodEnd:   row.EndDate,
	})
}
