package holidays

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fairwork-tools/holidaycheck/internal/model"
)

// DefaultBaseURL is the public Nager.Date API endpoint.
const DefaultBaseURL = "https://date.nager.at"

// nagerClient fetches the AU calendar from the Nager.Date v3 API.
type nagerClient struct {
	httpClient *http.Client
	baseURL    string
	log        *zap.Logger
}

// Option configures the Nager client.
type Option func(*nagerClient)

// WithHTTPClient overrides the HTTP client, typically for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(n *nagerClient) { n.httpClient = c }
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(n *nagerClient) { n.baseURL = strings.TrimRight(u, "/") }
}

// NewNagerClient builds a Source backed by the Nager.Date API.
func NewNagerClient(opts ...Option) Source {
	n := &nagerClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    DefaultBaseURL,
		log:        zap.L().With(zap.String("component", "holidays.nager")),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// nagerHoliday is one entry of the v3 PublicHolidays response. A global
// entry applies nationwide; otherwise counties lists ISO 3166-2 subdivision
// codes such as "AU-VIC".
type nagerHoliday struct {
	Date      string   `json:"date"`
	LocalName string   `json:"localName"`
	Name      string   `json:"name"`
	Global    bool     `json:"global"`
	Counties  []string `json:"counties"`
}

func (n *nagerClient) Holidays(ctx context.Context, year int) ([]model.BaseHoliday, error) {
	url := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/AU", n.baseURL, year)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "holidays: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "holidays: fetch calendar for %d", year)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Errorf("holidays: calendar API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var entries []nagerHoliday
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, eris.Wrap(err, "holidays: decode calendar response")
	}

	out := make([]model.BaseHoliday, 0, len(entries))
	var skipped int
	for _, e := range entries {
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			n.log.Warn("skipping calendar entry with unparseable date",
				zap.String("date", e.Date), zap.String("name", e.Name))
			skipped++
			continue
		}

		name := e.Name
		if name == "" {
			name = e.LocalName
		}

		if e.Global {
			out = append(out, model.BaseHoliday{Date: date, Name: name})
			continue
		}

		// One entry per listed subdivision so state filtering stays a flat scan.
		for _, county := range e.Counties {
			state, err := model.ParseState(strings.TrimPrefix(county, "AU-"))
			if err != nil {
				n.log.Warn("skipping unknown subdivision code",
					zap.String("county", county), zap.String("name", name))
				skipped++
				continue
			}
			out = append(out, model.BaseHoliday{Date: date, Name: name, State: state})
		}
	}

	n.log.Debug("base calendar fetched",
		zap.Int("year", year), zap.Int("holidays", len(out)), zap.Int("skipped", skipped))
	return out, nil
}

// Cached memoizes a Source per year. Batch runs hit the same few years for
// every row; one upstream fetch per year is enough.
type Cached struct {
	src Source

	mu    sync.Mutex
	years map[int][]model.BaseHoliday
}

// NewCached wraps src with per-year memoization.
func NewCached(src Source) *Cached {
	return &Cached{src: src, years: make(map[int][]model.BaseHoliday)}
}

func (c *Cached) Holidays(ctx context.Context, year int) ([]model.BaseHoliday, error) {
	c.mu.Lock()
	cached, ok := c.years[year]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	fetched, err := c.src.Holidays(ctx, year)
	if err != nil {
		// Failures are not cached; the next lookup retries.
		return nil, err
	}

	c.mu.Lock()
	c.years[year] = fetched
	c.mu.Unlock()
	return fetched, nil
}
