package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleGeocodeResponse is the JSON response from the Google Geocoding API.
type googleGeocodeResponse struct {
	Results []googleResult `json:"results"`
	Status  string         `json:"status"`
}

type googleResult struct {
	AddressComponents []struct {
		LongName string   `json:"long_name"`
		Types    []string `json:"types"`
	} `json:"address_components"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		LocationType string `json:"location_type"`
	} `json:"geometry"`
	FormattedAddress string `json:"formatted_address"`
	PartialMatch     bool   `json:"partial_match"`
}

type googleClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Geocode geocodes an address, retrying once with a simplified query when
// the provider returns ZERO_RESULTS for the full address.
func (g *googleClient) Geocode(ctx context.Context, address string) (*RawResult, error) {
	raw, err := g.call(ctx, address)
	if err == nil {
		return raw, nil
	}

	ge, ok := AsError(err)
	if !ok || ge.Reason != ReasonNoResult {
		return nil, err
	}

	// Drop the street-level parts and retry with the suburb/state/postcode
	// tail. A match here is flagged so downstream confidence stays capped.
	fallback := simplifyAddress(address)
	if fallback == "" || fallback == strings.TrimSpace(address) {
		return nil, err
	}

	zap.L().Debug("geocode: retrying with simplified address",
		zap.String("fallback", fallback),
	)
	raw, fbErr := g.call(ctx, fallback)
	if fbErr != nil {
		return nil, err // report the original failure
	}
	raw.FallbackQuery = true
	return raw, nil
}

func (g *googleClient) call(ctx context.Context, query string) (*RawResult, error) {
	if g.apiKey == "" {
		return nil, &Error{Reason: ReasonProviderError, Msg: "api key not configured"}
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit wait")
	}

	params := url.Values{
		"address": {query},
		"key":     {g.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Reason: ReasonProviderError, Msg: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Reason: ReasonProviderError, Msg: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var parsed googleGeocodeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}

	switch parsed.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, &Error{Reason: ReasonNoResult, Msg: "no candidates for address"}
	default:
		return nil, &Error{Reason: ReasonProviderError, Msg: "provider status " + parsed.Status}
	}
	if len(parsed.Results) == 0 {
		return nil, &Error{Reason: ReasonNoResult, Msg: "empty result set"}
	}

	// Multiple partial matches means the provider could not pick a single
	// candidate; surfacing an arbitrary one would misattribute the LGA.
	if len(parsed.Results) > 1 && parsed.Results[0].PartialMatch {
		return nil, &Error{Reason: ReasonAmbiguous, Msg: "multiple partial matches"}
	}

	first := parsed.Results[0]
	components := make(map[string]string, len(first.AddressComponents))
	for _, c := range first.AddressComponents {
		for _, t := range c.Types {
			components[t] = c.LongName
		}
	}

	return &RawResult{
		FormattedAddress: first.FormattedAddress,
		Latitude:         first.Geometry.Location.Lat,
		Longitude:        first.Geometry.Location.Lng,
		LocationType:     first.Geometry.LocationType,
		PartialMatch:     first.PartialMatch,
		Components:       components,
	}, nil
}

var (
	leadingNumberRe = regexp.MustCompile(`^\s*\d+[a-zA-Z]?[/\-]?\d*\s+`)
	streetSuffixRe  = regexp.MustCompile(`(?i)\b(st|street|rd|road|ave|avenue|blvd|boulevard|dr|drive|ct|court|ln|lane|pde|parade|hwy|highway)\b\.?`)
)

// simplifyAddress strips likely street-number and street-name parts, keeping
// the suburb/state/postcode tail. Best-effort only; used for the
// ZERO_RESULTS retry.
func simplifyAddress(address string) string {
	a := strings.TrimSpace(address)

	parts := make([]string, 0, 4)
	for _, p := range strings.Split(a, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) >= 2 {
		return strings.Join(parts[len(parts)-2:], ", ")
	}

	a = leadingNumberRe.ReplaceAllString(a, "")
	a = streetSuffixRe.ReplaceAllString(a, "")
	return strings.Join(strings.Fields(a), " ")
}
