// Package geocode provides the geocoding provider boundary: a rate-limited
// Google Geocoding client, the validator that classifies raw provider
// responses into confidence tiers, and pluggable result caches.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client geocodes free-text addresses. Implementations return a
// provider-shaped RawResult; translation into the core's GeocodedLocation
// is the validator's job, never the caller's.
type Client interface {
	Geocode(ctx context.Context, address string) (*RawResult, error)
}

// RawResult is the provider-specific structured response: address
// components, geometry, and match flags. It carries exactly what the
// provider said, with no interpretation applied.
type RawResult struct {
	FormattedAddress string
	Latitude         float64
	Longitude        float64

	// LocationType is the provider's precision flag
	// (ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE).
	LocationType string
	PartialMatch bool

	// Components maps provider address-component types to long names,
	// e.g. "locality" -> "Brunswick", "postal_code" -> "3056".
	Components map[string]string

	// FallbackQuery is true when the match came from the simplified-address
	// retry rather than the original input.
	FallbackQuery bool
}

// Reason classifies a geocoding failure.
type Reason string

const (
	ReasonNoResult      Reason = "NO_RESULT"
	ReasonAmbiguous     Reason = "AMBIGUOUS"
	ReasonProviderError Reason = "PROVIDER_ERROR"
)

// Error is a classified geocoding failure.
type Error struct {
	Reason Reason
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("geocode: %s: %s", e.Reason, e.Msg)
}

// AsError returns the classified geocode failure inside err, if any.
func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// Option configures the Google client.
type Option func(*googleClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *googleClient) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit for provider calls.
// The burst never drops below one token, so fractional rates still admit
// single calls.
func WithRateLimit(rps float64) Option {
	return func(g *googleClient) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
}

// WithBaseURL overrides the provider endpoint (used by tests).
func WithBaseURL(u string) Option {
	return func(g *googleClient) {
		g.baseURL = u
	}
}

// NewGoogleClient creates a Client backed by the Google Geocoding API.
func NewGoogleClient(apiKey string, opts ...Option) Client {
	g := &googleClient{
		apiKey:     apiKey,
		baseURL:    googleGeocodeURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		limiter:    rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}
