package geocode

import (
	"strings"

	"github.com/fairwork-tools/holidaycheck/internal/model"
)

// Validate translates a raw provider response into a GeocodedLocation,
// classifying granularity from provider metadata. Classification is
// conservative: a result lacking both a locality and a precise street
// number is a centroid match, never anything finer.
func Validate(raw *RawResult) (model.GeocodedLocation, error) {
	if raw == nil {
		return model.GeocodedLocation{}, &Error{Reason: ReasonNoResult, Msg: "nil provider result"}
	}

	stateRaw, ok := raw.Components["administrative_area_level_1"]
	if !ok {
		return model.GeocodedLocation{}, &Error{Reason: ReasonProviderError, Msg: "result has no state component"}
	}
	state, err := model.ParseState(stateRaw)
	if err != nil {
		return model.GeocodedLocation{}, &Error{Reason: ReasonProviderError, Msg: "unrecognised state " + stateRaw}
	}

	if !model.InAustralia(raw.Latitude, raw.Longitude) {
		return model.GeocodedLocation{}, &Error{Reason: ReasonProviderError, Msg: "coordinates outside AU bounding range"}
	}

	locality := raw.Components["locality"]
	if locality == "" {
		locality = raw.Components["postal_town"]
	}
	postcode := raw.Components["postal_code"]
	if !validPostcode(postcode) {
		postcode = ""
	}

	loc := model.GeocodedLocation{
		FormattedAddress: raw.FormattedAddress,
		State:            state,
		Locality:         locality,
		Postcode:         postcode,
		Latitude:         raw.Latitude,
		Longitude:        raw.Longitude,
		Granularity:      classify(raw, locality, postcode),
		FallbackQuery:    raw.FallbackQuery,
	}
	return loc, nil
}

// classify derives the match granularity from what the provider actually
// returned. It never infers a finer level than the evidence supports.
func classify(raw *RawResult, locality, postcode string) model.MatchGranularity {
	locType := strings.ToUpper(raw.LocationType)
	_, hasStreetNumber := raw.Components["street_number"]

	precise := locType == "ROOFTOP" || locType == "RANGE_INTERPOLATED"

	switch {
	case precise && hasStreetNumber && !raw.PartialMatch && !raw.FallbackQuery:
		return model.GranularityStreet
	case locality != "":
		return model.GranularitySuburb
	case postcode != "":
		return model.GranularityPostcodeCentroid
	case locType == "APPROXIMATE" || locType == "GEOMETRIC_CENTER":
		return model.GranularityStateCentroid
	default:
		return model.GranularityUnknown
	}
}

func validPostcode(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
