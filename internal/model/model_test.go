package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    State
		wantErr bool
	}{
		{name: "code uppercase", input: "VIC", want: VIC},
		{name: "code lowercase", input: "nsw", want: NSW},
		{name: "code with spaces", input: "  qld ", want: QLD},
		{name: "full name", input: "Victoria", want: VIC},
		{name: "full name mixed case", input: "australian capital territory", want: ACT},
		{name: "full name NT", input: "Northern Territory", want: NT},
		{name: "unknown", input: "ZZ", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseState(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInAustralia(t *testing.T) {
	assert.True(t, InAustralia(-37.8136, 144.9631))  // Melbourne
	assert.True(t, InAustralia(-12.4634, 130.8456))  // Darwin
	assert.False(t, InAustralia(37.8136, 144.9631))  // sign flipped
	assert.False(t, InAustralia(-37.8136, -144.96))  // wrong hemisphere
	assert.False(t, InAustralia(0, 0))               // null island
	assert.False(t, InAustralia(-41.2866, 174.7756)) // Wellington NZ
}

func TestScopeSpecificityOrdering(t *testing.T) {
	assert.Greater(t, ScopeLocality.Specificity(), ScopeLGA.Specificity())
	assert.Greater(t, ScopeLGA.Specificity(), ScopePostcode.Specificity())
	assert.Greater(t, ScopePostcode.Specificity(), ScopeState.Specificity())
	assert.Greater(t, ScopeState.Specificity(), ScopeNational.Specificity())
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "Ballarat", want: "ballarat"},
		{name: "collapses whitespace", input: "  Greater   Geelong  ", want: "greater geelong"},
		{name: "strips punctuation", input: "Colac-Otway (S)", want: "colac otway s"},
		{name: "apostrophes dropped", input: "King's Birthday", want: "kings birthday"},
		{name: "diacritics folded", input: "Café Town", want: "cafe town"},
		{name: "digits kept", input: "3350", want: "3350"},
		{name: "empty", input: "", want: ""},
		{name: "punctuation only", input: "--(&)--", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.input))
		})
	}
}

func TestNormalizeKeyBothSidesAgree(t *testing.T) {
	// The comparator must give identical output for rule values and
	// provider-returned fields that differ only in formatting.
	pairs := [][2]string{
		{"Ballarat", "BALLARAT"},
		{"Greater Bendigo", "greater  bendigo"},
		{"Colac-Otway", "Colac Otway"},
	}
	for _, p := range pairs {
		assert.Equal(t, NormalizeKey(p[0]), NormalizeKey(p[1]))
	}
}
