package rules

import "github.com/fairwork-tools/holidaycheck/internal/model"

type indexKey struct {
	scope ScopeType
	value string
}

// Store holds the curated rules indexed by (scope type, normalized match
// value). Immutable after construction; safe for concurrent lookups.
type Store struct {
	index map[indexKey][]Rule
	count int
}

// NewStore builds the lookup index over the loaded rules.
func NewStore(all []Rule) *Store {
	index := make(map[indexKey][]Rule, len(all))
	for _, r := range all {
		k := indexKey{scope: r.Scope, value: r.MatchValue}
		index[k] = append(index[k], r)
	}
	return &Store{index: index, count: len(all)}
}

// Len reports the total number of loaded rules.
func (s *Store) Len() int { return s.count }

// Query identifies the resolved location facets a lookup can match rules
// against. Empty facets are skipped; values are normalized internally.
// Rules with an applies_to narrower than ALL only match when
// IncludeRestricted is set.
type Query struct {
	State    model.State
	LGA      string
	Locality string
	Postcode string

	IncludeRestricted bool
}

// RulesFor returns every rule matching the location, restricted to the
// location's state. Each facet is queried independently so an LGA rule and
// a locality rule can both apply to the same lookup.
func (s *Store) RulesFor(q Query) []Rule {
	var out []Rule
	out = s.appendMatches(out, ScopeTypeLGA, q.LGA, q)
	out = s.appendMatches(out, ScopeTypeLocality, q.Locality, q)
	out = s.appendMatches(out, ScopeTypePostcode, q.Postcode, q)
	return out
}

func (s *Store) appendMatches(out []Rule, scope ScopeType, value string, q Query) []Rule {
	if value == "" {
		return out
	}
	for _, r := range s.index[indexKey{scope: scope, value: model.NormalizeKey(value)}] {
		if r.State != q.State {
			continue
		}
		if !q.IncludeRestricted && r.AppliesTo != AppliesToAll {
			continue
		}
		out = append(out, r)
	}
	return out
}
