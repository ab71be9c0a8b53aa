/*
specialty.go - Specialty name normalization and market row resolution

PURPOSE:
  Resolves a provider's free-text specialty to a market benchmark row.
  Matching is case- and punctuation-insensitive; a caller-supplied synonym
  table handles survey-name differences ("OB/GYN" vs "Obstetrics and
  Gynecology").

MATCH OUTCOMES:
  Exact:   Normalized provider specialty equals a valid row's specialty.
           (The historical "Normalized" status collapses into Exact once
           both sides are normalized before comparison.)
  Synonym: Resolved through the synonym table to a valid row.
  Missing: Blank specialty or no resolvable valid row.

VALID ROWS:
  Only market rows with all twelve percentile fields finite participate in
  matching. Rows failing that filter are invisible to the matcher.

SEE ALSO:
  - batch.go: Resolves each provider's match once per batch
*/
package engine

import (
	"regexp"
	"strings"
)

// MatchStatus classifies how a provider's specialty resolved.
type MatchStatus string

const (
	MatchExact   MatchStatus = "exact"
	MatchSynonym MatchStatus = "synonym"
	MatchMissing MatchStatus = "missing"
)

// MatchResult is the outcome of resolving one provider against the market.
type MatchResult struct {
	Row    *MarketRow  `json:"row,omitempty"`
	Status MatchStatus `json:"status"`
}

var nonWordOrSpace = regexp.MustCompile(`[^\w\s]`)
var innerWhitespace = regexp.MustCompile(`\s+`)

// NormalizeSpecialty canonicalizes a specialty name for comparison:
// trim, lowercase, strip punctuation, collapse internal whitespace.
func NormalizeSpecialty(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonWordOrSpace.ReplaceAllString(s, "")
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// MatchSpecialty resolves provider's specialty to a market row.
// The synonym map is read-only here; keys and values are specialty names.
func MatchSpecialty(provider ProviderRecord, marketRows []MarketRow, synonyms map[string]string) MatchResult {
	raw := strings.TrimSpace(provider.Specialty)
	if raw == "" {
		return MatchResult{Status: MatchMissing}
	}

	key := NormalizeSpecialty(raw)
	if row := findValidRow(marketRows, key); row != nil {
		return MatchResult{Row: row, Status: MatchExact}
	}

	// Synonym lookup: normalized key first, then the raw spelling, then the
	// lower-cased raw spelling, to tolerate tables built from either side.
	if synonyms != nil {
		for _, lookup := range []string{key, raw, strings.ToLower(raw)} {
			target, ok := synonyms[lookup]
			if !ok {
				continue
			}
			if row := findValidRow(marketRows, NormalizeSpecialty(target)); row != nil {
				return MatchResult{Row: row, Status: MatchSynonym}
			}
		}
	}

	return MatchResult{Status: MatchMissing}
}

// findValidRow returns the first valid market row whose normalized
// specialty equals the already-normalized key.
func findValidRow(rows []MarketRow, key string) *MarketRow {
	if key == "" {
		return nil
	}
	for i := range rows {
		if !rows[i].Valid() {
			continue
		}
		if NormalizeSpecialty(rows[i].Specialty) == key {
			return &rows[i]
		}
	}
	return nil
}
