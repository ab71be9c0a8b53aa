/*
specialty_test.go - Specialty matching tests

ORGANIZATION:
  1. Normalization   - case, punctuation, and whitespace insensitivity
  2. Match priority  - exact beats synonym; missing as last resort
  3. Determinism     - identical inputs give identical outcomes
*/
package engine

import (
	"math"
	"testing"
)

func testMarketRows() []MarketRow {
	curve := MarketCurve{P25: 1, P50: 2, P75: 3, P90: 4}
	return []MarketRow{
		{Specialty: "Cardiology", TCC: curve, WRVU: curve, CF: curve},
		{Specialty: "Internal Medicine", TCC: curve, WRVU: curve, CF: curve},
		{Specialty: "Orthopedic Surgery", TCC: curve, WRVU: curve, CF: curve},
	}
}

func providerIn(specialty string) ProviderRecord {
	return ProviderRecord{ID: "p1", Specialty: specialty}
}

// =============================================================================
// 1. NORMALIZATION
// =============================================================================

func TestNormalizeSpecialty(t *testing.T) {
	cases := map[string]string{
		"Cardiology":              "cardiology",
		"  Internal   Medicine  ": "internal medicine",
		"OB/GYN":                  "obgyn",
		"Hematology-Oncology":     "hematologyoncology",
		"":                        "",
	}
	for in, want := range cases {
		if got := NormalizeSpecialty(in); got != want {
			t.Errorf("NormalizeSpecialty(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchIsCaseAndPunctuationInsensitive(t *testing.T) {
	rows := testMarketRows()

	for _, name := range []string{"cardiology", "CARDIOLOGY", "Cardiology.", " cardiology "} {
		res := MatchSpecialty(providerIn(name), rows, nil)
		if res.Status != MatchExact {
			t.Errorf("MatchSpecialty(%q) status = %v, want exact", name, res.Status)
		}
		if res.Row == nil || res.Row.Specialty != "Cardiology" {
			t.Errorf("MatchSpecialty(%q) resolved wrong row: %+v", name, res.Row)
		}
	}
}

// =============================================================================
// 2. MATCH PRIORITY
// =============================================================================

func TestExactBeatsSynonym(t *testing.T) {
	rows := testMarketRows()

	// GIVEN a synonym that would redirect "Cardiology" elsewhere
	synonyms := map[string]string{"Cardiology": "Internal Medicine"}

	// WHEN the provider's specialty also matches a row exactly
	res := MatchSpecialty(providerIn("Cardiology"), rows, synonyms)

	// THEN the exact match wins
	if res.Status != MatchExact {
		t.Errorf("status = %v, want exact", res.Status)
	}
	if res.Row.Specialty != "Cardiology" {
		t.Errorf("matched %q, want Cardiology", res.Row.Specialty)
	}
}

func TestSynonymMatch(t *testing.T) {
	rows := testMarketRows()
	synonyms := map[string]string{"Heart Medicine": "Cardiology"}

	res := MatchSpecialty(providerIn("Heart Medicine"), rows, synonyms)
	if res.Status != MatchSynonym {
		t.Errorf("status = %v, want synonym", res.Status)
	}
	if res.Row == nil || res.Row.Specialty != "Cardiology" {
		t.Errorf("synonym resolved wrong row: %+v", res.Row)
	}
}

func TestSynonymKeysAreNormalized(t *testing.T) {
	rows := testMarketRows()
	synonyms := map[string]string{"heart medicine": "Cardiology"}

	res := MatchSpecialty(providerIn("HEART   Medicine!"), rows, synonyms)
	if res.Status != MatchSynonym {
		t.Errorf("status = %v, want synonym", res.Status)
	}
}

func TestMissingWhenNothingMatches(t *testing.T) {
	rows := testMarketRows()

	for _, name := range []string{"Dermatology", ""} {
		res := MatchSpecialty(providerIn(name), rows, nil)
		if res.Status != MatchMissing {
			t.Errorf("MatchSpecialty(%q) status = %v, want missing", name, res.Status)
		}
		if res.Row != nil {
			t.Errorf("MatchSpecialty(%q) returned a row: %+v", name, res.Row)
		}
	}
}

func TestSynonymToInvalidRowIsMissing(t *testing.T) {
	// GIVEN a synonym pointing at a row with a non-finite curve
	rows := testMarketRows()
	rows = append(rows, MarketRow{
		Specialty: "Broken",
		TCC:       MarketCurve{P25: math.NaN()},
	})
	synonyms := map[string]string{"Alias": "Broken"}

	res := MatchSpecialty(providerIn("Alias"), rows, synonyms)
	if res.Status != MatchMissing {
		t.Errorf("status = %v, want missing for invalid target row", res.Status)
	}
}

// =============================================================================
// 3. DETERMINISM
// =============================================================================

func TestMatchIsDeterministic(t *testing.T) {
	rows := testMarketRows()
	synonyms := map[string]string{"Heart Medicine": "Cardiology"}

	names := []string{"Cardiology", "Heart Medicine", "Dermatology", "orthopedic surgery"}
	first := make([]MatchStatus, len(names))
	for i, name := range names {
		first[i] = MatchSpecialty(providerIn(name), rows, synonyms).Status
	}
	for round := 0; round < 10; round++ {
		for i, name := range names {
			if got := MatchSpecialty(providerIn(name), rows, synonyms).Status; got != first[i] {
				t.Fatalf("round %d: MatchSpecialty(%q) = %v, previously %v", round, name, got, first[i])
			}
		}
	}
}
