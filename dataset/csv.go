/*
Package dataset loads provider rosters, market survey tables, and
specialty synonym maps from files.

PURPOSE:
  The file boundary. Everything here parses external data into engine
  records and reports row-level problems as errors; no calculation
  happens in this package.

CSV LAYOUT:
  Header-driven. Column order doesn't matter; header names are
  normalized (lowercased, spaces to underscores) before lookup, so
  "Clinical FTE" and "clinical_fte" both work. Unknown columns are
  ignored. Numeric cells may be blank (treated as zero).
*/
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/warp/comp-engine/engine"
)

// LoadProvidersCSV reads a provider roster from the given file.
func LoadProvidersCSV(path string) ([]engine.ProviderRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening provider file %s", path)
	}
	defer f.Close()
	return ReadProviders(f)
}

// ReadProviders parses a provider roster from CSV.
func ReadProviders(r io.Reader) ([]engine.ProviderRecord, error) {
	rows, header, err := readTable(r)
	if err != nil {
		return nil, err
	}

	var providers []engine.ProviderRecord
	for i, row := range rows {
		get := cellGetter(header, row)
		p := engine.ProviderRecord{
			ID:           get("provider_id"),
			Name:         get("name"),
			Specialty:    get("specialty"),
			Division:     get("division"),
			ProviderType: get("provider_type"),
		}
		if p.ID == "" {
			return nil, eris.Errorf("row %d: provider_id is required", i+2)
		}

		nums := []struct {
			col string
			dst *float64
		}{
			{"total_fte", &p.TotalFTE},
			{"clinical_fte", &p.ClinicalFTE},
			{"admin_fte", &p.AdminFTE},
			{"research_fte", &p.ResearchFTE},
			{"teaching_fte", &p.TeachingFTE},
			{"base_salary", &p.BaseSalary},
			{"non_clinical_pay", &p.NonClinicalPay},
			{"quality_payments", &p.QualityPayments},
			{"other_incentive_1", &p.OtherIncentive1},
			{"other_incentive_2", &p.OtherIncentive2},
			{"other_incentive_3", &p.OtherIncentive3},
			{"work_wrvus", &p.WorkWRVUs},
			{"outside_wrvus", &p.OutsideWRVUs},
			{"pch_wrvus", &p.PCHWRVUs},
			{"total_wrvus", &p.TotalWRVUs},
			{"current_cf", &p.CurrentCF},
			{"current_threshold", &p.CurrentThreshold},
			{"current_tcc", &p.CurrentTCC},
		}
		for _, n := range nums {
			v, err := parseFloatCell(get(n.col))
			if err != nil {
				return nil, eris.Wrapf(err, "row %d column %s", i+2, n.col)
			}
			*n.dst = v
		}

		if raw := get("clinical_fte_salary"); raw != "" {
			v, err := parseFloatCell(raw)
			if err != nil {
				return nil, eris.Wrapf(err, "row %d column clinical_fte_salary", i+2)
			}
			p.ClinicalFTESalary = &v
		}
		if raw := get("tenure_months"); raw != "" {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, eris.Wrapf(err, "row %d column tenure_months", i+2)
			}
			p.TenureMonths = v
		}
		p.OnLeave = parseBoolCell(get("on_leave"))
		if get("model") == "productivity" {
			p.Model = engine.ModelProductivity
		} else {
			p.Model = engine.ModelBase
		}

		providers = append(providers, p)
	}
	return providers, nil
}

// LoadMarketCSV reads a market survey table from the given file.
func LoadMarketCSV(path string) ([]engine.MarketRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening market file %s", path)
	}
	defer f.Close()
	return ReadMarketRows(f)
}

// ReadMarketRows parses a market survey table from CSV.
func ReadMarketRows(r io.Reader) ([]engine.MarketRow, error) {
	rows, header, err := readTable(r)
	if err != nil {
		return nil, err
	}

	var market []engine.MarketRow
	for i, row := range rows {
		m, err := parseMarketRow(cellGetter(header, row))
		if err != nil {
			return nil, eris.Wrapf(err, "row %d", i+2)
		}
		market = append(market, m)
	}
	return market, nil
}

// parseMarketRow builds a MarketRow from a header-indexed row accessor.
// Shared by the CSV and XLSX readers.
func parseMarketRow(get func(string) string) (engine.MarketRow, error) {
	m := engine.MarketRow{
		Specialty:    get("specialty"),
		ProviderType: get("provider_type"),
		Region:       get("region"),
	}
	if m.Specialty == "" {
		return m, eris.New("specialty is required")
	}

	curves := []struct {
		prefix string
		dst    *engine.MarketCurve
	}{
		{"tcc", &m.TCC},
		{"wrvu", &m.WRVU},
		{"cf", &m.CF},
	}
	for _, c := range curves {
		anchors := []struct {
			suffix string
			dst    *float64
		}{
			{"p25", &c.dst.P25},
			{"p50", &c.dst.P50},
			{"p75", &c.dst.P75},
			{"p90", &c.dst.P90},
		}
		for _, a := range anchors {
			col := c.prefix + "_" + a.suffix
			v, err := parseFloatCell(get(col))
			if err != nil {
				return m, eris.Wrapf(err, "column %s", col)
			}
			*a.dst = v
		}
	}
	return m, nil
}

// LoadSynonymsCSV reads an alias-to-canonical synonym map. The file has
// two columns: alias, canonical. A header row is optional.
func LoadSynonymsCSV(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening synonym file %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	synonyms := make(map[string]string)
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "reading synonym file %s", path)
		}
		line++
		if len(record) < 2 {
			return nil, eris.Errorf("line %d: expected alias,canonical", line)
		}
		alias := strings.TrimSpace(record[0])
		canonical := strings.TrimSpace(record[1])
		if line == 1 && strings.EqualFold(alias, "alias") {
			continue // header row
		}
		if alias == "" || canonical == "" {
			continue
		}
		synonyms[alias] = canonical
	}
	return synonyms, nil
}

// readTable reads all CSV records and returns data rows plus a
// normalized header index.
func readTable(r io.Reader) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, eris.Wrap(err, "reading csv")
	}
	if len(records) == 0 {
		return nil, nil, eris.New("csv has no header row")
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[normalizeHeader(name)] = i
	}
	return records[1:], header, nil
}

func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, " ", "_")
}

func cellGetter(header map[string]int, row []string) func(string) string {
	return func(col string) string {
		idx, ok := header[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
}

// parseFloatCell treats blank as zero and strips currency formatting.
func parseFloatCell(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	raw = strings.ReplaceAll(raw, "$", "")
	raw = strings.ReplaceAll(raw, ",", "")
	return strconv.ParseFloat(raw, 64)
}

func parseBoolCell(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1":
		return true
	}
	return false
}
