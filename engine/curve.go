/*
curve.go - Percentile curve interpolation and inference

PURPOSE:
  Forward and inverse mapping between a percentile and a value on a
  four-anchor market curve (25th/50th/75th/90th).

FORWARD (Interpolate):
  Piecewise-linear across [25,50], [50,75], [75,90]. Below 25 a synthetic
  anchor at percentile 0 (2*p25 - p50, the linear continuation of the 25-50
  segment) extends the curve; above 90 the 75-90 slope extends it at
  (p90 - p75) per 10 percentile points. Exact anchor inputs return the
  anchor value with no floating drift.

INVERSE (Infer):
  Locates the bracketing segment and interpolates the fractional
  percentile. Values below p25 extrapolate on the 25-50 slope, clamp to a
  minimum of 0, and set BelowRange; values above p90 extrapolate on the
  75-90 slope, clamp to a maximum of 100, and set AboveRange. Values equal
  to p25 or p90 return the anchor percentile with no flag. Zero-width
  segments and degenerate slopes fall back to the boundary percentile.

INVARIANT:
  Behavior is only well-defined for p25 <= p50 <= p75 <= p90. The engine
  does not enforce monotonicity; callers filter invalid rows upstream.

SEE ALSO:
  - specialty.go: Valid-row filtering before curves are consulted
  - scenario.go: All percentile placement in the scenario pipeline
*/
package engine

// Interpolate returns the curve value at targetPercentile.
func Interpolate(targetPercentile, p25, p50, p75, p90 float64) float64 {
	pct := targetPercentile

	// Anchors return exactly, no floating drift.
	switch pct {
	case 25:
		return p25
	case 50:
		return p50
	case 75:
		return p75
	case 90:
		return p90
	}

	switch {
	case pct < 25:
		// Synthetic anchor at percentile 0, continuing the 25-50 segment.
		p0 := 2*p25 - p50
		return p0 + (pct/25)*(p25-p0)
	case pct < 50:
		return p25 + ((pct-25)/25)*(p50-p25)
	case pct < 75:
		return p50 + ((pct-50)/25)*(p75-p50)
	case pct < 90:
		return p75 + ((pct-75)/15)*(p90-p75)
	default:
		return p90 + ((pct-90)/10)*(p90-p75)
	}
}

// Infer returns the percentile at which value sits on the curve. Above p90
// the inverse uses the 75-90 slope per 15 percentile points, gentler than
// the per-10 extension Interpolate applies, so deep-market values climb
// toward 100 slowly instead of saturating immediately.
func Infer(value, p25, p50, p75, p90 float64) InferredPercentile {
	// Below range: extrapolate on the 25-50 slope, clamped at 0.
	if value < p25 {
		slope := (p50 - p25) / 25
		if slope == 0 {
			return InferredPercentile{Percentile: 25, BelowRange: true}
		}
		pct := 25 + (value-p25)/slope
		if pct < 0 {
			pct = 0
		}
		return InferredPercentile{Percentile: pct, BelowRange: true}
	}
	if value == p25 {
		return InferredPercentile{Percentile: 25}
	}

	// Above range: extrapolate on the 75-90 slope, clamped at 100.
	if value == p90 {
		return InferredPercentile{Percentile: 90}
	}
	if value > p90 {
		slope := (p90 - p75) / 15
		if slope == 0 {
			return InferredPercentile{Percentile: 90, AboveRange: true}
		}
		pct := 90 + (value-p90)/slope
		if pct > 100 {
			pct = 100
		}
		return InferredPercentile{Percentile: pct, AboveRange: true}
	}

	// In range: locate the bracketing segment.
	segments := []struct {
		loPct, hiPct, loVal, hiVal float64
	}{
		{25, 50, p25, p50},
		{50, 75, p50, p75},
		{75, 90, p75, p90},
	}
	for _, s := range segments {
		if value >= s.loVal && value <= s.hiVal {
			if s.hiVal == s.loVal {
				// Zero-width value range: the lower percentile wins.
				return InferredPercentile{Percentile: s.loPct}
			}
			frac := (value - s.loVal) / (s.hiVal - s.loVal)
			return InferredPercentile{Percentile: s.loPct + frac*(s.hiPct-s.loPct)}
		}
	}

	// Unreachable for ordered curves; fall back to the median.
	return InferredPercentile{Percentile: 50}
}

// ValueAt is Interpolate over this curve's anchors.
func (c MarketCurve) ValueAt(pct float64) float64 {
	return Interpolate(pct, c.P25, c.P50, c.P75, c.P90)
}

// PercentileOf is Infer over this curve's anchors.
func (c MarketCurve) PercentileOf(value float64) InferredPercentile {
	return Infer(value, c.P25, c.P50, c.P75, c.P90)
}
