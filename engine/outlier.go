/*
outlier.go - Statistical outlier detection

PURPOSE:
  Flags outliers in a numeric sample before optimization so a handful of
  extreme producers cannot drag a specialty-wide CF recommendation.

METHODS:
  IQR:   Flag values outside [Q1 - k*IQR, Q3 + k*IQR]. Default k = 1.5.
  MAD-z: Flag values whose robust z-score (deviation from the median scaled
         by the median absolute deviation with the 1.4826 consistency
         constant) exceeds a threshold. Default threshold = 3.5.

DEGENERATE SAMPLES:
  Fewer than four points, an all-equal sample, or a zero IQR/MAD report no
  outliers rather than dividing by zero.
*/
package engine

import (
	"math"
	"sort"
)

// OutlierMethod selects the detection algorithm.
type OutlierMethod string

const (
	OutlierNone OutlierMethod = "none"
	OutlierIQR  OutlierMethod = "iqr"
	OutlierMADZ OutlierMethod = "mad_z"
)

const (
	DefaultIQRMultiplier = 1.5
	DefaultMADThreshold  = 3.5

	// madConsistency rescales MAD to estimate the standard deviation of a
	// normal distribution.
	madConsistency = 1.4826
)

// DetectOutliers returns a flag per sample value. threshold <= 0 selects
// the method's conventional default.
func DetectOutliers(values []float64, method OutlierMethod, threshold float64) []bool {
	flags := make([]bool, len(values))
	if len(values) < 4 {
		return flags
	}

	switch method {
	case OutlierIQR:
		k := threshold
		if k <= 0 {
			k = DefaultIQRMultiplier
		}
		q1, q3 := quartiles(values)
		iqr := q3 - q1
		if iqr <= 0 {
			return flags
		}
		lo, hi := q1-k*iqr, q3+k*iqr
		for i, v := range values {
			flags[i] = v < lo || v > hi
		}

	case OutlierMADZ:
		limit := threshold
		if limit <= 0 {
			limit = DefaultMADThreshold
		}
		med := median(values)
		devs := make([]float64, len(values))
		for i, v := range values {
			devs[i] = math.Abs(v - med)
		}
		mad := median(devs)
		if mad <= 0 {
			return flags
		}
		for i, v := range values {
			z := math.Abs(v-med) / (madConsistency * mad)
			flags[i] = z > limit
		}
	}

	return flags
}

// quartiles returns Q1 and Q3 using linear interpolation between order
// statistics.
func quartiles(values []float64) (q1, q3 float64) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return quantileSorted(sorted, 0.25), quantileSorted(sorted, 0.75)
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return quantileSorted(sorted, 0.5)
}

func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
