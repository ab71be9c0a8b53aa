package engine

import "testing"

func countFlags(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func TestIQRFlagsExtremeValue(t *testing.T) {
	// GIVEN a tight cluster with one far-off point
	values := []float64{100, 102, 98, 101, 99, 103, 500}

	flags := DetectOutliers(values, OutlierIQR, 0)
	if !flags[6] {
		t.Error("expected 500 to be flagged as an outlier")
	}
	if countFlags(flags) != 1 {
		t.Errorf("flagged %d values, want 1: %v", countFlags(flags), flags)
	}
}

func TestMADZFlagsExtremeValue(t *testing.T) {
	values := []float64{100, 102, 98, 101, 99, 103, 500}

	flags := DetectOutliers(values, OutlierMADZ, 0)
	if !flags[6] {
		t.Error("expected 500 to be flagged as an outlier")
	}
	if countFlags(flags) != 1 {
		t.Errorf("flagged %d values, want 1: %v", countFlags(flags), flags)
	}
}

func TestSmallSamplesAreNeverFlagged(t *testing.T) {
	// Fewer than four points carry too little information to call
	// anything an outlier.
	values := []float64{1, 2, 1000}

	for _, method := range []OutlierMethod{OutlierIQR, OutlierMADZ} {
		if countFlags(DetectOutliers(values, method, 0)) != 0 {
			t.Errorf("method %v flagged values in a 3-point sample", method)
		}
	}
}

func TestUniformSampleHasNoOutliers(t *testing.T) {
	values := []float64{50, 50, 50, 50, 50, 50}

	for _, method := range []OutlierMethod{OutlierIQR, OutlierMADZ} {
		if countFlags(DetectOutliers(values, method, 0)) != 0 {
			t.Errorf("method %v flagged values in a constant sample", method)
		}
	}
}

func TestOutlierNoneFlagsNothing(t *testing.T) {
	values := []float64{1, 2, 3, 1000, 5, 6}
	if countFlags(DetectOutliers(values, OutlierNone, 0)) != 0 {
		t.Error("method none must not flag anything")
	}
}

func TestIQRThresholdWidensFence(t *testing.T) {
	// GIVEN a moderate outlier flagged at the default multiplier
	values := []float64{10, 11, 12, 13, 14, 22}
	if countFlags(DetectOutliers(values, OutlierIQR, 0)) == 0 {
		t.Fatal("expected 22 flagged at the default multiplier")
	}

	// WHEN the fence is widened, THEN it is no longer flagged
	if countFlags(DetectOutliers(values, OutlierIQR, 10)) != 0 {
		t.Error("expected no flags with multiplier 10")
	}
}
