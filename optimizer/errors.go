package optimizer

import "errors"

// Sentinel errors. The optimizer has very few failure modes: per-specialty
// problems degrade to NO_RECOMMENDATION results, so errors are limited to
// unusable run inputs and caller cancellation.
var (
	// ErrNoProviders is returned when a run is invoked with no data rows.
	ErrNoProviders = errors.New("no data rows")

	// ErrNoCFPercentiles is returned when a sweep is invoked without any
	// candidate percentiles to evaluate.
	ErrNoCFPercentiles = errors.New("no cf percentiles supplied")
)
