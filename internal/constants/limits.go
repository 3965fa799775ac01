package constants

// Numeric limits and configuration values
const (
	// MaxNeighbourhood is the upper bound for the filter's k (§4.F).
	MaxNeighbourhood = 255

	// FilterLRUSize is the minimum size of the foreseeing filter's
	// per-line match result cache: big enough to hold a full backward and
	// forward scan window for the largest allowed neighbourhood
	// (2*MaxNeighbourhood+1).
	FilterLRUSize = 2*MaxNeighbourhood + 1

	// DefaultNeighbourhood is used when a filter is created without an
	// explicit k.
	DefaultNeighbourhood = 0

	// BringIntoViewMaxScan is the byte-distance threshold below which
	// bring_into_view walks line-by-line instead of forcing a scroll
	// jump (§4.J).
	BringIntoViewMaxScan = 8192

	// DefaultBackgroundTaskWeight bounds concurrent background tasks
	// (index builds, eager scans, go-to scans) when no override is
	// configured (§4.I, §2 domain stack).
	DefaultBackgroundTaskWeight = 8

	// MaxSymlinkDepth is the maximum depth for following symlinks when
	// opening a file backend.
	MaxSymlinkDepth = 100

	// PercentageMultiplier is used for percentage calculations.
	PercentageMultiplier = 100.0
)
