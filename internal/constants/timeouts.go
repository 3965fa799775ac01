package constants

import "time"

// Timeout and interval constants used throughout the application
const (
	// RegistryProgressInterval is the line registry build's maximum
	// progress report rate (§4.B: "reports bytes processed at ≤10 Hz").
	RegistryProgressInterval = 100 * time.Millisecond

	// EagerScanBatchInterval is how often the filtered source's eager
	// background scan batches its progress messages (§4.F).
	EagerScanBatchInterval = 500 * time.Millisecond

	// EagerScanBatchLines is the line-count companion to
	// EagerScanBatchInterval: whichever threshold is hit first flushes
	// the batch.
	EagerScanBatchLines = 1024

	// GotoLineProgressInterval is the go-to-line background task's
	// progress report rate (§4.K: "report progress every... 100ms").
	GotoLineProgressInterval = 100 * time.Millisecond

	// InterruptDebounce is a 500 ms interrupt poll period.
	// tasks.Context.InterruptedDebounced does not use it; it polls on
	// every call.
	InterruptDebounce = 500 * time.Millisecond

	// TailPollInterval is how long a tailing reader sleeps after hitting
	// EOF before retrying.
	TailPollInterval = 100 * time.Millisecond

	// DayDuration represents 24 hours.
	DayDuration = 24 * time.Hour

	// UITickInterval is how often the entrypoint's event loop drains the
	// background task runtime's signal queue (§5: "a single Drain call
	// per UI tick") while no real terminal UI is attached.
	UITickInterval = 50 * time.Millisecond
)
