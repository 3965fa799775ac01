package constants

// Channel buffer size constants
const (
	// TaskSignalChannelSize is the default buffer size for a background
	// task's message/progress channel (§4.I).
	TaskSignalChannelSize = 16

	// LoggerBufferChannelMultiplier is the buffer size for logger
	// channels, calculated as runtime.NumCPU() * this at start-up.
	LoggerBufferChannelMultiplier = 100
)
