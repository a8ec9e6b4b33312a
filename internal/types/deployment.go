package types

// RunMode selects which worker loops a process starts. A single binary
// can run the ingest+query HTTP server, the event processor, the
// aggregation engine, or all three together (local/dev default).
type RunMode string

const (
	ModeAPI        RunMode = "api"
	ModeProcessor  RunMode = "processor"
	ModeAggregator RunMode = "aggregator"
	ModeAll        RunMode = "all"
)

// LogLevel controls zap's logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat selects the zap encoder.
type LogFormat string

const (
	LogFormatJSON    LogFormat = "json"
	LogFormatConsole LogFormat = "console"
)
