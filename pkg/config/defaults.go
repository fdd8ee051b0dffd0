package config

// Search defaults.
const (
	// DefaultSearchWorkers of zero means one worker per CPU.
	DefaultSearchWorkers      = 0
	DefaultSearchBatchSize    = 1000
	DefaultSearchDefaultRules = false
	DefaultSearchRulesFile    = ""
)

// Checkpoint defaults.
const (
	DefaultCheckpointEnabled  = true
	DefaultCheckpointPath     = "checkpoint.json"
	DefaultCheckpointInterval = 10_000
	DefaultCheckpointResume   = false
)

// Logging defaults.
const (
	DefaultLoggingLevel = "info"
	DefaultLoggingJSON  = false
)

// Output defaults.
const (
	DefaultOutputFormat           = FormatText
	DefaultOutputProgressInterval = "2s"
)

// Observability defaults.
const (
	DefaultObservabilityOTLPEndpoint    = ""
	DefaultObservabilityOTLPInsecure    = false
	DefaultObservabilityOTLPHeaders     = ""
	DefaultObservabilityDiagnosticsAddr = ""
	DefaultObservabilityEnvironment     = ""
)
