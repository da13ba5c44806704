package ir

// Version constants for the program format and engine.
const (
	// IRVersion is the program manifest schema version.
	IRVersion = "1"

	// EngineVersion is the specialization engine version.
	EngineVersion = "0.1.0"
)
