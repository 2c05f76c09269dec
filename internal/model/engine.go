package model

// EngineOutput mirrors the JSON document semgrep emits with --json. Only the
// fields the normalizer consumes are declared; everything else is dropped on
// decode.
type EngineOutput struct {
	Results []EngineResult `json:"results"`
}

// EngineResult is one raw finding as reported by the engine.
type EngineResult struct {
	CheckID string         `json:"check_id"`
	Path    string         `json:"path"`
	Start   EnginePosition `json:"start"`
	End     EnginePosition `json:"end"`
	Extra   EngineExtra    `json:"extra"`
}

// EnginePosition is a 1-based source location.
type EnginePosition struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// EngineExtra carries the message and severity attached to a raw result.
type EngineExtra struct {
	Message  string `json:"message"`
	Severity string `json:"severity"` // INFO|WARNING|ERROR
}

// OutcomeStatus classifies how an engine invocation ended.
type OutcomeStatus int

const (
	// OutcomeFindings means the engine ran to completion and Output holds
	// its parsed results. Covers both exit 0 and exit 1.
	OutcomeFindings OutcomeStatus = iota
	// OutcomeToolFailure means the engine failed to run, exited with an
	// unexpected code, or produced output that does not parse.
	OutcomeToolFailure
	// OutcomeTimeout means the engine exceeded its wall-clock bound and
	// was killed.
	OutcomeTimeout
)

// String implements fmt.Stringer for the OutcomeStatus type.
func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeFindings:
		return "findings"
	case OutcomeToolFailure:
		return "tool_failure"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// EngineOutcome is the classification of one engine run. Output is populated
// only when Status is OutcomeFindings; Diagnostic carries a bounded excerpt
// of the engine's output when Status is OutcomeToolFailure.
type EngineOutcome struct {
	Status     OutcomeStatus
	Output     EngineOutput
	Diagnostic string
}
