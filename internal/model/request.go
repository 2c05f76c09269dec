package model

// Path represents a file system path.
type Path string

// RulesetMode selects which rule configuration the engine runs with.
type RulesetMode string

const (
	// RulesetCustom runs the service-bundled rules file.
	RulesetCustom RulesetMode = "custom"
	// RulesetAuto defers to the engine's own registry defaults.
	RulesetAuto RulesetMode = "auto"
)

// FileRecord is one caller-supplied file to stage into a scan workspace.
// Path is interpreted relative to the workspace root.
type FileRecord struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ScanRequest is a request to scan a set of in-memory files. Files keep
// their request order; duplicate paths overwrite earlier content during
// materialization.
type ScanRequest struct {
	Files       []FileRecord `json:"files"`
	RulesConfig RulesetMode  `json:"rulesConfig"`
}
