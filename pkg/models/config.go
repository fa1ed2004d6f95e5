package models

// AnalysisConfig is the part of the configuration consumed by the analysis core
type AnalysisConfig struct {
	Deduplicate  bool     // collapse call sites between the same pair into one edge
	WithoutArgs  bool     // omit type arguments from emitted names
	ExpandStdlib bool     // follow calls into standard library bodies
	Workers      int      // parallelism for body extraction and queries; <= 0 uses GOMAXPROCS
	EntryPoints  []string // optional entry point patterns
	Verbose      bool
}

// DefaultAnalysisConfig returns the defaults used when no configuration is supplied
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Deduplicate: true,
	}
}
