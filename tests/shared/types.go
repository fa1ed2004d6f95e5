// Package shared contains common test types and utilities used across different test packages
package shared

// TestExpectation represents the expected results for one example program
type TestExpectation struct {
	TestName    string `yaml:"test_name"`
	Description string `yaml:"description"`
	Package     string `yaml:"package"`

	Graph   ExpectedGraph   `yaml:"graph"`
	Queries []ExpectedQuery `yaml:"queries"`
}

// ExpectedGraph lists edges that must appear in the JSON call graph.
// Names are matched as suffixes so expectations stay independent of the module path.
type ExpectedGraph struct {
	MinCallers int            `yaml:"min_callers"`
	Edges      []ExpectedEdge `yaml:"edges"`
	Absent     []string       `yaml:"absent"`
}

type ExpectedEdge struct {
	Caller       string `yaml:"caller"`
	Callee       string `yaml:"callee"`
	Weight       int    `yaml:"weight"`
	Multiplicity int    `yaml:"multiplicity"`
}

// ExpectedQuery is one find-callers run and its exact caller set
type ExpectedQuery struct {
	Target     string         `yaml:"target"`
	MinMatched int            `yaml:"min_matched"`
	Callers    map[string]int `yaml:"callers"`
}

// FunctionRef mirrors one function entry of the JSON reports
type FunctionRef struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	Path            string `json:"path"`
	ConstraintDepth int    `json:"constraint_depth"`
	PathHash        string `json:"path_hash"`
	Module          string `json:"module"`
	Multiplicity    int    `json:"multiplicity"`
}

type CallGraphEntry struct {
	Caller FunctionRef   `json:"caller"`
	Callee []FunctionRef `json:"callee"`
}

type CallerRef struct {
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	Path            string   `json:"path"`
	PathHash        string   `json:"path_hash"`
	PathConstraints int      `json:"path_constraints"`
	CallPath        []string `json:"call_path"`
}

type CallersReport struct {
	Target         string      `json:"target"`
	MatchedTargets []string    `json:"matched_targets"`
	TotalCallers   int         `json:"total_callers"`
	Callers        []CallerRef `json:"callers"`
}
