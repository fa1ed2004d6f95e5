package models

// FunctionRef is one function entry in the JSON call graph report
type FunctionRef struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	Path            string `json:"path"`
	ConstraintDepth int    `json:"constraint_depth"`
	PathHash        string `json:"path_hash"`
	Module          string `json:"module,omitempty"`
	Multiplicity    int    `json:"multiplicity,omitempty"`
}

// CallGraphEntry groups a caller with every callee it reaches directly
type CallGraphEntry struct {
	Caller FunctionRef   `json:"caller"`
	Callee []FunctionRef `json:"callee"`
}

// CallerRef is one transitive caller in the JSON caller report
type CallerRef struct {
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	Path            string   `json:"path"`
	PathHash        string   `json:"path_hash"`
	PathConstraints int      `json:"path_constraints"`
	CallPath        []string `json:"call_path,omitempty"`
}

// CallersReport is the JSON caller report for one query target
type CallersReport struct {
	Target         string      `json:"target"`
	MatchedTargets []string    `json:"matched_targets"`
	TotalCallers   int         `json:"total_callers"`
	Callers        []CallerRef `json:"callers"`
}
