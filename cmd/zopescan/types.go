package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLISymbol is a JSON-friendly symbol representation.
type CLISymbol struct {
	ID             int64  `json:"id"`
	FullName       string `json:"full_name"`
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	File           string `json:"file,omitempty"`
	Line           int    `json:"line"`
	Docstring      string `json:"docstring,omitempty"`
	IsInterface    bool   `json:"is_interface"`
	ImplementsOnly bool   `json:"implements_only,omitempty"`
}

// CLIImplementers is an interface's implemented-by index.
type CLIImplementers struct {
	Interface CLISymbol `json:"interface"`
	Direct    []string  `json:"direct"`
	Indirect  []string  `json:"indirect"`
}

// CLIImplements lists what a class declares and inherits.
type CLIImplements struct {
	Class          CLISymbol `json:"class"`
	ImplementsOnly bool      `json:"implements_only"`
	Direct         []string  `json:"direct"`
	Indirect       []string  `json:"indirect"`
}

// CLIHierarchy places a class in the inheritance graph.
type CLIHierarchy struct {
	Class       CLISymbol `json:"class"`
	Bases       []string  `json:"bases"`
	Ancestors   []string  `json:"ancestors"`
	Subclasses  []string  `json:"subclasses"`
	Descendants []string  `json:"descendants"`
}

// CLIWarning is one analysis warning.
type CLIWarning struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// CLISummary is a JSON-friendly index summary.
type CLISummary struct {
	Root       string         `json:"root"`
	IndexedAt  string         `json:"indexed_at"`
	Files      int            `json:"files"`
	Interfaces int            `json:"interfaces"`
	Warnings   int            `json:"warnings"`
	KindCounts map[string]int `json:"kind_counts"`
}

// CLIIndexResult reports one index run.
type CLIIndexResult struct {
	Root       string `json:"root"`
	Database   string `json:"database"`
	Files      int    `json:"files"`
	Skipped    bool   `json:"skipped"`
	Classes    int    `json:"classes"`
	Interfaces int    `json:"interfaces"`
	Warnings   int    `json:"warnings"`
	DurationMS int64  `json:"duration_ms"`
}
