package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/zopescan"
)

// stdout receives command results.
var stdout io.Writer = os.Stdout

var flagKind string

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List every interface",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery("interfaces", func(q *zopescan.QueryBuilder) (any, error) {
			syms, err := q.Interfaces()
			if err != nil {
				return nil, err
			}
			return symbolsToCLI(syms), nil
		})
	},
}

var implementersCmd = &cobra.Command{
	Use:   "implementers <interface>",
	Short: "List the classes implementing an interface",
	Long:  "Prints the implemented-by index of an interface: classes declaring it directly and classes inheriting the declaration.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateKind(flagKind); err != nil {
			return outputError("implementers", err)
		}
		return withQuery("implementers", func(q *zopescan.QueryBuilder) (any, error) {
			res, err := q.ImplementedBy(args[0])
			if err != nil {
				return nil, err
			}
			if res == nil {
				return nil, fmt.Errorf("interface not found: %s", args[0])
			}
			out := CLIImplementers{
				Interface: symbolToCLI(res.Interface),
				Direct:    res.Direct,
				Indirect:  res.Indirect,
			}
			filterKind(&out.Direct, &out.Indirect, flagKind)
			return out, nil
		})
	},
}

var implementsCmd = &cobra.Command{
	Use:   "implements <class>",
	Short: "List the interfaces a class provides",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateKind(flagKind); err != nil {
			return outputError("implements", err)
		}
		return withQuery("implements", func(q *zopescan.QueryBuilder) (any, error) {
			res, err := q.Implements(args[0])
			if err != nil {
				return nil, err
			}
			if res == nil {
				return nil, fmt.Errorf("class not found: %s", args[0])
			}
			out := CLIImplements{
				Class:          symbolToCLI(res.Class),
				ImplementsOnly: res.ImplementsOnly,
				Direct:         res.Direct,
				Indirect:       res.Indirect,
			}
			filterKind(&out.Direct, &out.Indirect, flagKind)
			return out, nil
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{implementersCmd, implementsCmd} {
		cmd.Flags().StringVar(&flagKind, "kind", "", "only direct or indirect entries")
	}
}

var attributesCmd = &cobra.Command{
	Use:   "attributes <interface>",
	Short: "List the attributes an interface declares",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery("attributes", func(q *zopescan.QueryBuilder) (any, error) {
			attrs, err := q.Attributes(args[0])
			if err != nil {
				return nil, err
			}
			return symbolsToCLI(attrs), nil
		})
	},
}

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <class>",
	Short: "Show the bases and subclasses of a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery("hierarchy", func(q *zopescan.QueryBuilder) (any, error) {
			h, err := q.Hierarchy(args[0])
			if err != nil {
				return nil, err
			}
			if h == nil {
				return nil, fmt.Errorf("class not found: %s", args[0])
			}
			return hierarchyToCLI(h), nil
		})
	},
}

var warningsCmd = &cobra.Command{
	Use:   "warnings",
	Short: "List what the analysis could not resolve",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery("warnings", func(q *zopescan.QueryBuilder) (any, error) {
			ws, err := q.Warnings()
			if err != nil {
				return nil, err
			}
			out := make([]CLIWarning, 0, len(ws))
			for _, w := range ws {
				out = append(out, CLIWarning{Message: w.Message, Detail: w.Detail})
			}
			return out, nil
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery("summary", func(q *zopescan.QueryBuilder) (any, error) {
			s, err := q.Summary()
			if err != nil {
				return nil, err
			}
			return CLISummary{
				Root:       s.Root,
				IndexedAt:  s.IndexedAt,
				Files:      s.Files,
				Interfaces: s.Interfaces,
				Warnings:   s.Warnings,
				KindCounts: s.Kinds,
			}, nil
		})
	},
}

// --- Helpers ---

// openEngine opens the Engine on the database from the --db flag (or
// default). The database must already exist.
func openEngine(scriptsDir string, opts ...zopescan.Option) (*zopescan.Engine, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'zopescan index' first)", dbPath)
	}
	opts = append([]zopescan.Option{zopescan.WithLogger(logger)}, opts...)
	return zopescan.New(dbPath, scriptsDir, opts...)
}

// withQuery opens the index, runs fn and prints its result.
func withQuery(command string, fn func(q *zopescan.QueryBuilder) (any, error)) error {
	engine, err := openEngine("")
	if err != nil {
		return outputError(command, err)
	}
	defer engine.Close()

	results, err := fn(engine.Query())
	if err != nil {
		return outputError(command, err)
	}
	result := CLIResult{Command: command, Results: results}
	if n, ok := countOf(results); ok {
		result.TotalCount = &n
	}
	return outputResult(result)
}

// countOf returns the length of list results.
func countOf(v any) (int, bool) {
	switch r := v.(type) {
	case []CLISymbol:
		return len(r), true
	case []CLIWarning:
		return len(r), true
	}
	return 0, false
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(stdout, result)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// validateKind checks the --kind flag value.
func validateKind(kind string) error {
	switch kind {
	case "", "direct", "indirect":
		return nil
	}
	return fmt.Errorf("invalid kind %q: must be direct or indirect", kind)
}

// filterKind empties the list --kind does not select.
func filterKind(direct, indirect *[]string, kind string) {
	switch kind {
	case "direct":
		*indirect = []string{}
	case "indirect":
		*direct = []string{}
	}
}

// symbolToCLI converts a zopescan.Symbol to a CLISymbol.
func symbolToCLI(sym *zopescan.Symbol) CLISymbol {
	return CLISymbol{
		ID:             sym.ID,
		FullName:       sym.FullName,
		Name:           sym.Name,
		Kind:           sym.Kind,
		File:           sym.FilePath,
		Line:           sym.Line,
		Docstring:      sym.Docstring,
		IsInterface:    sym.IsInterface,
		ImplementsOnly: sym.ImplementsOnly,
	}
}

func symbolsToCLI(syms []*zopescan.Symbol) []CLISymbol {
	out := make([]CLISymbol, 0, len(syms))
	for _, s := range syms {
		out = append(out, symbolToCLI(s))
	}
	return out
}

func hierarchyToCLI(h *zopescan.Hierarchy) CLIHierarchy {
	out := CLIHierarchy{
		Class:       symbolToCLI(h.Class),
		Bases:       make([]string, 0, len(h.Bases)),
		Ancestors:   append([]string{}, h.Ancestors...),
		Subclasses:  make([]string, 0, len(h.Subclasses)),
		Descendants: make([]string, 0, len(h.Descendants)),
	}
	for _, b := range h.Bases {
		out.Bases = append(out.Bases, b.BaseName)
	}
	for _, s := range h.Subclasses {
		out.Subclasses = append(out.Subclasses, s.FullName)
	}
	for _, s := range h.Descendants {
		out.Descendants = append(out.Descendants, s.FullName)
	}
	return out
}
