package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// formatSymbolsText formats CLISymbol results as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tFILE\tLINE")
	for _, s := range syms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.FullName, s.Kind, s.File, s.Line)
	}
	tw.Flush()
}

// formatImplementersText prints one class per line, tagged with how it
// provides the interface.
func formatImplementersText(w io.Writer, impl CLIImplementers) {
	fmt.Fprintf(w, "Interface: %s\n", impl.Interface.FullName)
	writeKinded(w, impl.Direct, impl.Indirect)
}

func formatImplementsText(w io.Writer, impl CLIImplements) {
	fmt.Fprintf(w, "Class: %s\n", impl.Class.FullName)
	if impl.ImplementsOnly {
		fmt.Fprintln(w, "implementsOnly: inherited declarations dropped")
	}
	writeKinded(w, impl.Direct, impl.Indirect)
}

func writeKinded(w io.Writer, direct, indirect []string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, name := range direct {
		fmt.Fprintf(tw, "  %s\tdirect\n", name)
	}
	for _, name := range indirect {
		fmt.Fprintf(tw, "  %s\tindirect\n", name)
	}
	tw.Flush()
}

func formatHierarchyText(w io.Writer, h CLIHierarchy) {
	fmt.Fprintf(w, "Class: %s\n", h.Class.FullName)
	for _, section := range []struct {
		title string
		names []string
	}{
		{"Bases", h.Bases},
		{"Ancestors", h.Ancestors},
		{"Subclasses", h.Subclasses},
		{"Descendants", h.Descendants},
	} {
		if len(section.names) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", section.title)
		for _, name := range section.names {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
}

func formatWarningsText(w io.Writer, ws []CLIWarning) {
	for _, warn := range ws {
		fmt.Fprintf(w, "%s: %s\n", warn.Message, warn.Detail)
	}
}

// formatSummaryText formats CLISummary as readable text.
func formatSummaryText(w io.Writer, s CLISummary) {
	fmt.Fprintln(w, "Index Summary")
	fmt.Fprintln(w, "=============")
	fmt.Fprintf(w, "Root: %s\n", s.Root)
	fmt.Fprintf(w, "Indexed: %s\n", s.IndexedAt)
	fmt.Fprintf(w, "Files: %d\n", s.Files)
	fmt.Fprintf(w, "Interfaces: %d\n", s.Interfaces)
	fmt.Fprintf(w, "Warnings: %d\n", s.Warnings)

	if len(s.KindCounts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Symbol Kinds:")
		kinds := make([]string, 0, len(s.KindCounts))
		for kind := range s.KindCounts {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(w, "  %s: %d\n", kind, s.KindCounts[kind])
		}
	}
}

func formatIndexText(w io.Writer, r CLIIndexResult) {
	if r.Skipped {
		fmt.Fprintf(w, "%s unchanged, index left as is (%s)\n", r.Root, r.Database)
		return
	}
	fmt.Fprintf(w, "Indexed %s into %s in %dms\n", r.Root, r.Database, r.DurationMS)
	fmt.Fprintf(w, "  %d files, %d classes, %d interfaces, %d warnings\n",
		r.Files, r.Classes, r.Interfaces, r.Warnings)
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLISymbol:
		formatSymbolsText(w, v)
	case CLISymbol:
		formatSymbolsText(w, []CLISymbol{v})
	case CLIImplementers:
		formatImplementersText(w, v)
	case CLIImplements:
		formatImplementsText(w, v)
	case CLIHierarchy:
		formatHierarchyText(w, v)
	case []CLIWarning:
		formatWarningsText(w, v)
	case CLISummary:
		formatSummaryText(w, v)
	case CLIIndexResult:
		formatIndexText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	if result.TotalCount != nil && *result.TotalCount == 0 {
		fmt.Fprintln(w, "No results")
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
