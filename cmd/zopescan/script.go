package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/zopescan"
	"github.com/jward/zopescan/scripts"
)

var flagSet []string

var scriptCmd = &cobra.Command{
	Use:   "script <file.risor>",
	Short: "Run a Risor script against the index",
	Long: `Runs a Risor script with the index exposed as globals (interfaces,
implemented_by, implements, symbol, subclasses, attributes, warnings,
db_query) plus analyze_src and log. Modules imported by the script are
resolved next to it.`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	scriptCmd.Flags().StringArrayVar(&flagSet, "set", nil, "extra string global as key=value (repeatable)")
}

func runScript(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return outputError("script", fmt.Errorf("resolving path %q: %w", args[0], err))
	}
	globals, err := parseGlobals(flagSet)
	if err != nil {
		return outputError("script", err)
	}

	engine, err := openEngine(filepath.Dir(path), zopescan.WithScriptOutput(stdout))
	if err != nil {
		return outputError("script", err)
	}
	defer engine.Close()

	if err := engine.RunScript(context.Background(), path, globals); err != nil {
		return outputError("script", err)
	}
	return nil
}

// parseGlobals turns key=value pairs into script globals.
func parseGlobals(pairs []string) (map[string]any, error) {
	globals := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", p)
		}
		globals[key] = value
	}
	return globals, nil
}

var reportCmd = &cobra.Command{
	Use:   "report [name]",
	Short: "Run a bundled report",
	Long:  "Runs one of the Risor reports shipped with zopescan. Without a name, lists the available reports.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		for _, name := range scripts.Names() {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}
	name := args[0]
	if !slices.Contains(scripts.Names(), name) {
		return outputError("report", fmt.Errorf("unknown report %q (have %s)", name, strings.Join(scripts.Names(), ", ")))
	}

	engine, err := openEngine("", zopescan.WithScriptsFS(scripts.Reports), zopescan.WithScriptOutput(stdout))
	if err != nil {
		return outputError("report", err)
	}
	defer engine.Close()

	if err := engine.RunScript(context.Background(), name+".risor", nil); err != nil {
		return outputError("report", err)
	}
	return nil
}
