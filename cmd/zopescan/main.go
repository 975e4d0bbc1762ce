package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/zopescan"
	"github.com/jward/zopescan/internal/config"
)

var (
	flagDB      string
	flagFormat  string
	flagConfig  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// logger is configured from --verbose before any command runs.
var logger = slog.Default()

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "zopescan",
	Short:         "Static zope.interface analysis for Python code",
	Long:          "zopescan parses Python sources with tree-sitter, infers interfaces and the classes implementing them, and writes the result to a SQLite database for queries and scripts.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		logger = newLogger(flagVerbose)
		return nil
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .zopescan/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "project config file (default: <path>/"+config.FileName+" when present)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging on stderr")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(interfacesCmd)
	rootCmd.AddCommand(implementersCmd)
	rootCmd.AddCommand(implementsCmd)
	rootCmd.AddCommand(attributesCmd)
	rootCmd.AddCommand(hierarchyCmd)
	rootCmd.AddCommand(warningsCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(reportCmd)
}

// newLogger returns a text logger on stderr, at debug level when verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

var (
	flagForce    bool
	flagWorkers  int
	flagExcludes []string
	flagRoots    []string
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Analyze a Python source tree",
	Long:  "Discovers the Python modules under path, infers interface declarations and their inheritance, and replaces the database contents with the result.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "reindex even when the sources are unchanged")
	indexCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel parse workers (default: number of CPUs)")
	indexCmd.Flags().StringSliceVar(&flagExcludes, "exclude", nil, "glob of paths to skip, relative to path (repeatable)")
	indexCmd.Flags().StringSliceVar(&flagRoots, "interface-root", nil, "extra full name treated as an interface root (repeatable)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError("index", err)
	}
	cfg, err := loadConfig(targetDir)
	if err != nil {
		return outputError("index", err)
	}

	repoRoot := findRepoRoot(targetDir)
	dbPath := resolveDBPath(repoRoot)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return outputError("index", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err))
	}

	opts := []zopescan.Option{
		zopescan.WithLogger(logger),
		zopescan.WithConfig(cfg),
		zopescan.WithExcludes(flagExcludes...),
		zopescan.WithInterfaceRoots(flagRoots...),
	}
	if flagWorkers != 0 {
		opts = append(opts, zopescan.WithWorkers(flagWorkers))
	}
	engine, err := zopescan.New(dbPath, "", opts...)
	if err != nil {
		return outputError("index", fmt.Errorf("creating engine: %w", err))
	}
	defer engine.Close()

	res, err := engine.IndexDirectory(context.Background(), targetDir, flagForce)
	if err != nil {
		return outputError("index", fmt.Errorf("indexing: %w", err))
	}

	return outputResult(CLIResult{Command: "index", Results: indexResultToCLI(res, dbPath)})
}

func indexResultToCLI(res *zopescan.IndexResult, dbPath string) CLIIndexResult {
	return CLIIndexResult{
		Root:       res.Root,
		Database:   dbPath,
		Files:      res.Files,
		Skipped:    res.Skipped,
		Classes:    res.Classes,
		Interfaces: res.Interfaces,
		Warnings:   res.Warnings,
		DurationMS: res.Duration.Round(time.Millisecond).Milliseconds(),
	}
}

// loadConfig reads --config when given, otherwise the project file in dir
// if there is one.
func loadConfig(dir string) (*config.Config, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	return config.Find(dir)
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".zopescan", "index.db")
}
