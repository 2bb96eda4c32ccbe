package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"svinv/internal/config"
	"svinv/internal/inventory"
	"svinv/internal/logging"
	"svinv/internal/output"
	"svinv/internal/storage"
	"svinv/internal/syntax"
	"svinv/internal/version"
)

var (
	defineFlags   []string
	includeFlags  []string
	ignoreInclude bool
	fullTree      bool
	formatFlag    string
	failFast      bool
	noCache       bool
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "svinv [flags] <files...>",
	Short: "svinv - SystemVerilog module inventory extractor",
	Long: `svinv reads SystemVerilog source files and renders an inventory of the
module definitions they contain: ports with direction and width, and the
instantiations inside each module. The inventory is written to stdout as
YAML (or JSON with --format json); diagnostics go to stderr.`,
	Version:       version.Info(),
	Args:          cobra.ArbitraryArgs,
	RunE:          runRoot,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("svinv version {{.Version}}\n")
	rootCmd.Flags().StringArrayVarP(&defineFlags, "define", "d", nil,
		"Text macro definition NAME[=text] (repeatable)")
	rootCmd.Flags().StringArrayVarP(&includeFlags, "include", "i", nil,
		"Directory searched for `include files (repeatable)")
	rootCmd.Flags().BoolVar(&ignoreInclude, "ignore-include", false,
		"Skip `include directives instead of expanding them")
	rootCmd.Flags().BoolVar(&fullTree, "full-tree", false,
		"Dump the parsed tree instead of the extracted inventory")
	rootCmd.Flags().StringVar(&formatFlag, "format", "",
		"Output format: yaml or json (default from config)")
	rootCmd.Flags().BoolVar(&failFast, "fail-fast", false,
		"Stop processing after the first failing file")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false,
		"Bypass the per-file result cache")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "",
		"Log format: human or json (default from config)")
}

// newLogger builds the diagnostic logger from config with flag overrides.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	levelName := cfg.Logging.Level
	if logLevelFlag != "" {
		levelName = logLevelFlag
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	formatName := cfg.Logging.Format
	if logFormatFlag != "" {
		formatName = logFormatFlag
	}
	format, err := logging.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	return logging.NewLogger(logging.Config{Format: format, Level: level}), nil
}

func resolveFormat(cfg *config.Config) (output.Format, error) {
	name := cfg.Output.Format
	if formatFlag != "" {
		name = formatFlag
	}
	switch name {
	case "yaml":
		return output.FormatYAML, nil
	case "json":
		return output.FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format: %q", name)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no input files; see 'svinv --help'")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}

	if fullTree {
		return runFullTree(args, format)
	}

	var cache *storage.Cache
	if cfg.Cache.Enabled && !noCache {
		cache, err = storage.Open(cfg.Cache.Dir, logger)
		if err != nil {
			// A broken cache never blocks extraction.
			logger.Warn("Cache unavailable", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer func() { _ = cache.Close() }()
		}
	}

	result, err := inventory.Process(context.Background(), args, inventory.Options{
		FrontEnd: inventory.NewFrontEnd(defineFlags, includeFlags, ignoreInclude),
		Workers:  cfg.Workers,
		FailFast: failFast,
		Cache:    cache,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	for _, ferr := range result.Errors {
		printDiagnostic(os.Stderr, ferr)
	}

	data, err := output.Render(&output.Inventory{Files: result.Files}, format)
	if err != nil {
		return err
	}
	if _, err := os.Stdout.Write(data); err != nil {
		return err
	}

	if !result.OK() {
		return fmt.Errorf("%d of %d files failed", len(result.Errors), len(args))
	}
	return nil
}

// runFullTree replaces extraction with a raw dump of what the front-end saw.
func runFullTree(paths []string, format output.Format) error {
	fe := inventory.NewFrontEnd(defineFlags, includeFlags, ignoreInclude)

	failed := 0
	dump := make([]map[string]interface{}, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}
		tree, err := fe.Parse(path, content)
		if err != nil {
			printDiagnostic(os.Stderr, inventory.FileError{Path: path, Err: err})
			failed++
			continue
		}
		dump = append(dump, map[string]interface{}{
			"file_name": path,
			"modules":   syntax.Dump(tree),
		})
	}

	data, err := renderRaw(dump, format)
	if err != nil {
		return err
	}
	if _, err := os.Stdout.Write(data); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

// renderRaw serializes the --full-tree dump with the selected format.
func renderRaw(dump []map[string]interface{}, format output.Format) ([]byte, error) {
	switch format {
	case output.FormatYAML:
		return yaml.Marshal(map[string]interface{}{"files": dump})
	case output.FormatJSON:
		data, err := json.MarshalIndent(map[string]interface{}{"files": dump}, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
