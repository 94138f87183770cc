package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// starterConfig is the configuration written by `gapaudit init`.
func starterConfig() map[string]any {
	return map[string]any{
		codeKey:             "./crates",
		sddKey:              "./docs/design/SDD.md",
		outputKey:           defaultOutput,
		modeKey:             defaultMode,
		excludeKey:          []string{"target"},
		respectGitignoreKey: false,
		"log": map[string]any{
			"filename":    "",
			"level":       defaultLogLevel,
			"max_size":    defaultLogMaxSize,
			"max_backups": defaultLogMaxBackups,
			"max_age":     defaultLogMaxAge,
			"compress":    defaultLogCompress,
		},
	}
}

func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "init [path-to-" + configFileName + "]",
		Short: "Write a starter " + configFileName,
		Long: `Write a starter gapaudit configuration file. Keys already present in an
existing file keep their values; missing keys are added with defaults.
Creates the file if it does not exist.

path defaults to ./` + configFileName + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := configFileName
			if len(args) > 0 {
				path = args[0]
			}
			return runInit(path, dryRun, stdout, stderr)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// runInit implements the `gapaudit init` subcommand.
func runInit(path string, dryRun bool, stdout, stderr io.Writer) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	updated, err := applyDefaults(existing, starterConfig())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if dryRun {
		_, _ = stdout.Write(updated)
		return nil
	}

	if err := os.WriteFile(path, updated, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote gapaudit config to %s\n", path)
	return nil
}

// applyDefaults merges defaults into the YAML document content, keeping every
// value already set. Nested maps are merged one level deep. It is a pure
// function for easy testing.
func applyDefaults(content []byte, defaults map[string]any) ([]byte, error) {
	current := map[string]any{}
	if err := yaml.Unmarshal(content, &current); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if current == nil {
		current = map[string]any{}
	}

	for key, def := range defaults {
		have, ok := current[key]
		if !ok {
			current[key] = def
			continue
		}
		defMap, defIsMap := def.(map[string]any)
		haveMap, haveIsMap := have.(map[string]any)
		if defIsMap && haveIsMap {
			for k, v := range defMap {
				if _, ok := haveMap[k]; !ok {
					haveMap[k] = v
				}
			}
		}
	}

	out, err := yaml.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return out, nil
}
