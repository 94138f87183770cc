// gapaudit reports the gap between the public symbols of a Rust source tree
// and the identifiers a design document mentions.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/gapaudit/internal/audit"
	"github.com/phobologic/gapaudit/internal/report"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(context.Background())
}

const rootLongDescription = `gapaudit extracts the public structs, enums, traits and functions of a Rust
source tree and the identifiers quoted as inline code in a design document,
then reports both differences:

  undocumented_items_in_code   declared in code, never mentioned
  unimplemented_items_in_sdd   mentioned in the document, never declared

Unreadable source files and a missing document produce warnings, not failures.
Settings may also come from gapaudit.yaml or GAPAUDIT_* environment variables.`

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	v := newConfig()

	var (
		configPath  string
		showVersion bool
		showSummary bool
		showProg    bool
	)

	cmd := &cobra.Command{
		Use:           "gapaudit --code <dir> --sdd <file> [flags]",
		Short:         "Audit documentation coverage of public Rust symbols",
		Long:          rootLongDescription,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				_, _ = fmt.Fprintf(stdout, "gapaudit %s\n", version)
				return nil
			}

			if err := loadConfig(v, configPath); err != nil {
				return err
			}

			// An explicitly empty value counts as given.
			var missing []string
			for _, key := range []string{codeKey, sddKey} {
				if !v.IsSet(key) {
					missing = append(missing, fmt.Sprintf("%q", key))
				}
			}
			if len(missing) > 0 {
				return fmt.Errorf("required flag(s) %s not set", strings.Join(missing, ", "))
			}

			logger, closer := configureLogger(v, stderr)
			defer closer.Close()

			opts := audit.Options{
				CodeDir:          v.GetString(codeKey),
				DocPath:          v.GetString(sddKey),
				OutputPath:       v.GetString(outputKey),
				Format:           v.GetString(formatKey),
				Mode:             v.GetString(modeKey),
				Extension:        v.GetString(extKey),
				Exclude:          v.GetStringSlice(excludeKey),
				RespectGitignore: v.GetBool(respectGitignoreKey),
				Workers:          v.GetInt(workersKey),
				MaxFileSize:      v.GetInt64(maxFileSizeKey),
				Warnings:         stderr,
				Logger:           logger,
			}
			if showProg {
				opts.Progress = stderr
			}

			res, err := audit.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(stdout, "Report saved to %s\n", res.ReportPath)
			_, _ = fmt.Fprintf(stdout, "Undocumented Rust entities: %d\n", res.Report.Summary.UndocumentedCount)
			if showSummary {
				_, _ = fmt.Fprintf(stdout, "\n%s", report.RenderSummary(res.Report))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("code", "", "root of the source tree to scan (required)")
	flags.String("sdd", "", "path to the design document (required)")
	flags.StringP("output", "o", defaultOutput, "destination for the report")
	flags.StringP("format", "f", "", "report format: json, yaml or toon (default: from output extension)")
	flags.String("mode", defaultMode, "extraction mode: lexical or syntax")
	flags.String("ext", "", "source file suffix, matched case-sensitively (default .rs)")
	flags.IntP("workers", "j", 0, "files read concurrently (default GOMAXPROCS)")
	flags.StringArrayP("exclude", "x", nil, "skip paths matching this glob, relative to --code (repeatable)")
	flags.Bool("respect-gitignore", false, "skip paths matched by the .gitignore at --code")
	flags.Int64("max-file-size", 0, "skip source files larger than this many bytes (0 = no limit)")
	flags.String("log-file", "", "write a rotated debug log to this file")
	flags.BoolP("verbose", "v", false, "log at debug level")

	flags.StringVar(&configPath, "config", "", "config file (default ./gapaudit.yaml if present)")
	flags.BoolVar(&showSummary, "summary", false, "print a summary table")
	flags.BoolVar(&showProg, "progress", false, "show a progress bar while scanning")
	flags.BoolVarP(&showVersion, "version", "V", false, "show version and exit")

	for name, key := range map[string]string{
		"code":              codeKey,
		"sdd":               sddKey,
		"output":            outputKey,
		"format":            formatKey,
		"mode":              modeKey,
		"ext":               extKey,
		"workers":           workersKey,
		"exclude":           excludeKey,
		"respect-gitignore": respectGitignoreKey,
		"max-file-size":     maxFileSizeKey,
		"log-file":          logFilenameKey,
		"verbose":           logVerboseKey,
	} {
		cobra.CheckErr(bindFlag(v, flags, name, key))
	}

	cmd.AddCommand(newInitCmd(stdout, stderr))
	return cmd
}
