package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configBaseName   = "gapaudit"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	envPrefix = "GAPAUDIT"

	codeKey             = "code"
	sddKey              = "sdd"
	outputKey           = "output"
	formatKey           = "format"
	modeKey             = "mode"
	extKey              = "ext"
	workersKey          = "workers"
	excludeKey          = "exclude"
	respectGitignoreKey = "respect_gitignore"
	maxFileSizeKey      = "max_file_size"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultOutput        = "gap_report_rust.json"
	defaultMode          = "lexical"
	defaultLogLevel      = "info"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

// newConfig returns a viper instance with defaults and environment binding.
// Each invocation gets its own instance.
func newConfig() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(outputKey, defaultOutput)
	v.SetDefault(modeKey, defaultMode)
	v.SetDefault(excludeKey, []string{})

	v.SetDefault(logLevelKey, defaultLogLevel)
	v.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	v.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	v.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	v.SetDefault(logCompressKey, defaultLogCompress)
	return v
}

// loadConfig reads the config file. An explicit path must exist; the default
// gapaudit.yaml in the working directory is optional.
func loadConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(configBaseName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configFolderPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// bindFlag wires a flag to a viper key so config and env values feed it.
func bindFlag(v *viper.Viper, flags *pflag.FlagSet, name, key string) error {
	flag := flags.Lookup(name)
	if flag == nil {
		return fmt.Errorf("flag for config key %q not found", key)
	}
	return v.BindPFlag(key, flag)
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger builds the run's logger. With a log filename it writes a
// rotated text log; with only verbose set it logs to stderr; otherwise it
// discards. The returned closer releases the log file.
func configureLogger(v *viper.Viper, stderr io.Writer) (*slog.Logger, io.Closer) {
	verbose := v.GetBool(logVerboseKey)

	logLevel := parseSlogLevel(v.GetString(logLevelKey), slog.LevelInfo)
	if verbose {
		logLevel = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{AddSource: true, Level: logLevel}

	logPath := strings.TrimSpace(v.GetString(logFilenameKey))
	if logPath == "" {
		if verbose {
			return slog.New(slog.NewTextHandler(stderr, opts)), nopCloser{}
		}
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nopCloser{}
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    v.GetInt(logMaxSizeKey),
		MaxBackups: v.GetInt(logMaxBackupsKey),
		MaxAge:     v.GetInt(logMaxAgeKey),
		Compress:   v.GetBool(logCompressKey),
	}

	return slog.New(slog.NewTextHandler(logWriter, opts)), logWriter
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
