package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasm-stats/errors"
)

const envPrefix = "WASMSTATS"

// Output formats.
const (
	formatAuto = "auto"
	formatJSON = "json"
	formatText = "text"
)

type config struct {
	Format      string
	LogLevel    string
	Workers     int
	Indent      bool
	EngineCheck bool
	Interactive bool
	Strict      bool
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"format":       "format",
	"indent":       "indent",
	"log-level":    "log_level",
	"workers":      "workers",
	"engine-check": "engine_check",
	"interactive":  "interactive",
	"strict":       "strict",
}

func registerFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Configuration file path")
	fs.StringP("format", "f", formatAuto, "Output format (json, text, auto)")
	fs.Bool("indent", false, "Pretty-print JSON output")
	fs.String("log-level", "warn", "Logging level (debug, info, warn, error)")
	fs.IntP("workers", "w", 1, "Goroutines used to classify function bodies")
	fs.Bool("engine-check", false, "Cross-check each module against the wazero compiler")
	fs.BoolP("interactive", "i", false, "Browse reports in a terminal UI")
	fs.Bool("strict", false, "Validate type, function and export indices before analysis")
}

// newViper layers defaults, an optional config file, WASMSTATS_* environment
// variables and flags, in increasing order of precedence.
func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "bind flag "+flag)
		}
	}

	configFile, _ := fs.GetString("config")
	if configFile == "" {
		return v, nil
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "read config "+configFile)
	}
	return v, nil
}

func loadConfig(v *viper.Viper) (config, error) {
	cfg := config{
		Format:      strings.ToLower(v.GetString("format")),
		LogLevel:    v.GetString("log_level"),
		Workers:     v.GetInt("workers"),
		Indent:      v.GetBool("indent"),
		EngineCheck: v.GetBool("engine_check"),
		Interactive: v.GetBool("interactive"),
		Strict:      v.GetBool("strict"),
	}

	switch cfg.Format {
	case formatAuto, formatJSON, formatText:
	default:
		return config{}, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("format").
			Value(cfg.Format).
			Detail(fmt.Sprintf("unknown format %q", cfg.Format)).
			Build()
	}
	if cfg.Workers < 1 {
		return config{}, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("workers").
			Value(cfg.Workers).
			Detail(fmt.Sprintf("need at least one worker, got %d", cfg.Workers)).
			Build()
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return config{}, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("log_level").
			Value(cfg.LogLevel).
			Cause(err).
			Build()
	}
	return cfg, nil
}

// resolveFormat settles auto on text for terminals and JSON otherwise.
func resolveFormat(format string, tty bool) string {
	if format != formatAuto {
		return format
	}
	if tty {
		return formatText
	}
	return formatJSON
}

// newLogger builds a console logger on stderr so that stdout carries only
// reports.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	return cfg.Build()
}
