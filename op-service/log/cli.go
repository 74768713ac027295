package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"

	opservice "github.com/mantlenetworkio/upgrade-check/op-service"
)

const (
	LevelFlagName  = "log.level"
	FormatFlagName = "log.format"
	ColorFlagName  = "log.color"
)

func CLIFlags(envPrefix string) []cli.Flag {
	return CLIFlagsWithCategory(envPrefix, "")
}

// CLIFlagsWithCategory creates flag definitions for the logging utils.
// Warning: flags are not safe to reuse between multiple applications.
func CLIFlagsWithCategory(envPrefix string, category string) []cli.Flag {
	return []cli.Flag{
		&cli.GenericFlag{
			Name:     LevelFlagName,
			Usage:    "The lowest log level that will be output",
			Value:    NewLevelFlagValue(log.LevelInfo),
			EnvVars:  opservice.PrefixEnvVar(envPrefix, "LOG_LEVEL"),
			Category: category,
		},
		&cli.GenericFlag{
			Name:     FormatFlagName,
			Usage:    "Format the log output. Supported formats: 'text', 'terminal', 'logfmt', 'json', 'logfmtms', 'jsonms'",
			Value:    NewFormatFlagValue(FormatText),
			EnvVars:  opservice.PrefixEnvVar(envPrefix, "LOG_FORMAT"),
			Category: category,
		},
		&cli.BoolFlag{
			Name:     ColorFlagName,
			Usage:    "Color the log output if in terminal mode",
			EnvVars:  opservice.PrefixEnvVar(envPrefix, "LOG_COLOR"),
			Category: category,
		},
	}
}

// LevelFlagValue is a value type for cli.GenericFlag
type LevelFlagValue slog.Level

var _ cli.Generic = (*LevelFlagValue)(nil)

func NewLevelFlagValue(lvl slog.Level) *LevelFlagValue {
	return (*LevelFlagValue)(&lvl)
}

func (fv *LevelFlagValue) Set(value string) error {
	lvl, err := ParseLevel(value)
	if err != nil {
		return err
	}
	*fv = LevelFlagValue(lvl)
	return nil
}

// ParseLevel parses a level name, ignoring case. Next to the slog names,
// the geth names trace, warning and crit are accepted.
func ParseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(value) {
	case "trace", "trce":
		return log.LevelTrace, nil
	case "warning":
		return log.LevelWarn, nil
	case "crit":
		return log.LevelCrit, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(value)); err != nil {
		return 0, fmt.Errorf("unknown log level %q: %w", value, err)
	}
	return lvl, nil
}

func (fv LevelFlagValue) String() string {
	return slog.Level(fv).String()
}

func (fv LevelFlagValue) Level() slog.Level {
	return slog.Level(fv).Level()
}

func (fv *LevelFlagValue) Clone() any {
	cpy := *fv
	return &cpy
}

// FormatType defines a type of log format.
// Supported formats: 'text', 'terminal', 'logfmt', 'json', 'logfmtms', 'jsonms'
type FormatType string

const (
	FormatText     FormatType = "text"
	FormatTerminal FormatType = "terminal"
	FormatLogFmt   FormatType = "logfmt"
	FormatLogFmtMs FormatType = "logfmtms"
	FormatJSON     FormatType = "json"
	FormatJSONMs   FormatType = "jsonms"
)

// NewHandler creates a new slog.Handler for the format, filtered at the given level.
func (ft FormatType) NewHandler(wr io.Writer, lvl slog.Level, color bool) slog.Handler {
	switch ft {
	case FormatJSON:
		return log.JSONHandlerWithLevel(wr, lvl)
	case FormatJSONMs:
		return JSONMsHandlerWithLevel(wr, lvl)
	case FormatText:
		if term, ok := wr.(interface{ Fd() uintptr }); ok && isatty.IsTerminal(term.Fd()) {
			return log.NewTerminalHandlerWithLevel(wr, lvl, color)
		}
		return LogfmtMsHandlerWithLevel(wr, lvl)
	case FormatTerminal:
		return log.NewTerminalHandlerWithLevel(wr, lvl, color)
	case FormatLogFmt:
		return LogfmtMsHandlerWithLevel(wr, lvl)
	case FormatLogFmtMs:
		return LogfmtMsHandlerWithLevel(wr, lvl)
	default:
		panic(fmt.Errorf("failed to create slog.Handler factory for format-type=%q and color=%v", ft, color))
	}
}

// FormatFlagValue is a value type for cli.GenericFlag
type FormatFlagValue FormatType

var _ cli.Generic = (*FormatFlagValue)(nil)

func NewFormatFlagValue(fmtType FormatType) *FormatFlagValue {
	return (*FormatFlagValue)(&fmtType)
}

func (fv *FormatFlagValue) Set(value string) error {
	switch FormatType(value) {
	case FormatText, FormatTerminal, FormatLogFmt, FormatLogFmtMs, FormatJSON, FormatJSONMs:
		*fv = FormatFlagValue(value)
		return nil
	default:
		return fmt.Errorf("unrecognized log-format: %q", value)
	}
}

func (fv FormatFlagValue) String() string {
	return FormatType(fv).String()
}

func (fv FormatFlagValue) FormatType() FormatType {
	return FormatType(fv)
}

func (fv *FormatFlagValue) Clone() any {
	cpy := *fv
	return &cpy
}

func (ft FormatType) String() string {
	return string(ft)
}

type CLIConfig struct {
	Level  slog.Level
	Color  bool
	Format FormatType
}

// AppOut returns an io.Writer to write app output to, like logs.
// This falls back to os.Stdout if the ctx, ctx.App or ctx.App.Writer are nil.
func AppOut(ctx *cli.Context) io.Writer {
	if ctx == nil || ctx.App == nil || ctx.App.Writer == nil {
		return os.Stdout
	}
	return ctx.App.Writer
}

// NewLogHandler creates a new configured handler, compatible as LvlSetter for log-level changes during runtime.
func NewLogHandler(wr io.Writer, cfg CLIConfig) slog.Handler {
	return cfg.Format.NewHandler(wr, cfg.Level, cfg.Color)
}

// NewLogger creates a new configured logger.
// The log handler of the logger is a LvlSetter, i.e. the log level can be changed as needed.
func NewLogger(wr io.Writer, cfg CLIConfig) log.Logger {
	return log.NewLogger(NewLogHandler(wr, cfg))
}

// SetGlobalLogHandler sets the log handles as the handler of the global default logger.
// The usage of this logger is strongly discouraged,
// as it does makes it difficult to distinguish different services in the same process, e.g. during tests.
// Geth and other components may use the global logger however,
// and it is thus recommended to set the global log handler to catch these logs.
func SetGlobalLogHandler(h slog.Handler) {
	log.SetDefault(log.NewLogger(h))
}

// DefaultCLIConfig creates a default log configuration.
// Color defaults to true if terminal is detected.
func DefaultCLIConfig() CLIConfig {
	return CLIConfig{
		Level:  log.LevelInfo,
		Format: FormatText,
		Color:  isatty.IsTerminal(os.Stdout.Fd()),
	}
}

// ReadCLIConfig reads the log config from the CLI flags.
func ReadCLIConfig(ctx *cli.Context) CLIConfig {
	cfg := DefaultCLIConfig()
	if lvl, ok := ctx.Generic(LevelFlagName).(*LevelFlagValue); ok {
		cfg.Level = lvl.Level()
	}
	if format, ok := ctx.Generic(FormatFlagName).(*FormatFlagValue); ok {
		cfg.Format = format.FormatType()
	}
	if ctx.IsSet(ColorFlagName) {
		cfg.Color = ctx.Bool(ColorFlagName)
	}
	return cfg
}

// SetupDefaults installs a terminal handler on the global logger, for use before flags are parsed.
func SetupDefaults() {
	SetGlobalLogHandler(log.NewTerminalHandlerWithLevel(os.Stdout, log.LevelInfo, isatty.IsTerminal(os.Stdout.Fd())))
}
