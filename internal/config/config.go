package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/viper"

	"github.com/stackvity/vterm/internal/filesystem"
	"github.com/stackvity/vterm/internal/report"
	"github.com/stackvity/vterm/internal/session"
	"github.com/stackvity/vterm/internal/template"
)

// EnvPrefix prefixes every environment variable viper consults.
const EnvPrefix = "VTERM"

// DefaultDebounce is how long watch mode waits for writes to settle.
const DefaultDebounce = 300 * time.Millisecond

// WatchConfig holds configuration specific to watch mode.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Options holds all the configuration settings for vterm.
// Tags are used by Viper for unmarshalling from config files, env vars, and flags.
type Options struct {
	// Filesystem
	Seed string `mapstructure:"seed"` // YAML/TOML seed; empty selects the built-in tree

	// Script replay
	Script    string      `mapstructure:"script"`
	WatchMode bool        `mapstructure:"watch"`
	Watch     WatchConfig `mapstructure:"watchConfig"`

	// Session report
	Report       string `mapstructure:"report"`
	ReportFormat string `mapstructure:"reportFormat"` // "yaml", "toml" or "json"

	// Prompt and console
	User       string `mapstructure:"user"`
	Host       string `mapstructure:"host"`
	Prompt     string `mapstructure:"prompt"`
	PromptFile string `mapstructure:"promptFile"`
	NoColor    bool   `mapstructure:"noColor"`
	Verbose    bool   `mapstructure:"verbose"`

	// Exercise
	Expected session.Answers `mapstructure:"expected"`
	Answers  session.Answers `mapstructure:"answers"`

	// Internal - Not typically set by user directly
	ConfigFile string `mapstructure:"config"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	expected := session.DefaultExpected()

	v.SetDefault("watch", false)
	v.SetDefault("watchConfig.debounce", DefaultDebounce.String())
	v.SetDefault("reportFormat", string(report.FormatYAML))
	v.SetDefault("user", session.DefaultUser)
	v.SetDefault("host", session.DefaultHost)
	v.SetDefault("prompt", template.DefaultPrompt)
	v.SetDefault("noColor", false)
	v.SetDefault("verbose", false)
	v.SetDefault("expected.location", expected.Location)
	v.SetDefault("expected.command", expected.Command)
	v.SetDefault("expected.note", expected.Note)
}

// ValidateConfig checks the loaded configuration options for validity and
// reports every problem at once.
func (opts *Options) ValidateConfig(fs filesystem.FileSystem) error {
	var errs []string

	if opts.Seed != "" {
		if msg := checkFile(fs, "seed", opts.Seed); msg != "" {
			errs = append(errs, msg)
		}
	}

	if opts.Script != "" {
		if msg := checkFile(fs, "script", opts.Script); msg != "" {
			errs = append(errs, msg)
		}
	}
	if opts.WatchMode {
		if opts.Script == "" {
			errs = append(errs, "watch mode requires a script")
		}
		if opts.Watch.Debounce < 0 {
			errs = append(errs, "watchConfig.debounce duration must be non-negative")
		}
	}

	if _, err := report.ParseFormat(opts.ReportFormat); err != nil {
		errs = append(errs, err.Error())
	}

	for _, field := range []struct{ name, value string }{{"user", opts.User}, {"host", opts.Host}} {
		switch {
		case strings.TrimSpace(field.value) == "":
			errs = append(errs, fmt.Sprintf("%s cannot be empty", field.name))
		case strings.IndexFunc(field.value, unicode.IsSpace) >= 0:
			errs = append(errs, fmt.Sprintf("%s '%s' must not contain whitespace", field.name, field.value))
		}
	}

	if opts.PromptFile != "" {
		if msg := checkFile(fs, "promptFile", opts.PromptFile); msg != "" {
			errs = append(errs, msg)
		} else if _, err := template.NewExecutorFromFile(opts.PromptFile, fs); err != nil {
			errs = append(errs, err.Error())
		}
	} else if _, err := template.NewExecutor(opts.Prompt); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// PromptExecutor returns the prompt template selected by the options.
func (opts *Options) PromptExecutor(fs filesystem.FileSystem) (*template.Executor, error) {
	if opts.PromptFile != "" {
		return template.NewExecutorFromFile(opts.PromptFile, fs)
	}
	return template.NewExecutor(opts.Prompt)
}

func checkFile(fs filesystem.FileSystem, name, path string) string {
	info, err := fs.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Sprintf("%s '%s' does not exist", name, path)
	case err != nil:
		return fmt.Sprintf("cannot access %s '%s': %v", name, path, err)
	case info.IsDir():
		return fmt.Sprintf("%s '%s' is a directory, not a file", name, path)
	}
	return ""
}
