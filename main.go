package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stackvity/vterm/internal/config"
	"github.com/stackvity/vterm/internal/console"
	"github.com/stackvity/vterm/internal/engine"
	"github.com/stackvity/vterm/internal/filesystem"
	"github.com/stackvity/vterm/internal/report"
	"github.com/stackvity/vterm/internal/session"
	"github.com/stackvity/vterm/internal/vfs"
)

// Variables for version embedding via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	ExitCodeSuccess          = 0
	ExitCodeAnswersIncorrect = 1
	ExitCodeConfigError      = 2
	ExitCodeInterrupt        = 3
	ExitCodeEngineError      = 4
	ExitCodeReportError      = 5
	ExitCodeUnknown          = 10
)

var (
	opts   *config.Options
	logger *slog.Logger
)

// flagKeys maps command-line flags to the configuration keys they override.
var flagKeys = map[string]string{
	"config":          "config",
	"verbose":         "verbose",
	"seed":            "seed",
	"script":          "script",
	"watch":           "watch",
	"debounce":        "watchConfig.debounce",
	"report":          "report",
	"report-format":   "reportFormat",
	"user":            "user",
	"host":            "host",
	"prompt":          "prompt",
	"prompt-file":     "promptFile",
	"no-color":        "noColor",
	"answer-location": "answers.location",
	"answer-command":  "answers.command",
	"answer-note":     "answers.note",
}

var rootCmd = &cobra.Command{
	Use:   "vterm [--script <file>]",
	Short: "A practice terminal over a virtual filesystem",
	Long: `vterm opens a simulated shell over an in-memory filesystem so learners can
practise pwd, ls, cd, cat and mv without touching real files.

Run it without a script for an interactive session, or replay a script of
commands (optionally re-running it whenever it changes with --watch).`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := viper.Unmarshal(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error unmarshalling configuration: %v\n", err)
			os.Exit(ExitCodeConfigError)
			return nil
		}

		fs := filesystem.NewRealFileSystem()
		if err := opts.ValidateConfig(fs); err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(ExitCodeConfigError)
			return nil
		}

		logLevel := slog.LevelInfo
		if opts.Verbose {
			logLevel = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
		logger.Debug("Configuration loaded and validated successfully", "options", *opts)

		seed := vfs.DefaultSeed()
		if opts.Seed != "" {
			loaded, err := vfs.LoadSeed(fs, opts.Seed)
			if err != nil {
				logger.Error("Failed to load seed", "file", opts.Seed, "error", err)
				os.Exit(ExitCodeConfigError)
				return nil
			}
			seed = loaded
			logger.Debug("Seed loaded", "file", opts.Seed, "home", seed.Home)
		}

		prompt, err := opts.PromptExecutor(fs)
		if err != nil {
			logger.Error("Failed to initialize prompt template", "error", err)
			os.Exit(ExitCodeConfigError)
			return nil
		}

		sess, err := session.New(session.Config{
			Seed:     &seed,
			User:     opts.User,
			Host:     opts.Host,
			Prompt:   prompt,
			Expected: &opts.Expected,
			Answers:  opts.Answers,
			Logger:   logger,
		})
		if err != nil {
			logger.Error("Failed to start session", "error", err)
			os.Exit(ExitCodeConfigError)
			return nil
		}

		persister := report.NewNoOpPersister()
		if opts.Report != "" {
			format, _ := report.ParseFormat(opts.ReportFormat) // validated above
			persister = report.NewFilePersister(opts.Report, format, fs, logger)
			logger.Debug("Session report enabled", "path", opts.Report, "format", format)
		}

		if opts.Script != "" {
			runScript(ctx, fs, sess, persister)
		} else {
			runInteractive(ctx, sess, persister)
		}

		if !sess.Answers().Empty() {
			if !sess.Evaluate() {
				fmt.Fprintln(os.Stderr, "Answers: incorrect")
				os.Exit(ExitCodeAnswersIncorrect)
				return nil
			}
			fmt.Fprintln(os.Stderr, "Answers: correct")
		}
		return nil
	},
}

func runScript(ctx context.Context, fs filesystem.FileSystem, sess *session.Session, persister report.Persister) {
	eng := engine.NewEngine(opts, fs, sess, persister, logger)
	logger.Debug("Engine initialized", "script", opts.Script, "watch", opts.WatchMode)

	rep, err := eng.Run(ctx)

	if !opts.WatchMode {
		fmt.Fprintf(os.Stderr, "\n--- Summary ---\n")
		fmt.Fprintf(os.Stderr, "Duration:        %s\n", rep.Duration.Round(time.Millisecond))
		fmt.Fprintf(os.Stderr, "Commands:        %d\n", rep.Commands)
		fmt.Fprintf(os.Stderr, "Failed Commands: %d\n", rep.Failed)
		fmt.Fprintf(os.Stderr, "Tree Digest:     %s\n", rep.Digest)
		for _, msg := range rep.Errors {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", msg)
		}
		fmt.Fprintf(os.Stderr, "---------------\n")
	}

	if ctx.Err() != nil {
		logger.Info("Process interrupted.")
		os.Exit(ExitCodeInterrupt)
	}
	if err != nil {
		logger.Error("Script replay failed", "error", err)
		switch {
		case errors.Is(err, context.Canceled):
			os.Exit(ExitCodeInterrupt)
		case errors.Is(err, engine.ErrReport):
			os.Exit(ExitCodeReportError)
		default:
			os.Exit(ExitCodeEngineError)
		}
	}
}

func runInteractive(ctx context.Context, sess *session.Session, persister report.Persister) {
	con := console.New(sess, os.Stdin, os.Stdout, opts.NoColor, logger)
	err := con.Run(ctx)

	if perr := persister.Persist(report.FromSession(sess, time.Now())); perr != nil {
		logger.Error("Failed to write session report", "path", opts.Report, "error", perr)
		os.Exit(ExitCodeReportError)
	}

	if ctx.Err() != nil {
		logger.Info("Process interrupted.")
		os.Exit(ExitCodeInterrupt)
	}
	if err != nil {
		logger.Error("Console failed", "error", err)
		os.Exit(ExitCodeEngineError)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(ExitCodeUnknown)
	}
}

func init() {
	opts = &config.Options{}
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()

	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file path (default: .vterm.yaml, vterm.yaml)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable verbose debug logging")

	flags.StringVar(&opts.Seed, "seed", "", "YAML or TOML file describing the initial filesystem (default: built-in exercise)")
	flags.StringVar(&opts.Script, "script", "", "Replay commands from this file instead of reading the terminal")
	flags.BoolVar(&opts.WatchMode, "watch", false, "Replay the script again every time it changes")
	flags.Duration("debounce", config.DefaultDebounce, "How long watch mode waits for writes to settle")

	flags.StringVar(&opts.Report, "report", "", "Write a snapshot of the session to this file when it ends")
	flags.StringVar(&opts.ReportFormat, "report-format", "yaml", "Report format: 'yaml', 'toml' or 'json'")

	flags.StringVar(&opts.User, "user", session.DefaultUser, "User name shown in the prompt")
	flags.StringVar(&opts.Host, "host", session.DefaultHost, "Host name shown in the prompt")
	flags.StringVar(&opts.Prompt, "prompt", "", "Go template for the prompt (fields: User, Host, Dir, Cwd, Home)")
	flags.StringVar(&opts.PromptFile, "prompt-file", "", "Read the prompt template from this file")
	flags.BoolVar(&opts.NoColor, "no-color", false, "Disable colored prompt output")

	flags.String("answer-location", "", "Answer: the directory the misfiled file belongs in")
	flags.String("answer-command", "", "Answer: the command that moves it")
	flags.String("answer-note", "", "Answer: the file named in the note")

	rootCmd.SetVersionTemplate(fmt.Sprintf("vterm version %s (commit: %s, built: %s)\n", version, commit, date))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	v := viper.New()

	// 1. Defaults
	config.SetDefaults(v)

	// 2. Environment, e.g. VTERM_REPORTFORMAT or VTERM_EXPECTED_NOTE
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// 3. Config file
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading specified config file %s: %v\n", opts.ConfigFile, err)
			os.Exit(ExitCodeConfigError)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(".vterm")
		v.SetConfigType("yaml")
		err := v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			v.SetConfigName("vterm")
			err = v.ReadInConfig()
		}
		if err != nil && !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", v.ConfigFileUsed(), err)
			os.Exit(ExitCodeConfigError)
		}
	}
	if v.ConfigFileUsed() != "" && v.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}

	// 4. Flags win when set explicitly
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Internal error binding flag --%s to viper: %v\n", name, err)
			os.Exit(ExitCodeConfigError)
		}
	}

	// 5. Merge into the global viper instance used by RunE's Unmarshal
	if err := viper.MergeConfigMap(v.AllSettings()); err != nil {
		fmt.Fprintf(os.Stderr, "Internal error merging viper settings: %v\n", err)
		os.Exit(ExitCodeConfigError)
	}
}

func main() {
	Execute()
}
