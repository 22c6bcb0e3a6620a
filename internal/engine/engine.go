package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stackvity/vterm/internal/config"
	"github.com/stackvity/vterm/internal/filesystem"
	"github.com/stackvity/vterm/internal/report"
	"github.com/stackvity/vterm/internal/session"
)

// ErrReport marks failures to persist the session report.
var ErrReport = errors.New("failed to persist session report")

// Report summarizes a script replay.
type Report struct {
	Runs     int
	Commands int
	Failed   int
	Answered bool // at least one answer field was set
	Correct  bool
	Digest   string
	Duration time.Duration
	Errors   []string // "line N: <transcript message>" for every failed command
}

// Engine replays a script through a session, once or every time the script
// changes on disk.
type Engine struct {
	Opts      *config.Options
	FS        filesystem.FileSystem
	Session   *session.Session
	Persister report.Persister
	Logger    *slog.Logger
	Out       io.Writer // transcript
	ErrOut    io.Writer // watch summaries
	now       func() time.Time
}

// NewEngine creates a new Engine instance with dependencies.
func NewEngine(
	opts *config.Options,
	fs filesystem.FileSystem,
	sess *session.Session,
	persister report.Persister,
	logger *slog.Logger,
) *Engine {
	if persister == nil {
		persister = report.NewNoOpPersister()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		Opts:      opts,
		FS:        fs,
		Session:   sess,
		Persister: persister,
		Logger:    logger,
		Out:       os.Stdout,
		ErrOut:    os.Stderr,
		now:       time.Now,
	}
}

// Run replays the script once, or keeps replaying it in watch mode until ctx
// is cancelled.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	startTime := time.Now()

	if e.Opts.WatchMode {
		rep, err := e.watch(ctx)
		rep.Duration = time.Since(startTime)
		return rep, err
	}

	rep, err := e.runOnce(ctx)
	rep.Runs = 1
	rep.Duration = time.Since(startTime)
	if err != nil {
		return rep, fmt.Errorf("script run failed: %w", err)
	}
	return rep, nil
}

// runOnce resets the session and its script answers, replays every step and
// persists the report.
func (e *Engine) runOnce(ctx context.Context) (Report, error) {
	var rep Report

	data, err := e.FS.ReadFile(e.Opts.Script)
	if err != nil {
		return rep, fmt.Errorf("failed to read script '%s': %w", e.Opts.Script, err)
	}
	steps, err := ParseScript(data)
	if err != nil {
		return rep, fmt.Errorf("invalid script '%s': %w", e.Opts.Script, err)
	}

	e.Session.Reset()
	e.Session.RestoreAnswers()
	e.Logger.Debug("Replaying script", "file", e.Opts.Script, "steps", len(steps))

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		switch step.Kind {
		case StepAnswer:
			if err := e.Session.SetAnswer(step.Field, step.Value); err != nil {
				return rep, fmt.Errorf("line %d: %w", step.Line, err)
			}
			e.Logger.Debug("Answer set", "line", step.Line, "field", step.Field.String())
		case StepCommand:
			rep.Commands++
			if err := e.Session.Submit(step.Text); err != nil {
				rep.Failed++
				rep.Errors = append(rep.Errors, fmt.Sprintf("line %d: %s", step.Line, err))
				e.Logger.Debug("Command failed", "line", step.Line, "command", step.Text, "error", err)
			}
		}
	}

	for _, line := range e.Session.View().Lines {
		fmt.Fprintln(e.Out, line)
	}

	rep.Answered = !e.Session.Answers().Empty()
	rep.Correct = e.Session.Evaluate()
	rep.Digest = e.Session.Tree().Digest()

	if err := e.Persister.Persist(report.FromSession(e.Session, e.now())); err != nil {
		return rep, fmt.Errorf("%w: %w", ErrReport, err)
	}
	return rep, nil
}

// watch monitors the script for changes and triggers re-runs.
func (e *Engine) watch(ctx context.Context) (Report, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Report{}, fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	script, err := filepath.Abs(e.Opts.Script)
	if err != nil {
		return Report{}, fmt.Errorf("failed to resolve script path '%s': %w", e.Opts.Script, err)
	}
	// Editors often replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(script)); err != nil {
		return Report{}, fmt.Errorf("failed to watch '%s': %w", filepath.Dir(script), err)
	}

	lastReport, initialErr := e.runOnce(ctx)
	lastReport.Runs = 1
	if initialErr != nil {
		if errors.Is(initialErr, context.Canceled) {
			return lastReport, initialErr
		}
		if errors.Is(initialErr, os.ErrNotExist) || errors.Is(initialErr, ErrReport) {
			return lastReport, fmt.Errorf("aborting watch mode due to critical initial run failure: %w", initialErr)
		}
		e.Logger.Warn("Initial run failed, watch mode will continue", "error", initialErr)
	} else {
		e.printWatchSummary(e.ErrOut, lastReport)
	}

	e.Logger.Info("Entering watch mode, monitoring for changes...", "path", script)

	var debounceTimer *time.Timer
	debounceDuration := e.Opts.Watch.Debounce
	if debounceDuration <= 0 {
		debounceDuration = config.DefaultDebounce
	}
	triggerRerunChan := make(chan struct{}, 1)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			e.Logger.Info("Received cancellation signal, exiting watch mode gracefully.")
			return lastReport, context.Canceled

		case event, ok := <-watcher.Events:
			if !ok {
				return lastReport, errors.New("watcher event channel closed")
			}
			if filepath.Clean(event.Name) != script {
				continue
			}
			e.Logger.Debug("Watcher event received", "event", event.String())
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDuration, func() {
				select {
				case triggerRerunChan <- struct{}{}:
				default:
				}
			})

		case <-triggerRerunChan:
			e.Logger.Info("Change detected, replaying script...", "path", script)
			runs := lastReport.Runs
			rep, err := e.runOnce(ctx)
			rep.Runs = runs + 1
			lastReport = rep
			switch {
			case errors.Is(err, context.Canceled):
				return lastReport, err
			case errors.Is(err, ErrReport):
				return lastReport, err
			case err != nil:
				e.Logger.Error("Replay failed, waiting for the next change", "error", err)
			default:
				e.printWatchSummary(e.ErrOut, lastReport)
			}
			e.Logger.Info("Watching for changes...")

		case err, ok := <-watcher.Errors:
			if !ok {
				return lastReport, errors.New("watcher error channel closed")
			}
			e.Logger.Error("File watcher error encountered, attempting to continue", "error", err)
		}
	}
}

func (e *Engine) printWatchSummary(w io.Writer, rep Report) {
	fmt.Fprintf(w, "--- Run %d: %d commands, %d failed", rep.Runs, rep.Commands, rep.Failed)
	if rep.Answered {
		verdict := "incorrect"
		if rep.Correct {
			verdict = "correct"
		}
		fmt.Fprintf(w, ", answers %s", verdict)
	}
	fmt.Fprintln(w, " ---")
	for _, msg := range rep.Errors {
		fmt.Fprintf(w, "  %s\n", msg)
	}
}
