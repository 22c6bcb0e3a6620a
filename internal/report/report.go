// Package report serializes the state of a session and persists it
// atomically to the host filesystem.
package report

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/stackvity/vterm/internal/filesystem"
	"github.com/stackvity/vterm/internal/session"
)

// Format is a report encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// ParseFormat accepts a format name case-insensitively. An empty name
// selects YAML.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatYAML, nil
	case FormatYAML, FormatTOML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("reportFormat must be 'yaml', 'toml' or 'json', got '%s'", name)
	}
}

// Snapshot is the persisted view of a session.
type Snapshot struct {
	GeneratedAt time.Time       `yaml:"generated_at" toml:"generated_at" json:"generated_at"`
	Home        string          `yaml:"home" toml:"home" json:"home"`
	Cwd         string          `yaml:"cwd" toml:"cwd" json:"cwd"`
	Digest      string          `yaml:"digest" toml:"digest" json:"digest"`
	Correct     bool            `yaml:"correct" toml:"correct" json:"correct"`
	Answers     session.Answers `yaml:"answers" toml:"answers" json:"answers"`
	History     []string        `yaml:"history" toml:"history" json:"history"`
	Transcript  []string        `yaml:"transcript" toml:"transcript" json:"transcript"`
	Tree        map[string]any  `yaml:"tree" toml:"tree" json:"tree"`
}

// FromSession captures s. Evaluate is read-only, so taking a snapshot never
// changes the session.
func FromSession(s *session.Session, now time.Time) Snapshot {
	return Snapshot{
		GeneratedAt: now.UTC(),
		Home:        s.Home(),
		Cwd:         s.Cwd(),
		Digest:      s.Tree().Digest(),
		Correct:     s.Evaluate(),
		Answers:     s.Answers(),
		History:     s.History(),
		Transcript:  s.View().Lines,
		Tree:        s.Tree().Snapshot(),
	}
}

// Encode renders snap in the given format.
func Encode(snap Snapshot, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return nil, fmt.Errorf("failed to encode report as yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode report as yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(snap); err != nil {
			return nil, fmt.Errorf("failed to encode report as toml: %w", err)
		}
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return nil, fmt.Errorf("failed to encode report as json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported report format '%s'", format)
	}
	return buf.Bytes(), nil
}

// Persister stores snapshots.
type Persister interface {
	Persist(snap Snapshot) error
}

type filePersister struct {
	path   string
	format Format
	fs     filesystem.FileSystem
	logger *slog.Logger
	last   [sha256.Size]byte // content hash of the last write, timestamp excluded
	wrote  bool
}

// NewFilePersister writes snapshots to path. Identical consecutive snapshots
// (ignoring GeneratedAt) are written only once.
func NewFilePersister(path string, format Format, fs filesystem.FileSystem, logger *slog.Logger) Persister {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &filePersister{path: path, format: format, fs: fs, logger: logger}
}

func (p *filePersister) Persist(snap Snapshot) error {
	stable := snap
	stable.GeneratedAt = time.Time{}
	key, err := Encode(stable, p.format)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(key)
	if p.wrote && sum == p.last {
		p.logger.Debug("Report unchanged, skipping write", "file", p.path)
		return nil
	}

	data, err := Encode(snap, p.format)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := p.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure report directory exists '%s': %w", dir, err)
	}

	tempFilePath := p.path + ".tmp" + fmt.Sprintf(".%d", time.Now().UnixNano())
	if err := p.fs.WriteFile(tempFilePath, data, os.FileMode(0644)); err != nil {
		_ = p.fs.Remove(tempFilePath)
		return fmt.Errorf("failed to write temporary report file '%s': %w", tempFilePath, err)
	}
	if err := p.fs.Rename(tempFilePath, p.path); err != nil {
		_ = p.fs.Remove(tempFilePath)
		return fmt.Errorf("failed to rename temporary report file to '%s': %w", p.path, err)
	}

	p.last, p.wrote = sum, true
	p.logger.Debug("Report persisted", "file", p.path, "format", string(p.format), "bytes", len(data))
	return nil
}

type noOpPersister struct{}

// NewNoOpPersister discards every snapshot.
func NewNoOpPersister() Persister { return noOpPersister{} }

func (noOpPersister) Persist(Snapshot) error { return nil }
