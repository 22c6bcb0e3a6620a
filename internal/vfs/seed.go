package vfs

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/stackvity/vterm/internal/filesystem"
	"github.com/stackvity/vterm/internal/vpath"
)

// Seed describes the initial state of a session's filesystem.
//
// Tree is a nested map: a map value is a directory, a string value is the
// content of a file. It decodes directly from YAML or TOML documents.
type Seed struct {
	Home string         `yaml:"home" toml:"home"`
	Cwd  string         `yaml:"cwd" toml:"cwd"`
	Tree map[string]any `yaml:"tree" toml:"tree"`
}

const (
	defaultHome = "/home/alumno"

	// ReadmeNote is the content of Docs/misc/readme.txt in the default seed.
	ReadmeNote = "Nota: la imagen granja_solar.jpg está mal archivada. Muévela a la carpeta Pics/Renovables."
)

// DefaultSeed returns the built-in exercise tree. Each call returns a fresh
// value so callers may modify it.
func DefaultSeed() Seed {
	return Seed{
		Home: defaultHome,
		Cwd:  defaultHome,
		Tree: map[string]any{
			"etc": map[string]any{
				"motd": "Bienvenido al laboratorio de terminal.",
			},
			"home": map[string]any{
				"alumno": map[string]any{
					"Docs": map[string]any{
						"informe.txt": "Informe de prácticas: energías renovables.\nPendiente: ordenar las imágenes.",
						"misc": map[string]any{
							"granja_solar.jpg": "[imagen JPEG 1024x768: granja solar]",
							"readme.txt":       ReadmeNote,
						},
					},
					"Downloads": map[string]any{
						"instalador.sh": "#!/bin/sh\necho \"instalando...\"",
					},
					"Pics": map[string]any{
						"Renovables":     map[string]any{},
						"vacaciones.png": "[imagen PNG 800x600: vacaciones]",
					},
				},
			},
			"tmp": map[string]any{},
		},
	}
}

// LoadSeed reads a seed document from the host filesystem. The format is
// chosen by extension: .yaml/.yml or .toml.
func LoadSeed(fsys filesystem.FileSystem, path string) (Seed, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to read seed file '%s': %w", path, err)
	}

	var seed Seed
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&seed); err != nil {
			return Seed{}, fmt.Errorf("failed to parse seed file '%s': %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &seed)
		if err != nil {
			return Seed{}, fmt.Errorf("failed to parse seed file '%s': %w", path, err)
		}
		var unknown []string
		for _, key := range md.Undecoded() {
			// Entries below "tree" land in map[string]any; only top-level keys are fields.
			if len(key) == 1 {
				unknown = append(unknown, key.String())
			}
		}
		if len(unknown) > 0 {
			return Seed{}, fmt.Errorf("seed file '%s' has unknown keys: %v", path, unknown)
		}
	default:
		return Seed{}, fmt.Errorf("seed file '%s': unsupported extension %q (want .yaml, .yml or .toml)", path, ext)
	}

	if seed.Home == "" {
		seed.Home = vpath.Separator
	}
	if seed.Cwd == "" {
		seed.Cwd = seed.Home
	}
	return seed, nil
}

// Build constructs a fresh Tree from the seed and checks that Home and Cwd
// name directories in it.
func (s Seed) Build() (*Tree, error) {
	root, err := buildDir(vpath.Separator, s.Tree)
	if err != nil {
		return nil, err
	}
	tree := NewTree(root)

	for _, check := range []struct{ field, p string }{{"home", s.Home}, {"cwd", s.Cwd}} {
		if !vpath.IsAbs(check.p) {
			return nil, fmt.Errorf("seed %s '%s' must be an absolute path", check.field, check.p)
		}
		if kind, err := tree.Stat(check.p); err != nil || kind != KindDir {
			return nil, fmt.Errorf("seed %s '%s' is not a directory in the tree", check.field, check.p)
		}
	}
	return tree, nil
}

func buildDir(at string, entries map[string]any) (*Node, error) {
	dir := NewDir()
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		p := vpath.Resolve(at, name)
		if err := validName(name); err != nil {
			errs = append(errs, fmt.Errorf("seed entry %q under '%s': %w", name, at, err))
			continue
		}
		switch v := entries[name].(type) {
		case string:
			dir.add(name, NewFile(v))
		case map[string]any:
			child, err := buildDir(p, v)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			dir.add(name, child)
		case nil:
			// "name:" with no value in YAML is an empty directory.
			dir.add(name, NewDir())
		default:
			errs = append(errs, fmt.Errorf("seed entry '%s': unsupported value of type %T (want map or string)", p, v))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return dir, nil
}

func validName(name string) error {
	switch {
	case name == "":
		return errors.New("empty name")
	case name == "." || name == "..":
		return errors.New("reserved name")
	case strings.Contains(name, vpath.Separator):
		return errors.New("name contains a separator")
	}
	return nil
}
