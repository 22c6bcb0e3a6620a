package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/vterm/internal/filesystem"
	"github.com/stackvity/vterm/internal/session"
	"github.com/stackvity/vterm/internal/template"
)

func validOptions() Options {
	return Options{
		ReportFormat: "yaml",
		User:         "alumno",
		Host:         "aula",
		Prompt:       template.DefaultPrompt,
		Watch:        WatchConfig{Debounce: DefaultDebounce},
		Expected:     session.DefaultExpected(),
	}
}

func TestValidateConfig(t *testing.T) {
	mockFS := filesystem.NewMockFileSystem()
	mockFS.AddFile("/work/seed.yaml", []byte("home: /\n"))
	mockFS.AddFile("/work/lesson.vsh", []byte("pwd\n"))
	mockFS.AddFile("/work/prompt.tmpl", []byte("{{.User}}> "))
	mockFS.AddFile("/work/broken.tmpl", []byte("{{.User"))
	mockFS.AddDir("/work/dir")

	testCases := []struct {
		name        string
		mutate      func(o *Options)
		errorSubstr []string
	}{
		{name: "Valid Defaults", mutate: func(o *Options) {}},
		{
			name: "Valid Everything",
			mutate: func(o *Options) {
				o.Seed = "/work/seed.yaml"
				o.Script = "/work/lesson.vsh"
				o.WatchMode = true
				o.Report = "/work/out/report.toml"
				o.ReportFormat = "TOML"
				o.PromptFile = "/work/prompt.tmpl"
			},
		},
		{
			name:        "Missing Seed",
			mutate:      func(o *Options) { o.Seed = "/work/none.yaml" },
			errorSubstr: []string{"seed '/work/none.yaml' does not exist"},
		},
		{
			name:        "Script Is Directory",
			mutate:      func(o *Options) { o.Script = "/work/dir" },
			errorSubstr: []string{"script '/work/dir' is a directory"},
		},
		{
			name: "Watch Without Script And Negative Debounce",
			mutate: func(o *Options) {
				o.WatchMode = true
				o.Watch.Debounce = -time.Second
			},
			errorSubstr: []string{"watch mode requires a script", "debounce duration must be non-negative"},
		},
		{
			name: "Negative Debounce Ignored Without Watch",
			mutate: func(o *Options) {
				o.Watch.Debounce = -time.Second
			},
		},
		{
			name:        "Bad Report Format",
			mutate:      func(o *Options) { o.ReportFormat = "xml" },
			errorSubstr: []string{"reportFormat must be"},
		},
		{
			name: "Bad User And Host",
			mutate: func(o *Options) {
				o.User = "  "
				o.Host = "my host"
			},
			errorSubstr: []string{"user cannot be empty", "host 'my host' must not contain whitespace"},
		},
		{
			name:        "Bad Inline Prompt",
			mutate:      func(o *Options) { o.Prompt = "{{.Nope}}" },
			errorSubstr: []string{"failed to execute prompt template"},
		},
		{
			name:        "Bad Prompt File",
			mutate:      func(o *Options) { o.PromptFile = "/work/broken.tmpl" },
			errorSubstr: []string{"failed to parse prompt template '/work/broken.tmpl'"},
		},
		{
			name:        "Missing Prompt File",
			mutate:      func(o *Options) { o.PromptFile = "/work/none.tmpl" },
			errorSubstr: []string{"promptFile '/work/none.tmpl' does not exist"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := validOptions()
			tc.mutate(&opts)

			err := opts.ValidateConfig(mockFS)
			if len(tc.errorSubstr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "invalid configuration: "), err.Error())
			for _, substr := range tc.errorSubstr {
				assert.Contains(t, err.Error(), substr)
			}
		})
	}
}

func TestPromptExecutor(t *testing.T) {
	mockFS := filesystem.NewMockFileSystem()
	mockFS.AddFile("/p.tmpl", []byte("[{{.Dir}}]"))
	data := template.NewPromptData("a", "b", "/home/a/x", "/home/a")

	opts := validOptions()
	e, err := opts.PromptExecutor(mockFS)
	require.NoError(t, err)
	assert.Equal(t, "a@b:~/x$", e.MustExecute(data))

	opts.PromptFile = "/p.tmpl"
	e, err = opts.PromptExecutor(mockFS)
	require.NoError(t, err)
	assert.Equal(t, "[~/x]", e.MustExecute(data))
}

// TestConfigPrecedence checks defaults < file < env < explicit set, the
// order main.go relies on when it merges flags last.
func TestConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, ".vterm.yaml")
	content := `
user: filebob
reportFormat: toml
watchConfig:
  debounce: 1s
expected:
  note: from-file.jpg
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

	tests := []struct {
		name      string
		setupFunc func(t *testing.T, v *viper.Viper)
		wantUser  string
		wantNote  string
		wantDelay time.Duration
	}{
		{
			name:      "Default Only",
			setupFunc: func(t *testing.T, v *viper.Viper) {},
			wantUser:  session.DefaultUser,
			wantNote:  session.DefaultExpected().Note,
			wantDelay: DefaultDebounce,
		},
		{
			name: "File Overrides Default",
			setupFunc: func(t *testing.T, v *viper.Viper) {
				v.SetConfigFile(configFile)
				require.NoError(t, v.ReadInConfig())
			},
			wantUser:  "filebob",
			wantNote:  "from-file.jpg",
			wantDelay: time.Second,
		},
		{
			name: "Env Overrides File",
			setupFunc: func(t *testing.T, v *viper.Viper) {
				v.SetConfigFile(configFile)
				require.NoError(t, v.ReadInConfig())
				t.Setenv("VTERM_USER", "envbob")
				t.Setenv("VTERM_EXPECTED_NOTE", "from-env.jpg")
				v.AutomaticEnv()
			},
			wantUser:  "envbob",
			wantNote:  "from-env.jpg",
			wantDelay: time.Second,
		},
		{
			name: "Flag Overrides Env",
			setupFunc: func(t *testing.T, v *viper.Viper) {
				v.SetConfigFile(configFile)
				require.NoError(t, v.ReadInConfig())
				t.Setenv("VTERM_USER", "envbob")
				v.AutomaticEnv()
				v.Set("user", "flagbob")
				v.Set("watchConfig.debounce", "50ms")
			},
			wantUser:  "flagbob",
			wantNote:  "from-file.jpg",
			wantDelay: 50 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.SetEnvPrefix(EnvPrefix)
			v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
			SetDefaults(v)

			tt.setupFunc(t, v)

			var opts Options
			require.NoError(t, v.Unmarshal(&opts))
			assert.Equal(t, tt.wantUser, opts.User)
			assert.Equal(t, tt.wantNote, opts.Expected.Note)
			assert.Equal(t, tt.wantDelay, opts.Watch.Debounce)
			assert.Equal(t, session.DefaultExpected().Command, opts.Expected.Command, "unset nested keys keep defaults")
			assert.NoError(t, opts.ValidateConfig(filesystem.NewRealFileSystem()))
		})
	}
}
