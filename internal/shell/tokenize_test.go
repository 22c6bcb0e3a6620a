package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"empty", "", nil},
		{"blank", "   \t ", nil},
		{"single word", "pwd", []string{"pwd"}},
		{"collapses separators", "  mv   a\tb  ", []string{"mv", "a", "b"}},
		{"double quotes", `cat "mi archivo.txt"`, []string{"cat", "mi archivo.txt"}},
		{"single quotes", `cd 'Pics/Renovables'`, []string{"cd", "Pics/Renovables"}},
		{"adjacent quoted text joins", `mv a"b c"d x`, []string{"mv", "ab cd", "x"}},
		{"empty quotes are a token", `cat ""`, []string{"cat", ""}},
		{"other quote kind is literal", `cat "it's"`, []string{"cat", "it's"}},
		{"unicode", "cat informe.txt énergie", []string{"cat", "informe.txt", "énergie"}},
		{"other unicode blanks", "cd\vDocs\u00a0misc", []string{"cd", "Docs", "misc"}},
		{"blanks inside quotes kept", "cat \"a\u00a0b\"", []string{"cat", "a\u00a0b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenize_UnterminatedQuote(t *testing.T) {
	for _, line := range []string{`cat "abc`, `cd 'x`, `mv "a" 'b`} {
		_, err := Tokenize(line)
		assert.ErrorIs(t, err, ErrUnterminatedQuote, line)
	}
}
