package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		name    string
		content []byte
		want    string
		wantErr bool
	}{
		{
			name:    "text document",
			content: []byte("CLÁUSULA 1ª - Do objeto"),
			want:    "CLÁUSULA 1ª - Do objeto",
		},
		{
			name:    "invalid utf8 is replaced",
			content: []byte{'a', 0xff, 'b'},
			want:    "a�b",
		},
		{
			name:    "whitespace only",
			content: []byte(" \n\t "),
			wantErr: true,
		},
		{
			name:    "broken pdf",
			content: []byte("%PDF-1.4\nnot really a pdf"),
			wantErr: true,
		},
	}

	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, string(rune('a'+i))+".bin")
			require.NoError(t, os.WriteFile(path, tc.content, 0o600))

			got, err := ExtractText(path)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractTextMissingFile(t *testing.T) {
	_, err := ExtractText(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
