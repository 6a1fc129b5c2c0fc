package validation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidIdentifierChar(t *testing.T) {
	for _, ch := range "azAZ09-_" {
		assert.True(t, IsValidIdentifierChar(ch), "%q", ch)
	}
	for _, ch := range " ./\\:é$" {
		assert.False(t, IsValidIdentifierChar(ch), "%q", ch)
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "dialog", false},
		{"mixed", "Save_Dialog-2", false},
		{"empty", "", true},
		{"dot", "dialog.yaml", true},
		{"traversal", "../etc", true},
		{"space", "my dialog", true},
		{"too long", strings.Repeat("a", MaxNameLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Name(tt.input)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.input, verr.Input)
		})
	}
}

func TestContain(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "fixtures"), 0o755))
	realBase, err := filepath.EvalSymlinks(base)
	require.NoError(t, err)

	tests := []struct {
		name    string
		rel     string
		want    string
		wantErr bool
	}{
		{"file", "dialog.yaml", filepath.Join(realBase, "dialog.yaml"), false},
		{"nested missing", "fixtures/new/dialog.yaml", filepath.Join(realBase, "fixtures", "new", "dialog.yaml"), false},
		{"cleaned", "fixtures/../dialog.yaml", filepath.Join(realBase, "dialog.yaml"), false},
		{"empty", "", "", true},
		{"parent", "../outside.yaml", "", true},
		{"deep parent", "fixtures/../../outside.yaml", "", true},
		{"absolute", "/etc/passwd", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Contain(base, tt.rel)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContain_SymlinkEscape(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(base, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err := Contain(base, "link/secret.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes base directory")
}
