package coach

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadInstructions(t *testing.T) {
	t.Run("bundled", func(t *testing.T) {
		text, err := LoadInstructions("")
		require.NoError(t, err)
		assert.Contains(t, text, "calisthenics")
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompt.md")
		require.NoError(t, os.WriteFile(path, []byte("Coach gently."), 0o600))

		text, err := LoadInstructions(path)
		require.NoError(t, err)
		assert.Equal(t, "Coach gently.", text)
	})

	t.Run("missing file falls back", func(t *testing.T) {
		text, err := LoadInstructions(filepath.Join(t.TempDir(), "nope.md"))
		assert.Error(t, err)
		assert.Equal(t, FallbackInstructions, text)
	})

	t.Run("blank file falls back", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "blank.md")
		require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

		text, err := LoadInstructions(path)
		assert.Error(t, err)
		assert.Equal(t, FallbackInstructions, text)
	})
}
