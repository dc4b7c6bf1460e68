package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/apreboot/internal/config"
)

func TestEnsureGitignore_CreatesNestedDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "runs", "checkpoints")

	created, err := config.EnsureGitignore(dir)
	require.NoError(t, err)
	assert.True(t, created)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, config.GitignoreContent(), string(data))
	assert.Contains(t, string(data), ".checkpoint_*.json")
}

func TestEnsureGitignore_DoesNotOverwriteExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".gitignore")
	custom := "# mine\n*.csv\n"
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o644))

	created, err := config.EnsureGitignore(dir)
	require.NoError(t, err)
	assert.False(t, created)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}
