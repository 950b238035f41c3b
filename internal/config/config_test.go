package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bankfeed.yaml")

	cfg := Default("acme-books")
	cfg.Import.OnAllDuplicates = "strict"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "acme-books", loaded.Project.Name)
	assert.Equal(t, "strict", loaded.Import.OnAllDuplicates)
	assert.True(t, loaded.Git.AutoCommit)
}

func TestDefault(t *testing.T) {
	cfg := Default("books")
	assert.Equal(t, "lenient", cfg.Import.OnAllDuplicates)
	assert.Equal(t, "Bankfeed", cfg.Git.AuthorName)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bankfeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}
