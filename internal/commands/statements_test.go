package commands

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatements(t *testing.T) {
	dir := setupRepo(t, "lenient")
	stageFile(t, dir, "jan.csv")
	require.NoError(t, runImport(dir, 1, "", zerolog.Nop(), &bytes.Buffer{}))

	var out bytes.Buffer
	require.NoError(t, runStatements(dir, &out))

	assert.Contains(t, out.String(), "2025-01")
	assert.Contains(t, out.String(), "2025-02")
	assert.Contains(t, out.String(), "5948.19")
	assert.Contains(t, out.String(), "5891.89")
}

func TestRunStatements_EmptyRepo(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	require.NoError(t, runStatements(dir, &out))
	assert.Contains(t, out.String(), "NAME")
}
