package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestCmd_RequiresFiles(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
}

func TestIngestCmd_IngestsFiles(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	first := filepath.Join(dir, "first.txt")
	second := filepath.Join(dir, "second.txt")
	require.NoError(t, os.WriteFile(first, []byte("The first file."), 0600))
	require.NoError(t, os.WriteFile(second, []byte("The second file."), 0600))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", first, second})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "first.txt: 1 chunks")
	assert.Contains(t, buf.String(), "second.txt: 1 chunks")
	assert.Contains(t, buf.String(), "Ingested 2 file(s)")

	docs, err := retrievalService.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestIngestCmd_ReportsFailures(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	unsupported := filepath.Join(dir, "image.png")
	require.NoError(t, os.WriteFile(good, []byte("Readable text."), 0600))
	require.NoError(t, os.WriteFile(unsupported, []byte{0x89, 0x50}, 0600))

	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs([]string{"ingest", good, unsupported, filepath.Join(dir, "missing.txt")})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 files failed")
	assert.Contains(t, out.String(), "good.txt: 1 chunks")
	assert.Contains(t, errOut.String(), "image.png")
	assert.Contains(t, errOut.String(), "missing.txt")

	docs, err := retrievalService.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestIngestCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	uploadService = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "a.txt"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "upload service not configured")
}
