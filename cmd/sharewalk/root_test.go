package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/sharewalk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "sharewalk version "+sharewalk.Version+"\n", out)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("budget: 0s\n"), 0o644))

	_, err := execute(t, "status", "--config", filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "missing.yaml")

	_, err = execute(t, "status", "--config", bad)
	assert.ErrorContains(t, err, "Budget")
}

func TestStatus_RequiresCredentials(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "sharewalk.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("checkpoint:\n  path: "+filepath.Join(dir, "cp")+"\noutput:\n  path: "+filepath.Join(dir, "out.db")+"\n"), 0o644))

	_, err := execute(t, "status", "--config", cfg)
	assert.ErrorContains(t, err, "credentials_file")
}
