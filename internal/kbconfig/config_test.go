package kbconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"graphkb-api/internal/kbconfig"
)

func TestDefault(t *testing.T) {
	require := require.New(t)

	cfg := kbconfig.Default()
	require.Equal(1000, cfg.Limits.MaxLimit)
	require.Equal(4, cfg.Limits.MaxNeighbors)
	require.Equal(50, cfg.Limits.MaxTreeDepth)
	require.Equal(4, cfg.Limits.MaxNeighborhoodDepth)
	require.Equal(32, cfg.Limits.MaxRecursionDepth)
	require.Contains(cfg.SimilarityEdges, "AliasOf")
	require.Contains(cfg.TreeEdges, "SubClassOf")
}

func TestLoadPartialOverride(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(os.WriteFile(path, []byte("limits:\n  maxLimit: 500\n"), 0o644))

	cfg, err := kbconfig.Load(path)
	require.NoError(err)
	require.Equal(500, cfg.Limits.MaxLimit)
	require.Equal(4, cfg.Limits.MaxNeighbors) // unset field keeps default
}

func TestLoadMissingFile(t *testing.T) {
	require := require.New(t)

	_, err := kbconfig.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(err)
}
