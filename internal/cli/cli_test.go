package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := NewCLI()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "cnn version")
}

func TestResolveConfigDefaults(t *testing.T) {
	cmd := &cobra.Command{}
	registerConfigFlags(cmd)

	cfg, err := resolveConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "mnist", cfg.Dataset)
	assert.Equal(t, "lenet", cfg.Arch)
}

func TestResolveConfigFlagOverrides(t *testing.T) {
	cmd := &cobra.Command{}
	registerConfigFlags(cmd)
	require.NoError(t, cmd.Flags().Set("dataset", "iris"))
	require.NoError(t, cmd.Flags().Set("arch", "iris-mlp"))
	require.NoError(t, cmd.Flags().Set("epochs", "3"))

	cfg, err := resolveConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "iris", cfg.Dataset)
	assert.Equal(t, "iris-mlp", cfg.Arch)
	assert.Equal(t, 3, cfg.Epochs)
}

func TestResolveConfigRejectsUnknownArch(t *testing.T) {
	cmd := &cobra.Command{}
	registerConfigFlags(cmd)
	require.NoError(t, cmd.Flags().Set("arch", "resnet"))

	_, err := resolveConfig(cmd)
	assert.Error(t, err)
}

func TestCheckpointPath(t *testing.T) {
	cmd := &cobra.Command{}
	registerConfigFlags(cmd)
	require.NoError(t, cmd.Flags().Set("out-dir", "run1"))

	cfg, err := resolveConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("run1", "lenet.born"), checkpointPath(cfg))
}
