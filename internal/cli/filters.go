package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/born-ml/born/tensor"
	"github.com/spf13/cobra"

	"github.com/DKoflerGIT/cnn/internal/model"
	"github.com/DKoflerGIT/cnn/internal/viz"
)

// convModel is satisfied by architectures whose first layer is a
// convolution.
type convModel interface {
	FirstConvWeights() *tensor.Tensor[float32, model.Backend]
}

func newFiltersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Render the learned first-layer convolution filters",
		Args:  cobra.ExactArgs(0),
		RunE:  filtersHandler,
	}
	registerConfigFlags(cmd)
	cmd.Flags().String("checkpoint", "", "Checkpoint to inspect (default <out-dir>/<arch>.born)")
	cmd.Flags().Int("scale", 16, "Upscale factor for the filter grid")
	return cmd
}

func filtersHandler(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ckpt, _ := cmd.Flags().GetString("checkpoint")
	if ckpt == "" {
		ckpt = checkpointPath(cfg)
	}
	scale, _ := cmd.Flags().GetInt("scale")

	backend := model.NewBackend()
	m, err := model.New(cfg.Arch, backend)
	if err != nil {
		return err
	}

	conv, ok := m.(convModel)
	if !ok {
		return fmt.Errorf("architecture %q has no convolution filters to render", cfg.Arch)
	}

	if err := model.Load(m, ckpt, backend); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(cfg.OutDir, "filters.png")
	if err := viz.FilterGrid(path, conv.FirstConvWeights(), scale); err != nil {
		return err
	}
	logger.Info("filters rendered", "checkpoint", ckpt, "path", path)
	return nil
}
