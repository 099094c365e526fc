package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/DKoflerGIT/cnn/internal/dataset"
	"github.com/DKoflerGIT/cnn/internal/metrics"
	"github.com/DKoflerGIT/cnn/internal/model"
	"github.com/DKoflerGIT/cnn/internal/viz"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a checkpoint and render its confusion matrix",
		Args:  cobra.ExactArgs(0),
		RunE:  evalHandler,
	}
	registerConfigFlags(cmd)
	cmd.Flags().String("checkpoint", "", "Checkpoint to evaluate (default <out-dir>/<arch>.born)")
	return cmd
}

func evalHandler(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ckpt, _ := cmd.Flags().GetString("checkpoint")
	if ckpt == "" {
		ckpt = checkpointPath(cfg)
	}

	backend := model.NewBackend()
	m, err := model.New(cfg.Arch, backend)
	if err != nil {
		return err
	}
	if err := model.Load(m, ckpt, backend); err != nil {
		return err
	}
	logger.Info("checkpoint loaded", "arch", cfg.Arch, "path", ckpt)

	ds, err := loadDataset(ctx, cfg, false)
	if err != nil {
		return err
	}
	batches, err := dataset.Batches(ds, cfg.ValBatchSize, false, cfg.Seed, backend)
	if err != nil {
		return err
	}
	logger.Info("evaluating", "dataset", cfg.Dataset, "samples", ds.Len())

	cm := metrics.NewConfusion(ds.Classes)
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}
		logits := m.Forward(batch.Features)
		if err := metrics.AddBatch(cm, logits, batch.Labels); err != nil {
			return err
		}
	}

	printReport(cmd, cm)

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	heatmap := filepath.Join(cfg.OutDir, "confusion.png")
	if err := viz.Heatmap(heatmap, cm); err != nil {
		return err
	}
	logger.Info("confusion matrix rendered", "path", heatmap)
	return nil
}

// printReport writes overall accuracy and a per-class breakdown.
func printReport(cmd *cobra.Command, cm *metrics.Confusion) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "accuracy: %.4f  (%d samples)\n", cm.Accuracy(), cm.Total())
	fmt.Fprintf(out, "macro F1: %.4f\n\n", cm.MacroF1())

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"CLASS", "PRECISION", "RECALL", "F1"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	for i, name := range cm.Classes() {
		table.Append([]string{
			name,
			fmt.Sprintf("%.4f", cm.Precision(i)),
			fmt.Sprintf("%.4f", cm.Recall(i)),
			fmt.Sprintf("%.4f", cm.F1(i)),
		})
	}
	table.Render()
}
