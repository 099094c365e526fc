package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/DKoflerGIT/cnn/internal/dataset"
	"github.com/DKoflerGIT/cnn/internal/model"
	"github.com/DKoflerGIT/cnn/internal/trainer"
	"github.com/DKoflerGIT/cnn/internal/viz"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a classifier and plot its learning curves",
		Args:  cobra.ExactArgs(0),
		RunE:  trainHandler,
	}
	registerConfigFlags(cmd)
	return cmd
}

func trainHandler(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	logger.Info("loading dataset", "dataset", cfg.Dataset, "data_dir", cfg.DataDir)
	ds, err := loadDataset(ctx, cfg, true)
	if err != nil {
		return err
	}

	train, val, err := ds.Split(cfg.ValSplit, cfg.Seed)
	if err != nil {
		return err
	}
	logger.Info("dataset ready",
		"train_samples", train.Len(),
		"val_samples", val.Len(),
		"classes", ds.NumClasses(),
	)

	backend := model.NewBackend()
	m, err := model.New(cfg.Arch, backend)
	if err != nil {
		return err
	}
	if m.NumClasses() != ds.NumClasses() {
		return fmt.Errorf("model %q expects %d classes, dataset %q has %d",
			cfg.Arch, m.NumClasses(), cfg.Dataset, ds.NumClasses())
	}
	logger.Info("model ready", "arch", cfg.Arch, "parameters", model.NumParameters(m))

	trainBatches, err := dataset.Batches(train, cfg.BatchSize, true, cfg.Seed, backend)
	if err != nil {
		return err
	}
	valBatches, err := dataset.Batches(val, cfg.ValBatchSize, false, cfg.Seed, backend)
	if err != nil {
		return err
	}

	opt, err := newOptimizer(cfg, m, backend)
	if err != nil {
		return err
	}

	callbacks := []trainer.Callback{
		&trainer.AdaptiveLR{
			Optimizer:    opt,
			Factor:       float32(cfg.Scheduler.Factor),
			Patience:     cfg.Scheduler.Patience,
			MinLR:        float32(cfg.Scheduler.MinLR),
			StopPatience: cfg.Scheduler.StopPatience,
			Logger:       logger,
		},
	}
	if cfg.Checkpoint {
		callbacks = append(callbacks, &trainer.Checkpointer{
			Model:  m,
			Path:   checkpointPath(cfg),
			Logger: logger,
		})
	}

	t, err := trainer.New(m, opt, backend, trainer.Config{
		Epochs:   cfg.Epochs,
		LogEvery: cfg.LogEvery,
		Logger:   logger,
	}, callbacks...)
	if err != nil {
		return err
	}

	history, err := t.Fit(ctx, trainBatches, valBatches)
	if err != nil {
		return err
	}

	if !cfg.Checkpoint {
		if err := model.Save(m, checkpointPath(cfg)); err != nil {
			return err
		}
	}

	if err := writeCurves(cfg.OutDir, history); err != nil {
		return err
	}
	logger.Info("training complete",
		"epochs", history.Len(),
		"checkpoint", checkpointPath(cfg),
		"plots", cfg.OutDir,
	)
	return nil
}

// writeCurves renders loss, accuracy and learning-rate traces.
func writeCurves(dir string, h *trainer.History) error {
	if err := viz.Curves(filepath.Join(dir, "loss.png"), "Loss", "loss",
		viz.Series{Name: "train", Values: h.TrainLoss},
		viz.Series{Name: "val", Values: h.ValLoss},
	); err != nil {
		return err
	}
	if err := viz.Curves(filepath.Join(dir, "accuracy.png"), "Accuracy", "accuracy",
		viz.Series{Name: "train", Values: h.TrainAcc},
		viz.Series{Name: "val", Values: h.ValAcc},
	); err != nil {
		return err
	}
	return viz.Curves(filepath.Join(dir, "lr.png"), "Learning rate", "lr",
		viz.Series{Name: "lr", Values: h.LR},
	)
}
