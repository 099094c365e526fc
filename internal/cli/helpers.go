package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/born-ml/born/optim"
	"github.com/spf13/cobra"

	"github.com/DKoflerGIT/cnn/internal/config"
	"github.com/DKoflerGIT/cnn/internal/dataset"
	"github.com/DKoflerGIT/cnn/internal/model"
	"github.com/DKoflerGIT/cnn/internal/trainer"
)

// registerConfigFlags adds the flags shared by train and eval. Flag
// values override whatever the YAML config says.
func registerConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "Path to a YAML experiment config")
	cmd.Flags().String("dataset", "", "Dataset to use (mnist, iris)")
	cmd.Flags().String("arch", "", "Model architecture (lenet, mlp, iris-mlp)")
	cmd.Flags().String("data-dir", "", "Directory for downloaded datasets")
	cmd.Flags().String("out-dir", "", "Directory for checkpoints and plots")
	cmd.Flags().Int("epochs", 0, "Number of training epochs")
	cmd.Flags().Int("batch-size", 0, "Training batch size")
	cmd.Flags().Float64("lr", 0, "Initial learning rate")
	cmd.Flags().Int64("seed", 0, "Random seed for splits and shuffling")
	cmd.Flags().Int("max-samples", 0, "Cap on training samples (0 = all)")
}

// resolveConfig loads the YAML config named by --config (or defaults)
// and applies flag overrides.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	var o config.Overrides
	o.Dataset, _ = cmd.Flags().GetString("dataset")
	o.Arch, _ = cmd.Flags().GetString("arch")
	o.DataDir, _ = cmd.Flags().GetString("data-dir")
	o.OutDir, _ = cmd.Flags().GetString("out-dir")
	o.Epochs, _ = cmd.Flags().GetInt("epochs")
	o.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	o.LR, _ = cmd.Flags().GetFloat64("lr")
	o.Seed, _ = cmd.Flags().GetInt64("seed")
	o.MaxSamples, _ = cmd.Flags().GetInt("max-samples")
	cfg.ApplyOverrides(o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDataset fetches the configured dataset split. For MNIST, train
// selects between the 60k training set and the 10k test set. Iris has
// no held-out set upstream, so eval uses the validation side of the
// seeded split.
func loadDataset(ctx context.Context, cfg *config.Config, train bool) (*dataset.Dataset, error) {
	switch cfg.Dataset {
	case "mnist":
		return dataset.LoadMNIST(ctx, cfg.DataDir, cfg.MNISTURL, train, cfg.MaxSamples)
	case "iris":
		ds, err := dataset.LoadIris(ctx, filepath.Join(cfg.DataDir, "iris.data"))
		if err != nil {
			return nil, err
		}
		if train {
			return ds, nil
		}
		_, val, err := ds.Split(cfg.ValSplit, cfg.Seed)
		if err != nil {
			return nil, err
		}
		return val, nil
	default:
		return nil, fmt.Errorf("unknown dataset %q", cfg.Dataset)
	}
}

// newOptimizer builds the configured optimizer over the model's
// parameters.
func newOptimizer(cfg *config.Config, m model.Classifier, backend model.Backend) (trainer.Tunable, error) {
	switch cfg.Optimizer {
	case "adam":
		return optim.NewAdam(m.Parameters(), optim.AdamConfig{LR: float32(cfg.LR)}, backend), nil
	case "sgd":
		return optim.NewSGD(m.Parameters(), optim.SGDConfig{
			LR:       float32(cfg.LR),
			Momentum: float32(cfg.Momentum),
		}, backend), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", cfg.Optimizer)
	}
}

// checkpointPath is where train saves and eval/filters load by default.
func checkpointPath(cfg *config.Config) string {
	return filepath.Join(cfg.OutDir, cfg.Arch+".born")
}
