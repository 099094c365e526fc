// Package trainer drives training epochs over batched data.
//
// The trainer owns no numerical code: forward passes, loss, gradients and
// parameter updates all happen inside the framework. What lives here is
// the epoch loop, metric bookkeeping, and the callback hooks the
// experiments configure (history, adaptive learning rate, checkpoints).
package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/optim"
	"github.com/born-ml/born/tensor"

	"github.com/DKoflerGIT/cnn/internal/dataset"
	"github.com/DKoflerGIT/cnn/internal/metrics"
	"github.com/DKoflerGIT/cnn/internal/model"
)

// EpochStats summarizes one completed epoch.
type EpochStats struct {
	Epoch     int // 1-based
	TrainLoss float32
	TrainAcc  float32
	ValLoss   float32
	ValAcc    float32
	LR        float32
}

// History collects per-epoch traces for plotting.
type History struct {
	TrainLoss []float32
	TrainAcc  []float32
	ValLoss   []float32
	ValAcc    []float32
	LR        []float32
}

// Len returns the number of recorded epochs.
func (h *History) Len() int { return len(h.TrainLoss) }

func (h *History) record(s EpochStats) {
	h.TrainLoss = append(h.TrainLoss, s.TrainLoss)
	h.TrainAcc = append(h.TrainAcc, s.TrainAcc)
	h.ValLoss = append(h.ValLoss, s.ValLoss)
	h.ValAcc = append(h.ValAcc, s.ValAcc)
	h.LR = append(h.LR, s.LR)
}

// Callback is invoked after every epoch. Returning stop ends the run
// early; an error aborts it.
type Callback interface {
	OnEpochEnd(stats EpochStats) (stop bool, err error)
}

// Config captures the knobs of a training run.
type Config struct {
	Epochs   int
	LogEvery int
	Logger   *slog.Logger
}

// Trainer runs epochs of training and validation.
type Trainer struct {
	model     model.Classifier
	optimizer optim.Optimizer
	backend   model.Backend
	cfg       Config
	callbacks []Callback
	logger    *slog.Logger
}

// New builds a trainer. Callbacks run in the given order after each epoch.
func New(m model.Classifier, opt optim.Optimizer, backend model.Backend, cfg Config, callbacks ...Callback) (*Trainer, error) {
	if cfg.Epochs <= 0 {
		return nil, fmt.Errorf("trainer: epochs must be > 0 (got %d)", cfg.Epochs)
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{
		model:     m,
		optimizer: opt,
		backend:   backend,
		cfg:       cfg,
		callbacks: callbacks,
		logger:    logger,
	}, nil
}

// Fit trains on train and evaluates on val after every epoch, firing
// callbacks until the epoch budget is spent or a callback requests an
// early stop.
func (t *Trainer) Fit(ctx context.Context, train, val []*dataset.Batch[model.Backend]) (*History, error) {
	if len(train) == 0 {
		return nil, errors.New("trainer: no training batches")
	}
	if len(val) == 0 {
		return nil, errors.New("trainer: no validation batches")
	}

	tape := t.backend.Tape()
	tape.StartRecording()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	history := &History{}
	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		trainLoss, trainAcc, err := t.trainEpoch(ctx, train)
		if err != nil {
			return history, err
		}
		valLoss, valAcc, err := t.Evaluate(ctx, val)
		if err != nil {
			return history, err
		}

		stats := EpochStats{
			Epoch:     epoch,
			TrainLoss: trainLoss,
			TrainAcc:  trainAcc,
			ValLoss:   valLoss,
			ValAcc:    valAcc,
			LR:        t.optimizer.GetLR(),
		}
		history.record(stats)

		if epoch%t.cfg.LogEvery == 0 || epoch == t.cfg.Epochs {
			t.logger.Info("epoch complete",
				"epoch", epoch,
				"epochs", t.cfg.Epochs,
				"train_loss", stats.TrainLoss,
				"train_acc", stats.TrainAcc,
				"val_loss", stats.ValLoss,
				"val_acc", stats.ValAcc,
				"lr", stats.LR,
			)
		}

		for _, cb := range t.callbacks {
			stop, err := cb.OnEpochEnd(stats)
			if err != nil {
				return history, fmt.Errorf("callback after epoch %d: %w", epoch, err)
			}
			if stop {
				t.logger.Info("early stop requested", "epoch", epoch)
				return history, nil
			}
		}
	}
	return history, nil
}

// trainEpoch runs one pass over the training batches with gradient
// recording on.
func (t *Trainer) trainEpoch(ctx context.Context, batches []*dataset.Batch[model.Backend]) (loss, accuracy float32, err error) {
	var meter metrics.Meter
	tape := t.backend.Tape()

	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}

		t.optimizer.ZeroGrad()

		logits := t.model.Forward(batch.Features)
		lossRaw := t.backend.CrossEntropy(logits.Raw(), batch.Labels.Raw())
		lossValue := lossRaw.AsFloat32()[0]

		// Seed backprop with d(loss)/d(loss) = 1 for the scalar loss.
		outputGrad, err := tensor.NewRaw(lossRaw.Shape(), lossRaw.DType(), t.backend.Device())
		if err != nil {
			return 0, 0, fmt.Errorf("allocate output gradient: %w", err)
		}
		outputGrad.AsFloat32()[0] = 1.0

		grads := tape.Backward(outputGrad, t.backend)
		t.optimizer.Step(grads)

		meter.Record(batch.Size, lossValue, nn.Accuracy(logits, batch.Labels))
		tape.Clear()
	}

	return meter.Loss(), meter.Accuracy(), nil
}

// Evaluate computes loss and accuracy over batches with gradient
// recording off.
func (t *Trainer) Evaluate(ctx context.Context, batches []*dataset.Batch[model.Backend]) (loss, accuracy float32, err error) {
	tape := t.backend.Tape()
	wasRecording := tape.IsRecording()
	tape.StopRecording()
	defer func() {
		if wasRecording {
			tape.StartRecording()
		}
	}()

	var meter metrics.Meter
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}

		logits := t.model.Forward(batch.Features)
		lossRaw := t.backend.CrossEntropy(logits.Raw(), batch.Labels.Raw())
		meter.Record(batch.Size, lossRaw.AsFloat32()[0], nn.Accuracy(logits, batch.Labels))
	}

	return meter.Loss(), meter.Accuracy(), nil
}
