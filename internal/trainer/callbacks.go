package trainer

import (
	"log/slog"
	"math"

	"github.com/born-ml/born/optim"

	"github.com/DKoflerGIT/cnn/internal/model"
)

// Tunable is satisfied by optimizers whose learning rate can be adjusted
// mid-run (the framework's Adam and SGD both qualify).
type Tunable interface {
	optim.Optimizer
	SetLR(lr float32)
}

// AdaptiveLR reduces the learning rate when validation loss stops
// improving and optionally requests an early stop.
type AdaptiveLR struct {
	Optimizer    Tunable
	Factor       float32 // multiplier applied on plateau, in (0, 1)
	Patience     int     // epochs without improvement before reducing
	MinDelta     float32 // minimum loss decrease that counts as improvement
	MinLR        float32 // floor for the learning rate
	StopPatience int     // epochs without improvement before stopping (0 = never)
	Logger       *slog.Logger

	best      float32
	bad       int
	sinceBest int
	started   bool
}

// OnEpochEnd implements Callback. A NaN validation loss counts as no
// improvement.
func (a *AdaptiveLR) OnEpochEnd(stats EpochStats) (bool, error) {
	improved := !isNaN32(stats.ValLoss) &&
		(!a.started || stats.ValLoss < a.best-a.MinDelta)

	if improved {
		a.best = stats.ValLoss
		a.started = true
		a.bad = 0
		a.sinceBest = 0
		return false, nil
	}

	a.bad++
	a.sinceBest++

	if a.bad >= a.Patience {
		a.bad = 0
		lr := a.Optimizer.GetLR() * a.Factor
		if lr < a.MinLR {
			lr = a.MinLR
		}
		if lr < a.Optimizer.GetLR() {
			a.Optimizer.SetLR(lr)
			if a.Logger != nil {
				a.Logger.Info("reducing learning rate", "epoch", stats.Epoch, "lr", lr)
			}
		}
	}

	if a.StopPatience > 0 && a.sinceBest >= a.StopPatience {
		return true, nil
	}
	return false, nil
}

// Checkpointer saves the model whenever validation loss reaches a new
// best.
type Checkpointer struct {
	Model  model.Classifier
	Path   string
	Logger *slog.Logger

	best    float32
	started bool
}

// OnEpochEnd implements Callback. A NaN validation loss never counts as
// an improvement, not even before the first save.
func (c *Checkpointer) OnEpochEnd(stats EpochStats) (bool, error) {
	if isNaN32(stats.ValLoss) || (c.started && stats.ValLoss >= c.best) {
		return false, nil
	}
	if err := model.Save(c.Model, c.Path); err != nil {
		return false, err
	}
	c.best = stats.ValLoss
	c.started = true
	if c.Logger != nil {
		c.Logger.Info("checkpoint saved", "epoch", stats.Epoch, "val_loss", stats.ValLoss, "path", c.Path)
	}
	return false, nil
}

func isNaN32(v float32) bool {
	return math.IsNaN(float64(v))
}
