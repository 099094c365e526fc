// Package model declares the network architectures used by the experiments.
//
// Nothing numerical lives here: layers, initialization, forward passes and
// checkpoint serialization all come from the framework. The package owns
// only the architecture declarations and a registry keyed by name.
package model

import (
	"fmt"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// Classifier is the behavior the training harness needs from a model.
// The first four methods are the framework's module contract, so any
// Classifier can be handed to the framework's checkpoint Save/Load.
type Classifier interface {
	// Forward maps a batch of inputs to class logits.
	Forward(input *tensor.Tensor[float32, Backend]) *tensor.Tensor[float32, Backend]

	// Parameters returns all trainable parameters.
	Parameters() []*nn.Parameter[Backend]

	// StateDict exports parameters for checkpointing.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores parameters from a checkpoint.
	LoadStateDict(dict map[string]*tensor.RawTensor) error

	// Name identifies the architecture (registry key, checkpoint metadata).
	Name() string

	// NumClasses returns the size of the output layer.
	NumClasses() int
}

// New builds the named architecture on the given backend.
func New(arch string, backend Backend) (Classifier, error) {
	switch arch {
	case "lenet":
		return NewLeNet(backend), nil
	case "mlp":
		return NewMLP(backend), nil
	case "iris-mlp":
		return NewIrisNet(backend), nil
	default:
		return nil, fmt.Errorf("unknown architecture %q", arch)
	}
}

// NumParameters counts the trainable scalars of a model.
func NumParameters(m Classifier) int {
	total := 0
	for _, param := range m.Parameters() {
		count := 1
		for _, dim := range param.Tensor().Shape() {
			count *= dim
		}
		total += count
	}
	return total
}

// Save writes the model's parameters to a checkpoint file.
func Save(m Classifier, path string) error {
	if err := nn.Save[Backend](m, path, m.Name(), nil); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", path, err)
	}
	return nil
}

// Load restores a model's parameters from a checkpoint file. The model
// must have been built with the same architecture the checkpoint was
// saved from.
func Load(m Classifier, path string, backend Backend) error {
	header, err := nn.Load[Backend](path, backend, m)
	if err != nil {
		return fmt.Errorf("load checkpoint %s: %w", path, err)
	}
	if header.ModelType != "" && header.ModelType != m.Name() {
		return fmt.Errorf("checkpoint %s holds a %q model, want %q", path, header.ModelType, m.Name())
	}
	return nil
}
