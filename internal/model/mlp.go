package model

import (
	"fmt"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// MLP is a fully connected baseline for MNIST: 784 → 128 → 64 → 10 with
// ReLU activations. It trains faster than the CNN at the cost of a few
// points of accuracy.
type MLP struct {
	fc1   *nn.Linear[Backend]
	relu1 *nn.ReLU[Backend]
	fc2   *nn.Linear[Backend]
	relu2 *nn.ReLU[Backend]
	fc3   *nn.Linear[Backend]
}

// NewMLP builds the MNIST MLP.
func NewMLP(backend Backend) *MLP {
	return &MLP{
		fc1:   nn.NewLinear[Backend](28*28, 128, backend),
		relu1: nn.NewReLU[Backend](),
		fc2:   nn.NewLinear[Backend](128, 64, backend),
		relu2: nn.NewReLU[Backend](),
		fc3:   nn.NewLinear[Backend](64, 10, backend),
	}
}

// Forward maps [batch, 784] inputs to class logits. Higher-rank inputs
// are flattened per sample first.
func (m *MLP) Forward(input *tensor.Tensor[float32, Backend]) *tensor.Tensor[float32, Backend] {
	if shape := input.Shape(); len(shape) > 2 {
		input = input.Reshape(shape[0], shape.NumElements()/shape[0])
	}
	x := m.fc1.Forward(input)
	x = m.relu1.Forward(x)
	x = m.fc2.Forward(x)
	x = m.relu2.Forward(x)
	return m.fc3.Forward(x)
}

// Parameters returns all trainable parameters.
func (m *MLP) Parameters() []*nn.Parameter[Backend] {
	params := make([]*nn.Parameter[Backend], 0, 6)
	params = append(params, m.fc1.Parameters()...)
	params = append(params, m.fc2.Parameters()...)
	params = append(params, m.fc3.Parameters()...)
	return params
}

// StateDict exports parameters for checkpointing.
func (m *MLP) StateDict() map[string]*tensor.RawTensor {
	return stateDictOf(m.namedParams())
}

// LoadStateDict restores parameters from a checkpoint.
func (m *MLP) LoadStateDict(dict map[string]*tensor.RawTensor) error {
	return loadStateDictInto(m.namedParams(), dict)
}

func (m *MLP) namedParams() []namedParam {
	var named []namedParam
	named = append(named, layerParams("fc1", m.fc1.Parameters())...)
	named = append(named, layerParams("fc2", m.fc2.Parameters())...)
	named = append(named, layerParams("fc3", m.fc3.Parameters())...)
	return named
}

// Name implements Classifier.
func (m *MLP) Name() string { return "mlp" }

// NumClasses implements Classifier.
func (m *MLP) NumClasses() int { return 10 }

func (m *MLP) String() string {
	return "MLP(\n  Linear(in=784, out=128)\n  ReLU()\n  Linear(in=128, out=64)\n  ReLU()\n  Linear(in=64, out=10)\n)"
}

// IrisNet is a small dense network for the Iris dataset: 4 → 16 → 3 with
// a Tanh hidden activation.
type IrisNet struct {
	fc1  *nn.Linear[Backend]
	tanh *nn.Tanh[Backend]
	fc2  *nn.Linear[Backend]
}

// NewIrisNet builds the Iris classifier.
func NewIrisNet(backend Backend) *IrisNet {
	return &IrisNet{
		fc1:  nn.NewLinear[Backend](4, 16, backend),
		tanh: nn.NewTanh[Backend](),
		fc2:  nn.NewLinear[Backend](16, 3, backend),
	}
}

// Forward maps [batch, 4] feature rows to class logits.
func (m *IrisNet) Forward(input *tensor.Tensor[float32, Backend]) *tensor.Tensor[float32, Backend] {
	if shape := input.Shape(); len(shape) != 2 {
		panic(fmt.Sprintf("irisnet: expected 2D [batch, 4] input, got %dD", len(shape)))
	}
	x := m.fc1.Forward(input)
	x = m.tanh.Forward(x)
	return m.fc2.Forward(x)
}

// Parameters returns all trainable parameters.
func (m *IrisNet) Parameters() []*nn.Parameter[Backend] {
	params := make([]*nn.Parameter[Backend], 0, 4)
	params = append(params, m.fc1.Parameters()...)
	params = append(params, m.fc2.Parameters()...)
	return params
}

// StateDict exports parameters for checkpointing.
func (m *IrisNet) StateDict() map[string]*tensor.RawTensor {
	return stateDictOf(m.namedParams())
}

// LoadStateDict restores parameters from a checkpoint.
func (m *IrisNet) LoadStateDict(dict map[string]*tensor.RawTensor) error {
	return loadStateDictInto(m.namedParams(), dict)
}

func (m *IrisNet) namedParams() []namedParam {
	var named []namedParam
	named = append(named, layerParams("fc1", m.fc1.Parameters())...)
	named = append(named, layerParams("fc2", m.fc2.Parameters())...)
	return named
}

// Name implements Classifier.
func (m *IrisNet) Name() string { return "iris-mlp" }

// NumClasses implements Classifier.
func (m *IrisNet) NumClasses() int { return 3 }

func (m *IrisNet) String() string {
	return "IrisNet(\n  Linear(in=4, out=16)\n  Tanh()\n  Linear(in=16, out=3)\n)"
}
