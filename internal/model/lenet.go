package model

import (
	"fmt"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// LeNet is a LeNet-5 style convolutional network for MNIST.
//
// Architecture:
//
//	Input: [batch, 1, 28, 28]
//	Conv: 1 → 6 channels, 5x5 kernel -> [batch, 6, 24, 24]
//	ReLU
//	MaxPool: 2x2 -> [batch, 6, 12, 12]
//	Conv: 6 → 16 channels, 5x5 kernel -> [batch, 16, 8, 8]
//	ReLU
//	MaxPool: 2x2 -> [batch, 16, 4, 4]
//	Flatten -> [batch, 256]
//	Linear: 256 → 120
//	ReLU
//	Linear: 120 → 84
//	ReLU
//	Linear: 84 → 10 (class scores)
type LeNet struct {
	conv1 *nn.Conv2D[Backend]
	relu1 *nn.ReLU[Backend]
	pool1 *nn.MaxPool2D[Backend]
	conv2 *nn.Conv2D[Backend]
	relu2 *nn.ReLU[Backend]
	pool2 *nn.MaxPool2D[Backend]
	fc1   *nn.Linear[Backend]
	relu3 *nn.ReLU[Backend]
	fc2   *nn.Linear[Backend]
	relu4 *nn.ReLU[Backend]
	fc3   *nn.Linear[Backend]
}

const lenetFlat = 16 * 4 * 4

// NewLeNet builds the CNN with Xavier-initialized layers.
func NewLeNet(backend Backend) *LeNet {
	return &LeNet{
		conv1: nn.NewConv2D(1, 6, 5, 5, 1, 0, true, backend),
		relu1: nn.NewReLU[Backend](),
		pool1: nn.NewMaxPool2D(2, 2, backend),
		conv2: nn.NewConv2D(6, 16, 5, 5, 1, 0, true, backend),
		relu2: nn.NewReLU[Backend](),
		pool2: nn.NewMaxPool2D(2, 2, backend),
		fc1:   nn.NewLinear[Backend](lenetFlat, 120, backend),
		relu3: nn.NewReLU[Backend](),
		fc2:   nn.NewLinear[Backend](120, 84, backend),
		relu4: nn.NewReLU[Backend](),
		fc3:   nn.NewLinear[Backend](84, 10, backend),
	}
}

// Forward maps a batch of images to class logits. A 2-D [batch, 784]
// input is reshaped to NCHW first, so flat dataset batches feed directly.
func (m *LeNet) Forward(input *tensor.Tensor[float32, Backend]) *tensor.Tensor[float32, Backend] {
	shape := input.Shape()
	switch len(shape) {
	case 2:
		input = input.Reshape(shape[0], 1, 28, 28)
	case 4:
		// already NCHW
	default:
		panic(fmt.Sprintf("lenet: expected 2D [batch, 784] or 4D [batch, 1, 28, 28] input, got %dD", len(shape)))
	}

	x := m.conv1.Forward(input)
	x = m.relu1.Forward(x)
	x = m.pool1.Forward(x)

	x = m.conv2.Forward(x)
	x = m.relu2.Forward(x)
	x = m.pool2.Forward(x)

	x = x.Reshape(x.Shape()[0], lenetFlat)

	x = m.fc1.Forward(x)
	x = m.relu3.Forward(x)
	x = m.fc2.Forward(x)
	x = m.relu4.Forward(x)
	return m.fc3.Forward(x)
}

// Parameters returns all trainable parameters.
func (m *LeNet) Parameters() []*nn.Parameter[Backend] {
	params := make([]*nn.Parameter[Backend], 0, 10)
	params = append(params, m.conv1.Parameters()...)
	params = append(params, m.conv2.Parameters()...)
	params = append(params, m.fc1.Parameters()...)
	params = append(params, m.fc2.Parameters()...)
	params = append(params, m.fc3.Parameters()...)
	return params
}

// StateDict exports parameters for checkpointing.
func (m *LeNet) StateDict() map[string]*tensor.RawTensor {
	return stateDictOf(m.namedParams())
}

// LoadStateDict restores parameters from a checkpoint.
func (m *LeNet) LoadStateDict(dict map[string]*tensor.RawTensor) error {
	return loadStateDictInto(m.namedParams(), dict)
}

func (m *LeNet) namedParams() []namedParam {
	var named []namedParam
	named = append(named, layerParams("conv1", m.conv1.Parameters())...)
	named = append(named, layerParams("conv2", m.conv2.Parameters())...)
	named = append(named, layerParams("fc1", m.fc1.Parameters())...)
	named = append(named, layerParams("fc2", m.fc2.Parameters())...)
	named = append(named, layerParams("fc3", m.fc3.Parameters())...)
	return named
}

// Name implements Classifier.
func (m *LeNet) Name() string { return "lenet" }

// NumClasses implements Classifier.
func (m *LeNet) NumClasses() int { return 10 }

// FirstConvWeights exposes the first convolution's kernel tensor
// ([out, in, kh, kw]) for filter visualization.
func (m *LeNet) FirstConvWeights() *tensor.Tensor[float32, Backend] {
	return m.conv1.Parameters()[0].Tensor()
}

func (m *LeNet) String() string {
	return fmt.Sprintf("LeNet(\n  %s\n  ReLU()\n  %s\n  %s\n  ReLU()\n  %s\n  Linear(in=%d, out=120)\n  ReLU()\n  Linear(in=120, out=84)\n  ReLU()\n  Linear(in=84, out=10)\n)",
		m.conv1.String(), m.pool1.String(), m.conv2.String(), m.pool2.String(), lenetFlat)
}
