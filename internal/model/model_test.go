package model_test

import (
	"path/filepath"
	"testing"

	"github.com/born-ml/born/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DKoflerGIT/cnn/internal/model"
)

func TestRegistry(t *testing.T) {
	backend := model.NewBackend()

	tests := []struct {
		arch       string
		numClasses int
		numParams  int
	}{
		// conv1 6*1*5*5+6, conv2 16*6*5*5+16, fc 256*120+120, 120*84+84, 84*10+10
		{"lenet", 10, 44426},
		// 784*128+128, 128*64+64, 64*10+10
		{"mlp", 10, 109386},
		// 4*16+16, 16*3+3
		{"iris-mlp", 3, 131},
	}

	for _, tt := range tests {
		t.Run(tt.arch, func(t *testing.T) {
			m, err := model.New(tt.arch, backend)
			require.NoError(t, err)

			assert.Equal(t, tt.arch, m.Name())
			assert.Equal(t, tt.numClasses, m.NumClasses())
			assert.Equal(t, tt.numParams, model.NumParameters(m))
		})
	}
}

func TestRegistryUnknown(t *testing.T) {
	_, err := model.New("resnet", model.NewBackend())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown architecture")
}

func TestForwardShapes(t *testing.T) {
	backend := model.NewBackend()

	tests := []struct {
		arch  string
		input tensor.Shape
		want  tensor.Shape
	}{
		{"lenet", tensor.Shape{4, 784}, tensor.Shape{4, 10}},
		{"lenet", tensor.Shape{2, 1, 28, 28}, tensor.Shape{2, 10}},
		{"mlp", tensor.Shape{4, 784}, tensor.Shape{4, 10}},
		{"iris-mlp", tensor.Shape{8, 4}, tensor.Shape{8, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.arch, func(t *testing.T) {
			m, err := model.New(tt.arch, backend)
			require.NoError(t, err)

			input := tensor.Randn[float32](tt.input, backend)
			logits := m.Forward(input)
			assert.True(t, logits.Shape().Equal(tt.want),
				"got %v, want %v", logits.Shape(), tt.want)
		})
	}
}

func TestStateDictRoundTrip(t *testing.T) {
	backend := model.NewBackend()

	m, err := model.New("iris-mlp", backend)
	require.NoError(t, err)

	dict := m.StateDict()
	assert.Len(t, dict, 4) // fc1/fc2 weight+bias

	// Loading a fresh model from the dict reproduces the parameters.
	fresh, err := model.New("iris-mlp", backend)
	require.NoError(t, err)
	require.NoError(t, fresh.LoadStateDict(dict))

	want := m.Parameters()
	got := fresh.Parameters()
	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.Equal(t, want[i].Tensor().Data(), got[i].Tensor().Data(), "parameter %d", i)
	}
}

func TestLoadStateDictMissingKey(t *testing.T) {
	backend := model.NewBackend()

	m, err := model.New("iris-mlp", backend)
	require.NoError(t, err)

	dict := m.StateDict()
	delete(dict, "fc2.bias")
	err = m.LoadStateDict(dict)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fc2.bias")
}

func TestSaveLoadCheckpoint(t *testing.T) {
	backend := model.NewBackend()
	path := filepath.Join(t.TempDir(), "iris.born")

	m, err := model.New("iris-mlp", backend)
	require.NoError(t, err)
	require.NoError(t, model.Save(m, path))

	fresh, err := model.New("iris-mlp", backend)
	require.NoError(t, err)
	require.NoError(t, model.Load(fresh, path, backend))

	assert.Equal(t, m.Parameters()[0].Tensor().Data(), fresh.Parameters()[0].Tensor().Data())
}

func TestFirstConvWeights(t *testing.T) {
	backend := model.NewBackend()
	m := model.NewLeNet(backend)

	w := m.FirstConvWeights()
	assert.True(t, w.Shape().Equal(tensor.Shape{6, 1, 5, 5}))
}
