package viz_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DKoflerGIT/cnn/internal/metrics"
	"github.com/DKoflerGIT/cnn/internal/viz"
)

func TestCurves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loss.png")
	err := viz.Curves(path, "Loss", "loss",
		viz.Series{Name: "train", Values: []float32{2.3, 1.1, 0.6}},
		viz.Series{Name: "val", Values: []float32{2.4, 1.3, 0.8}},
	)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestCurvesNoSeries(t *testing.T) {
	err := viz.Curves(filepath.Join(t.TempDir(), "empty.png"), "Loss", "loss")
	assert.Error(t, err)
}

func TestHeatmap(t *testing.T) {
	cm := metrics.NewConfusion([]string{"cat", "dog"})
	require.NoError(t, cm.Add(0, 0))
	require.NoError(t, cm.Add(0, 1))
	require.NoError(t, cm.Add(1, 1))

	path := filepath.Join(t.TempDir(), "confusion.png")
	require.NoError(t, viz.Heatmap(path, cm))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestHeatmapEmpty(t *testing.T) {
	cm := metrics.NewConfusion([]string{"cat", "dog"})
	err := viz.Heatmap(filepath.Join(t.TempDir(), "confusion.png"), cm)
	assert.Error(t, err)
}

func TestFilterGrid(t *testing.T) {
	backend := cpu.New()
	data := make([]float32, 2*1*3*3)
	for i := range data {
		data[i] = float32(i)
	}
	weights, err := tensor.FromSlice(data, tensor.Shape{2, 1, 3, 3}, backend)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "filters.png")
	require.NoError(t, viz.FilterGrid(path, weights, 8))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestFilterGridBadShape(t *testing.T) {
	backend := cpu.New()
	weights, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	err = viz.FilterGrid(filepath.Join(t.TempDir(), "filters.png"), weights, 8)
	assert.Error(t, err)
}
