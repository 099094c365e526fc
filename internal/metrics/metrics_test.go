package metrics_test

import (
	"testing"

	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DKoflerGIT/cnn/internal/metrics"
)

func TestConfusion(t *testing.T) {
	c := metrics.NewConfusion([]string{"a", "b", "c"})

	// 3 correct "a", 1 "a" misread as "b", 2 correct "b", 1 "c" misread as "a".
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Add(0, 0))
	}
	require.NoError(t, c.Add(0, 1))
	require.NoError(t, c.Add(1, 1))
	require.NoError(t, c.Add(1, 1))
	require.NoError(t, c.Add(2, 0))

	assert.Equal(t, 7, c.Total())
	assert.InDelta(t, 5.0/7.0, c.Accuracy(), 1e-9)

	assert.InDelta(t, 3.0/4.0, c.Precision(0), 1e-9) // 3 of 4 "a" predictions correct
	assert.InDelta(t, 3.0/4.0, c.Recall(0), 1e-9)    // 3 of 4 true "a" found
	assert.InDelta(t, 2.0/3.0, c.Precision(1), 1e-9)
	assert.InDelta(t, 1.0, c.Recall(1), 1e-9)

	// "c" was never predicted.
	assert.Zero(t, c.Precision(2))
	assert.Zero(t, c.Recall(2))
	assert.Zero(t, c.F1(2))

	assert.Equal(t, 1, c.Count(2, 0))
	assert.Greater(t, c.MacroF1(), 0.0)
}

func TestConfusionEmpty(t *testing.T) {
	c := metrics.NewConfusion([]string{"a", "b"})
	assert.Zero(t, c.Accuracy())
	assert.Zero(t, c.MacroF1())
}

func TestConfusionOutOfRange(t *testing.T) {
	c := metrics.NewConfusion([]string{"a", "b"})
	assert.Error(t, c.Add(2, 0))
	assert.Error(t, c.Add(0, -1))
}

func TestAddBatch(t *testing.T) {
	backend := cpu.New()
	c := metrics.NewConfusion([]string{"0", "1", "2"})

	logits, err := tensor.FromSlice([]float32{
		5, 1, 0, // pred 0
		0, 3, 1, // pred 1
		0, 1, 9, // pred 2
		2, 1, 0, // pred 0
	}, tensor.Shape{4, 3}, backend)
	require.NoError(t, err)

	labels, err := tensor.FromSlice([]int32{0, 1, 2, 1}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	require.NoError(t, metrics.AddBatch(c, logits, labels))
	assert.Equal(t, 4, c.Total())
	assert.InDelta(t, 0.75, c.Accuracy(), 1e-9)
	assert.Equal(t, 1, c.Count(1, 0)) // the last sample: true 1, predicted 0
}

func TestAddBatchShapeMismatch(t *testing.T) {
	backend := cpu.New()
	c := metrics.NewConfusion([]string{"0", "1"})

	logits, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)
	labels, err := tensor.FromSlice([]int32{0}, tensor.Shape{1}, backend)
	require.NoError(t, err)

	assert.Error(t, metrics.AddBatch(c, logits, labels))
}

func TestMeter(t *testing.T) {
	var m metrics.Meter
	assert.Zero(t, m.Loss())
	assert.Zero(t, m.Accuracy())

	m.Record(10, 2.0, 0.5) // 5 correct
	m.Record(10, 1.0, 0.9) // 9 correct

	assert.InDelta(t, 1.5, m.Loss(), 1e-6)
	assert.InDelta(t, 0.7, m.Accuracy(), 1e-6)
}

func TestMeterRoundsCorrectCount(t *testing.T) {
	var m metrics.Meter

	// 2/3 has no exact float32 representation; the reconstructed count
	// must still be 2, not 1.
	m.Record(3, 1.0, float32(2)/float32(3))

	assert.InDelta(t, float64(2)/3, m.Accuracy(), 1e-6)
}
