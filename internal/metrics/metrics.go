// Package metrics accumulates classification metrics across batches.
package metrics

import (
	"fmt"
	"math"

	"github.com/born-ml/born/tensor"
	"gonum.org/v1/gonum/floats"
)

// Confusion is an n×n confusion matrix. Rows are true classes, columns
// are predicted classes.
type Confusion struct {
	classes []string
	counts  [][]int
	total   int
}

// NewConfusion builds an empty confusion matrix for the given classes.
func NewConfusion(classes []string) *Confusion {
	n := len(classes)
	counts := make([][]int, n)
	for i := range counts {
		counts[i] = make([]int, n)
	}
	return &Confusion{classes: classes, counts: counts}
}

// Add records one prediction. Out-of-range indices are rejected.
func (c *Confusion) Add(label, pred int) error {
	n := len(c.classes)
	if label < 0 || label >= n || pred < 0 || pred >= n {
		return fmt.Errorf("confusion: label %d / prediction %d out of range [0, %d)", label, pred, n)
	}
	c.counts[label][pred]++
	c.total++
	return nil
}

// NumClasses returns the matrix dimension.
func (c *Confusion) NumClasses() int { return len(c.classes) }

// Classes returns the class names.
func (c *Confusion) Classes() []string { return c.classes }

// Total returns the number of recorded samples.
func (c *Confusion) Total() int { return c.total }

// Count returns the number of samples of class label predicted as pred.
func (c *Confusion) Count(label, pred int) int { return c.counts[label][pred] }

// Accuracy returns the fraction of correctly classified samples.
func (c *Confusion) Accuracy() float64 {
	if c.total == 0 {
		return 0
	}
	correct := 0
	for i := range c.counts {
		correct += c.counts[i][i]
	}
	return float64(correct) / float64(c.total)
}

// Precision returns tp / (tp + fp) for one class; 0 when the class was
// never predicted.
func (c *Confusion) Precision(class int) float64 {
	predicted := 0
	for i := range c.counts {
		predicted += c.counts[i][class]
	}
	if predicted == 0 {
		return 0
	}
	return float64(c.counts[class][class]) / float64(predicted)
}

// Recall returns tp / (tp + fn) for one class; 0 when the class has no
// samples.
func (c *Confusion) Recall(class int) float64 {
	actual := 0
	for _, count := range c.counts[class] {
		actual += count
	}
	if actual == 0 {
		return 0
	}
	return float64(c.counts[class][class]) / float64(actual)
}

// F1 returns the harmonic mean of precision and recall for one class.
func (c *Confusion) F1(class int) float64 {
	p, r := c.Precision(class), c.Recall(class)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// MacroF1 averages F1 over all classes.
func (c *Confusion) MacroF1() float64 {
	scores := make([]float64, len(c.classes))
	for i := range scores {
		scores[i] = c.F1(i)
	}
	if len(scores) == 0 {
		return 0
	}
	return floats.Sum(scores) / float64(len(scores))
}

// AddBatch records a whole batch of logits against its labels. Logits
// must be [batch, classes], labels [batch].
func AddBatch[B tensor.Backend](c *Confusion, logits *tensor.Tensor[float32, B], labels *tensor.Tensor[int32, B]) error {
	shape := logits.Shape()
	if len(shape) != 2 {
		return fmt.Errorf("confusion: logits must be 2D, got %v", shape)
	}
	batch, classes := shape[0], shape[1]
	if classes != len(c.classes) {
		return fmt.Errorf("confusion: logits have %d classes, matrix has %d", classes, len(c.classes))
	}
	if !labels.Shape().Equal(tensor.Shape{batch}) {
		return fmt.Errorf("confusion: labels shape %v does not match batch %d", labels.Shape(), batch)
	}

	logitsData := logits.Raw().AsFloat32()
	labelsData := labels.Raw().AsInt32()
	for b := 0; b < batch; b++ {
		pred := argmax(logitsData[b*classes : (b+1)*classes])
		if err := c.Add(int(labelsData[b]), pred); err != nil {
			return err
		}
	}
	return nil
}

func argmax(row []float32) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}

// Meter tracks mean loss and accuracy across the batches of one epoch.
type Meter struct {
	loss    float64
	correct int
	samples int
	batches int
}

// Record adds one batch's loss and accuracy. The accuracy is a ratio of
// correct predictions over batchSize, so the count is recovered by
// rounding rather than truncation.
func (m *Meter) Record(batchSize int, loss, accuracy float32) {
	m.loss += float64(loss)
	m.correct += int(math.Round(float64(accuracy) * float64(batchSize)))
	m.samples += batchSize
	m.batches++
}

// Loss returns the mean per-batch loss.
func (m *Meter) Loss() float32 {
	if m.batches == 0 {
		return 0
	}
	return float32(m.loss / float64(m.batches))
}

// Accuracy returns the sample-weighted accuracy.
func (m *Meter) Accuracy() float32 {
	if m.samples == 0 {
		return 0
	}
	return float32(m.correct) / float32(m.samples)
}
