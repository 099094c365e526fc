package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
)

// DefaultIrisURL serves the classic 150-row Iris CSV (no header,
// 4 features + species name per row).
const DefaultIrisURL = "https://archive.ics.uci.edu/ml/machine-learning-databases/iris/iris.data"

const irisFeatures = 4

var irisClasses = []string{"setosa", "versicolor", "virginica"}

var irisSpecies = map[string]int32{
	"Iris-setosa":     0,
	"Iris-versicolor": 1,
	"Iris-virginica":  2,
}

// LoadIris loads the Iris dataset from path, downloading it there first if
// the file does not exist. Features are standardized per column.
func LoadIris(ctx context.Context, path string) (*Dataset, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := download(ctx, DefaultIrisURL, path); err != nil {
			return nil, fmt.Errorf("download iris: %w", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open iris: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // trailing blank lines are common in this file
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read iris CSV: %w", err)
	}

	d := &Dataset{
		Name:    "iris",
		Shape:   []int{irisFeatures},
		Classes: irisClasses,
	}
	for i, record := range records {
		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			continue
		}
		if len(record) != irisFeatures+1 {
			return nil, fmt.Errorf("iris row %d: got %d fields, want %d", i+1, len(record), irisFeatures+1)
		}
		row := make([]float32, irisFeatures)
		for j := 0; j < irisFeatures; j++ {
			v, err := strconv.ParseFloat(record[j], 32)
			if err != nil {
				return nil, fmt.Errorf("iris row %d field %d: %w", i+1, j+1, err)
			}
			row[j] = float32(v)
		}
		class, ok := irisSpecies[record[irisFeatures]]
		if !ok {
			return nil, fmt.Errorf("iris row %d: unknown species %q", i+1, record[irisFeatures])
		}
		d.Features = append(d.Features, row)
		d.Labels = append(d.Labels, class)
	}

	if err := d.validate(); err != nil {
		return nil, err
	}
	standardize(d.Features, irisFeatures)
	return d, nil
}

// standardize rescales every column to zero mean and unit variance.
func standardize(rows [][]float32, dim int) {
	n := float64(len(rows))
	if n == 0 {
		return
	}
	for j := 0; j < dim; j++ {
		var sum, sumSq float64
		for _, row := range rows {
			v := float64(row[j])
			sum += v
			sumSq += v * v
		}
		mean := sum / n
		std := math.Sqrt(sumSq/n - mean*mean)
		if std == 0 {
			std = 1
		}
		for _, row := range rows {
			row[j] = float32((float64(row[j]) - mean) / std)
		}
	}
}
