package ml

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

func validateTrainingSet(features [][]float64, labels []int) (int, error) {
	if len(features) == 0 || len(labels) == 0 {
		return 0, errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return 0, errors.New("features and labels size mismatch")
	}
	width := len(features[0])
	if width == 0 {
		return 0, errors.New("feature vectors are empty")
	}
	for i, row := range features {
		if len(row) != width {
			return 0, fmt.Errorf("row %d has %d features, expected %d", i, len(row), width)
		}
	}
	return width, nil
}

// ReadCSV parses rows of numeric features followed by an integer label in the
// last column. With header set, the first record is skipped.
func ReadCSV(r io.Reader, header bool) ([][]float64, []int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if header && len(records) > 0 {
		records = records[1:]
	}

	features := make([][]float64, 0, len(records))
	labels := make([]int, 0, len(records))
	for i, record := range records {
		if len(record) < 2 {
			return nil, nil, fmt.Errorf("line %d: need at least one feature and a label", i+1)
		}
		row := make([]float64, len(record)-1)
		for j, field := range record[:len(record)-1] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d column %d: %w", i+1, j+1, err)
			}
			row[j] = v
		}
		label, err := strconv.Atoi(strings.TrimSpace(record[len(record)-1]))
		if err != nil {
			return nil, nil, fmt.Errorf("line %d label: %w", i+1, err)
		}
		features = append(features, row)
		labels = append(labels, label)
	}
	return features, labels, nil
}

func SplitDataset(features [][]float64, labels []int, testRatio float64, rnd *rand.Rand) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	indices := rnd.Perm(len(features))

	split := int(math.Round(float64(len(features)) * (1 - testRatio)))
	for i, idx := range indices {
		if i < split {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, labels[idx])
		} else {
			testX = append(testX, features[idx])
			testY = append(testY, labels[idx])
		}
	}
	return trainX, trainY, testX, testY
}

// Accuracy returns the share of rows the classifier labels correctly.
// Rows the classifier fails on count as misses.
func Accuracy(model Classifier, features [][]float64, labels []int) float64 {
	if len(features) == 0 {
		return 0
	}
	correct := 0
	for i, row := range features {
		label, err := model.Predict(row)
		if err != nil {
			continue
		}
		if label == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(features))
}
