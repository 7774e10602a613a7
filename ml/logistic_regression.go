package ml

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LogisticRegression is a linear classifier in the sklearn coefficient layout:
// one coefficient row for two classes (sigmoid), one row per class otherwise (softmax).
type LogisticRegression struct {
	LearningRate float64
	Epochs       int
	L2           float64
	// OnEpoch, when set, is called after every training epoch with the mean log loss.
	OnEpoch func(epoch int, loss float64)

	classes   []int
	coef      *mat.Dense
	intercept []float64
}

type logisticArtifact struct {
	Classes   []int       `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

func NewLogisticRegression(learningRate float64, epochs int) *LogisticRegression {
	if learningRate <= 0 {
		learningRate = 0.1
	}
	if epochs <= 0 {
		epochs = 200
	}
	return &LogisticRegression{LearningRate: learningRate, Epochs: epochs}
}

func logisticFromArtifact(a logisticArtifact, numFeatures int) (*LogisticRegression, error) {
	if len(a.Classes) < 2 {
		return nil, errors.New("logistic regression needs at least two classes")
	}
	rows := len(a.Classes)
	if rows == 2 {
		rows = 1
	}
	if len(a.Coef) != rows {
		return nil, fmt.Errorf("expected %d coefficient rows for %d classes, got %d", rows, len(a.Classes), len(a.Coef))
	}
	if len(a.Intercept) != rows {
		return nil, fmt.Errorf("expected %d intercepts, got %d", rows, len(a.Intercept))
	}
	coef := mat.NewDense(rows, numFeatures, nil)
	for i, row := range a.Coef {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("coefficient row %d has %d entries, expected %d", i, len(row), numFeatures)
		}
		coef.SetRow(i, row)
	}
	return &LogisticRegression{
		classes:   append([]int(nil), a.Classes...),
		coef:      coef,
		intercept: append([]float64(nil), a.Intercept...),
	}, nil
}

func (lr *LogisticRegression) artifact() logisticArtifact {
	rows, _ := lr.coef.Dims()
	coef := make([][]float64, rows)
	for i := range coef {
		coef[i] = mat.Row(nil, i, lr.coef)
	}
	return logisticArtifact{
		Classes:   append([]int(nil), lr.classes...),
		Coef:      coef,
		Intercept: append([]float64(nil), lr.intercept...),
	}
}

func (lr *LogisticRegression) NumFeatures() int {
	if lr.coef == nil {
		return 0
	}
	_, c := lr.coef.Dims()
	return c
}

func (lr *LogisticRegression) Predict(features []float64) (int, error) {
	proba, err := lr.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return lr.classes[floats.MaxIdx(proba)], nil
}

func (lr *LogisticRegression) PredictProba(features []float64) ([]float64, error) {
	if lr.coef == nil {
		return nil, ErrNotTrained
	}
	rows, cols := lr.coef.Dims()
	if len(features) != cols {
		return nil, fmt.Errorf("expected %d features, got %d", cols, len(features))
	}

	var scores mat.VecDense
	scores.MulVec(lr.coef, mat.NewVecDense(cols, append([]float64(nil), features...)))
	out := make([]float64, rows)
	for i := range out {
		out[i] = scores.AtVec(i) + lr.intercept[i]
	}
	activate(out)
	if rows == 1 {
		return []float64{1 - out[0], out[0]}, nil
	}
	return out, nil
}

// Train fits the coefficients with full-batch gradient descent on the log loss.
func (lr *LogisticRegression) Train(features [][]float64, labels []int) error {
	width, err := validateTrainingSet(features, labels)
	if err != nil {
		return err
	}
	classes := uniqueLabels(labels)
	if len(classes) < 2 {
		return errors.New("training labels contain a single class")
	}
	if lr.LearningRate <= 0 {
		lr.LearningRate = 0.1
	}
	if lr.Epochs <= 0 {
		lr.Epochs = 200
	}

	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	m := len(features)
	k := len(classes)
	if k == 2 {
		k = 1
	}

	x := mat.NewDense(m, width, nil)
	y := mat.NewDense(m, k, nil)
	for i, row := range features {
		x.SetRow(i, row)
		c := index[labels[i]]
		switch {
		case k == 1 && c == 1:
			y.Set(i, 0, 1)
		case k > 1:
			y.Set(i, c, 1)
		}
	}

	w := mat.NewDense(k, width, nil)
	b := make([]float64, k)
	var z, grad, gw mat.Dense
	for epoch := 0; epoch < lr.Epochs; epoch++ {
		z.Mul(x, w.T())
		for i := 0; i < m; i++ {
			row := z.RawRowView(i)
			floats.Add(row, b)
			activate(row)
		}
		loss := logLoss(&z, y)

		grad.Sub(&z, y)
		gw.Mul(grad.T(), x)
		gw.Scale(1/float64(m), &gw)
		if lr.L2 > 0 {
			var reg mat.Dense
			reg.Scale(lr.L2, w)
			gw.Add(&gw, &reg)
		}
		for j := 0; j < k; j++ {
			b[j] -= lr.LearningRate * mat.Sum(grad.ColView(j)) / float64(m)
		}
		gw.Scale(lr.LearningRate, &gw)
		w.Sub(w, &gw)

		if lr.OnEpoch != nil {
			lr.OnEpoch(epoch, loss)
		}
	}

	lr.classes = classes
	lr.coef = w
	lr.intercept = b
	return nil
}

// activate applies the sigmoid to a single score and softmax to several.
func activate(scores []float64) {
	if len(scores) == 1 {
		scores[0] = sigmoid(scores[0])
		return
	}
	lse := floats.LogSumExp(scores)
	for i := range scores {
		scores[i] = math.Exp(scores[i] - lse)
	}
}

func sigmoid(v float64) float64 {
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}

func logLoss(p, y *mat.Dense) float64 {
	const eps = 1e-12
	m, k := p.Dims()
	total := 0.0
	for i := 0; i < m; i++ {
		for j := 0; j < k; j++ {
			pv := math.Min(math.Max(p.At(i, j), eps), 1-eps)
			yv := y.At(i, j)
			if k == 1 {
				total -= yv*math.Log(pv) + (1-yv)*math.Log(1-pv)
			} else if yv > 0 {
				total -= math.Log(pv)
			}
		}
	}
	return total / float64(m)
}

func uniqueLabels(labels []int) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}
