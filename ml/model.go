package ml

import "errors"

// Classifier maps a fixed-width feature vector to a class label.
type Classifier interface {
	NumFeatures() int
	Predict(features []float64) (int, error)
}

// ProbabilisticClassifier additionally reports per-class probabilities.
// The last entry belongs to the positive class in a binary setting.
type ProbabilisticClassifier interface {
	Classifier
	PredictProba(features []float64) ([]float64, error)
}

// TrainableClassifier is implemented by the bundled model kinds used by cmd/train_model.
type TrainableClassifier interface {
	Classifier
	Train(features [][]float64, labels []int) error
}

var ErrNotTrained = errors.New("model not trained")

// Model is the loaded, immutable classifier handle shared by all requests.
type Model struct {
	classifier    Classifier
	probabilistic ProbabilisticClassifier
	flavor        string
	path          string
}

// NewModel resolves the probability capability once. A classifier reporting a
// non-positive width is rejected.
func NewModel(classifier Classifier, flavor, path string) (*Model, error) {
	if classifier == nil {
		return nil, errors.New("classifier is nil")
	}
	if classifier.NumFeatures() <= 0 {
		return nil, errors.New("classifier must expect at least one feature")
	}
	m := &Model{
		classifier: classifier,
		flavor:     flavor,
		path:       path,
	}
	if p, ok := classifier.(ProbabilisticClassifier); ok {
		m.probabilistic = p
	}
	return m, nil
}

func (m *Model) NumFeatures() int {
	return m.classifier.NumFeatures()
}

func (m *Model) SupportsProbability() bool {
	return m.probabilistic != nil
}

func (m *Model) Flavor() string {
	return m.flavor
}

func (m *Model) Path() string {
	return m.path
}
