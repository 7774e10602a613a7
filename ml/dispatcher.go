package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Prediction is the outcome of one dispatch. PositiveProbability is nil when
// the model has no probability output.
type Prediction struct {
	Label               int      `json:"prediction"`
	PositiveProbability *float64 `json:"prob_pos"`
}

// ParseError reports an input element that is not a finite number.
type ParseError struct {
	Index int
	Value any
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not convert %v at position %d to float: %v", e.Value, e.Index, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ShapeError reports a feature vector whose length differs from the model width.
type ShapeError struct {
	Expected int
	Actual   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("need %d features, got %d", e.Expected, e.Actual)
}

var (
	ErrClassifier  = errors.New("classifier failure")
	errNotANumber  = errors.New("not a number")
	errOutOfRange  = errors.New("value out of float64 range")
	errNotFinite   = errors.New("value is not finite")
	errUnsupported = errors.New("unsupported value type")
)

// IsInputError reports whether err is caused by the caller's input.
func IsInputError(err error) bool {
	var pe *ParseError
	var se *ShapeError
	return errors.As(err, &pe) || errors.As(err, &se)
}

// Dispatcher validates feature vectors and forwards them to the loaded model.
// It holds no mutable state and is safe for concurrent use.
type Dispatcher struct {
	model *Model
}

func NewDispatcher(model *Model) *Dispatcher {
	return &Dispatcher{model: model}
}

func (d *Dispatcher) Model() *Model {
	return d.model
}

// Dispatch coerces raw values (numbers, json.Number or numeric strings) and predicts.
func (d *Dispatcher) Dispatch(raw []any) (*Prediction, error) {
	vector, err := ParseFeatures(raw)
	if err != nil {
		return nil, err
	}
	return d.DispatchVector(vector)
}

func (d *Dispatcher) DispatchStrings(tokens []string) (*Prediction, error) {
	raw := make([]any, len(tokens))
	for i, t := range tokens {
		raw[i] = t
	}
	return d.Dispatch(raw)
}

func (d *Dispatcher) DispatchVector(vector []float64) (*Prediction, error) {
	expected := d.model.NumFeatures()
	if len(vector) != expected {
		return nil, &ShapeError{Expected: expected, Actual: len(vector)}
	}

	label, err := d.model.classifier.Predict(vector)
	if err != nil {
		return nil, fmt.Errorf("%w: predict: %v", ErrClassifier, err)
	}
	prediction := &Prediction{Label: label}
	if !d.model.SupportsProbability() {
		return prediction, nil
	}

	proba, err := d.model.probabilistic.PredictProba(vector)
	if err != nil {
		return nil, fmt.Errorf("%w: predict_proba: %v", ErrClassifier, err)
	}
	if len(proba) == 0 {
		return nil, fmt.Errorf("%w: empty probability output", ErrClassifier)
	}
	p := proba[len(proba)-1]
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, fmt.Errorf("%w: probability %v outside [0,1]", ErrClassifier, p)
	}
	prediction.PositiveProbability = &p
	return prediction, nil
}

// ParseFeatures converts every element to a finite float64.
func ParseFeatures(raw []any) ([]float64, error) {
	vector := make([]float64, len(raw))
	for i, v := range raw {
		f, err := toFloat(v)
		if err != nil {
			return nil, &ParseError{Index: i, Value: v, Err: err}
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &ParseError{Index: i, Value: v, Err: errNotFinite}
		}
		vector[i] = f
	}
	return vector, nil
}

// SplitFeatureText splits comma-separated form input. Blank input yields no tokens.
func SplitFeatureText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	tokens := strings.Split(text, ",")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}
	return tokens
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return parseNumber(string(n))
	case string:
		return parseNumber(n)
	default:
		return 0, errUnsupported
	}
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, errOutOfRange
	}
	if err != nil {
		return 0, errNotANumber
	}
	return f, nil
}
