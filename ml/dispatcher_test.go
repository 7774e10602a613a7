package ml

import (
	"encoding/json"
	"errors"
	"testing"
)

type fakeClassifier struct {
	width int
	label int
	err   error
	calls int
}

func (f *fakeClassifier) NumFeatures() int {
	return f.width
}

func (f *fakeClassifier) Predict(features []float64) (int, error) {
	f.calls++
	return f.label, f.err
}

type fakeProbabilisticClassifier struct {
	fakeClassifier
	proba      []float64
	probaErr   error
	probaCalls int
}

func (f *fakeProbabilisticClassifier) PredictProba(features []float64) ([]float64, error) {
	f.probaCalls++
	return f.proba, f.probaErr
}

func newTestDispatcher(t *testing.T, c Classifier) *Dispatcher {
	t.Helper()
	model, err := NewModel(c, "fake", "/tmp/model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewDispatcher(model)
}

func TestDispatchWithProbability(t *testing.T) {
	clf := &fakeProbabilisticClassifier{fakeClassifier: fakeClassifier{width: 3, label: 1}, proba: []float64{0.3, 0.7}}
	d := newTestDispatcher(t, clf)
	if !d.Model().SupportsProbability() {
		t.Fatal("expected probability support")
	}

	prediction, err := d.Dispatch([]any{0.1, 0.2, 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prediction.Label != 1 {
		t.Fatalf("expected label 1, got %d", prediction.Label)
	}
	if prediction.PositiveProbability == nil || *prediction.PositiveProbability != 0.7 {
		t.Fatalf("expected probability 0.7, got %v", prediction.PositiveProbability)
	}
}

func TestDispatchWithoutProbability(t *testing.T) {
	clf := &fakeClassifier{width: 3, label: 2}
	d := newTestDispatcher(t, clf)
	if d.Model().SupportsProbability() {
		t.Fatal("expected no probability support")
	}

	prediction, err := d.Dispatch([]any{0.1, 0.2, 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prediction.Label != 2 || prediction.PositiveProbability != nil {
		t.Fatalf("unexpected prediction: %+v", prediction)
	}

	payload, _ := json.Marshal(prediction)
	if string(payload) != `{"prediction":2,"prob_pos":null}` {
		t.Fatalf("unexpected json: %s", payload)
	}
}

func TestDispatchShapeError(t *testing.T) {
	tests := []struct {
		name string
		raw  []any
	}{
		{"short", []any{0.1, 0.2}},
		{"long", []any{0.1, 0.2, 0.3, 0.4}},
		{"empty", []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clf := &fakeProbabilisticClassifier{fakeClassifier: fakeClassifier{width: 3}, proba: []float64{0.5, 0.5}}
			d := newTestDispatcher(t, clf)

			_, err := d.Dispatch(tt.raw)
			var shapeErr *ShapeError
			if !errors.As(err, &shapeErr) {
				t.Fatalf("expected ShapeError, got %v", err)
			}
			if shapeErr.Expected != 3 || shapeErr.Actual != len(tt.raw) {
				t.Fatalf("unexpected shape error: %+v", shapeErr)
			}
			if clf.calls != 0 || clf.probaCalls != 0 {
				t.Fatal("classifier must not be called for a mis-shaped vector")
			}
			if !IsInputError(err) {
				t.Fatal("shape error should be an input error")
			}
		})
	}
}

func TestDispatchShapeErrorMessage(t *testing.T) {
	d := newTestDispatcher(t, &fakeClassifier{width: 3})
	_, err := d.Dispatch([]any{0.1, 0.2})
	if err == nil || err.Error() != "need 3 features, got 2" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDispatchParseError(t *testing.T) {
	tests := []struct {
		name  string
		raw   []any
		index int
	}{
		{"letter", []any{"a", 0.2, 0.3}, 0},
		{"bool", []any{0.1, true, 0.3}, 1},
		{"null", []any{0.1, 0.2, nil}, 2},
		{"nan", []any{0.1, "NaN", 0.3}, 1},
		{"inf", []any{"inf", 0.2, 0.3}, 0},
		{"nested", []any{[]any{1.0}, 0.2, 0.3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clf := &fakeClassifier{width: 3}
			d := newTestDispatcher(t, clf)

			_, err := d.Dispatch(tt.raw)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if parseErr.Index != tt.index {
				t.Fatalf("expected index %d, got %d", tt.index, parseErr.Index)
			}
			if clf.calls != 0 {
				t.Fatal("classifier must not be called for unparseable input")
			}
		})
	}
}

func TestDispatchReportsOutOfRangeLiteral(t *testing.T) {
	clf := &fakeClassifier{width: 2}
	d := newTestDispatcher(t, clf)

	_, err := d.Dispatch([]any{json.Number("1e400"), 0.2})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !errors.Is(err, errOutOfRange) {
		t.Fatalf("expected out of range error, got %v", err)
	}
	if errors.Is(err, errNotANumber) {
		t.Fatal("out of range literal must not be reported as not a number")
	}
	if clf.calls != 0 {
		t.Fatal("classifier must not be called for unparseable input")
	}
}

func TestDispatchCoercesNumericForms(t *testing.T) {
	clf := &fakeClassifier{width: 4, label: 1}
	d := newTestDispatcher(t, clf)

	_, err := d.Dispatch([]any{json.Number("0.5"), " 1.25 ", 3, float32(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clf.calls != 1 {
		t.Fatalf("expected one classifier call, got %d", clf.calls)
	}
}

func TestDispatchStrings(t *testing.T) {
	d := newTestDispatcher(t, &fakeClassifier{width: 3, label: 1})

	if _, err := d.DispatchStrings(SplitFeatureText("0.1, 0.2 ,0.3")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := d.DispatchStrings(SplitFeatureText("0.1,,0.3"))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for empty token, got %v", err)
	}
	_, err = d.DispatchStrings(SplitFeatureText("   "))
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) || shapeErr.Actual != 0 {
		t.Fatalf("expected ShapeError with 0 features, got %v", err)
	}
}

func TestDispatchClassifierFailurePropagates(t *testing.T) {
	boom := errors.New("boom")
	d := newTestDispatcher(t, &fakeClassifier{width: 1, err: boom})

	_, err := d.Dispatch([]any{1.0})
	if !errors.Is(err, ErrClassifier) {
		t.Fatalf("expected ErrClassifier, got %v", err)
	}
	if IsInputError(err) {
		t.Fatal("classifier failure must not be reported as an input error")
	}
}

func TestDispatchRejectsOutOfRangeProbability(t *testing.T) {
	clf := &fakeProbabilisticClassifier{fakeClassifier: fakeClassifier{width: 1}, proba: []float64{-0.2, 1.2}}
	d := newTestDispatcher(t, clf)

	if _, err := d.Dispatch([]any{1.0}); !errors.Is(err, ErrClassifier) {
		t.Fatalf("expected ErrClassifier, got %v", err)
	}
}

func TestDispatchIdempotent(t *testing.T) {
	model, err := logisticFromArtifact(logisticArtifact{
		Classes:   []int{0, 1},
		Coef:      [][]float64{{0.5, -1, 2}},
		Intercept: []float64{0.1},
	}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := newTestDispatcher(t, model)

	first, err := d.Dispatch([]any{0.1, 0.2, 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := d.Dispatch([]any{0.1, 0.2, 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Label != second.Label || *first.PositiveProbability != *second.PositiveProbability {
		t.Fatalf("dispatch not idempotent: %+v vs %+v", first, second)
	}
	if first.Label != 0 && first.Label != 1 {
		t.Fatalf("label outside class set: %d", first.Label)
	}
	if p := *first.PositiveProbability; p < 0 || p > 1 {
		t.Fatalf("probability outside [0,1]: %v", p)
	}
}

func TestNewModelRejectsZeroWidth(t *testing.T) {
	if _, err := NewModel(&fakeClassifier{width: 0}, "fake", ""); err == nil {
		t.Fatal("expected error for zero width")
	}
}
