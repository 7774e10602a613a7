package ml

import "testing"

func TestDecisionTreeTrainPredict(t *testing.T) {
	features := [][]float64{
		{0.1, 0.2},
		{0.2, 0.1},
		{0.9, 0.8},
		{0.8, 0.9},
	}
	labels := []int{0, 0, 2, 2}

	model := NewDecisionTree(2)
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.NumFeatures() != 2 {
		t.Fatalf("expected 2 features, got %d", model.NumFeatures())
	}
	label, err := model.Predict([]float64{0.15, 0.15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}
	label, err = model.Predict([]float64{0.85, 0.85})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 2 {
		t.Fatalf("expected label 2, got %d", label)
	}
}

func TestDecisionTreeDeepSubtreeOffsets(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}}
	labels := []int{0, 1, 0, 1, 2, 3, 2, 3}

	model := NewDecisionTree(4)
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := decisionTreeFromNodes(model.Nodes(), 1); err != nil {
		t.Fatalf("trained tree should be structurally valid: %v", err)
	}
	for i, row := range features {
		label, err := model.Predict(row)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if label != labels[i] {
			t.Fatalf("row %d: expected %d, got %d", i, labels[i], label)
		}
	}
}

func TestDecisionTreeNotTrained(t *testing.T) {
	if _, err := NewDecisionTree(3).Predict([]float64{1}); err != ErrNotTrained {
		t.Fatalf("expected ErrNotTrained, got %v", err)
	}
}

func TestDecisionTreeFromNodesRejectsBadFeatureIndex(t *testing.T) {
	nodes := []TreeNode{
		{FeatureIdx: 3, Threshold: 0.5, LeftChild: 1, RightChild: 2},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 0, IsLeaf: true},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 1, IsLeaf: true},
	}
	if _, err := decisionTreeFromNodes(nodes, 2); err == nil {
		t.Fatal("expected error for feature index beyond width")
	}
	if _, err := decisionTreeFromNodes(nodes, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecisionTreeTrainRejectsRaggedRows(t *testing.T) {
	err := NewDecisionTree(2).Train([][]float64{{1, 2}, {3}}, []int{0, 1})
	if err == nil {
		t.Fatal("expected error for ragged rows")
	}
}
