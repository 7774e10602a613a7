package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

const (
	ManifestFile    = "model.yaml"
	defaultArtifact = "model.json"

	FlavorDecisionTree       = "decision_tree"
	FlavorLogisticRegression = "logistic_regression"
)

// Manifest describes a model directory.
type Manifest struct {
	Flavor      string `yaml:"flavor"`
	NumFeatures int    `yaml:"n_features"`
	Artifact    string `yaml:"artifact"`
}

// LoadModel reads <dir>/model.yaml and the artifact it points to.
func LoadModel(dir string) (*Model, error) {
	payload, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(payload, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.NumFeatures <= 0 {
		return nil, fmt.Errorf("manifest n_features must be positive, got %d", manifest.NumFeatures)
	}
	if manifest.Artifact == "" {
		manifest.Artifact = defaultArtifact
	}

	artifact, err := os.ReadFile(filepath.Join(dir, manifest.Artifact))
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var classifier Classifier
	switch manifest.Flavor {
	case FlavorDecisionTree:
		var nodes []TreeNode
		if err := json.Unmarshal(artifact, &nodes); err != nil {
			return nil, fmt.Errorf("parse decision tree: %w", err)
		}
		classifier, err = decisionTreeFromNodes(nodes, manifest.NumFeatures)
	case FlavorLogisticRegression:
		var a logisticArtifact
		if err := json.Unmarshal(artifact, &a); err != nil {
			return nil, fmt.Errorf("parse logistic regression: %w", err)
		}
		classifier, err = logisticFromArtifact(a, manifest.NumFeatures)
	default:
		return nil, fmt.Errorf("unsupported model flavor %q", manifest.Flavor)
	}
	if err != nil {
		return nil, err
	}
	return NewModel(classifier, manifest.Flavor, dir)
}

// SaveModel writes a trained bundled classifier as a model directory.
func SaveModel(dir string, classifier Classifier) error {
	var (
		flavor  string
		payload any
	)
	switch c := classifier.(type) {
	case *DecisionTree:
		if len(c.nodes) == 0 {
			return ErrNotTrained
		}
		flavor, payload = FlavorDecisionTree, c.nodes
	case *LogisticRegression:
		if c.coef == nil {
			return ErrNotTrained
		}
		flavor, payload = FlavorLogisticRegression, c.artifact()
	default:
		return errors.New("unsupported classifier type")
	}

	artifact, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	manifest, err := yaml.Marshal(Manifest{
		Flavor:      flavor,
		NumFeatures: classifier.NumFeatures(),
		Artifact:    defaultArtifact,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, defaultArtifact), artifact, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), manifest, 0o644)
}
