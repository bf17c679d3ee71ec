package services

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

const defaultThreshold = 0.5

// Artifact is the serialized scoring model: the column layout and dtypes the
// classifier was trained with, per-column encodings, and logistic regression
// weights. It is loaded once at process start and never mutated.
type Artifact struct {
	ModelVersion string             `json:"model_version"`
	Columns      []string           `json:"columns"`
	DTypes       map[string]string  `json:"dtypes"`
	Features     map[string]Feature `json:"features"`
	Intercept    float64            `json:"intercept"`
	Threshold    float64            `json:"threshold"`
}

// Feature holds the encoding parameters for one column. Categorical columns
// ("str" dtype) map known levels to target-encoded values and fall back to
// Default for unseen levels; numeric columns are standardized with Mean/Std.
type Feature struct {
	Levels  map[string]float64 `json:"levels,omitempty"`
	Default float64            `json:"default"`
	Mean    float64            `json:"mean"`
	Std     float64            `json:"std"`
	Weight  float64            `json:"weight"`
}

// LoadArtifact reads model.json from dir and checks that every column has a
// dtype and a feature entry.
func LoadArtifact(dir string) (*Artifact, error) {
	path := filepath.Join(dir, "model.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring artifact: %w", err)
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("parse scoring artifact %s: %w", path, err)
	}
	if len(art.Columns) == 0 {
		return nil, fmt.Errorf("scoring artifact %s declares no columns", path)
	}
	for _, col := range art.Columns {
		if _, ok := art.DTypes[col]; !ok {
			return nil, fmt.Errorf("scoring artifact %s: column %q has no dtype", path, col)
		}
		if _, ok := art.Features[col]; !ok {
			return nil, fmt.Errorf("scoring artifact %s: column %q has no feature entry", path, col)
		}
	}
	if art.Threshold == 0 {
		art.Threshold = defaultThreshold
	}
	return &art, nil
}

// AdapterError reports a value that could not be coerced into its declared
// column type. It is distinct from SchemaError: it occurs after structural
// validation has already passed.
type AdapterError struct {
	Column string
	Reason string
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("cannot coerce column %q: %s", e.Column, e.Reason)
}

// ScoreResult is the classifier decision on a single observation.
type ScoreResult struct {
	Outcome bool
	Proba   float64
}

// Scorer wraps the loaded artifact. It is read-only and safe for concurrent
// use.
type Scorer struct {
	artifact *Artifact
	weights  *mat.VecDense
}

func NewScorer(artifact *Artifact) *Scorer {
	weights := mat.NewVecDense(len(artifact.Columns), nil)
	for i, col := range artifact.Columns {
		weights.SetVec(i, artifact.Features[col].Weight)
	}
	return &Scorer{artifact: artifact, weights: weights}
}

func (s *Scorer) ModelVersion() string { return s.artifact.ModelVersion }

// Score coerces obs into the artifact's column layout and runs the logistic
// regression on the single encoded row.
func (s *Scorer) Score(obs map[string]any) (ScoreResult, error) {
	row := mat.NewVecDense(len(s.artifact.Columns), nil)
	for i, col := range s.artifact.Columns {
		encoded, err := s.encode(col, obs[col])
		if err != nil {
			return ScoreResult{}, err
		}
		row.SetVec(i, encoded)
	}

	proba := sigmoid(mat.Dot(s.weights, row) + s.artifact.Intercept)
	return ScoreResult{Outcome: proba >= s.artifact.Threshold, Proba: proba}, nil
}

func (s *Scorer) encode(col string, value any) (float64, error) {
	if value == nil {
		return 0, &AdapterError{Column: col, Reason: "value is missing"}
	}

	feature := s.artifact.Features[col]
	var v float64

	switch s.artifact.DTypes[col] {
	case "str":
		str, ok := value.(string)
		if !ok {
			return 0, &AdapterError{Column: col, Reason: fmt.Sprintf("value %v is not a string", value)}
		}
		level, ok := feature.Levels[str]
		if !ok {
			level = feature.Default
		}
		v = level
	case "bool":
		b, ok := value.(bool)
		if !ok {
			return 0, &AdapterError{Column: col, Reason: fmt.Sprintf("value %v is not a boolean", value)}
		}
		if b {
			v = 1
		}
	case "float":
		f, ok := toFloat(value)
		if !ok {
			return 0, &AdapterError{Column: col, Reason: fmt.Sprintf("value %v is not numeric", value)}
		}
		v = f
	default:
		return 0, &AdapterError{Column: col, Reason: fmt.Sprintf("unsupported dtype %q", s.artifact.DTypes[col])}
	}

	if feature.Std != 0 {
		v = (v - feature.Mean) / feature.Std
	}
	return v, nil
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
