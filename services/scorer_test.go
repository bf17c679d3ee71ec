package services

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func numericArtifact() *Artifact {
	return &Artifact{
		ModelVersion: "test-v1",
		Columns:      []string{"x"},
		DTypes:       map[string]string{"x": "float"},
		Features:     map[string]Feature{"x": {Weight: 1.0}},
		Intercept:    0.0,
		Threshold:    0.5,
	}
}

func TestScoreLogisticDecision(t *testing.T) {
	scorer := NewScorer(numericArtifact())

	tests := []struct {
		name        string
		x           float64
		wantProba   float64
		wantOutcome bool
	}{
		{"zero input sits on threshold", 0.0, 0.5, true},
		{"negative input below threshold", -1.0, 1.0 / (1.0 + math.E), false},
		{"positive input above threshold", 2.0, 1.0 / (1.0 + math.Exp(-2.0)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scorer.Score(map[string]any{"x": tt.x})
			if err != nil {
				t.Fatalf("Score() error: %v", err)
			}
			if math.Abs(got.Proba-tt.wantProba) > 1e-9 {
				t.Errorf("Proba = %v, want %v", got.Proba, tt.wantProba)
			}
			if got.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %v, want %v", got.Outcome, tt.wantOutcome)
			}
		})
	}
}

func TestScoreDeterministic(t *testing.T) {
	scorer := NewScorer(numericArtifact())
	obs := map[string]any{"x": 0.7}

	first, err := scorer.Score(obs)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	second, err := scorer.Score(obs)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if first != second {
		t.Errorf("scores differ: %+v vs %+v", first, second)
	}
}

func TestScoreCategoricalEncoding(t *testing.T) {
	art := &Artifact{
		ModelVersion: "test-v1",
		Columns:      []string{"g"},
		DTypes:       map[string]string{"g": "str"},
		Features: map[string]Feature{
			"g": {Levels: map[string]float64{"a": 1.0}, Default: 0.25, Weight: 1.0},
		},
		Threshold: 0.5,
	}
	scorer := NewScorer(art)

	known, err := scorer.Score(map[string]any{"g": "a"})
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if want := 1.0 / (1.0 + math.Exp(-1.0)); math.Abs(known.Proba-want) > 1e-9 {
		t.Errorf("known level Proba = %v, want %v", known.Proba, want)
	}

	unseen, err := scorer.Score(map[string]any{"g": "never-seen"})
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if want := 1.0 / (1.0 + math.Exp(-0.25)); math.Abs(unseen.Proba-want) > 1e-9 {
		t.Errorf("unseen level Proba = %v, want %v", unseen.Proba, want)
	}
}

func TestScoreBooleanAndStandardization(t *testing.T) {
	art := &Artifact{
		ModelVersion: "test-v1",
		Columns:      []string{"flag", "n"},
		DTypes:       map[string]string{"flag": "bool", "n": "float"},
		Features: map[string]Feature{
			"flag": {Weight: 0.5},
			"n":    {Mean: 1.0, Std: 2.0, Weight: 1.0},
		},
		Threshold: 0.5,
	}
	scorer := NewScorer(art)

	// flag=true contributes 0.5; n=3 standardizes to (3-1)/2 = 1.
	got, err := scorer.Score(map[string]any{"flag": true, "n": 3.0})
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if want := 1.0 / (1.0 + math.Exp(-1.5)); math.Abs(got.Proba-want) > 1e-9 {
		t.Errorf("Proba = %v, want %v", got.Proba, want)
	}
}

func TestScoreCoercionErrors(t *testing.T) {
	art := &Artifact{
		ModelVersion: "test-v1",
		Columns:      []string{"g", "n", "flag"},
		DTypes:       map[string]string{"g": "str", "n": "float", "flag": "bool"},
		Features: map[string]Feature{
			"g":    {Default: 0.1, Weight: 1.0},
			"n":    {Weight: 1.0},
			"flag": {Weight: 1.0},
		},
		Threshold: 0.5,
	}
	scorer := NewScorer(art)
	base := map[string]any{"g": "x", "n": 1.0, "flag": false}

	tests := []struct {
		name   string
		mutate func(map[string]any)
		column string
	}{
		{"number for str column", func(o map[string]any) { o["g"] = 4.0 }, "g"},
		{"string for float column", func(o map[string]any) { o["n"] = "1.0" }, "n"},
		{"string for bool column", func(o map[string]any) { o["flag"] = "true" }, "flag"},
		{"missing column", func(o map[string]any) { delete(o, "n") }, "n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := map[string]any{}
			for k, v := range base {
				obs[k] = v
			}
			tt.mutate(obs)

			_, err := scorer.Score(obs)
			var adapterErr *AdapterError
			if !errors.As(err, &adapterErr) {
				t.Fatalf("error = %v (%T), want *AdapterError", err, err)
			}
			if adapterErr.Column != tt.column {
				t.Errorf("Column = %q, want %q", adapterErr.Column, tt.column)
			}
		})
	}
}

func TestLoadArtifact(t *testing.T) {
	t.Run("shipped artifact", func(t *testing.T) {
		art, err := LoadArtifact(filepath.Join("..", "model"))
		if err != nil {
			t.Fatalf("LoadArtifact() error: %v", err)
		}
		if len(art.Columns) != 11 {
			t.Errorf("columns = %d, want 11", len(art.Columns))
		}
		if art.Threshold != 0.5 {
			t.Errorf("threshold = %v, want 0.5", art.Threshold)
		}

		scorer := NewScorer(art)
		obs := validObservation()
		got, err := scorer.Score(obs)
		if err != nil {
			t.Fatalf("Score() error: %v", err)
		}
		if got.Proba < 0 || got.Proba > 1 {
			t.Errorf("Proba = %v, want within [0,1]", got.Proba)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadArtifact(t.TempDir()); err == nil {
			t.Error("expected error for missing model.json")
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifactFile(t, dir, "{not json")
		if _, err := LoadArtifact(dir); err == nil {
			t.Error("expected error for invalid JSON")
		}
	})

	t.Run("column without dtype", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifactFile(t, dir, `{"columns":["x"],"dtypes":{},"features":{"x":{"weight":1}}}`)
		if _, err := LoadArtifact(dir); err == nil {
			t.Error("expected error for column without dtype")
		}
	})

	t.Run("column without feature", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifactFile(t, dir, `{"columns":["x"],"dtypes":{"x":"float"},"features":{}}`)
		if _, err := LoadArtifact(dir); err == nil {
			t.Error("expected error for column without feature entry")
		}
	})

	t.Run("default threshold", func(t *testing.T) {
		dir := t.TempDir()
		// no threshold in the file, loader falls back
		writeArtifactFile(t, dir, `{"columns":["x"],"dtypes":{"x":"float"},"features":{"x":{"weight":1}}}`)

		art, err := LoadArtifact(dir)
		if err != nil {
			t.Fatalf("LoadArtifact() error: %v", err)
		}
		if art.Threshold != 0.5 {
			t.Errorf("threshold = %v, want default 0.5", art.Threshold)
		}
	})
}

func writeArtifactFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "model.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}
