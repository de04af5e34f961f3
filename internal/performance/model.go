package performance

import (
	"context"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelScorer is a trained logistic model over the normalized vector:
// score = sigmoid(w·v + bias).
type ModelScorer struct {
	ModelName string
	Weights   [4]float64
	Bias      float64
}

// modelFile is the on-disk shape; weights is a slice so that a wrong
// length can be reported instead of silently truncated.
type modelFile struct {
	Name    string    `yaml:"name"`
	Weights []float64 `yaml:"weights"`
	Bias    float64   `yaml:"bias"`
}

// LoadModel reads model weights from a YAML file.
func LoadModel(path string) (*ModelScorer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	return ParseModel(data)
}

// ParseModel decodes YAML model weights.
func ParseModel(data []byte) (*ModelScorer, error) {
	var f modelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if len(f.Weights) != len(Vector{}) {
		return nil, fmt.Errorf("model needs %d weights, got %d", len(Vector{}), len(f.Weights))
	}
	m := &ModelScorer{ModelName: f.Name, Bias: f.Bias}
	copy(m.Weights[:], f.Weights)
	if m.ModelName == "" {
		m.ModelName = "model"
	}
	return m, nil
}

func (m *ModelScorer) Score(ctx context.Context, v Vector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	z := m.Bias
	for i := range v {
		z += m.Weights[i] * v[i]
	}
	return 1 / (1 + math.Exp(-z)), nil
}

func (m *ModelScorer) Name() string { return m.ModelName }
