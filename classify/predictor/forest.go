package predictor

import (
	"encoding/json"
	"fmt"
)

// ForestFormat is the artifact format tag this build understands.
// The artifact is an exported decision forest: each tree a flat node array,
// internal nodes splitting feature <= threshold, leaves carrying the
// stop-class probability. The forest's prediction is the mean of its
// trees' leaf probabilities.
const ForestFormat = "stop-forest.v1"

type forestNode struct {
	// Feature indexes the artifact's feature columns; -1 marks a leaf.
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	// Value is the leaf's P(stopped); unused on internal nodes.
	Value float64 `json:"value"`
}

type forestTree struct {
	Nodes []forestNode `json:"nodes"`
}

type forestArtifact struct {
	Format    string       `json:"format"`
	Features  []string     `json:"features"`
	Threshold float64      `json:"threshold"`
	Trees     []forestTree `json:"trees"`
}

// Forest is a loaded forest artifact. Read-only after ParseForest.
type Forest struct {
	features  []string
	threshold float64
	trees     []forestTree
}

// ParseForest decodes and validates a serialized forest artifact.
// Corruption of any kind is ErrModelUnavailable.
func ParseForest(b []byte) (*Forest, error) {
	art := forestArtifact{}
	if err := json.Unmarshal(b, &art); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if art.Format != ForestFormat {
		return nil, fmt.Errorf("%w: unknown artifact format %q", ErrModelUnavailable, art.Format)
	}
	if len(art.Trees) == 0 || len(art.Features) == 0 {
		return nil, fmt.Errorf("%w: empty forest", ErrModelUnavailable)
	}
	for ti, tree := range art.Trees {
		if len(tree.Nodes) == 0 {
			return nil, fmt.Errorf("%w: tree %d has no nodes", ErrModelUnavailable, ti)
		}
		for ni, n := range tree.Nodes {
			if n.Feature < 0 {
				continue // leaf
			}
			if n.Feature >= len(art.Features) {
				return nil, fmt.Errorf("%w: tree %d node %d references feature %d of %d",
					ErrModelUnavailable, ti, ni, n.Feature, len(art.Features))
			}
			// Children must point strictly forward so every walk terminates;
			// a cycle would spin score forever.
			if n.Left <= ni || n.Left >= len(tree.Nodes) || n.Right <= ni || n.Right >= len(tree.Nodes) {
				return nil, fmt.Errorf("%w: tree %d node %d has out-of-range or cyclic children",
					ErrModelUnavailable, ti, ni)
			}
		}
	}
	threshold := art.Threshold
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}
	return &Forest{
		features:  art.Features,
		threshold: threshold,
		trees:     art.Trees,
	}, nil
}

func (f *Forest) FeatureColumns() []string {
	return f.features
}

// DecisionThreshold is the stop probability at or above which Predict
// labels a row stopped.
func (f *Forest) DecisionThreshold() float64 {
	return f.threshold
}

func (f *Forest) score(row []float64) float64 {
	sum := 0.0
	for _, tree := range f.trees {
		i := 0
		for tree.Nodes[i].Feature >= 0 {
			n := tree.Nodes[i]
			if row[n.Feature] <= n.Threshold {
				i = n.Left
			} else {
				i = n.Right
			}
		}
		sum += tree.Nodes[i].Value
	}
	return clamp01(sum / float64(len(f.trees)))
}

func (f *Forest) validate(features [][]float64) error {
	for i, row := range features {
		if len(row) != len(f.features) {
			return fmt.Errorf("row %d has %d features, artifact expects %d (%v)",
				i, len(row), len(f.features), f.features)
		}
	}
	return nil
}

func (f *Forest) Predict(features [][]float64) ([]bool, error) {
	if err := f.validate(features); err != nil {
		return nil, err
	}
	out := make([]bool, len(features))
	for i, row := range features {
		out[i] = f.score(row) >= f.threshold
	}
	return out, nil
}

func (f *Forest) PredictProba(features [][]float64) ([][2]float64, error) {
	if err := f.validate(features); err != nil {
		return nil, err
	}
	out := make([][2]float64, len(features))
	for i, row := range features {
		p := f.score(row)
		out[i] = [2]float64{1 - p, p}
	}
	return out, nil
}
