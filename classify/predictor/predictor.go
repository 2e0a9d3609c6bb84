// Package predictor treats the pre-trained stop classifier as an opaque,
// loadable capability: predict a label and a class probability per feature
// row. Nothing here assumes a training framework; an artifact is whatever
// answers those two questions.
//
// Identifiers resolve by scheme: a plain path loads a serialized forest from
// disk, s3://bucket/key fetches the same from S3, and http(s):// speaks to a
// remote scoring service. Artifacts load at most once per identifier and are
// never mutated after load, so one loaded artifact is safe for any number of
// concurrent pipeline runs.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ErrModelUnavailable means the artifact could not be located, fetched,
// or understood.
var ErrModelUnavailable = errors.New("model unavailable")

// Predictor is the capability surface of a loaded artifact.
type Predictor interface {
	// FeatureColumns is the ordered feature set the artifact was fitted on.
	FeatureColumns() []string

	// Predict returns one binary stopped label per feature row.
	Predict(features [][]float64) ([]bool, error)

	// PredictProba returns [P(moving), P(stopped)] per feature row.
	PredictProba(features [][]float64) ([][2]float64, error)
}

var (
	loadMu sync.Mutex
	loaded = map[string]Predictor{}
)

// Load resolves an artifact identifier, loading it on first use and
// returning the cached instance afterwards.
func Load(ctx context.Context, path string) (Predictor, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no artifact path configured", ErrModelUnavailable)
	}
	loadMu.Lock()
	defer loadMu.Unlock()
	if p, ok := loaded[path]; ok {
		return p, nil
	}
	p, err := load(ctx, path)
	if err != nil {
		return nil, err
	}
	loaded[path] = p
	return p, nil
}

func load(ctx context.Context, path string) (Predictor, error) {
	switch {
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return NewRemote(ctx, path)
	case strings.HasPrefix(path, "s3://"):
		b, err := fetchS3(ctx, path)
		if err != nil {
			return nil, err
		}
		return ParseForest(b)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return ParseForest(b)
}
