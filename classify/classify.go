// Package classify labels FeatureRecords as stopped or moving.
//
// Two interchangeable strategies exist behind the Classifier interface:
// a deterministic rule with a minimum-duration filter, and a pre-trained
// statistical model consumed as an opaque artifact. The strategies differ
// on one deliberate point: the rule path drops noise rows (its output can
// shrink), while the model path is label-only and never drops a row.
// Callers comparing stop counts across strategies are comparing a filtered
// dataset against an unfiltered one.
package classify

import (
	"context"
	"errors"
	"fmt"

	"github.com/strayward/stopd/classify/predictor"
	"github.com/strayward/stopd/params"
	"github.com/strayward/stopd/types/tracepoint"
)

// ErrModelUnavailable re-exports the predictor sentinel: the classifier
// artifact could not be located or loaded. Rule-based classification is
// unaffected by it.
var ErrModelUnavailable = predictor.ErrModelUnavailable

// ErrFeatureMismatch means the derived input is missing, or disagrees with,
// a feature column the model expects.
var ErrFeatureMismatch = errors.New("feature mismatch")

// Classifier is the swappable stop/move strategy.
// Implementations are pure over their input: no hidden shared mutable
// state, safe for concurrent use by independent pipeline runs.
type Classifier interface {
	Classify(ctx context.Context, records []tracepoint.FeatureRecord) ([]tracepoint.ClassifiedRecord, error)
}

// New selects a strategy from caller configuration.
func New(cfg *params.ClassifierConfig) (Classifier, error) {
	if cfg == nil {
		cfg = params.DefaultClassifierConfig()
	}
	switch cfg.Mode {
	case params.ClassifierModeRule, "":
		return NewRuleClassifier(cfg.Rule), nil
	case params.ClassifierModeModel:
		return NewModelClassifier(cfg.Model), nil
	}
	return nil, fmt.Errorf("unknown classifier mode: %q", cfg.Mode)
}
