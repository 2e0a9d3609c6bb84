// Package api runs the end-to-end analysis pipeline:
// normalize -> derive features -> classify -> aggregate.
//
// Each call processes one dataset and returns it; the Result belongs to the
// caller alone. The Analyzer itself holds no dataset and no other hidden
// mutable state, so one Analyzer may serve concurrent callers. Any
// "last analyzed dataset" convenience is a hosting-layer concern behind an
// explicitly synchronized store (see daemon/webd), never ambient state here.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/strayward/stopd/aggregate"
	"github.com/strayward/stopd/classify"
	"github.com/strayward/stopd/geo/features"
	"github.com/strayward/stopd/params"
	"github.com/strayward/stopd/types/tracepoint"
)

// Result is one pipeline run's output, owned by the caller that requested it.
type Result struct {
	Records []tracepoint.ClassifiedRecord `json:"records"`
	Stats   []aggregate.TraceStatistics   `json:"stats"`
}

// FeatureMatrix rebuilds the model-path feature matrix over the result's
// records, for explainability consumers. Column order matches
// classify.ModelFeatureColumns.
func (r *Result) FeatureMatrix() ([][]float64, error) {
	recs := make([]tracepoint.FeatureRecord, 0, len(r.Records))
	for i := range r.Records {
		recs = append(recs, r.Records[i].FeatureRecord)
	}
	return classify.FeatureMatrix(recs)
}

// Analyzer wires one classifier strategy into the pipeline.
type Analyzer struct {
	classifier classify.Classifier
	deriver    *params.DeriverConfig
	logger     *slog.Logger
}

func NewAnalyzer(ccfg *params.ClassifierConfig, dcfg *params.DeriverConfig) (*Analyzer, error) {
	c, err := classify.New(ccfg)
	if err != nil {
		return nil, err
	}
	if dcfg == nil {
		dcfg = params.DefaultDeriverConfig
	}
	mode := params.ClassifierModeRule
	if ccfg != nil && ccfg.Mode != "" {
		mode = ccfg.Mode
	}
	return &Analyzer{
		classifier: c,
		deriver:    dcfg,
		logger:     slog.With("api", "analyze", "mode", mode),
	}, nil
}

// AnalyzePoints runs the pipeline over already-normalized, ordered points.
func (a *Analyzer) AnalyzePoints(ctx context.Context, points []tracepoint.TracePoint) (*Result, error) {
	started := time.Now()

	derived := features.DeriveGrouped(ctx, points, a.deriver.Workers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	classified, err := a.classifier.Classify(ctx, derived)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Records: classified,
		Stats:   aggregate.Stats(classified),
	}
	a.logger.Info("Analyze done",
		"points", len(points), "records", len(classified),
		"traces", len(result.Stats),
		"elapsed", time.Since(started).Round(time.Millisecond))
	return result, nil
}
