package classify

import (
	"context"
	"log/slog"

	"github.com/strayward/stopd/params"
	"github.com/strayward/stopd/types/tracepoint"
)

// RuleClassifier applies the threshold-and-duration stop policy:
//
//  1. A point is stopped iff its speed is under SpeedThresholdKmh.
//  2. Moving points are always retained.
//  3. Stopped points are retained only when they represent at least
//     MinStopDuration of dwell (time_diff_s); shorter speed dips are
//     noise, not stops, and are dropped.
//
// Output row count can therefore be smaller than input row count.
// Re-applying the rule to its own output changes nothing: retained stopped
// rows already satisfy both conditions, and moving rows stay moving.
type RuleClassifier struct {
	config *params.RuleClassifierConfig
	logger *slog.Logger
}

func NewRuleClassifier(config *params.RuleClassifierConfig) *RuleClassifier {
	if config == nil {
		config = params.DefaultRuleClassifierConfig
	}
	return &RuleClassifier{
		config: config,
		logger: slog.With("classifier", "rule"),
	}
}

func (c *RuleClassifier) Classify(ctx context.Context, records []tracepoint.FeatureRecord) ([]tracepoint.ClassifiedRecord, error) {
	out := make([]tracepoint.ClassifiedRecord, 0, len(records))
	dropped := 0
	for i := range records {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec := records[i]
		stopped := rec.SpeedKmh < c.config.SpeedThresholdKmh
		if stopped && rec.TimeDiffS < c.config.MinStopDuration.Seconds() {
			dropped++
			continue
		}
		cr := tracepoint.ClassifiedRecord{FeatureRecord: rec, Stopped: stopped}
		if stopped {
			cr.StopProbability = 1
		}
		out = append(out, cr)
	}
	if dropped > 0 {
		c.logger.Debug("Dropped short stops", "n", dropped, "kept", len(out))
	}
	return out, nil
}
