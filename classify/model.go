package classify

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/strayward/stopd/classify/predictor"
	"github.com/strayward/stopd/params"
	"github.com/strayward/stopd/types/tracepoint"
)

// ModelFeatureColumns is the ordered feature set the pre-trained classifier
// was fitted on. time_diff_s and speed_kmh are deliberately excluded: speed
// is derivable from distance and the label-correlated dwell duration, so
// including them would leak the label into the features.
var ModelFeatureColumns = []string{"distance_m", "lat", "lon"}

// FeatureMatrix builds the ordered feature matrix for the model path,
// rows = points, columns = ModelFeatureColumns. No row is filtered.
// A non-finite value is a feature mismatch, not a skip.
func FeatureMatrix(records []tracepoint.FeatureRecord) ([][]float64, error) {
	matrix := make([][]float64, 0, len(records))
	for i := range records {
		row := []float64{records[i].DistanceM, records[i].Lat, records[i].Lon}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d column %q is not finite",
					ErrFeatureMismatch, i, ModelFeatureColumns[j])
			}
		}
		matrix = append(matrix, row)
	}
	return matrix, nil
}

// ModelClassifier queries an opaque pre-trained binary classifier for a
// label and stop probability per point. It never drops rows; output count
// and order match input exactly.
type ModelClassifier struct {
	config *params.ModelClassifierConfig
	logger *slog.Logger
}

func NewModelClassifier(config *params.ModelClassifierConfig) *ModelClassifier {
	if config == nil {
		config = params.DefaultModelClassifierConfig
	}
	return &ModelClassifier{
		config: config,
		logger: slog.With("classifier", "model"),
	}
}

func (c *ModelClassifier) Classify(ctx context.Context, records []tracepoint.FeatureRecord) ([]tracepoint.ClassifiedRecord, error) {
	matrix, err := FeatureMatrix(records)
	if err != nil {
		return nil, err
	}

	// Artifacts load at most once per identifier and are read-only after;
	// Load hits the cache on every call but the first.
	p, err := predictor.Load(ctx, c.config.Path)
	if err != nil {
		return nil, err
	}
	if got := p.FeatureColumns(); !columnsEqual(got, ModelFeatureColumns) {
		return nil, fmt.Errorf("%w: artifact expects %v, pipeline derives %v",
			ErrFeatureMismatch, got, ModelFeatureColumns)
	}

	probas, err := p.PredictProba(matrix)
	if err != nil {
		return nil, err
	}
	if len(probas) != len(records) {
		return nil, fmt.Errorf("%w: predicted %d probabilities for %d rows",
			ErrFeatureMismatch, len(probas), len(records))
	}

	var labels []bool
	if th := c.config.DecisionThreshold; th > 0 && th < 1 {
		// Caller override: re-derive labels from the probabilities instead
		// of trusting the artifact's built-in threshold.
		labels = make([]bool, len(probas))
		for i := range probas {
			labels[i] = probas[i][1] >= th
		}
	} else {
		labels, err = p.Predict(matrix)
		if err != nil {
			return nil, err
		}
	}
	if len(labels) != len(records) {
		return nil, fmt.Errorf("%w: predicted %d labels for %d rows",
			ErrFeatureMismatch, len(labels), len(records))
	}

	out := make([]tracepoint.ClassifiedRecord, 0, len(records))
	stops := 0
	for i := range records {
		cr := tracepoint.ClassifiedRecord{
			FeatureRecord:   records[i],
			Stopped:         labels[i],
			StopProbability: probas[i][1],
		}
		if cr.Stopped {
			stops++
		}
		out = append(out, cr)
	}
	c.logger.Info("Predictions complete", "stops", stops, "points", len(out))
	return out, nil
}

func columnsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
