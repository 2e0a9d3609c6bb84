// Package features derives per-point motion features from ordered traces:
// distance from the previous point, elapsed time, and speed.
//
// Derivation is a single-pass fold with one backward-looking accumulator.
// The accumulator resets whenever the (device_id, trace_number) key changes,
// so the previous point used for distance and time always belongs to the
// same trace. State never leaks across trace boundaries.
package features

import (
	"context"
	"sync"

	"github.com/paulmach/orb/geo"
	"github.com/strayward/stopd/common"
	"github.com/strayward/stopd/stream"
	"github.com/strayward/stopd/types/tracepoint"
)

// Deriver folds ordered TracePoints into FeatureRecords.
// Not safe for concurrent use; run one Deriver per sequence.
type Deriver struct {
	prev     tracepoint.TracePoint
	havePrev bool
}

func NewDeriver() *Deriver {
	return &Deriver{}
}

// Add consumes the next point in sequence and returns its FeatureRecord.
// The first point overall, and the first point after any trace-key change,
// gets all-zero derived fields.
func (d *Deriver) Add(tp tracepoint.TracePoint) tracepoint.FeatureRecord {
	rec := tracepoint.FeatureRecord{TracePoint: tp}

	if d.havePrev && d.prev.Key() == tp.Key() {
		rec.DistanceM = geo.Distance(d.prev.Point(), tp.Point())
		rec.TimeDiffS = tp.Time.Sub(d.prev.Time).Seconds()
		if rec.TimeDiffS > 0 {
			rec.SpeedKmh = rec.DistanceM / rec.TimeDiffS * common.KmhPerMps
		}
	}

	d.prev = tp
	d.havePrev = true
	return rec
}

// Reset clears the accumulator, as at a trace boundary.
func (d *Deriver) Reset() {
	d.havePrev = false
}

// Derive streams FeatureRecords from ordered points.
func Derive(ctx context.Context, in <-chan tracepoint.TracePoint) <-chan tracepoint.FeatureRecord {
	d := NewDeriver()
	return stream.Transform(ctx, d.Add, in)
}

// DeriveSlice folds an ordered slice in place of a channel pipeline.
func DeriveSlice(points []tracepoint.TracePoint) []tracepoint.FeatureRecord {
	d := NewDeriver()
	out := make([]tracepoint.FeatureRecord, 0, len(points))
	for _, tp := range points {
		out = append(out, d.Add(tp))
	}
	return out
}

// DeriveGrouped derives features with per-trace parallelism.
// Traces are independent during derivation (no cross-trace state), so each
// contiguous trace segment is folded on its own worker. Output preserves
// the input order exactly.
func DeriveGrouped(ctx context.Context, points []tracepoint.TracePoint, workers int) []tracepoint.FeatureRecord {
	if workers < 2 || len(points) == 0 {
		return DeriveSlice(points)
	}

	type segment struct{ start, end int }
	segments := []segment{}
	start := 0
	for i := 1; i <= len(points); i++ {
		if i == len(points) || points[i].Key() != points[start].Key() {
			segments = append(segments, segment{start, i})
			start = i
		}
	}

	out := make([]tracepoint.FeatureRecord, len(points))
	sem := make(chan struct{}, workers)
	wg := sync.WaitGroup{}
	for _, seg := range segments {
		select {
		case <-ctx.Done():
			return out
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(seg segment) {
			defer wg.Done()
			defer func() { <-sem }()
			d := NewDeriver()
			for i := seg.start; i < seg.end; i++ {
				out[i] = d.Add(points[i])
			}
		}(seg)
	}
	wg.Wait()
	return out
}
