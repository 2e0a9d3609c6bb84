// Package aggregate reduces classified records to per-trace statistics for
// the statistics-table and map consumers.
package aggregate

import (
	"time"

	"github.com/golang/geo/s2"
	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/shopspring/decimal"
	"github.com/strayward/stopd/common"
	"github.com/strayward/stopd/types/tracepoint"
)

// CellLevel sizes the S2 cell attached to each trace centroid,
// roughly city-block scale.
const CellLevel = 16

// TraceStatistics is a read-only summary of one (device_id, trace_number)
// group.
type TraceStatistics struct {
	tracepoint.Key

	TotalPoints   int `json:"total_points"`
	StoppedPoints int `json:"stopped_points"`

	// StopRatio is the percentage of the trace's points classified as
	// stopped, rounded to 2 decimals. Zero for an empty trace; the division
	// is guarded.
	StopRatio float64 `json:"stop_ratio"`

	DurationS      float64 `json:"duration_s"`
	TotalDistanceM float64 `json:"total_distance_m"`

	SpeedKmhMean   float64 `json:"speed_kmh_mean"`
	SpeedKmhMedian float64 `json:"speed_kmh_median"`
	SpeedKmhMax    float64 `json:"speed_kmh_max"`

	CentroidLat float64 `json:"centroid_lat"`
	CentroidLon float64 `json:"centroid_lon"`

	// CellToken is the S2 cell token of the centroid at CellLevel.
	CellToken string `json:"s2_cell"`
}

// StopRatioPercent rounds 100*stopped/total to 2 decimals, 0 when total is 0.
func StopRatioPercent(stopped, total int) float64 {
	if total == 0 {
		return 0
	}
	ratio := decimal.NewFromInt(int64(stopped) * 100).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
	f, _ := ratio.Float64()
	return f
}

type group struct {
	records []tracepoint.ClassifiedRecord
}

// Stats groups records by trace key and summarizes each group.
// Group order is the order keys first appear in the input, which is
// deterministic for a given input ordering.
func Stats(records []tracepoint.ClassifiedRecord) []TraceStatistics {
	keys := []tracepoint.Key{}
	groups := map[tracepoint.Key]*group{}
	for i := range records {
		k := records[i].Key()
		g, ok := groups[k]
		if !ok {
			g = &group{}
			groups[k] = g
			keys = append(keys, k)
		}
		g.records = append(g.records, records[i])
	}

	out := make([]TraceStatistics, 0, len(keys))
	for _, k := range keys {
		out = append(out, summarize(k, groups[k].records))
	}
	return out
}

func summarize(k tracepoint.Key, records []tracepoint.ClassifiedRecord) TraceStatistics {
	ts := TraceStatistics{Key: k, TotalPoints: len(records)}
	if len(records) == 0 {
		return ts
	}

	speeds := make([]float64, 0, len(records))
	multipoint := orb.MultiPoint{}
	var firstTime, lastTime time.Time
	for i := range records {
		if records[i].Stopped {
			ts.StoppedPoints++
		}
		ts.TotalDistanceM += records[i].DistanceM
		speeds = append(speeds, records[i].SpeedKmh)
		multipoint = append(multipoint, records[i].Point())
		if firstTime.IsZero() || records[i].Time.Before(firstTime) {
			firstTime = records[i].Time
		}
		if records[i].Time.After(lastTime) {
			lastTime = records[i].Time
		}
	}
	ts.StopRatio = StopRatioPercent(ts.StoppedPoints, ts.TotalPoints)
	ts.DurationS = lastTime.Sub(firstTime).Seconds()

	statsMustFloat := func(fn func() (float64, error)) float64 {
		out, _ := fn()
		return out
	}
	speedData := stats.Float64Data(speeds)
	ts.SpeedKmhMean = common.DecimalToFixed(statsMustFloat(speedData.Mean), 2)
	ts.SpeedKmhMedian = common.DecimalToFixed(statsMustFloat(speedData.Median), 2)
	ts.SpeedKmhMax = common.DecimalToFixed(statsMustFloat(speedData.Max), 2)

	centroid, _ := planar.CentroidArea(multipoint)
	ts.CentroidLon, ts.CentroidLat = centroid.Lon(), centroid.Lat()
	ts.CellToken = s2.CellIDFromLatLng(
		s2.LatLngFromDegrees(ts.CentroidLat, ts.CentroidLon)).
		Parent(CellLevel).ToToken()

	return ts
}
