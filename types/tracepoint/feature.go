package tracepoint

import (
	"github.com/paulmach/orb/geojson"
)

// FeatureRecord is a TracePoint enriched with motion features derived from
// its predecessor in the same trace.
// The first point of every trace carries all-zero features; speed is zero
// whenever the time delta is zero (never a division by zero).
type FeatureRecord struct {
	TracePoint

	// DistanceM is the great-circle distance, in meters, from the previous
	// point of the same trace.
	DistanceM float64 `json:"distance_m"`

	// TimeDiffS is seconds elapsed since the previous point of the same trace.
	TimeDiffS float64 `json:"time_diff_s"`

	// SpeedKmh is DistanceM/TimeDiffS * 3.6 when TimeDiffS > 0, else 0.
	SpeedKmh float64 `json:"speed_kmh"`
}

// ClassifiedRecord is a FeatureRecord with a stop/move determination.
type ClassifiedRecord struct {
	FeatureRecord

	Stopped bool `json:"stopped"`

	// StopProbability is the model's stop-class probability in [0,1].
	// The rule-based strategy writes 0 or 1 to keep the field meaningful
	// for both strategies.
	StopProbability float64 `json:"stop_probability"`
}

// GeoJSON renders the record as a Point feature for map consumers.
func (cr *ClassifiedRecord) GeoJSON() *geojson.Feature {
	f := geojson.NewFeature(cr.Point())
	f.Properties["device_id"] = cr.DeviceID
	f.Properties["trace_number"] = cr.TraceNumber
	f.Properties["ts"] = cr.Time
	f.Properties["speed_kmh"] = cr.SpeedKmh
	f.Properties["stopped"] = cr.Stopped
	f.Properties["stop_probability"] = cr.StopProbability
	return f
}
