package tracepoint

import (
	"cmp"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/strayward/stopd/common"
)

// TracePoint is one recorded GPS fix belonging to exactly one trace.
// A trace is the ordered run of points sharing (device_id, trace_number):
// one device, one continuous logging session.
// Coordinates are WGS84 decimal degrees. Time granularity is whatever the
// recorder gave us; ordering within a trace is by Time, input order breaking
// ties.
type TracePoint struct {
	DeviceID    int       `json:"device_id"`
	TraceNumber int       `json:"trace_number"`
	Time        time.Time `json:"ts"`
	Lon         float64   `json:"lon"`
	Lat         float64   `json:"lat"`
}

// Key identifies the trace a point belongs to.
type Key struct {
	DeviceID    int `json:"device_id"`
	TraceNumber int `json:"trace_number"`
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d", k.DeviceID, k.TraceNumber)
}

func (tp *TracePoint) Key() Key {
	return Key{DeviceID: tp.DeviceID, TraceNumber: tp.TraceNumber}
}

// Point returns the orb geometry, x/y::lon/lat.
func (tp *TracePoint) Point() orb.Point {
	return orb.Point{tp.Lon, tp.Lat}
}

// Validate checks the point for basic validity,
// returning the first error it encounters.
func (tp *TracePoint) Validate() error {
	if tp.Lat < -90 || tp.Lat > 90 {
		return fmt.Errorf("invalid coordinate: lat=%.14f", tp.Lat)
	}
	if tp.Lon < -180 || tp.Lon > 180 {
		return fmt.Errorf("invalid coordinate: lon=%.14f", tp.Lon)
	}
	if tp.Time.IsZero() {
		return fmt.Errorf("zero time")
	}
	return nil
}

// SortFunc implements slices.SortStableFunc ordering for normalized input:
// ascending (device_id, trace_number, timestamp).
// Equal timestamps compare equal so a stable sort preserves input order,
// which is the documented tie-break.
// > cmp(a, b) should return a negative number when a < b,
// > a positive number when a > b, and zero when a == b
func SortFunc(a, b TracePoint) int {
	if c := cmp.Compare(a.DeviceID, b.DeviceID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.TraceNumber, b.TraceNumber); c != 0 {
		return c
	}
	return cmp.Compare(a.Time.UnixNano(), b.Time.UnixNano())
}

func (tp *TracePoint) StringPretty() string {
	return fmt.Sprintf("%s %s [%v,%v]",
		tp.Key(),
		tp.Time.In(time.Local).Format("2006-01-02 15:04:05"),
		common.DecimalToFixed(tp.Lat, common.GPSPrecision5),
		common.DecimalToFixed(tp.Lon, common.GPSPrecision5),
	)
}
