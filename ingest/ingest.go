// Package ingest normalizes raw trajectory uploads into ordered TracePoints.
//
// One call, one batch: a malformed geometry, id, or timestamp anywhere in the
// input fails the whole batch. Any skip-what-you-can policy across multiple
// uploaded files belongs to the caller (webd does per-file skips), never to
// the normalizer.
package ingest

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/strayward/stopd/types/tracepoint"
)

// ErrMissingColumn is a schema failure: a required input column is absent.
var ErrMissingColumn = errors.New("missing required column")

// ErrMalformedValue is an unparsable geometry, id, or timestamp.
var ErrMalformedValue = errors.New("malformed value")

// RequiredColumns are the columns every raw upload must carry.
var RequiredColumns = []string{"geom_wkt", "trace_number", "device_id", "ts"}

// timestampLayouts are tried in order. RFC3339 is what the recorders emit;
// the rest cover hand-exported spreadsheets.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrMalformedValue, s)
}

// sortPoints establishes canonical ordering: ascending
// (device_id, trace_number, timestamp), input order breaking timestamp ties.
func sortPoints(points []tracepoint.TracePoint) {
	slices.SortStableFunc(points, tracepoint.SortFunc)
}
