package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/strayward/stopd/stream"
	"github.com/strayward/stopd/types/tracepoint"
)

// ReadCSV parses a raw CSV upload into canonically ordered TracePoints.
// The header must include every RequiredColumns name; extra columns are
// ignored. Geometry is a well-known-text point, x/y::lon/lat.
func ReadCSV(r io.Reader) ([]tracepoint.TracePoint, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return []tracepoint.TracePoint{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedValue, err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range RequiredColumns {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %q (have %v)", ErrMissingColumn, required, header)
		}
	}

	met := stream.NewScanMeter(5 * time.Second)
	defer met.Stop()

	points := make([]tracepoint.TracePoint, 0)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row: %v", ErrMalformedValue, err)
		}

		tp, err := rowToPoint(cols, row)
		if err != nil {
			return nil, err
		}
		met.Mark(tp.Time, []byte(row[cols["geom_wkt"]]))
		points = append(points, tp)
	}

	sortPoints(points)
	return points, nil
}

// ReadCSVBytes is ReadCSV over an in-memory upload.
func ReadCSVBytes(b []byte) ([]tracepoint.TracePoint, error) {
	return ReadCSV(bytes.NewReader(b))
}

func rowToPoint(cols map[string]int, row []string) (tracepoint.TracePoint, error) {
	tp := tracepoint.TracePoint{}
	for _, required := range RequiredColumns {
		if cols[required] >= len(row) {
			return tp, fmt.Errorf("%w: short row %v", ErrMalformedValue, row)
		}
	}

	pt, err := wkt.UnmarshalPoint(row[cols["geom_wkt"]])
	if err != nil {
		return tp, fmt.Errorf("%w: geometry %q: %v", ErrMalformedValue, row[cols["geom_wkt"]], err)
	}
	tp.Lon, tp.Lat = pt.Lon(), pt.Lat()

	tp.DeviceID, err = strconv.Atoi(row[cols["device_id"]])
	if err != nil {
		return tp, fmt.Errorf("%w: device_id %q", ErrMalformedValue, row[cols["device_id"]])
	}
	tp.TraceNumber, err = strconv.Atoi(row[cols["trace_number"]])
	if err != nil {
		return tp, fmt.Errorf("%w: trace_number %q", ErrMalformedValue, row[cols["trace_number"]])
	}

	tp.Time, err = parseTimestamp(row[cols["ts"]])
	if err != nil {
		return tp, err
	}

	if err := tp.Validate(); err != nil {
		return tp, fmt.Errorf("%w: %v", ErrMalformedValue, err)
	}
	return tp, nil
}
