package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/strayward/stopd/stream"
	"github.com/strayward/stopd/types/tracepoint"
	"github.com/tidwall/gjson"
)

// ReadNDJSON parses JSON-lines uploads carrying the same schema as the CSV
// ingress: one object per line with geom_wkt, trace_number, device_id, ts.
// Same batch-fatal policy as ReadCSV.
func ReadNDJSON(r io.Reader) ([]tracepoint.TracePoint, error) {
	met := stream.NewScanMeter(5 * time.Second)
	defer met.Stop()

	points := make([]tracepoint.TracePoint, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return nil, fmt.Errorf("%w: not JSON: %s", ErrMalformedValue, line)
		}
		for _, required := range RequiredColumns {
			if !gjson.GetBytes(line, required).Exists() {
				return nil, fmt.Errorf("%w: %q in line: %s", ErrMissingColumn, required, line)
			}
		}

		row := []string{
			gjson.GetBytes(line, "geom_wkt").String(),
			gjson.GetBytes(line, "trace_number").String(),
			gjson.GetBytes(line, "device_id").String(),
			gjson.GetBytes(line, "ts").String(),
		}
		cols := map[string]int{"geom_wkt": 0, "trace_number": 1, "device_id": 2, "ts": 3}
		tp, err := rowToPoint(cols, row)
		if err != nil {
			return nil, err
		}
		met.Mark(tp.Time, line)
		points = append(points, tp)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedValue, err)
	}

	sortPoints(points)
	return points, nil
}
