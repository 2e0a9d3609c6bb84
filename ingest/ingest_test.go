package ingest

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/strayward/stopd/testing/testdata"
	"github.com/strayward/stopd/types/tracepoint"
)

func TestReadCSVFixture(t *testing.T) {
	f, err := os.Open(testdata.Path(testdata.Source_TracesCSV))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	points, err := ReadCSV(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 7 {
		t.Fatalf("got %d points, want 7", len(points))
	}

	// Fixture rows are interleaved across devices; output must be canonical.
	for i := 1; i < len(points); i++ {
		if tracepoint.SortFunc(points[i-1], points[i]) > 0 {
			t.Errorf("points %d and %d out of order: %v then %v",
				i-1, i, points[i-1].StringPretty(), points[i].StringPretty())
		}
	}
	if points[0].DeviceID != 1 || points[5].DeviceID != 2 {
		t.Errorf("unexpected device grouping: %v", points)
	}
	if points[0].Lon != 7.4474 || points[0].Lat != 46.948 {
		t.Errorf("geometry mismatch: lon=%v lat=%v", points[0].Lon, points[0].Lat)
	}
}

func TestReadCSVMissingColumn(t *testing.T) {
	in := "geom_wkt,trace_number,ts\nPOINT (1 2),1,2024-05-01T10:00:00Z\n"
	_, err := ReadCSV(strings.NewReader(in))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("got %v, want ErrMissingColumn", err)
	}
}

func TestReadCSVMalformed(t *testing.T) {
	cases := []struct {
		name string
		row  string
	}{
		{"bad geometry", "NOT WKT,1,1,2024-05-01T10:00:00Z"},
		{"bad device id", "POINT (1 2),1,x,2024-05-01T10:00:00Z"},
		{"bad trace number", "POINT (1 2),x,1,2024-05-01T10:00:00Z"},
		{"bad timestamp", "POINT (1 2),1,1,notatime"},
		{"latitude out of range", "POINT (1 99),1,1,2024-05-01T10:00:00Z"},
	}
	for _, c := range cases {
		in := "geom_wkt,trace_number,device_id,ts\n" + c.row + "\n"
		_, err := ReadCSV(strings.NewReader(in))
		if !errors.Is(err, ErrMalformedValue) {
			t.Errorf("%s: got %v, want ErrMalformedValue", c.name, err)
		}
	}
}

func TestReadCSVEmpty(t *testing.T) {
	points, err := ReadCSV(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 0 {
		t.Fatalf("got %d points, want 0", len(points))
	}
}

func TestReadCSVTimestampLayouts(t *testing.T) {
	in := `geom_wkt,trace_number,device_id,ts
POINT (1 2),1,1,2024-05-01T10:00:00Z
POINT (1 2),1,1,2024-05-01T10:00:01
POINT (1 2),1,1,2024-05-01 10:00:02
POINT (1 2),1,1,2024-05-01 10:00:03.250000
`
	points, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 4 {
		t.Fatalf("got %d points, want 4", len(points))
	}
}

func TestReadNDJSONFixture(t *testing.T) {
	f, err := os.Open(testdata.Path(testdata.Source_TracesNDJSON))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	points, err := ReadNDJSON(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	for _, tp := range points {
		if tp.DeviceID != 3 || tp.TraceNumber != 1 {
			t.Errorf("unexpected key %v", tp.Key())
		}
	}
}

func TestReadNDJSONErrors(t *testing.T) {
	_, err := ReadNDJSON(strings.NewReader(`{"geom_wkt":"POINT (1 2)","device_id":1,"ts":"2024-05-01T10:00:00Z"}`))
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("missing column: got %v", err)
	}
	_, err = ReadNDJSON(strings.NewReader(`not json at all`))
	if !errors.Is(err, ErrMalformedValue) {
		t.Errorf("invalid json: got %v", err)
	}
}

func TestDedupePassLRUFunc(t *testing.T) {
	pass := NewDedupePassLRUFunc()
	tp := tracepoint.TracePoint{DeviceID: 1, TraceNumber: 1, Lon: 7.44, Lat: 46.94}
	if !pass(tp) {
		t.Error("first sighting should pass")
	}
	if pass(tp) {
		t.Error("repeat sighting should not pass")
	}
	tp.Lon += 0.0001
	if !pass(tp) {
		t.Error("distinct point should pass")
	}
}
