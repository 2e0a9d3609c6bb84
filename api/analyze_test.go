package api

import (
	"context"
	"os"
	"testing"

	"github.com/strayward/stopd/params"
	"github.com/strayward/stopd/testing/testdata"
)

func openFixture(t *testing.T, rel string) *os.File {
	t.Helper()
	f, err := os.Open(testdata.Path(rel))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestAnalyzeCSVRule(t *testing.T) {
	a, err := NewAnalyzer(nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	result, err := a.AnalyzeCSV(context.Background(), openFixture(t, testdata.Source_TracesCSV))
	if err != nil {
		t.Fatal(err)
	}

	// Device 1: trace head and the 3s blip are dropped, one real stop and
	// two moving points survive. Device 2: head dropped, one moving point.
	if len(result.Records) != 4 {
		t.Fatalf("got %d records, want 4", len(result.Records))
	}
	if len(result.Stats) != 2 {
		t.Fatalf("got %d traces, want 2", len(result.Stats))
	}

	d1 := result.Stats[0]
	if d1.DeviceID != 1 || d1.TotalPoints != 3 || d1.StoppedPoints != 1 {
		t.Errorf("device 1 stats: %+v", d1)
	}
	if d1.StopRatio != 33.33 {
		t.Errorf("device 1 stop ratio: got %v, want 33.33", d1.StopRatio)
	}

	d2 := result.Stats[1]
	if d2.DeviceID != 2 || d2.TotalPoints != 1 || d2.StoppedPoints != 0 || d2.StopRatio != 0 {
		t.Errorf("device 2 stats: %+v", d2)
	}
}

func TestAnalyzeCSVModel(t *testing.T) {
	ccfg := params.DefaultClassifierConfig()
	ccfg.Mode = params.ClassifierModeModel
	ccfg.Model = &params.ModelClassifierConfig{
		Path: testdata.Path(testdata.Source_StopForest),
	}
	a, err := NewAnalyzer(ccfg, &params.DeriverConfig{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}

	result, err := a.AnalyzeCSV(context.Background(), openFixture(t, testdata.Source_TracesCSV))
	if err != nil {
		t.Fatal(err)
	}

	// The model path never drops rows.
	if len(result.Records) != 7 {
		t.Fatalf("got %d records, want 7", len(result.Records))
	}
	stopped := 0
	for i := range result.Records {
		if result.Records[i].Stopped {
			stopped++
		}
	}
	// Trace heads and the dwell around second 10 have no displacement.
	if stopped != 4 {
		t.Errorf("got %d stopped records, want 4", stopped)
	}

	matrix, err := result.FeatureMatrix()
	if err != nil {
		t.Fatal(err)
	}
	if len(matrix) != len(result.Records) {
		t.Errorf("feature matrix has %d rows for %d records", len(matrix), len(result.Records))
	}
}

func TestAnalyzeNDJSON(t *testing.T) {
	a, err := NewAnalyzer(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	result, err := a.AnalyzeNDJSON(context.Background(), openFixture(t, testdata.Source_TracesNDJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Stats) != 1 || result.Stats[0].DeviceID != 3 {
		t.Fatalf("stats: %+v", result.Stats)
	}
}

func TestAnalyzeCanceledContext(t *testing.T) {
	a, err := NewAnalyzer(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.AnalyzeCSV(ctx, openFixture(t, testdata.Source_TracesCSV)); err == nil {
		t.Error("canceled context should fail the run")
	}
}
