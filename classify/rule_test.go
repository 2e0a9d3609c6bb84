package classify

import (
	"context"
	"testing"
	"time"

	"github.com/strayward/stopd/params"
	"github.com/strayward/stopd/types/tracepoint"
)

var testT0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func featRec(sec int, speedKmh, timeDiffS float64) tracepoint.FeatureRecord {
	return tracepoint.FeatureRecord{
		TracePoint: tracepoint.TracePoint{
			DeviceID: 1, TraceNumber: 1,
			Time: testT0.Add(time.Duration(sec) * time.Second),
			Lon:  7.44, Lat: 46.94,
		},
		SpeedKmh:  speedKmh,
		TimeDiffS: timeDiffS,
		DistanceM: speedKmh * timeDiffS / 3.6,
	}
}

func TestRuleClassifier(t *testing.T) {
	c := NewRuleClassifier(nil)
	records := []tracepoint.FeatureRecord{
		featRec(0, 0, 0),    // trace head: stopped, no dwell, dropped
		featRec(5, 8.0, 5),  // moving, kept
		featRec(10, 0.5, 5), // stopped with full dwell, kept
		featRec(13, 0.2, 3), // stopped blip, dropped
		featRec(20, 6.9, 7), // moving, kept
	}

	out, err := c.Classify(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d records, want 3", len(out))
	}

	wantStopped := []bool{false, true, false}
	for i := range out {
		if out[i].Stopped != wantStopped[i] {
			t.Errorf("record %d: stopped=%v, want %v", i, out[i].Stopped, wantStopped[i])
		}
		wantProb := 0.0
		if wantStopped[i] {
			wantProb = 1.0
		}
		if out[i].StopProbability != wantProb {
			t.Errorf("record %d: stop_probability=%v, want %v", i, out[i].StopProbability, wantProb)
		}
	}
}

func TestRuleClassifierIdempotent(t *testing.T) {
	c := NewRuleClassifier(nil)
	records := []tracepoint.FeatureRecord{
		featRec(0, 0, 0),
		featRec(5, 8.0, 5),
		featRec(10, 0.5, 5),
		featRec(13, 0.2, 3),
	}
	once, err := c.Classify(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}

	again := make([]tracepoint.FeatureRecord, 0, len(once))
	for i := range once {
		again = append(again, once[i].FeatureRecord)
	}
	twice, err := c.Classify(context.Background(), again)
	if err != nil {
		t.Fatal(err)
	}
	if len(twice) != len(once) {
		t.Fatalf("second pass changed row count: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("record %d changed on second pass: %+v -> %+v", i, once[i], twice[i])
		}
	}
}

func TestRuleClassifierThresholdBoundary(t *testing.T) {
	c := NewRuleClassifier(&params.RuleClassifierConfig{
		SpeedThresholdKmh: 1.0,
		MinStopDuration:   5 * time.Second,
	})
	// Exactly at the threshold is moving, strictly below is stopped.
	out, err := c.Classify(context.Background(), []tracepoint.FeatureRecord{
		featRec(0, 1.0, 10),
		featRec(5, 0.999, 10),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
	if out[0].Stopped {
		t.Error("speed exactly at threshold should be moving")
	}
	if !out[1].Stopped {
		t.Error("speed below threshold should be stopped")
	}
}

func TestNewClassifierModes(t *testing.T) {
	if _, err := New(nil); err != nil {
		t.Errorf("nil config should default to the rule strategy: %v", err)
	}
	if _, err := New(&params.ClassifierConfig{Mode: "astrology"}); err == nil {
		t.Error("unknown mode should error")
	}
}
