package predictor

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/strayward/stopd/testing/testdata"
)

func loadTestForest(t *testing.T) *Forest {
	t.Helper()
	b, err := os.ReadFile(testdata.Path(testdata.Source_StopForest))
	if err != nil {
		t.Fatal(err)
	}
	f, err := ParseForest(b)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestParseForest(t *testing.T) {
	f := loadTestForest(t)
	want := []string{"distance_m", "lat", "lon"}
	got := f.FeatureColumns()
	if len(got) != len(want) {
		t.Fatalf("got columns %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if f.DecisionThreshold() != 0.5 {
		t.Errorf("got threshold %v, want 0.5", f.DecisionThreshold())
	}
}

func TestParseForestRejectsCorruption(t *testing.T) {
	cases := []struct {
		name string
		blob string
	}{
		{"not json", `{{{`},
		{"wrong format", `{"format":"somebody-elses.v9","features":["x"],"trees":[{"nodes":[{"feature":-1,"value":1}]}]}`},
		{"no trees", `{"format":"stop-forest.v1","features":["x"],"trees":[]}`},
		{"no features", `{"format":"stop-forest.v1","features":[],"trees":[{"nodes":[{"feature":-1,"value":1}]}]}`},
		{"empty tree", `{"format":"stop-forest.v1","features":["x"],"trees":[{"nodes":[]}]}`},
		{"feature out of range", `{"format":"stop-forest.v1","features":["x"],"trees":[{"nodes":[{"feature":3,"threshold":0,"left":0,"right":0}]}]}`},
		{"child out of range", `{"format":"stop-forest.v1","features":["x"],"trees":[{"nodes":[{"feature":0,"threshold":0,"left":5,"right":1},{"feature":-1,"value":1}]}]}`},
		{"self-cycle", `{"format":"stop-forest.v1","features":["x"],"trees":[{"nodes":[{"feature":0,"threshold":0,"left":0,"right":0}]}]}`},
		{"backward edge", `{"format":"stop-forest.v1","features":["x"],"trees":[{"nodes":[{"feature":-1,"value":1},{"feature":0,"threshold":0,"left":0,"right":0}]}]}`},
	}
	for _, c := range cases {
		if _, err := ParseForest([]byte(c.blob)); !errors.Is(err, ErrModelUnavailable) {
			t.Errorf("%s: got %v, want ErrModelUnavailable", c.name, err)
		}
	}
}

func TestForestPredict(t *testing.T) {
	f := loadTestForest(t)
	rows := [][]float64{
		{0, 46.94, 7.44},    // no displacement
		{13.5, 46.94, 7.44}, // moving
	}
	labels, err := f.Predict(rows)
	if err != nil {
		t.Fatal(err)
	}
	if !labels[0] || labels[1] {
		t.Errorf("got labels %v, want [true false]", labels)
	}

	probas, err := f.PredictProba(rows)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range probas {
		if math.Abs(p[0]+p[1]-1) > 1e-9 {
			t.Errorf("row %d: class probabilities %v do not sum to 1", i, p)
		}
	}
	if probas[0][1] != 0.9 || probas[1][1] != 0.1 {
		t.Errorf("got stop probabilities %v %v, want 0.9 0.1", probas[0][1], probas[1][1])
	}
}

func TestForestPredictRowWidth(t *testing.T) {
	f := loadTestForest(t)
	if _, err := f.Predict([][]float64{{1, 2}}); err == nil {
		t.Error("short row should error")
	}
}

func TestLoadCachesByIdentifier(t *testing.T) {
	ctx := context.Background()
	path := testdata.Path(testdata.Source_StopForest)
	a, err := Load(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Load(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("second Load of the same identifier should return the cached instance")
	}

	if _, err := Load(ctx, ""); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("empty identifier: got %v, want ErrModelUnavailable", err)
	}
}
