package api

import (
	"context"
	"io"

	"github.com/strayward/stopd/ingest"
)

// AnalyzeCSV normalizes a raw CSV upload and runs the pipeline over it.
func (a *Analyzer) AnalyzeCSV(ctx context.Context, r io.Reader) (*Result, error) {
	points, err := ingest.ReadCSV(r)
	if err != nil {
		return nil, err
	}
	return a.AnalyzePoints(ctx, points)
}

// AnalyzeNDJSON is AnalyzeCSV for JSON-lines uploads.
func (a *Analyzer) AnalyzeNDJSON(ctx context.Context, r io.Reader) (*Result, error) {
	points, err := ingest.ReadNDJSON(r)
	if err != nil {
		return nil, err
	}
	return a.AnalyzePoints(ctx, points)
}
