package webd

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/strayward/stopd/aggregate"
	"github.com/strayward/stopd/api"
	"github.com/strayward/stopd/classify"
	"github.com/strayward/stopd/ingest"
	"github.com/strayward/stopd/params"
	"github.com/strayward/stopd/types/tracepoint"
)

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type webDaemonStatus struct {
	StartedAt time.Time               `json:"started_at"`
	Uptime    string                  `json:"uptime"`
	Config    *params.WebDaemonConfig `json:"config"`
	WSOpen    bool                    `json:"ws_open"`
	WSConns   int                     `json:"ws_conns"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	st := webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		WSOpen:    !s.melodyInstance.IsClosed(),
		WSConns:   s.melodyInstance.Len(),
		Config:    s.Config,
	}
	j, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal status", "error", err)
		http.Error(w, "Failed to marshal status", http.StatusInternalServerError)
		return
	}
	_, err = w.Write(j)
	if err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

type analyzeResponse struct {
	ID      string                      `json:"id"`
	Records int                         `json:"records"`
	Stats   []aggregate.TraceStatistics `json:"stats"`
	Skipped []string                    `json:"skipped,omitempty"`
}

// handleAnalyze accepts a multipart upload of CSV and/or NDJSON trace files,
// runs the pipeline over the combined points, and answers with per-trace
// statistics. A file that fails normalization is skipped and reported in the
// response; it never poisons the rest of the upload. A single bad row inside
// a file still rejects that whole file.
func (s *WebDaemon) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.Config.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse multipart form: %v", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "No files uploaded (use form field 'files')", http.StatusBadRequest)
		return
	}
	if len(files) > s.Config.MaxUploadFiles {
		http.Error(w, fmt.Sprintf("Too many files (max %d)", s.Config.MaxUploadFiles), http.StatusBadRequest)
		return
	}

	dedupe := ingest.NewDedupePassLRUFunc()
	var points []tracepoint.TracePoint
	var skipped []string
	for _, fh := range files {
		pts, err := readUpload(fh)
		if err != nil {
			s.logger.Warn("Skipping upload file", "file", fh.Filename, "error", err)
			skipped = append(skipped, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		for _, tp := range pts {
			if dedupe(tp) {
				points = append(points, tp)
			}
		}
	}
	if len(points) == 0 {
		http.Error(w, "No valid points in upload", http.StatusUnprocessableEntity)
		return
	}

	// Files arrive in arbitrary order; restore the global ordering contract.
	slices.SortStableFunc(points, tracepoint.SortFunc)

	result, err := s.analyzer.AnalyzePoints(r.Context(), points)
	if err != nil {
		s.logger.Error("Analyze failed", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, classify.ErrModelUnavailable) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, fmt.Sprintf("Analyze failed: %v", err), status)
		return
	}

	id := time.Now().UTC().Format("20060102T150405.000000000")
	s.results.Add(id, result)
	if s.store != nil {
		if err := s.store.WriteRun(id, result.Records, result.Stats); err != nil {
			s.logger.Error("Failed to persist run", "id", id, "error", err)
		}
	}
	s.feedAnalyzed.Send(result.Stats)

	resp := analyzeResponse{
		ID:      id,
		Records: len(result.Records),
		Stats:   result.Stats,
		Skipped: skipped,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

func readUpload(fh *multipart.FileHeader) ([]tracepoint.TracePoint, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(fh.Filename)) {
	case ".json", ".ndjson", ".geojson":
		return ingest.ReadNDJSON(f)
	default:
		return ingest.ReadCSV(f)
	}
}

func (s *WebDaemon) handleLastStats(w http.ResponseWriter, r *http.Request) {
	if res := s.results.Last(); res != nil {
		s.writeStats(w, res.Stats)
		return
	}
	if s.store != nil {
		stats, err := s.store.LastStats()
		if err == nil {
			s.writeStats(w, stats)
			return
		}
	}
	http.Error(w, "Nothing analyzed yet", http.StatusNotFound)
}

func (s *WebDaemon) handleRunStats(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if res, ok := s.results.Get(id); ok {
		s.writeStats(w, res.Stats)
		return
	}
	if s.store != nil {
		stats, err := s.store.RunStats(id)
		if err == nil {
			s.writeStats(w, stats)
			return
		}
	}
	http.Error(w, fmt.Sprintf("No run %q", id), http.StatusNotFound)
}

func (s *WebDaemon) writeStats(w http.ResponseWriter, stats []aggregate.TraceStatistics) {
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

// handlePoints streams a run's classified points as NDJSON GeoJSON features.
// Without an id it streams the last analyzed run.
func (s *WebDaemon) handlePoints(w http.ResponseWriter, r *http.Request) {
	var res *api.Result
	if id, ok := mux.Vars(r)["id"]; ok {
		res, _ = s.results.Get(id)
	} else {
		res = s.results.Last()
	}
	if res == nil {
		http.Error(w, "No cached run", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	enc := json.NewEncoder(w)
	for i := range res.Records {
		if err := enc.Encode(res.Records[i].GeoJSON()); err != nil {
			s.logger.Warn("Failed to write response", "error", err)
			return
		}
	}
}

type featuresResponse struct {
	Columns []string    `json:"columns"`
	Matrix  [][]float64 `json:"matrix"`
}

// handleFeatures exposes the model-path feature matrix of a cached run,
// for inspecting exactly what a model classifier would have seen.
func (s *WebDaemon) handleFeatures(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	res, ok := s.results.Get(id)
	if !ok {
		http.Error(w, fmt.Sprintf("No cached run %q", id), http.StatusNotFound)
		return
	}
	matrix, err := res.FeatureMatrix()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to build feature matrix: %v", err), http.StatusInternalServerError)
		return
	}
	resp := featuresResponse{
		Columns: classify.ModelFeatureColumns,
		Matrix:  matrix,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}
