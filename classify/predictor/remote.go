package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Remote scores rows against an external model service, e.g. the training
// stack serving its own fitted model. The service owns the artifact; this
// client only needs /model for metadata and the two scoring endpoints.
type Remote struct {
	base     *url.URL
	client   *http.Client
	features []string
}

type remoteModelInfo struct {
	Name      string   `json:"name"`
	Features  []string `json:"features"`
	Threshold float64  `json:"threshold"`
}

// NewRemote checks the service's /model endpoint once; an unreachable or
// malformed service is ErrModelUnavailable, same as a missing local file.
func NewRemote(ctx context.Context, rawURL string) (*Remote, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	r := &Remote{
		base:   base,
		client: &http.Client{Timeout: 30 * time.Second},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint("model"), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: model info returned %s", ErrModelUnavailable, resp.Status)
	}
	info := remoteModelInfo{}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if len(info.Features) == 0 {
		return nil, fmt.Errorf("%w: service reports no feature columns", ErrModelUnavailable)
	}
	r.features = info.Features
	return r, nil
}

func (r *Remote) endpoint(p string) string {
	u := *r.base
	u.Path, _ = url.JoinPath(u.Path, p)
	return u.String()
}

func (r *Remote) FeatureColumns() []string {
	return r.features
}

type scoreRequest struct {
	Rows [][]float64 `json:"rows"`
}

func (r *Remote) post(path string, rows [][]float64, into any) error {
	body, err := json.Marshal(scoreRequest{Rows: rows})
	if err != nil {
		return err
	}
	resp, err := r.client.Post(r.endpoint(path), "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("score %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("score %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(into)
}

func (r *Remote) Predict(features [][]float64) ([]bool, error) {
	out := struct {
		Labels []bool `json:"labels"`
	}{}
	if err := r.post("predict", features, &out); err != nil {
		return nil, err
	}
	return out.Labels, nil
}

func (r *Remote) PredictProba(features [][]float64) ([][2]float64, error) {
	out := struct {
		Probabilities [][2]float64 `json:"probabilities"`
	}{}
	if err := r.post("predict_proba", features, &out); err != nil {
		return nil, err
	}
	// The service is not ours to trust; keep probabilities in [0,1].
	for i := range out.Probabilities {
		out.Probabilities[i][0] = clamp01(out.Probabilities[i][0])
		out.Probabilities[i][1] = clamp01(out.Probabilities[i][1])
	}
	return out.Probabilities, nil
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
