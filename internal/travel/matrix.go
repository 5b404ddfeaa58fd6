package travel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/urbansight/geocore/internal/geoerr"
)

const (
	defaultMatrixTimeout = 10 * time.Second
	defaultMatrixQPS     = 10
	maxPairsPerRequest   = 100
)

// MatrixClient queries an external travel-time matrix API over HTTP. Requests
// are rate limited and retried on transient failures; anything that still
// fails surfaces as a provider-unavailable error so Failover can degrade to
// the geometric estimator.
type MatrixClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      geoerr.RetryConfig
}

// MatrixOption customizes a MatrixClient.
type MatrixOption func(*MatrixClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) MatrixOption {
	return func(m *MatrixClient) { m.httpClient = c }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(qps float64, burst int) MatrixOption {
	return func(m *MatrixClient) { m.limiter = rate.NewLimiter(rate.Limit(qps), burst) }
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg geoerr.RetryConfig) MatrixOption {
	return func(m *MatrixClient) { m.retry = cfg }
}

// NewMatrixClient returns a client for the matrix API at baseURL.
func NewMatrixClient(baseURL, apiKey string, opts ...MatrixOption) *MatrixClient {
	m := &MatrixClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultMatrixTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultMatrixQPS), defaultMatrixQPS),
		retry:      geoerr.DefaultRetryConfig(),
	}
	m.retry.OnRetry = geoerr.RetryLogger("travel", "matrix")
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements Provider.
func (m *MatrixClient) Name() string { return "matrix" }

type matrixPair struct {
	Origin      matrixPoint `json:"origin"`
	Destination matrixPoint `json:"destination"`
}

type matrixPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type matrixRequest struct {
	Pairs []matrixPair `json:"pairs"`
	Mode  string       `json:"mode"`
}

type matrixResponse struct {
	Results []matrixResult `json:"results"`
}

type matrixResult struct {
	Status          string  `json:"status"`
	DurationSeconds float64 `json:"duration_seconds"`
	DistanceMeters  float64 `json:"distance_meters"`
}

// Estimate implements Provider.
func (m *MatrixClient) Estimate(ctx context.Context, q Query) (Estimate, error) {
	ests, err := m.EstimateMany(ctx, []Query{q})
	if err != nil {
		return Estimate{}, err
	}
	return ests[0], nil
}

// EstimateMany implements Provider. Queries are chunked to the API's pair
// limit; all chunks must share the same mode per request, so queries are sent
// grouped in input order and reassembled positionally.
func (m *MatrixClient) EstimateMany(ctx context.Context, qs []Query) ([]Estimate, error) {
	if len(qs) == 0 {
		return nil, nil
	}
	for _, q := range qs {
		if err := validateQuery(q); err != nil {
			return nil, err
		}
	}
	out := make([]Estimate, len(qs))
	for start := 0; start < len(qs); {
		end := start + 1
		for end < len(qs) && end-start < maxPairsPerRequest && qs[end].Mode == qs[start].Mode {
			end++
		}
		if err := m.estimateChunk(ctx, qs[start:end], out[start:end]); err != nil {
			return nil, err
		}
		start = end
	}
	return out, nil
}

func (m *MatrixClient) estimateChunk(ctx context.Context, qs []Query, out []Estimate) error {
	req := matrixRequest{Mode: string(qs[0].Mode), Pairs: make([]matrixPair, len(qs))}
	for i, q := range qs {
		req.Pairs[i] = matrixPair{
			Origin:      matrixPoint{Lat: q.Origin.Lat, Lng: q.Origin.Lng},
			Destination: matrixPoint{Lat: q.Destination.Lat, Lng: q.Destination.Lng},
		}
	}

	resp, err := geoerr.DoVal(ctx, m.retry, func(ctx context.Context) (matrixResponse, error) {
		return m.doRequest(ctx, req)
	})
	if err != nil {
		return err
	}
	if len(resp.Results) != len(qs) {
		return geoerr.Newf(geoerr.KindDataIntegrity,
			"travel: matrix returned %d results for %d pairs", len(resp.Results), len(qs))
	}
	for i, r := range resp.Results {
		if r.Status != "" && r.Status != "ok" {
			return geoerr.Newf(geoerr.KindUnreachable,
				"travel: matrix pair %d status %q", i, r.Status)
		}
		out[i] = Estimate{
			DurationMinutes: r.DurationSeconds / 60,
			DistanceMeters:  r.DistanceMeters,
		}
	}
	return nil
}

func (m *MatrixClient) doRequest(ctx context.Context, req matrixRequest) (matrixResponse, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return matrixResponse{}, eris.Wrap(err, "travel: rate limiter")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return matrixResponse{}, eris.Wrap(err, "travel: encode matrix request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/matrix", bytes.NewReader(body))
	if err != nil {
		return matrixResponse{}, eris.Wrap(err, "travel: build matrix request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	httpResp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return matrixResponse{}, geoerr.Wrap(geoerr.KindProviderUnavailable, err, "travel: matrix request")
	}
	defer httpResp.Body.Close()

	switch {
	case httpResp.StatusCode == http.StatusOK:
		// fall through to decode
	case httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500:
		io.Copy(io.Discard, httpResp.Body)
		return matrixResponse{}, geoerr.New(geoerr.KindProviderUnavailable,
			fmt.Sprintf("travel: matrix returned %s", httpResp.Status))
	default:
		io.Copy(io.Discard, httpResp.Body)
		return matrixResponse{}, geoerr.New(geoerr.KindInvalidInput,
			fmt.Sprintf("travel: matrix rejected request with %s", httpResp.Status))
	}

	var resp matrixResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return matrixResponse{}, geoerr.Wrap(geoerr.KindDataIntegrity, err, "travel: decode matrix response")
	}
	return resp, nil
}

var _ Provider = (*MatrixClient)(nil)
var _ Provider = (*GeometricProvider)(nil)
