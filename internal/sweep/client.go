package sweep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/gravbench/shellbench/internal/mesher"
)

// HTTPIntegrator talks to an external numerical integrator service over
// JSON HTTP. It exists for cross-process deployments where the engine
// under test is not linked into this binary.
type HTTPIntegrator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPIntegrator creates a client for the integrator service at baseURL.
func NewHTTPIntegrator(baseURL string) *HTTPIntegrator {
	return &HTTPIntegrator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

// forwardRequest is the wire form of one integrator invocation.
type forwardRequest struct {
	Field   string            `json:"field"`
	Lons    []float64         `json:"lons"`
	Lats    []float64         `json:"lats"`
	Heights []float64         `json:"heights"`
	Mesh    *mesher.ShellMesh `json:"mesh"`
	Delta   float64           `json:"delta"`
}

// forwardResponse carries the integrator's output. JSON cannot encode
// non-finite floats, so unstable points come back as nulls and are mapped
// to NaN here, keeping the instability sentinel intact across the wire.
type forwardResponse struct {
	Values []*float64 `json:"values"`
	Error  string     `json:"error,omitempty"`
}

// Compute posts the mass model and observation points to the service and
// returns the field values. Implements Integrator.
func (c *HTTPIntegrator) Compute(ctx context.Context, field string, lons, lats, heights []float64, mesh *mesher.ShellMesh, delta float64) ([]float64, error) {
	body, err := json.Marshal(forwardRequest{
		Field:   field,
		Lons:    lons,
		Lats:    lats,
		Heights: heights,
		Mesh:    mesh,
		Delta:   delta,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding forward request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/forward", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building forward request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling integrator: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading integrator response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("integrator returned %d: %s", resp.StatusCode, string(raw))
	}

	var decoded forwardResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decoding integrator response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("integrator error: %s", decoded.Error)
	}

	values := make([]float64, len(decoded.Values))
	for i, v := range decoded.Values {
		if v == nil {
			values[i] = math.NaN()
			continue
		}
		values[i] = *v
	}
	return values, nil
}
