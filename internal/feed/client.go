package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"dealflow/internal/dto"
)

// IngestClient posts deal payloads to the ingest webhook.
type IngestClient struct {
	endpoint  string
	http      *http.Client
	userAgent string
}

func NewIngestClient(endpoint string, httpClient *http.Client, userAgent string) *IngestClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &IngestClient{endpoint: endpoint, http: httpClient, userAgent: userAgent}
}

// Post returns an error for transport failures and for any status >= 400.
func (c *IngestClient) Post(ctx context.Context, payload dto.DealIngestRequest) (*dto.DealIngestResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("ingest failed %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out dto.DealIngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
