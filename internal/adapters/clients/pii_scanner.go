package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stylingadventures/moderation-service/internal/domain"
)

// PIIScannerClient calls the PII-check service with the run's working payload.
type PIIScannerClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewPIIScannerClient(httpClient *http.Client, baseURL string) *PIIScannerClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &PIIScannerClient{httpClient: httpClient, baseURL: baseURL}
}

type piiScanResponse struct {
	Flagged bool     `json:"flagged"`
	Fields  []string `json:"fields"`
}

func (c *PIIScannerClient) Scan(ctx context.Context, payload domain.RunPayload) (domain.PIIResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.PIIResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scan", bytes.NewReader(raw))
	if err != nil {
		return domain.PIIResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.PIIResult{}, fmt.Errorf("pii scan request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.PIIResult{}, fmt.Errorf("pii scanner returned %d: %s", resp.StatusCode, string(body))
	}

	var out piiScanResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.PIIResult{}, fmt.Errorf("decode pii scan response: %w", err)
	}

	return domain.PIIResult{
		Flagged: out.Flagged,
		Fields:  out.Fields,
	}, nil
}
