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

// SegmentationClient calls the external image-segmentation function. The
// service is a black box: raw object key in, processed key out. Errors
// propagate to the caller as task failures.
type SegmentationClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewSegmentationClient(httpClient *http.Client, baseURL string) *SegmentationClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &SegmentationClient{httpClient: httpClient, baseURL: baseURL}
}

type segmentationRequest struct {
	Item struct {
		S3Key string `json:"s3Key"`
	} `json:"item"`
}

type segmentationResponse struct {
	OutputKey string `json:"outputKey"`
}

func (c *SegmentationClient) Segment(ctx context.Context, rawKey string) (domain.SegmentationResult, error) {
	var reqBody segmentationRequest
	reqBody.Item.S3Key = rawKey
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return domain.SegmentationResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/segment", bytes.NewReader(raw))
	if err != nil {
		return domain.SegmentationResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SegmentationResult{}, fmt.Errorf("segmentation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.SegmentationResult{}, fmt.Errorf("segmentation returned %d: %s", resp.StatusCode, string(body))
	}

	var out segmentationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.SegmentationResult{}, fmt.Errorf("decode segmentation response: %w", err)
	}
	if out.OutputKey == "" {
		return domain.SegmentationResult{}, fmt.Errorf("segmentation returned empty output key")
	}

	return domain.SegmentationResult{
		InputKey:  rawKey,
		OutputKey: out.OutputKey,
	}, nil
}
