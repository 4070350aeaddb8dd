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

// ImageScorerClient calls the external image-moderation scorer. Only the
// contract matters here: two independent confidences in [0,1].
type ImageScorerClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewImageScorerClient(httpClient *http.Client, baseURL string) *ImageScorerClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &ImageScorerClient{httpClient: httpClient, baseURL: baseURL}
}

type imageScoreRequest struct {
	MediaKey string `json:"mediaKey"`
}

type imageScoreResponse struct {
	ExplicitConfidence   float64 `json:"explicitConfidence"`
	SuggestiveConfidence float64 `json:"suggestiveConfidence"`
	TopLabel             string  `json:"topLabel"`
}

func (c *ImageScorerClient) Score(ctx context.Context, mediaKey string) (domain.ImageScore, error) {
	raw, err := json.Marshal(imageScoreRequest{MediaKey: mediaKey})
	if err != nil {
		return domain.ImageScore{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(raw))
	if err != nil {
		return domain.ImageScore{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ImageScore{}, fmt.Errorf("image score request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.ImageScore{}, fmt.Errorf("image scorer returned %d: %s", resp.StatusCode, string(body))
	}

	var out imageScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.ImageScore{}, fmt.Errorf("decode image score response: %w", err)
	}

	return domain.ImageScore{
		ExplicitConfidence:   out.ExplicitConfidence,
		SuggestiveConfidence: out.SuggestiveConfidence,
		TopLabel:             out.TopLabel,
	}, nil
}
