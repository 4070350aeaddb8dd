package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ObjectStoreClient talks to the storage gateway that fronts the media bucket.
// The moderation core only ever copies processed objects into the published
// namespace; bucket lifecycle stays with the storage owner.
type ObjectStoreClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewObjectStoreClient(httpClient *http.Client, baseURL string) *ObjectStoreClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ObjectStoreClient{httpClient: httpClient, baseURL: baseURL}
}

type copyRequest struct {
	FromKey string `json:"fromKey"`
	ToKey   string `json:"toKey"`
}

func (c *ObjectStoreClient) Copy(ctx context.Context, fromKey, toKey string) error {
	raw, err := json.Marshal(copyRequest{FromKey: fromKey, ToKey: toKey})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/objects/copy", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("object copy request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("object store returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
