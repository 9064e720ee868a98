// Package client is the HTTP client the feed managers use to push
// announcement batches into the carousel server.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"lobbysign/api/models"
	"lobbysign/carousel"
)

type FeedClient struct {
	baseURL string
	client  *http.Client
}

func NewFeedClient(baseURL string) *FeedClient {
	return &FeedClient{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// PublishItems replaces the server's rotation with a fresh batch. Each
// batch carries a uuid so feed pushes can be correlated in the logs.
func (fc *FeedClient) PublishItems(items []carousel.DisplayItem) error {
	reqBody := models.PublishItemsRequest{
		BatchID: uuid.NewString(),
		Items:   items,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/items", fc.baseURL)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := fc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil {
			return fmt.Errorf("server error: %s", errResp.Error)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var publishResp models.PublishItemsResponse
	if err := json.Unmarshal(body, &publishResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	slog.Info("published announcement batch",
		"batch_id", publishResp.BatchID,
		"received", publishResp.Received,
		"rotation", publishResp.Rotation)
	return nil
}
