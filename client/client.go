// Package client calls a running prediction server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Schema struct {
	NumFeatures int    `json:"n_features"`
	ModelType   string `json:"model_type"`
	ModelPath   string `json:"model_path"`
}

type Prediction struct {
	Label               int      `json:"prediction"`
	PositiveProbability *float64 `json:"prob_pos"`
}

// APIError is a non-200 response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Schema(ctx context.Context) (*Schema, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/schema", nil)
	if err != nil {
		return nil, err
	}
	var schema Schema
	if err := c.do(req, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// Predict sends features as-is; values may be numbers or numeric strings.
func (c *Client) Predict(ctx context.Context, features []any) (*Prediction, error) {
	body, err := json.Marshal(map[string]any{"features": features})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var prediction Prediction
	if err := c.do(req, &prediction); err != nil {
		return nil, err
	}
	return &prediction, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
