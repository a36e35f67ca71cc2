// Package streaming is a minimal client for the external video
// ingest/transcode/stream provider. It exposes only the four calls the
// reconciliation core needs and never retries internally; retry cadence is
// owned by the caller because provider requests are metered.
package streaming

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"reel-ingest/config"
)

// ErrNotFound is returned when the provider reports the referenced upload or
// asset as unknown or expired.
var ErrNotFound = errors.New("streaming: not found")

const (
	UploadStatusWaiting      = "waiting"
	UploadStatusAssetCreated = "asset_created"

	AssetStatusPreparing = "preparing"
	AssetStatusReady     = "ready"
	AssetStatusErrored   = "errored"

	PlaybackPolicyPublic = "public"
	PlaybackPolicySigned = "signed"
)

// Upload is the transient ingest handle. AssetID stays empty until the
// provider has converted the upload into a durable asset.
type Upload struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	AssetID string `json:"asset_id"`
	URL     string `json:"url"`
}

type PlaybackEntry struct {
	ID     string `json:"id"`
	Policy string `json:"policy"`
}

type Asset struct {
	ID              string          `json:"id"`
	Status          string          `json:"status"`
	PlaybackEntries []PlaybackEntry `json:"playback_ids"`
}

type Client struct {
	baseURL     string
	tokenID     string
	tokenSecret string
	httpClient  *http.Client
}

func NewClient(cfg config.Streaming) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		tokenID:     cfg.TokenID,
		tokenSecret: cfg.TokenSecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateUpload asks the provider for a new direct-upload slot with a public
// playback policy. The returned URL accepts exactly one PUT of the raw file.
func (c *Client) CreateUpload(ctx context.Context) (*Upload, error) {
	body := map[string]any{
		"new_asset_settings": map[string]any{
			"playback_policy": []string{PlaybackPolicyPublic},
		},
	}

	var out Upload
	if err := c.do(ctx, http.MethodPost, "/video/v1/uploads", body, &out); err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	return &out, nil
}

func (c *Client) GetUpload(ctx context.Context, uploadHandle string) (*Upload, error) {
	var out Upload
	if err := c.do(ctx, http.MethodGet, "/video/v1/uploads/"+uploadHandle, nil, &out); err != nil {
		return nil, fmt.Errorf("get upload %s: %w", uploadHandle, err)
	}
	return &out, nil
}

func (c *Client) GetAsset(ctx context.Context, assetHandle string) (*Asset, error) {
	var out Asset
	if err := c.do(ctx, http.MethodGet, "/video/v1/assets/"+assetHandle, nil, &out); err != nil {
		return nil, fmt.Errorf("get asset %s: %w", assetHandle, err)
	}
	return &out, nil
}

// DeleteAsset removes the provider-side asset. Deleting an already-deleted
// asset reports success so cascading deletes stay idempotent.
func (c *Client) DeleteAsset(ctx context.Context, assetHandle string) error {
	err := c.do(ctx, http.MethodDelete, "/video/v1/assets/"+assetHandle, nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete asset %s: %w", assetHandle, err)
	}
	return nil
}

// UploadSource streams the raw file bytes to a direct-upload URL issued by
// CreateUpload. The upload URL is pre-authorized, so no token is attached.
func (c *Client) UploadSource(ctx context.Context, uploadURL string, size int64, r io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, r)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload source: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// envelope wraps every provider response body.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.tokenID, c.tokenSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return json.Unmarshal(env.Data, out)
}
