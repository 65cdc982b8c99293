// Package uploads relays binary blobs to an external image host. The core
// stores only the returned public URL, never the blob.
package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// HTTPUploader posts multipart form data to the configured image host and
// expects {"url": "..."} back.
type HTTPUploader struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func NewHTTPUploaderFromEnv() *HTTPUploader {
	endpoint := os.Getenv("IMAGE_HOST_URL")
	if endpoint == "" {
		return nil
	}
	return &HTTPUploader{
		Endpoint: endpoint,
		APIKey:   os.Getenv("IMAGE_HOST_API_KEY"),
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.Endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if u.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.APIKey)
	}
	resp, err := u.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image host: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("image host: status %d: %s", resp.StatusCode, b)
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("image host: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("image host: empty url in response")
	}
	return out.URL, nil
}
