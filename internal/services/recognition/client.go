package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// Config describes the recognition client configuration.
type Config struct {
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client wraps the remote OCR barcode recognition service.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("recognition: endpoint is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{endpoint: endpoint, http: client}, nil
}

type recognizeResponse struct {
	Data struct {
		Barcode string `json:"barcode"`
	} `json:"data"`
}

// Recognize posts the document to the recognition service and returns the
// barcode it read from the first page. An empty barcode is a valid,
// well-formed answer; the caller decides what to do with it.
func (c *Client) Recognize(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("recognition: open document: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("recognition: build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("recognition: read document: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("recognition: finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("recognition: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("recognition: request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("recognition: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("recognition: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var decoded recognizeResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("recognition: decode response: %w", err)
	}
	return strings.TrimSpace(decoded.Data.Barcode), nil
}
