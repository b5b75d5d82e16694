package assessor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultHTTPTimeout = 120 * time.Second

// File is a named payload submitted to the assessment service.
type File struct {
	Name string
	Data []byte
}

// Config describes the assessor client configuration.
type Config struct {
	Endpoint      string
	Timeout       time.Duration
	MaxBatchFiles int
	HTTPClient    *http.Client
}

// Client wraps the remote document assessment service.
type Client struct {
	endpoint string
	maxBatch int
	http     *http.Client
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("assessor: endpoint is required")
	}
	maxBatch := cfg.MaxBatchFiles
	if maxBatch <= 0 {
		maxBatch = 5
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{endpoint: endpoint, maxBatch: maxBatch, http: client}, nil
}

// Upload submits up to MaxBatchFiles documents in a single multipart request.
// Every file travels in a part named "files". Success requires a 2xx status
// and a JSON body; anything else is an error and nothing may be assumed about
// what the service recorded.
func (c *Client) Upload(ctx context.Context, files ...File) error {
	if len(files) == 0 {
		return errors.New("assessor: no files to upload")
	}
	if len(files) > c.maxBatch {
		return fmt.Errorf("assessor: %d files exceeds batch limit %d", len(files), c.maxBatch)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, file := range files {
		if strings.TrimSpace(file.Name) == "" {
			return errors.New("assessor: file name is required")
		}
		part, err := writer.CreateFormFile("files", file.Name)
		if err != nil {
			return fmt.Errorf("assessor: build form: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return fmt.Errorf("assessor: write payload: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("assessor: finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return fmt.Errorf("assessor: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("assessor: request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("assessor: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("assessor: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("assessor: decode response: %w", err)
	}
	return nil
}
