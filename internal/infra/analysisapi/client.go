package analysisapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/auditor-console/internal/domain/analysis"
)

// maxErrorBody caps how much of a rejected response is read for logging.
const maxErrorBody = 4 << 10

// Config for the analysis service client. BaseURL is fixed for the
// lifetime of the client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration // 0 means no client-side timeout
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the external analysis service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		logger:  logger,
	}
}

// BaseURL the client was built with
func (c *Client) BaseURL() string { return c.baseURL }

// Analyze posts the file as multipart field "file" to {BaseURL}/analyze.
func (c *Client) Analyze(ctx context.Context, f analysis.File) (*analysis.Result, error) {
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)

	part, err := writer.CreateFormFile("file", f.Name)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", &buffer)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", analysis.ErrNetworkFault, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", analysis.ErrNetworkFault, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := errorDetail(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("analysis service rejected upload",
			"status", resp.StatusCode,
			"detail", detail,
			"file", f.Name,
		)
		if detail != "" {
			return nil, fmt.Errorf("%w: status %d: %s", analysis.ErrServerRejected, resp.StatusCode, detail)
		}
		return nil, fmt.Errorf("%w: status %d", analysis.ErrServerRejected, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", analysis.ErrNetworkFault, err)
	}
	return analysis.DecodeResult(body)
}

// Ping checks GET {BaseURL}/health.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", analysis.ErrNetworkFault, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("analysis service health returned %d", resp.StatusCode)
	}
	return nil
}

// errorDetail pulls the "detail" field out of an error body, falling back
// to the raw text.
func errorDetail(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(payload.Detail); err == nil {
			return string(b)
		}
	}
	return strings.TrimSpace(string(body))
}
