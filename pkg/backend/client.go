// Package backend talks to the enrollment API that owns course, student and
// request data.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-gate/pkg/config"
)

const (
	apiKeyHeader = "X-API-Key"
	tracerName   = "github.com/noah-isme/enrollment-gate/pkg/backend"
)

// Observer receives per-call latency. MetricsService satisfies it.
type Observer interface {
	ObserveBackendCall(endpoint string, status int, duration time.Duration)
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.Status, e.Message)
}

// IsNotFound reports a 404 from the backend.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound
}

// FilePart is one file attached to a multipart request.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// Client is a thin JSON client bound to BACKEND_BASE_URL.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	observer Observer
	tracer   trace.Tracer
	logger   *zap.Logger
}

// NewClient constructs a backend client with the configured timeout.
func NewClient(cfg config.BackendConfig, observer Observer, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		observer: observer,
		tracer:   otel.Tracer(tracerName),
		logger:   logger,
	}
}

// GetJSON issues a GET and decodes the JSON body into dest.
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, dest interface{}) error {
	target := c.url(endpoint)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, endpoint, dest)
}

// PostJSON posts body as JSON and decodes the response into dest.
func (c *Client) PostJSON(ctx context.Context, endpoint string, body interface{}, dest interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(endpoint), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, endpoint, dest)
}

// PostMultipart posts form fields and files as multipart/form-data.
func (c *Client) PostMultipart(ctx context.Context, endpoint string, fields map[string]string, files []FilePart, dest interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("write field %s: %w", key, err)
		}
	}
	for _, file := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, file.Field, file.Filename))
		header.Set("Content-Type", file.ContentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("create part %s: %w", file.Field, err)
		}
		if file.Content != nil {
			if _, err := io.Copy(part, file.Content); err != nil {
				return fmt.Errorf("copy part %s: %w", file.Field, err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(endpoint), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return c.do(req, endpoint, dest)
}

func (c *Client) url(endpoint string) string {
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) do(req *http.Request, endpoint string, dest interface{}) error {
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	ctx, span := c.tracer.Start(req.Context(), "backend "+req.Method+" "+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("backend.endpoint", endpoint),
		),
	)
	defer span.End()
	req = req.WithContext(ctx)

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(endpoint, http.StatusServiceUnavailable, duration)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		c.logger.Warn("backend call failed", zap.String("endpoint", endpoint), zap.Error(err))
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, duration)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Endpoint: endpoint, Status: resp.StatusCode, Message: errorMessage(body, resp.Status)}
	}
	if dest == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) observe(endpoint string, status int, duration time.Duration) {
	if c.observer != nil {
		c.observer.ObserveBackendCall(endpoint, status, duration)
	}
}

// errorMessage extracts {"message": "..."} or falls back to the raw body.
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	return fallback
}
