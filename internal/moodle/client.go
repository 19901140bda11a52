// Package moodle is the gateway to the Moodle web service REST API.
package moodle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/learning-tokens/lms-connector/internal/config"
	"github.com/learning-tokens/lms-connector/internal/lmserr"
	"github.com/learning-tokens/lms-connector/internal/metrics"
)

const serviceName = "moodle"

var tracer = otel.Tracer("lms.moodle")

// Client calls the Moodle web service functions.
type Client struct {
	client   *http.Client
	endpoint string
	token    string
}

// NewClient creates a Client for the configured Moodle site.
func NewClient(cfg config.MoodleConfig) *Client {
	return &Client{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		endpoint: strings.TrimSuffix(cfg.URL, "/") + "/webservice/rest/server.php",
		token:    cfg.Token,
	}
}

// Call invokes the web service function with params and decodes the JSON
// response into out. out may be nil to discard the response.
//
// Every failure is an *lmserr.UpstreamError, including an exception
// envelope returned with status 200. Calls are never retried.
func (c *Client) Call(ctx context.Context, function string, params url.Values, out any) (err error) {
	ctx, span := tracer.Start(ctx, "moodle."+function, trace.WithAttributes(
		attribute.String("moodle.function", function),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		metrics.RecordUpstreamRequest(serviceName, function, err)
	}()

	slog.InfoContext(ctx, "calling moodle", "function", function, "params", params.Encode())

	form := url.Values{}
	for key, values := range params {
		form[key] = values
	}
	form.Set("wstoken", c.token)
	form.Set("wsfunction", function)
	form.Set("moodlewsrestformat", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return c.upstreamError(function, 0, "", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return c.upstreamError(function, 0, "", fmt.Errorf("send request: %w", err))
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.upstreamError(function, resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.upstreamError(function, resp.StatusCode, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)), nil)
	}

	// Moodle reports failures inside a 2xx body.
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope exceptionEnvelope
		if err := json.Unmarshal(trimmed, &envelope); err == nil && envelope.Exception != "" {
			return c.upstreamError(function, resp.StatusCode, envelope.message(), nil)
		}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return c.upstreamError(function, resp.StatusCode, "", fmt.Errorf("bad response: %w", err))
	}

	return nil
}

func (c *Client) upstreamError(function string, statusCode int, message string, err error) error {
	upstreamErr := &lmserr.UpstreamError{
		Service:    serviceName,
		Function:   function,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}

	slog.Error("moodle call failed", "function", function, "status", statusCode, "error", upstreamErr)

	return upstreamErr
}
