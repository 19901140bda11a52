// Package canvas is the gateway to the Canvas LMS REST API.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tomnomnom/linkheader"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/learning-tokens/lms-connector/internal/config"
	"github.com/learning-tokens/lms-connector/internal/lmserr"
	"github.com/learning-tokens/lms-connector/internal/metrics"
)

const serviceName = "canvas"

// perPage is the page size requested from list endpoints.
const perPage = "100"

var tracer = otel.Tracer("lms.canvas")

// Client reads from the Canvas API with a bearer token.
type Client struct {
	client *http.Client
	base   string
	token  string
}

// NewClient creates a Client for the configured Canvas API base, such as
// https://canvas.example.com/api/v1.
func NewClient(cfg config.CanvasConfig) *Client {
	return &Client{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		base:  strings.TrimSuffix(cfg.APIBase, "/"),
		token: cfg.APIToken,
	}
}

// get fetches one URL and returns its body and the URL of the next page, if any.
// operation names the call in metrics, traces and errors.
func (c *Client) get(ctx context.Context, operation, rawURL string) (body []byte, next string, err error) {
	ctx, span := tracer.Start(ctx, "canvas."+operation, trace.WithAttributes(
		attribute.String("canvas.operation", operation),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		metrics.RecordUpstreamRequest(serviceName, operation, err)
	}()

	slog.DebugContext(ctx, "calling canvas", "operation", operation, "url", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", c.upstreamError(operation, 0, "", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", c.upstreamError(operation, 0, "", fmt.Errorf("send request: %w", err))
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}
	}()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", c.upstreamError(operation, resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))

		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.message() != "" {
			message = errResp.message()
		}

		return nil, "", c.upstreamError(operation, resp.StatusCode, message, nil)
	}

	return body, nextLink(resp.Header.Values("Link")), nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	if len(query) == 0 {
		return c.base + path
	}

	return c.base + path + "?" + query.Encode()
}

// getJSON decodes a single object.
func (c *Client) getJSON(ctx context.Context, operation, path string, out any) error {
	body, _, err := c.get(ctx, operation, c.endpoint(path, nil))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return c.upstreamError(operation, http.StatusOK, "", fmt.Errorf("bad response: %w", err))
	}

	return nil
}

// list follows the rel="next" links of a list endpoint and concatenates every page.
// extract decodes the items of one page.
func list[T any](ctx context.Context, c *Client, operation, path string, query url.Values, extract func([]byte) ([]T, error)) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("per_page", perPage)

	items := []T{}
	for next := c.endpoint(path, query); next != ""; {
		body, following, err := c.get(ctx, operation, next)
		if err != nil {
			return nil, err
		}

		page, err := extract(body)
		if err != nil {
			return nil, c.upstreamError(operation, http.StatusOK, "", fmt.Errorf("bad response: %w", err))
		}

		items = append(items, page...)
		next = following
	}

	return items, nil
}

func decodeArray[T any](body []byte) ([]T, error) {
	var page []T
	err := json.Unmarshal(body, &page)
	return page, err
}

func (c *Client) upstreamError(operation string, statusCode int, message string, err error) error {
	upstreamErr := &lmserr.UpstreamError{
		Service:    serviceName,
		Function:   operation,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}

	slog.Error("canvas call failed", "operation", operation, "status", statusCode, "error", upstreamErr)

	return upstreamErr
}

// nextLink returns the rel="next" target of RFC 8288 Link header values.
func nextLink(values []string) string {
	next := linkheader.ParseMultiple(values).FilterByRel("next")
	if len(next) == 0 {
		return ""
	}

	return next[0].URL
}
