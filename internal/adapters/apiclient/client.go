package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"clubsignup/internal/adapters/http/perf"
	"clubsignup/internal/domain/activity"
	"clubsignup/internal/platform/uricomponent"
)

// maxBodyBytes bounds how much of a backend response is read.
const maxBodyBytes = 1 << 20

// Failure classes. Both are wrapped with the operation name.
var (
	// ErrTransport means no response was obtained (DNS, refused connection, cancelled context).
	ErrTransport = errors.New("activities backend unreachable")
	// ErrMalformedResponse means a response arrived but its body was not the expected JSON.
	ErrMalformedResponse = errors.New("activities backend sent a malformed response")
)

// RejectionError is returned when the backend answers with a non-success status.
// Detail is the server-supplied explanation and may be empty.
type RejectionError struct {
	StatusCode int
	Detail     string
}

// Error implements error.
func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("activities backend rejected request: status %d", e.StatusCode)
	}
	return fmt.Sprintf("activities backend rejected request: status %d: %s", e.StatusCode, e.Detail)
}

// Client talks to the activities REST API.
// It applies no timeout of its own; callers bound calls through ctx.
type Client struct {
	baseURL   string
	http      *http.Client
	collector *perf.Collector
	tracer    trace.Tracer
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCollector records one upstream sample per call.
func WithCollector(col *perf.Collector) Option {
	return func(c *Client) { c.collector = col }
}

// New creates a Client for the API rooted at baseURL (e.g. "http://localhost:8080").
// PRE: baseURL is an absolute URL without a trailing path
// POST: Returns a ready-to-use client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		tracer:  otel.Tracer("clubsignup/apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// mutationResult is the body of sign-up and unregistration responses.
type mutationResult struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// ListActivities fetches the current snapshot.
// POST: Returns activities in the order the server emitted them
func (c *Client) ListActivities(ctx context.Context) (activity.Snapshot, error) {
	const op = "ListActivities"
	body, statusCode, err := c.do(ctx, op, http.MethodGet, "/activities")
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode > 299 {
		var res mutationResult
		_ = json.Unmarshal(body, &res)
		return nil, fmt.Errorf("%s: %w", op, &RejectionError{StatusCode: statusCode, Detail: res.Detail})
	}
	var snap activity.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrMalformedResponse, err)
	}
	return snap, nil
}

// Signup enrolls email in the named activity and returns the server's confirmation text.
// PRE: name and email are unencoded
// POST: On 2xx returns message; on error status returns *RejectionError
func (c *Client) Signup(ctx context.Context, name, email string) (string, error) {
	path := "/activities/" + uricomponent.Encode(name) + "/signup?email=" + uricomponent.Encode(email)
	return c.mutate(ctx, "Signup", http.MethodPost, path)
}

// Unregister removes email from the named activity and returns the server's confirmation text.
// PRE: name and email are unencoded
// POST: On 2xx returns message (possibly empty); on error status returns *RejectionError
func (c *Client) Unregister(ctx context.Context, name, email string) (string, error) {
	path := "/activities/" + uricomponent.Encode(name) + "/participants?email=" + uricomponent.Encode(email)
	return c.mutate(ctx, "Unregister", http.MethodDelete, path)
}

func (c *Client) mutate(ctx context.Context, op, method, path string) (string, error) {
	body, statusCode, err := c.do(ctx, op, method, path)
	if err != nil {
		return "", err
	}
	var res mutationResult
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrMalformedResponse, err)
	}
	if statusCode < 200 || statusCode > 299 {
		return "", fmt.Errorf("%s: %w", op, &RejectionError{StatusCode: statusCode, Detail: res.Detail})
	}
	return res.Message, nil
}

// do performs one request and reads the whole body.
// Only transport failures are returned as errors; status handling is left to the caller.
func (c *Client) do(ctx context.Context, op, method, path string) ([]byte, int, error) {
	ctx, span := c.tracer.Start(ctx, "apiclient."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	start := time.Now()
	statusCode := 0
	defer func() { c.collector.Observe(perf.KindUpstream, "apiclient."+op, statusCode, start) }()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, fmt.Errorf("%s: %w: %v", op, ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, 0, fmt.Errorf("%s: %w: %v", op, ErrTransport, err)
	}
	defer resp.Body.Close()

	statusCode = resp.StatusCode
	span.SetAttributes(attribute.Int("http.response.status_code", statusCode))
	if statusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(statusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		span.RecordError(err)
		return nil, statusCode, fmt.Errorf("%s: %w: %v", op, ErrTransport, err)
	}
	return body, statusCode, nil
}
