package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/elevatebox/elevatebox/internal/security"
)

// RESTSink POSTs documents to {url}/{collection} on a hosted document API
type RESTSink struct {
	baseURL        string
	headers        map[string]string
	client         *http.Client
	circuitBreaker *CircuitBreaker
}

// RESTOption configures a RESTSink
type RESTOption func(*restOptions)

type restOptions struct {
	breaker CircuitBreakerConfig
	log     *zap.Logger
	client  *http.Client
}

// WithCircuitBreaker overrides the breaker thresholds
func WithCircuitBreaker(cfg CircuitBreakerConfig) RESTOption {
	return func(o *restOptions) { o.breaker = cfg }
}

// WithRESTLogger sets the logger used for circuit state changes
func WithRESTLogger(l *zap.Logger) RESTOption {
	return func(o *restOptions) { o.log = l }
}

// WithHTTPClient replaces the HTTP client; the timeout argument is ignored
func WithHTTPClient(c *http.Client) RESTOption {
	return func(o *restOptions) { o.client = c }
}

// NewRESTSink creates a REST sink. Environment variables in baseURL are expanded.
func NewRESTSink(baseURL string, headers map[string]string, timeout time.Duration, opts ...RESTOption) (*RESTSink, error) {
	if baseURL == "" {
		return nil, &ValidationError{Sink: "rest", Field: "url", Reason: "url is required"}
	}
	baseURL = os.ExpandEnv(baseURL)
	if _, err := security.CheckHTTPURL(baseURL); err != nil {
		return nil, &ValidationError{Sink: "rest", Field: "url", Reason: err.Error()}
	}

	o := restOptions{breaker: DefaultCircuitBreakerConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: timeout}
	}

	return &RESTSink{
		baseURL:        strings.TrimRight(baseURL, "/"),
		headers:        headers,
		client:         o.client,
		circuitBreaker: NewCircuitBreaker("rest", o.breaker, o.log),
	}, nil
}

// Name returns the sink type
func (s *RESTSink) Name() string { return "rest" }

// Breaker exposes the circuit breaker guarding the remote
func (s *RESTSink) Breaker() *CircuitBreaker { return s.circuitBreaker }

// Insert posts doc and returns the id reported by the remote
func (s *RESTSink) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	if err := checkCollection(s.Name(), collection); err != nil {
		return "", err
	}

	id, err := s.circuitBreaker.Execute(ctx, func(ctx context.Context) (string, error) {
		return s.doInsert(ctx, collection, doc)
	})
	if err != nil {
		var serr *SinkError
		if errors.As(err, &serr) {
			return "", err
		}
		return "", &SinkError{Sink: s.Name(), Collection: collection, Op: "insert", Err: err}
	}
	return id, nil
}

func (s *RESTSink) doInsert(ctx context.Context, collection string, doc Document) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", &SinkError{Sink: s.Name(), Collection: collection, Op: "encode", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+collection, bytes.NewReader(body))
	if err != nil {
		return "", &SinkError{Sink: s.Name(), Collection: collection, Op: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	const maxResponseSize = 1 << 20
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", &SinkError{Sink: s.Name(), Collection: collection, Op: "read response", Err: err}
	}
	return parseID(data), nil
}

// parseID extracts the document id from a create response. It understands
// {"id": ...} and Firestore's {"name": "projects/.../documents/<col>/<id>"}.
// An empty or unrecognised body yields "".
func parseID(data []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &obj); err != nil {
		return ""
	}
	switch id := obj["id"].(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	if name, ok := obj["name"].(string); ok && name != "" {
		return path.Base(name)
	}
	return ""
}

func isClientError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 && httpErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}

// Close is a no-op for REST sinks
func (s *RESTSink) Close() error {
	return nil
}
