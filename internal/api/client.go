package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/psyhelp/testdesk/internal/assessment"
	"github.com/psyhelp/testdesk/internal/errors"
	"github.com/psyhelp/testdesk/internal/logger"
)

const defaultBaseURL = "http://127.0.0.1:8080/api"

// Operation names used for errors, logs and metrics.
const (
	OpListTests      = "listTests"
	OpFetchQuestions = "fetchQuestions"
	OpSubmitAttempt  = "submitAttempt"
	OpLoadTest       = "loadTest"
	OpUpdateTest     = "updateTest"
	OpAddTest        = "addTest"
	OpDeleteTest     = "deleteTest"
)

// Observer receives one call per finished request.
type Observer interface {
	ObserveRequest(op, outcome string, d time.Duration)
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less disables it.
func WithRateLimit(perSecond float64) Option {
	return func(c *HTTPClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithObserver reports request outcomes, usually to metrics.
func WithObserver(o Observer) Option {
	return func(c *HTTPClient) { c.observer = o }
}

// WithRetry sets the backoff used for idempotent reads.
func WithRetry(cfg errors.RetryConfig) Option {
	return func(c *HTTPClient) { c.retry = cfg }
}

// HTTPClient implements Service over JSON HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   Observer
	retry      errors.RetryConfig
}

var _ Service = (*HTTPClient)(nil)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NewHTTPClient creates a client for baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry:      errors.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized service root.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// ListTests returns the catalog visible to userID. Transient failures are retried.
func (c *HTTPClient) ListTests(ctx context.Context, userID string) ([]TestSummary, error) {
	path := "/tests"
	if trimmed := strings.TrimSpace(userID); trimmed != "" {
		query := url.Values{}
		query.Set("userId", trimmed)
		path += "?" + query.Encode()
	}

	payload, err := errors.RetryWithResult(ctx, c.retry, func() (listTestsResponse, error) {
		var p listTestsResponse
		err := c.doJSON(ctx, OpListTests, http.MethodGet, path, nil, &p)
		return p, err
	})
	if err != nil {
		return nil, err
	}

	tests := make([]TestSummary, 0, len(payload.Tests))
	for _, item := range payload.Tests {
		tests = append(tests, item.toSummary())
	}
	return tests, nil
}

// FetchQuestions returns the raw question payload for a test.
func (c *HTTPClient) FetchQuestions(ctx context.Context, testID int) (assessment.RawQuestions, error) {
	var payload fetchQuestionsResponse
	if err := c.doJSON(ctx, OpFetchQuestions, http.MethodPost, "/tests/questions", fetchQuestionsRequest{TestID: testID}, &payload); err != nil {
		return nil, err
	}
	return payload.Questions, nil
}

// SubmitAttempt sends a completed attempt.
func (c *HTTPClient) SubmitAttempt(ctx context.Context, req SubmitAttemptRequest) (MessageResponse, error) {
	var payload MessageResponse
	if err := c.doJSON(ctx, OpSubmitAttempt, http.MethodPost, "/tests/attempt", req, &payload); err != nil {
		return MessageResponse{}, err
	}
	return payload, nil
}

// LoadTest fetches a test for editing.
func (c *HTTPClient) LoadTest(ctx context.Context, testID int) (LoadTestResponse, error) {
	var payload loadTestWire
	if err := c.doJSON(ctx, OpLoadTest, http.MethodPost, "/tests/change", changeTestRequest{Action: "load", TestID: testID}, &payload); err != nil {
		return LoadTestResponse{}, err
	}

	id, ok := payload.TestID.Int()
	if !ok {
		id = testID
	}
	fields := payload.Test.Value
	return LoadTestResponse{
		TestID: id,
		Test: TestFields{
			TestName:    string(fields.TestName),
			Description: string(fields.Description),
			AuthorsName: fields.AuthorsName,
		},
		Questions: payload.Questions,
	}, nil
}

// UpdateTest saves an edited test.
func (c *HTTPClient) UpdateTest(ctx context.Context, req UpdateTestRequest) (UpdateTestResponse, error) {
	var payload updateTestResponseWire
	if err := c.doJSON(ctx, OpUpdateTest, http.MethodPost, "/tests/change", updateTestWire{Action: "update", UpdateTestRequest: req}, &payload); err != nil {
		return UpdateTestResponse{}, err
	}

	resp := UpdateTestResponse{Message: string(payload.Message)}
	if payload.Test.Present {
		t := payload.Test.Value
		id, _ := t.ID.Int()
		count, hasCount := t.QuestionCount.Int()
		resp.Test = UpdatedTest{
			Present:       true,
			ID:            id,
			TestName:      string(t.TestName),
			Description:   string(t.Description),
			QuestionCount: count,
			HasCount:      hasCount,
		}
	}
	return resp, nil
}

// AddTest creates a test.
func (c *HTTPClient) AddTest(ctx context.Context, req AddTestRequest) (MessageResponse, error) {
	var payload MessageResponse
	if err := c.doJSON(ctx, OpAddTest, http.MethodPost, "/tests/add", req, &payload); err != nil {
		return MessageResponse{}, err
	}
	return payload, nil
}

// DeleteTest removes a test.
func (c *HTTPClient) DeleteTest(ctx context.Context, testID int) (DeleteTestResponse, error) {
	var payload DeleteTestResponse
	if err := c.doJSON(ctx, OpDeleteTest, http.MethodPost, "/tests/delete", deleteTestRequest{TestID: testID}, &payload); err != nil {
		return DeleteTestResponse{}, err
	}
	return payload, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, op, method, path string, requestBody any, responseBody any) (err error) {
	start := time.Now()
	defer func() {
		c.observe(op, err, time.Since(start))
	}()

	if c.limiter != nil {
		if werr := c.limiter.Wait(ctx); werr != nil {
			return fmt.Errorf("%s: rate limit: %w", op, werr)
		}
	}

	var body io.Reader
	if requestBody != nil {
		encoded, merr := json.Marshal(requestBody)
		if merr != nil {
			return errors.NewPermanentError(op, merr)
		}
		body = bytes.NewReader(encoded)
	}

	request, rerr := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if rerr != nil {
		return errors.NewPermanentError(op, rerr)
	}
	requestID := uuid.NewString()
	request.Header.Set("X-Request-ID", requestID)
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	logger.Debug("%s %s %s (request %s)", op, method, path, requestID)

	response, derr := c.httpClient.Do(request)
	if derr != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		return errors.NewTransientError(op, derr)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		serverErr := &errors.ServerError{Op: op, StatusCode: response.StatusCode}
		var payload errorResponse
		if jerr := json.NewDecoder(response.Body).Decode(&payload); jerr == nil {
			switch {
			case strings.TrimSpace(payload.Message) != "":
				serverErr.Message = payload.Message
			case strings.TrimSpace(payload.Error) != "":
				serverErr.Message = payload.Error
			}
		}
		logger.Debug("%s failed with status %d (request %s)", op, response.StatusCode, requestID)
		return serverErr
	}

	if responseBody == nil {
		return nil
	}
	raw, rerr := io.ReadAll(response.Body)
	if rerr != nil {
		return errors.NewTransientError(op, rerr)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if jerr := json.Unmarshal(raw, responseBody); jerr != nil {
		// A body that is not an object leaves every field at its fallback.
		logger.Debug("%s: ignoring malformed response body: %v", op, jerr)
	}
	return nil
}

func (c *HTTPClient) observe(op string, err error, d time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveRequest(op, Outcome(err), d)
}

// Outcome classifies err for metrics labels.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	var se *errors.ServerError
	if errors.As(err, &se) {
		if se.StatusCode >= 500 {
			return "server_error"
		}
		return "client_error"
	}
	if errors.IsTransient(err) {
		return "network_error"
	}
	return "error"
}
