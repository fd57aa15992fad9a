// Package apiclient is the HTTP client for the practice exam API. Every call
// carries a per-attempt timeout and is retried with exponential backoff on
// server errors, throttling and network failures.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"practice_exam_backend/internal/model"

	"go.uber.org/zap"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultRetryAttempts = 3
)

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	Debug         bool
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("api base url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api base url %q is not an absolute URL", c.BaseURL)
	}
	return nil
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithSleep replaces the wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

type Client struct {
	cfg   Config
	base  string
	http  *http.Client
	log   *zap.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

// New validates cfg, fills in defaults and returns a ready client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}

	c := &Client{
		cfg:   cfg,
		base:  strings.TrimRight(cfg.BaseURL, "/"),
		http:  &http.Client{},
		log:   zap.NewNop(),
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.Debug {
		c.log.Debug("API client configured",
			zap.String("base_url", c.base),
			zap.Duration("timeout", cfg.Timeout),
			zap.Int("retry_attempts", cfg.RetryAttempts))
	}
	return c, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// do sends one logical request, retrying per ShouldRetry. out may be nil, a
// *string for plain text responses, or a JSON target.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
	}

	for attempt := 0; ; attempt++ {
		err := c.attempt(ctx, method, endpoint, payload, out)
		if err == nil {
			return nil
		}
		// the caller gave up; nothing to classify or retry
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = Classify(err, endpoint)
		if !ShouldRetry(err, attempt+1, c.cfg.RetryAttempts) {
			if c.cfg.Debug {
				c.log.Debug("API request failed",
					zap.String("method", method),
					zap.String("endpoint", endpoint),
					zap.Int("attempts", attempt+1),
					zap.Error(err))
			}
			return err
		}

		delay := BackoffDelay(attempt)
		c.log.Debug("Retrying API request",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err))
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (c *Client) attempt(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Message: "request to " + endpoint + " failed: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Message: "reading " + endpoint + " response failed: " + err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Endpoint: endpoint, Message: errorText(resp, raw)}
	}

	switch v := out.(type) {
	case nil:
		return nil
	case *string:
		*v = string(raw)
		return nil
	default:
		if err := json.Unmarshal(raw, out); err != nil {
			return &APIError{Status: resp.StatusCode, Endpoint: endpoint, Message: "malformed response body", Err: err}
		}
		return nil
	}
}

// errorText prefers the server's {code, message} body over the status text.
func errorText(resp *http.Response, raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		return body.Message
	}
	return "API request failed: " + http.StatusText(resp.StatusCode)
}

type startExamRequest struct {
	ExamType      string `json:"examType"`
	UserID        string `json:"userId,omitempty"`
	QuestionCount int    `json:"questionCount,omitempty"`
}

type submitAnswerRequest struct {
	SessionID      string `json:"sessionId"`
	UserID         string `json:"userId,omitempty"`
	QuestionIndex  int    `json:"questionIndex"`
	SelectedAnswer int    `json:"selectedAnswer"`
}

type completeExamRequest struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId,omitempty"`
}

func (c *Client) Health(ctx context.Context) (*model.HealthStatus, error) {
	var out model.HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Questions(ctx context.Context, examType string) ([]model.Question, error) {
	var out []model.Question
	err := c.do(ctx, http.MethodGet, "/questions/"+url.PathEscape(examType), nil, &out)
	return out, err
}

func (c *Client) RandomQuestions(ctx context.Context, examType string, count int) ([]model.Question, error) {
	var out []model.Question
	endpoint := "/questions/" + url.PathEscape(examType) + "/random/" + strconv.Itoa(count)
	err := c.do(ctx, http.MethodGet, endpoint, nil, &out)
	return out, err
}

// AddQuestion stores q; the server assigns an id when q.ID is empty.
func (c *Client) AddQuestion(ctx context.Context, q model.Question) (*model.Question, error) {
	var out model.Question
	if err := c.do(ctx, http.MethodPost, "/questions", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartExam starts a session. An empty userID and a zero questionCount leave
// the server defaults in place.
func (c *Client) StartExam(ctx context.Context, examType, userID string, questionCount int) (*model.ExamSessionSummary, error) {
	var out model.ExamSessionSummary
	req := startExamRequest{ExamType: examType, UserID: userID, QuestionCount: questionCount}
	if err := c.do(ctx, http.MethodPost, "/exam/start", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitAnswer overwrites one answer slot, so a retried submission is harmless.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID, userID string, questionIndex, selectedAnswer int) error {
	var confirmation string
	req := submitAnswerRequest{
		SessionID:      sessionID,
		UserID:         userID,
		QuestionIndex:  questionIndex,
		SelectedAnswer: selectedAnswer,
	}
	return c.do(ctx, http.MethodPost, "/exam/answer", req, &confirmation)
}

func (c *Client) CompleteExam(ctx context.Context, sessionID, userID string) (*model.ExamResult, error) {
	var out model.ExamResult
	if err := c.do(ctx, http.MethodPost, "/exam/complete", completeExamRequest{SessionID: sessionID, UserID: userID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SessionQuestions returns the questions of a session in order. Answer keys
// are present only once the session is completed.
func (c *Client) SessionQuestions(ctx context.Context, sessionID, userID string) ([]model.Question, error) {
	endpoint := "/exam/" + url.PathEscape(sessionID) + "/questions"
	if userID != "" {
		endpoint += "?userId=" + url.QueryEscape(userID)
	}
	var out []model.Question
	err := c.do(ctx, http.MethodGet, endpoint, nil, &out)
	return out, err
}
