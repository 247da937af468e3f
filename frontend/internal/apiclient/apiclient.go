package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/itchan-dev/discussion/shared/api"
	"github.com/itchan-dev/discussion/shared/csrf"
	internal_errors "github.com/itchan-dev/discussion/shared/errors"
	"github.com/itchan-dev/discussion/shared/logger"
	"github.com/itchan-dev/discussion/shared/metrics"
	mw "github.com/itchan-dev/discussion/shared/middleware"
)

const RequestIDHeader = "X-Request-ID"

// APIClient struct handles all communication with the forum API.
// Threads and replies live under independently configured base URLs.
type APIClient struct {
	ThreadsURL   string
	RepliesURL   string
	CSRFToken    string
	SessionToken string
	HttpClient   *http.Client
}

// New creates a client. Base URLs are expected to end with a slash.
func New(threadsURL, repliesURL, csrfToken string, timeout time.Duration) *APIClient {
	return &APIClient{
		ThreadsURL: ensureSlash(threadsURL),
		RepliesURL: ensureSlash(repliesURL),
		CSRFToken:  csrfToken,
		HttpClient: &http.Client{Timeout: timeout},
	}
}

func ensureSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}

// request describes one API call; op labels metrics and logs.
type request struct {
	op          string
	method      string
	url         string
	body        io.Reader
	contentType string
}

func jsonRequest(op, method, url string, payload any) (request, error) {
	req := request{op: op, method: method, url: url}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return req, fmt.Errorf("failed to marshal %s payload: %w", op, err)
		}
		req.body = bytes.NewReader(data)
		req.contentType = "application/json"
	}
	return req, nil
}

// do is the single, unified helper for making API requests. A nil error
// means a 2xx response whose body the caller must close.
func (c *APIClient) do(ctx context.Context, r request) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, r.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create API request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if !csrf.IsSafeMethod(r.method) {
		req.Header.Set(csrf.HeaderName, c.CSRFToken)
	}
	if c.SessionToken != "" {
		req.AddCookie(&http.Cookie{Name: mw.SessionCookieName, Value: c.SessionToken})
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	started := time.Now()
	resp, err := c.HttpClient.Do(req)
	if err != nil {
		metrics.ObserveClientRequest(r.op, 0, started)
		logger.Log.Error("forum API unavailable", "op", r.op, "request_id", requestID, "error", err)
		return nil, &internal_errors.RequestError{Method: r.method, URL: r.url, Err: err}
	}
	metrics.ObserveClientRequest(r.op, resp.StatusCode, started)
	logger.Log.Debug("forum API call", "op", r.op, "status", resp.StatusCode, "request_id", requestID,
		"duration", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, errorFromResponse(r, resp)
	}
	return resp, nil
}

// errorFromResponse normalizes a non-success response. A 400 carrying a
// detail message is the server rejecting the content of the payload.
func errorFromResponse(r request, resp *http.Response) error {
	var body api.ErrorResponse
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(bodyBytes, &body)

	if resp.StatusCode == http.StatusBadRequest && body.Detail != "" {
		return &internal_errors.ValidationError{Message: body.Detail}
	}
	return &internal_errors.RequestError{
		Method:     r.method,
		URL:        r.url,
		StatusCode: resp.StatusCode,
		Detail:     body.Detail,
	}
}

func decode(r request, resp *http.Response, out any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cannot decode %s response: %w", r.op, err)
	}
	return nil
}

// call performs the request and decodes the JSON answer into out (unless nil).
func (c *APIClient) call(ctx context.Context, r request, out any) error {
	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil {
		resp.Body.Close()
		return nil
	}
	return decode(r, resp, out)
}
