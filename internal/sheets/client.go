// Package sheets talks to the spreadsheet web-app endpoint that backs the
// whole system. Every operation is a GET or POST against a single URL,
// discriminated by an "action" value, returning JSON.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/oms-suite/oms-gateway/pkg/config"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
)

const maxResponseBytes = 16 << 20

// Observer receives upstream call timings; implemented by the metrics
// service.
type Observer interface {
	ObserveUpstream(action string, duration time.Duration, success bool)
}

// Client issues requests against the configured web-app URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	observer   Observer
}

// NewClient constructs a sheet-backend client.
func NewClient(cfg config.SheetsConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SetObserver attaches a call-duration observer.
func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

// Result is the decoded upstream response. Login and dashboard responses
// carry their fields at the top level rather than under data, so the raw
// body is retained for whole-body decoding.
type Result struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`

	raw []byte
}

// ParseResult decodes a raw response body into a Result.
func ParseResult(raw []byte) (*Result, error) {
	result := &Result{raw: raw}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Decode unmarshals the whole response body into dest.
func (r *Result) Decode(dest interface{}) error {
	return json.Unmarshal(r.raw, dest)
}

// DecodeData unmarshals the data field into dest.
func (r *Result) DecodeData(dest interface{}) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("response carries no data field")
	}
	return json.Unmarshal(r.Data, dest)
}

// Err converts an unsuccessful result into a typed error, nil otherwise.
func (r *Result) Err() error {
	if r.Success {
		return nil
	}
	msg := r.Error
	if msg == "" {
		msg = "sheet backend rejected the operation"
	}
	return appErrors.Clone(appErrors.ErrUpstreamRejected, msg)
}

// Get issues a GET with the action and params encoded as query values.
func (c *Client) Get(ctx context.Context, action string, params map[string]string) (*Result, error) {
	values := url.Values{}
	values.Set("action", action)
	for key, value := range params {
		values.Set(key, value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build upstream request")
	}

	return c.do(req, action)
}

// Post issues a POST with the body JSON-encoded but sent as
// text/plain;charset=utf-8: the web-app endpoint cannot answer CORS
// preflight requests, so the original clients avoided content types that
// trigger one, and the deployed script expects exactly this shape.
func (c *Client) Post(ctx context.Context, body map[string]interface{}) (*Result, error) {
	action, _ := body["action"].(string)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode upstream payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build upstream request")
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	return c.do(req, action)
}

func (c *Client) do(req *http.Request, action string) (*Result, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(action, duration, false)
		c.logger.Warn("upstream request failed", zap.String("action", action), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "sheet backend unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.observe(action, duration, false)
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read upstream response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(action, duration, false)
		c.logger.Warn("upstream returned error status",
			zap.String("action", action), zap.Int("status", resp.StatusCode))
		return nil, appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("sheet backend returned status %d", resp.StatusCode))
	}

	result, err := ParseResult(raw)
	if err != nil {
		c.observe(action, duration, false)
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "decode upstream response")
	}

	c.observe(action, duration, result.Success)
	c.logger.Debug("upstream request",
		zap.String("action", action),
		zap.Bool("success", result.Success),
		zap.Duration("latency", duration))
	return result, nil
}

func (c *Client) observe(action string, duration time.Duration, success bool) {
	if c.observer != nil {
		c.observer.ObserveUpstream(action, duration, success)
	}
}
