// Package backend is the HTTP client for the trading system API that feeds the dashboard.
//
// Every operation performs exactly one request. The client applies no validation,
// retry or timeout of its own: deadlines come from the caller's context.
package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"quantum-dashboard/internal/common"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// StatusError is returned by read calls when the backend answers with a non-2xx status.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s: status %d, body: %s", e.Path, e.StatusCode, e.Body)
}

type requestIDKey struct{}

// WithRequestID attaches the X-Request-ID sent with write calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request ID attached to ctx, or a fresh one.
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

type Client struct {
	base string
	rest *resty.Client
}

func NewClient(base string) *Client {
	r := resty.New().
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	return &Client{base: base, rest: r}
}

func (c *Client) GetLiveStatus(ctx context.Context) (LiveStatus, error) {
	var status LiveStatus
	if err := c.get(ctx, common.PathLiveStatus, nil, &status); err != nil {
		return LiveStatus{}, err
	}
	status.normalize()
	return status, nil
}

func (c *Client) GetTradeHistory(ctx context.Context, q Query) ([]Trade, error) {
	var trades []Trade
	if err := c.get(ctx, common.PathTradeHistory, q.Params(), &trades); err != nil {
		return nil, err
	}
	if trades == nil {
		trades = []Trade{}
	}
	return trades, nil
}

func (c *Client) GetQuantumSignals(ctx context.Context) (QuantumSignals, error) {
	var signals QuantumSignals
	if err := c.get(ctx, common.PathSignals, nil, &signals); err != nil {
		return nil, err
	}
	if signals == nil {
		signals = QuantumSignals{}
	}
	return signals, nil
}

func (c *Client) GetPerformanceMetrics(ctx context.Context, q Query) (PerformanceMetrics, error) {
	var metrics PerformanceMetrics
	if err := c.get(ctx, common.PathPerformance, q.Params(), &metrics); err != nil {
		return PerformanceMetrics{}, err
	}
	metrics.normalize()
	return metrics, nil
}

// SendOrder posts a new order and returns the server response verbatim.
func (c *Client) SendOrder(ctx context.Context, o OrderRequest) (json.RawMessage, error) {
	return c.post(ctx, common.PathOrder, o)
}

// ModifyOrder changes SL/TP of an open position.
func (c *Client) ModifyOrder(ctx context.Context, m ModifyRequest) (json.RawMessage, error) {
	return c.post(ctx, common.PathOrderModify, m)
}

// CloseOrder closes an open position.
func (c *Client) CloseOrder(ctx context.Context, cl CloseRequest) (json.RawMessage, error) {
	return c.post(ctx, common.PathOrderClose, cl)
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(c.base + path)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", path, err)
	}

	if !resp.IsSuccess() {
		return &StatusError{Path: path, StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// post returns whatever JSON the server answered, whatever the status code:
// rejections are part of the result shown to the operator.
func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Request-ID", RequestIDFrom(ctx)).
		SetBody(body).
		Post(c.base + path)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", path, err)
	}

	raw := resp.Body()
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%s returned a non-JSON body (status %d)", path, resp.StatusCode())
	}

	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out, nil
}
