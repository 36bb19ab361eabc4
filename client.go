package grovepwmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
)

// A Client talks to grovepwmd over its unix socket.
type Client struct {
	http *http.Client
}

func NewClient(socket string) *Client {
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socket)
				},
				DisableCompression: false,
			},
		},
	}
}

func (c *Client) SetSpeed(ctx context.Context, speed1, speed2 float64) (State, error) {
	return c.do(ctx, http.MethodPost, "/speed", SpeedRequest{Speed1: speed1, Speed2: speed2})
}

func (c *Client) SetFrequency(ctx context.Context, frequency string) (State, error) {
	return c.do(ctx, http.MethodPost, "/frequency", FrequencyRequest{Frequency: frequency})
}

func (c *Client) Stop(ctx context.Context) (State, error) {
	return c.do(ctx, http.MethodPost, "/stop", nil)
}

func (c *Client) State(ctx context.Context) (State, error) {
	return c.do(ctx, http.MethodGet, "/state", nil)
}

// Monitor opens the state stream. The caller must close the returned body.
func (c *Client) Monitor(ctx context.Context) (*SSEReader, io.Closer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://unix/monitor", nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, nil, responseError(resp)
	}

	return NewSSEReader(resp.Body), resp.Body, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (State, error) {
	var state State

	var body io.Reader
	if payload != nil {
		p, err := json.Marshal(payload)
		if err != nil {
			return state, err
		}
		body = bytes.NewReader(p)
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://unix"+path, body)
	if err != nil {
		return state, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return state, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return state, responseError(resp)
	}

	err = json.NewDecoder(resp.Body).Decode(&state)
	return state, err
}

func responseError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var e ErrorResponse
	if err := json.Unmarshal(b, &e); err == nil && e.Error != "" {
		return fmt.Errorf("grovepwmd: %s: %s", resp.Status, e.Error)
	}
	return fmt.Errorf("grovepwmd: bad status: %s body=%q", resp.Status, string(b))
}
