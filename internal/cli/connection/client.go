package connection

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/yndnr/seqlink-go/internal/core/domain"
)

// Client is a typed seqlink API client.
type Client struct {
	http *HTTPClient
}

// NewClient creates a client for server.
func NewClient(server string, timeout time.Duration, opts ...HTTPOption) *Client {
	return &Client{http: NewHTTPClient(server, timeout, opts...)}
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.http.BaseURL()
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*Status, error) {
	return c.status(ctx, "/health")
}

// Ready calls GET /ready.
func (c *Client) Ready(ctx context.Context) (*Status, error) {
	return c.status(ctx, "/ready")
}

func (c *Client) status(ctx context.Context, path string) (*Status, error) {
	resp, err := c.http.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	var st Status
	if err := ParseResponse(resp, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Info calls GET /v1/info.
func (c *Client) Info(ctx context.Context) (*ServerInfo, error) {
	resp, err := c.http.Get(ctx, "/v1/info")
	if err != nil {
		return nil, err
	}
	var info ServerInfo
	if err := ParseResponse(resp, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Handshake sends the initiator's public keys and returns the responder's.
func (c *Client) Handshake(ctx context.Context, id string, req *HandshakeRequest) (*HandshakeResponse, error) {
	resp, err := c.http.Post(ctx, conversationPath(id, "/handshake"), req)
	if err != nil {
		return nil, err
	}
	var out HandshakeResponse
	if err := ParseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Exchange delivers one frame. The returned frame is nil when the server
// accepted the message without replying.
func (c *Client) Exchange(ctx context.Context, id string, frame *Frame) (*Frame, error) {
	resp, err := c.http.Post(ctx, conversationPath(id, "/exchange"), frame)
	if err != nil {
		return nil, err
	}
	noReply := resp.StatusCode == http.StatusAccepted
	var out Frame
	if err := ParseResponse(resp, &out); err != nil {
		return nil, err
	}
	if noReply {
		return nil, nil
	}
	return &out, nil
}

// Describe returns diagnostics for a conversation.
func (c *Client) Describe(ctx context.Context, id string) (*domain.SessionInfo, error) {
	resp, err := c.http.Get(ctx, conversationPath(id, ""))
	if err != nil {
		return nil, err
	}
	var info domain.SessionInfo
	if err := ParseResponse(resp, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Close asks the server to drop a conversation.
func (c *Client) Close(ctx context.Context, id string) error {
	resp, err := c.http.Post(ctx, conversationPath(id, "/close"), nil)
	if err != nil {
		return err
	}
	return ParseResponse(resp, nil)
}

func conversationPath(id, suffix string) string {
	return "/v1/conversations/" + url.PathEscape(id) + suffix
}
