package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"distcache/internal/coordinator"
	"distcache/internal/replication"
	"distcache/internal/ring"
	"distcache/internal/store"
)

// Client issues internal RPCs against peer nodes. It implements
// coordinator.Transport (and therefore replication.Transport). A single
// Client is shared by all strategies on a node; the underlying
// http.Client pools connections per host.
type Client struct {
	http *http.Client
}

// NewClient returns a client with the given per-request timeout floor.
// Callers still bound individual requests via ctx.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = replication.DefaultTimeout
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// ReplicaPut delivers a replicated write to node.
func (c *Client) ReplicaPut(ctx context.Context, node ring.Node, req replication.PutRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode put request: %w", err)
	}
	u := fmt.Sprintf("http://%s/internal/put", node.Addr())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("put to %s: %w: %v", node.ID, coordinator.ErrNodeUnavailable, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("put to %s: %w", node.ID, errorFromResponse(resp))
	}
	return nil
}

// RemoteGet reads key from node. A 404 maps to store.ErrNotFound so the
// coordinator can distinguish a genuine miss from an unreachable peer.
func (c *Client) RemoteGet(ctx context.Context, node ring.Node, key string) (string, error) {
	u := fmt.Sprintf("http://%s/internal/get?key=%s", node.Addr(), url.QueryEscape(key))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("get from %s: %w: %v", node.ID, coordinator.ErrNodeUnavailable, err)
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		var out getResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("decode get response from %s: %w", node.ID, err)
		}
		return out.Value, nil
	case http.StatusNotFound:
		return "", store.ErrNotFound
	default:
		return "", fmt.Errorf("get from %s: %w", node.ID, errorFromResponse(resp))
	}
}

// RemoteDelete removes key on node. A 404 on the peer counts as done.
func (c *Client) RemoteDelete(ctx context.Context, node ring.Node, key string) error {
	u := fmt.Sprintf("http://%s/internal/delete?key=%s", node.Addr(), url.QueryEscape(key))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("delete on %s: %w: %v", node.ID, coordinator.ErrNodeUnavailable, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete on %s: %w", node.ID, errorFromResponse(resp))
	}
	return nil
}

func errorFromResponse(resp *http.Response) error {
	var er errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&er); err == nil && er.Error != "" {
		return fmt.Errorf("status %d: %s", resp.StatusCode, er.Error)
	}
	return fmt.Errorf("status %d", resp.StatusCode)
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}

var _ coordinator.Transport = (*Client)(nil)
