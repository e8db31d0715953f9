package nezha

import (
	"context"
	"net/url"
)

// LegacyServerList returns servers from the older list endpoint, optionally
// filtered by tag.
func (c *Client) LegacyServerList(ctx context.Context, tag string) ([]LegacyServer, error) {
	op := get("/api/v1/server/list").legacy()
	if tag != "" {
		op = op.withQuery(url.Values{"tag": {tag}})
	}
	return fetch[[]LegacyServer](ctx, c, op)
}

// LegacyMonitorHistory returns the service-check delay series for a server.
func (c *Client) LegacyMonitorHistory(ctx context.Context, serverID uint64) ([]MonitorHistory, error) {
	return fetch[[]MonitorHistory](ctx, c, get(idPath("/api/v1/monitor", serverID)).legacy())
}
