package nezha

import "context"

// ServerDetails returns every server with its host info and live state.
func (c *Client) ServerDetails(ctx context.Context) ([]Server, error) {
	return fetch[[]Server](ctx, c, get("/api/v1/server/details"))
}

// ListServers returns the server inventory.
func (c *Client) ListServers(ctx context.Context) ([]Server, error) {
	return fetch[[]Server](ctx, c, get("/api/v1/server"))
}

// UpdateServer edits a server's dashboard metadata.
func (c *Client) UpdateServer(ctx context.Context, id uint64, form ServerForm) error {
	return c.exec(ctx, patch(idPath("/api/v1/server", id), form))
}

// DeleteServers removes servers by id.
func (c *Client) DeleteServers(ctx context.Context, ids []uint64) error {
	return c.exec(ctx, post("/api/v1/batch-delete/server", nonNil(ids)))
}

// nonNil keeps an empty id list encoding as [] rather than null.
func nonNil(ids []uint64) []uint64 {
	if ids == nil {
		return []uint64{}
	}
	return ids
}
