package nezha

import "context"

func (c *Client) ListServerGroups(ctx context.Context) ([]ServerGroup, error) {
	return fetch[[]ServerGroup](ctx, c, get("/api/v1/server-group"))
}

// AddServerGroup creates a group and returns its id.
func (c *Client) AddServerGroup(ctx context.Context, form ServerGroupForm) (uint64, error) {
	return fetch[uint64](ctx, c, post("/api/v1/server-group", form))
}

func (c *Client) UpdateServerGroup(ctx context.Context, id uint64, form ServerGroupForm) error {
	return c.exec(ctx, patch(idPath("/api/v1/server-group", id), form))
}

func (c *Client) DeleteServerGroups(ctx context.Context, ids []uint64) error {
	return c.exec(ctx, post("/api/v1/batch-delete/server-group", nonNil(ids)))
}

func (c *Client) ListNotificationGroups(ctx context.Context) ([]NotificationGroup, error) {
	return fetch[[]NotificationGroup](ctx, c, get("/api/v1/notification-group"))
}

// AddNotificationGroup creates a group and returns its id.
func (c *Client) AddNotificationGroup(ctx context.Context, form NotificationGroupForm) (uint64, error) {
	return fetch[uint64](ctx, c, post("/api/v1/notification-group", form))
}

func (c *Client) UpdateNotificationGroup(ctx context.Context, id uint64, form NotificationGroupForm) error {
	return c.exec(ctx, patch(idPath("/api/v1/notification-group", id), form))
}

func (c *Client) DeleteNotificationGroups(ctx context.Context, ids []uint64) error {
	return c.exec(ctx, post("/api/v1/batch-delete/notification-group", nonNil(ids)))
}
