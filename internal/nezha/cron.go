package nezha

import "context"

// ListCrons returns the scheduled tasks.
func (c *Client) ListCrons(ctx context.Context) ([]Cron, error) {
	return fetch[[]Cron](ctx, c, get("/api/v1/cron"))
}

// AddCron creates a task and returns its id.
func (c *Client) AddCron(ctx context.Context, form CronForm) (uint64, error) {
	return fetch[uint64](ctx, c, post("/api/v1/cron", form))
}

// UpdateCron replaces a task definition.
func (c *Client) UpdateCron(ctx context.Context, id uint64, form CronForm) error {
	return c.exec(ctx, patch(idPath("/api/v1/cron", id), form))
}

// DeleteCrons removes tasks by id.
func (c *Client) DeleteCrons(ctx context.Context, ids []uint64) error {
	return c.exec(ctx, post("/api/v1/batch-delete/cron", nonNil(ids)))
}

// RunCron triggers a task immediately on its servers.
func (c *Client) RunCron(ctx context.Context, id uint64) error {
	return c.exec(ctx, get(idPath("/api/v1/cron", id)+"/manual"))
}
