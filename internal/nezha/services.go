package nezha

import "context"

// ServiceOverview returns the public 30-day uptime summary keyed by service id.
func (c *Client) ServiceOverview(ctx context.Context) (ServiceOverview, error) {
	return fetch[ServiceOverview](ctx, c, get("/api/v1/service").public())
}

// ListServices returns the configured service monitors.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	return fetch[[]Service](ctx, c, get("/api/v1/service/list"))
}

// AddService creates a monitor and returns its id.
func (c *Client) AddService(ctx context.Context, form ServiceForm) (uint64, error) {
	return fetch[uint64](ctx, c, post("/api/v1/service", form))
}

func (c *Client) UpdateService(ctx context.Context, id uint64, form ServiceForm) error {
	return c.exec(ctx, patch(idPath("/api/v1/service", id), form))
}

func (c *Client) DeleteServices(ctx context.Context, ids []uint64) error {
	return c.exec(ctx, post("/api/v1/batch-delete/service", nonNil(ids)))
}
