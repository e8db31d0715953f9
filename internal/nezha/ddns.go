package nezha

import "context"

func (c *Client) ListDDNS(ctx context.Context) ([]DDNSProfile, error) {
	return fetch[[]DDNSProfile](ctx, c, get("/api/v1/ddns"))
}

// DDNSProviders lists the provider names the dashboard supports.
func (c *Client) DDNSProviders(ctx context.Context) ([]string, error) {
	return fetch[[]string](ctx, c, get("/api/v1/ddns/providers"))
}

// AddDDNS creates a profile and returns its id.
func (c *Client) AddDDNS(ctx context.Context, form DDNSForm) (uint64, error) {
	return fetch[uint64](ctx, c, post("/api/v1/ddns", form))
}

func (c *Client) UpdateDDNS(ctx context.Context, id uint64, form DDNSForm) error {
	return c.exec(ctx, patch(idPath("/api/v1/ddns", id), form))
}

func (c *Client) DeleteDDNS(ctx context.Context, ids []uint64) error {
	return c.exec(ctx, post("/api/v1/batch-delete/ddns", nonNil(ids)))
}

func (c *Client) ListNAT(ctx context.Context) ([]NATProfile, error) {
	return fetch[[]NATProfile](ctx, c, get("/api/v1/nat"))
}

// AddNAT creates a profile and returns its id.
func (c *Client) AddNAT(ctx context.Context, form NATForm) (uint64, error) {
	return fetch[uint64](ctx, c, post("/api/v1/nat", form))
}

func (c *Client) UpdateNAT(ctx context.Context, id uint64, form NATForm) error {
	return c.exec(ctx, patch(idPath("/api/v1/nat", id), form))
}

func (c *Client) DeleteNAT(ctx context.Context, ids []uint64) error {
	return c.exec(ctx, post("/api/v1/batch-delete/nat", nonNil(ids)))
}
