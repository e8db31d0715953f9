package nezha

import "context"

func (c *Client) ListNotifications(ctx context.Context) ([]Notification, error) {
	return fetch[[]Notification](ctx, c, get("/api/v1/notification"))
}

// AddNotification creates a notification method and returns its id.
func (c *Client) AddNotification(ctx context.Context, form NotificationForm) (uint64, error) {
	return fetch[uint64](ctx, c, post("/api/v1/notification", form))
}

func (c *Client) UpdateNotification(ctx context.Context, id uint64, form NotificationForm) error {
	return c.exec(ctx, patch(idPath("/api/v1/notification", id), form))
}

func (c *Client) DeleteNotifications(ctx context.Context, ids []uint64) error {
	return c.exec(ctx, post("/api/v1/batch-delete/notification", nonNil(ids)))
}

func (c *Client) ListAlertRules(ctx context.Context) ([]AlertRule, error) {
	return fetch[[]AlertRule](ctx, c, get("/api/v1/alert-rule"))
}

// AddAlertRule creates a rule and returns its id.
func (c *Client) AddAlertRule(ctx context.Context, form AlertRuleForm) (uint64, error) {
	return fetch[uint64](ctx, c, post("/api/v1/alert-rule", form))
}

func (c *Client) UpdateAlertRule(ctx context.Context, id uint64, form AlertRuleForm) error {
	return c.exec(ctx, patch(idPath("/api/v1/alert-rule", id), form))
}

func (c *Client) DeleteAlertRules(ctx context.Context, ids []uint64) error {
	return c.exec(ctx, post("/api/v1/batch-delete/alert-rule", nonNil(ids)))
}
