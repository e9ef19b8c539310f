package updater

import (
	"context"
	"log"
	"time"

	"github.com/easycue/easycue/internal/config"
)

// CheckIfDue runs Check when check_on_startup is set and the configured
// frequency has elapsed. It returns nil, nil when no check was due.
func (c *Client) CheckIfDue(ctx context.Context, now time.Time) (*Result, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	if !settings.Updates.CheckOnStartup || !Due(settings.Updates, now) {
		return nil, nil
	}
	return c.CheckAndRecord(ctx, now)
}

// CheckAndRecord runs Check and stores now as updates.last_checked.
func (c *Client) CheckAndRecord(ctx context.Context, now time.Time) (*Result, error) {
	res, err := c.Check(ctx)
	if err != nil {
		return nil, err
	}

	settings, err := config.LoadSettings()
	if err == nil {
		checked := now.UTC()
		settings.Updates.LastChecked = &checked
		err = config.SaveSettings(settings)
	}
	if err != nil {
		log.Printf("[update] Failed to record last_checked: %v", err)
	}
	return res, nil
}
