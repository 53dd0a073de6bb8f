package enjin

import (
	"context"
	"fmt"

	"github.com/enjincraft/platform-go/template"
)

// GetPlatformInfo fetches the platform's identity and notification
// settings.
func (c *Client) GetPlatformInfo(ctx context.Context) (*PlatformInfo, error) {
	resp, err := c.postTemplate(ctx, c.templates.platform, "GetPlatformInfo", template.NewBindings())
	if err != nil {
		return nil, err
	}

	var info PlatformInfo
	if err := resp.Decode("data.result", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetApp fetches an application by id.
func (c *Client) GetApp(ctx context.Context, id int) (*App, error) {
	resp, err := c.postTemplate(ctx, c.templates.platform, "GetAppByID",
		template.NewBindings().SetInt("id", id))
	if err != nil {
		return nil, err
	}

	var apps []App
	if err := resp.Decode("data.result", &apps); err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return nil, fmt.Errorf("enjin: app %d not found", id)
	}
	return &apps[0], nil
}

// UpdateApp updates the app's name, description and image.
func (c *Client) UpdateApp(ctx context.Context, app App) (*App, error) {
	resp, err := c.postTemplate(ctx, c.templates.platform, "UpdateApp",
		template.NewBindings().
			Set("name", app.Name).
			Set("description", app.Description).
			Set("image", app.Image))
	if err != nil {
		return nil, err
	}

	var updated App
	if err := resp.Decode("data.result", &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetAllowance raises the identity's ENJ approval to the maximum so
// the platform can move tokens on its behalf. The optional callback
// fires when the approval transaction executes on chain.
func (c *Client) SetAllowance(ctx context.Context, identityID int, cb func(RequestEvent)) (*Request, error) {
	query, err := c.renderTemplate(c.templates.platform, "SetAllowance",
		template.NewBindings().
			SetInt("appId", c.cfg.AppID).
			SetInt("identityId", identityID))
	if err != nil {
		return nil, err
	}
	return c.createRequest(ctx, "SetAllowance", query, cb)
}
