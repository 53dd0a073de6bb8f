package enjin

import (
	"context"

	"github.com/enjincraft/platform-go/template"
)

// CreatePlayer registers a new user under the current app.
func (c *Client) CreatePlayer(ctx context.Context, name string) (*User, error) {
	resp, err := c.postTemplate(ctx, c.templates.user, "CreateUser",
		template.NewBindings().Set("name", name))
	if err != nil {
		return nil, err
	}

	var user User
	if err := resp.Decode("data.result", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, id int) (*User, error) {
	resp, err := c.postTemplate(ctx, c.templates.user, "GetUserForId",
		template.NewBindings().SetInt("id", id))
	if err != nil {
		return nil, err
	}

	var user User
	if err := resp.Decode("data.result", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByName fetches a user by name.
func (c *Client) GetUserByName(ctx context.Context, name string) (*User, error) {
	resp, err := c.postTemplate(ctx, c.templates.user, "GetUserForName",
		template.NewBindings().Set("name", name))
	if err != nil {
		return nil, err
	}

	var user User
	if err := resp.Decode("data.result", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetCurrentUser fetches the user the session's token belongs to.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	resp, err := c.postTemplate(ctx, c.templates.user, "GetCurrentUser", template.NewBindings())
	if err != nil {
		return nil, err
	}

	var user User
	if err := resp.Decode("data.result", &user); err != nil {
		return nil, err
	}
	return &user, nil
}
