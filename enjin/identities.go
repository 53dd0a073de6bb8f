package enjin

import (
	"context"
	"fmt"

	"github.com/enjincraft/platform-go/template"
)

// GetIdentity fetches one identity by id.
func (c *Client) GetIdentity(ctx context.Context, id int) (*Identity, error) {
	resp, err := c.postTemplate(ctx, c.templates.identity, "GetIdentity",
		template.NewBindings().SetInt("id", id))
	if err != nil {
		return nil, err
	}

	var identities []Identity
	if err := resp.Decode("data.result", &identities); err != nil {
		return nil, err
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("enjin: identity %d not found", id)
	}
	return &identities[0], nil
}

// CreateIdentity registers an identity for a user, optionally with an
// Ethereum address already attached.
func (c *Client) CreateIdentity(ctx context.Context, userID int, ethAddress string) (*Identity, error) {
	resp, err := c.postTemplate(ctx, c.templates.identity, "CreateIdentity",
		template.NewBindings().
			SetInt("userId", userID).
			Set("ethAddress", ethAddress))
	if err != nil {
		return nil, err
	}

	var identity Identity
	if err := resp.Decode("data.result", &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// UpdateIdentity rewrites an identity's user and address.
func (c *Client) UpdateIdentity(ctx context.Context, identity Identity) (*Identity, error) {
	resp, err := c.postTemplate(ctx, c.templates.identity, "UpdateIdentity",
		template.NewBindings().
			SetInt("id", identity.ID).
			SetInt("userId", identity.User.ID).
			Set("ethAddress", identity.Wallet.EthAddress))
	if err != nil {
		return nil, err
	}

	var updated Identity
	if err := resp.Decode("data.result", &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteIdentity removes an identity. The attached user, if any, is
// removed with it.
func (c *Client) DeleteIdentity(ctx context.Context, id int) error {
	_, err := c.postTemplate(ctx, c.templates.identity, "DeleteIdentity",
		template.NewBindings().SetInt("id", id))
	return err
}

// UnlinkIdentity detaches an identity from its wallet, yielding a
// fresh linking code.
func (c *Client) UnlinkIdentity(ctx context.Context, id int) error {
	_, err := c.postTemplate(ctx, c.templates.identity, "UnlinkIdentity",
		template.NewBindings().SetInt("id", id))
	return err
}

// GetWalletBalances fetches a wallet's balances across all apps.
func (c *Client) GetWalletBalances(ctx context.Context, ethAddress string) (*Wallet, error) {
	resp, err := c.postTemplate(ctx, c.templates.identity, "GetWalletBalances",
		template.NewBindings().Set("ethAddress", ethAddress))
	if err != nil {
		return nil, err
	}

	var wallet Wallet
	if err := resp.Decode("data.result", &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}

// GetWalletBalancesForApp fetches a wallet's balances scoped to one
// app.
func (c *Client) GetWalletBalancesForApp(ctx context.Context, ethAddress string, appID int) (*Wallet, error) {
	resp, err := c.postTemplate(ctx, c.templates.identity, "GetWalletBalancesForApp",
		template.NewBindings().
			Set("ethAddress", ethAddress).
			SetInt("appId", appID))
	if err != nil {
		return nil, err
	}

	var wallet Wallet
	if err := resp.Decode("data.result", &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}
