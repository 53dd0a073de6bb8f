package enjin

import (
	"context"
	"fmt"
	"strconv"

	"github.com/enjincraft/platform-go/template"
)

const (
	getTokenQuery = `query getCryptoItem{result:EnjinTokens(id:"$id^"){id,name,totalSupply,reserve,circulatingSupply,supplyModel,meltValue,meltFeeRatio,transferable,transferFeeSettings{type,tokenId,value},nonFungible,markedForDelete,itemURI}}`

	getTokensQuery = `query getAllItems{result:EnjinTokens(pagination:{page:$page^}){items{index,id,name,creator,totalSupply,reserve,circulatingSupply,supplyModel,meltValue,meltFeeRatio,meltFeeMaxRatio,transferable,transferFeeSettings{type,tokenId,value},nonFungible,icon,markedForDelete}cursor{total,hasPages,perPage,currentPage}}}`

	getTokensLimitQuery = `query getAllItems{result:EnjinTokens(pagination:{limit:$limit^,page:$page^}){items{index,id,name,creator,totalSupply,reserve,circulatingSupply,supplyModel,meltValue,meltFeeRatio,meltFeeMaxRatio,transferable,transferFeeSettings{type,tokenId,value},nonFungible,icon,markedForDelete}cursor{total,hasPages,perPage,currentPage}}}`

	getItemURIQuery = `query cryptoItemURI{result:EnjinTokens(id:"$itemID^"){name,itemURI(replace_uri_parameters:$replaceTags^)}}`
)

// GetToken fetches one token definition by id.
func (c *Client) GetToken(ctx context.Context, id string) (*CryptoItem, error) {
	query, err := template.Render(getTokenQuery, template.NewBindings().Set("id", id))
	if err != nil {
		return nil, fmt.Errorf("enjin: render GetToken query: %w", err)
	}
	resp, err := c.post(ctx, "GetToken", query)
	if err != nil {
		return nil, err
	}

	var items []CryptoItem
	if err := resp.Decode("data.result", &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("enjin: token %s not found", id)
	}
	return &items[0], nil
}

// GetTokens fetches one page of token definitions. A limit of zero
// uses the platform's default page size.
func (c *Client) GetTokens(ctx context.Context, page, limit int) (*TokenPage, error) {
	b := template.NewBindings().SetInt("page", page)
	tmpl := getTokensQuery
	if limit > 0 {
		tmpl = getTokensLimitQuery
		b.SetInt("limit", limit)
	}

	query, err := template.Render(tmpl, b)
	if err != nil {
		return nil, fmt.Errorf("enjin: render GetTokens query: %w", err)
	}
	resp, err := c.post(ctx, "GetTokens", query)
	if err != nil {
		return nil, err
	}

	var pageData TokenPage
	if err := resp.Decode("data.result", &pageData); err != nil {
		return nil, err
	}
	return &pageData, nil
}

// GetCryptoItemURI fetches a token's metadata URI. replaceTags selects
// whether the platform substitutes URI parameters before returning it.
func (c *Client) GetCryptoItemURI(ctx context.Context, itemID string, replaceTags bool) (string, error) {
	query, err := template.Render(getItemURIQuery,
		template.NewBindings().
			Set("itemID", itemID).
			SetBool("replaceTags", replaceTags))
	if err != nil {
		return "", fmt.Errorf("enjin: render GetCryptoItemURI query: %w", err)
	}
	resp, err := c.post(ctx, "GetCryptoItemURI", query)
	if err != nil {
		return "", err
	}

	uri := resp.Data("data.result.0.itemURI").String()
	if uri == "" {
		return "", fmt.Errorf("enjin: token %s has no item URI", itemID)
	}
	return uri, nil
}

// CryptoItemBatch accumulates transfers for one advanced send.
// Non-fungible items always move one instance at a time.
type CryptoItemBatch struct {
	userID    int
	transfers []string
}

// NewCryptoItemBatch starts a batch sent on behalf of the given user
// identity.
func NewCryptoItemBatch(userID int) *CryptoItemBatch {
	return &CryptoItemBatch{userID: userID}
}

// Add appends one transfer. Amounts below one are ignored.
func (b *CryptoItemBatch) Add(fromAddress, toAddress string, item CryptoItem, amount int) *CryptoItemBatch {
	if amount <= 0 {
		return b
	}

	if item.NonFungible {
		b.transfers = append(b.transfers, fmt.Sprintf(
			`from:"%s",to:"%s",token_id:"%s",token_index:"%s",value:"1"`,
			fromAddress, toAddress, item.ID, item.Index))
	} else {
		b.transfers = append(b.transfers, fmt.Sprintf(
			`from:"%s",to:"%s",token_id:"%s",value:"%s"`,
			fromAddress, toAddress, item.ID, strconv.Itoa(amount)))
	}
	return b
}

// Len reports the number of queued transfers.
func (b *CryptoItemBatch) Len() int { return len(b.transfers) }

// Clear drops all queued transfers.
func (b *CryptoItemBatch) Clear() { b.transfers = nil }

// Send submits the batch through the client.
func (b *CryptoItemBatch) Send(ctx context.Context, c *Client) (*Request, error) {
	return c.SendBatchCryptoItems(ctx, b, b.userID)
}
