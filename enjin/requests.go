package enjin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/enjincraft/platform-go/graphql"
	"github.com/enjincraft/platform-go/template"
)

var (
	// ErrMismatchedTradeItems is returned when a trade's item and
	// amount slices differ in length.
	ErrMismatchedTradeItems = errors.New("enjin: trade items and amounts differ in length")
	// ErrEmptyTradeItems is returned when either side of a trade
	// offers nothing.
	ErrEmptyTradeItems = errors.New("enjin: trade requires items on both sides")
	// ErrNoSecondParty is returned when a trade names neither an
	// address nor an identity for the second party.
	ErrNoSecondParty = errors.New("enjin: trade requires a second party address or identity")
)

// CryptoItemFieldType selects which token field UpdateCryptoItem
// rewrites.
type CryptoItemFieldType int

const (
	FieldName CryptoItemFieldType = iota
	FieldTransferable
	FieldTransferFee
	FieldMeltFee
	FieldMaxMeltFee
	FieldMaxTransferFee
)

const (
	getRequestQuery = `query getRequest{request:EnjinTransactions(id:$id^){id,transactionId,appId,type,icon,title,value,state,accepted,updatedAt,createdAt}}`

	mintFungibleQuery = `mutation mintFToken{request:CreateEnjinRequest(appId:$appId^,identityId:$senderID^,type:MINT,mint_token_data:{token_id:"$itemID^",recipient_address_array:$addresses[]^,value:$value^}){id,encodedData,state}}`

	mintNonFungibleQuery = `mutation mintNFToken{request:CreateEnjinRequest(appId:$appId^,identityId:$senderID^,type:MINT,mint_token_data:{token_id:"$itemID^",recipient_address_array:$addresses[]^}){id,encodedData,state}}`

	sendItemQuery = `mutation sendItem{request:CreateEnjinRequest(appId:$appId^,type:SEND,identityId:$identityID^,send_token_data:{recipient_identity_id:$recipientID^,token_id:"$tokenID^",value:$value^}){id,encodedData,state}}`

	sendItemIndexedQuery = `mutation sendItem{request:CreateEnjinRequest(appId:$appId^,type:SEND,identityId:$identityID^,send_token_data:{recipient_identity_id:$recipientID^,token_id:"$tokenID^",token_index:"$index^",value:$value^}){id,encodedData,state}}`

	meltItemQuery = `mutation meltToken{request:CreateEnjinRequest(appId:$appId^,type:MELT,identityId:$identityID^,melt_token_data:{token_id:"$itemID^",value:$amount^}){id,encodedData,state}}`

	meltItemIndexedQuery = `mutation meltToken{request:CreateEnjinRequest(appId:$appId^,type:MELT,identityId:$identityID^,melt_token_data:{token_id:"$itemID^",token_index:"$index^",value:$amount^}){id,encodedData,state}}`

	completeTradeQuery = `mutation completeTrade{request:CreateEnjinRequest(appId:$appId^,identityId:$identityID^,type:COMPLETE_TRADE,complete_trade_data:{trade_id:"$tradeID^"}){id,encodedData,state}}`

	updateItemNameQuery = `mutation updateItemName{request:CreateEnjinRequest(appId:$appId^,identityId:$identityID^,type:UPDATE_NAME,update_item_name_data:{token_id:"$id^",name:"$name^"}){id,encodedData,state}}`

	setItemURIQuery = `mutation setItemUri{request:CreateEnjinRequest(appId:$appId^,identityId:$identityID^,type:SET_ITEM_URI,set_item_uri_data:{token_id:"$itemID^",item_uri:"$itemData^"}){id,encodedData,state}}`

	setItemURIIndexedQuery = `mutation setItemUri{request:CreateEnjinRequest(appId:$appId^,identityId:$identityID^,type:SET_ITEM_URI,set_item_uri_data:{token_id:"$itemID^",token_index:$index^,item_uri:"$itemData^"}){id,encodedData,state}}`
)

// =============================================================================
// Request Plumbing
// =============================================================================

// createRequest posts a mutation that yields a transaction request and,
// when a callback is given, registers it against the returned id before
// returning. Registering first closes the window where a fast
// tx_executed event could arrive with no callback in place.
func (c *Client) createRequest(ctx context.Context, name, query string, cb func(RequestEvent)) (*Request, error) {
	resp, err := c.post(ctx, name, query)
	if err != nil {
		return nil, err
	}

	var req Request
	if err := resp.Decode("data.request", &req); err != nil {
		return nil, err
	}
	if cb != nil {
		if err := c.Registry.Add(req.ID, cb, c.callbackTTL()); err != nil {
			return nil, err
		}
	}
	return &req, nil
}

// createRequestAsync issues the mutation on a separate goroutine and
// registers the callback inside the completion handler, once the
// request id is known.
func (c *Client) createRequestAsync(ctx context.Context, name, query string, cb func(RequestEvent)) {
	c.gql.PostAsync(ctx, query, func(resp *graphql.Response, err error) {
		if err != nil {
			c.logger.Error("async request failed", "operation", name, "error", err)
			return
		}
		c.recordOutcome(resp)
		if !resp.Valid() {
			c.logger.Error("async request rejected", "operation", name, "code", resp.Code.String())
			return
		}

		var req Request
		if err := resp.Decode("data.request", &req); err != nil {
			c.logger.Error("async request undecodable", "operation", name, "error", err)
			return
		}
		if cb != nil {
			if err := c.Registry.Add(req.ID, cb, c.callbackTTL()); err != nil {
				c.logger.Warn("async request callback not registered", "operation", name, "request_id", req.ID, "error", err)
			}
		}
	})
}

// =============================================================================
// Transactions
// =============================================================================

// GetRequest fetches one transaction request by id.
func (c *Client) GetRequest(ctx context.Context, id int) (*Request, error) {
	query, err := template.Render(getRequestQuery, template.NewBindings().SetInt("id", id))
	if err != nil {
		return nil, fmt.Errorf("enjin: render GetRequest query: %w", err)
	}
	resp, err := c.post(ctx, "GetRequest", query)
	if err != nil {
		return nil, err
	}

	res := resp.Data("data.request")
	if res.IsArray() {
		var reqs []Request
		if err := resp.Decode("data.request", &reqs); err != nil {
			return nil, err
		}
		if len(reqs) == 0 {
			return nil, fmt.Errorf("enjin: request %d not found", id)
		}
		return &reqs[0], nil
	}

	var req Request
	if err := resp.Decode("data.request", &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// MintFungibleItem mints value units of a fungible token to each of
// the given addresses. The optional callback fires when the mint
// executes on chain.
func (c *Client) MintFungibleItem(ctx context.Context, senderID int, addresses []string, itemID string, value int, cb func(RequestEvent)) (*Request, error) {
	query, err := c.mintFungibleQuery(senderID, addresses, itemID, value)
	if err != nil {
		return nil, err
	}
	return c.createRequest(ctx, "MintFungibleItem", query, cb)
}

// MintFungibleItemAsync is MintFungibleItem off the calling goroutine;
// the callback is registered once the request id is known.
func (c *Client) MintFungibleItemAsync(ctx context.Context, senderID int, addresses []string, itemID string, value int, cb func(RequestEvent)) error {
	query, err := c.mintFungibleQuery(senderID, addresses, itemID, value)
	if err != nil {
		return err
	}
	c.createRequestAsync(ctx, "MintFungibleItem", query, cb)
	return nil
}

func (c *Client) mintFungibleQuery(senderID int, addresses []string, itemID string, value int) (string, error) {
	query, err := template.Render(mintFungibleQuery,
		template.NewBindings().
			SetInt("appId", c.cfg.AppID).
			SetInt("senderID", senderID).
			SetArray("addresses", addresses).
			Set("itemID", itemID).
			SetInt("value", value))
	if err != nil {
		return "", fmt.Errorf("enjin: render MintFungibleItem query: %w", err)
	}
	return query, nil
}

// MintNonFungibleItem mints one instance of a non-fungible token to
// each of the given addresses.
func (c *Client) MintNonFungibleItem(ctx context.Context, senderID int, addresses []string, itemID string, cb func(RequestEvent)) (*Request, error) {
	query, err := c.mintNonFungibleQuery(senderID, addresses, itemID)
	if err != nil {
		return nil, err
	}
	return c.createRequest(ctx, "MintNonFungibleItem", query, cb)
}

// MintNonFungibleItemAsync is MintNonFungibleItem off the calling
// goroutine.
func (c *Client) MintNonFungibleItemAsync(ctx context.Context, senderID int, addresses []string, itemID string, cb func(RequestEvent)) error {
	query, err := c.mintNonFungibleQuery(senderID, addresses, itemID)
	if err != nil {
		return err
	}
	c.createRequestAsync(ctx, "MintNonFungibleItem", query, cb)
	return nil
}

func (c *Client) mintNonFungibleQuery(senderID int, addresses []string, itemID string) (string, error) {
	query, err := template.Render(mintNonFungibleQuery,
		template.NewBindings().
			SetInt("appId", c.cfg.AppID).
			SetInt("senderID", senderID).
			SetArray("addresses", addresses).
			Set("itemID", itemID))
	if err != nil {
		return "", fmt.Errorf("enjin: render MintNonFungibleItem query: %w", err)
	}
	return query, nil
}

// SendCryptoItem transfers a token between identities. Non-fungible
// items are addressed by their instance index.
func (c *Client) SendCryptoItem(ctx context.Context, identityID int, item CryptoItem, recipientID, value int, cb func(RequestEvent)) (*Request, error) {
	query, err := c.sendItemQuery(identityID, item.ID, item.Index, item.NonFungible, recipientID, value)
	if err != nil {
		return nil, err
	}
	return c.createRequest(ctx, "SendCryptoItem", query, cb)
}

// SendCryptoItemByID transfers a fungible token addressed by id only.
func (c *Client) SendCryptoItemByID(ctx context.Context, identityID int, tokenID string, recipientID, value int, cb func(RequestEvent)) (*Request, error) {
	query, err := c.sendItemQuery(identityID, tokenID, "", false, recipientID, value)
	if err != nil {
		return nil, err
	}
	return c.createRequest(ctx, "SendCryptoItem", query, cb)
}

// SendCryptoItemAsync is SendCryptoItemByID off the calling goroutine.
func (c *Client) SendCryptoItemAsync(ctx context.Context, identityID int, tokenID string, recipientID, value int, cb func(RequestEvent)) error {
	query, err := c.sendItemQuery(identityID, tokenID, "", false, recipientID, value)
	if err != nil {
		return err
	}
	c.createRequestAsync(ctx, "SendCryptoItem", query, cb)
	return nil
}

func (c *Client) sendItemQuery(identityID int, tokenID, index string, nonFungible bool, recipientID, value int) (string, error) {
	b := template.NewBindings().
		SetInt("appId", c.cfg.AppID).
		SetInt("identityID", identityID).
		Set("tokenID", tokenID).
		SetInt("recipientID", recipientID).
		SetInt("value", value)

	tmpl := sendItemQuery
	if nonFungible && index != "" {
		tmpl = sendItemIndexedQuery
		b.Set("index", index)
	}

	query, err := template.Render(tmpl, b)
	if err != nil {
		return "", fmt.Errorf("enjin: render SendCryptoItem query: %w", err)
	}
	return query, nil
}

// SendBatchCryptoItems submits every transfer queued in the batch as
// one advanced send.
func (c *Client) SendBatchCryptoItems(ctx context.Context, batch *CryptoItemBatch, userID int) (*Request, error) {
	if batch == nil || batch.Len() == 0 {
		return nil, fmt.Errorf("enjin: batch has no transfers")
	}

	transfers := make([]string, len(batch.transfers))
	for i, t := range batch.transfers {
		transfers[i] = "{" + t + "}"
	}
	query := fmt.Sprintf(
		`mutation advancedSend{request:CreateEnjinRequest(appId:%d,identityId:%d,type:ADVANCED_SEND,advanced_send_token_data:{transfers:[%s]}){id,encodedData,state}}`,
		c.cfg.AppID, userID, strings.Join(transfers, ","))

	return c.createRequest(ctx, "SendBatchCryptoItems", query, nil)
}

// MeltTokens destroys an amount of a token, returning its melt value.
// Pass an empty index for fungible tokens.
func (c *Client) MeltTokens(ctx context.Context, identityID int, itemID, index string, amount int, cb func(RequestEvent)) (*Request, error) {
	query, err := c.meltQuery(identityID, itemID, index, amount)
	if err != nil {
		return nil, err
	}
	return c.createRequest(ctx, "MeltTokens", query, cb)
}

// MeltTokensAsync is MeltTokens off the calling goroutine.
func (c *Client) MeltTokensAsync(ctx context.Context, identityID int, itemID, index string, amount int, cb func(RequestEvent)) error {
	query, err := c.meltQuery(identityID, itemID, index, amount)
	if err != nil {
		return err
	}
	c.createRequestAsync(ctx, "MeltTokens", query, cb)
	return nil
}

func (c *Client) meltQuery(identityID int, itemID, index string, amount int) (string, error) {
	b := template.NewBindings().
		SetInt("appId", c.cfg.AppID).
		SetInt("identityID", identityID).
		Set("itemID", itemID).
		SetInt("amount", amount)

	tmpl := meltItemQuery
	if index != "" {
		tmpl = meltItemIndexedQuery
		b.Set("index", index)
	}

	query, err := template.Render(tmpl, b)
	if err != nil {
		return "", fmt.Errorf("enjin: render MeltTokens query: %w", err)
	}
	return query, nil
}

// =============================================================================
// Trades
// =============================================================================

// TradeParty names the counterparty of a trade by wallet address or by
// identity id. Exactly one must be set.
type TradeParty struct {
	Address    string
	IdentityID int
}

// CreateTradeRequest opens a trade: the sender offers one set of
// tokens against the asking set from the second party.
func (c *Client) CreateTradeRequest(ctx context.Context, senderIdentityID int, offering, asking []TokenValueInput, secondParty TradeParty, cb func(RequestEvent)) (*Request, error) {
	if len(offering) == 0 || len(asking) == 0 {
		return nil, ErrEmptyTradeItems
	}
	if secondParty.Address == "" && secondParty.IdentityID == 0 {
		return nil, ErrNoSecondParty
	}

	query := fmt.Sprintf(
		`mutation sendTrade{request:CreateEnjinRequest(appId:%d,identityId:%d,type:CREATE_TRADE,create_trade_data:{asking_tokens:%s,offering_tokens:%s`,
		c.cfg.AppID, senderIdentityID, renderTokenValues(asking), renderTokenValues(offering))
	if secondParty.Address != "" {
		query += fmt.Sprintf(`,second_party_address:"%s"`, secondParty.Address)
	} else {
		query += fmt.Sprintf(`,second_party_identity_id:%d`, secondParty.IdentityID)
	}
	query += `}){id,encodedData,state}}`

	return c.createRequest(ctx, "CreateTradeRequest", query, cb)
}

// CreateTradeRequestFromItems is CreateTradeRequest built from
// parallel item and amount slices. Mismatched lengths are an error.
func (c *Client) CreateTradeRequestFromItems(ctx context.Context, senderIdentityID int, itemsFromSender []CryptoItem, amountsFromSender []int, itemsFromSecondParty []CryptoItem, amountsFromSecondParty []int, secondParty TradeParty, cb func(RequestEvent)) (*Request, error) {
	offering, err := pairTokenValues(itemsFromSender, amountsFromSender)
	if err != nil {
		return nil, err
	}
	asking, err := pairTokenValues(itemsFromSecondParty, amountsFromSecondParty)
	if err != nil {
		return nil, err
	}
	return c.CreateTradeRequest(ctx, senderIdentityID, offering, asking, secondParty, cb)
}

func pairTokenValues(items []CryptoItem, amounts []int) ([]TokenValueInput, error) {
	if len(items) == 0 || len(amounts) == 0 {
		return nil, ErrEmptyTradeItems
	}
	if len(items) != len(amounts) {
		return nil, ErrMismatchedTradeItems
	}

	inputs := make([]TokenValueInput, len(items))
	for i, item := range items {
		inputs[i] = TokenValueInput{ID: item.ID, Index: item.Index, Value: amounts[i]}
	}
	return inputs, nil
}

// CompleteTradeRequest accepts a pending trade as its second party.
func (c *Client) CompleteTradeRequest(ctx context.Context, secondPartyID int, tradeID string, cb func(RequestEvent)) (*Request, error) {
	query, err := template.Render(completeTradeQuery,
		template.NewBindings().
			SetInt("appId", c.cfg.AppID).
			SetInt("identityID", secondPartyID).
			Set("tradeID", tradeID))
	if err != nil {
		return nil, fmt.Errorf("enjin: render CompleteTradeRequest query: %w", err)
	}
	return c.createRequest(ctx, "CompleteTradeRequest", query, cb)
}

// =============================================================================
// Token Maintenance
// =============================================================================

// UpdateCryptoItem rewrites one field of a token on chain. Only the
// name field is supported by the platform today.
func (c *Client) UpdateCryptoItem(ctx context.Context, identityID int, item CryptoItem, field CryptoItemFieldType, cb func(RequestEvent)) (*Request, error) {
	if field != FieldName {
		return nil, fmt.Errorf("enjin: update of field %d is not supported", field)
	}

	query, err := template.Render(updateItemNameQuery,
		template.NewBindings().
			SetInt("appId", c.cfg.AppID).
			SetInt("identityID", identityID).
			Set("id", item.ID).
			Set("name", item.Name))
	if err != nil {
		return nil, fmt.Errorf("enjin: render UpdateCryptoItem query: %w", err)
	}
	return c.createRequest(ctx, "UpdateCryptoItem", query, cb)
}

// SetCryptoItemURI sets a token's metadata URI. For non-fungible
// instances the index selects which instance to update.
func (c *Client) SetCryptoItemURI(ctx context.Context, identityID int, item CryptoItem, uri string, cb func(RequestEvent)) (*Request, error) {
	b := template.NewBindings().
		SetInt("appId", c.cfg.AppID).
		SetInt("identityID", identityID).
		Set("itemID", item.ID).
		Set("itemData", uri)

	tmpl := setItemURIQuery
	if item.Index != "" {
		tmpl = setItemURIIndexedQuery
		index := strings.TrimLeft(item.Index, "0")
		if index == "" {
			index = "0"
		}
		b.Set("index", index)
	}

	query, err := template.Render(tmpl, b)
	if err != nil {
		return nil, fmt.Errorf("enjin: render SetCryptoItemURI query: %w", err)
	}
	return c.createRequest(ctx, "SetCryptoItemURI", query, cb)
}
