package enjin

import (
	"fmt"
	"strings"
)

// =============================================================================
// Identity & Wallet Types
// =============================================================================

// Wallet is a linked Ethereum wallet with its ENJ/ETH balances and
// per-token holdings.
type Wallet struct {
	EthAddress   string    `json:"ethAddress"`
	EnjAllowance float64   `json:"enjAllowance"`
	EnjBalance   float64   `json:"enjBalance"`
	EthBalance   float64   `json:"ethBalance"`
	Balances     []Balance `json:"balances"`
}

// Balance is one token holding inside a wallet.
type Balance struct {
	ID    string `json:"id"`
	Index string `json:"index"`
	Value int    `json:"value"`
}

// IdentityUser is the user summary nested inside an identity.
type IdentityUser struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Identity binds a platform user to a wallet within an app. An
// identity without a linked wallet carries a linking code the player
// redeems in their wallet app.
type Identity struct {
	ID            int          `json:"id"`
	App           App          `json:"app"`
	User          IdentityUser `json:"user"`
	LinkingCode   string       `json:"linkingCode"`
	LinkingCodeQr string       `json:"linkingCodeQr"`
	Wallet        Wallet       `json:"wallet"`
}

// User is a platform account and its identities.
type User struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Identities []Identity `json:"identities"`
}

// =============================================================================
// CryptoItem Types
// =============================================================================

// SupplyModel enumerates how a token's supply behaves.
type SupplyModel string

const (
	SupplyFixed            SupplyModel = "FIXED"
	SupplySettable         SupplyModel = "SETTABLE"
	SupplyInfinite         SupplyModel = "INFINITE"
	SupplyCollapsing       SupplyModel = "COLLAPSING"
	SupplyAnnualValue      SupplyModel = "ANNUAL_VALUE"
	SupplyAnnualPercentage SupplyModel = "ANNUAL_PERCENTAGE"
)

// Transferable enumerates whether and for how long a token can move
// between wallets.
type Transferable string

const (
	TransferPermanent Transferable = "PERMANENT"
	TransferTemporary Transferable = "TEMPORARY"
	TransferBound     Transferable = "BOUND"
)

// TransferType enumerates the fee models a token may charge on
// transfer.
type TransferType string

const (
	TransferFeeNone          TransferType = "NONE"
	TransferFeePerTransfer   TransferType = "PER_TRANSFER"
	TransferFeePerCryptoItem TransferType = "PER_CRYPTO_ITEM"
	TransferFeeRatioCut      TransferType = "RATIO_CUT"
	TransferFeeRatioExtra    TransferType = "RATIO_EXTRA"
)

// TransferFeeSettings describes the transfer fee charged by a token.
type TransferFeeSettings struct {
	Type    TransferType `json:"type"`
	TokenID string       `json:"tokenId"`
	Value   string       `json:"value"`
}

// CryptoItem is a token definition on the platform. Index is set for
// individual non-fungible instances.
type CryptoItem struct {
	Index             string              `json:"index"`
	ItemURI           string              `json:"itemURI"`
	ID                string              `json:"id"`
	Creator           string              `json:"creator"`
	Name              string              `json:"name"`
	TotalSupply       string              `json:"totalSupply"`
	CirculatingSupply string              `json:"circulatingSupply"`
	Reserve           string              `json:"reserve"`
	SupplyModel       SupplyModel         `json:"supplyModel"`
	MeltValue         string              `json:"meltValue"`
	MeltFeeRatio      int                 `json:"meltFeeRatio"`
	MeltFeeMaxRatio   int                 `json:"meltFeeMaxRatio"`
	Transferable      Transferable        `json:"transferable"`
	TransferFee       TransferFeeSettings `json:"transferFeeSettings"`
	NonFungible       bool                `json:"nonFungible"`
	Icon              string              `json:"icon"`
	MarkedForDelete   bool                `json:"markedForDelete"`
}

// Cursor is the pagination state returned with token pages.
type Cursor struct {
	Total       int  `json:"total"`
	HasPages    bool `json:"hasPages"`
	PerPage     int  `json:"perPage"`
	CurrentPage int  `json:"currentPage"`
}

// TokenPage is one page of token results.
type TokenPage struct {
	Items  []CryptoItem `json:"items"`
	Cursor Cursor       `json:"cursor"`
}

// TokenValueInput addresses an amount of one token, optionally a
// specific non-fungible index, for trade requests.
type TokenValueInput struct {
	ID    string
	Index string
	Value int
}

// graphQL renders the input as a GraphQL object literal.
func (t TokenValueInput) graphQL() string {
	if t.Index == "" {
		return fmt.Sprintf(`{id:"%s",value:%d}`, t.ID, t.Value)
	}
	return fmt.Sprintf(`{id:"%s",index:%s,value:%d}`, t.ID, t.Index, t.Value)
}

// renderTokenValues renders a slice of inputs as a GraphQL array
// literal.
func renderTokenValues(inputs []TokenValueInput) string {
	parts := make([]string, len(inputs))
	for i, in := range inputs {
		parts[i] = in.graphQL()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// =============================================================================
// Request (Transaction) Types
// =============================================================================

// Request is a pending blockchain transaction created through the
// platform. The ID correlates realtime events back to the caller.
type Request struct {
	ID            int    `json:"id"`
	TransactionID int    `json:"transactionId"`
	AppID         int    `json:"appId"`
	Type          string `json:"type"`
	Icon          string `json:"icon"`
	Title         string `json:"title"`
	Value         string `json:"value"`
	State         string `json:"state"`
	EncodedData   string `json:"encodedData"`
	Accepted      int    `json:"accepted"`
	UpdatedAt     string `json:"updatedAt"`
	CreatedAt     string `json:"createdAt"`
}

// RequestEventData is the payload nested inside a realtime event.
type RequestEventData struct {
	ID              int        `json:"id"`
	TransactionID   int        `json:"transaction_id"`
	Param1          string     `json:"param1"`
	Param2          string     `json:"param2"`
	Param3          string     `json:"param3"`
	Param4          string     `json:"param4"`
	BlockNumber     int        `json:"block_number"`
	CreatedAt       string     `json:"createdAt"`
	UpdatedAt       string     `json:"updatedAt"`
	Token           CryptoItem `json:"token"`
	EthereumAddress string     `json:"ethereum_address"`
}

// RequestEvent is one realtime event from the platform channel, such
// as tx_executed or identity_updated.
type RequestEvent struct {
	Model     string           `json:"model"`
	EventType string           `json:"event_type"`
	Contract  string           `json:"contract"`
	Data      RequestEventData `json:"data"`
	RequestID int              `json:"request_id"`
}

// =============================================================================
// Platform Types
// =============================================================================

// App is one application registered on the platform.
type App struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// PlatformOptions carries the realtime service options advertised by
// the platform.
type PlatformOptions struct {
	Cluster   string `json:"cluster"`
	Encrypted string `json:"encrypted"`
}

// PusherDetails describes the platform's realtime endpoint.
type PusherDetails struct {
	Key       string          `json:"key"`
	Namespace string          `json:"namespace"`
	Options   PlatformOptions `json:"options"`
}

// Notifications groups the platform's notification transports.
type Notifications struct {
	Pusher PusherDetails `json:"pusher"`
}

// PlatformInfo identifies the platform instance and how to receive
// events from it.
type PlatformInfo struct {
	ID            string        `json:"id"`
	Network       string        `json:"network"`
	Name          string        `json:"name"`
	Notifications Notifications `json:"notifications"`
}
