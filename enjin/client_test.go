package enjin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform simulates the platform's GraphQL endpoint and its
// realtime service together.
type fakePlatform struct {
	gql     *httptest.Server
	ws      *httptest.Server
	token   string
	queries chan string
	conns   chan *fakeRealtimeConn
}

type fakeRealtimeConn struct {
	ws     *websocket.Conn
	frames chan map[string]any
}

func (fc *fakeRealtimeConn) send(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, fc.ws.WriteJSON(v))
}

func (fc *fakeRealtimeConn) sendEvent(t *testing.T, channel string, payload RequestEvent) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	fc.send(t, map[string]any{
		"event":   "platform-event",
		"channel": channel,
		"data":    string(data),
	})
}

func (fc *fakeRealtimeConn) expectFrame(t *testing.T) map[string]any {
	t.Helper()
	select {
	case frame := <-fc.frames:
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for realtime frame")
		return nil
	}
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "app",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("platform-secret"))
	require.NoError(t, err)

	fp := &fakePlatform{
		token:   token,
		queries: make(chan string, 32),
		conns:   make(chan *fakeRealtimeConn, 4),
	}

	fp.gql = httptest.NewServer(http.HandlerFunc(fp.handleGraphQL))
	t.Cleanup(fp.gql.Close)

	upgrader := websocket.Upgrader{}
	fp.ws = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fc := &fakeRealtimeConn{ws: ws, frames: make(chan map[string]any, 16)}
		ws.WriteJSON(map[string]any{
			"event": "pusher:connection_established",
			"data":  `{"socket_id":"77.1","activity_timeout":120}`,
		})
		fp.conns <- fc
		for {
			var frame map[string]any
			if err := ws.ReadJSON(&frame); err != nil {
				close(fc.frames)
				return
			}
			fc.frames <- frame
		}
	}))
	t.Cleanup(fp.ws.Close)
	return fp
}

func (fp *fakePlatform) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	select {
	case fp.queries <- body.Query:
	default:
	}

	switch {
	case strings.Contains(body.Query, "AuthApp"):
		if !strings.Contains(body.Query, `appSecret:"valid-secret"`) {
			w.Write([]byte(`{"errors":[{"code":401,"message":"Unauthorized"}]}`))
			return
		}
		w.Write([]byte(`{"data":{"result":{"accessToken":"` + fp.token + `","expiresIn":3600}}}`))

	case strings.Contains(body.Query, "EnjinPlatform"):
		w.Write([]byte(`{"data":{"result":{"id":"1","network":"kovan","name":"Enjin Cloud",
			"notifications":{"pusher":{"key":"test-app-key","namespace":"App",
			"options":{"cluster":"mt1","encrypted":"false"}}}}}}`))

	case strings.Contains(body.Query, "CreateEnjinRequest"):
		w.Write([]byte(`{"data":{"request":{"id":42,"encodedData":"0xdead","state":"PENDING"}}}`))

	case strings.Contains(body.Query, "getCurrentUser"):
		w.Write([]byte(`{"data":{"result":{"id":9,"name":"player-one",
			"identities":[{"id":5,"linkingCode":"","wallet":{"ethAddress":"0x1aF350169a9ba9bC2162b0c962E1f6AE6F60ee31"}}]}}}`))

	default:
		w.Write([]byte(`{"errors":[{"code":404,"message":"Requested data not found"}]}`))
	}
}

func (fp *fakePlatform) acceptRealtime(t *testing.T) *fakeRealtimeConn {
	t.Helper()
	select {
	case fc := <-fp.conns:
		return fc
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for realtime connection")
		return nil
	}
}

func (fp *fakePlatform) clientConfig() Config {
	return Config{
		BaseURL:     fp.gql.URL,
		AppID:       1,
		CallbackTTL: time.Minute,
		PusherHost:  strings.TrimPrefix(fp.ws.URL, "http://"),
	}
}

// appChannel is the channel the fake platform's settings produce.
const appChannel = "enjin.server.kovan.1.1"

func TestStartPlatform_MintCallbackEndToEnd(t *testing.T) {
	fp := newFakePlatform(t)

	client, err := New(fp.clientConfig())
	require.NoError(t, err)
	defer client.CleanUp()

	require.NoError(t, client.StartPlatform(context.Background(), "valid-secret"))

	session := client.Session()
	assert.Equal(t, LoginValid, session.State)
	assert.Equal(t, fp.token, session.AccessToken)
	assert.False(t, session.TokenExpiresAt.IsZero(), "token expiry should be parsed from the JWT")
	assert.True(t, session.LoggedIn())

	fc := fp.acceptRealtime(t)
	frame := fc.expectFrame(t)
	require.Equal(t, "pusher:subscribe", frame["event"])
	require.Equal(t, appChannel, frame["data"].(map[string]any)["channel"])
	fc.send(t, map[string]any{
		"event":   "pusher_internal:subscription_succeeded",
		"channel": appChannel,
		"data":    "{}",
	})

	events := make(chan RequestEvent, 4)
	req, err := client.MintFungibleItem(context.Background(), 5,
		[]string{"0x1aF350169a9ba9bC2162b0c962E1f6AE6F60ee31"}, "30000000000000aa", 3,
		func(ev RequestEvent) { events <- ev })
	require.NoError(t, err)
	require.Equal(t, 42, req.ID)
	assert.Equal(t, "PENDING", req.State)
	assert.Equal(t, 1, client.Registry.Len())

	// A second request with the same pending id is rejected.
	_, err = client.MintFungibleItem(context.Background(), 5,
		[]string{"0x1aF350169a9ba9bC2162b0c962E1f6AE6F60ee31"}, "30000000000000aa", 3,
		func(RequestEvent) {})
	assert.ErrorIs(t, err, ErrDuplicateRequestID)

	fc.sendEvent(t, appChannel, RequestEvent{
		Model:     "transaction",
		EventType: "tx_executed",
		Data:      RequestEventData{TransactionID: 42},
	})

	select {
	case ev := <-events:
		assert.Equal(t, "tx_executed", ev.EventType)
		assert.Equal(t, 42, ev.Data.TransactionID)
	case <-time.After(2 * time.Second):
		t.Fatal("mint callback never fired")
	}
	assert.Equal(t, 0, client.Registry.Len())

	// The same event again resolves nothing and fires nothing.
	fc.sendEvent(t, appChannel, RequestEvent{
		Model:     "transaction",
		EventType: "tx_executed",
		Data:      RequestEventData{TransactionID: 42},
	})
	select {
	case <-events:
		t.Fatal("callback fired twice for one registration")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStartPlatform_BadSecret(t *testing.T) {
	fp := newFakePlatform(t)

	client, err := New(fp.clientConfig())
	require.NoError(t, err)

	err = client.StartPlatform(context.Background(), "wrong-secret")
	require.Error(t, err)
	assert.Equal(t, LoginInvalidCredentials, client.Session().State)
	assert.False(t, client.Session().LoggedIn())

	report := client.ErrorReport()
	assert.Equal(t, 401, report.Code)
	assert.Equal(t, "Unauthorized", report.Message)

	client.ResetErrorReport()
	assert.Zero(t, client.ErrorReport())
}

func TestMintQueryShape(t *testing.T) {
	fp := newFakePlatform(t)

	client, err := New(fp.clientConfig())
	require.NoError(t, err)
	defer client.CleanUp()
	require.NoError(t, client.StartPlatform(context.Background(), "valid-secret"))

	for len(fp.queries) > 0 {
		<-fp.queries
	}

	_, err = client.MintFungibleItem(context.Background(), 5,
		[]string{"0xaaa", "0xbbb"}, "30000000000000aa", 3, nil)
	require.NoError(t, err)

	query := <-fp.queries
	assert.Contains(t, query, "request:CreateEnjinRequest")
	assert.Contains(t, query, `recipient_address_array:["0xaaa","0xbbb"]`)
	assert.Contains(t, query, `token_id:"30000000000000aa"`)
	assert.Contains(t, query, "value:3")
	assert.Contains(t, query, "appId:1")
	assert.NotContains(t, query, "$")
}

func TestListenForLink(t *testing.T) {
	fp := newFakePlatform(t)

	client, err := New(fp.clientConfig())
	require.NoError(t, err)
	defer client.CleanUp()
	require.NoError(t, client.StartPlatform(context.Background(), "valid-secret"))

	fc := fp.acceptRealtime(t)
	fc.expectFrame(t) // app channel subscribe

	linked := make(chan RequestEvent, 1)
	require.NoError(t, client.ListenForLink(context.Background(), 9, func(ev RequestEvent) {
		linked <- ev
	}))

	linkChannel := appChannel + ".9"
	frame := fc.expectFrame(t)
	require.Equal(t, "pusher:subscribe", frame["event"])
	require.Equal(t, linkChannel, frame["data"].(map[string]any)["channel"])

	// Unrelated events on the link channel do not fire the listener.
	fc.sendEvent(t, linkChannel, RequestEvent{EventType: "tx_executed"})
	fc.sendEvent(t, linkChannel, RequestEvent{
		Model:     "identity",
		EventType: "identity_updated",
		Data:      RequestEventData{EthereumAddress: "0x1aF350169a9ba9bC2162b0c962E1f6AE6F60ee31"},
	})

	select {
	case ev := <-linked:
		assert.Equal(t, "identity_updated", ev.EventType)
	case <-time.After(2 * time.Second):
		t.Fatal("link listener never fired")
	}

	// The one-shot listen unsubscribes its channel afterwards.
	frame = fc.expectFrame(t)
	assert.Equal(t, "pusher:unsubscribe", frame["event"])
	assert.Eventually(t, func() bool {
		return client.Realtime().Channel(linkChannel) == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWaitForLogin(t *testing.T) {
	fp := newFakePlatform(t)

	client, err := New(fp.clientConfig())
	require.NoError(t, err)
	defer client.CleanUp()
	require.NoError(t, client.StartPlatform(context.Background(), "valid-secret"))

	user, err := client.WaitForLogin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "player-one", user.Name)
	require.Len(t, user.Identities, 1)
	assert.True(t, ValidateAddress(user.Identities[0].Wallet.EthAddress))
}

func TestTradeValidation(t *testing.T) {
	fp := newFakePlatform(t)
	client, err := New(fp.clientConfig())
	require.NoError(t, err)

	item := CryptoItem{ID: "30000000000000aa"}
	party := TradeParty{IdentityID: 7}

	_, err = client.CreateTradeRequestFromItems(context.Background(), 1,
		[]CryptoItem{item}, []int{1, 2}, []CryptoItem{item}, []int{1}, party, nil)
	assert.ErrorIs(t, err, ErrMismatchedTradeItems)

	_, err = client.CreateTradeRequestFromItems(context.Background(), 1,
		nil, nil, []CryptoItem{item}, []int{1}, party, nil)
	assert.ErrorIs(t, err, ErrEmptyTradeItems)

	_, err = client.CreateTradeRequest(context.Background(), 1,
		[]TokenValueInput{{ID: item.ID, Value: 1}},
		[]TokenValueInput{{ID: item.ID, Value: 1}},
		TradeParty{}, nil)
	assert.ErrorIs(t, err, ErrNoSecondParty)
}

func TestTradeQueryShape(t *testing.T) {
	fp := newFakePlatform(t)
	client, err := New(fp.clientConfig())
	require.NoError(t, err)
	defer client.CleanUp()
	require.NoError(t, client.StartPlatform(context.Background(), "valid-secret"))

	for len(fp.queries) > 0 {
		<-fp.queries
	}

	_, err = client.CreateTradeRequest(context.Background(), 5,
		[]TokenValueInput{{ID: "aa", Value: 2}},
		[]TokenValueInput{{ID: "bb", Index: "3", Value: 1}},
		TradeParty{Address: "0x1aF350169a9ba9bC2162b0c962E1f6AE6F60ee31"}, nil)
	require.NoError(t, err)

	query := <-fp.queries
	assert.Contains(t, query, "type:CREATE_TRADE")
	assert.Contains(t, query, `asking_tokens:[{id:"bb",index:3,value:1}]`)
	assert.Contains(t, query, `offering_tokens:[{id:"aa",value:2}]`)
	assert.Contains(t, query, `second_party_address:"0x1aF350169a9ba9bC2162b0c962E1f6AE6F60ee31"`)
}
