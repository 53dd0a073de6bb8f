package enjin

import (
	"testing"
)

func newOfflineClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: "https://kovan.cloud.enjin.io", AppID: 1})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestChannelNames(t *testing.T) {
	c := newOfflineClient(t)
	info := PlatformInfo{ID: "1", Network: "kovan"}

	if got := c.appChannelName(info); got != "enjin.server.kovan.1.1" {
		t.Errorf("appChannelName() = %q", got)
	}
	if got := c.linkChannelName(info, 9); got != "enjin.server.kovan.1.1.9" {
		t.Errorf("linkChannelName() = %q", got)
	}
}

func TestHandleChannelEvent_ListenerOrderAndRegistry(t *testing.T) {
	c := newOfflineClient(t)

	var order []string
	c.BindEvent("platform-event", func(ev RequestEvent) {
		order = append(order, "first:"+ev.EventType)
	})
	c.BindEvent("platform-event", func(ev RequestEvent) {
		order = append(order, "second:"+ev.EventType)
	})

	resolved := false
	if err := c.Registry.Add(42, func(RequestEvent) { resolved = true }, 0); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	c.handleChannelEvent("platform-event",
		`{"model":"transaction","event_type":"tx_executed","data":{"transaction_id":42}}`)

	want := []string{"first:tx_executed", "second:tx_executed"}
	if len(order) != 2 || order[0] != want[0] || order[1] != want[1] {
		t.Errorf("listener order = %v, want %v", order, want)
	}
	if !resolved {
		t.Error("tx_executed did not resolve the registry")
	}
	if c.Registry.Len() != 0 {
		t.Errorf("Registry.Len() = %d, want 0", c.Registry.Len())
	}
}

func TestHandleChannelEvent_OtherEventTypesLeaveRegistry(t *testing.T) {
	c := newOfflineClient(t)

	c.Registry.Add(42, func(RequestEvent) {}, 0)
	c.handleChannelEvent("platform-event",
		`{"model":"transaction","event_type":"tx_broadcast","data":{"transaction_id":42}}`)

	if c.Registry.Len() != 1 {
		t.Errorf("Registry.Len() = %d, want 1", c.Registry.Len())
	}
}

func TestHandleChannelEvent_UndecodablePayload(t *testing.T) {
	c := newOfflineClient(t)

	fired := false
	c.BindEvent("platform-event", func(RequestEvent) { fired = true })
	c.handleChannelEvent("platform-event", "not json")

	if fired {
		t.Error("listener fired for undecodable payload")
	}
}
