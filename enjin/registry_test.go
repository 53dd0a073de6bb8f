package enjin

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRegistry_ResolveFiresOnce(t *testing.T) {
	r := NewCallbackRegistry(nil)

	fired := 0
	if err := r.Add(7, func(RequestEvent) { fired++ }, 0); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	ev := RequestEvent{EventType: "tx_executed"}
	if !r.Resolve(7, ev) {
		t.Error("Resolve() = false, want true")
	}
	if r.Resolve(7, ev) {
		t.Error("second Resolve() = true, want false")
	}
	if fired != 1 {
		t.Errorf("callback fired %d times, want 1", fired)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestRegistry_ResolveUnknownID(t *testing.T) {
	r := NewCallbackRegistry(nil)
	if r.Resolve(99, RequestEvent{}) {
		t.Error("Resolve() of unknown id = true, want false")
	}
}

func TestRegistry_DuplicateIDRejected(t *testing.T) {
	r := NewCallbackRegistry(nil)

	if err := r.Add(1, func(RequestEvent) {}, 0); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	err := r.Add(1, func(RequestEvent) {}, 0)
	if !errors.Is(err, ErrDuplicateRequestID) {
		t.Errorf("Add() duplicate error = %v, want ErrDuplicateRequestID", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistry_Cancel(t *testing.T) {
	r := NewCallbackRegistry(nil)

	fired := false
	r.Add(3, func(RequestEvent) { fired = true }, 0)

	if !r.Cancel(3) {
		t.Error("Cancel() = false, want true")
	}
	if r.Cancel(3) {
		t.Error("second Cancel() = true, want false")
	}
	if r.Resolve(3, RequestEvent{}) {
		t.Error("Resolve() after Cancel = true, want false")
	}
	if fired {
		t.Error("cancelled callback fired")
	}
}

func TestRegistry_Expiry(t *testing.T) {
	r := NewCallbackRegistry(nil)

	fired := false
	r.Add(5, func(RequestEvent) { fired = true }, 20*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for r.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if r.Len() != 0 {
		t.Fatal("entry never expired")
	}
	if fired {
		t.Error("expired callback fired")
	}
	if r.Resolve(5, RequestEvent{}) {
		t.Error("Resolve() after expiry = true, want false")
	}

	// The id is free again after expiry.
	if err := r.Add(5, func(RequestEvent) {}, 0); err != nil {
		t.Errorf("Add() after expiry error: %v", err)
	}
}

func TestRegistry_ConcurrentResolve(t *testing.T) {
	r := NewCallbackRegistry(nil)

	var mu sync.Mutex
	fired := 0
	r.Add(11, func(RequestEvent) {
		mu.Lock()
		fired++
		mu.Unlock()
	}, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Resolve(11, RequestEvent{})
		}()
	}
	wg.Wait()

	if fired != 1 {
		t.Errorf("callback fired %d times under concurrent resolve, want 1", fired)
	}
}
