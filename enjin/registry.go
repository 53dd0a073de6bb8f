package enjin

import (
	"errors"
	"sync"
	"time"

	"github.com/enjincraft/platform-go/pkg/logger"
)

// ErrDuplicateRequestID is returned when a callback is registered for
// a request id that already has one pending.
var ErrDuplicateRequestID = errors.New("enjin: request id already has a pending callback")

type pendingCallback struct {
	fn    func(RequestEvent)
	timer *time.Timer
}

// CallbackRegistry correlates request ids with the callbacks awaiting
// their tx_executed events. Each entry fires at most once: Resolve,
// Cancel and expiry all race on the same delete, so whichever runs
// first wins and the rest are no-ops.
type CallbackRegistry struct {
	logger *logger.Logger

	mu      sync.Mutex
	pending map[int]*pendingCallback
}

// NewCallbackRegistry creates an empty registry.
func NewCallbackRegistry(log *logger.Logger) *CallbackRegistry {
	if log == nil {
		log = logger.Nop()
	}
	return &CallbackRegistry{
		logger:  log,
		pending: make(map[int]*pendingCallback),
	}
}

// Add registers a callback for the given request id. A ttl greater
// than zero drops the entry after that long without a matching event;
// ttl <= 0 keeps it until resolved or cancelled.
func (r *CallbackRegistry) Add(id int, fn func(RequestEvent), ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pending[id]; exists {
		return ErrDuplicateRequestID
	}

	entry := &pendingCallback{fn: fn}
	if ttl > 0 {
		entry.timer = time.AfterFunc(ttl, func() { r.expire(id, entry) })
	}
	r.pending[id] = entry
	return nil
}

// Resolve fires and removes the callback registered for id. Unknown
// ids report false so event dispatch can ignore transactions it never
// asked about.
func (r *CallbackRegistry) Resolve(id int, ev RequestEvent) bool {
	r.mu.Lock()
	entry, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
		if entry.timer != nil {
			entry.timer.Stop()
		}
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	entry.fn(ev)
	return true
}

// Cancel removes a pending callback without firing it.
func (r *CallbackRegistry) Cancel(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.pending[id]
	if !ok {
		return false
	}
	delete(r.pending, id)
	if entry.timer != nil {
		entry.timer.Stop()
	}
	return true
}

// Len reports the number of pending callbacks.
func (r *CallbackRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// expire drops an entry whose ttl ran out. The entry pointer is
// compared so a timer firing after Resolve+Add of the same id cannot
// remove the newer registration.
func (r *CallbackRegistry) expire(id int, entry *pendingCallback) {
	r.mu.Lock()
	current, ok := r.pending[id]
	if ok && current == entry {
		delete(r.pending, id)
	} else {
		ok = false
	}
	r.mu.Unlock()

	if ok {
		r.logger.Debug("pending request callback expired", "request_id", id)
	}
}
