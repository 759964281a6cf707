package netlink

import (
	"sync"

	"go.uber.org/zap"
)

// EventCallback receives a push event payload. Payloads that are JSON
// objects arrive as decoded maps; no-argument events (such as the built-in
// "connect"/"disconnect" signals) arrive as an empty map.
type EventCallback func(data map[string]any)

// callbackRegistry maps event names to ordered subscriber lists. It is the
// durable half of the event machinery: registrations survive reconnects,
// only the transport-level listener wrappers are re-created per connect.
type callbackRegistry struct {
	mu        sync.RWMutex
	callbacks map[string][]EventCallback
	logger    *zap.Logger
}

func newCallbackRegistry(logger *zap.Logger) *callbackRegistry {
	return &callbackRegistry{
		callbacks: make(map[string][]EventCallback),
		logger:    logger,
	}
}

// add appends cb to the ordered list for event, creating the list if absent
func (r *callbackRegistry) add(event string, cb EventCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[event] = append(r.callbacks[event], cb)
}

// events returns the set of event names with at least one subscriber
func (r *callbackRegistry) events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for event := range r.callbacks {
		names = append(names, event)
	}
	return names
}

// dispatch invokes every callback registered for event, in registration
// order. A panicking callback is logged and must not prevent sibling
// callbacks from running, nor reach the transport's read loop.
func (r *callbackRegistry) dispatch(event string, data map[string]any) {
	r.mu.RLock()
	subscribers := make([]EventCallback, len(r.callbacks[event]))
	copy(subscribers, r.callbacks[event])
	r.mu.RUnlock()

	if len(subscribers) == 0 {
		return
	}
	if data == nil {
		data = map[string]any{}
	}

	for _, cb := range subscribers {
		r.invoke(event, cb, data)
	}
}

func (r *callbackRegistry) invoke(event string, cb EventCallback, data map[string]any) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("event callback panicked",
				zap.String("event", event),
				zap.Any("panic", rec),
			)
		}
	}()
	cb(data)
}
