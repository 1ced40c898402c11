package event

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/marketplace/backend/internal/domain/shared"
)

// routeTable maps event types to handlers. Tables are never mutated once
// published; every change builds a new one.
type routeTable struct {
	byType   map[string][]shared.EventHandler
	wildcard []shared.EventHandler
}

// subscriptions routes events to handlers. Lookups read the current table
// without locking, writers serialize on mu.
type subscriptions struct {
	mu    sync.Mutex
	table atomic.Pointer[routeTable]
}

func newSubscriptions() *subscriptions {
	s := &subscriptions{}
	s.table.Store(&routeTable{byType: map[string][]shared.EventHandler{}})
	return s
}

// add subscribes handler to eventTypes, or to every event when none are
// given. Re-adding a handler for a type it already has is a no-op.
func (s *subscriptions) add(handler shared.EventHandler, eventTypes ...string) {
	s.update(func(t *routeTable) {
		if len(eventTypes) == 0 {
			t.wildcard = withHandler(t.wildcard, handler)
			return
		}
		for _, et := range eventTypes {
			t.byType[et] = withHandler(t.byType[et], handler)
		}
	})
}

func (s *subscriptions) remove(handler shared.EventHandler) {
	s.update(func(t *routeTable) {
		t.wildcard = withoutHandler(t.wildcard, handler)
		for et, hs := range t.byType {
			if hs = withoutHandler(hs, handler); len(hs) == 0 {
				delete(t.byType, et)
			} else {
				t.byType[et] = hs
			}
		}
	})
}

// route returns the handlers for eventType, typed ones first. The result
// must not be modified.
func (s *subscriptions) route(eventType string) []shared.EventHandler {
	t := s.table.Load()
	typed := t.byType[eventType]
	if len(t.wildcard) == 0 {
		return typed
	}
	if len(typed) == 0 {
		return t.wildcard
	}
	return slices.Concat(typed, t.wildcard)
}

// count returns the number of (event type, handler) pairs
func (s *subscriptions) count() int {
	t := s.table.Load()
	n := len(t.wildcard)
	for _, hs := range t.byType {
		n += len(hs)
	}
	return n
}

func (s *subscriptions) update(fn func(*routeTable)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.table.Load()
	next := &routeTable{
		byType:   make(map[string][]shared.EventHandler, len(cur.byType)),
		wildcard: slices.Clone(cur.wildcard),
	}
	for et, hs := range cur.byType {
		next.byType[et] = slices.Clone(hs)
	}
	fn(next)
	s.table.Store(next)
}

func withHandler(hs []shared.EventHandler, h shared.EventHandler) []shared.EventHandler {
	if slices.Contains(hs, h) {
		return hs
	}
	return append(hs, h)
}

func withoutHandler(hs []shared.EventHandler, h shared.EventHandler) []shared.EventHandler {
	return slices.DeleteFunc(hs, func(x shared.EventHandler) bool { return x == h })
}
