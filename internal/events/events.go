package events

import (
	"fmt"
	"strings"
	"sync"

	console "cms0/internal/utils/logger"
)

var log = console.New("EVENTS")

const (
	UserCreated     = "users.created"
	PluginInstalled = "plugins.installed"
	PluginRemoved   = "plugins.removed"
	MediaUploaded   = "media.uploaded"
	CatalogSaved    = "catalog.saved"
	CatalogTrashed  = "catalog.trashed"
	CatalogRestored = "catalog.restored"
	CatalogPurged   = "catalog.purged"
)

// CatalogChange is the payload of the catalog.* events.
type CatalogChange struct {
	Module   string
	OwnerID  uint64
	IDs      []uint64
	Affected int64
}

type EventHandler func(event string, data interface{})

// EventBus dispatches events to handlers registered for the exact name or
// for a "prefix.*" pattern. Handlers run on their own goroutine.
type EventBus struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
	inflight sync.WaitGroup
}

var defaultBus = NewEventBus()

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
	}
}

// On registers a handler for an event name or a "prefix.*" pattern
func (bus *EventBus) On(event string, handler EventHandler) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.handlers[event] = append(bus.handlers[event], handler)
	log.Info("Registered handler for event: %s", event)
}

func (bus *EventBus) match(event string) []EventHandler {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	matched := append([]EventHandler(nil), bus.handlers[event]...)
	if i := strings.IndexByte(event, '.'); i > 0 {
		matched = append(matched, bus.handlers[event[:i]+".*"]...)
	}
	return matched
}

// Emit triggers an event with the given data
func (bus *EventBus) Emit(event string, data interface{}) {
	handlers := bus.match(event)
	if len(handlers) == 0 {
		return
	}

	for _, handler := range handlers {
		bus.inflight.Add(1)
		go func(h EventHandler) {
			defer bus.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					_ = log.Error("Panic in event handler", fmt.Errorf("panic: %v", r))
				}
			}()
			h(event, data)
		}(handler)
	}
}

// Wait blocks until every dispatched handler has returned.
func (bus *EventBus) Wait() {
	bus.inflight.Wait()
}

// On Global event functions that use the default event bus
func On(event string, handler EventHandler) {
	defaultBus.On(event, handler)
}

func Emit(event string, data interface{}) {
	defaultBus.Emit(event, data)
}

func Wait() {
	defaultBus.Wait()
}
