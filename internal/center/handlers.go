package center

import (
	"sync"

	"github.com/arjunv/actorlink/internal/model"
)

// handlerTable is MessageHandlerTable from SPEC_FULL.md §3: indexed by
// category, last-writer-wins, tolerated under race (handlers are
// assumed set once during startup).
type handlerTable struct {
	mu       sync.RWMutex
	handlers map[model.Category]Handler
}

func newHandlerTable() *handlerTable {
	return &handlerTable{handlers: make(map[model.Category]Handler)}
}

func (t *handlerTable) register(category model.Category, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[category] = h
}

func (t *handlerTable) lookup(category model.Category) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handlers[category]
	return h, ok
}
