package steprunner

import (
	"context"
	"sync"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
)

// Handler performs one step kind.
type Handler func(ctx context.Context, sc *StepContext) (Outcome, error)

var (
	mu sync.RWMutex
	// registry maps each catalog kind to its handler. Handlers are added by
	// the init functions of the handlers package.
	registry = map[catalog.Kind]Handler{}
)

// RegisterHandler binds h to kind. It panics on kinds outside the catalog so
// a typo surfaces at startup.
func RegisterHandler(kind catalog.Kind, h Handler) {
	if !kind.Valid() {
		panic("steprunner: registering handler for invalid kind " + kind.String())
	}
	mu.Lock()
	defer mu.Unlock()
	registry[kind] = h
}

// HandlerFor returns the handler bound to kind.
func HandlerFor(kind catalog.Kind) (Handler, bool) {
	mu.RLock()
	defer mu.RUnlock()
	h, ok := registry[kind]
	return h, ok
}

// Unregistered lists catalog kinds that have no handler.
func Unregistered() []catalog.Kind {
	mu.RLock()
	defer mu.RUnlock()
	var missing []catalog.Kind
	for _, k := range catalog.All() {
		if _, ok := registry[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
