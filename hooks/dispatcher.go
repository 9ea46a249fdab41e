package hooks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-command/router"
)

// Handler reacts to one emitted event.
type Handler func(ctx context.Context, event Event) error

// registration boxes a handler so mux entries compare by identity.
type registration struct {
	handler Handler
}

// Dispatcher routes emitted events to the handlers registered for their kind
// through a go-command mux keyed by the exact kind.
type Dispatcher struct {
	once sync.Once
	mux  *router.Mux
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{}
	d.init()
	return d
}

func (d *Dispatcher) init() {
	d.once.Do(func() {
		d.mux = router.NewMux(
			router.WithRouteMatcher(func(pattern, kind string) bool { return pattern == kind }),
			router.WithMatchStrategy(router.MatchStrategyFirst),
		)
	})
}

// On appends handler to the list for kind. Handlers run in the order they
// were registered. The returned subscription removes the handler.
func (d *Dispatcher) On(kind Kind, handler Handler) router.Subscription {
	if d == nil || handler == nil {
		return noopSubscription{}
	}
	d.init()
	return d.mux.Add(string(kind), &registration{handler: handler})
}

// Handlers returns the number of handlers registered for kind.
func (d *Dispatcher) Handlers(kind Kind) int {
	if d == nil {
		return 0
	}
	d.init()
	return len(d.mux.Get(string(kind)))
}

// Emit invokes every handler registered for the event kind synchronously.
// A panicking or failing handler does not stop the remaining ones.
func (d *Dispatcher) Emit(ctx context.Context, event Event) error {
	if d == nil || event == nil {
		return nil
	}
	d.init()
	var errs []error
	for _, entry := range d.mux.Get(string(event.Kind())) {
		reg, ok := entry.Handler.(*registration)
		if !ok {
			continue
		}
		if err := invoke(ctx, reg.handler, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func invoke(ctx context.Context, handler Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hooks: %s handler panic: %v", event.Kind(), r)
		}
	}()
	return handler(ctx, event)
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}
