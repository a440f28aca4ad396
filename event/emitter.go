package event

import (
	"context"
	"fmt"

	"github.com/tutumagi/mcentity/entity"
	"github.com/tutumagi/mcentity/protocol"
)

// Name of a domain event
type Name string

// Domain events
const (
	Spawn    Name = "entity.spawn"
	Destroy  Name = "entity.destroy"
	Velocity Name = "entity.velocity"
	Position Name = "entity.position"
	Look     Name = "entity.look"
	Teleport Name = "entity.teleport"
)

// Names every domain event, in declaration order
var Names = []Name{Spawn, Destroy, Velocity, Position, Look, Teleport}

// Handler reacts to a domain event. Returning is completion: work started in
// another goroutine is no longer ordered with later packets.
type Handler func(ctx context.Context, e *entity.Entity, pk *protocol.Packet) error

// Emitter dispatches domain events
//
//   - handlers run synchronously, in registration order
//   - the first failing handler stops the emission and its error is returned
type Emitter struct {
	handlers map[Name][]Handler
	// 发出事件的回调，用于统计
	onEmit func(name Name, err error)
}

// NewEmitter ctor
func NewEmitter() *Emitter {
	return &Emitter{
		handlers: make(map[Name][]Handler, len(Names)),
	}
}

// On registers a handler for name
func (em *Emitter) On(name Name, h Handler) {
	em.handlers[name] = append(em.handlers[name], h)
}

// Listeners number of handlers registered for name
func (em *Emitter) Listeners(name Name) int {
	return len(em.handlers[name])
}

// OnEmit sets a hook called after every emission with its outcome
func (em *Emitter) OnEmit(hook func(name Name, err error)) {
	em.onEmit = hook
}

// Emit runs the handlers of name and waits for all of them
func (em *Emitter) Emit(ctx context.Context, name Name, e *entity.Entity, pk *protocol.Packet) (err error) {
	if em.onEmit != nil {
		defer func() { em.onEmit(name, err) }()
	}

	for i, h := range em.handlers[name] {
		if err = h(ctx, e, pk); err != nil {
			return fmt.Errorf("%s handler %d: %w", name, i, err)
		}
	}
	return nil
}
