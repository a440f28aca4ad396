// Package stream delivers packets to the tracker strictly one at a time.
//
// A packet's handlers, including every domain event handler they await, run
// to completion before the next packet is taken from the queue. That gives one
// total order over all entity mutations, matching wire arrival order.
package stream

import (
	"context"
	"fmt"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	e "github.com/tutumagi/mcentity/errors"
	"github.com/tutumagi/mcentity/logger"
	"github.com/tutumagi/mcentity/metrics"
	"github.com/tutumagi/mcentity/protocol"
	"github.com/tutumagi/mcentity/tracing"
	"go.uber.org/zap"
)

// Dispatcher implements protocol.Source over a single consumer queue
type Dispatcher struct {
	handlers    map[string][]protocol.Handler
	reporters   metrics.Reporters
	stopOnError bool
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithReporters reports per packet metrics
func WithReporters(reporters ...metrics.Reporter) Option {
	return func(d *Dispatcher) {
		d.reporters = append(d.reporters, reporters...)
	}
}

// WithStopOnError ends Run on the first handler error instead of logging it
func WithStopOnError(stop bool) Option {
	return func(d *Dispatcher) {
		d.stopOnError = stop
	}
}

// NewDispatcher ctor
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handlers: map[string][]protocol.Handler{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// On implements protocol.Source
func (d *Dispatcher) On(name string, h protocol.Handler) {
	d.handlers[name] = append(d.handlers[name], h)
}

// Subscribed reports whether any handler listens to name
func (d *Dispatcher) Subscribed(name string) bool {
	return len(d.handlers[name]) > 0
}

// Dispatch runs the handlers of pk in registration order and waits for them.
// Packets nobody subscribed to are dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, pk *protocol.Packet) (err error) {
	handlers := d.handlers[pk.Name]
	if len(handlers) == 0 {
		return nil
	}

	start := time.Now()
	span, ctx := tracing.StartSpan(ctx, "packet."+pk.Name, opentracing.Tags{"packet.kind": pk.Name})
	defer func() {
		tracing.FinishSpan(span, err)
		d.reporters.ReportPacket(pk.Name, start, err)
	}()

	for _, h := range handlers {
		if err = runHandler(ctx, h, pk); err != nil {
			return err
		}
	}
	return nil
}

// runHandler calls h, turning a panic into an error
func runHandler(ctx context.Context, h protocol.Handler, pk *protocol.Packet) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("catch panic handling packet", zap.String("packet", pk.Name), zap.Any("error", rec), zap.Stack("stack"))
			err = e.NewError(fmt.Errorf("panic handling %s: %v", pk.Name, rec), e.ErrInternalCode)
		}
	}()
	return h(ctx, pk)
}

// Run drains queue until it is closed or ctx is done. Cancellation is only
// observed between packets.
func (d *Dispatcher) Run(ctx context.Context, queue <-chan *protocol.Packet) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pk, ok := <-queue:
			if !ok {
				return nil
			}
			if err := d.Dispatch(ctx, pk); err != nil {
				logger.Error("failed to handle packet",
					zap.String("packet", pk.Name),
					zap.String("code", e.CodeFromError(err)),
					zap.Error(err),
				)
				if d.stopOnError {
					return err
				}
			}
		}
	}
}
