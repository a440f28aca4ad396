// Package tracker keeps the registry of remote entities in sync with the
// packet stream and publishes domain events for every change.
package tracker

import (
	"context"

	"github.com/tutumagi/mcentity/entity"
	"github.com/tutumagi/mcentity/event"
	"github.com/tutumagi/mcentity/logger"
	"github.com/tutumagi/mcentity/mcdata"
	"github.com/tutumagi/mcentity/metrics"
	"github.com/tutumagi/mcentity/pose"
	"github.com/tutumagi/mcentity/protocol"
	"go.uber.org/zap"
)

// Tracker 远端实体追踪
//	 Packets must be delivered one at a time (see stream.Dispatcher); the
//	 tracker holds no locks.
type Tracker struct {
	entities  *entity.Registry
	data      mcdata.Registry
	strategy  pose.Strategy
	emitter   *event.Emitter
	reporters metrics.Reporters
}

// Option configures a Tracker
type Option func(*Tracker)

// WithReporters reports event and registry metrics
func WithReporters(reporters ...metrics.Reporter) Option {
	return func(t *Tracker) {
		t.reporters = append(t.reporters, reporters...)
	}
}

// New builds a tracker for one session and subscribes its packet handlers on
// src. The pose encoding is negotiated here, once.
func New(src protocol.Source, data mcdata.Registry, opts ...Option) *Tracker {
	t := &Tracker{
		entities: entity.NewRegistry(),
		data:     data,
		strategy: pose.Select(data),
		emitter:  event.NewEmitter(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if len(t.reporters) > 0 {
		t.emitter.OnEmit(func(name event.Name, err error) {
			t.reporters.ReportEvent(string(name), err)
		})
	}

	if t.strategy.PositionEncoding == pose.PositionUnsupported {
		logger.Warn("no absolute position encoding for this protocol, spawn and teleport positions are ignored")
	}
	logger.Info("entity tracker ready", zap.Stringer("strategy", t.strategy))

	t.subscribe(src)
	return t
}

func (t *Tracker) subscribe(src protocol.Source) {
	src.On(protocol.SpawnEntityName, t.handle(t.onSpawnEntity))
	src.On(protocol.EntityVelocityName, t.handle(t.onEntityVelocity))
	src.On(protocol.EntityDestroyName, t.handle(t.onEntityDestroy))
	src.On(protocol.RelEntityMoveName, t.handle(t.onRelEntityMove))
	src.On(protocol.EntityLookName, t.handle(t.onEntityLook))
	src.On(protocol.EntityMoveLookName, t.handle(t.onEntityMoveLook))
	src.On(protocol.EntityTeleportName, t.handle(t.onEntityTeleport))
	// named_entity_spawn is not subscribed, player spawns are dropped by the dispatcher
}

// handle wraps a packet handler with the registry gauge
func (t *Tracker) handle(h protocol.Handler) protocol.Handler {
	return func(ctx context.Context, pk *protocol.Packet) error {
		err := h(ctx, pk)
		t.reporters.ReportEntities(t.entities.Len())
		return err
	}
}

// On subscribes to a domain event
func (t *Tracker) On(name event.Name, h event.Handler) {
	t.emitter.On(name, h)
}

// GetEntityByID returns a tracked entity
func (t *Tracker) GetEntityByID(id int32) (*entity.Entity, bool) {
	return t.entities.ByID(id)
}

// GetEntities returns the tracked entities, in no particular order
func (t *Tracker) GetEntities() []*entity.Entity {
	return t.entities.All()
}

// Strategy the pose encoding negotiated for this session
func (t *Tracker) Strategy() pose.Strategy {
	return t.strategy
}

// Reset drops every entity when the session ends. No events are emitted.
func (t *Tracker) Reset() {
	removed := t.entities.Clear()
	t.reporters.ReportEntities(0)
	logger.Debug("entity tracker reset", zap.Int("removed", len(removed)))
}

func (t *Tracker) emit(ctx context.Context, name event.Name, e *entity.Entity, pk *protocol.Packet) error {
	return t.emitter.Emit(ctx, name, e, pk)
}
