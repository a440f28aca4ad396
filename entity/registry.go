package entity

import (
	"github.com/tutumagi/mcentity/logger"
	"go.uber.org/zap"
)

// Registry 当前会话追踪的实体
//	 One registry per session. It is not safe for concurrent use, the packet
//	 dispatcher is its only writer.
type Registry struct {
	entities Map
}

// NewRegistry ctor
func NewRegistry() *Registry {
	return &Registry{
		entities: make(Map, 256),
	}
}

// GetOrCreate returns the tracked entity, creating an unspawned one first if needed
func (r *Registry) GetOrCreate(id int32) *Entity {
	if e := r.entities.Get(id); e != nil {
		return e
	}

	e := New(id)
	r.entities.Add(e)
	logger.Debug("entity materialized", zap.Int32("id", id))
	return e
}

// ByID returns the tracked entity without creating it
func (r *Registry) ByID(id int32) (*Entity, bool) {
	e, ok := r.entities[id]
	return e, ok
}

// Remove invalidates and drops the entity, returning it. Absent ids return nil.
func (r *Registry) Remove(id int32) *Entity {
	e := r.entities.Get(id)
	if e == nil {
		return nil
	}

	e.invalidate()
	r.entities.Del(id)
	return e
}

// All returns a snapshot of the tracked entities, in no particular order
func (r *Registry) All() []*Entity {
	return r.entities.Values()
}

// Filter returns the tracked entities matching filter
func (r *Registry) Filter(filter func(*Entity) bool) Map {
	return r.entities.Filter(filter)
}

// Len number of tracked entities
func (r *Registry) Len() int {
	return len(r.entities)
}

// Clear invalidates and drops every entity, used when the owning session ends
func (r *Registry) Clear() []*Entity {
	removed := r.entities.Values()
	for _, e := range removed {
		e.invalidate()
	}
	r.entities = make(Map, 256)
	return removed
}
