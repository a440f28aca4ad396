package entity

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Classification sentinels for type codes missing from the type registry
const (
	UnknownName = "unknown"
	OtherType   = "other"
)

// Vec3 is a mutable vector, used for positions and velocities
type Vec3 struct {
	mgl64.Vec3
}

// Set overwrites the vector
func (v *Vec3) Set(x, y, z float64) {
	v.Vec3 = mgl64.Vec3{x, y, z}
}

// Translate moves the vector by a delta
func (v *Vec3) Translate(dx, dy, dz float64) {
	v.Vec3 = v.Vec3.Add(mgl64.Vec3{dx, dy, dz})
}

// Update overwrites the vector from another one
func (v *Vec3) Update(o mgl64.Vec3) {
	v.Vec3 = o
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X(), v.Y(), v.Z())
}

// Entity 远端实体
//	 Only the tracker that owns the registry mutates it, consumers read it from
//	 event handlers or take a Snapshot.
type Entity struct {
	ID   int32
	UUID string

	Type        string
	EntityType  int32
	Name        string
	DisplayName string
	Kind        string
	Height      *float64
	Width       *float64

	Position Vec3
	Velocity Vec3
	// radians, yaw in [0, 2π), pitch in [-π, π)
	Yaw   float64
	Pitch float64

	IsValid bool
}

// New ctor, the entity is valid but not spawned
func New(id int32) *Entity {
	return &Entity{
		ID:      id,
		IsValid: true,
	}
}

func (e *Entity) String() string {
	return fmt.Sprintf("<Entity>id:%d name:%s pos:%s", e.ID, e.Name, e.Position)
}

// Spawned reports whether a spawn packet classified this entity
func (e *Entity) Spawned() bool {
	return e.Type != ""
}

// Snapshot returns a copy that later packets will not mutate
func (e *Entity) Snapshot() Entity {
	s := *e
	if e.Height != nil {
		h := *e.Height
		s.Height = &h
	}
	if e.Width != nil {
		w := *e.Width
		s.Width = &w
	}
	return s
}

// invalidate 销毁时调用一次
func (e *Entity) invalidate() {
	e.IsValid = false
}
