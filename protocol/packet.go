// Package protocol holds the parsed clientbound packets the entity tracker
// consumes and the subscribe-by-name contract of the packet source.
package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	e "github.com/tutumagi/mcentity/errors"
)

// Packet names
const (
	SpawnEntityName      = "spawn_entity"
	NamedEntitySpawnName = "named_entity_spawn"
	EntityVelocityName   = "entity_velocity"
	EntityDestroyName    = "entity_destroy"
	RelEntityMoveName    = "rel_entity_move"
	EntityLookName       = "entity_look"
	EntityMoveLookName   = "entity_move_look"
	EntityTeleportName   = "entity_teleport"
)

// Decode errors
const (
	ErrUnknownPacketCode   = "Protocol_001"
	ErrMalformedPacketCode = "Protocol_002"
)

// Packet a parsed packet, Data holds one of the structs below by pointer
type Packet struct {
	Name string
	Data interface{}
}

// Handler consumes one packet, it must finish all its work before returning
type Handler func(ctx context.Context, pk *Packet) error

// Source delivers packets by name
type Source interface {
	On(name string, h Handler)
}

// Angle is a quantized angle, 256 steps per turn. Proxies send the byte signed
// or unsigned, both decode to the same value.
type Angle int8

// UnmarshalJSON accepts -128..255 and wraps to one byte
func (a *Angle) UnmarshalJSON(b []byte) error {
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v < math.MinInt8 || v > math.MaxUint8 {
		return fmt.Errorf("angle %d out of byte range", v)
	}
	*a = Angle(int8(uint8(v)))
	return nil
}

// SpawnEntity spawns a generic object or mob
type SpawnEntity struct {
	EntityID   int32   `json:"entityId"`
	ObjectUUID string  `json:"objectUUID"`
	Type       int32   `json:"type"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Pitch      Angle   `json:"pitch"`
	Yaw        Angle   `json:"yaw"`
	ObjectData int32   `json:"objectData"`
	VelocityX  int16   `json:"velocityX"`
	VelocityY  int16   `json:"velocityY"`
	VelocityZ  int16   `json:"velocityZ"`
}

// NamedEntitySpawn spawns a player
type NamedEntitySpawn struct {
	EntityID   int32   `json:"entityId"`
	PlayerUUID string  `json:"playerUUID"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Yaw        Angle   `json:"yaw"`
	Pitch      Angle   `json:"pitch"`
}

// EntityVelocity sets the velocity of a tracked entity
type EntityVelocity struct {
	EntityID  int32 `json:"entityId"`
	VelocityX int16 `json:"velocityX"`
	VelocityY int16 `json:"velocityY"`
	VelocityZ int16 `json:"velocityZ"`
}

// EntityDestroy removes a batch of entities
type EntityDestroy struct {
	EntityIDs []int32 `json:"entityIds"`
}

// RelEntityMove moves an entity by a delta
type RelEntityMove struct {
	EntityID int32 `json:"entityId"`
	DX       int16 `json:"dX"`
	DY       int16 `json:"dY"`
	DZ       int16 `json:"dZ"`
	OnGround bool  `json:"onGround"`
}

// EntityLook rotates an entity
type EntityLook struct {
	EntityID int32 `json:"entityId"`
	Yaw      Angle `json:"yaw"`
	Pitch    Angle `json:"pitch"`
	OnGround bool  `json:"onGround"`
}

// EntityMoveLook moves and rotates an entity
type EntityMoveLook struct {
	EntityID int32 `json:"entityId"`
	DX       int16 `json:"dX"`
	DY       int16 `json:"dY"`
	DZ       int16 `json:"dZ"`
	Yaw      Angle `json:"yaw"`
	Pitch    Angle `json:"pitch"`
	OnGround bool  `json:"onGround"`
}

// EntityTeleport sets the absolute position and rotation of an entity
type EntityTeleport struct {
	EntityID int32   `json:"entityId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Yaw      Angle   `json:"yaw"`
	Pitch    Angle   `json:"pitch"`
	OnGround bool    `json:"onGround"`
}

var dataTypes = map[string]func() interface{}{
	SpawnEntityName:      func() interface{} { return &SpawnEntity{} },
	NamedEntitySpawnName: func() interface{} { return &NamedEntitySpawn{} },
	EntityVelocityName:   func() interface{} { return &EntityVelocity{} },
	EntityDestroyName:    func() interface{} { return &EntityDestroy{} },
	RelEntityMoveName:    func() interface{} { return &RelEntityMove{} },
	EntityLookName:       func() interface{} { return &EntityLook{} },
	EntityMoveLookName:   func() interface{} { return &EntityMoveLook{} },
	EntityTeleportName:   func() interface{} { return &EntityTeleport{} },
}

// Known reports whether name is a packet this package can decode
func Known(name string) bool {
	_, ok := dataTypes[name]
	return ok
}

// Unmarshal decodes a JSON payload of the named packet
func Unmarshal(name string, raw []byte) (*Packet, error) {
	ctor, ok := dataTypes[name]
	if !ok {
		return nil, e.NewError(fmt.Errorf("unknown packet %q", name), ErrUnknownPacketCode)
	}

	data := ctor()
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, e.NewError(fmt.Errorf("decode %s: %w", name, err), ErrMalformedPacketCode)
	}
	return &Packet{Name: name, Data: data}, nil
}

// Envelope is the transport framing: a packet name and its raw JSON fields
type Envelope struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// Decode unpacks an envelope
func Decode(b []byte) (*Packet, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, e.NewError(fmt.Errorf("decode envelope: %w", err), ErrMalformedPacketCode)
	}
	if len(env.Data) == 0 {
		env.Data = json.RawMessage("{}")
	}
	return Unmarshal(env.Name, env.Data)
}

// Encode packs a packet into an envelope
func Encode(pk *Packet) ([]byte, error) {
	data, err := json.Marshal(pk.Data)
	if err != nil {
		return nil, e.NewError(fmt.Errorf("encode %s: %w", pk.Name, err), ErrMalformedPacketCode)
	}
	return json.Marshal(Envelope{Name: pk.Name, Data: data})
}
