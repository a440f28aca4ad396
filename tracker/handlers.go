package tracker

import (
	"context"

	"github.com/google/uuid"
	"github.com/tutumagi/mcentity/entity"
	"github.com/tutumagi/mcentity/event"
	"github.com/tutumagi/mcentity/pose"
	"github.com/tutumagi/mcentity/protocol"
)

func (t *Tracker) onSpawnEntity(ctx context.Context, pk *protocol.Packet) error {
	p, ok := pk.Data.(*protocol.SpawnEntity)
	if !ok {
		return ErrPacketData(pk)
	}

	e := t.entities.GetOrCreate(p.EntityID)
	e.UUID = normalizeUUID(p.ObjectUUID)
	t.classify(e, p.Type)
	t.setPosition(e, p.X, p.Y, p.Z)
	e.Yaw, e.Pitch = pose.Look(int(p.Yaw), int(p.Pitch))
	e.Velocity.Update(pose.Velocity(int(p.VelocityX), int(p.VelocityY), int(p.VelocityZ)))

	return t.emit(ctx, event.Spawn, e, pk)
}

// onEntityVelocity does not create entities: a velocity for an id that was
// never spawned means a missed spawn or reordered stream.
func (t *Tracker) onEntityVelocity(ctx context.Context, pk *protocol.Packet) error {
	p, ok := pk.Data.(*protocol.EntityVelocity)
	if !ok {
		return ErrPacketData(pk)
	}

	e, ok := t.entities.ByID(p.EntityID)
	if !ok {
		return entity.ErrUnknownEntity(p.EntityID)
	}
	e.Velocity.Update(pose.Velocity(int(p.VelocityX), int(p.VelocityY), int(p.VelocityZ)))

	return t.emit(ctx, event.Velocity, e, pk)
}

func (t *Tracker) onEntityDestroy(ctx context.Context, pk *protocol.Packet) error {
	p, ok := pk.Data.(*protocol.EntityDestroy)
	if !ok {
		return ErrPacketData(pk)
	}

	for _, id := range p.EntityIDs {
		// ids never seen still get their one destroy event
		t.entities.GetOrCreate(id)
		e := t.entities.Remove(id)
		if err := t.emit(ctx, event.Destroy, e, pk); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tracker) onRelEntityMove(ctx context.Context, pk *protocol.Packet) error {
	p, ok := pk.Data.(*protocol.RelEntityMove)
	if !ok {
		return ErrPacketData(pk)
	}
	return t.applyMove(ctx, p.EntityID, p.DX, p.DY, p.DZ, pk)
}

func (t *Tracker) onEntityLook(ctx context.Context, pk *protocol.Packet) error {
	p, ok := pk.Data.(*protocol.EntityLook)
	if !ok {
		return ErrPacketData(pk)
	}
	return t.applyLook(ctx, p.EntityID, p.Yaw, p.Pitch, pk)
}

// onEntityMoveLook is a relative move followed by a look, each with its own event
func (t *Tracker) onEntityMoveLook(ctx context.Context, pk *protocol.Packet) error {
	p, ok := pk.Data.(*protocol.EntityMoveLook)
	if !ok {
		return ErrPacketData(pk)
	}

	if err := t.applyMove(ctx, p.EntityID, p.DX, p.DY, p.DZ, pk); err != nil {
		return err
	}
	return t.applyLook(ctx, p.EntityID, p.Yaw, p.Pitch, pk)
}

func (t *Tracker) onEntityTeleport(ctx context.Context, pk *protocol.Packet) error {
	p, ok := pk.Data.(*protocol.EntityTeleport)
	if !ok {
		return ErrPacketData(pk)
	}

	e := t.entities.GetOrCreate(p.EntityID)
	t.setPosition(e, p.X, p.Y, p.Z)
	e.Yaw, e.Pitch = pose.Look(int(p.Yaw), int(p.Pitch))

	return t.emit(ctx, event.Teleport, e, pk)
}

func (t *Tracker) applyMove(ctx context.Context, id int32, dx, dy, dz int16, pk *protocol.Packet) error {
	e := t.entities.GetOrCreate(id)
	d := t.strategy.Delta(int(dx), int(dy), int(dz))
	e.Position.Translate(d.X(), d.Y(), d.Z())

	return t.emit(ctx, event.Position, e, pk)
}

func (t *Tracker) applyLook(ctx context.Context, id int32, yaw, pitch protocol.Angle, pk *protocol.Packet) error {
	e := t.entities.GetOrCreate(id)
	e.Yaw, e.Pitch = pose.Look(int(yaw), int(pitch))

	return t.emit(ctx, event.Look, e, pk)
}

// setPosition leaves the position untouched when the protocol has no known encoding
func (t *Tracker) setPosition(e *entity.Entity, x, y, z float64) {
	if pos, ok := t.strategy.Position(x, y, z); ok {
		e.Position.Update(pos)
	}
}

func (t *Tracker) classify(e *entity.Entity, code int32) {
	typ, ok := t.data.EntityByID(code)
	if !ok {
		e.Type = entity.OtherType
		e.EntityType = code
		e.Name = entity.UnknownName
		e.DisplayName = entity.UnknownName
		e.Kind = entity.UnknownName
		e.Height = nil
		e.Width = nil
		return
	}

	e.Type = typ.Type
	e.EntityType = typ.ID
	e.Name = typ.Name
	e.DisplayName = typ.DisplayName
	e.Kind = typ.Category
	e.Height = copyFloat(typ.Height)
	e.Width = copyFloat(typ.Width)
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// normalizeUUID lower-cases and dashes uuids, anything else is kept verbatim
func normalizeUUID(s string) string {
	u, err := uuid.Parse(s)
	if err != nil {
		return s
	}
	return u.String()
}
