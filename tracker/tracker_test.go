package tracker

import (
	"context"
	"errors"
	"math"
	"net/http/httptest"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutumagi/mcentity/entity"
	e "github.com/tutumagi/mcentity/errors"
	"github.com/tutumagi/mcentity/event"
	"github.com/tutumagi/mcentity/mcdata"
	"github.com/tutumagi/mcentity/mcdata/mocks"
	"github.com/tutumagi/mcentity/metrics"
	"github.com/tutumagi/mcentity/pose"
	"github.com/tutumagi/mcentity/protocol"
	"github.com/tutumagi/mcentity/stream"
)

const epsilon = 1e-9

var (
	zombieHeight = 1.95
	zombieWidth  = 0.6
	zombie       = &mcdata.EntityType{
		ID: 54, InternalID: 54, Name: "zombie", DisplayName: "Zombie",
		Type: "mob", Category: "Hostile mobs", Height: &zombieHeight, Width: &zombieWidth,
	}

	fixedPoint = []string{pose.FeatureFixedPointPosition, pose.FeatureFixedPointDelta}
	double     = []string{pose.FeatureDoublePosition}
)

type recorded struct {
	name  event.Name
	id    int32
	valid bool
	pos   mgl64.Vec3
}

type fixture struct {
	dispatcher *stream.Dispatcher
	tracker    *Tracker
	events     []recorded
}

func newFixture(features []string, opts ...Option) *fixture {
	data := mcdata.New("test", []*mcdata.EntityType{zombie}, features...)
	f := &fixture{dispatcher: stream.NewDispatcher()}
	f.tracker = New(f.dispatcher, data, opts...)
	for _, name := range event.Names {
		name := name
		f.tracker.On(name, func(ctx context.Context, en *entity.Entity, pk *protocol.Packet) error {
			f.events = append(f.events, recorded{name: name, id: en.ID, valid: en.IsValid, pos: en.Position.Vec3})
			return nil
		})
	}
	return f
}

func (f *fixture) send(name string, data interface{}) error {
	return f.dispatcher.Dispatch(context.Background(), &protocol.Packet{Name: name, Data: data})
}

func (f *fixture) eventNames() []event.Name {
	names := make([]event.Name, 0, len(f.events))
	for _, ev := range f.events {
		names = append(names, ev.name)
	}
	return names
}

func assertVec(t *testing.T, expected, actual mgl64.Vec3) {
	t.Helper()
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], epsilon, "axis %d", i)
	}
}

func TestSpawnUnknownTypeFallsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(fixedPoint)
	require.NoError(t, f.send(protocol.SpawnEntityName, &protocol.SpawnEntity{EntityID: 42, ObjectUUID: "u1", Type: 77}))

	en, ok := f.tracker.GetEntityByID(42)
	require.True(t, ok)
	assert.Equal(t, "u1", en.UUID)
	assert.Equal(t, entity.UnknownName, en.Name)
	assert.Equal(t, entity.UnknownName, en.DisplayName)
	assert.Equal(t, entity.UnknownName, en.Kind)
	assert.Equal(t, entity.OtherType, en.Type)
	assert.Equal(t, int32(77), en.EntityType)
	assert.Nil(t, en.Height)
	assert.Nil(t, en.Width)
	assert.True(t, en.IsValid)

	assert.Equal(t, []recorded{{name: event.Spawn, id: 42, valid: true}}, f.events)
}

func TestSpawnKnownTypeAppliesPose(t *testing.T) {
	t.Parallel()

	f := newFixture(fixedPoint)
	require.NoError(t, f.send(protocol.SpawnEntityName, &protocol.SpawnEntity{
		EntityID:   7,
		ObjectUUID: "6F9619FF-8B86-D011-B42D-00C04FC964FF",
		Type:       54,
		X:          320, Y: 2048, Z: -16,
		Yaw: 64, Pitch: -64,
		VelocityX: 8000, VelocityY: -4000,
	}))

	en, ok := f.tracker.GetEntityByID(7)
	require.True(t, ok)
	assert.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", en.UUID)
	assert.Equal(t, "zombie", en.Name)
	assert.Equal(t, "Zombie", en.DisplayName)
	assert.Equal(t, "mob", en.Type)
	assert.Equal(t, "Hostile mobs", en.Kind)
	assert.Equal(t, int32(54), en.EntityType)
	require.NotNil(t, en.Height)
	assert.Equal(t, 1.95, *en.Height)
	assert.NotSame(t, zombie.Height, en.Height)

	assertVec(t, mgl64.Vec3{10, 64, -0.5}, en.Position.Vec3)
	assert.InDelta(t, math.Pi/2, en.Yaw, epsilon)
	assert.InDelta(t, math.Pi/2, en.Pitch, epsilon)
	assertVec(t, mgl64.Vec3{1, -0.5, 0}, en.Velocity.Vec3)
}

func TestSpawnPositionEncodings(t *testing.T) {
	t.Parallel()

	tables := map[string]struct {
		features []string
		expected mgl64.Vec3
	}{
		"fixed point": {features: fixedPoint, expected: mgl64.Vec3{1, 2, 3}},
		"double":      {features: double, expected: mgl64.Vec3{32, 64, 96}},
		"unsupported": {features: nil, expected: mgl64.Vec3{}},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			f := newFixture(table.features)
			require.NoError(t, f.send(protocol.SpawnEntityName, &protocol.SpawnEntity{EntityID: 1, Type: 54, X: 32, Y: 64, Z: 96}))

			en, _ := f.tracker.GetEntityByID(1)
			assertVec(t, table.expected, en.Position.Vec3)
		})
	}
}

func TestVelocityRequiresTrackedEntity(t *testing.T) {
	t.Parallel()

	f := newFixture(fixedPoint)
	err := f.send(protocol.EntityVelocityName, &protocol.EntityVelocity{EntityID: 5, VelocityX: 8000})
	require.Error(t, err)
	assert.Equal(t, entity.ErrUnknownEntityCode, e.CodeFromError(err))
	assert.True(t, errors.Is(err, entity.ErrUnknownEntity(5)))

	_, ok := f.tracker.GetEntityByID(5)
	assert.False(t, ok)
	assert.Empty(t, f.events)

	require.NoError(t, f.send(protocol.SpawnEntityName, &protocol.SpawnEntity{EntityID: 5, Type: 54}))
	require.NoError(t, f.send(protocol.EntityVelocityName, &protocol.EntityVelocity{EntityID: 5, VelocityX: 8000, VelocityZ: -800}))

	en, _ := f.tracker.GetEntityByID(5)
	assertVec(t, mgl64.Vec3{1, 0, -0.1}, en.Velocity.Vec3)
	assert.Equal(t, []event.Name{event.Spawn, event.Velocity}, f.eventNames())
}

func TestDestroyBatchInOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(fixedPoint)
	require.NoError(t, f.send(protocol.SpawnEntityName, &protocol.SpawnEntity{EntityID: 1, Type: 54}))
	require.NoError(t, f.send(protocol.RelEntityMoveName, &protocol.RelEntityMove{EntityID: 2, DX: 32}))
	f.events = nil

	first, _ := f.tracker.GetEntityByID(1)
	require.NoError(t, f.send(protocol.EntityDestroyName, &protocol.EntityDestroy{EntityIDs: []int32{1, 2, 3}}))

	assert.Equal(t, []recorded{
		{name: event.Destroy, id: 1, valid: false},
		{name: event.Destroy, id: 2, valid: false, pos: mgl64.Vec3{1, 0, 0}},
		{name: event.Destroy, id: 3, valid: false},
	}, f.events)
	assert.Empty(t, f.tracker.GetEntities())
	assert.False(t, first.IsValid)

	// a reused id is a new entity
	require.NoError(t, f.send(protocol.EntityLookName, &protocol.EntityLook{EntityID: 1}))
	again, ok := f.tracker.GetEntityByID(1)
	require.True(t, ok)
	assert.NotSame(t, first, again)
	assert.True(t, again.IsValid)
	assert.False(t, again.Spawned())
}

func TestDestroyStopsOnSubscriberError(t *testing.T) {
	t.Parallel()

	f := newFixture(fixedPoint)
	boom := errors.New("boom")
	f.tracker.On(event.Destroy, func(ctx context.Context, en *entity.Entity, pk *protocol.Packet) error {
		if en.ID == 2 {
			return boom
		}
		return nil
	})

	err := f.send(protocol.EntityDestroyName, &protocol.EntityDestroy{EntityIDs: []int32{1, 2, 3}})
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, []event.Name{event.Destroy, event.Destroy}, f.eventNames())
}

func TestRelativeMoveCreatesEntity(t *testing.T) {
	t.Parallel()

	tables := map[string]struct {
		features []string
		expected mgl64.Vec3
	}{
		"fixed point delta": {features: fixedPoint, expected: mgl64.Vec3{10, 0, -10}},
		"legacy delta":      {features: double, expected: mgl64.Vec3{10.0 / 128, 0, -10.0 / 128}},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			f := newFixture(table.features)
			require.NoError(t, f.send(protocol.RelEntityMoveName, &protocol.RelEntityMove{EntityID: 9, DX: 320, DZ: -320}))

			en, ok := f.tracker.GetEntityByID(9)
			require.True(t, ok)
			assertVec(t, table.expected, en.Position.Vec3)
			assert.Equal(t, []event.Name{event.Position}, f.eventNames())

			// deltas accumulate
			require.NoError(t, f.send(protocol.RelEntityMoveName, &protocol.RelEntityMove{EntityID: 9, DX: 320, DZ: -320}))
			assertVec(t, table.expected.Mul(2), en.Position.Vec3)
		})
	}
}

func TestLook(t *testing.T) {
	t.Parallel()

	f := newFixture(fixedPoint)
	require.NoError(t, f.send(protocol.EntityLookName, &protocol.EntityLook{EntityID: 3, Yaw: -128, Pitch: 32}))

	en, ok := f.tracker.GetEntityByID(3)
	require.True(t, ok)
	assert.InDelta(t, 0, en.Yaw, epsilon)
	assert.InDelta(t, -math.Pi/4, en.Pitch, epsilon)
	assert.Equal(t, []event.Name{event.Look}, f.eventNames())
}

func TestLookFromUnsignedBytes(t *testing.T) {
	t.Parallel()

	f := newFixture(fixedPoint)
	unsigned, err := protocol.Unmarshal(protocol.EntityLookName, []byte(`{"entityId":3,"yaw":192,"pitch":192}`))
	require.NoError(t, err)
	require.NoError(t, f.dispatcher.Dispatch(context.Background(), unsigned))

	en, ok := f.tracker.GetEntityByID(3)
	require.True(t, ok)
	yaw, pitch := en.Yaw, en.Pitch
	assert.InDelta(t, 3*math.Pi/2, yaw, epsilon)
	assert.InDelta(t, math.Pi/2, pitch, epsilon)

	require.NoError(t, f.send(protocol.EntityLookName, &protocol.EntityLook{EntityID: 3, Yaw: -64, Pitch: -64}))
	assert.InDelta(t, yaw, en.Yaw, epsilon)
	assert.InDelta(t, pitch, en.Pitch, epsilon)
}

func TestMoveLookEmitsPositionThenLook(t *testing.T) {
	t.Parallel()

	f := newFixture(fixedPoint)
	var yawAtPosition float64
	f.tracker.On(event.Position, func(ctx context.Context, en *entity.Entity, pk *protocol.Packet) error {
		yawAtPosition = en.Yaw
		return nil
	})

	require.NoError(t, f.send(protocol.EntityMoveLookName, &protocol.EntityMoveLook{EntityID: 4, DX: 64, DY: -32, Yaw: 64}))

	assert.Equal(t, []event.Name{event.Position, event.Look}, f.eventNames())
	// the look step had not run yet when position subscribers were called
	assert.Equal(t, 0.0, yawAtPosition)

	en, _ := f.tracker.GetEntityByID(4)
	assertVec(t, mgl64.Vec3{2, -1, 0}, en.Position.Vec3)
	assert.InDelta(t, math.Pi/2, en.Yaw, epsilon)
}

func TestTeleport(t *testing.T) {
	t.Parallel()

	tables := map[string]struct {
		features []string
		expected mgl64.Vec3
	}{
		"fixed point": {features: fixedPoint, expected: mgl64.Vec3{1, 2, 0.5}},
		"double":      {features: double, expected: mgl64.Vec3{32, 64, 16}},
		"unsupported": {features: nil, expected: mgl64.Vec3{5, 5, 5}},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			f := newFixture(table.features)
			en := f.tracker.entities.GetOrCreate(8)
			en.Position.Set(5, 5, 5)

			require.NoError(t, f.send(protocol.EntityTeleportName, &protocol.EntityTeleport{EntityID: 8, X: 32, Y: 64, Z: 16, Yaw: 0, Pitch: 64}))

			assertVec(t, table.expected, en.Position.Vec3)
			assert.InDelta(t, math.Pi, en.Yaw, epsilon)
			assert.InDelta(t, -math.Pi/2, en.Pitch, epsilon)
			assert.Equal(t, []event.Name{event.Teleport}, f.eventNames())
		})
	}
}

func TestSubscribersSeeStateBeforeNextPacket(t *testing.T) {
	t.Parallel()

	f := newFixture(fixedPoint)
	require.NoError(t, f.send(protocol.RelEntityMoveName, &protocol.RelEntityMove{EntityID: 1, DX: 32}))
	require.NoError(t, f.send(protocol.RelEntityMoveName, &protocol.RelEntityMove{EntityID: 1, DX: 32}))

	require.Len(t, f.events, 2)
	assertVec(t, mgl64.Vec3{1, 0, 0}, f.events[0].pos)
	assertVec(t, mgl64.Vec3{2, 0, 0}, f.events[1].pos)
}

func TestWrongPacketData(t *testing.T) {
	t.Parallel()

	f := newFixture(fixedPoint)
	names := []string{
		protocol.SpawnEntityName,
		protocol.EntityVelocityName,
		protocol.EntityDestroyName,
		protocol.RelEntityMoveName,
		protocol.EntityLookName,
		protocol.EntityMoveLookName,
		protocol.EntityTeleportName,
	}
	for _, name := range names {
		err := f.send(name, &protocol.NamedEntitySpawn{})
		assert.Equal(t, ErrPacketDataCode, e.CodeFromError(err), name)
	}
	assert.Empty(t, f.events)
	assert.Empty(t, f.tracker.GetEntities())
}

func TestNamedEntitySpawnNotSubscribed(t *testing.T) {
	t.Parallel()

	f := newFixture(fixedPoint)
	assert.False(t, f.dispatcher.Subscribed(protocol.NamedEntitySpawnName))
	assert.True(t, f.dispatcher.Subscribed(protocol.SpawnEntityName))

	require.NoError(t, f.send(protocol.NamedEntitySpawnName, &protocol.NamedEntitySpawn{EntityID: 1}))
	assert.Empty(t, f.tracker.GetEntities())
}

func TestQueriesAndReset(t *testing.T) {
	t.Parallel()

	f := newFixture(fixedPoint)
	for id := int32(1); id <= 3; id++ {
		require.NoError(t, f.send(protocol.SpawnEntityName, &protocol.SpawnEntity{EntityID: id, Type: 54}))
	}
	assert.Len(t, f.tracker.GetEntities(), 3)

	en, _ := f.tracker.GetEntityByID(2)
	f.tracker.Reset()
	assert.Empty(t, f.tracker.GetEntities())
	assert.False(t, en.IsValid)
	assert.Len(t, f.events, 3)
}

func TestStrategySelectedOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	data := mocks.NewMockRegistry(ctrl)
	// fixed point wins, doublePosition is never asked
	data.EXPECT().SupportFeature(pose.FeatureFixedPointPosition).Return(true).Times(1)
	data.EXPECT().SupportFeature(pose.FeatureFixedPointDelta).Return(false).Times(1)
	data.EXPECT().EntityByID(int32(54)).Return(zombie, true).Times(2)

	d := stream.NewDispatcher()
	tr := New(d, data)
	assert.Equal(t, pose.Strategy{PositionEncoding: pose.PositionFixedPoint, DeltaEncoding: pose.DeltaLegacy}, tr.Strategy())

	ctx := context.Background()
	require.NoError(t, d.Dispatch(ctx, &protocol.Packet{Name: protocol.SpawnEntityName, Data: &protocol.SpawnEntity{EntityID: 1, Type: 54}}))
	require.NoError(t, d.Dispatch(ctx, &protocol.Packet{Name: protocol.SpawnEntityName, Data: &protocol.SpawnEntity{EntityID: 2, Type: 54}}))
	require.NoError(t, d.Dispatch(ctx, &protocol.Packet{Name: protocol.EntityTeleportName, Data: &protocol.EntityTeleport{EntityID: 1, X: 64}}))

	en, _ := tr.GetEntityByID(1)
	assert.Equal(t, 2.0, en.Position.X())
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	p, err := metrics.NewPrometheusReporter("tracker", nil)
	require.NoError(t, err)

	f := newFixture(fixedPoint, WithReporters(p))
	require.NoError(t, f.send(protocol.SpawnEntityName, &protocol.SpawnEntity{EntityID: 1, Type: 54}))
	require.NoError(t, f.send(protocol.SpawnEntityName, &protocol.SpawnEntity{EntityID: 2, Type: 54}))
	require.NoError(t, f.send(protocol.EntityDestroyName, &protocol.EntityDestroy{EntityIDs: []int32{1}}))

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `entitytrack_tracker_entities_tracked{serverType="tracker"} 1`)
	assert.Contains(t, body, `entitytrack_tracker_events_emitted{event="entity.spawn",serverType="tracker",status="ok"} 2`)
	assert.Contains(t, body, `entitytrack_tracker_events_emitted{event="entity.destroy",serverType="tracker",status="ok"} 1`)
}
