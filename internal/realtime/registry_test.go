package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shared-tracker/internal/persistence"
	"github.com/example/shared-tracker/internal/protocol"
)

func TestRegistryBroadcastReachesAllRegistered(t *testing.T) {
	reg := NewRegistry(nil)

	boxes := make([]*Mailbox, 0, 3)
	for _, id := range []string{"c1", "c2", "c3"} {
		boxes = append(boxes, reg.Register(id))
	}

	reg.Broadcast([]byte("hello"))

	for _, mb := range boxes {
		frame, ok := mb.Receive()
		require.True(t, ok)
		assert.Equal(t, "hello", string(frame))
	}
}

func TestRegistryRegisterReplacesStaleMailbox(t *testing.T) {
	reg := NewRegistry(nil)

	old := reg.Register("c1")
	fresh := reg.Register("c1")

	assert.Equal(t, 1, reg.Len(), "one mailbox per identity")

	// The stale mailbox is closed so its writer can stop.
	assert.False(t, old.Push([]byte("stale")))

	reg.Broadcast([]byte("current"))
	frame, ok := fresh.Receive()
	require.True(t, ok)
	assert.Equal(t, "current", string(frame))
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	reg := NewRegistry(nil)

	mb := reg.Register("c1")
	reg.Unregister("c1")
	reg.Unregister("c1")
	reg.Unregister("never-registered")

	assert.Equal(t, 0, reg.Len())
	_, ok := mb.Receive()
	assert.False(t, ok, "unregister closes the mailbox")
}

func TestRegistryBroadcastSkipsUnregistered(t *testing.T) {
	reg := NewRegistry(nil)

	gone := reg.Register("gone")
	stays := reg.Register("stays")
	reg.Unregister("gone")

	reg.Broadcast([]byte("update"))

	_, ok := gone.Receive()
	assert.False(t, ok)

	frame, ok := stays.Receive()
	require.True(t, ok)
	assert.Equal(t, "update", string(frame))
}

func TestRegistryRegistrationAfterSnapshotMissesBroadcast(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Broadcast([]byte("before"))

	late := reg.Register("late")
	assert.Equal(t, 0, late.Len(), "broadcasts are point-in-time, not replayed")
}

func TestEntryBroadcasterEncodesUpdateFrame(t *testing.T) {
	reg := NewRegistry(nil)
	mb := reg.Register("c1")

	amount := 42
	entry := persistence.Entry{
		Key: persistence.EntryKey{
			Date:   persistence.ScheduleDate{Year: 1555, Month: 2, Day: 13},
			RoomID: "room-0",
			UserID: "user-0",
		},
		Value: persistence.EntryValue{Amount: &amount},
	}

	broadcaster := &EntryBroadcaster{Registry: reg}
	broadcaster.BroadcastEntryUpdate(entry)

	frame, ok := mb.Receive()
	require.True(t, ok)

	decoded, err := protocol.DecodeResponse(frame)
	require.NoError(t, err)
	update, ok := decoded.(protocol.UpdateEntryBroadcast)
	require.True(t, ok)
	assert.Equal(t, entry.Key, update.Entry.Key)
	require.NotNil(t, update.Entry.Value.Amount)
	assert.Equal(t, 42, *update.Entry.Value.Amount)
}
