package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/shared-tracker/internal/persistence"
)

var (
	userCounter uint64
	roomCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserOption configures a generated user.
type UserOption func(*persistence.User)

// NewUser returns a deterministic user record with optional overrides.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:          id,
		DisplayName: fmt.Sprintf("User %03d", idx),
		Theme:       "forrest",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) {
		u.ID = id
	}
}

// WithUserDisplayName overrides the generated display name.
func WithUserDisplayName(name string) UserOption {
	return func(u *persistence.User) {
		u.DisplayName = name
	}
}

// WithUserTheme overrides the generated theme.
func WithUserTheme(theme string) UserOption {
	return func(u *persistence.User) {
		u.Theme = theme
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomOption configures a generated room.
type RoomOption func(*persistence.Room)

// NewRoom returns a deterministic room record with optional overrides.
func NewRoom(opts ...RoomOption) persistence.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	id := fmt.Sprintf("room-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	room := persistence.Room{
		ID:          id,
		DisplayName: fmt.Sprintf("Room %03d", idx),
		URL:         fmt.Sprintf("https://tracker.example.com/room/%d", idx),
		Broadcast:   fmt.Sprintf("wss://tracker.example.com/room/broadcast/%d", idx),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(r *persistence.Room) {
		r.ID = id
	}
}

// WithRoomDisplayName overrides the generated display name.
func WithRoomDisplayName(name string) RoomOption {
	return func(r *persistence.Room) {
		r.DisplayName = name
	}
}

// WithRoomMembers sets the member list on the generated room.
func WithRoomMembers(userIDs ...string) RoomOption {
	return func(r *persistence.Room) {
		r.Members = append([]string(nil), userIDs...)
	}
}

// ----------------------------- Entry fixtures ----------------------------

// NewEntry returns an entry for the given key coordinates and amount.
func NewEntry(date persistence.ScheduleDate, roomID, userID string, amount int) persistence.Entry {
	return persistence.Entry{
		Key: persistence.EntryKey{
			Date:   date,
			RoomID: roomID,
			UserID: userID,
		},
		Value: persistence.EntryValue{Amount: &amount},
	}
}
