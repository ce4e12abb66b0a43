package persistence

import "context"

// UserRepository exposes the user collection.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// RoomRepository exposes the room catalog.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// EntryRepository stores current entry values, the append-only commit log,
// and the grouped aggregation used by room queries.
type EntryRepository interface {
	// GetEntryValue returns the live value for key when its amount is
	// strictly positive. Absent rows and rows with a zero or nil amount
	// report ErrNotFound; the caller cannot tell the cases apart.
	GetEntryValue(ctx context.Context, key EntryKey) (EntryValue, error)

	// UpsertEntry writes the current value for the entry key, creating the
	// row when absent and overwriting it otherwise (last write wins).
	UpsertEntry(ctx context.Context, entry Entry) error

	// AppendCommit inserts one audit row. Commit rows are never updated
	// or removed.
	AppendCommit(ctx context.Context, record CommitRecord) error

	// ListCommits returns the audit log in insertion order.
	ListCommits(ctx context.Context) ([]CommitRecord, error)

	// AggregateByDate returns, for every date in dates that has at least
	// one entry row in the room, the (user, amount) pairs and user ids
	// recorded on that date. Dates without rows are absent from the map.
	AggregateByDate(ctx context.Context, roomID string, dates []ScheduleDate) (map[ScheduleDate]DateAggregate, error)
}
