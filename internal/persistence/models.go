package persistence

import (
	"fmt"
	"time"
)

// ScheduleDate identifies the calendar day an entry is recorded against.
// The struct is comparable so it can serve as a map key and as the group
// key of aggregation queries. The stored fields are not validated against
// a calendar; month and day ranges are checked at the decoding boundary.
type ScheduleDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// String renders the date as a zero padded YYYY-MM-DD key, the form used
// for grouped response maps.
func (d ScheduleDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Before reports whether d orders strictly before other, field by field.
func (d ScheduleDate) Before(other ScheduleDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// EntryKey is the unique identity of one entry: the (date, room, user)
// triple. Equality follows field order.
type EntryKey struct {
	Date   ScheduleDate `json:"scheduleDate"`
	RoomID string       `json:"roomId"`
	UserID string       `json:"userId"`
}

// EntryValue holds the recorded amount for an entry. A nil Amount means
// no entry is recorded for the key.
type EntryValue struct {
	Amount *int `json:"amount"`
}

// Entry is the current recorded value for one key. At most one live entry
// exists per key; updates replace the previous value.
type Entry struct {
	Key   EntryKey   `json:"key"`
	Value EntryValue `json:"value"`
}

// CommitRecord is an append-only audit row capturing an entry snapshot at
// update time. Commit records are never mutated or deleted and are not
// consulted when answering reads.
type CommitRecord struct {
	CommittedAt time.Time
	Entry       Entry
}

// Room is the static configuration of a tracking group. Rooms are mutated
// only through administration, never by the realtime core.
type Room struct {
	ID          string
	DisplayName string
	URL         string
	Broadcast   string
	Members     []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// User represents an account that records entries.
type User struct {
	ID          string
	DisplayName string
	Theme       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EntryAggregate is one (user, amount) pair produced by the grouped entry
// query. Amounts are returned raw, without the positivity filter applied
// by point reads.
type EntryAggregate struct {
	UserID string
	Amount *int
}

// DateAggregate groups the aggregation result of a single schedule date.
type DateAggregate struct {
	Entries []EntryAggregate
	Users   []string
}
