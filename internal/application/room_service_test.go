package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/shared-tracker/internal/persistence"
	"github.com/example/shared-tracker/internal/testfixtures"
)

type fakeRoomCatalog struct {
	rooms   map[string]persistence.Room
	listErr error
}

func newFakeRoomCatalog(rooms ...persistence.Room) *fakeRoomCatalog {
	catalog := &fakeRoomCatalog{rooms: make(map[string]persistence.Room)}
	for _, room := range rooms {
		catalog.rooms[room.ID] = room
	}
	return catalog
}

func (f *fakeRoomCatalog) CreateRoom(_ context.Context, room persistence.Room) error {
	if _, ok := f.rooms[room.ID]; ok {
		return persistence.ErrDuplicate
	}
	f.rooms[room.ID] = room
	return nil
}

func (f *fakeRoomCatalog) GetRoom(_ context.Context, id string) (persistence.Room, error) {
	room, ok := f.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (f *fakeRoomCatalog) ListRooms(_ context.Context) ([]persistence.Room, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	rooms := make([]persistence.Room, 0, len(f.rooms))
	for _, room := range f.rooms {
		rooms = append(rooms, room)
	}
	return rooms, nil
}

type fakeAggregator struct {
	grouped map[persistence.ScheduleDate]persistence.DateAggregate
	err     error
	calls   int
}

func (f *fakeAggregator) AggregateByDate(_ context.Context, _ string, _ []persistence.ScheduleDate) (map[persistence.ScheduleDate]persistence.DateAggregate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.grouped, nil
}

func intRef(v int) *int { return &v }

func roomFixture() persistence.Room {
	return testfixtures.NewRoom(
		testfixtures.WithRoomID("room-0"),
		testfixtures.WithRoomDisplayName("Tracking Room"),
	)
}

func aggregateFixture() map[persistence.ScheduleDate]persistence.DateAggregate {
	date := persistence.ScheduleDate{Year: 1555, Month: 2, Day: 13}
	return map[persistence.ScheduleDate]persistence.DateAggregate{
		date: {
			Entries: []persistence.EntryAggregate{
				{UserID: "user-0", Amount: intRef(10)},
				{UserID: "user-1", Amount: intRef(11)},
				{UserID: "user-2", Amount: intRef(12)},
				{UserID: "user-3", Amount: intRef(13)},
			},
			Users: []string{"user-0", "user-1", "user-2", "user-3"},
		},
	}
}

func TestRoomService_GetRoomPropertiesFullMask(t *testing.T) {
	room := roomFixture()
	aggregator := &fakeAggregator{grouped: aggregateFixture()}
	service := NewRoomService(newFakeRoomCatalog(room), aggregator, nil, nil)

	properties, err := service.GetRoomProperties(context.Background(), RoomPropertiesParams{
		RoomID: "room-0",
		Dates:  []persistence.ScheduleDate{{Year: 1555, Month: 2, Day: 13}},
		Mask:   PropertyMask{Entries: true, Users: true, DisplayName: true, URL: true, Broadcast: true},
	})
	if err != nil {
		t.Fatalf("GetRoomProperties() error = %v", err)
	}

	date := persistence.ScheduleDate{Year: 1555, Month: 2, Day: 13}
	entries := properties.Entries[date]
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}
	sum := 0
	for _, aggregate := range entries {
		if aggregate.Amount == nil {
			t.Fatalf("aggregate for %s has nil amount", aggregate.UserID)
		}
		sum += *aggregate.Amount
	}
	if sum != 46 {
		t.Fatalf("amount sum = %d, want 46", sum)
	}
	if len(properties.Users[date]) != 4 {
		t.Fatalf("users = %d, want 4", len(properties.Users[date]))
	}
	if properties.DisplayName == nil || *properties.DisplayName != "Tracking Room" {
		t.Fatalf("displayName = %v, want Tracking Room", properties.DisplayName)
	}
	if properties.URL == nil || *properties.URL != room.URL {
		t.Fatalf("url = %v, want %q", properties.URL, room.URL)
	}
	if properties.Broadcast == nil || *properties.Broadcast != room.Broadcast {
		t.Fatalf("broadcast = %v, want %q", properties.Broadcast, room.Broadcast)
	}
}

func TestRoomService_MaskSuppressesUnrequestedFields(t *testing.T) {
	aggregator := &fakeAggregator{grouped: aggregateFixture()}
	service := NewRoomService(newFakeRoomCatalog(roomFixture()), aggregator, nil, nil)

	tests := []struct {
		name string
		mask PropertyMask
	}{
		{name: "entries only", mask: PropertyMask{Entries: true}},
		{name: "users only", mask: PropertyMask{Users: true}},
		{name: "display name only", mask: PropertyMask{DisplayName: true}},
		{name: "nothing", mask: PropertyMask{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			properties, err := service.GetRoomProperties(context.Background(), RoomPropertiesParams{
				RoomID: "room-0",
				Dates:  []persistence.ScheduleDate{{Year: 1555, Month: 2, Day: 13}},
				Mask:   tt.mask,
			})
			if err != nil {
				t.Fatalf("GetRoomProperties() error = %v", err)
			}
			if (properties.Entries != nil) != tt.mask.Entries {
				t.Errorf("entries populated = %v, mask = %v", properties.Entries != nil, tt.mask.Entries)
			}
			if (properties.Users != nil) != tt.mask.Users {
				t.Errorf("users populated = %v, mask = %v", properties.Users != nil, tt.mask.Users)
			}
			if (properties.DisplayName != nil) != tt.mask.DisplayName {
				t.Errorf("displayName populated = %v, mask = %v", properties.DisplayName != nil, tt.mask.DisplayName)
			}
			if (properties.URL != nil) != tt.mask.URL {
				t.Errorf("url populated = %v, mask = %v", properties.URL != nil, tt.mask.URL)
			}
			if (properties.Broadcast != nil) != tt.mask.Broadcast {
				t.Errorf("broadcast populated = %v, mask = %v", properties.Broadcast != nil, tt.mask.Broadcast)
			}
		})
	}
}

func TestRoomService_AggregationSkippedWhenNotMasked(t *testing.T) {
	aggregator := &fakeAggregator{grouped: aggregateFixture()}
	service := NewRoomService(newFakeRoomCatalog(roomFixture()), aggregator, nil, nil)

	_, err := service.GetRoomProperties(context.Background(), RoomPropertiesParams{
		RoomID: "room-0",
		Dates:  []persistence.ScheduleDate{{Year: 1555, Month: 2, Day: 13}},
		Mask:   PropertyMask{DisplayName: true},
	})
	if err != nil {
		t.Fatalf("GetRoomProperties() error = %v", err)
	}
	if aggregator.calls != 0 {
		t.Fatalf("aggregation ran %d times, want 0 when neither entries nor users masked", aggregator.calls)
	}
}

func TestRoomService_UnknownRoomReturnsNotFound(t *testing.T) {
	service := NewRoomService(newFakeRoomCatalog(), &fakeAggregator{}, nil, nil)

	_, err := service.GetRoomProperties(context.Background(), RoomPropertiesParams{
		RoomID: "missing",
		Mask:   PropertyMask{Entries: true},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetRoomProperties() error = %v, want ErrNotFound", err)
	}
}

func TestRoomService_MaskedEmptyAggregateStaysNonNil(t *testing.T) {
	aggregator := &fakeAggregator{grouped: map[persistence.ScheduleDate]persistence.DateAggregate{}}
	service := NewRoomService(newFakeRoomCatalog(roomFixture()), aggregator, nil, nil)

	properties, err := service.GetRoomProperties(context.Background(), RoomPropertiesParams{
		RoomID: "room-0",
		Dates:  []persistence.ScheduleDate{{Year: 1555, Month: 2, Day: 14}},
		Mask:   PropertyMask{Entries: true, Users: true},
	})
	if err != nil {
		t.Fatalf("GetRoomProperties() error = %v", err)
	}
	if properties.Entries == nil || properties.Users == nil {
		t.Fatalf("masked maps must be non-nil even when no entries matched")
	}
}

func TestRoomService_CreateRoomRequiresDisplayName(t *testing.T) {
	service := NewRoomService(newFakeRoomCatalog(), &fakeAggregator{}, nil, nil)

	_, err := service.CreateRoom(context.Background(), persistence.Room{DisplayName: "  "})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("CreateRoom() error = %v, want ValidationError", err)
	}
	if _, ok := vErr.FieldErrors["displayName"]; !ok {
		t.Fatalf("ValidationError missing displayName, got %v", vErr.FieldErrors)
	}
}

func TestRoomService_CreateRoomAssignsIDAndTimestamps(t *testing.T) {
	catalog := newFakeRoomCatalog()
	ids := testfixtures.NewIDGenerator("room")
	clock := testfixtures.NewClock(time.Time{})
	service := NewRoomService(catalog, &fakeAggregator{}, ids.NextFunc(), clock.NowFunc())

	created, err := service.CreateRoom(context.Background(), persistence.Room{DisplayName: "New Room"})
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if created.ID != "room-1" {
		t.Fatalf("room ID = %q, want room-1", created.ID)
	}
	if !created.CreatedAt.Equal(testfixtures.ReferenceTime()) || !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("timestamps = %v / %v, want %v", created.CreatedAt, created.UpdatedAt, testfixtures.ReferenceTime())
	}
}
