package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/example/shared-tracker/internal/persistence"
)

// RoomCatalog captures the room operations needed by the service.
type RoomCatalog interface {
	CreateRoom(ctx context.Context, room persistence.Room) error
	GetRoom(ctx context.Context, id string) (persistence.Room, error)
	ListRooms(ctx context.Context) ([]persistence.Room, error)
}

// EntryAggregator runs the grouped entry query backing property lookups.
type EntryAggregator interface {
	AggregateByDate(ctx context.Context, roomID string, dates []persistence.ScheduleDate) (map[persistence.ScheduleDate]persistence.DateAggregate, error)
}

// PropertyMask selects which parts of a room properties response are
// populated. Unset fields are always omitted from the response regardless
// of whether underlying data exists.
type PropertyMask struct {
	Entries     bool
	Users       bool
	DisplayName bool
	URL         bool
	Broadcast   bool
}

// RoomPropertiesParams is the input of GetRoomProperties.
type RoomPropertiesParams struct {
	RoomID string
	Dates  []persistence.ScheduleDate
	Mask   PropertyMask
}

// RoomProperties is the masked aggregation result. Nil maps and nil string
// pointers mean the field was not requested.
type RoomProperties struct {
	RoomID      string
	Entries     map[persistence.ScheduleDate][]persistence.EntryAggregate
	Users       map[persistence.ScheduleDate][]string
	DisplayName *string
	URL         *string
	Broadcast   *string
}

// RoomService resolves rooms and assembles masked aggregation responses.
type RoomService struct {
	rooms       RoomCatalog
	entries     EntryAggregator
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomCatalog, entries EntryAggregator, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, entries, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomCatalog, entries EntryAggregator, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, entries: entries, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// GetRoomProperties looks up the room and populates exactly the masked
// fields. The grouped entry query runs once, only when entries or users
// were requested.
func (s *RoomService) GetRoomProperties(ctx context.Context, params RoomPropertiesParams) (RoomProperties, error) {
	logger := s.loggerWith(ctx, "GetRoomProperties", "room_id", params.RoomID)

	room, err := s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		mapped := mapStoreError(err)
		logger.ErrorContext(ctx, "room lookup failed", "error", err, "error_kind", ErrorKind(mapped))
		return RoomProperties{}, mapped
	}

	properties := RoomProperties{RoomID: room.ID}

	if params.Mask.Entries || params.Mask.Users {
		grouped, err := s.entries.AggregateByDate(ctx, room.ID, params.Dates)
		if err != nil {
			mapped := mapStoreError(err)
			logger.ErrorContext(ctx, "entry aggregation failed", "error", err, "error_kind", ErrorKind(mapped))
			return RoomProperties{}, mapped
		}

		if params.Mask.Entries {
			properties.Entries = make(map[persistence.ScheduleDate][]persistence.EntryAggregate, len(grouped))
			for date, aggregate := range grouped {
				properties.Entries[date] = aggregate.Entries
			}
		}
		if params.Mask.Users {
			properties.Users = make(map[persistence.ScheduleDate][]string, len(grouped))
			for date, aggregate := range grouped {
				properties.Users[date] = aggregate.Users
			}
		}
	}

	if params.Mask.DisplayName {
		name := room.DisplayName
		properties.DisplayName = &name
	}
	if params.Mask.URL {
		url := room.URL
		properties.URL = &url
	}
	if params.Mask.Broadcast {
		broadcast := room.Broadcast
		properties.Broadcast = &broadcast
	}

	logger.InfoContext(ctx, "room properties assembled", "dates", len(params.Dates))
	return properties, nil
}

// CreateRoom validates input and provisions a new room. Room mutation sits
// outside the realtime core; this exists for administration.
func (s *RoomService) CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	logger := s.loggerWith(ctx, "CreateRoom")

	vErr := &ValidationError{}
	if strings.TrimSpace(room.DisplayName) == "" {
		vErr.add("displayName", "display name is required")
	}
	if vErr.HasErrors() {
		logger.ErrorContext(ctx, "room validation failed", "error_kind", ErrorKind(vErr))
		return persistence.Room{}, vErr
	}

	if room.ID == "" {
		room.ID = s.idGenerator()
	}
	room.CreatedAt = s.now().UTC()
	room.UpdatedAt = room.CreatedAt

	if err := s.rooms.CreateRoom(ctx, room); err != nil {
		mapped := mapStoreError(err)
		logger.ErrorContext(ctx, "room creation failed", "error", err, "error_kind", ErrorKind(mapped))
		return persistence.Room{}, mapped
	}

	logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	return room, nil
}

// ListRooms returns the room catalog.
func (s *RoomService) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		mapped := mapStoreError(err)
		s.loggerWith(ctx, "ListRooms").ErrorContext(ctx, "room list failed", "error", err, "error_kind", ErrorKind(mapped))
		return nil, mapped
	}
	return rooms, nil
}
