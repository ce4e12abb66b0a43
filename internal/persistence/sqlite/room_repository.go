package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/shared-tracker/internal/persistence"
)

var _ persistence.RoomRepository = (*RoomRepository)(nil)

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateRoom inserts a new room with its member set.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(tx, `
			INSERT INTO rooms (id, display_name, url, broadcast, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			room.ID,
			room.DisplayName,
			room.URL,
			room.Broadcast,
			room.CreatedAt.Format(time.RFC3339),
			room.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		return r.insertMembers(tx, room.ID, room.Members)
	})
}

// GetRoom retrieves a room and its member list by ID.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	var room persistence.Room
	var createdAtStr, updatedAtStr string

	err := r.helper.QueryRow(ctx, `
		SELECT id, display_name, url, broadcast, created_at, updated_at
		FROM rooms
		WHERE id = ?
	`, id).Scan(&room.ID, &room.DisplayName, &room.URL, &room.Broadcast, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, r.mapper.MapError(err)
	}

	if room.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if room.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	members, err := r.loadMembers(ctx, id)
	if err != nil {
		return persistence.Room{}, err
	}
	room.Members = members

	return room, nil
}

// ListRooms returns all rooms ordered by display name, without member lists.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, display_name, url, broadcast, created_at, updated_at
		FROM rooms
		ORDER BY display_name ASC, id ASC
	`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		var room persistence.Room
		var createdAtStr, updatedAtStr string
		if err := rows.Scan(&room.ID, &room.DisplayName, &room.URL, &room.Broadcast, &createdAtStr, &updatedAtStr); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if room.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if room.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return rooms, nil
}

// insertMembers inserts the member set for a room within a transaction.
func (r *RoomRepository) insertMembers(tx *sql.Tx, roomID string, members []string) error {
	if len(members) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(members))
	for _, member := range members {
		member = strings.TrimSpace(member)
		if member == "" {
			continue
		}
		if _, ok := seen[member]; ok {
			continue
		}
		seen[member] = struct{}{}

		if _, err := r.helper.ExecTx(tx,
			"INSERT INTO room_members (room_id, user_id) VALUES (?, ?)",
			roomID, member); err != nil {
			return r.mapper.MapError(err)
		}
	}

	return nil
}

// loadMembers loads the member user ids for a room.
func (r *RoomRepository) loadMembers(ctx context.Context, roomID string) ([]string, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT user_id
		FROM room_members
		WHERE room_id = ?
		ORDER BY user_id ASC
	`, roomID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, r.mapper.MapError(err)
		}
		members = append(members, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return members, nil
}
