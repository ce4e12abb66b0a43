package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/example/shared-tracker/internal/persistence"
	"github.com/example/shared-tracker/internal/testfixtures"
)

func setupRoomRepositoryTest(t *testing.T) (*RoomRepository, *UserRepository) {
	t.Helper()
	pool := openTestPool(t)
	return NewRoomRepository(pool), NewUserRepository(pool)
}

func TestRoomRepository_CreateAndGet(t *testing.T) {
	rooms, users := setupRoomRepositoryTest(t)
	ctx := context.Background()

	for _, id := range []string{"user-0", "user-1"} {
		user := testfixtures.NewUser(testfixtures.WithUserID(id), testfixtures.WithUserDisplayName(id))
		if err := users.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	room := testfixtures.NewRoom(
		testfixtures.WithRoomID("room-0"),
		testfixtures.WithRoomDisplayName("Morning Crew"),
		testfixtures.WithRoomMembers("user-0", "user-1", "user-0"),
	)
	if err := rooms.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	retrieved, err := rooms.GetRoom(ctx, "room-0")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if retrieved.DisplayName != "Morning Crew" {
		t.Errorf("expected display name 'Morning Crew', got %q", retrieved.DisplayName)
	}
	if retrieved.URL != room.URL || retrieved.Broadcast != room.Broadcast {
		t.Errorf("room addresses not copied verbatim: %+v", retrieved)
	}
	// Duplicate members collapse to one row.
	if len(retrieved.Members) != 2 {
		t.Errorf("expected 2 members, got %v", retrieved.Members)
	}
}

func TestRoomRepository_GetMissing(t *testing.T) {
	rooms, _ := setupRoomRepositoryTest(t)

	_, err := rooms.GetRoom(context.Background(), "no-such-room")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRoomRepository_CreateDuplicate(t *testing.T) {
	rooms, _ := setupRoomRepositoryTest(t)
	ctx := context.Background()

	room := testfixtures.NewRoom(testfixtures.WithRoomID("room-0"))
	if err := rooms.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if err := rooms.CreateRoom(ctx, room); !errors.Is(err, persistence.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestUserRepository_GetUser(t *testing.T) {
	_, users := setupRoomRepositoryTest(t)
	ctx := context.Background()

	seeded := testfixtures.NewUser(testfixtures.WithUserTheme("ocean"))
	if err := users.CreateUser(ctx, seeded); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	retrieved, err := users.GetUser(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if retrieved.DisplayName != seeded.DisplayName || retrieved.Theme != "ocean" {
		t.Errorf("user did not round-trip: %+v", retrieved)
	}

	if _, err := users.GetUser(ctx, "no-such-user"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_ListOrdering(t *testing.T) {
	_, users := setupRoomRepositoryTest(t)
	ctx := context.Background()

	seed := []persistence.User{
		testfixtures.NewUser(testfixtures.WithUserID("user-2"), testfixtures.WithUserDisplayName("Charlie"), testfixtures.WithUserTheme("ocean")),
		testfixtures.NewUser(testfixtures.WithUserID("user-0"), testfixtures.WithUserDisplayName("Alice"), testfixtures.WithUserTheme("forrest")),
		testfixtures.NewUser(testfixtures.WithUserID("user-1"), testfixtures.WithUserDisplayName("Bob"), testfixtures.WithUserTheme("ocean")),
	}
	for _, user := range seed {
		if err := users.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	listed, err := users.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 users, got %d", len(listed))
	}
	for i, want := range []string{"Alice", "Bob", "Charlie"} {
		if listed[i].DisplayName != want {
			t.Errorf("position %d: expected %q, got %q", i, want, listed[i].DisplayName)
		}
	}
	if listed[0].Theme != "forrest" {
		t.Errorf("expected theme to round-trip, got %q", listed[0].Theme)
	}
}
