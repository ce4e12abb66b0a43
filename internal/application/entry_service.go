package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/shared-tracker/internal/persistence"
)

// EntryStore captures the persistence operations needed by the entry
// service.
type EntryStore interface {
	GetEntryValue(ctx context.Context, key persistence.EntryKey) (persistence.EntryValue, error)
	UpsertEntry(ctx context.Context, entry persistence.Entry) error
	AppendCommit(ctx context.Context, record persistence.CommitRecord) error
}

// Broadcaster fans an updated entry out to every connected client. Delivery
// is fire-and-forget; the service treats it as best effort.
type Broadcaster interface {
	BroadcastEntryUpdate(entry persistence.Entry)
}

// EntryService answers point reads and drives the update pipeline: commit
// append, live value upsert, then broadcast.
type EntryService struct {
	store       EntryStore
	broadcaster Broadcaster
	now         func() time.Time
	logger      *slog.Logger
}

// NewEntryService constructs an entry service with the provided dependencies.
func NewEntryService(store EntryStore, broadcaster Broadcaster, now func() time.Time) *EntryService {
	return NewEntryServiceWithLogger(store, broadcaster, now, nil)
}

// NewEntryServiceWithLogger constructs an entry service with a specified logger.
func NewEntryServiceWithLogger(store EntryStore, broadcaster Broadcaster, now func() time.Time, logger *slog.Logger) *EntryService {
	if now == nil {
		now = time.Now
	}
	return &EntryService{store: store, broadcaster: broadcaster, now: now, logger: defaultLogger(logger)}
}

func (s *EntryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EntryService", operation, attrs...)
}

// GetEntryData returns the live value for key, or nil when no entry with a
// positive amount exists. A missing entry is not an error.
func (s *EntryService) GetEntryData(ctx context.Context, key persistence.EntryKey) (*persistence.EntryValue, error) {
	value, err := s.store.GetEntryValue(ctx, key)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		s.loggerWith(ctx, "GetEntryData", "room_id", key.RoomID, "user_id", key.UserID).
			ErrorContext(ctx, "entry lookup failed", "error", err)
		return nil, mapStoreError(err)
	}
	return &value, nil
}

// UpdateEntry runs the update pipeline for one entry: append a commit
// record, upsert the live value, broadcast the change. Failure of either
// write aborts the pipeline and is reported to the caller; broadcast
// failures are silently tolerated as reduced delivery.
func (s *EntryService) UpdateEntry(ctx context.Context, entry persistence.Entry) error {
	logger := s.loggerWith(ctx, "UpdateEntry",
		"room_id", entry.Key.RoomID,
		"user_id", entry.Key.UserID,
		"date", entry.Key.Date.String(),
	)

	record := persistence.CommitRecord{CommittedAt: s.now().UTC(), Entry: entry}
	if err := s.store.AppendCommit(ctx, record); err != nil {
		logger.ErrorContext(ctx, "commit append failed", "error", err, "error_kind", ErrorKind(mapStoreError(err)))
		return fmt.Errorf("append commit: %w", mapStoreError(err))
	}

	if err := s.store.UpsertEntry(ctx, entry); err != nil {
		logger.ErrorContext(ctx, "entry upsert failed", "error", err, "error_kind", ErrorKind(mapStoreError(err)))
		return fmt.Errorf("upsert entry: %w", mapStoreError(err))
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastEntryUpdate(entry)
	}

	logger.InfoContext(ctx, "entry updated")
	return nil
}

// mapStoreError translates persistence sentinels into the application
// taxonomy.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	default:
		return err
	}
}
