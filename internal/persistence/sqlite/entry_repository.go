package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/shared-tracker/internal/persistence"
)

var _ persistence.EntryRepository = (*EntryRepository)(nil)

// EntryRepository implements persistence.EntryRepository using SQLite. The
// entries table holds the single live row per (date, room, user) key; the
// entry_commits table is the append-only audit log.
type EntryRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEntryRepository creates a new SQLite entry repository.
func NewEntryRepository(pool *ConnectionPool) *EntryRepository {
	return &EntryRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// GetEntryValue returns the live value for key when its amount is strictly
// positive. Rows with a zero or NULL amount are indistinguishable from
// missing rows and report persistence.ErrNotFound.
func (r *EntryRepository) GetEntryValue(ctx context.Context, key persistence.EntryKey) (persistence.EntryValue, error) {
	var amount sql.NullInt64

	err := r.helper.QueryRow(ctx, `
		SELECT amount
		FROM entries
		WHERE year = ? AND month = ? AND day = ? AND room_id = ? AND user_id = ?
		  AND amount > 0
	`,
		key.Date.Year, key.Date.Month, key.Date.Day, key.RoomID, key.UserID,
	).Scan(&amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.EntryValue{}, persistence.ErrNotFound
		}
		return persistence.EntryValue{}, r.mapper.MapError(err)
	}

	value := persistence.EntryValue{}
	if amount.Valid {
		v := int(amount.Int64)
		value.Amount = &v
	}
	return value, nil
}

// UpsertEntry writes the current value for the entry key, creating the row
// when absent and overwriting it otherwise. Last write wins; there is no
// version check against the previous value.
func (r *EntryRepository) UpsertEntry(ctx context.Context, entry persistence.Entry) error {
	var amount sql.NullInt64
	if entry.Value.Amount != nil {
		amount.Int64 = int64(*entry.Value.Amount)
		amount.Valid = true
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO entries (year, month, day, room_id, user_id, amount, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (year, month, day, room_id, user_id)
		DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at
	`,
		entry.Key.Date.Year,
		entry.Key.Date.Month,
		entry.Key.Date.Day,
		entry.Key.RoomID,
		entry.Key.UserID,
		amount,
		time.Now().UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// AppendCommit inserts one audit row. The repository exposes no way to
// update or delete commit rows.
func (r *EntryRepository) AppendCommit(ctx context.Context, record persistence.CommitRecord) error {
	var amount sql.NullInt64
	if record.Entry.Value.Amount != nil {
		amount.Int64 = int64(*record.Entry.Value.Amount)
		amount.Valid = true
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO entry_commits (committed_at, year, month, day, room_id, user_id, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		record.CommittedAt.UTC().Format(time.RFC3339Nano),
		record.Entry.Key.Date.Year,
		record.Entry.Key.Date.Month,
		record.Entry.Key.Date.Day,
		record.Entry.Key.RoomID,
		record.Entry.Key.UserID,
		amount,
	)
	return r.mapper.MapError(err)
}

// ListCommits returns the audit log in insertion order.
func (r *EntryRepository) ListCommits(ctx context.Context) ([]persistence.CommitRecord, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT committed_at, year, month, day, room_id, user_id, amount
		FROM entry_commits
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var records []persistence.CommitRecord
	for rows.Next() {
		var record persistence.CommitRecord
		var committedAtStr string
		var amount sql.NullInt64

		if err := rows.Scan(
			&committedAtStr,
			&record.Entry.Key.Date.Year,
			&record.Entry.Key.Date.Month,
			&record.Entry.Key.Date.Day,
			&record.Entry.Key.RoomID,
			&record.Entry.Key.UserID,
			&amount,
		); err != nil {
			return nil, r.mapper.MapError(err)
		}

		if record.CommittedAt, err = time.Parse(time.RFC3339Nano, committedAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse committed_at: %w", err)
		}
		if amount.Valid {
			v := int(amount.Int64)
			record.Entry.Value.Amount = &v
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return records, nil
}

// AggregateByDate runs the grouped query backing room property lookups:
// all entry rows in roomID whose date is in dates, grouped per date into
// (user, amount) pairs and user id lists. Amounts are returned raw; the
// positivity filter of point reads does not apply here.
func (r *EntryRepository) AggregateByDate(ctx context.Context, roomID string, dates []persistence.ScheduleDate) (map[persistence.ScheduleDate]persistence.DateAggregate, error) {
	grouped := make(map[persistence.ScheduleDate]persistence.DateAggregate)
	if len(dates) == 0 {
		return grouped, nil
	}

	query, args := buildAggregateQuery(roomID, dates)

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var date persistence.ScheduleDate
		var userID string
		var amount sql.NullInt64

		if err := rows.Scan(&date.Year, &date.Month, &date.Day, &userID, &amount); err != nil {
			return nil, r.mapper.MapError(err)
		}

		aggregate := grouped[date]
		pair := persistence.EntryAggregate{UserID: userID}
		if amount.Valid {
			v := int(amount.Int64)
			pair.Amount = &v
		}
		aggregate.Entries = append(aggregate.Entries, pair)
		aggregate.Users = append(aggregate.Users, userID)
		grouped[date] = aggregate
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return grouped, nil
}

// buildAggregateQuery expands the date set into a tuple filter. Duplicate
// dates in the input collapse to one predicate, and predicates are emitted
// in chronological order so the same date set always yields the same SQL.
func buildAggregateQuery(roomID string, dates []persistence.ScheduleDate) (string, []interface{}) {
	seen := make(map[persistence.ScheduleDate]struct{}, len(dates))
	unique := make([]persistence.ScheduleDate, 0, len(dates))
	for _, date := range dates {
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}
		unique = append(unique, date)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].Before(unique[j]) })

	predicates := make([]string, 0, len(unique))
	args := []interface{}{roomID}
	for _, date := range unique {
		predicates = append(predicates, "(year = ? AND month = ? AND day = ?)")
		args = append(args, date.Year, date.Month, date.Day)
	}

	query := fmt.Sprintf(`
		SELECT year, month, day, user_id, amount
		FROM entries
		WHERE room_id = ? AND (%s)
		ORDER BY year ASC, month ASC, day ASC, user_id ASC
	`, strings.Join(predicates, " OR "))

	return query, args
}
