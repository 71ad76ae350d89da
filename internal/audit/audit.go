package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one row of the append-only admin activity log. Before and After
// hold JSON snapshots of the mutated record.
type Entry struct {
	AdminID     string
	Action      string
	TargetTable string
	TargetID    string
	Before      json.RawMessage
	After       json.RawMessage
	CreatedAt   time.Time
}

// Snapshot marshals an arbitrary value into a JSON state snapshot.
// A nil value yields a nil snapshot, stored as NULL.
func Snapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

type Recorder struct {
	pool *pgxpool.Pool
}

func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record appends one entry. Every privileged mutation goes through here or
// through the settlement repository's in-transaction variant.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO admin_activity_log (admin_id, action, target_table, target_id, before_state, after_state)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		e.AdminID, e.Action, e.TargetTable, e.TargetID, e.Before, e.After,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// List returns recent entries, newest first.
func (r *Recorder) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT admin_id::text, action, target_table, target_id, before_state, after_state, created_at
         FROM admin_activity_log ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.AdminID, &e.Action, &e.TargetTable, &e.TargetID, &e.Before, &e.After, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
