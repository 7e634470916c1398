package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bryanwahyu/image-identifier/internal/domain/audit"
)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Save insert satu event; id duplikat diabaikan
func (r *EventRepository) Save(ctx context.Context, e *audit.Event) error {
	const q = `
INSERT INTO analysis_events
(id, created_at, outcome, mime_type, image_bytes,
 objects, people, scenes, model, duration_ms, message)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE id=id`

	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	var msg sql.NullString
	if e.Message != "" {
		msg = sql.NullString{String: truncate(e.Message, maxMessageLen), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, q,
		string(e.ID), created, stringOrDash(string(e.Outcome)), stringOrDash(e.MIMEType), e.ImageBytes,
		e.Counts.Objects, e.Counts.People, e.Counts.Scenes,
		stringOrDash(e.Model), e.DurationMS, msg,
	)
	if err != nil {
		return fmt.Errorf("insert analysis event: %w", err)
	}
	return nil
}

// Paginate returns events newest first.
func (r *EventRepository) Paginate(ctx context.Context, page, pageSize int) (audit.PaginatedResult, error) {
	page, pageSize = normalizePage(page, pageSize)
	offset := (page - 1) * pageSize

	const q = `
SELECT id, created_at, outcome, mime_type, image_bytes,
       objects, people, scenes, model, duration_ms, message
FROM analysis_events
ORDER BY created_at DESC
LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return audit.PaginatedResult{}, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []*audit.Event
	for rows.Next() {
		var (
			e               audit.Event
			id, outcome, mt string
			model           string
			msg             sql.NullString
		)
		if err := rows.Scan(
			&id, &e.CreatedAt, &outcome, &mt, &e.ImageBytes,
			&e.Counts.Objects, &e.Counts.People, &e.Counts.Scenes,
			&model, &e.DurationMS, &msg,
		); err != nil {
			return audit.PaginatedResult{}, fmt.Errorf("scanning row: %w", err)
		}
		e.ID = audit.EventID(id)
		e.Outcome = audit.Outcome(outcome)
		e.MIMEType = dashToEmpty(mt)
		e.Model = dashToEmpty(model)
		e.Message = msg.String
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return audit.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
	}

	total, err := r.Count(ctx)
	if err != nil {
		return audit.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}
	return audit.NewPaginatedResult(events, page, pageSize, total), nil
}

func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_events`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Ping dipakai health check
func (r *EventRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
