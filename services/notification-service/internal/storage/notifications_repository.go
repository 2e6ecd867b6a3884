package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/practiceops/practiceops/libs/apperr"
	"github.com/practiceops/practiceops/libs/db"
)

const table = "notifications"

// Notification is one entry in the operator's bell menu.
type Notification struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	ReferenceID *string   `json:"reference_id,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) (Notification, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, kind, title, body, reference_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING is_read, created_at
	`, n.ID, n.Kind, n.Title, n.Body, n.ReferenceID).Scan(&n.IsRead, &n.CreatedAt)
	if err != nil {
		return Notification{}, apperr.WriteFailed(table, err)
	}
	return n, nil
}

func (r *Repository) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, kind, title, body, reference_id, is_read, created_at
		FROM notifications
		WHERE NOT $1::bool OR NOT is_read
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperr.FetchFailed(table, err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Notification, error) {
		var n Notification
		err := row.Scan(&n.ID, &n.Kind, &n.Title, &n.Body, &n.ReferenceID, &n.IsRead, &n.CreatedAt)
		return n, err
	})
	if err != nil {
		return nil, apperr.FetchFailed(table, err)
	}
	return items, nil
}

func (r *Repository) UnreadCount(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE NOT is_read`).Scan(&n); err != nil {
		return 0, apperr.FetchFailed(table, err)
	}
	return n, nil
}

// MarkRead flags the given ids, or every unread row when ids is empty.
func (r *Repository) MarkRead(ctx context.Context, ids []string) (int64, error) {
	var (
		sql  = `UPDATE notifications SET is_read = true WHERE NOT is_read`
		args []any
	)
	if len(ids) > 0 {
		sql += ` AND id = ANY($1::uuid[])`
		args = append(args, ids)
	}
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, apperr.WriteFailed(table, err)
	}
	return tag.RowsAffected(), nil
}
