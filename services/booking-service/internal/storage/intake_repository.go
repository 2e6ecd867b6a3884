package storage

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/practiceops/practiceops/libs/apperr"
	"github.com/practiceops/practiceops/libs/db"
	"github.com/practiceops/practiceops/services/booking-service/internal/intake"
	"github.com/practiceops/practiceops/services/booking-service/internal/model"
	"github.com/practiceops/practiceops/services/booking-service/internal/outbox"
)

const (
	tableCallRequests = "call_requests"
	tableContacts     = "contact_submissions"

	callColumns    = `id::text, full_name, phone, preferred_time, note, status, is_read, created_at, updated_at`
	contactColumns = `id::text, full_name, email, phone, subject, message, status, is_read, created_at, updated_at`
)

type IntakeRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewIntakeRepository(pool *db.Pool, outboxRepo *outbox.Repository) *IntakeRepository {
	return &IntakeRepository{pool: pool, outbox: outboxRepo}
}

func scanCallRequest(row pgx.CollectableRow) (model.CallRequest, error) {
	var c model.CallRequest
	err := row.Scan(&c.ID, &c.FullName, &c.Phone, &c.PreferredTime, &c.Note, &c.Status, &c.IsRead, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanContact(row pgx.CollectableRow) (model.ContactMessage, error) {
	var m model.ContactMessage
	err := row.Scan(&m.ID, &m.FullName, &m.Email, &m.Phone, &m.Subject, &m.Message, &m.Status, &m.IsRead, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *IntakeRepository) CreateCallRequest(ctx context.Context, c model.CallRequest, evt outbox.Event) (model.CallRequest, error) {
	var out model.CallRequest
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			INSERT INTO call_requests (id, full_name, phone, preferred_time, note, status, is_read, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, false, $7, $7)
			RETURNING `+callColumns,
			c.ID, c.FullName, c.Phone, c.PreferredTime, c.Note, c.Status, c.CreatedAt)
		if err != nil {
			return err
		}
		if out, err = pgx.CollectExactlyOneRow(rows, scanCallRequest); err != nil {
			return err
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
	if err != nil {
		return model.CallRequest{}, writeErr(tableCallRequests, "call request already exists", "call request not found", err)
	}
	return out, nil
}

func (r *IntakeRepository) ListCallRequests(ctx context.Context, f model.ListFilter) ([]model.CallRequest, error) {
	rows, err := r.list(ctx, tableCallRequests, callColumns, f)
	if err != nil {
		return nil, apperr.FetchFailed(tableCallRequests, err)
	}
	out, err := pgx.CollectRows(rows, scanCallRequest)
	if err != nil {
		return nil, apperr.FetchFailed(tableCallRequests, err)
	}
	return out, nil
}

func (r *IntakeRepository) UpdateCallRequest(ctx context.Context, id string, p intake.Patch) (model.CallRequest, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE call_requests
		SET status = COALESCE($2, status),
			is_read = COALESCE($3, is_read),
			updated_at = now()
		WHERE id = $1
		RETURNING `+callColumns, id, p.Status, p.IsRead)
	if err != nil {
		return model.CallRequest{}, apperr.WriteFailed(tableCallRequests, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCallRequest)
	if err != nil {
		return model.CallRequest{}, writeErr(tableCallRequests, "", "call request not found", err)
	}
	return c, nil
}

func (r *IntakeRepository) DeleteCallRequest(ctx context.Context, id string) error {
	return r.delete(ctx, tableCallRequests, "call request not found", id)
}

func (r *IntakeRepository) CreateContactMessage(ctx context.Context, m model.ContactMessage, evt outbox.Event) (model.ContactMessage, error) {
	var out model.ContactMessage
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			INSERT INTO contact_submissions (id, full_name, email, phone, subject, message, status, is_read, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, $8)
			RETURNING `+contactColumns,
			m.ID, m.FullName, m.Email, m.Phone, m.Subject, m.Message, m.Status, m.CreatedAt)
		if err != nil {
			return err
		}
		if out, err = pgx.CollectExactlyOneRow(rows, scanContact); err != nil {
			return err
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
	if err != nil {
		return model.ContactMessage{}, writeErr(tableContacts, "message already exists", "message not found", err)
	}
	return out, nil
}

func (r *IntakeRepository) ListContactMessages(ctx context.Context, f model.ListFilter) ([]model.ContactMessage, error) {
	rows, err := r.list(ctx, tableContacts, contactColumns, f)
	if err != nil {
		return nil, apperr.FetchFailed(tableContacts, err)
	}
	out, err := pgx.CollectRows(rows, scanContact)
	if err != nil {
		return nil, apperr.FetchFailed(tableContacts, err)
	}
	return out, nil
}

func (r *IntakeRepository) UpdateContactMessage(ctx context.Context, id string, p intake.Patch) (model.ContactMessage, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE contact_submissions
		SET status = COALESCE($2, status),
			is_read = COALESCE($3, is_read),
			updated_at = now()
		WHERE id = $1
		RETURNING `+contactColumns, id, p.Status, p.IsRead)
	if err != nil {
		return model.ContactMessage{}, apperr.WriteFailed(tableContacts, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, scanContact)
	if err != nil {
		return model.ContactMessage{}, writeErr(tableContacts, "", "message not found", err)
	}
	return m, nil
}

func (r *IntakeRepository) DeleteContactMessage(ctx context.Context, id string) error {
	return r.delete(ctx, tableContacts, "message not found", id)
}

// table and columns are package constants, never caller input.
func (r *IntakeRepository) list(ctx context.Context, table, columns string, f model.ListFilter) (pgx.Rows, error) {
	where, args := listWhere(f, "")
	args = append(args, f.Limit, f.Offset)
	return r.pool.Query(ctx, `
		SELECT `+columns+`
		FROM `+table+`
		`+where+`
		ORDER BY created_at DESC
		LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
}

func (r *IntakeRepository) delete(ctx context.Context, table, notFound, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return apperr.WriteFailed(table, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(table, notFound)
	}
	return nil
}
