package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates the Postgres-backed quote repository. Item and line
// collections live in jsonb columns; quotes are small and never queried
// by line content.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(_ context.Context) queryable { return r.pool }

const quoteCols = `id, partner_id, customer_id, customer_name, pet_name, status,
	requested_items, quoted_lines, total, decline_reason, valid_until, created_at, updated_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var (
		q           Request
		itemsJSON   []byte
		linesJSON   []byte
	)
	err := row.Scan(&q.ID, &q.PartnerID, &q.CustomerID, &q.CustomerName, &q.PetName,
		&q.Status, &itemsJSON, &linesJSON, &q.Total, &q.DeclineReason, &q.ValidUntil,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &q.RequestedItems); err != nil {
			return nil, fmt.Errorf("decode requested_items: %w", err)
		}
	}
	if len(linesJSON) > 0 {
		if err := json.Unmarshal(linesJSON, &q.QuotedLines); err != nil {
			return nil, fmt.Errorf("decode quoted_lines: %w", err)
		}
	}
	return &q, nil
}

func (r *repoPG) Create(ctx context.Context, q *Request) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	items, err := json.Marshal(q.RequestedItems)
	if err != nil {
		return fmt.Errorf("encode requested_items: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO quote_request (id, partner_id, customer_id, customer_name, pet_name, status, requested_items)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		q.ID, q.PartnerID, q.CustomerID, q.CustomerName, q.PetName, q.Status, items)
	if err != nil {
		return fmt.Errorf("insert quote_request: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	return scanRequest(r.conn(ctx).QueryRow(ctx,
		`SELECT `+quoteCols+` FROM quote_request WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, q *Request) error {
	lines, err := json.Marshal(q.QuotedLines)
	if err != nil {
		return fmt.Errorf("encode quoted_lines: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE quote_request
		SET status=$2, quoted_lines=$3, total=$4, decline_reason=$5, valid_until=$6, updated_at=NOW()
		WHERE id = $1`,
		q.ID, q.Status, lines, q.Total, q.DeclineReason, q.ValidUntil)
	if err != nil {
		return fmt.Errorf("update quote_request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByPartner(ctx context.Context, partnerID uuid.UUID, status Status, limit, offset int) ([]*Request, int, error) {
	where := `WHERE partner_id = $1`
	args := []interface{}{partnerID}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT count(*) FROM quote_request `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quote_request: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM quote_request %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		quoteCols, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list quote_request: %w", err)
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		q, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, q)
	}
	return out, total, rows.Err()
}
