package partner

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// NewRepoPG creates the Postgres-backed partner repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(_ context.Context) queryable { return r.pool }

const partnerCols = `id, name, email, phone, password_hash, service_type, address, active, created_at, updated_at`

func (r *repoPG) scanPartner(row pgx.Row) (*Partner, error) {
	var p Partner
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.PasswordHash,
		&p.ServiceType, &p.Address, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Partner) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO partner (id, name, email, phone, password_hash, service_type, address, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.Name, p.Email, p.Phone, p.PasswordHash, p.ServiceType, p.Address, p.Active)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique_violation on the email index.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert partner: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Partner, error) {
	return r.scanPartner(r.conn(ctx).QueryRow(ctx,
		`SELECT `+partnerCols+` FROM partner WHERE id = $1`, id))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Partner, error) {
	return r.scanPartner(r.conn(ctx).QueryRow(ctx,
		`SELECT `+partnerCols+` FROM partner WHERE lower(email) = $1`,
		strings.ToLower(email)))
}

func (r *repoPG) Update(ctx context.Context, p *Partner) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE partner SET name=$2, phone=$3, address=$4, active=$5, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Phone, p.Address, p.Active)
	if err != nil {
		return fmt.Errorf("update partner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
