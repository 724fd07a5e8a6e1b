package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSlotNotFound is returned when no slot matches the lookup.
var ErrSlotNotFound = errors.New("scheduling: slot not found")

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates the Postgres-backed slot repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(_ context.Context) queryable { return r.pool }

const slotCols = `id, partner_id, date, start_time, end_time, capacity, booked, created_at, updated_at`

func (r *repoPG) scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(&s.ID, &s.PartnerID, &s.Date, &s.StartTime, &s.EndTime,
		&s.Capacity, &s.Booked, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) Create(ctx context.Context, s *Slot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Capacity <= 0 {
		s.Capacity = 1
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO slot (id, partner_id, date, start_time, end_time, capacity, booked)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.PartnerID, s.Date, s.StartTime, s.EndTime, s.Capacity, s.Booked)
	if err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return r.scanSlot(r.conn(ctx).QueryRow(ctx,
		`SELECT `+slotCols+` FROM slot WHERE id = $1`, id))
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM slot WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByPartnerAndDate(ctx context.Context, partnerID uuid.UUID, date time.Time) ([]*Slot, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+slotCols+` FROM slot
		WHERE partner_id = $1 AND date = $2
		ORDER BY start_time`, partnerID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Slot
	for rows.Next() {
		s, err := r.scanSlot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *repoPG) FindByStart(ctx context.Context, partnerID uuid.UUID, date, start time.Time) (*Slot, error) {
	return r.scanSlot(r.conn(ctx).QueryRow(ctx, `
		SELECT `+slotCols+` FROM slot
		WHERE partner_id = $1 AND date = $2 AND start_time = $3`,
		partnerID, date, start))
}
