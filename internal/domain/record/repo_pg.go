package record

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

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates the Postgres-backed repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(_ context.Context) queryable { return r.pool }

const recordCols = `id, kind, status, partner_id, customer_id, pet_name, service_name,
	scheduled_date, scheduled_start, clinical_notes, status_note,
	follow_up_date, follow_up_start, cancel_reason, cancelled_by,
	reschedule_count, created_at, updated_at`

func (r *repoPG) scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var followUpDate, followUpStart *time.Time
	var cancelReason, cancelledBy *string
	err := row.Scan(&rec.ID, &rec.Kind, &rec.Status, &rec.PartnerID, &rec.CustomerID,
		&rec.PetName, &rec.ServiceName, &rec.ScheduledDate, &rec.ScheduledStart,
		&rec.ClinicalNotes, &rec.StatusNote,
		&followUpDate, &followUpStart, &cancelReason, &cancelledBy,
		&rec.RescheduleCount, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NewError(CodeNotFound, "record not found")
		}
		return nil, err
	}
	if followUpDate != nil && followUpStart != nil {
		rec.FollowUp = &FollowUp{Date: *followUpDate, TimeSlotStart: *followUpStart}
	}
	if cancelReason != nil && cancelledBy != nil {
		rec.Cancellation = &Cancellation{Reason: *cancelReason, CancelledBy: CancelledBy(*cancelledBy)}
	}
	return &rec, nil
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO record (id, kind, status, partner_id, customer_id, pet_name,
			service_name, scheduled_date, scheduled_start, reschedule_count)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID, rec.Kind, rec.Status, rec.PartnerID, rec.CustomerID, rec.PetName,
		rec.ServiceName, rec.ScheduledDate, rec.ScheduledStart, rec.RescheduleCount)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := r.scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM record WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	lines, err := r.loadLines(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.PrescriptionLines = lines
	return rec, nil
}

func (r *repoPG) loadLines(ctx context.Context, recordID uuid.UUID) ([]PrescriptionLine, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT drug_name, dosage, frequency, duration
		FROM prescription_line WHERE record_id = $1 ORDER BY position`, recordID)
	if err != nil {
		return nil, fmt.Errorf("load prescription lines: %w", err)
	}
	defer rows.Close()
	var lines []PrescriptionLine
	for rows.Next() {
		var l PrescriptionLine
		if err := rows.Scan(&l.DrugName, &l.Dosage, &l.Frequency, &l.Duration); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	var followUpDate, followUpStart interface{}
	if rec.FollowUp != nil {
		followUpDate = rec.FollowUp.Date
		followUpStart = rec.FollowUp.TimeSlotStart
	}
	var cancelReason, cancelledBy interface{}
	if rec.Cancellation != nil {
		cancelReason = rec.Cancellation.Reason
		cancelledBy = string(rec.Cancellation.CancelledBy)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE record SET status=$2, scheduled_date=$3, scheduled_start=$4,
			clinical_notes=$5, status_note=$6, follow_up_date=$7, follow_up_start=$8,
			cancel_reason=$9, cancelled_by=$10, reschedule_count=$11, updated_at=NOW()
		WHERE id = $1`,
		rec.ID, rec.Status, rec.ScheduledDate, rec.ScheduledStart,
		rec.ClinicalNotes, rec.StatusNote, followUpDate, followUpStart,
		cancelReason, cancelledBy, rec.RescheduleCount)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NewError(CodeNotFound, "record not found")
	}
	if len(rec.PrescriptionLines) > 0 {
		if err := r.replaceLines(ctx, rec.ID, rec.PrescriptionLines); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) replaceLines(ctx context.Context, recordID uuid.UUID, lines []PrescriptionLine) error {
	if _, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM prescription_line WHERE record_id = $1`, recordID); err != nil {
		return fmt.Errorf("clear prescription lines: %w", err)
	}
	for i, l := range lines {
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO prescription_line (id, record_id, position, drug_name, dosage, frequency, duration)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			uuid.New(), recordID, i, l.DrugName, l.Dosage, l.Frequency, l.Duration); err != nil {
			return fmt.Errorf("insert prescription line: %w", err)
		}
	}
	return nil
}

func (r *repoPG) ListByPartner(ctx context.Context, partnerID uuid.UUID, f Filter, limit, offset int) ([]*Record, int, error) {
	query := `SELECT ` + recordCols + ` FROM record WHERE partner_id = $1`
	countQuery := `SELECT COUNT(*) FROM record WHERE partner_id = $1`
	args := []interface{}{partnerID}
	idx := 2

	if f.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Kind != "" {
		query += fmt.Sprintf(` AND kind = $%d`, idx)
		countQuery += fmt.Sprintf(` AND kind = $%d`, idx)
		args = append(args, f.Kind)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY scheduled_start DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}
