package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slotwise/slotwise/internal/platform/db"
	"github.com/slotwise/slotwise/internal/platform/fhir"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Schedule Repository ===========

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository { return &scheduleRepoPG{pool: pool} }

func (r *scheduleRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const schedCols = `id, fhir_id, active, practitioner_id, location_id,
	planning_horizon_start, planning_horizon_end, comment, extensions, created_at, updated_at`

func (r *scheduleRepoPG) scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	var extensions []byte
	err := row.Scan(&s.ID, &s.FHIRID, &s.Active, &s.PractitionerID, &s.LocationID,
		&s.PlanningHorizonStart, &s.PlanningHorizonEnd, &s.Comment, &extensions,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(extensions) > 0 {
		if err := json.Unmarshal(extensions, &s.Extensions); err != nil {
			return nil, fmt.Errorf("decode schedule extensions: %w", err)
		}
	}
	return &s, nil
}

func marshalExtensions(exts []fhir.Extension) ([]byte, error) {
	if len(exts) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(exts)
}

func (r *scheduleRepoPG) Create(ctx context.Context, s *Schedule) error {
	s.ID = uuid.New()
	if s.FHIRID == "" {
		s.FHIRID = s.ID.String()
	}
	extensions, err := marshalExtensions(s.Extensions)
	if err != nil {
		return fmt.Errorf("encode schedule extensions: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO schedule (id, fhir_id, active, practitioner_id, location_id,
			planning_horizon_start, planning_horizon_end, comment, extensions)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		s.ID, s.FHIRID, s.Active, s.PractitionerID, s.LocationID,
		s.PlanningHorizonStart, s.PlanningHorizonEnd, s.Comment, extensions)
	return err
}

func (r *scheduleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return r.scanSchedule(r.conn(ctx).QueryRow(ctx, `SELECT `+schedCols+` FROM schedule WHERE id = $1`, id))
}

func (r *scheduleRepoPG) GetByFHIRID(ctx context.Context, fhirID string) (*Schedule, error) {
	return r.scanSchedule(r.conn(ctx).QueryRow(ctx, `SELECT `+schedCols+` FROM schedule WHERE fhir_id = $1`, fhirID))
}

func (r *scheduleRepoPG) Update(ctx context.Context, s *Schedule) error {
	extensions, err := marshalExtensions(s.Extensions)
	if err != nil {
		return fmt.Errorf("encode schedule extensions: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE schedule SET active=$2, location_id=$3, planning_horizon_start=$4,
			planning_horizon_end=$5, comment=$6, extensions=$7, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Active, s.LocationID, s.PlanningHorizonStart, s.PlanningHorizonEnd,
		s.Comment, extensions)
	return err
}

func (r *scheduleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM schedule WHERE id = $1`, id)
	return err
}

func (r *scheduleRepoPG) ListByPractitioner(ctx context.Context, practitionerID uuid.UUID, limit, offset int) ([]*Schedule, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM schedule WHERE practitioner_id = $1`, practitionerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+schedCols+` FROM schedule WHERE practitioner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, practitionerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Schedule
	for rows.Next() {
		s, err := r.scanSchedule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, nil
}

func (r *scheduleRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Schedule, int, error) {
	query := `SELECT ` + schedCols + ` FROM schedule WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM schedule WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["practitioner"]; ok {
		query += fmt.Sprintf(` AND practitioner_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND practitioner_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["active"]; ok {
		query += fmt.Sprintf(` AND active = $%d`, idx)
		countQuery += fmt.Sprintf(` AND active = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Schedule
	for rows.Next() {
		s, err := r.scanSchedule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, nil
}

// =========== Slot Repository ===========

type slotRepoPG struct{ pool *pgxpool.Pool }

func NewSlotRepoPG(pool *pgxpool.Pool) SlotRepository { return &slotRepoPG{pool: pool} }

func (r *slotRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const slotCols = `id, fhir_id, schedule_id, status, start_time, end_time, overbooked, comment,
	service_types, created_at, updated_at`

func (r *slotRepoPG) scanSlot(row pgx.Row) (*Slot, error) {
	var sl Slot
	var serviceTypes []byte
	err := row.Scan(&sl.ID, &sl.FHIRID, &sl.ScheduleID, &sl.Status, &sl.StartTime, &sl.EndTime,
		&sl.Overbooked, &sl.Comment, &serviceTypes, &sl.CreatedAt, &sl.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(serviceTypes) > 0 {
		if err := json.Unmarshal(serviceTypes, &sl.ServiceTypes); err != nil {
			return nil, fmt.Errorf("decode slot service types: %w", err)
		}
	}
	return &sl, nil
}

func (r *slotRepoPG) Create(ctx context.Context, sl *Slot) error {
	sl.ID = uuid.New()
	if sl.FHIRID == "" {
		sl.FHIRID = sl.ID.String()
	}
	serviceTypes, err := json.Marshal(sl.ServiceTypes)
	if err != nil {
		return fmt.Errorf("encode slot service types: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO slot (id, fhir_id, schedule_id, status, start_time, end_time, overbooked, comment, service_types)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		sl.ID, sl.FHIRID, sl.ScheduleID, sl.Status, sl.StartTime, sl.EndTime,
		sl.Overbooked, sl.Comment, serviceTypes)
	return err
}

func (r *slotRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return r.scanSlot(r.conn(ctx).QueryRow(ctx, `SELECT `+slotCols+` FROM slot WHERE id = $1`, id))
}

func (r *slotRepoPG) GetByFHIRID(ctx context.Context, fhirID string) (*Slot, error) {
	return r.scanSlot(r.conn(ctx).QueryRow(ctx, `SELECT `+slotCols+` FROM slot WHERE fhir_id = $1`, fhirID))
}

func (r *slotRepoPG) Update(ctx context.Context, sl *Slot) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE slot SET status=$2, overbooked=$3, comment=$4, updated_at=NOW()
		WHERE id = $1`,
		sl.ID, sl.Status, sl.Overbooked, sl.Comment)
	return err
}

func (r *slotRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM slot WHERE id = $1`, id)
	return err
}

func (r *slotRepoPG) ListBySchedule(ctx context.Context, scheduleID uuid.UUID, limit, offset int) ([]*Slot, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM slot WHERE schedule_id = $1`, scheduleID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+slotCols+` FROM slot WHERE schedule_id = $1 ORDER BY start_time ASC LIMIT $2 OFFSET $3`, scheduleID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Slot
	for rows.Next() {
		sl, err := r.scanSlot(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, sl)
	}
	return items, total, nil
}

func (r *slotRepoPG) ListByScheduleInRange(ctx context.Context, scheduleID uuid.UUID, start, end time.Time) ([]*Slot, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+slotCols+` FROM slot
		WHERE schedule_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time ASC`,
		scheduleID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Slot
	for rows.Next() {
		sl, err := r.scanSlot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, sl)
	}
	return items, nil
}

func (r *slotRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Slot, int, error) {
	query := `SELECT ` + slotCols + ` FROM slot WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM slot WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["schedule"]; ok {
		query += fmt.Sprintf(` AND schedule_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND schedule_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["start"]; ok {
		query += fmt.Sprintf(` AND start_time >= $%d`, idx)
		countQuery += fmt.Sprintf(` AND start_time >= $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY start_time ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Slot
	for rows.Next() {
		sl, err := r.scanSlot(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, sl)
	}
	return items, total, nil
}
