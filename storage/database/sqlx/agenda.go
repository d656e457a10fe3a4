package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/escolaria/escolaria/core/agenda"
)

type calendarEntryRow struct {
	ID            string      `db:"id"`
	TenantID      null.String `db:"tenant_id"`
	Title         string      `db:"title"`
	Description   null.String `db:"description"`
	StartDate     string      `db:"start_date"`
	EndDate       string      `db:"end_date"`
	Type          string      `db:"type"`
	IsOfficialSEP bool        `db:"is_official_sep"`
	CreatedAt     time.Time   `db:"created_at"`
}

func (r calendarEntryRow) toEntry() agenda.CalendarEntry {
	return agenda.CalendarEntry{
		ID:            r.ID,
		TenantID:      r.TenantID.String,
		Title:         r.Title,
		Description:   r.Description.String,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		Type:          r.Type,
		IsOfficialSEP: r.IsOfficialSEP,
		CreatedAt:     r.CreatedAt,
	}
}

type teacherEventRow struct {
	ID        string    `db:"id"`
	TenantID  string    `db:"tenant_id"`
	TeacherID string    `db:"teacher_id"`
	Title     string    `db:"title"`
	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`
	CreatedAt time.Time `db:"created_at"`
}

func (r teacherEventRow) toEvent() agenda.TeacherEvent {
	return agenda.TeacherEvent{
		ID:        r.ID,
		TenantID:  r.TenantID,
		TeacherID: r.TeacherID,
		Title:     r.Title,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		CreatedAt: r.CreatedAt,
	}
}

var (
	calendarEntryColumns = []string{
		"id", "tenant_id", "title", "description", "start_date", "end_date",
		"type", "is_official_sep", "created_at",
	}
	teacherEventColumns = []string{
		"id", "tenant_id", "teacher_id", "title", "start_time", "end_time", "created_at",
	}
)

type agendaRepository struct {
	db *sqlx.DB
}

var _ agenda.Repository = (*agendaRepository)(nil) // interface compliance check

func NewAgendaRepository(db *sqlx.DB) *agendaRepository {
	return &agendaRepository{db: db}
}

// QueryCalendarEntries returns entries overlapping the month window that are
// either tenant-scoped or flagged official. Dates are stored and compared as
// YYYY-MM-DD text so the lexicographic range check matches the chronology.
func (repo agendaRepository) QueryCalendarEntries(ctx context.Context, tenantID, monthStart, monthEnd string) ([]agenda.CalendarEntry, error) {
	query, args, err := psql.Select(calendarEntryColumns...).
		From("calendar_events").
		Where(sq.Or{sq.Eq{"tenant_id": tenantID}, sq.Eq{"is_official_sep": true}}).
		Where(sq.LtOrEq{"start_date": monthEnd}).
		Where(sq.GtOrEq{"end_date": monthStart}).
		OrderBy("start_date ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building calendar entries query")
	}
	var rows []calendarEntryRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying calendar entries")
	}
	entries := make([]agenda.CalendarEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toEntry())
	}
	return entries, nil
}

func (repo agendaRepository) CreateCalendarEntries(ctx context.Context, entries []agenda.CalendarEntry) error {
	if len(entries) == 0 {
		return nil
	}
	qb := psql.Insert("calendar_events").Columns(calendarEntryColumns...)
	now := time.Now().UTC()
	for _, e := range entries {
		qb = qb.Values(
			uuid.New().String(),
			null.NewString(e.TenantID, e.TenantID != ""),
			e.Title,
			null.NewString(e.Description, e.Description != ""),
			e.StartDate, e.EndDate, e.Type, e.IsOfficialSEP, now,
		)
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return errors.Wrap(err, "building calendar entries insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "inserting calendar entries")
	}
	return nil
}

// DeleteCalendarEntry deletes a tenant-owned entry. The tenant_id predicate
// means official rows (NULL tenant) and other tenants' rows match nothing and
// surface as ErrNotFound.
func (repo agendaRepository) DeleteCalendarEntry(ctx context.Context, tenantID, id string) error {
	query, args, err := psql.Delete("calendar_events").
		Where(sq.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building calendar entry delete")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "deleting calendar entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return agenda.ErrNotFound
	}
	return nil
}

func (repo agendaRepository) QueryTeacherEvents(ctx context.Context, teacherID string, from, to time.Time) ([]agenda.TeacherEvent, error) {
	query, args, err := psql.Select(teacherEventColumns...).
		From("teacher_events").
		Where(sq.Eq{"teacher_id": teacherID}).
		Where(sq.GtOrEq{"start_time": from}).
		Where(sq.LtOrEq{"end_time": to}).
		OrderBy("start_time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building teacher events query")
	}
	var rows []teacherEventRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying teacher events")
	}
	events := make([]agenda.TeacherEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toEvent())
	}
	return events, nil
}

func (repo agendaRepository) CreateTeacherEvent(ctx context.Context, ev agenda.TeacherEvent) (agenda.TeacherEvent, error) {
	ev.ID = uuid.New().String()
	ev.CreatedAt = time.Now().UTC()
	query, args, err := psql.Insert("teacher_events").
		Columns(teacherEventColumns...).
		Values(ev.ID, ev.TenantID, ev.TeacherID, ev.Title, ev.StartTime, ev.EndTime, ev.CreatedAt).
		ToSql()
	if err != nil {
		return agenda.TeacherEvent{}, errors.Wrap(err, "building teacher event insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return agenda.TeacherEvent{}, errors.Wrap(err, "inserting teacher event")
	}
	return ev, nil
}

func (repo agendaRepository) DeleteTeacherEvent(ctx context.Context, teacherID, id string) error {
	query, args, err := psql.Delete("teacher_events").
		Where(sq.Eq{"id": id, "teacher_id": teacherID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building teacher event delete")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "deleting teacher event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return agenda.ErrNotFound
	}
	return nil
}
