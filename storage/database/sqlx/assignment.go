package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/escolaria/escolaria/core/assignment"
)

type assignmentRow struct {
	ID          string      `db:"id"`
	TenantID    string      `db:"tenant_id"`
	GroupID     string      `db:"group_id"`
	SubjectID   string      `db:"subject_id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	DueDate     time.Time   `db:"due_date"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`

	SubjectName  null.String `db:"subject_name"`
	GroupGrade   null.Int    `db:"group_grade"`
	GroupSection null.String `db:"group_section"`
}

func (r assignmentRow) toAssignment() assignment.Assignment {
	return assignment.Assignment{
		ID:           r.ID,
		TenantID:     r.TenantID,
		GroupID:      r.GroupID,
		SubjectID:    r.SubjectID,
		Title:        r.Title,
		Description:  r.Description.String,
		DueDate:      r.DueDate,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		SubjectName:  r.SubjectName.String,
		GroupGrade:   r.GroupGrade.Int,
		GroupSection: r.GroupSection.String,
	}
}

var assignmentJoinedColumns = []string{
	"a.id", "a.tenant_id", "a.group_id", "a.subject_id", "a.title", "a.description",
	"a.due_date", "a.created_at", "a.updated_at",
	"s.name AS subject_name", "g.grade AS group_grade", "g.section AS group_section",
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo assignmentRepository) joined() sq.SelectBuilder {
	return psql.Select(assignmentJoinedColumns...).
		From("assignments a").
		LeftJoin("subjects s ON s.id = a.subject_id").
		LeftJoin("groups g ON g.id = a.group_id")
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	a.ID = uuid.New().String()
	query, args, err := psql.Insert("assignments").
		Columns("id", "tenant_id", "group_id", "subject_id", "title", "description", "due_date", "created_at", "updated_at").
		Values(a.ID, a.TenantID, a.GroupID, a.SubjectID, a.Title,
			null.NewString(a.Description, a.Description != ""), a.DueDate, a.CreatedAt, a.UpdatedAt).
		ToSql()
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "building assignment insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return repo.GetAssignmentByID(ctx, a.ID)
}

func (repo assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	query, args, err := repo.joined().Where(sq.Eq{"a.id": id}).ToSql()
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "building assignment query")
	}
	var row assignmentRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return row.toAssignment(), nil
}

func (repo assignmentRepository) QueryAssignmentsByDueRange(ctx context.Context, tenantID string, from, to time.Time) ([]assignment.Assignment, error) {
	query, args, err := repo.joined().
		Where(sq.Eq{"a.tenant_id": tenantID}).
		Where(sq.GtOrEq{"a.due_date": from}).
		Where(sq.LtOrEq{"a.due_date": to}).
		OrderBy("a.due_date ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building assignments query")
	}
	var rows []assignmentRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	assignments := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		assignments = append(assignments, r.toAssignment())
	}
	return assignments, nil
}

func (repo assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := psql.Delete("assignments").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building assignments delete")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "deleting assignments")
	}
	return nil
}
