package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/escolaria/escolaria/core/planning"
)

type lessonPlanRow struct {
	ID          string          `db:"id"`
	TenantID    string          `db:"tenant_id"`
	TeacherID   string          `db:"teacher_id"`
	GroupID     string          `db:"group_id"`
	SubjectID   string          `db:"subject_id"`
	Title       string          `db:"title"`
	StartDate   string          `db:"start_date"`
	EndDate     string          `db:"end_date"`
	Temporality null.String     `db:"temporality"`
	Sessions    json.RawMessage `db:"activities_sequence"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`

	SubjectName  null.String `db:"subject_name"`
	GroupGrade   null.Int    `db:"group_grade"`
	GroupSection null.String `db:"group_section"`
}

func (r lessonPlanRow) toPlan() (planning.LessonPlan, error) {
	plan := planning.LessonPlan{
		ID:           r.ID,
		TenantID:     r.TenantID,
		TeacherID:    r.TeacherID,
		GroupID:      r.GroupID,
		SubjectID:    r.SubjectID,
		Title:        r.Title,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		Temporality:  r.Temporality.String,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		SubjectName:  r.SubjectName.String,
		GroupGrade:   r.GroupGrade.Int,
		GroupSection: r.GroupSection.String,
	}
	if len(r.Sessions) > 0 {
		if err := json.Unmarshal(r.Sessions, &plan.Sessions); err != nil {
			return planning.LessonPlan{}, errors.Wrap(err, "decoding plan sessions")
		}
	}
	return plan, nil
}

var lessonPlanJoinedColumns = []string{
	"p.id", "p.tenant_id", "p.teacher_id", "p.group_id", "p.subject_id", "p.title",
	"p.start_date", "p.end_date", "p.temporality", "p.activities_sequence",
	"p.created_at", "p.updated_at",
	"s.name AS subject_name", "g.grade AS group_grade", "g.section AS group_section",
}

type planningRepository struct {
	db *sqlx.DB
}

var _ planning.Repository = (*planningRepository)(nil) // interface compliance check

func NewPlanningRepository(db *sqlx.DB) *planningRepository {
	return &planningRepository{db: db}
}

func (repo planningRepository) joined() sq.SelectBuilder {
	return psql.Select(lessonPlanJoinedColumns...).
		From("lesson_plans p").
		LeftJoin("subjects s ON s.id = p.subject_id").
		LeftJoin("groups g ON g.id = p.group_id")
}

func (repo planningRepository) CreatePlan(ctx context.Context, plan planning.LessonPlan) (planning.LessonPlan, error) {
	plan.ID = uuid.New().String()
	sessions, err := json.Marshal(plan.Sessions)
	if err != nil {
		return planning.LessonPlan{}, errors.Wrap(err, "encoding plan sessions")
	}
	query, args, err := psql.Insert("lesson_plans").
		Columns("id", "tenant_id", "teacher_id", "group_id", "subject_id", "title",
			"start_date", "end_date", "temporality", "activities_sequence", "created_at", "updated_at").
		Values(plan.ID, plan.TenantID, plan.TeacherID, plan.GroupID, plan.SubjectID, plan.Title,
			plan.StartDate, plan.EndDate, null.NewString(plan.Temporality, plan.Temporality != ""),
			sessions, plan.CreatedAt, plan.UpdatedAt).
		ToSql()
	if err != nil {
		return planning.LessonPlan{}, errors.Wrap(err, "building plan insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return planning.LessonPlan{}, errors.Wrap(err, "inserting plan")
	}
	return repo.GetPlanByID(ctx, plan.ID)
}

func (repo planningRepository) GetPlanByID(ctx context.Context, id string) (planning.LessonPlan, error) {
	query, args, err := repo.joined().Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return planning.LessonPlan{}, errors.Wrap(err, "building plan query")
	}
	var row lessonPlanRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return planning.LessonPlan{}, planning.ErrNotFound
		}
		return planning.LessonPlan{}, errors.Wrap(err, "getting plan")
	}
	return row.toPlan()
}

// QueryPlansOverlapping returns plans whose date span intersects [from, to].
// Span bounds are YYYY-MM-DD text, so string comparison is chronological.
func (repo planningRepository) QueryPlansOverlapping(ctx context.Context, tenantID, from, to string) ([]planning.LessonPlan, error) {
	query, args, err := repo.joined().
		Where(sq.Eq{"p.tenant_id": tenantID}).
		Where(sq.LtOrEq{"p.start_date": to}).
		Where(sq.GtOrEq{"p.end_date": from}).
		OrderBy("p.start_date ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building plans query")
	}
	var rows []lessonPlanRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying plans")
	}
	plans := make([]planning.LessonPlan, 0, len(rows))
	for _, r := range rows {
		plan, err := r.toPlan()
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (repo planningRepository) DeletePlansByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := psql.Delete("lesson_plans").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building plans delete")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "deleting plans")
	}
	return nil
}
