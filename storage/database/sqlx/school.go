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

	"github.com/escolaria/escolaria/core"
	"github.com/escolaria/escolaria/core/school"
)

type groupRow struct {
	ID        string    `db:"id"`
	TenantID  string    `db:"tenant_id"`
	Grade     int       `db:"grade"`
	Section   string    `db:"section"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r groupRow) toGroup() school.Group {
	return school.Group{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Grade:     r.Grade,
		Section:   r.Section,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type groupSubjectRow struct {
	GroupID     string `db:"group_id"`
	SubjectID   string `db:"subject_id"`
	SubjectName string `db:"subject_name"`
}

type studentRow struct {
	ID        string      `db:"id"`
	TenantID  string      `db:"tenant_id"`
	GroupID   string      `db:"group_id"`
	Name      string      `db:"name"`
	BirthDate null.String `db:"birth_date"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r studentRow) toStudent() school.Student {
	return school.Student{
		ID:        r.ID,
		TenantID:  r.TenantID,
		GroupID:   r.GroupID,
		Name:      r.Name,
		BirthDate: r.BirthDate.String,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type guardianRow struct {
	ID        string      `db:"id"`
	TenantID  string      `db:"tenant_id"`
	Name      string      `db:"name"`
	Email     string      `db:"email"`
	Phone     null.String `db:"phone"`
	CreatedAt time.Time   `db:"created_at"`
}

func (r guardianRow) toGuardian() school.Guardian {
	return school.Guardian{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone.String,
		CreatedAt: r.CreatedAt,
	}
}

var (
	groupColumns    = []string{"id", "tenant_id", "grade", "section", "created_at", "updated_at"}
	studentColumns  = []string{"id", "tenant_id", "group_id", "name", "birth_date", "created_at", "updated_at"}
	guardianColumns = []string{"id", "tenant_id", "name", "email", "phone", "created_at"}
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo schoolRepository) CreateGroup(ctx context.Context, g school.Group) (school.Group, error) {
	g.ID = uuid.New().String()
	query, args, err := psql.Insert("groups").
		Columns(groupColumns...).
		Values(g.ID, g.TenantID, g.Grade, g.Section, g.CreatedAt, g.UpdatedAt).
		ToSql()
	if err != nil {
		return school.Group{}, errors.Wrap(err, "building group insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return school.Group{}, errors.Wrap(err, "inserting group")
	}
	return g, nil
}

func (repo schoolRepository) GetGroupByID(ctx context.Context, id string) (school.Group, error) {
	query, args, err := psql.Select(groupColumns...).From("groups").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return school.Group{}, errors.Wrap(err, "building group query")
	}
	var row groupRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return school.Group{}, school.ErrGroupNotFound
		}
		return school.Group{}, errors.Wrap(err, "getting group")
	}

	g := row.toGroup()
	subjects, err := repo.querySubjects(ctx, id)
	if err != nil {
		return school.Group{}, err
	}
	g.Subjects = subjects[id]
	return g, nil
}

func (repo schoolRepository) QueryGroups(ctx context.Context, tenantID string, ordering []core.DBOrdering) ([]school.Group, error) {
	qb := psql.Select(groupColumns...).From("groups").Where(sq.Eq{"tenant_id": tenantID})
	if len(ordering) == 0 {
		qb = qb.OrderBy("grade ASC", "section ASC")
	}
	for _, ord := range ordering {
		qb = qb.OrderBy(ord.String())
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building groups query")
	}
	var rows []groupRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	subjects, err := repo.querySubjects(ctx, ids...)
	if err != nil {
		return nil, err
	}

	groups := make([]school.Group, 0, len(rows))
	for _, r := range rows {
		g := r.toGroup()
		g.Subjects = subjects[g.ID]
		groups = append(groups, g)
	}
	return groups, nil
}

// querySubjects loads the linked subjects for the given groups, keyed by group id.
func (repo schoolRepository) querySubjects(ctx context.Context, groupIDs ...string) (map[string][]school.Subject, error) {
	bySubject := make(map[string][]school.Subject, len(groupIDs))
	if len(groupIDs) == 0 {
		return bySubject, nil
	}

	query, args, err := psql.
		Select("gs.group_id", "gs.subject_id", "s.name AS subject_name").
		From("group_subjects gs").
		Join("subjects s ON s.id = gs.subject_id").
		Where(sq.Eq{"gs.group_id": groupIDs}).
		OrderBy("s.name ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building group subjects query")
	}
	var rows []groupSubjectRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying group subjects")
	}
	for _, r := range rows {
		bySubject[r.GroupID] = append(bySubject[r.GroupID], school.Subject{ID: r.SubjectID, Name: r.SubjectName})
	}
	return bySubject, nil
}

func (repo schoolRepository) CountGroups(ctx context.Context, tenantID string) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("groups").Where(sq.Eq{"tenant_id": tenantID}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building group count query")
	}
	var count int
	if err = repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting groups")
	}
	return count, nil
}

func (repo schoolRepository) UpdateGroup(ctx context.Context, g school.Group) (school.Group, error) {
	qb := psql.Update("groups").Where(sq.Eq{"id": g.ID}).Set("updated_at", g.UpdatedAt)
	if g.Grade != 0 {
		qb = qb.Set("grade", g.Grade)
	}
	if g.Section != "" {
		qb = qb.Set("section", g.Section)
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return school.Group{}, errors.Wrap(err, "building group update")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return school.Group{}, errors.Wrap(err, "updating group")
	}
	return repo.GetGroupByID(ctx, g.ID)
}

func (repo schoolRepository) ReplaceGroupSubjects(ctx context.Context, groupID string, subjectIDs []string) error {
	query, args, err := psql.Delete("group_subjects").Where(sq.Eq{"group_id": groupID}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building group subjects delete")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "deleting group subjects")
	}

	if len(subjectIDs) == 0 {
		return nil
	}
	qb := psql.Insert("group_subjects").Columns("group_id", "subject_id")
	for _, sid := range subjectIDs {
		qb = qb.Values(groupID, sid)
	}
	query, args, err = qb.ToSql()
	if err != nil {
		return errors.Wrap(err, "building group subjects insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "inserting group subjects")
	}
	return nil
}

func (repo schoolRepository) DeleteGroupsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := psql.Delete("groups").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building groups delete")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "deleting groups")
	}
	return nil
}

func (repo schoolRepository) CreateStudent(ctx context.Context, s school.Student) (school.Student, error) {
	s.ID = uuid.New().String()
	query, args, err := psql.Insert("students").
		Columns(studentColumns...).
		Values(s.ID, s.TenantID, s.GroupID, s.Name, null.NewString(s.BirthDate, s.BirthDate != ""), s.CreatedAt, s.UpdatedAt).
		ToSql()
	if err != nil {
		return school.Student{}, errors.Wrap(err, "building student insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return school.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo schoolRepository) GetStudentByID(ctx context.Context, id string) (school.Student, error) {
	query, args, err := psql.Select(studentColumns...).From("students").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return school.Student{}, errors.Wrap(err, "building student query")
	}
	var row studentRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return school.Student{}, school.ErrStudentNotFound
		}
		return school.Student{}, errors.Wrap(err, "getting student")
	}
	return row.toStudent(), nil
}

func (repo schoolRepository) QueryStudentsByGroup(ctx context.Context, groupID string) ([]school.Student, error) {
	query, args, err := psql.Select(studentColumns...).
		From("students").
		Where(sq.Eq{"group_id": groupID}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building students query")
	}
	var rows []studentRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]school.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.toStudent())
	}
	return students, nil
}

func (repo schoolRepository) CountStudentsInGroup(ctx context.Context, groupID string) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("students").Where(sq.Eq{"group_id": groupID}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building student count query")
	}
	var count int
	if err = repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return count, nil
}

func (repo schoolRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := psql.Delete("students").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building students delete")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return nil
}

func (repo schoolRepository) CreateGuardian(ctx context.Context, g school.Guardian) (school.Guardian, error) {
	g.ID = uuid.New().String()
	query, args, err := psql.Insert("guardians").
		Columns(guardianColumns...).
		Values(g.ID, g.TenantID, g.Name, g.Email, null.NewString(g.Phone, g.Phone != ""), g.CreatedAt).
		ToSql()
	if err != nil {
		return school.Guardian{}, errors.Wrap(err, "building guardian insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return school.Guardian{}, errors.Wrap(err, "inserting guardian")
	}
	return g, nil
}

func (repo schoolRepository) GetGuardianByEmail(ctx context.Context, tenantID, email string) (school.Guardian, error) {
	query, args, err := psql.Select(guardianColumns...).
		From("guardians").
		Where(sq.Eq{"tenant_id": tenantID, "email": email}).
		ToSql()
	if err != nil {
		return school.Guardian{}, errors.Wrap(err, "building guardian query")
	}
	var row guardianRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return school.Guardian{}, school.ErrGuardianNotFound
		}
		return school.Guardian{}, errors.Wrap(err, "getting guardian")
	}
	return row.toGuardian(), nil
}

func (repo schoolRepository) LinkGuardian(ctx context.Context, studentID, guardianID string) error {
	query, args, err := psql.Insert("student_guardians").
		Columns("student_id", "guardian_id").
		Values(studentID, guardianID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building guardian link insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "linking guardian")
	}
	return nil
}
