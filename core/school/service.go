package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/escolaria/escolaria/core"
)

var (
	ErrGroupNotFound    = errors.New("group not found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrGuardianNotFound = errors.New("guardian not found")
	ErrGroupLimit       = errors.New("group limit reached for the current plan")
	ErrStudentLimit     = errors.New("student limit reached for this group")
)

type (
	Repository interface {
		CreateGroup(ctx context.Context, g Group) (Group, error)
		GetGroupByID(ctx context.Context, id string) (Group, error)
		QueryGroups(ctx context.Context, tenantID string, ordering []core.DBOrdering) ([]Group, error)
		CountGroups(ctx context.Context, tenantID string) (int, error)
		UpdateGroup(ctx context.Context, g Group) (Group, error)
		// ReplaceGroupSubjects deletes the old subject links then inserts the
		// new ones; two sequential statements, no transaction.
		ReplaceGroupSubjects(ctx context.Context, groupID string, subjectIDs []string) error
		DeleteGroupsByID(ctx context.Context, ids ...string) error

		CreateStudent(ctx context.Context, s Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		QueryStudentsByGroup(ctx context.Context, groupID string) ([]Student, error)
		CountStudentsInGroup(ctx context.Context, groupID string) (int, error)
		DeleteStudentsByID(ctx context.Context, ids ...string) error

		CreateGuardian(ctx context.Context, g Guardian) (Guardian, error)
		GetGuardianByEmail(ctx context.Context, tenantID, email string) (Guardian, error)
		LinkGuardian(ctx context.Context, studentID, guardianID string) error
	}

	// LimitsChecker consults the calling user's plan before growth operations.
	LimitsChecker interface {
		CanAddGroup(ctx context.Context, userID, tenantID string) (bool, error)
		CanAddStudent(ctx context.Context, userID, tenantID string, currentStudents int) (bool, error)
	}

	ServiceInterface interface {
		CreateGroup(ctx context.Context, userID, tenantID string, ng NewGroup) (Group, error)
		GetGroup(ctx context.Context, id string) (Group, error)
		QueryGroups(ctx context.Context, tenantID string, ordering []core.DBOrdering) ([]Group, error)
		UpdateGroup(ctx context.Context, id string, ug UpdateGroup) (Group, error)
		DeleteGroups(ctx context.Context, ids ...string) error

		Enroll(ctx context.Context, userID, tenantID string, ns NewStudent) (Student, error)
		QueryStudents(ctx context.Context, groupID string) ([]Student, error)
		DeleteStudents(ctx context.Context, ids ...string) error
		GuardianByEmail(ctx context.Context, tenantID, email string) (Guardian, error)
	}

	service struct {
		repo   Repository
		limits LimitsChecker
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, limits LimitsChecker) *service {
	return &service{repo: repo, limits: limits}
}

func (svc *service) CreateGroup(ctx context.Context, userID, tenantID string, ng NewGroup) (Group, error) {
	ok, err := svc.limits.CanAddGroup(ctx, userID, tenantID)
	if err != nil {
		return Group{}, errors.Wrap(err, "checking group limit")
	}
	if !ok {
		return Group{}, core.NewValidationError(ErrGroupLimit)
	}

	now := time.Now().UTC()
	g := Group{
		TenantID:  tenantID,
		Grade:     ng.Grade,
		Section:   ng.Section,
		CreatedAt: now,
		UpdatedAt: now,
	}
	g, err = svc.repo.CreateGroup(ctx, g)
	if err != nil {
		return Group{}, err
	}

	if len(ng.SubjectIDs) > 0 {
		if err = svc.repo.ReplaceGroupSubjects(ctx, g.ID, ng.SubjectIDs); err != nil {
			// group row is already committed; surface the error as-is
			return Group{}, errors.Wrap(err, "linking subjects")
		}
	}
	return svc.repo.GetGroupByID(ctx, g.ID)
}

func (svc *service) GetGroup(ctx context.Context, id string) (Group, error) {
	return svc.repo.GetGroupByID(ctx, id)
}

func (svc *service) QueryGroups(ctx context.Context, tenantID string, ordering []core.DBOrdering) ([]Group, error) {
	return svc.repo.QueryGroups(ctx, tenantID, ordering)
}

// UpdateGroup updates the row, then relinks subjects: update, delete old
// links, insert new ones. Sequential; an error partway leaves earlier writes
// committed.
func (svc *service) UpdateGroup(ctx context.Context, id string, ug UpdateGroup) (Group, error) {
	g := Group{
		ID:        id,
		Grade:     ug.Grade,
		Section:   ug.Section,
		UpdatedAt: time.Now().UTC(),
	}
	g, err := svc.repo.UpdateGroup(ctx, g)
	if err != nil {
		return Group{}, err
	}
	if ug.SubjectIDs != nil {
		if err = svc.repo.ReplaceGroupSubjects(ctx, id, ug.SubjectIDs); err != nil {
			return Group{}, errors.Wrap(err, "relinking subjects")
		}
	}
	return svc.repo.GetGroupByID(ctx, id)
}

func (svc *service) DeleteGroups(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteGroupsByID(ctx, ids...)
}

// Enroll creates the student then links guardians one by one, reusing any
// guardian already registered under the same email. The steps are sequential
// with no compensating rollback: a failure leaves prior writes committed.
func (svc *service) Enroll(ctx context.Context, userID, tenantID string, ns NewStudent) (Student, error) {
	current, err := svc.repo.CountStudentsInGroup(ctx, ns.GroupID)
	if err != nil {
		return Student{}, errors.Wrap(err, "counting students")
	}
	ok, err := svc.limits.CanAddStudent(ctx, userID, tenantID, current)
	if err != nil {
		return Student{}, errors.Wrap(err, "checking student limit")
	}
	if !ok {
		return Student{}, core.NewValidationError(ErrStudentLimit)
	}

	now := time.Now().UTC()
	student := Student{
		TenantID:  tenantID,
		GroupID:   ns.GroupID,
		Name:      ns.Name,
		BirthDate: ns.BirthDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	student, err = svc.repo.CreateStudent(ctx, student)
	if err != nil {
		return Student{}, err
	}

	for _, ng := range ns.Guardians {
		guardian, gErr := svc.repo.GetGuardianByEmail(ctx, tenantID, ng.Email)
		if gErr != nil {
			if errors.Cause(gErr) != ErrGuardianNotFound {
				return Student{}, errors.Wrap(gErr, "looking up guardian")
			}
			guardian, gErr = svc.repo.CreateGuardian(ctx, Guardian{
				TenantID:  tenantID,
				Name:      ng.Name,
				Email:     ng.Email,
				Phone:     ng.Phone,
				CreatedAt: now,
			})
			if gErr != nil {
				return Student{}, errors.Wrap(gErr, "creating guardian")
			}
		}
		if gErr = svc.repo.LinkGuardian(ctx, student.ID, guardian.ID); gErr != nil {
			return Student{}, errors.Wrap(gErr, "linking guardian")
		}
	}
	return student, nil
}

func (svc *service) QueryStudents(ctx context.Context, groupID string) ([]Student, error) {
	return svc.repo.QueryStudentsByGroup(ctx, groupID)
}

func (svc *service) DeleteStudents(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}

func (svc *service) GuardianByEmail(ctx context.Context, tenantID, email string) (Guardian, error) {
	return svc.repo.GetGuardianByEmail(ctx, tenantID, core.CleanString(email, true /* lower */))
}
