package tests

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/escolaria/escolaria/core"
	"github.com/escolaria/escolaria/core/agenda"
	"github.com/escolaria/escolaria/core/assignment"
	"github.com/escolaria/escolaria/core/billing"
	"github.com/escolaria/escolaria/core/planning"
	"github.com/escolaria/escolaria/core/school"
	"github.com/escolaria/escolaria/core/tenant"
	"github.com/escolaria/escolaria/core/user"
)

// in-memory user service

type stubUserSvc struct {
	mu    sync.Mutex
	seq   int
	users []user.User
}

func (svc *stubUserSvc) reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.seq = 0
	svc.users = nil
}

func (svc *stubUserSvc) CheckUniqueness(uname, email string, exclUsers ...user.User) error {
	return nil
}

func (svc *stubUserSvc) Create(nu user.NewUser) (user.User, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.seq++
	active := true
	now := time.Now().UTC()
	usr := user.User{
		ID:        fmt.Sprintf("00000000-0000-4000-8000-%012d", svc.seq),
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  &active,
		Roles:     nu.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return user.User{}, err
	}
	svc.users = append(svc.users, usr)
	return usr, nil
}

func (svc *stubUserSvc) find(match func(user.User) bool) (user.User, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, usr := range svc.users {
		if match(usr) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (svc *stubUserSvc) GetByID(id string) (user.User, error) {
	return svc.find(func(u user.User) bool { return u.ID == id })
}

func (svc *stubUserSvc) GetByUsername(uname string) (user.User, error) {
	return svc.find(func(u user.User) bool { return u.Username == uname })
}

func (svc *stubUserSvc) GetByEmail(email string) (user.User, error) {
	return svc.find(func(u user.User) bool { return u.Email == email })
}

func (svc *stubUserSvc) GetByUsernameOrEmail(uname string) (user.User, error) {
	return svc.find(func(u user.User) bool { return u.Username == uname || u.Email == uname })
}

func (svc *stubUserSvc) Query(filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	users := make([]user.User, len(svc.users))
	copy(users, svc.users)
	return users, nil
}

func (svc *stubUserSvc) Update(id string, uu user.UpdateUser) (user.User, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for i, usr := range svc.users {
		if usr.ID != id {
			continue
		}
		usr.Name = uu.Name
		usr.Username = uu.Username
		usr.Email = uu.Email
		if uu.IsActive != nil {
			usr.IsActive = uu.IsActive
		}
		if uu.Roles != nil {
			usr.Roles = uu.Roles
		}
		usr.UpdatedAt = time.Now().UTC()
		svc.users[i] = usr
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (svc *stubUserSvc) Delete(ids ...string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	kept := svc.users[:0]
	for _, usr := range svc.users {
		deleted := false
		for _, id := range ids {
			if usr.ID == id {
				deleted = true
				break
			}
		}
		if !deleted {
			kept = append(kept, usr)
		}
	}
	svc.users = kept
	return nil
}

func (svc *stubUserSvc) SetLastLogin(usr user.User) (user.User, error) {
	return usr, nil
}

// setTenant pins the user's active workspace; there is no tenant API shortcut
// for this in the stub.
func (svc *stubUserSvc) setTenant(id, tenantID string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for i, usr := range svc.users {
		if usr.ID == id {
			usr.TenantID = tenantID
			svc.users[i] = usr
			return
		}
	}
}

func (svc *stubUserSvc) RequestPasswordReset(email string) error { return nil }

func (svc *stubUserSvc) ResetPassword(rp user.ResetUserPassword) error { return nil }

func createUser(t *testing.T, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()
	usr, err := usrSvc.Create(user.NewUser{
		Name:     name,
		Username: uname,
		Email:    email,
		Password: pwd,
		Roles:    roles,
	})
	if err != nil {
		t.Fatalf("createUser(): %v", err)
	}
	if !isActive {
		active := false
		usr, err = usrSvc.Update(usr.ID, user.UpdateUser{
			Name: usr.Name, Username: usr.Username, Email: usr.Email, IsActive: &active,
		})
		if err != nil {
			t.Fatalf("createUser(): %v", err)
		}
	}
	return usr
}

// in-memory agenda storage

type stubAgendaRepo struct {
	mu            sync.Mutex
	seq           int
	entries       []agenda.CalendarEntry
	teacherEvents []agenda.TeacherEvent
}

func (repo *stubAgendaRepo) reset() {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.seq = 0
	repo.entries = nil
	repo.teacherEvents = nil
}

func (repo *stubAgendaRepo) nextID() string {
	repo.seq++
	return fmt.Sprintf("evt-%d", repo.seq)
}

func (repo *stubAgendaRepo) QueryCalendarEntries(ctx context.Context, tenantID, monthStart, monthEnd string) ([]agenda.CalendarEntry, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	matches := make([]agenda.CalendarEntry, 0)
	for _, e := range repo.entries {
		if !(e.TenantID == tenantID || e.IsOfficialSEP) {
			continue
		}
		if e.StartDate <= monthEnd && e.EndDate >= monthStart {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

func (repo *stubAgendaRepo) CreateCalendarEntries(ctx context.Context, entries []agenda.CalendarEntry) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, e := range entries {
		e.ID = repo.nextID()
		repo.entries = append(repo.entries, e)
	}
	return nil
}

func (repo *stubAgendaRepo) DeleteCalendarEntry(ctx context.Context, tenantID, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for i, e := range repo.entries {
		if e.ID == id && e.TenantID == tenantID {
			repo.entries = append(repo.entries[:i], repo.entries[i+1:]...)
			return nil
		}
	}
	return agenda.ErrNotFound
}

func (repo *stubAgendaRepo) QueryTeacherEvents(ctx context.Context, teacherID string, from, to time.Time) ([]agenda.TeacherEvent, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	matches := make([]agenda.TeacherEvent, 0)
	for _, te := range repo.teacherEvents {
		if te.TeacherID != teacherID {
			continue
		}
		if !te.StartTime.Before(from) && !te.EndTime.After(to) {
			matches = append(matches, te)
		}
	}
	return matches, nil
}

func (repo *stubAgendaRepo) CreateTeacherEvent(ctx context.Context, ev agenda.TeacherEvent) (agenda.TeacherEvent, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	ev.ID = repo.nextID()
	ev.CreatedAt = time.Now().UTC()
	repo.teacherEvents = append(repo.teacherEvents, ev)
	return ev, nil
}

func (repo *stubAgendaRepo) DeleteTeacherEvent(ctx context.Context, teacherID, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for i, te := range repo.teacherEvents {
		if te.ID == id && te.TeacherID == teacherID {
			repo.teacherEvents = append(repo.teacherEvents[:i], repo.teacherEvents[i+1:]...)
			return nil
		}
	}
	return agenda.ErrNotFound
}

type stubAssignments struct {
	assignments []assignment.Assignment
}

func (src *stubAssignments) QueryByDueRange(ctx context.Context, tenantID string, from, to time.Time) ([]assignment.Assignment, error) {
	matches := make([]assignment.Assignment, 0)
	for _, a := range src.assignments {
		if a.TenantID != tenantID {
			continue
		}
		if !a.DueDate.Before(from) && !a.DueDate.After(to) {
			matches = append(matches, a)
		}
	}
	return matches, nil
}

type stubPlans struct {
	plans []planning.LessonPlan
}

func (src *stubPlans) QueryOverlapping(ctx context.Context, tenantID, from, to string) ([]planning.LessonPlan, error) {
	matches := make([]planning.LessonPlan, 0)
	for _, p := range src.plans {
		if p.TenantID == tenantID && p.StartDate <= to && p.EndDate >= from {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// billing stubs

type stubBillingRepo struct {
	subs   map[string]billing.Subscription  // by userID
	limits map[string]billing.LicenseLimits // by planType
}

func (repo *stubBillingRepo) reset() {
	repo.subs = nil
	repo.limits = nil
}

func (repo *stubBillingRepo) GetSubscriptionByUserID(ctx context.Context, userID string) (billing.Subscription, error) {
	if sub, ok := repo.subs[userID]; ok {
		return sub, nil
	}
	return billing.Subscription{}, billing.ErrNoSubscription
}

func (repo *stubBillingRepo) GetLicenseLimits(ctx context.Context, planType string) (billing.LicenseLimits, error) {
	if limits, ok := repo.limits[planType]; ok {
		return limits, nil
	}
	return billing.LicenseLimits{}, billing.ErrNoLimits
}

func (repo *stubBillingRepo) UpsertSubscription(ctx context.Context, sub billing.Subscription) (billing.Subscription, error) {
	if repo.subs == nil {
		repo.subs = make(map[string]billing.Subscription)
	}
	repo.subs[sub.UserID] = sub
	return sub, nil
}

type stubGroupCounter struct {
	count int
}

func (c *stubGroupCounter) CountGroups(ctx context.Context, tenantID string) (int, error) {
	return c.count, nil
}

type stubPrefs struct {
	lastRequest billing.PreferenceRequest
}

func (p *stubPrefs) CreatePreference(ctx context.Context, pref billing.PreferenceRequest) (billing.CheckoutPreference, error) {
	p.lastRequest = pref
	return billing.CheckoutPreference{PreferenceID: "pref-123", InitPoint: "https://pay.test/init/pref-123"}, nil
}

// unused surfaces; any call is a test bug

type stubTenantSvc struct{ tenant.ServiceInterface }

type stubSchoolSvc struct{ school.ServiceInterface }

type stubAssignmentSvc struct{ assignment.ServiceInterface }

type stubPlanningSvc struct{ planning.ServiceInterface }
