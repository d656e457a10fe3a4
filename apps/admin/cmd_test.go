package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/escolaria/escolaria/core"
	"github.com/escolaria/escolaria/core/billing"
	"github.com/escolaria/escolaria/core/user"
)

type stubUserRepo struct {
	users map[string]user.User // by ID
}

func (r *stubUserRepo) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	return nil
}

func (r *stubUserRepo) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = fmt.Sprintf("usr-%d", len(r.users)+1)
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *stubUserRepo) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if usr, ok := r.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (r *stubUserRepo) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	for _, usr := range r.users {
		if usr.Username == username {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *stubUserRepo) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	for _, usr := range r.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *stubUserRepo) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	for _, usr := range r.users {
		if usr.Username == username || usr.Email == username {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *stubUserRepo) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	return nil, nil
}

func (r *stubUserRepo) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	orig, ok := r.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.Roles != nil {
		orig.Roles = usr.Roles
	}
	if len(usr.PasswordHash) > 0 {
		orig.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		orig.IsActive = isActive
	}
	r.users[usr.ID] = orig
	return orig, nil
}

func (r *stubUserRepo) DeleteUsersByID(ctx context.Context, ids ...string) error { return nil }

type stubBillingRepo struct {
	subs map[string]billing.Subscription // by userID
}

func (r *stubBillingRepo) GetSubscriptionByUserID(ctx context.Context, userID string) (billing.Subscription, error) {
	if sub, ok := r.subs[userID]; ok {
		return sub, nil
	}
	return billing.Subscription{}, billing.ErrNoSubscription
}

func (r *stubBillingRepo) GetLicenseLimits(ctx context.Context, planType string) (billing.LicenseLimits, error) {
	return billing.LicenseLimits{}, billing.ErrNoLimits
}

func (r *stubBillingRepo) UpsertSubscription(ctx context.Context, sub billing.Subscription) (billing.Subscription, error) {
	r.subs[sub.UserID] = sub
	return sub, nil
}

func setup(t *testing.T) (*commandLine, *stubUserRepo, *stubBillingRepo) {
	t.Helper()
	usrRepo := &stubUserRepo{users: make(map[string]user.User)}
	billingRepo := &stubBillingRepo{subs: make(map[string]billing.Subscription)}
	return &commandLine{usrRepo: usrRepo, billingRepo: billingRepo}, usrRepo, billingRepo
}

func createUser(t *testing.T, repo *stubUserRepo, name, uname, email, pwd string) user.User {
	t.Helper()
	usr := user.User{Name: name, Username: uname, Email: email}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed, %v", err)
	}
	return usr
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)
	cli.db = sqlx.NewDb(new(sql.DB), "postgres")

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, usrRepo, _ := setup(t)

	usr := createUser(t, usrRepo, "User", "awe", "awe@test.mx", "mdr")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, usrRepo, _ := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("s3cret"), nil }

	if err := cli.run([]string{"admin", "adduser", "-name", "Admin", "-username", "boss01", "-email", "boss@test.mx", "-admin"}); err != nil {
		t.Fatalf("cli.run() failed, %v", err)
	}

	usr, err := usrRepo.GetUserByUsername(context.Background(), "boss01")
	if err != nil {
		t.Fatalf("GetUserByUsername() failed, %v", err)
	}
	if usr.IsActive == nil || !*usr.IsActive {
		t.Error("user should be active")
	}
	if len(usr.Roles) != len(user.AllRoles) {
		t.Errorf("roles = %v, want all roles", usr.Roles)
	}
	if err := usr.CheckPassword("s3cret"); err != nil {
		t.Errorf("CheckPassword() failed, %v", err)
	}

	// running again updates the existing user
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("n3wpass"), nil }
	if err := cli.run([]string{"admin", "adduser", "-name", "Admin", "-username", "boss01", "-email", "boss@test.mx"}); err != nil {
		t.Fatalf("cli.run() failed, %v", err)
	}
	refreshed, err := usrRepo.GetUserByUsername(context.Background(), "boss01")
	if err != nil {
		t.Fatalf("GetUserByUsername() failed, %v", err)
	}
	if refreshed.ID != usr.ID {
		t.Errorf("ID = %s, want %s", refreshed.ID, usr.ID)
	}
	if err := refreshed.CheckPassword("n3wpass"); err != nil {
		t.Errorf("CheckPassword() failed, %v", err)
	}
}

func Test_commandLine_grantLicense(t *testing.T) {
	cli, usrRepo, billingRepo := setup(t)

	usr := createUser(t, usrRepo, "Teacher", "prof01", "prof@test.mx", "mdr")
	usr.TenantID = "tenant-1"
	usrRepo.users[usr.ID] = usr

	tests := []cliTest{
		{name: "no username", args: []string{"grantlicense"}, wantErr: errHelp},
		{name: "user not found", args: []string{"grantlicense", "-username", "lol"}, wantErr: user.ErrNotFound},
		{name: "defaults to active tenant and pro plan", args: []string{"grantlicense", "-username", usr.Username}},
		{name: "explicit tenant and plan", args: []string{"grantlicense", "-username", usr.Email, "-tenant", "tenant-2", "-plan", "basic"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			sub, err := billingRepo.GetSubscriptionByUserID(context.Background(), usr.ID)
			if err != nil {
				t.Fatalf("GetSubscriptionByUserID() failed, %v", err)
			}
			if sub.Status != billing.SubscriptionActive {
				t.Errorf("status = %s, want %s", sub.Status, billing.SubscriptionActive)
			}
		})
	}
}
