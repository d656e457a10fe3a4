package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/escolaria/escolaria/core/user"
)

func Test_userApi_login(t *testing.T) {
	usrSvc.reset()

	createUser(t, "Teacher", "teacher01", "teacher@test.mx", "s3cret", []string{user.RoleTeacher}, true)
	createUser(t, "N Dog", "ndog", "ndog@test.mx", "s3cret", []string{user.RoleStudent}, false)

	errAuthFailed := marchallObj(t, httpErr{Error: "authentication failed"})

	tests := []httpTest{
		{
			name: "empty body", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name: "unknown user", body: []byte(`{"username": "lol", "password": "s3cret"}`),
			wantCode: http.StatusBadRequest, wantData: errAuthFailed,
		},
		{
			name: "wrong password", body: []byte(`{"username": "teacher01", "password": "lol"}`),
			wantCode: http.StatusBadRequest, wantData: errAuthFailed,
		},
		{
			name: "deactivated account", body: []byte(`{"username": "ndog", "password": "s3cret"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "login with username", body: []byte(`{"username": "teacher01", "password": "s3cret"}`)},
		{name: "login with email", body: []byte(`{"username": "teacher@test.mx", "password": "s3cret"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
			}
			var resp struct {
				Token string `json:"token"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshalling response: %v", err)
			}
			if resp.Token == "" {
				t.Error("expected a token")
			}
		})
	}
}

func Test_userApi_userQuery(t *testing.T) {
	usrSvc.reset()

	admin := createUser(t, "Admin", "admin01", "admin@test.mx", "s3cret", []string{user.RoleAdmin}, true)
	teacher := createUser(t, "Teacher", "teacher01", "teacher@test.mx", "s3cret", []string{user.RoleTeacher}, true)
	student := createUser(t, "Hero", "hero01", "hero@test.mx", "s3cret", []string{user.RoleStudent}, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Teachers cannot list users", token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Get all", token: getToken(t, admin),
			wantData: marchallList(t, admin, teacher, student),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userRetrieve(t *testing.T) {
	usrSvc.reset()

	admin := createUser(t, "Admin", "admin01", "admin@test.mx", "s3cret", []string{user.RoleAdmin}, true)
	student := createUser(t, "Hero", "hero01", "hero@test.mx", "s3cret", []string{user.RoleStudent}, true)

	notFound := marchallObj(t, httpErr{Error: "not found"})

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users/" + student.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get self", path: "/v1/users/" + student.ID, token: getToken(t, student), wantData: marchallObj(t, student)},
		{
			name: "Non-admins cannot get another user", path: "/v1/users/" + admin.ID, token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{name: "Admins can get any user", path: "/v1/users/" + student.ID, token: getToken(t, admin), wantData: marchallObj(t, student)},
		{
			name: "Unknown user", path: "/v1/users/00000000-0000-4000-8000-999999999999", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userDestroy(t *testing.T) {
	usrSvc.reset()

	admin := createUser(t, "Admin", "admin01", "admin@test.mx", "s3cret", []string{user.RoleAdmin}, true)
	student := createUser(t, "Hero", "hero01", "hero@test.mx", "s3cret", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	t.Run("ctxUser cannot delete themselves", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+admin.ID, adminToken)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("admin deletes a user", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+student.ID, adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}
		if _, err := usrSvc.GetByID(student.ID); err != user.ErrNotFound {
			t.Errorf("user should be gone; got err %v", err)
		}
	})
}
