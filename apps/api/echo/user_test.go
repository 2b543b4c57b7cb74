package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/darasadev/darasa/core/user"
)

func createTestUser(t *testing.T, svc user.Service, uname, orgID, pwd string, roles []string) user.User {
	usr, err := svc.Create(context.Background(), user.NewUser{
		Name:     "Test " + uname,
		Username: uname,
		Email:    uname + "@test.cd",
		OrgID:    orgID,
		Password: pwd,
		Roles:    roles,
	})
	if err != nil {
		t.Fatalf("createTestUser() failed: %v", err)
	}
	return usr
}

func Test_userApi_login(t *testing.T) {
	server, svcs := initServer(t)

	createTestUser(t, svcs.usrSvc, "awesome", "org1", "LolC@t123", user.StudentRoles)

	deactivated := createTestUser(t, svcs.usrSvc, "sleeper", "org1", "LolC@t123", user.StudentRoles)
	inactive := false
	if _, err := svcs.usrSvc.Update(context.Background(), deactivated.ID, user.UpdateUser{IsActive: &inactive}); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	tests := []httpTest{
		{name: "unknown user", body: []byte(`{"username": "lol", "password": "lol"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"error": "authentication failed"}`)},
		{name: "wrong password", body: []byte(`{"username": "awesome", "password": "lol"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"error": "authentication failed"}`)},
		{name: "deactivated account", body: []byte(`{"username": "sleeper", "password": "LolC@t123"}`),
			wantCode: http.StatusForbidden, wantData: []byte(`{"error": "account deactivated"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/v1/users/login", tt.body)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("missing fields", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/v1/users/login", []byte(`{}`))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("login ok", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/v1/users/login", []byte(`{"username": "awesome", "password": "LolC@t123"}`))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var res LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if res.Token == "" {
			t.Error("expected a token")
		}
	})

	t.Run("email works too", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/v1/users/login", []byte(`{"username": "awesome@test.cd", "password": "LolC@t123"}`))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_userApi_retrieve(t *testing.T) {
	server, svcs := initServer(t)

	student := createTestUser(t, svcs.usrSvc, "student", "org1", "LolC@t123", user.StudentRoles)
	other := createTestUser(t, svcs.usrSvc, "otherkid", "org1", "LolC@t123", user.StudentRoles)
	admin := createTestUser(t, svcs.usrSvc, "headmaster", "org1", "LolC@t123", user.AdminRoles)
	foreignAdmin := createTestUser(t, svcs.usrSvc, "stranger", "org2", "LolC@t123", user.AdminRoles)

	tests := []httpTest{
		{name: "anon", path: "/api/v1/users/" + student.ID,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "own profile", path: "/api/v1/users/" + student.ID, token: getToken(t, student),
			wantCode: http.StatusOK, wantData: marchallObj(t, student)},
		{name: "someone else's profile", path: "/api/v1/users/" + other.ID, token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: []byte(`{"error": "not found"}`)},
		{name: "admin sees their org", path: "/api/v1/users/" + student.ID, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, student)},
		{name: "admin does not see other orgs", path: "/api/v1/users/" + student.ID, token: getToken(t, foreignAdmin),
			wantCode: http.StatusNotFound, wantData: []byte(`{"error": "not found"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_create(t *testing.T) {
	server, svcs := initServer(t)

	student := createTestUser(t, svcs.usrSvc, "student", "org1", "LolC@t123", user.StudentRoles)
	admin := createTestUser(t, svcs.usrSvc, "headmaster", "org1", "LolC@t123", []string{user.RoleAdmin})

	body := marchallObj(t, user.NewUser{
		Name:            "New Kid",
		Username:        "newkid01",
		Email:           "newkid@test.cd",
		Password:        "Str0ng!Pass",
		PasswordConfirm: "Str0ng!Pass",
		Roles:           user.StudentRoles,
	})

	tests := []httpTest{
		{name: "anon", body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student forbidden", body: body, token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: []byte(`{"error": "permission denied"}`)},
		{name: "cannot grant a higher role", token: getToken(t, admin),
			body: marchallObj(t, user.NewUser{
				Name:            "Usurper",
				Username:        "usurper1",
				Email:           "usurper@test.cd",
				Password:        "Str0ng!Pass",
				PasswordConfirm: "Str0ng!Pass",
				Roles:           []string{user.RoleAdminOwner},
			}),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"roles": "not enough rights to set these roles"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/v1/users/register", tt.token, tt.body)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("admin creates in their org", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/v1/users/register", getToken(t, admin), body)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var created user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		// the org is always the creator's, whatever the payload says
		if created.OrgID != "org1" {
			t.Errorf("OrgID = %q; want %q", created.OrgID, "org1")
		}
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/v1/users/register", getToken(t, admin), body)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})
}
