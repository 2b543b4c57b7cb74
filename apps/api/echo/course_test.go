package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/darasadev/darasa/core/course"
)

func createTestCourse(t *testing.T, svc course.Service, orgID, code string, published bool) course.Course {
	crs, err := svc.Create(context.Background(), orgID, course.NewCourse{
		Code:      code,
		Title:     "Course " + code,
		TeacherID: "teacher1",
	})
	if err != nil {
		t.Fatalf("createTestCourse() failed: %v", err)
	}
	if published {
		crs, err = svc.Update(context.Background(), orgID, crs.ID, course.UpdateCourse{Code: crs.Code, IsPublished: &published})
		if err != nil {
			t.Fatalf("createTestCourse() failed to publish: %v", err)
		}
	}
	return crs
}

func decodeCourses(t *testing.T, body []byte) []course.Course {
	var courses []course.Course
	if err := json.Unmarshal(body, &courses); err != nil {
		t.Fatalf("decodeCourses() failed: %v", err)
	}
	return courses
}

func Test_courseApi_query(t *testing.T) {
	server, svcs := initServer(t)

	createTestCourse(t, svcs.crsSvc, "org1", "mat101", true)
	createTestCourse(t, svcs.crsSvc, "org1", "phy201", false)

	t.Run("anon", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/v1/courses", "")
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("students only see published courses", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/v1/courses", studentToken(t, "org1"))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		courses := decodeCourses(t, rec.Body.Bytes())
		if len(courses) != 1 || courses[0].Code != "mat101" {
			t.Errorf("unexpected courses: %+v", courses)
		}
	})

	t.Run("teachers see the whole catalog", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/v1/courses", teacherToken(t, "org1"))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		if courses := decodeCourses(t, rec.Body.Bytes()); len(courses) != 2 {
			t.Errorf("len(courses) = %d; want 2", len(courses))
		}
	})

	t.Run("other org sees nothing", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/v1/courses", teacherToken(t, "org2"))
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}, rec)
	})
}

func Test_courseApi_create(t *testing.T) {
	server, _ := initServer(t)

	body := marchallObj(t, course.NewCourse{
		Code:      "MAT101",
		Title:     "Mathematics I",
		TeacherID: "teacher1",
	})

	tests := []httpTest{
		{name: "anon", body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student forbidden", body: body, token: studentToken(t, "org1"),
			wantCode: http.StatusForbidden, wantData: []byte(`{"error": "permission denied"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/v1/courses", tt.token, tt.body)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("missing fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/v1/courses", teacherToken(t, "org1"), []byte(`{"title": "X"}`))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("teacher creates", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/v1/courses", teacherToken(t, "org1"), body)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var crs course.Course
		if err := json.Unmarshal(rec.Body.Bytes(), &crs); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		// codes are normalized and new courses start unpublished
		if crs.OrgID != "org1" || crs.Code != "mat101" || crs.Published() {
			t.Errorf("unexpected course: %+v", crs)
		}
	})

	t.Run("duplicate code rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/v1/courses", teacherToken(t, "org1"), body)
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"code": "a course with this code already exists"}`),
		}, rec)
	})

	t.Run("codes are unique per org", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/v1/courses", teacherToken(t, "org2"), body)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Errorf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_courseApi_retrieve(t *testing.T) {
	server, svcs := initServer(t)

	published := createTestCourse(t, svcs.crsSvc, "org1", "mat101", true)
	draft := createTestCourse(t, svcs.crsSvc, "org1", "phy201", false)

	tests := []httpTest{
		{name: "anon", path: "/api/v1/courses/" + published.ID,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student sees published", path: "/api/v1/courses/" + published.ID, token: studentToken(t, "org1"),
			wantCode: http.StatusOK, wantData: marchallObj(t, published)},
		{name: "draft hidden from students", path: "/api/v1/courses/" + draft.ID, token: studentToken(t, "org1"),
			wantCode: http.StatusNotFound, wantData: []byte(`{"error": "not found"}`)},
		{name: "teacher sees draft", path: "/api/v1/courses/" + draft.ID, token: teacherToken(t, "org1"),
			wantCode: http.StatusOK, wantData: marchallObj(t, draft)},
		{name: "cross-org hidden", path: "/api/v1/courses/" + published.ID, token: teacherToken(t, "org2"),
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

func Test_courseApi_update(t *testing.T) {
	server, svcs := initServer(t)

	crs := createTestCourse(t, svcs.crsSvc, "org1", "mat101", false)
	path := "/api/v1/courses/" + crs.ID
	body := []byte(`{"is_published": true}`)

	tests := []httpTest{
		{name: "anon", path: path, body: body,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student forbidden", path: path, body: body, token: studentToken(t, "org1"),
			wantCode: http.StatusForbidden, wantData: []byte(`{"error": "permission denied"}`)},
		{name: "unknown course", path: "/api/v1/courses/lol", body: body, token: teacherToken(t, "org1"),
			wantCode: http.StatusNotFound, wantData: []byte(`{"error": "not found"}`)},
		{name: "cross-org hidden", path: path, body: body, token: teacherToken(t, "org2"),
			wantCode: http.StatusNotFound, wantData: []byte(`{"error": "not found"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("teacher publishes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, teacherToken(t, "org1"), body)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var updated course.Course
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if !updated.Published() {
			t.Error("expected the course to be published")
		}
	})
}

func Test_courseApi_destroy(t *testing.T) {
	server, svcs := initServer(t)

	crs := createTestCourse(t, svcs.crsSvc, "org1", "mat101", true)
	other := createTestCourse(t, svcs.crsSvc, "org1", "phy201", true)
	path := "/api/v1/courses/" + crs.ID

	tests := []httpTest{
		{name: "anon", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "teacher forbidden", path: path, token: teacherToken(t, "org1"),
			wantCode: http.StatusForbidden, wantData: []byte(`{"error": "permission denied"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodDelete, tt.path, tt.token)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("admin deletes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path, adminToken(t, "org1"))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		if _, err := svcs.crsSvc.Get(context.Background(), "org1", crs.ID); err != course.ErrNotFound {
			t.Errorf("expected the course to be gone, got err = %v", err)
		}
	})

	t.Run("admin deletes multiple", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/v1/courses?id="+other.ID, adminToken(t, "org1"))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		if _, err := svcs.crsSvc.Get(context.Background(), "org1", other.ID); err != course.ErrNotFound {
			t.Errorf("expected the course to be gone, got err = %v", err)
		}
	})
}
