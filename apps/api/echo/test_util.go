package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/darasadev/darasa/core"
	"github.com/darasadev/darasa/core/assistant"
	"github.com/darasadev/darasa/core/calendar"
	"github.com/darasadev/darasa/core/course"
	"github.com/darasadev/darasa/core/feed"
	"github.com/darasadev/darasa/core/user"
	assistantsvc "github.com/darasadev/darasa/services/assistant"
	emailsvc "github.com/darasadev/darasa/services/email"
	logsvc "github.com/darasadev/darasa/services/logger"
	dummydb "github.com/darasadev/darasa/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

type testServices struct {
	usrSvc    user.Service
	calSvc    calendar.Service
	crsSvc    course.Service
	feedSvc   feed.Service
	assistSvc assistant.Service
}

func newTestConfig() *core.Config {
	return &core.Config{
		TestMode:  true,
		AppName:   "Darasa",
		Env:       "TEST",
		SecretKey: "secret",
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

func initServer(t *testing.T) (Server, testServices) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("initServer() failed: %v", err)
	}

	conf := newTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	svcs := testServices{
		usrSvc:    user.NewServiceMock(dummydb.NewUserRepository(db), mailSvc, conf),
		calSvc:    calendar.NewService(dummydb.NewEventRepository(db)),
		crsSvc:    course.NewService(dummydb.NewCourseRepository(db)),
		feedSvc:   feed.NewService(dummydb.NewPostRepository(db)),
		assistSvc: assistant.NewService(dummydb.NewConversationRepository(db), assistantsvc.NewEchoResponder()),
	}

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	calendar.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:         conf,
		Logger:       logger,
		UserSvc:      svcs.usrSvc,
		CalendarSvc:  svcs.calSvc,
		CourseSvc:    svcs.crsSvc,
		FeedSvc:      svcs.feedSvc,
		AssistantSvc: svcs.assistSvc,
		Validate:     validate,
		Translator:   translator,
	})
	return server, svcs
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func studentToken(t *testing.T, orgID string) string {
	return getToken(t, user.User{ID: "student1", OrgID: orgID, Username: "student", Roles: user.StudentRoles})
}

func teacherToken(t *testing.T, orgID string) string {
	return getToken(t, user.User{ID: "teacher1", OrgID: orgID, Username: "teacher", Roles: user.TeacherRoles})
}

func adminToken(t *testing.T, orgID string) string {
	return getToken(t, user.User{ID: "admin1", OrgID: orgID, Username: "admin", Roles: user.AdminRoles})
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
