package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	. "github.com/kabasele/shule/apps/api/echo"
	"github.com/kabasele/shule/core"
	"github.com/kabasele/shule/core/directory"
	"github.com/kabasele/shule/core/user"
	emailsvc "github.com/kabasele/shule/services/email"
	pushsvc "github.com/kabasele/shule/services/push"
	inmemdb "github.com/kabasele/shule/storage/inmem"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

var (
	conf      *core.Config
	app       Server
	usrRepo   user.Repository
	entryRepo directory.Repository
	pushSvc   *pushsvc.DummyService

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	conf = &core.Config{
		Env:             "test",
		TestMode:        true,
		AppName:         "Shule",
		SecretKey:       "s3cr3t-t3st-k3y",
		FrontendBaseURL: "http://localhost:3000",
	}
	conf.Server.JWTExpirationDelta = 10 * time.Minute
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour

	// set up store & repos
	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	entryRepo = inmemdb.NewEntryRepository(db)

	// set up services
	logger := core.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	pushSvc = pushsvc.NewDummyService()
	usrSvc := user.NewService(usrRepo, mailSvc, pushSvc, conf, logger)
	dirSvc := directory.NewService(entryRepo)

	projection, err := user.NewProjection(context.Background(), usrRepo, logger)
	if err != nil {
		log.Fatalf("NewProjection(): %v", err)
	}

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up server
	app = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		UserProjection: projection,
		DirectorySvc:   dirSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})

	// run tests
	code := m.Run()

	// clean up
	projection.Close()
	os.Exit(code)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// resetDB empties the shared store and recorders between tests.
func resetDB(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	users, err := usrRepo.QueryAllUsers(ctx)
	if err != nil {
		t.Fatalf("resetDB() QueryAllUsers: %v", err)
	}
	for _, usr := range users {
		if err = usrRepo.DeleteUsersByID(ctx, usr.ID); err != nil {
			t.Fatalf("resetDB() DeleteUsersByID: %v", err)
		}
	}

	entries, err := entryRepo.QueryAllEntries(ctx)
	if err != nil {
		t.Fatalf("resetDB() QueryAllEntries: %v", err)
	}
	for _, entry := range entries {
		if err = entryRepo.DeleteEntry(ctx, entry.ID); err != nil {
			t.Fatalf("resetDB() DeleteEntry: %v", err)
		}
	}

	pushSvc.ClearSentMessages()
	emailsvc.ClearSentMessages()
}

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

func getToken(t *testing.T, usr user.User, origIat ...int64) string {
	t.Helper()
	token, err := GenerateUserToken(conf, usr, origIat...)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
