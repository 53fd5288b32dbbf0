package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/jkarani/shulepay/core"
	"github.com/jkarani/shulepay/core/ledger"
	"github.com/jkarani/shulepay/core/payment"
	"github.com/jkarani/shulepay/core/student"
	"github.com/jkarani/shulepay/core/user"
	emailsvc "github.com/jkarani/shulepay/services/email"
	smssvc "github.com/jkarani/shulepay/services/sms"
	inmemdb "github.com/jkarani/shulepay/storage/database/inmem"
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
}

type testDeps struct {
	conf    *core.Config
	usrRepo user.Repository
	stdRepo student.Repository
	pmtRepo payment.Repository
	usrSvc  user.ServiceInterface
	stdSvc  student.ServiceInterface
	ledger  ledger.ServiceInterface
}

func newTestConfig() *core.Config {
	return &core.Config{
		TestMode:  true,
		Env:       "TEST",
		AppName:   "ShulePay",
		SecretKey: "secret",
		SystemKey: "sys-key",
		Server: core.ServerConfig{
			JWTExpirationDelta: 10 * time.Minute,
		},
	}
}

func newTestServer(t *testing.T) (Server, testDeps) {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("newTestServer() failed: %v", err)
	}

	deps := testDeps{
		conf:    newTestConfig(),
		usrRepo: inmemdb.NewUserRepository(db),
		stdRepo: inmemdb.NewStudentRepository(db),
		pmtRepo: inmemdb.NewPaymentRepository(db),
	}
	deps.usrSvc = user.NewService(deps.usrRepo)
	deps.stdSvc = student.NewService(deps.stdRepo)
	deps.ledger = ledger.NewService(deps.stdRepo, deps.pmtRepo)

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:        deps.conf,
		Logger:      nopLogger{},
		UserSvc:     deps.usrSvc,
		StudentSvc:  deps.stdSvc,
		LedgerSvc:   deps.ledger,
		PaymentRepo: deps.pmtRepo,
		SMSSvc:      smssvc.NewConsoleServiceMock(),
		EmailSvc:    emailsvc.NewConsoleServiceMock(deps.conf),
		Validate:    validate,
		Translator:  translator,
	})
	return server, deps
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

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	token, err := generateToken(conf, getUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func createAccount(t *testing.T, repo user.Repository, email, pwd string, isActive bool) user.User {
	now := time.Now().UTC()
	usr := user.User{
		Email:      email,
		Name:       "Head Teacher",
		SchoolName: "Sunrise Academy",
		Role:       user.RoleAdmin,
		IsActive:   isActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createAccount() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("createAccount() failed: %v", err)
	}
	return usr
}

func createStudent(t *testing.T, repo student.Repository, ownerID, firstName, admNo, grade string, totalFees float64) student.Student {
	now := time.Now().UTC()
	std, err := repo.CreateStudent(student.Student{
		OwnerID:         ownerID,
		FirstName:       firstName,
		LastName:        "Doe",
		Grade:           grade,
		AdmissionNumber: admNo,
		Guardians: []student.Guardian{
			{ID: "g-" + admNo, Name: "Jane Doe", Phone: "+254700000001", Email: "jane@test.ke", Relationship: "Mother"},
		},
		TotalFees:  totalFees,
		FeeBalance: totalFees,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
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
	return assertDeepEqual(j1, j2), nil
}

func assertDeepEqual(j1, j2 interface{}) bool {
	b1, _ := json.Marshal(j1)
	b2, _ := json.Marshal(j2)
	return bytes.Equal(b1, b2)
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
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

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}
