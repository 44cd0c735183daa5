package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/admission/apps/api/echo"
	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/auth"
	testutil "github.com/trezcool/admission/tests"
)

const (
	sicManager = "sic-manager"
	facManager = "fac-manager"
)

var conf = &core.Config{
	AppName:   "Admission",
	TestMode:  true,
	SecretKey: "secret",
	Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
}

func setup(t *testing.T) (*echoapi.Server, *testutil.Env) {
	env := testutil.NewEnv(t)

	validate := validator.New()
	translator := core.NewTranslator("en")
	core.InitValidators(validate, translator)

	app := echoapi.NewServer(conf, echoapi.Deps{
		Workflow:   env.Service,
		Validate:   validate,
		Translator: translator,
		Logger:     env.Logger,
	})
	return app, env
}

type httpErr struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
	wantErr  string // error code, or error message when the error carries no code
}

func getToken(t *testing.T, subject string, roles ...string) string {
	claims, err := auth.NewClaims(conf, subject, "", roles...)
	if err != nil {
		t.Fatalf("NewClaims(): %v", err)
	}
	token, err := auth.GenerateToken(claims, conf.SecretKey)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func do(t *testing.T, app http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func run(t *testing.T, app http.Handler, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	rec := do(t, app, tt.method, tt.path, tt.token, tt.body)
	if rec.Code != tt.wantCode {
		t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantErr != "" {
		var herr httpErr
		decode(t, rec, &herr)
		if herr.Code != tt.wantErr && herr.Error != tt.wantErr {
			t.Errorf("failed! error = %+v; wantErr %v", herr, tt.wantErr)
		}
	}
	return rec
}
