package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopfront/internal/hub"
	"github.com/Skotchmaster/shopfront/internal/payments/paymentstest"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/internal/service"
	"github.com/Skotchmaster/shopfront/internal/testsupport"
	authmw "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
	"github.com/Skotchmaster/shopfront/pkg/tokens"
)

var testSecret = []byte("handler-test-secret")

type testEnv struct {
	T    *testing.T
	E    *echo.Echo
	DB   *gorm.DB
	Fake *paymentstest.Fake
	Hub  *hub.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := testsupport.NewDB(t)
	r := repo.New(gdb)
	h := hub.New(8)
	fake := paymentstest.New()

	chat := &service.ChatService{Repo: r, Broadcaster: h}
	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	Register(e, &Deps{
		Catalog: &CatalogHTTP{Svc: &service.CatalogService{Repo: r}},
		Cart:    &CartHTTP{Svc: &service.CartService{Repo: r}},
		Order:   &OrderHTTP{Svc: service.NewOrderService(r, nil, nil)},
		Payment: &PaymentHTTP{Svc: &service.PaymentService{
			Repo:              r,
			Processor:         fake,
			PublishableKey:    "pk_test",
			WebhookConfigured: true,
		}},
		Chat:       &ChatHTTP{Svc: chat},
		ChatWS:     &ChatWS{Svc: chat, Hub: h},
		Auth:       &AuthHTTP{Svc: &service.AuthService{Repo: r, JWTSecret: testSecret}},
		Identifier: authmw.NewIdentifier(testSecret, "sessionid", false),
	})
	return &testEnv{T: t, E: e, DB: gdb, Fake: fake, Hub: h}
}

func (env *testEnv) doJSONRequest(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	env.T.Helper()
	return env.serve(env.newRequest(method, path, body, cookies...))
}

func (env *testEnv) doJSONRequestWithHeader(method, path string, body any, key, value string) *httptest.ResponseRecorder {
	env.T.Helper()
	req := env.newRequest(method, path, body)
	req.Header.Set(key, value)
	return env.serve(req)
}

func (env *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) newRequest(method, path string, body any, cookies ...*http.Cookie) *http.Request {
	env.T.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(env.T, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	return req
}

func session(token string) *http.Cookie {
	return &http.Cookie{Name: "sessionid", Value: token}
}

func (env *testEnv) login(userID uint, role string) *http.Cookie {
	env.T.Helper()
	tok, err := tokens.NewAccessToken(testSecret, userID, role, "", time.Now().Add(time.Hour))
	require.NoError(env.T, err)
	return &http.Cookie{Name: tokens.AccessCookie, Value: tok}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func contactBody() map[string]string {
	return map[string]string{
		"email":       "buyer@example.com",
		"first_name":  "Ada",
		"last_name":   "Lovelace",
		"phone":       "555-0100",
		"address":     "1 Main St",
		"city":        "Springfield",
		"postal_code": "12345",
		"country":     "US",
	}
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }
