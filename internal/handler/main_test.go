package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"foodcourt-service/internal/handler"
	"foodcourt-service/internal/middleware"
	"foodcourt-service/internal/router"
	"foodcourt-service/internal/service"
	"foodcourt-service/internal/testutil"
	"foodcourt-service/pkg/jwtutil"
	"foodcourt-service/pkg/xendit"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const webhookToken = "callback-token"

func TestMain(m *testing.M) {
	service.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type fakeGateway struct {
	invoice *xendit.Invoice
	err     error
	calls   int
}

func (f *fakeGateway) CreateInvoice(_ context.Context, _ xendit.CreateInvoiceRequest) (*xendit.Invoice, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.invoice, nil
}

type testServer struct {
	t       *testing.T
	db      *gorm.DB
	e       *echo.Echo
	jwt     *jwtutil.JWTUtil
	gateway *fakeGateway
	uploads string
}

type envelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Error      *handler.ErrorBody  `json:"error"`
	Pagination *service.Pagination `json:"pagination"`
}

type requestOption func(*http.Request)

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.SetupTestDB(t)
	uploads := t.TempDir()
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "test-signing-key", MerchantSessionHours: 1})
	gateway := &fakeGateway{invoice: &xendit.Invoice{
		ID:         "inv-test",
		Status:     xendit.StatusPending,
		InvoiceURL: "https://checkout.example/inv-test",
		ExpiryDate: time.Now().Add(time.Hour),
	}}

	e := router.New(router.Config{
		ServiceName: "foodcourt-test",
		Handlers: handler.Options{
			JWT:            jwt,
			Gateway:        gateway,
			Payments:       service.PaymentOptions{BaseURL: "http://localhost:3000", InvoiceDuration: time.Hour},
			WebhookToken:   webhookToken,
			AdminUsername:  "root",
			AdminPassword:  "rootpass",
			UploadDir:      uploads,
			UploadMaxBytes: 1 << 20,
			PublicBaseURL:  "http://localhost:3000",
		},
	})

	return &testServer{t: t, db: db, e: e, jwt: jwt, gateway: gateway, uploads: uploads}
}

func (s *testServer) do(method, path string, body interface{}, options ...requestOption) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, opt := range options {
		opt(req)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) asMerchant(merchantID uint) requestOption {
	token, err := s.jwt.GenerateMerchantToken(merchantID)
	require.NoError(s.t, err)
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: middleware.MerchantCookieName, Value: token})
	}
}

func (s *testServer) asAdmin(adminID uint) requestOption {
	token, err := s.jwt.GenerateAdminToken(adminID, "admin", time.Now())
	require.NoError(s.t, err)
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: middleware.AdminCookieName, Value: token})
	}
}

func withHeader(key, value string) requestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) envelope {
	t.Helper()

	env := decode(t, rec)
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
	return env
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
