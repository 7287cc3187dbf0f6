package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/Skotchmaster/storefront/services/payment/internal/gateway"
	"github.com/Skotchmaster/storefront/services/payment/internal/models"
	"github.com/Skotchmaster/storefront/services/payment/internal/repo"
	"github.com/Skotchmaster/storefront/services/payment/internal/service"
)

var jwtSecret = []byte("handler-test-secret")

const (
	keyID     = "rzp_test_key"
	keySecret = "rzp_test_secret"
)

type stubGateway struct {
	mu      sync.Mutex
	amounts []int64
	refunds []string
	err     error
}

func (g *stubGateway) CreateOrder(_ context.Context, req gateway.CreateOrderRequest) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.amounts = append(g.amounts, req.Amount)
	return &gateway.Order{ID: "order_abc", Entity: "order", Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created"}, nil
}

func (g *stubGateway) FetchPayment(_ context.Context, id string) (*gateway.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.Payment{ID: id, Entity: "payment", Amount: 19950, Currency: "INR", Status: "captured", Captured: true}, nil
}

func (g *stubGateway) Refund(_ context.Context, id string, amountMinor *int64) (*gateway.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.refunds = append(g.refunds, id)
	return &gateway.Refund{ID: "rfnd_1", Entity: "refund", PaymentID: id, Amount: 19950, Status: "processed"}, nil
}

type server struct {
	e        *echo.Echo
	db       *gorm.DB
	gw       *stubGateway
	settings *repo.SettingsRepo
}

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to connect to in-memory db")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.Setting{}), "failed to migrate tables")
	return db
}

// newServer wires the full route table against sqlite and a stub gateway.
// Credentials come from the settings table; the process env is ignored.
func newServer(t *testing.T, withCreds bool) *server {
	t.Helper()

	db := initTestDB(t)
	orders := &repo.GormRepo{DB: db}
	settings := &repo.SettingsRepo{DB: db}
	if withCreds {
		require.NoError(t, settings.Upsert(context.Background(), service.KeyGatewayKeyID, keyID))
		require.NoError(t, settings.Upsert(context.Background(), service.KeyGatewayKeySecret, keySecret))
	}

	gw := &stubGateway{}
	creds := &service.CredentialResolver{
		Store:     settings,
		LookupEnv: func(string) (string, bool) { return "", false },
	}

	e := echo.New()
	Register(e, &Deps{
		PaymentHandler: &PaymentHTTP{Svc: &service.PaymentService{
			Repo:        orders,
			Credentials: creds,
			NewGateway:  func(gateway.Credentials) service.Gateway { return gw },
			Events:      events.Nop{},
		}},
		OrderHandler:    &OrderHTTP{Svc: &service.OrderService{Repo: orders, Events: events.Nop{}}},
		SettingsHandler: &SettingsHTTP{Svc: &service.SettingsService{Store: settings, Lister: settings}},
		JWTSecret:       jwtSecret,
		DB:              db,
	})

	return &server{e: e, db: db, gw: gw, settings: settings}
}

func adminToken(t *testing.T) string {
	t.Helper()
	tok, err := tokens.NewAccessToken("admin-1", tokens.RoleAdmin, time.Now().Add(time.Minute), jwtSecret)
	require.NoError(t, err)
	return tok
}

func (s *server) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
