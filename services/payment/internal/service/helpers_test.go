package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/services/payment/internal/gateway"
	"github.com/Skotchmaster/storefront/services/payment/internal/models"
	"github.com/Skotchmaster/storefront/services/payment/internal/repo"
)

const (
	testKeyID     = "rzp_test_key"
	testKeySecret = "rzp_test_secret"
)

type memStore struct {
	mu   sync.Mutex
	vals map[string]string
	err  error
}

func newMemStore(kv map[string]string) *memStore {
	vals := map[string]string{}
	for k, v := range kv {
		vals[k] = v
	}
	return &memStore{vals: vals}
}

func (m *memStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.vals[key]
	return v, ok, nil
}

func (m *memStore) GetMany(_ context.Context, keys []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := map[string]string{}
	for _, k := range keys {
		if v, ok := m.vals[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memStore) Upsert(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.vals[key] = value
	return nil
}

func (m *memStore) UpsertMany(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for k, v := range values {
		m.vals[k] = v
	}
	return nil
}

func noEnv(string) (string, bool) { return "", false }

func envOf(kv map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := kv[k]
		return v, ok
	}
}

type refundCall struct {
	PaymentID   string
	AmountMinor *int64
}

type fakeGateway struct {
	mu        sync.Mutex
	creds     []gateway.Credentials
	orders    []gateway.CreateOrderRequest
	refunds   []refundCall
	fetches   []string
	createErr error
	refundErr error
	fetchErr  error
}

func (g *fakeGateway) factory(creds gateway.Credentials) Gateway {
	g.mu.Lock()
	g.creds = append(g.creds, creds)
	g.mu.Unlock()
	return g
}

func (g *fakeGateway) CreateOrder(_ context.Context, req gateway.CreateOrderRequest) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders = append(g.orders, req)
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &gateway.Order{ID: "order_abc", Entity: "order", Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created"}, nil
}

func (g *fakeGateway) FetchPayment(_ context.Context, paymentID string) (*gateway.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches = append(g.fetches, paymentID)
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return &gateway.Payment{ID: paymentID, Entity: "payment", Amount: 19950, Currency: "INR", Status: "captured", Captured: true}, nil
}

func (g *fakeGateway) Refund(_ context.Context, paymentID string, amountMinor *int64) (*gateway.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds = append(g.refunds, refundCall{PaymentID: paymentID, AmountMinor: amountMinor})
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	amount := int64(19950)
	if amountMinor != nil {
		amount = *amountMinor
	}
	return &gateway.Refund{ID: "rfnd_1", Entity: "refund", PaymentID: paymentID, Amount: amount, Status: "processed"}, nil
}

type published struct {
	Topic string
	Key   string
	Event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Topic: topic, Key: key, Event: event})
	return p.err
}

func (p *recordingPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

// failingRepo breaks the paid-order insert to simulate a store outage.
type failingRepo struct {
	*repo.GormRepo
}

var errStoreDown = errors.New("store down")

func (f failingRepo) CreatePaidOrder(context.Context, *models.Order) (*models.Order, bool, error) {
	return nil, false, errStoreDown
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

type testEnv struct {
	DB     *gorm.DB
	Repo   *repo.GormRepo
	Store  *memStore
	GW     *fakeGateway
	Events *recordingPublisher
	Svc    *PaymentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := initTestDB(t)
	r := &repo.GormRepo{DB: db}
	store := newMemStore(map[string]string{
		KeyGatewayKeyID:     testKeyID,
		KeyGatewayKeySecret: testKeySecret,
	})
	gw := &fakeGateway{}
	pub := &recordingPublisher{}

	return &testEnv{
		DB:     db,
		Repo:   r,
		Store:  store,
		GW:     gw,
		Events: pub,
		Svc: &PaymentService{
			Repo:        r,
			Credentials: &CredentialResolver{Store: store, LookupEnv: noEnv},
			NewGateway:  gw.factory,
			Events:      pub,
		},
	}
}

func (env *testEnv) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.DB.Model(&models.Order{}).Count(&n).Error)
	return n
}
