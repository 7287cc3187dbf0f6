package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/services/payment/internal/gateway"
	"github.com/Skotchmaster/storefront/services/payment/internal/models"
)

func TestSign_KnownVector(t *testing.T) {
	t.Parallel()

	got := Sign(testKeySecret, "order_abc", "pay_123")
	assert.Equal(t, "db76cbdc9a0d030ab30c7fb3533bcc315e17f79f4fe8e4ba9e60d5f169694bb8", got)
	assert.True(t, VerifySignature(testKeySecret, "order_abc", "pay_123", got))
	assert.False(t, VerifySignature(testKeySecret, "order_abc", "pay_124", got))
	assert.False(t, VerifySignature("other", "order_abc", "pay_123", got))
}

func TestResolveCredentials_Precedence(t *testing.T) {
	t.Parallel()

	stored := map[string]string{KeyGatewayKeyID: "store_id", KeyGatewayKeySecret: "store_secret"}

	tests := []struct {
		name       string
		env        map[string]string
		store      map[string]string
		wantID     string
		wantSecret string
		wantErr    error
	}{
		{
			name:       "env wins over store",
			env:        map[string]string{KeyGatewayKeyID: "env_id", KeyGatewayKeySecret: "env_secret"},
			store:      stored,
			wantID:     "env_id",
			wantSecret: "env_secret",
		},
		{
			name:       "store only",
			store:      stored,
			wantID:     "store_id",
			wantSecret: "store_secret",
		},
		{
			name:       "env id, stored secret",
			env:        map[string]string{KeyGatewayKeyID: "env_id"},
			store:      stored,
			wantID:     "env_id",
			wantSecret: "store_secret",
		},
		{
			name:       "empty env value falls back",
			env:        map[string]string{KeyGatewayKeyID: ""},
			store:      stored,
			wantID:     "store_id",
			wantSecret: "store_secret",
		},
		{
			name:    "neither",
			wantErr: ErrConfigurationMissing,
		},
		{
			name:    "secret missing everywhere",
			env:     map[string]string{KeyGatewayKeyID: "env_id"},
			store:   map[string]string{KeyGatewayKeyID: "store_id"},
			wantErr: ErrConfigurationMissing,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &CredentialResolver{Store: newMemStore(tt.store), LookupEnv: envOf(tt.env)}
			creds, err := r.Resolve(context.Background())
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, creds.KeyID)
			assert.Equal(t, tt.wantSecret, creds.KeySecret)
		})
	}
}

func TestResolveCredentials_StoreErrorIsNotMissing(t *testing.T) {
	store := newMemStore(nil)
	store.err = errors.New("db down")
	r := &CredentialResolver{Store: store, LookupEnv: noEnv}

	_, err := r.Resolve(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConfigurationMissing)
}

func TestResolveCredentials_EnvSkipsStore(t *testing.T) {
	store := newMemStore(nil)
	store.err = errors.New("db down")
	r := &CredentialResolver{
		Store:     store,
		LookupEnv: envOf(map[string]string{KeyGatewayKeyID: "id", KeyGatewayKeySecret: "secret"}),
	}

	creds, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id", creds.KeyID)
}

func TestCreatePaymentIntent_InvalidAmount(t *testing.T) {
	env := newTestEnv(t)

	for _, amount := range []string{"0", "-5", "184467440737095517.16", "92233720368547758.08"} {
		_, err := env.Svc.CreatePaymentIntent(context.Background(), CreateIntentInput{
			Amount:   decimal.RequireFromString(amount),
			Currency: "INR",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidAmount, amount)
	}
	assert.Empty(t, env.GW.orders)
}

func TestCreatePaymentIntent_SendsMinorUnits(t *testing.T) {
	env := newTestEnv(t)

	order, err := env.Svc.CreatePaymentIntent(context.Background(), CreateIntentInput{
		Amount:   decimal.RequireFromString("199.5"),
		Currency: "INR",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)

	require.Len(t, env.GW.orders, 1)
	sent := env.GW.orders[0]
	assert.EqualValues(t, 19950, sent.Amount)
	assert.Equal(t, "INR", sent.Currency)
	assert.Equal(t, 1, sent.PaymentCapture)
	assert.True(t, strings.HasPrefix(sent.Receipt, "rcpt_"))
	assert.LessOrEqual(t, len(sent.Receipt), 40)

	assert.Equal(t, testKeyID, env.GW.creds[0].KeyID)
	assert.Zero(t, env.countOrders(t), "no order is stored before verification")
}

func TestCreatePaymentIntent_ReceiptAndCurrency(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Svc.CreatePaymentIntent(context.Background(), CreateIntentInput{
		Amount:  decimal.NewFromInt(10),
		Receipt: "cart-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "cart-42", env.GW.orders[0].Receipt)
	assert.Equal(t, "INR", env.GW.orders[0].Currency)

	_, err = env.Svc.CreatePaymentIntent(context.Background(), CreateIntentInput{
		Amount:   decimal.NewFromInt(10),
		Currency: "rupees",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewReceipt_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		r := NewReceipt()
		require.False(t, seen[r])
		seen[r] = true
	}
}

func TestCreatePaymentIntent_GatewayAndConfigErrors(t *testing.T) {
	env := newTestEnv(t)
	env.GW.createErr = &gateway.Error{StatusCode: 400, Code: "BAD_REQUEST_ERROR"}

	_, err := env.Svc.CreatePaymentIntent(context.Background(), CreateIntentInput{Amount: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, ErrGateway)

	env.Svc.Credentials = &CredentialResolver{Store: newMemStore(nil), LookupEnv: noEnv}
	_, err = env.Svc.CreatePaymentIntent(context.Background(), CreateIntentInput{Amount: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, ErrConfigurationMissing)
}

func settleInput(t *testing.T, orderRef, paymentRef string, details map[string]any) SettleInput {
	t.Helper()
	raw, err := json.Marshal(details)
	require.NoError(t, err)
	return SettleInput{
		OrderRef:   orderRef,
		PaymentRef: paymentRef,
		Signature:  Sign(testKeySecret, orderRef, paymentRef),
		Details:    raw,
	}
}

func TestVerifyAndSettle_Success(t *testing.T) {
	env := newTestEnv(t)

	in := settleInput(t, "order_abc", "pay_123", map[string]any{
		"customerName":    "Meera Iyer",
		"customerEmail":   "meera@example.com",
		"totalAmount":     1299.5,
		"shippingAddress": map[string]any{"line1": "4 Park St", "city": "Kolkata", "postalCode": "700016"},
		"items": []map[string]any{
			{"productId": "p-1", "name": "Linen Shirt", "quantity": 1, "price": "1299.50", "size": "M"},
		},
	})

	res, err := env.Svc.VerifyAndSettle(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, res.AlreadySettled)

	o := res.Order
	assert.Equal(t, models.OrderStatusPaid, o.Status)
	require.NotNil(t, o.PaymentID)
	assert.Equal(t, "pay_123", *o.PaymentID)
	require.NotNil(t, o.GatewayOrderID)
	assert.Equal(t, "order_abc", *o.GatewayOrderID)
	assert.Equal(t, "Meera Iyer", o.CustomerName)
	assert.True(t, decimal.RequireFromString("1299.5").Equal(o.TotalAmount))
	assert.Equal(t, "Kolkata", o.ShippingAddress.City)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "M", o.Items[0].Size)
	assert.Equal(t, models.SourceWebsite, o.Source)

	stored, err := env.Repo.GetOrderByPaymentID(context.Background(), "pay_123")
	require.NoError(t, err)
	assert.Equal(t, o.ID, stored.ID)

	evs := env.Events.all()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TopicPayment, evs[0].Topic)
	assert.Equal(t, events.TypeOrderPaid, evs[0].Event.(events.OrderEvent).Type)
}

func TestVerifyAndSettle_Defaults(t *testing.T) {
	env := newTestEnv(t)

	for _, details := range []json.RawMessage{nil, json.RawMessage(`null`), json.RawMessage(`{"totalAmount":"oops"}`), json.RawMessage(`[1,2]`)} {
		env.DB.Exec("DELETE FROM orders")

		res, err := env.Svc.VerifyAndSettle(context.Background(), SettleInput{
			OrderRef:   "order_d",
			PaymentRef: "pay_d",
			Signature:  Sign(testKeySecret, "order_d", "pay_d"),
			Details:    details,
		})
		require.NoError(t, err, string(details))
		assert.Equal(t, models.GuestName, res.Order.CustomerName)
		assert.True(t, res.Order.TotalAmount.IsZero())
		assert.NotNil(t, res.Order.Items)
		assert.Empty(t, res.Order.Items)
	}
}

func TestVerifyAndSettle_KeepsFieldsAroundMalformedOnes(t *testing.T) {
	env := newTestEnv(t)

	details := json.RawMessage(`{
		"customerName": "Meera Iyer",
		"customerEmail": "meera@example.com",
		"customerPhone": 9876543210,
		"totalAmount": 1299.5,
		"shippingAddress": {"line1": "4 Park St", "city": "Kolkata"},
		"items": [
			{"productId": "p1", "name": "Kurta", "quantity": "1", "price": 1299.5},
			{"productId": "p2", "name": "Scarf", "quantity": 1, "price": "oops"}
		]
	}`)

	res, err := env.Svc.VerifyAndSettle(context.Background(), SettleInput{
		OrderRef:   "order_p",
		PaymentRef: "pay_p",
		Signature:  Sign(testKeySecret, "order_p", "pay_p"),
		Details:    details,
	})
	require.NoError(t, err)

	o := res.Order
	assert.Equal(t, "Meera Iyer", o.CustomerName)
	assert.Equal(t, "meera@example.com", o.CustomerEmail)
	assert.Nil(t, o.CustomerPhone)
	assert.True(t, decimal.RequireFromString("1299.5").Equal(o.TotalAmount))
	assert.Equal(t, "Kolkata", o.ShippingAddress.City)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Kurta", o.Items[0].Name)
	assert.Zero(t, o.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("1299.5").Equal(o.Items[0].Price))
}

func TestVerifyAndSettle_NegativeAmountDefaultsToZero(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.Svc.VerifyAndSettle(context.Background(), settleInput(t, "order_n", "pay_n", map[string]any{"totalAmount": -10}))
	require.NoError(t, err)
	assert.True(t, res.Order.TotalAmount.IsZero())
}

func TestVerifyAndSettle_AnyBitFlipIsRejected(t *testing.T) {
	env := newTestEnv(t)

	good := settleInput(t, "order_abc", "pay_123", map[string]any{"customerName": "X", "totalAmount": 10})
	raw, err := hex.DecodeString(good.Signature)
	require.NoError(t, err)

	for i := 0; i < len(raw)*8; i += 7 {
		mutated := append([]byte(nil), raw...)
		mutated[i/8] ^= 1 << (i % 8)

		in := good
		in.Signature = hex.EncodeToString(mutated)
		_, err := env.Svc.VerifyAndSettle(context.Background(), in)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSignatureMismatch)
	}

	for _, sig := range []string{strings.ToUpper(good.Signature), good.Signature[:10], "not-hex"} {
		in := good
		in.Signature = sig
		_, err := env.Svc.VerifyAndSettle(context.Background(), in)
		assert.ErrorIs(t, err, ErrSignatureMismatch)
	}

	assert.Zero(t, env.countOrders(t))
	assert.Empty(t, env.Events.all())
}

func TestVerifyAndSettle_MismatchWinsOverBadDetails(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Svc.VerifyAndSettle(context.Background(), SettleInput{
		OrderRef:   "order_abc",
		PaymentRef: "pay_123",
		Signature:  Sign("wrong-secret", "order_abc", "pay_123"),
		Details:    json.RawMessage(`{garbage`),
	})
	assert.ErrorIs(t, err, ErrSignatureMismatch)
	assert.Zero(t, env.countOrders(t))
}

func TestVerifyAndSettle_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		in   SettleInput
	}{
		{name: "no order ref", in: SettleInput{PaymentRef: "pay_1", Signature: "abc"}},
		{name: "no payment ref", in: SettleInput{OrderRef: "order_1", Signature: "abc"}},
		{name: "no signature", in: SettleInput{OrderRef: "order_1", PaymentRef: "pay_1"}},
		{name: "blank signature", in: SettleInput{OrderRef: "order_1", PaymentRef: "pay_1", Signature: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Svc.VerifyAndSettle(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrMissingFields)
		})
	}
	assert.Zero(t, env.countOrders(t))
}

func TestVerifyAndSettle_ConfigurationMissing(t *testing.T) {
	env := newTestEnv(t)
	env.Svc.Credentials = &CredentialResolver{Store: newMemStore(nil), LookupEnv: noEnv}

	_, err := env.Svc.VerifyAndSettle(context.Background(), settleInput(t, "order_abc", "pay_123", nil))
	assert.ErrorIs(t, err, ErrConfigurationMissing)
	assert.Zero(t, env.countOrders(t))
}

func TestVerifyAndSettle_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	in := settleInput(t, "order_abc", "pay_123", map[string]any{"customerName": "A", "totalAmount": 100})

	first, err := env.Svc.VerifyAndSettle(context.Background(), in)
	require.NoError(t, err)
	second, err := env.Svc.VerifyAndSettle(context.Background(), in)
	require.NoError(t, err)

	assert.False(t, first.AlreadySettled)
	assert.True(t, second.AlreadySettled)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.EqualValues(t, 1, env.countOrders(t))
	assert.Len(t, env.Events.all(), 1, "order_paid is published once")
}

func TestVerifyAndSettle_ConcurrentRetries(t *testing.T) {
	env := newTestEnv(t)
	in := settleInput(t, "order_abc", "pay_123", map[string]any{"customerName": "A"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.Svc.VerifyAndSettle(context.Background(), in)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, env.countOrders(t))
}

func TestVerifyAndSettle_PersistenceError(t *testing.T) {
	env := newTestEnv(t)
	env.Svc.Repo = failingRepo{GormRepo: env.Repo}

	_, err := env.Svc.VerifyAndSettle(context.Background(), settleInput(t, "order_abc", "pay_123", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifyAndSettle_PublishFailureDoesNotFail(t *testing.T) {
	env := newTestEnv(t)
	env.Events.err = errors.New("kafka down")

	_, err := env.Svc.VerifyAndSettle(context.Background(), settleInput(t, "order_abc", "pay_123", nil))
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.countOrders(t))
}

func TestFetchPayment(t *testing.T) {
	env := newTestEnv(t)

	p, err := env.Svc.FetchPayment(context.Background(), "pay_123")
	require.NoError(t, err)
	assert.Equal(t, "pay_123", p.ID)

	_, err = env.Svc.FetchPayment(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingPaymentRef)

	env.GW.fetchErr = &gateway.Error{Timeout: true}
	_, err = env.Svc.FetchPayment(context.Background(), "pay_123")
	assert.ErrorIs(t, err, ErrGateway)
}

func TestPaymentRef_MustBeAnID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, ref := range []string{"../orders?count=100", "pay_1?x", "pay_1/refund", "pay 1", "pay_1#x"} {
		_, err := env.Svc.FetchPayment(ctx, ref)
		assert.ErrorIs(t, err, ErrValidation, ref)

		_, err = env.Svc.Refund(ctx, ref, nil)
		assert.ErrorIs(t, err, ErrValidation, ref)
	}
	assert.Empty(t, env.GW.fetches)
	assert.Empty(t, env.GW.refunds)

	p, err := env.Svc.FetchPayment(ctx, "  pay_ABC123  ")
	require.NoError(t, err)
	assert.Equal(t, "pay_ABC123", p.ID)
}

func TestRefund_MarksOrdersRefunded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Svc.VerifyAndSettle(ctx, settleInput(t, "order_abc", "pay_123", map[string]any{"totalAmount": 500}))
	require.NoError(t, err)
	_, err = env.Svc.VerifyAndSettle(ctx, settleInput(t, "order_xyz", "pay_456", map[string]any{"totalAmount": 700}))
	require.NoError(t, err)

	res, err := env.Svc.Refund(ctx, "pay_123", nil)
	require.NoError(t, err)
	assert.Equal(t, "rfnd_1", res.Refund.ID)
	assert.EqualValues(t, 1, res.Updated)
	require.Len(t, env.GW.refunds, 1)
	assert.Nil(t, env.GW.refunds[0].AmountMinor)

	var orders []models.Order
	require.NoError(t, env.DB.Where("payment_id = ?", "pay_123").Find(&orders).Error)
	require.NotEmpty(t, orders)
	for _, o := range orders {
		assert.Equal(t, models.OrderStatusRefunded, o.Status)
	}

	other, err := env.Repo.GetOrderByPaymentID(ctx, "pay_456")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, other.Status)

	evs := env.Events.all()
	last := evs[len(evs)-1].Event.(events.OrderEvent)
	assert.Equal(t, events.TypeOrderRefunded, last.Type)
}

func TestRefund_PartialAmount(t *testing.T) {
	env := newTestEnv(t)

	amount := decimal.RequireFromString("50.25")
	_, err := env.Svc.Refund(context.Background(), "pay_123", &amount)
	require.NoError(t, err)

	require.Len(t, env.GW.refunds, 1)
	require.NotNil(t, env.GW.refunds[0].AmountMinor)
	assert.EqualValues(t, 5025, *env.GW.refunds[0].AmountMinor)
}

func TestRefund_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Svc.Refund(ctx, "  ", nil)
	assert.ErrorIs(t, err, ErrMissingPaymentRef)

	zero := decimal.Zero
	_, err = env.Svc.Refund(ctx, "pay_123", &zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	huge := decimal.RequireFromString("184467440737095517.16")
	_, err = env.Svc.Refund(ctx, "pay_123", &huge)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Empty(t, env.GW.refunds)

	_, err = env.Svc.VerifyAndSettle(ctx, settleInput(t, "order_abc", "pay_123", nil))
	require.NoError(t, err)

	env.GW.refundErr = &gateway.Error{StatusCode: 400, Code: "BAD_REQUEST_ERROR"}
	_, err = env.Svc.Refund(ctx, "pay_123", nil)
	assert.ErrorIs(t, err, ErrGateway)

	o, err := env.Repo.GetOrderByPaymentID(ctx, "pay_123")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, o.Status, "failed refund leaves the order paid")
}
