package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"retail-erp/internal/errs"
	"retail-erp/internal/models"
	"retail-erp/internal/repository"
	"retail-erp/internal/sequence"
	"retail-erp/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ctx   context.Context
	clock *testClock
	repos *repository.Repositories
	svc   *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)}
	st := store.NewMemoryStore(repository.Schema())
	repos := repository.New(st)
	svc := New(repos, sequence.NewStoreSequencer(st, zap.NewNop()), nil, Options{Clock: clock.Now}, zap.NewNop())

	return &fixture{
		ctx:   context.Background(),
		clock: clock,
		repos: repos,
		svc:   svc,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) product(t *testing.T, code, stock, price string) *models.Product {
	t.Helper()
	p, err := f.svc.Products.Create(f.ctx, &models.Product{
		Code:          code,
		Name:          "Producto " + code,
		Unit:          "un",
		CostPrice:     dec(price).Div(dec("2")),
		SalePrice:     dec(price),
		StockQuantity: dec(stock),
		MinStock:      dec("2"),
		Barcode:       "779" + code,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) client(t *testing.T, document, limit string) *models.Client {
	t.Helper()
	c, err := f.svc.Clients.Create(f.ctx, &models.Client{
		Name:        "Cliente " + document,
		Document:    document,
		CreditLimit: dec(limit),
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) supplier(t *testing.T, document string) *models.Supplier {
	t.Helper()
	sp, err := f.svc.Suppliers.Create(f.ctx, &models.Supplier{
		Name:     "Proveedor " + document,
		Document: document,
	})
	require.NoError(t, err)
	return sp
}

func (f *fixture) openRegister(t *testing.T, user, balance string) *models.CashRegister {
	t.Helper()
	r, err := f.svc.CashRegisters.Open(f.ctx, &models.OpenRegisterRequest{
		UserID:         user,
		OpeningBalance: dec(balance),
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) stockOf(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	p, err := f.svc.Products.GetByID(f.ctx, id)
	require.NoError(t, err)
	return p.StockQuantity
}

func (f *fixture) debtOf(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	c, err := f.svc.Clients.GetByID(f.ctx, id)
	require.NoError(t, err)
	return c.CurrentDebt
}

func sale(user string, method models.PaymentMethod, items ...models.SaleItemRequest) *models.CreateSaleRequest {
	return &models.CreateSaleRequest{
		UserID:        user,
		PaymentMethod: method,
		Items:         items,
	}
}

func line(productID, qty string) models.SaleItemRequest {
	return models.SaleItemRequest{ProductID: productID, Quantity: dec(qty)}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Truef(t, errs.Is(err, code), "want code %s, got %v", code, err)
}

func TestNewDefaultsDeferredMethods(t *testing.T) {
	f := newFixture(t)
	client := f.client(t, "20111", "500")
	p := f.product(t, "A1", "10", "10")

	req := sale("u1", models.PaymentBankTransfer, line(p.ID, "2"))
	req.ClientID = client.ID
	_, err := f.svc.Sales.Create(f.ctx, req)
	require.NoError(t, err)

	assertDecimal(t, "20", f.debtOf(t, client.ID))
}

func TestNewCustomDeferredMethods(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)}
	st := store.NewMemoryStore(repository.Schema())
	repos := repository.New(st)
	svc := New(repos, sequence.NewStoreSequencer(st, zap.NewNop()), nil, Options{
		DeferredPaymentMethods: []string{"check"},
		Clock:                  clock.Now,
	}, zap.NewNop())
	ctx := context.Background()

	client, err := svc.Clients.Create(ctx, &models.Client{Name: "Cliente", Document: "1", CreditLimit: dec("100")})
	require.NoError(t, err)
	p, err := svc.Products.Create(ctx, &models.Product{Code: "X", Name: "Producto X", SalePrice: dec("5"), StockQuantity: dec("10")})
	require.NoError(t, err)

	// bank_transfer ya no es diferido
	_, err = svc.Sales.Create(ctx, &models.CreateSaleRequest{
		ClientID: client.ID, UserID: "u1", PaymentMethod: models.PaymentBankTransfer,
		Items: []models.SaleItemRequest{line(p.ID, "1")},
	})
	require.NoError(t, err)
	got, err := svc.Clients.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentDebt.IsZero())

	_, err = svc.Sales.Create(ctx, &models.CreateSaleRequest{
		ClientID: client.ID, UserID: "u1", PaymentMethod: models.PaymentCheck,
		Items: []models.SaleItemRequest{line(p.ID, "2")},
	})
	require.NoError(t, err)
	got, err = svc.Clients.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assertDecimal(t, "10", got.CurrentDebt)
}
