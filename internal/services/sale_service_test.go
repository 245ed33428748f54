package services

import (
	"sync"
	"testing"
	"time"

	"retail-erp/internal/errs"
	"retail-erp/internal/models"
	"retail-erp/internal/sequence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateSaleMovesStock(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A1", "10", "5")

	s, err := f.svc.Sales.Create(f.ctx, sale("u1", models.PaymentCash, line(p.ID, "3")))
	require.NoError(t, err)

	assert.Equal(t, int64(1), s.SaleNumber)
	assert.Equal(t, models.SaleCompleted, s.Status)
	assertDecimal(t, "15", s.TotalAmount)
	assertDecimal(t, "15", s.FinalAmount)
	require.Len(t, s.Items, 1)
	assert.Equal(t, p.Name, s.Items[0].ProductName)

	assertDecimal(t, "7", f.stockOf(t, p.ID))

	movements, err := f.svc.Products.GetMovements(f.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	m := movements[0]
	assert.Equal(t, models.MovementOut, m.Type)
	assertDecimal(t, "-3", m.Quantity)
	assertDecimal(t, "10", m.PreviousQuantity)
	assertDecimal(t, "7", m.NewQuantity)
	assert.Equal(t, "Venta #1", m.Reason)
	assert.Equal(t, s.ID, m.ReferenceID)
}

func TestCreateSaleUsesPriceOverride(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A1", "10", "5")

	price := dec("4.5")
	req := sale("u1", models.PaymentCash, models.SaleItemRequest{ProductID: p.ID, Quantity: dec("2"), UnitPrice: &price})
	req.Discount = dec("1")

	s, err := f.svc.Sales.Create(f.ctx, req)
	require.NoError(t, err)
	assertDecimal(t, "9", s.TotalAmount)
	assertDecimal(t, "8", s.FinalAmount)
}

func TestCreateSaleInsufficientStockWritesNothing(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A1", "5", "5")
	b := f.product(t, "B1", "50", "1")

	// 3 + 3 de A supera el stock aunque cada línea por sí sola alcance
	_, err := f.svc.Sales.Create(f.ctx, sale("u1", models.PaymentCash, line(b.ID, "1"), line(a.ID, "3"), line(a.ID, "3")))
	assertCode(t, err, errs.CodeInsufficientStock)

	assertDecimal(t, "5", f.stockOf(t, a.ID))
	assertDecimal(t, "50", f.stockOf(t, b.ID))

	sales, err := f.svc.Sales.GetAll(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
	n, err := f.repos.StockMovements.Count(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// el número de la venta rechazada no se consume
	s, err := f.svc.Sales.Create(f.ctx, sale("u1", models.PaymentCash, line(a.ID, "5")))
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.SaleNumber)
	assert.True(t, f.stockOf(t, a.ID).IsZero())
}

func TestCreateSaleRejections(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A1", "10", "5")

	_, err := f.svc.Sales.Create(f.ctx, sale("u1", models.PaymentCash, line("nope", "1")))
	assert.True(t, errs.IsNotFound(err))

	_, err = f.svc.Sales.Create(f.ctx, sale("u1", models.PaymentCash))
	assert.True(t, errs.IsValidation(err))

	_, err = f.svc.Sales.Create(f.ctx, sale("", models.PaymentCash, line(p.ID, "1")))
	assert.True(t, errs.IsValidation(err))

	_, err = f.svc.Sales.Create(f.ctx, sale("u1", "barter", line(p.ID, "1")))
	assert.True(t, errs.IsValidation(err))

	req := sale("u1", models.PaymentCash, line(p.ID, "1"))
	req.Discount = dec("6")
	_, err = f.svc.Sales.Create(f.ctx, req)
	assertCode(t, err, errs.CodeInvalidAmount)

	req = sale("u1", models.PaymentCash, line(p.ID, "1"))
	req.ClientID = "ghost"
	_, err = f.svc.Sales.Create(f.ctx, req)
	assert.True(t, errs.IsNotFound(err))

	req = sale("u1", models.PaymentCash, line(p.ID, "1"))
	req.CashRegisterID = "ghost"
	_, err = f.svc.Sales.Create(f.ctx, req)
	assert.True(t, errs.IsNotFound(err))

	assertDecimal(t, "10", f.stockOf(t, p.ID))
}

func TestCreateSaleCreditLimit(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A1", "100", "10")
	c := f.client(t, "20111", "100")

	req := sale("u1", models.PaymentBankTransfer, line(p.ID, "8"))
	req.ClientID = c.ID
	_, err := f.svc.Sales.Create(f.ctx, req)
	require.NoError(t, err)
	assertDecimal(t, "80", f.debtOf(t, c.ID))

	req = sale("u1", models.PaymentBankTransfer, line(p.ID, "3"))
	req.ClientID = c.ID
	_, err = f.svc.Sales.Create(f.ctx, req)
	assertCode(t, err, errs.CodeCreditLimitExceeded)

	assertDecimal(t, "80", f.debtOf(t, c.ID))
	assertDecimal(t, "92", f.stockOf(t, p.ID))

	// exactamente en el límite se acepta
	req = sale("u1", models.PaymentBankTransfer, line(p.ID, "2"))
	req.ClientID = c.ID
	_, err = f.svc.Sales.Create(f.ctx, req)
	require.NoError(t, err)
	debt := f.debtOf(t, c.ID)
	assertDecimal(t, "100", debt)
	assert.True(t, debt.LessThanOrEqual(c.CreditLimit))

	// pagando en efectivo el límite no aplica
	req = sale("u1", models.PaymentCash, line(p.ID, "5"))
	req.ClientID = c.ID
	_, err = f.svc.Sales.Create(f.ctx, req)
	require.NoError(t, err)
	assertDecimal(t, "100", f.debtOf(t, c.ID))
}

func TestCreateSaleSettlement(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A1", "100", "10")
	c := f.client(t, "20111", "1000")
	r := f.openRegister(t, "u1", "50")

	// en efectivo con caja: asiento de venta
	req := sale("u1", models.PaymentCash, line(p.ID, "2"))
	req.CashRegisterID = r.ID
	s1, err := f.svc.Sales.Create(f.ctx, req)
	require.NoError(t, err)

	// diferido con cliente: deuda y nada en caja
	req = sale("u1", models.PaymentBankTransfer, line(p.ID, "3"))
	req.ClientID = c.ID
	req.CashRegisterID = r.ID
	_, err = f.svc.Sales.Create(f.ctx, req)
	require.NoError(t, err)

	// diferido sin cliente: sin deuda, entra a caja
	req = sale("u1", models.PaymentBankTransfer, line(p.ID, "1"))
	req.CashRegisterID = r.ID
	_, err = f.svc.Sales.Create(f.ctx, req)
	require.NoError(t, err)

	assertDecimal(t, "30", f.debtOf(t, c.ID))

	txs, err := f.svc.CashRegisters.GetTransactions(f.ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, models.TransactionSale, tx.Type)
	}

	register, err := f.svc.CashRegisters.GetByID(f.ctx, r.ID)
	require.NoError(t, err)
	assertDecimal(t, "30", register.TotalSales)

	refs := []string{txs[0].ReferenceID, txs[1].ReferenceID}
	assert.Contains(t, refs, s1.ID)
}

func TestCreateSaleOnClosedRegisterFails(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A1", "10", "10")
	r := f.openRegister(t, "u1", "0")
	_, err := f.svc.CashRegisters.Close(f.ctx, r.ID, &models.CloseRegisterRequest{ClosingBalance: dec("0")})
	require.NoError(t, err)

	req := sale("u1", models.PaymentCash, line(p.ID, "1"))
	req.CashRegisterID = r.ID
	_, err = f.svc.Sales.Create(f.ctx, req)
	assertCode(t, err, errs.CodeRegisterClosed)

	assertDecimal(t, "10", f.stockOf(t, p.ID))
}

func TestSaleNumbersAreSequential(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A1", "100", "1")

	for want := int64(1); want <= 5; want++ {
		s, err := f.svc.Sales.Create(f.ctx, sale("u1", models.PaymentCash, line(p.ID, "1")))
		require.NoError(t, err)
		assert.Equal(t, want, s.SaleNumber)
	}
}

func TestCancelSaleIsExactInverse(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A1", "10", "5")
	b := f.product(t, "B1", "4", "2.5")
	c := f.client(t, "20111", "1000")

	req := sale("u1", models.PaymentBankTransfer, line(a.ID, "3"), line(b.ID, "4"))
	req.ClientID = c.ID
	s, err := f.svc.Sales.Create(f.ctx, req)
	require.NoError(t, err)
	assertDecimal(t, "25", f.debtOf(t, c.ID))

	cancelled, err := f.svc.Sales.Cancel(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SaleCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	assertDecimal(t, "10", f.stockOf(t, a.ID))
	assertDecimal(t, "4", f.stockOf(t, b.ID))
	assert.True(t, f.debtOf(t, c.ID).IsZero())

	for _, id := range []string{a.ID, b.ID} {
		movements, err := f.svc.Products.GetMovements(f.ctx, id)
		require.NoError(t, err)
		require.Len(t, movements, 2)
		assert.Equal(t, models.MovementIn, movements[0].Type)
		assert.Equal(t, "Cancelación venta #1", movements[0].Reason)
		assert.True(t, movements[0].Quantity.Equal(movements[1].Quantity.Neg()))
		assert.Equal(t, s.ID, movements[0].ReferenceID)
	}

	_, err = f.svc.Sales.Cancel(f.ctx, s.ID)
	assertCode(t, err, errs.CodeAlreadyCancelled)
	assertDecimal(t, "10", f.stockOf(t, a.ID))

	_, err = f.svc.Sales.Cancel(f.ctx, "ghost")
	assert.True(t, errs.IsNotFound(err))
}

// restartWith reconstruye los servicios sobre el mismo store con otros medios diferidos
func (f *fixture) restartWith(deferred ...string) *Services {
	return New(f.repos, sequence.NewStoreSequencer(f.repos.Store, zap.NewNop()), nil,
		Options{DeferredPaymentMethods: deferred, Clock: f.clock.Now}, zap.NewNop())
}

func TestCancelSaleUsesSettlementRecordedAtCreate(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A1", "10", "10")
	c := f.client(t, "20111", "1000")
	r := f.openRegister(t, "u1", "100")

	// bank_transfer era diferido al registrar la venta
	req := sale("u1", models.PaymentBankTransfer, line(p.ID, "1"))
	req.ClientID = c.ID
	onAccount, err := f.svc.Sales.Create(f.ctx, req)
	require.NoError(t, err)
	assert.True(t, onAccount.ChargedToDebt)
	assert.False(t, onAccount.CashBooked)
	assertDecimal(t, "10", f.debtOf(t, c.ID))

	// pix no era diferido: entra a la caja
	req = sale("u1", models.PaymentPix, line(p.ID, "1"))
	req.ClientID = c.ID
	req.CashRegisterID = r.ID
	paid, err := f.svc.Sales.Create(f.ctx, req)
	require.NoError(t, err)
	assert.False(t, paid.ChargedToDebt)
	assert.True(t, paid.CashBooked)

	restarted := f.restartWith("pix")

	_, err = restarted.Sales.Cancel(f.ctx, onAccount.ID)
	require.NoError(t, err)
	assert.True(t, f.debtOf(t, c.ID).IsZero())

	_, err = restarted.Sales.Cancel(f.ctx, paid.ID)
	require.NoError(t, err)
	assert.True(t, f.debtOf(t, c.ID).IsZero())
	assertDecimal(t, "10", f.stockOf(t, p.ID))

	expected, err := restarted.CashRegisters.CalculateExpectedBalance(f.ctx, r.ID)
	require.NoError(t, err)
	assertDecimal(t, "100", expected.Expected)
}

func TestCancelSaleRefundsOpenRegister(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A1", "10", "10")
	r := f.openRegister(t, "u1", "100")

	req := sale("u1", models.PaymentCash, line(p.ID, "2"))
	req.CashRegisterID = r.ID
	s, err := f.svc.Sales.Create(f.ctx, req)
	require.NoError(t, err)

	_, err = f.svc.Sales.Cancel(f.ctx, s.ID)
	require.NoError(t, err)

	expected, err := f.svc.CashRegisters.CalculateExpectedBalance(f.ctx, r.ID)
	require.NoError(t, err)
	assertDecimal(t, "100", expected.Expected)
	assert.Equal(t, 2, expected.Transactions)

	txs, err := f.svc.CashRegisters.GetTransactions(f.ctx, r.ID)
	require.NoError(t, err)
	var withdrawals int
	for _, tx := range txs {
		if tx.Type == models.TransactionWithdrawal {
			withdrawals++
			assertDecimal(t, "-20", tx.Amount)
		}
	}
	assert.Equal(t, 1, withdrawals)
}

func TestCancelSaleAfterRegisterClosed(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A1", "10", "10")
	r := f.openRegister(t, "u1", "100")

	req := sale("u1", models.PaymentCash, line(p.ID, "2"))
	req.CashRegisterID = r.ID
	s, err := f.svc.Sales.Create(f.ctx, req)
	require.NoError(t, err)

	_, err = f.svc.CashRegisters.Close(f.ctx, r.ID, &models.CloseRegisterRequest{ClosingBalance: dec("120")})
	require.NoError(t, err)

	_, err = f.svc.Sales.Cancel(f.ctx, s.ID)
	require.NoError(t, err)
	assertDecimal(t, "10", f.stockOf(t, p.ID))

	txs, err := f.svc.CashRegisters.GetTransactions(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A1", "10", "1")

	const buyers = 25
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		numbers  = make(map[int64]bool)
		rejected int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := f.svc.Sales.Create(f.ctx, sale("u1", models.PaymentCash, line(p.ID, "1")))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.True(t, errs.Is(err, errs.CodeInsufficientStock), "error inesperado: %v", err)
				rejected++
				return
			}
			assert.False(t, numbers[s.SaleNumber], "número repetido %d", s.SaleNumber)
			numbers[s.SaleNumber] = true
		}()
	}
	wg.Wait()

	assert.Len(t, numbers, 10)
	assert.Equal(t, buyers-10, rejected)
	for n := int64(1); n <= 10; n++ {
		assert.True(t, numbers[n], "falta el número %d", n)
	}
	assert.True(t, f.stockOf(t, p.ID).IsZero())
}

func TestTodaySales(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "A1", "100", "10")

	yesterday, err := f.svc.Sales.Create(f.ctx, sale("u1", models.PaymentCash, line(p.ID, "1")))
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	_, err = f.svc.Sales.Create(f.ctx, sale("u1", models.PaymentCash, line(p.ID, "2")))
	require.NoError(t, err)
	cancelled, err := f.svc.Sales.Create(f.ctx, sale("u2", models.PaymentCash, line(p.ID, "3")))
	require.NoError(t, err)
	_, err = f.svc.Sales.Cancel(f.ctx, cancelled.ID)
	require.NoError(t, err)

	today, err := f.svc.Sales.GetTodaySales(f.ctx)
	require.NoError(t, err)
	require.Len(t, today, 1)

	total, err := f.svc.Sales.GetTodayTotal(f.ctx)
	require.NoError(t, err)
	assertDecimal(t, "20", total)

	all, err := f.svc.Sales.GetAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, yesterday.ID, all[2].ID)

	byUser, err := f.svc.Sales.GetByUser(f.ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, byUser, 1)
}
