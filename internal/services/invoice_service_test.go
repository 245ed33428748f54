package services

import (
	"testing"
	"time"

	"retail-erp/internal/errs"
	"retail-erp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clientWithDebt crea un cliente y le carga deuda directamente
func (f *fixture) clientWithDebt(t *testing.T, document, debt string) *models.Client {
	t.Helper()
	c := f.client(t, document, "10000")
	if debt != "0" {
		_, err := f.svc.Clients.UpdateDebt(f.ctx, c.ID, dec(debt))
		require.NoError(t, err)
	}
	return c
}

func (f *fixture) invoice(t *testing.T, clientID, amount string, due time.Duration) *models.Invoice {
	t.Helper()
	inv, err := f.svc.Invoices.Create(f.ctx, &models.CreateInvoiceRequest{
		ClientID: clientID,
		DueDate:  f.clock.Now().Add(due),
		Amount:   dec(amount),
	})
	require.NoError(t, err)
	return inv
}

func pay(amount string) *models.PaymentRequest {
	return &models.PaymentRequest{Amount: dec(amount), PaymentMethod: models.PaymentCash}
}

func TestInvoiceOverpaymentIsRejected(t *testing.T) {
	f := newFixture(t)
	c := f.clientWithDebt(t, "20111", "200")
	inv := f.invoice(t, c.ID, "100", 30*24*time.Hour)
	assert.Equal(t, int64(1), inv.InvoiceNumber)
	assert.Equal(t, models.StatusPending, inv.Status)

	got, err := f.svc.Invoices.Pay(f.ctx, inv.ID, pay("60"))
	require.NoError(t, err)
	assertDecimal(t, "60", got.PaidAmount)
	assert.Equal(t, models.StatusPending, got.Status)

	_, err = f.svc.Invoices.Pay(f.ctx, inv.ID, pay("50"))
	assertCode(t, err, errs.CodeOverpayment)

	got, err = f.svc.Invoices.GetByID(f.ctx, inv.ID)
	require.NoError(t, err)
	assertDecimal(t, "60", got.PaidAmount)
	assert.Equal(t, models.StatusPending, got.Status)
	assertDecimal(t, "140", f.debtOf(t, c.ID))
}

func TestInvoicePaidInFull(t *testing.T) {
	f := newFixture(t)
	c := f.clientWithDebt(t, "20111", "200")
	inv := f.invoice(t, c.ID, "100", 30*24*time.Hour)

	_, err := f.svc.Invoices.Pay(f.ctx, inv.ID, pay("60"))
	require.NoError(t, err)
	got, err := f.svc.Invoices.Pay(f.ctx, inv.ID, &models.PaymentRequest{Amount: dec("40"), PaymentMethod: models.PaymentPix})
	require.NoError(t, err)
	assertDecimal(t, "100", got.PaidAmount)
	assert.Equal(t, models.StatusPaid, got.Status)
	assert.Equal(t, models.PaymentPix, got.PaymentMethod)
	assertDecimal(t, "100", f.debtOf(t, c.ID))

	_, err = f.svc.Invoices.Pay(f.ctx, inv.ID, pay("1"))
	assertCode(t, err, errs.CodeAlreadyPaid)
	_, err = f.svc.Invoices.Cancel(f.ctx, inv.ID)
	assertCode(t, err, errs.CodeAlreadyPaid)
}

func TestInvoicePaymentValidation(t *testing.T) {
	f := newFixture(t)
	c := f.clientWithDebt(t, "20111", "0")
	inv := f.invoice(t, c.ID, "50", time.Hour)

	_, err := f.svc.Invoices.Pay(f.ctx, inv.ID, pay("0"))
	assert.True(t, errs.IsValidation(err))
	_, err = f.svc.Invoices.Pay(f.ctx, inv.ID, &models.PaymentRequest{Amount: dec("1")})
	assert.True(t, errs.IsValidation(err))
	_, err = f.svc.Invoices.Pay(f.ctx, "ghost", pay("1"))
	assert.True(t, errs.IsNotFound(err))

	// sin deuda que cancelar el pago no puede dejarla negativa
	_, err = f.svc.Invoices.Pay(f.ctx, inv.ID, pay("10"))
	assertCode(t, err, errs.CodeNegativeDebt)
	got, err := f.svc.Invoices.GetByID(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.IsZero())
}

func TestInvoiceCreateValidation(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "20111", "0")

	_, err := f.svc.Invoices.Create(f.ctx, &models.CreateInvoiceRequest{
		ClientID: c.ID,
		DueDate:  f.clock.Now().Add(-time.Hour),
		Amount:   dec("10"),
	})
	assert.True(t, errs.IsValidation(err))

	_, err = f.svc.Invoices.Create(f.ctx, &models.CreateInvoiceRequest{
		ClientID: "ghost",
		DueDate:  f.clock.Now().Add(time.Hour),
		Amount:   dec("10"),
	})
	assert.True(t, errs.IsNotFound(err))

	_, err = f.svc.Invoices.Create(f.ctx, &models.CreateInvoiceRequest{
		ClientID: c.ID,
		SaleID:   "ghost",
		DueDate:  f.clock.Now().Add(time.Hour),
		Amount:   dec("10"),
	})
	assert.True(t, errs.IsNotFound(err))

	_, err = f.svc.Invoices.Create(f.ctx, &models.CreateInvoiceRequest{
		ClientID: c.ID,
		DueDate:  f.clock.Now().Add(time.Hour),
		Amount:   dec("0"),
	})
	assert.True(t, errs.IsValidation(err))

	// los rechazos no consumen números
	inv := f.invoice(t, c.ID, "10", time.Hour)
	assert.Equal(t, int64(1), inv.InvoiceNumber)
}

func TestInvoiceCancelRestoresPaidDebt(t *testing.T) {
	f := newFixture(t)
	c := f.clientWithDebt(t, "20111", "100")
	inv := f.invoice(t, c.ID, "100", time.Hour)

	_, err := f.svc.Invoices.Pay(f.ctx, inv.ID, pay("30"))
	require.NoError(t, err)
	assertDecimal(t, "70", f.debtOf(t, c.ID))

	cancelled, err := f.svc.Invoices.Cancel(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assertDecimal(t, "100", f.debtOf(t, c.ID))

	_, err = f.svc.Invoices.Cancel(f.ctx, inv.ID)
	assertCode(t, err, errs.CodeAlreadyCancelled)
	_, err = f.svc.Invoices.Pay(f.ctx, inv.ID, pay("1"))
	assertCode(t, err, errs.CodeAlreadyCancelled)
}

func TestInvoiceOverdueSweep(t *testing.T) {
	f := newFixture(t)
	c := f.clientWithDebt(t, "20111", "100")
	due := f.invoice(t, c.ID, "40", 24*time.Hour)
	later := f.invoice(t, c.ID, "40", 10*24*time.Hour)

	n, err := f.svc.Invoices.UpdateOverdueStatus(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.Advance(2 * 24 * time.Hour)

	overdue, err := f.svc.Invoices.GetOverdue(f.ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, due.ID, overdue[0].ID)
	assert.Equal(t, models.StatusPending, overdue[0].Status)

	n, err = f.svc.Invoices.UpdateOverdueStatus(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.svc.Invoices.UpdateOverdueStatus(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	byStatus, err := f.svc.Invoices.GetByStatus(f.ctx, models.StatusOverdue)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)

	// un pago parcial no saca a la factura de overdue
	got, err := f.svc.Invoices.Pay(f.ctx, due.ID, pay("10"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusOverdue, got.Status)

	got, err = f.svc.Invoices.Pay(f.ctx, due.ID, pay("30"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, got.Status)

	pending, err := f.svc.Invoices.GetByStatus(f.ctx, models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, later.ID, pending[0].ID)

	byClient, err := f.svc.Invoices.GetByClient(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, byClient, 2)
}
