package services

import (
	"testing"
	"time"

	"retail-erp/internal/errs"
	"retail-erp/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cashTx(typ models.TransactionType, amount string) *models.CashTransactionRequest {
	return &models.CashTransactionRequest{
		Type:          typ,
		Amount:        dec(amount),
		PaymentMethod: models.PaymentCash,
		Description:   string(typ),
	}
}

func TestOneOpenRegisterPerUser(t *testing.T) {
	f := newFixture(t)
	first := f.openRegister(t, "u1", "100")

	_, err := f.svc.CashRegisters.Open(f.ctx, &models.OpenRegisterRequest{UserID: "u1", OpeningBalance: dec("50")})
	assertCode(t, err, errs.CodeRegisterAlreadyOpen)

	// otro usuario no se ve afectado
	f.openRegister(t, "u2", "0")

	open, err := f.svc.CashRegisters.GetOpenRegister(f.ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, first.ID, open.ID)

	closed, err := f.svc.CashRegisters.Close(f.ctx, first.ID, &models.CloseRegisterRequest{ClosingBalance: dec("90")})
	require.NoError(t, err)
	assert.Equal(t, models.RegisterClosed, closed.Status)
	require.NotNil(t, closed.ClosingBalance)
	assertDecimal(t, "90", *closed.ClosingBalance)

	_, err = f.svc.CashRegisters.Close(f.ctx, first.ID, &models.CloseRegisterRequest{ClosingBalance: dec("90")})
	assertCode(t, err, errs.CodeRegisterClosed)

	open, err = f.svc.CashRegisters.GetOpenRegister(f.ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, open)

	second := f.openRegister(t, "u1", "90")
	assert.NotEqual(t, first.ID, second.ID)

	mine, err := f.svc.CashRegisters.GetByUser(f.ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestExpectedBalanceComesFromLedger(t *testing.T) {
	f := newFixture(t)
	r := f.openRegister(t, "u1", "1000")

	for _, req := range []*models.CashTransactionRequest{
		cashTx(models.TransactionSale, "500"),
		cashTx(models.TransactionExpense, "200"),
		cashTx(models.TransactionDeposit, "100"),
		cashTx(models.TransactionWithdrawal, "-50"),
	} {
		_, err := f.svc.CashRegisters.AddTransaction(f.ctx, r.ID, req)
		require.NoError(t, err)
	}

	register, err := f.svc.CashRegisters.GetByID(f.ctx, r.ID)
	require.NoError(t, err)
	assertDecimal(t, "600", register.TotalSales)
	assertDecimal(t, "250", register.TotalExpenses)

	// el resumen guardado se corrompe; el saldo esperado no depende de él
	register.TotalSales = decimal.Zero
	register.TotalExpenses = dec("9999")
	require.NoError(t, f.repos.CashRegisters.Put(f.ctx, register))

	expected, err := f.svc.CashRegisters.CalculateExpectedBalance(f.ctx, r.ID)
	require.NoError(t, err)
	assertDecimal(t, "1350", expected.Expected)
	assertDecimal(t, "1000", expected.OpeningBalance)
	assert.Equal(t, 4, expected.Transactions)

	rebuilt, err := f.svc.CashRegisters.RebuildTotals(f.ctx, r.ID)
	require.NoError(t, err)
	assertDecimal(t, "600", rebuilt.TotalSales)
	assertDecimal(t, "250", rebuilt.TotalExpenses)
}

func TestAddTransactionRules(t *testing.T) {
	f := newFixture(t)
	r := f.openRegister(t, "u1", "10")

	_, err := f.svc.CashRegisters.AddTransaction(f.ctx, r.ID, cashTx(models.TransactionSale, "0"))
	assert.True(t, errs.IsValidation(err))
	_, err = f.svc.CashRegisters.AddTransaction(f.ctx, r.ID, cashTx("refund", "5"))
	assert.True(t, errs.IsValidation(err))
	_, err = f.svc.CashRegisters.AddTransaction(f.ctx, "ghost", cashTx(models.TransactionSale, "5"))
	assert.True(t, errs.IsNotFound(err))

	tx, err := f.svc.CashRegisters.AddTransaction(f.ctx, r.ID, cashTx(models.TransactionExpense, "5"))
	require.NoError(t, err)
	assertDecimal(t, "-5", tx.Amount)

	_, err = f.svc.CashRegisters.Close(f.ctx, r.ID, &models.CloseRegisterRequest{ClosingBalance: dec("5")})
	require.NoError(t, err)

	_, err = f.svc.CashRegisters.AddTransaction(f.ctx, r.ID, cashTx(models.TransactionDeposit, "5"))
	assertCode(t, err, errs.CodeRegisterClosed)

	txs, err := f.svc.CashRegisters.GetTransactions(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestTransactionsListedNewestFirst(t *testing.T) {
	f := newFixture(t)
	r := f.openRegister(t, "u1", "0")
	p := f.product(t, "A1", "10", "5")

	// mismo instante de reloj: manda el orden de registro
	_, err := f.svc.CashRegisters.AddTransaction(f.ctx, r.ID, cashTx(models.TransactionDeposit, "1"))
	require.NoError(t, err)
	_, err = f.svc.CashRegisters.AddTransaction(f.ctx, r.ID, cashTx(models.TransactionExpense, "2"))
	require.NoError(t, err)
	_, err = f.svc.CashRegisters.AddTransaction(f.ctx, r.ID, cashTx(models.TransactionWithdrawal, "3"))
	require.NoError(t, err)

	txs, err := f.svc.CashRegisters.GetTransactions(f.ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, models.TransactionWithdrawal, txs[0].Type)
	assert.Equal(t, models.TransactionExpense, txs[1].Type)
	assert.Equal(t, models.TransactionDeposit, txs[2].Type)

	// el libro de caja y el historial de stock ordenan igual
	_, err = f.svc.Products.AdjustStock(f.ctx, p.ID, &models.StockAdjustmentRequest{Quantity: dec("6"), Reason: "recuento", UserID: "u1"})
	require.NoError(t, err)
	_, err = f.svc.Products.AdjustStock(f.ctx, p.ID, &models.StockAdjustmentRequest{Quantity: dec("4"), Reason: "merma", UserID: "u1"})
	require.NoError(t, err)
	movements, err := f.svc.Products.GetMovements(f.ctx, p.ID)
	require.NoError(t, err)
	require.NotEmpty(t, movements)
	assert.Equal(t, "merma", movements[0].Reason)
}

func TestTodayRegisters(t *testing.T) {
	f := newFixture(t)
	old := f.openRegister(t, "u1", "0")
	_, err := f.svc.CashRegisters.Close(f.ctx, old.ID, &models.CloseRegisterRequest{ClosingBalance: dec("0")})
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	today := f.openRegister(t, "u1", "0")

	got, err := f.svc.CashRegisters.GetTodayRegisters(f.ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, today.ID, got[0].ID)

	all, err := f.svc.CashRegisters.GetAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, today.ID, all[0].ID)
}
