package services

import (
	"testing"

	"retail-erp/internal/errs"
	"retail-erp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchaseRequest(supplierID, productID, qty, price string) *models.CreatePurchaseRequest {
	return &models.CreatePurchaseRequest{
		SupplierID: supplierID,
		UserID:     "u1",
		Items: []models.PurchaseItemRequest{
			{ProductID: productID, Quantity: dec(qty), UnitPrice: dec(price)},
		},
	}
}

func TestReceivePurchaseOnce(t *testing.T) {
	f := newFixture(t)
	sp := f.supplier(t, "30-1")
	p := f.product(t, "A1", "0", "10")

	purchase, err := f.svc.Purchases.Create(f.ctx, purchaseRequest(sp.ID, p.ID, "5", "2"))
	require.NoError(t, err)
	assert.Equal(t, models.PurchasePending, purchase.Status)
	assert.Equal(t, int64(1), purchase.PurchaseNumber)
	assertDecimal(t, "10", purchase.FinalAmount)

	// todavía no aprobada
	_, err = f.svc.Purchases.Receive(f.ctx, purchase.ID, "u1")
	assertCode(t, err, errs.CodeInvalidState)

	_, err = f.svc.Purchases.Approve(f.ctx, purchase.ID)
	require.NoError(t, err)

	_, err = f.svc.Purchases.Receive(f.ctx, purchase.ID, "")
	assert.True(t, errs.IsValidation(err))

	received, err := f.svc.Purchases.Receive(f.ctx, purchase.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseReceived, received.Status)
	require.NotNil(t, received.ReceivedDate)
	assertDecimal(t, "5", f.stockOf(t, p.ID))

	movements, err := f.svc.Products.GetMovements(f.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, models.MovementIn, movements[0].Type)
	assert.Equal(t, "Entrada de compra #1", movements[0].Reason)
	assert.Equal(t, "u2", movements[0].UserID)
	require.NotNil(t, movements[0].UnitCost)
	assertDecimal(t, "2", *movements[0].UnitCost)

	_, err = f.svc.Purchases.Receive(f.ctx, purchase.ID, "u2")
	assertCode(t, err, errs.CodeInvalidState)
	assertDecimal(t, "5", f.stockOf(t, p.ID))

	_, err = f.svc.Purchases.Cancel(f.ctx, purchase.ID)
	assertCode(t, err, errs.CodeInvalidState)
}

func TestReceivePurchaseRollsBackOnMissingProduct(t *testing.T) {
	f := newFixture(t)
	sp := f.supplier(t, "30-1")
	a := f.product(t, "A1", "1", "10")
	b := f.product(t, "B1", "1", "10")

	req := purchaseRequest(sp.ID, a.ID, "5", "2")
	req.Items = append(req.Items, models.PurchaseItemRequest{ProductID: b.ID, Quantity: dec("3"), UnitPrice: dec("1")})
	purchase, err := f.svc.Purchases.Create(f.ctx, req)
	require.NoError(t, err)
	_, err = f.svc.Purchases.Approve(f.ctx, purchase.ID)
	require.NoError(t, err)

	// el producto desaparece del store entre la aprobación y la recepción
	require.NoError(t, f.repos.Products.Delete(f.ctx, b.ID))

	_, err = f.svc.Purchases.Receive(f.ctx, purchase.ID, "u1")
	assert.True(t, errs.IsNotFound(err))

	assertDecimal(t, "1", f.stockOf(t, a.ID))
	got, err := f.svc.Purchases.GetByID(f.ctx, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseApproved, got.Status)
}

func TestPurchaseTransitions(t *testing.T) {
	f := newFixture(t)
	sp := f.supplier(t, "30-1")
	p := f.product(t, "A1", "0", "10")

	_, err := f.svc.Purchases.Create(f.ctx, purchaseRequest("ghost", p.ID, "1", "1"))
	assert.True(t, errs.IsNotFound(err))
	_, err = f.svc.Purchases.Create(f.ctx, purchaseRequest(sp.ID, "ghost", "1", "1"))
	assert.True(t, errs.IsNotFound(err))

	req := purchaseRequest(sp.ID, p.ID, "1", "10")
	req.Discount = dec("11")
	_, err = f.svc.Purchases.Create(f.ctx, req)
	assertCode(t, err, errs.CodeInvalidAmount)

	purchase, err := f.svc.Purchases.Create(f.ctx, purchaseRequest(sp.ID, p.ID, "1", "10"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purchase.PurchaseNumber)

	updated, err := f.svc.Purchases.Update(f.ctx, purchase.ID, purchaseRequest(sp.ID, p.ID, "4", "10"))
	require.NoError(t, err)
	assertDecimal(t, "40", updated.FinalAmount)
	assert.Equal(t, purchase.PurchaseNumber, updated.PurchaseNumber)

	_, err = f.svc.Purchases.Approve(f.ctx, purchase.ID)
	require.NoError(t, err)
	_, err = f.svc.Purchases.Approve(f.ctx, purchase.ID)
	assertCode(t, err, errs.CodeInvalidState)
	_, err = f.svc.Purchases.Update(f.ctx, purchase.ID, purchaseRequest(sp.ID, p.ID, "1", "1"))
	assertCode(t, err, errs.CodeInvalidState)

	cancelled, err := f.svc.Purchases.Cancel(f.ctx, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseCancelled, cancelled.Status)

	_, err = f.svc.Purchases.Cancel(f.ctx, purchase.ID)
	assertCode(t, err, errs.CodeAlreadyCancelled)
	_, err = f.svc.Purchases.Approve(f.ctx, purchase.ID)
	assertCode(t, err, errs.CodeAlreadyCancelled)
	_, err = f.svc.Purchases.Receive(f.ctx, purchase.ID, "u1")
	assertCode(t, err, errs.CodeInvalidState)

	second, err := f.svc.Purchases.Create(f.ctx, purchaseRequest(sp.ID, p.ID, "1", "10"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.PurchaseNumber)

	all, err := f.svc.Purchases.GetAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	bySupplier, err := f.svc.Purchases.GetBySupplier(f.ctx, sp.ID)
	require.NoError(t, err)
	assert.Len(t, bySupplier, 2)
	assert.True(t, f.stockOf(t, p.ID).IsZero())
}
