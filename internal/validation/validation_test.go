package validation

import (
	"testing"

	"retail-erp/internal/errs"
	"retail-erp/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validClient() *models.Client {
	return &models.Client{
		Name:        "Mercado Central",
		Document:    "12345678901",
		Email:       "compras@central.com",
		CreditLimit: decimal.NewFromInt(500),
		CurrentDebt: decimal.Zero,
		Active:      true,
	}
}

func TestValidClientPasses(t *testing.T) {
	assert.NoError(t, New().Struct(validClient()))
}

func TestFirstViolatedFieldIsReported(t *testing.T) {
	c := validClient()
	c.Email = "no-es-email"

	err := New().Struct(c)
	require.Error(t, err)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.KindValidation, e.Kind)
	assert.Equal(t, "email", e.Field)
	assert.Contains(t, e.Message, "email inválido")
}

func TestMinimumLength(t *testing.T) {
	c := validClient()
	c.Name = "A"

	err := New().Struct(c)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "name", e.Field)
	assert.Contains(t, e.Message, "longitud mínima")
}

func TestDecimalBounds(t *testing.T) {
	c := validClient()
	c.CreditLimit = decimal.NewFromInt(-1)

	err := New().Struct(c)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "credit_limit", e.Field)
}

func TestNestedLineItems(t *testing.T) {
	req := &models.CreateSaleRequest{
		UserID:        "u-1",
		PaymentMethod: models.PaymentCash,
		Items: []models.SaleItemRequest{
			{ProductID: "p-1", Quantity: decimal.NewFromInt(1)},
			{ProductID: "p-2", Quantity: decimal.Zero},
		},
	}

	err := New().Struct(req)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "items[1].quantity", e.Field)
}

func TestUnknownPaymentMethod(t *testing.T) {
	req := &models.CreateSaleRequest{
		UserID:        "u-1",
		PaymentMethod: "barter",
		Items:         []models.SaleItemRequest{{ProductID: "p-1", Quantity: decimal.NewFromInt(1)}},
	}

	err := New().Struct(req)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "payment_method", e.Field)
}
