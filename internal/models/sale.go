package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem línea de una venta o compra
type LineItem struct {
	ProductID   string          `json:"product_id" validate:"required"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gte=0.01"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Subtotal    decimal.Decimal `json:"subtotal" validate:"gte=0"`
}

// Sale venta
type Sale struct {
	ID             string          `json:"id"`
	SaleNumber     int64           `json:"sale_number" validate:"gt=0"`
	ClientID       string          `json:"client_id,omitempty"`
	UserID         string          `json:"user_id" validate:"required"`
	Items          []LineItem      `json:"items" validate:"required,min=1,dive"`
	TotalAmount    decimal.Decimal `json:"total_amount" validate:"gte=0"`
	Discount       decimal.Decimal `json:"discount" validate:"gte=0"`
	FinalAmount    decimal.Decimal `json:"final_amount" validate:"gte=0"`
	PaymentMethod  PaymentMethod   `json:"payment_method" validate:"required,oneof=cash credit_card debit_card pix bank_transfer check"`
	Status         SaleStatus      `json:"status" validate:"required,oneof=completed cancelled pending"`
	Notes          string          `json:"notes,omitempty" validate:"max=500"`
	CashRegisterID string          `json:"cash_register_id,omitempty"`
	// Cómo se saldó al registrarla; Cancel revierte exactamente esto
	ChargedToDebt bool       `json:"charged_to_debt"`
	CashBooked    bool       `json:"cash_booked"`
	CreatedAt     time.Time  `json:"created_at"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

func (s *Sale) GetID() string { return s.ID }

// Purchase orden de compra a un proveedor
type Purchase struct {
	ID             string          `json:"id"`
	PurchaseNumber int64           `json:"purchase_number" validate:"gt=0"`
	SupplierID     string          `json:"supplier_id" validate:"required"`
	UserID         string          `json:"user_id" validate:"required"`
	Items          []LineItem      `json:"items" validate:"required,min=1,dive"`
	TotalAmount    decimal.Decimal `json:"total_amount" validate:"gte=0"`
	Discount       decimal.Decimal `json:"discount" validate:"gte=0"`
	FinalAmount    decimal.Decimal `json:"final_amount" validate:"gte=0"`
	Status         PurchaseStatus  `json:"status" validate:"required,oneof=pending approved received cancelled"`
	ExpectedDate   *time.Time      `json:"expected_date,omitempty"`
	ReceivedDate   *time.Time      `json:"received_date,omitempty"`
	Notes          string          `json:"notes,omitempty" validate:"max=500"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (p *Purchase) GetID() string { return p.ID }

// Totals calcula total, descuento y monto final de un conjunto de líneas
func Totals(items []LineItem, discount decimal.Decimal) (total, final decimal.Decimal) {
	total = decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total, total.Sub(discount)
}
