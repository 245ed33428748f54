package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashRegister sesión de caja de un operador
type CashRegister struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id" validate:"required"`
	OpeningDate    time.Time        `json:"opening_date"`
	ClosingDate    *time.Time       `json:"closing_date,omitempty"`
	OpeningBalance decimal.Decimal  `json:"opening_balance" validate:"gte=0"`
	ClosingBalance *decimal.Decimal `json:"closing_balance,omitempty" validate:"omitempty,gte=0"`
	TotalSales     decimal.Decimal  `json:"total_sales" validate:"gte=0"`
	TotalExpenses  decimal.Decimal  `json:"total_expenses" validate:"gte=0"`
	Status         RegisterStatus   `json:"status" validate:"required,oneof=open closed"`
	Notes          string           `json:"notes,omitempty" validate:"max=500"`
}

func (r *CashRegister) GetID() string { return r.ID }

func (r *CashRegister) IsOpen() bool { return r.Status == RegisterOpen }

// CashTransaction movimiento del libro de caja; sale/deposit positivos, expense/withdrawal negativos
type CashTransaction struct {
	ID             string          `json:"id"`
	CashRegisterID string          `json:"cash_register_id" validate:"required"`
	Type           TransactionType `json:"type" validate:"required,oneof=sale expense withdrawal deposit"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  PaymentMethod   `json:"payment_method" validate:"required,oneof=cash credit_card debit_card pix bank_transfer check"`
	Description    string          `json:"description" validate:"max=500"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (t *CashTransaction) GetID() string { return t.ID }
