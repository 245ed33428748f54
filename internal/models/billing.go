package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice factura emitida a un cliente
type Invoice struct {
	ID            string          `json:"id"`
	InvoiceNumber int64           `json:"invoice_number" validate:"gt=0"`
	SaleID        string          `json:"sale_id,omitempty"`
	ClientID      string          `json:"client_id" validate:"required"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	Amount        decimal.Decimal `json:"amount" validate:"gte=0"`
	PaidAmount    decimal.Decimal `json:"paid_amount" validate:"gte=0"`
	Status        PaymentStatus   `json:"status" validate:"required,oneof=pending paid cancelled overdue"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty" validate:"omitempty,oneof=cash credit_card debit_card pix bank_transfer check"`
	Notes         string          `json:"notes,omitempty" validate:"max=500"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (i *Invoice) GetID() string { return i.ID }

// Outstanding saldo pendiente de la factura
func (i *Invoice) Outstanding() decimal.Decimal {
	return i.Amount.Sub(i.PaidAmount)
}

// Account cuenta por cobrar o por pagar
type Account struct {
	ID            string          `json:"id"`
	Type          AccountType     `json:"type" validate:"required,oneof=receivable payable"`
	Description   string          `json:"description" validate:"required,min=2,max=500"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
	Status        PaymentStatus   `json:"status" validate:"required,oneof=pending paid cancelled overdue"`
	ClientID      string          `json:"client_id,omitempty"`
	SupplierID    string          `json:"supplier_id,omitempty"`
	InvoiceID     string          `json:"invoice_id,omitempty"`
	PurchaseID    string          `json:"purchase_id,omitempty"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty" validate:"omitempty,oneof=cash credit_card debit_card pix bank_transfer check"`
	Notes         string          `json:"notes,omitempty" validate:"max=500"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (a *Account) GetID() string { return a.ID }

// CashFlow entradas y salidas pagadas en un periodo
type CashFlow struct {
	Start   time.Time       `json:"start"`
	End     time.Time       `json:"end"`
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	Net     decimal.Decimal `json:"net"`
}

// Expense gasto operativo
type Expense struct {
	ID             string          `json:"id"`
	Description    string          `json:"description" validate:"required,min=2,max=500"`
	Category       ExpenseCategory `json:"category" validate:"required,oneof=rent utilities salaries supplies maintenance taxes insurance marketing transport other"`
	Amount         decimal.Decimal `json:"amount" validate:"gte=0"`
	PaymentMethod  PaymentMethod   `json:"payment_method" validate:"required,oneof=cash credit_card debit_card pix bank_transfer check"`
	ExpenseDate    time.Time       `json:"expense_date"`
	SupplierID     string          `json:"supplier_id,omitempty"`
	UserID         string          `json:"user_id" validate:"required"`
	ReceiptNumber  string          `json:"receipt_number,omitempty" validate:"max=100"`
	Notes          string          `json:"notes,omitempty" validate:"max=500"`
	CashRegisterID string          `json:"cash_register_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (e *Expense) GetID() string { return e.ID }
