package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ===== REQUEST DTOs =====

// SaleItemRequest línea pedida en una venta; sin unit_price se usa el precio de venta del producto
type SaleItemRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity" validate:"gte=0.01"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
}

// CreateSaleRequest DTO para registrar una venta
type CreateSaleRequest struct {
	ClientID       string            `json:"client_id,omitempty"`
	UserID         string            `json:"user_id" validate:"required"`
	Items          []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	Discount       decimal.Decimal   `json:"discount" validate:"gte=0"`
	PaymentMethod  PaymentMethod     `json:"payment_method" validate:"required,oneof=cash credit_card debit_card pix bank_transfer check"`
	Notes          string            `json:"notes,omitempty" validate:"max=500"`
	CashRegisterID string            `json:"cash_register_id,omitempty"`
}

// PurchaseItemRequest línea de una orden de compra
type PurchaseItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gte=0.01"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

// CreatePurchaseRequest DTO para crear o editar una compra
type CreatePurchaseRequest struct {
	SupplierID   string                `json:"supplier_id" validate:"required"`
	UserID       string                `json:"user_id" validate:"required"`
	Items        []PurchaseItemRequest `json:"items" validate:"required,min=1,dive"`
	Discount     decimal.Decimal       `json:"discount" validate:"gte=0"`
	ExpectedDate *time.Time            `json:"expected_date,omitempty"`
	Notes        string                `json:"notes,omitempty" validate:"max=500"`
}

// CreateInvoiceRequest DTO para emitir una factura
type CreateInvoiceRequest struct {
	ClientID  string          `json:"client_id" validate:"required"`
	SaleID    string          `json:"sale_id,omitempty"`
	IssueDate *time.Time      `json:"issue_date,omitempty"`
	DueDate   time.Time       `json:"due_date" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Notes     string          `json:"notes,omitempty" validate:"max=500"`
}

// PaymentRequest DTO para pagos de facturas y cuentas
type PaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method" validate:"required,oneof=cash credit_card debit_card pix bank_transfer check"`
}

// OpenRegisterRequest DTO para abrir caja
type OpenRegisterRequest struct {
	UserID         string          `json:"user_id" validate:"required"`
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"gte=0"`
	Notes          string          `json:"notes,omitempty" validate:"max=500"`
}

// CloseRegisterRequest DTO para cerrar caja
type CloseRegisterRequest struct {
	ClosingBalance decimal.Decimal `json:"closing_balance" validate:"gte=0"`
	Notes          string          `json:"notes,omitempty" validate:"max=500"`
}

// CashTransactionRequest DTO para registrar un movimiento de caja
type CashTransactionRequest struct {
	Type          TransactionType `json:"type" validate:"required,oneof=sale expense withdrawal deposit"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method" validate:"required,oneof=cash credit_card debit_card pix bank_transfer check"`
	Description   string          `json:"description" validate:"max=500"`
	ReferenceID   string          `json:"reference_id,omitempty"`
}

// StockAdjustmentRequest DTO para ajustar el stock a una cantidad contada
type StockAdjustmentRequest struct {
	Quantity decimal.Decimal `json:"quantity" validate:"gte=0"`
	Reason   string          `json:"reason" validate:"required,max=500"`
	UserID   string          `json:"user_id" validate:"required"`
}

// MovementInput cambio de stock con su registro de auditoría
type MovementInput struct {
	ProductID   string
	Delta       decimal.Decimal
	Type        MovementType
	Reason      string
	ReferenceID string
	UserID      string
	UnitCost    *decimal.Decimal
}

// QuickSaleItem línea de venta de mostrador identificada por código de barras
type QuickSaleItem struct {
	Barcode  string          `json:"barcode" validate:"required"`
	Quantity decimal.Decimal `json:"quantity" validate:"gte=0.01"`
}

// QuickSaleRequest venta de mostrador (POS) por códigos de barras
type QuickSaleRequest struct {
	UserID         string          `json:"user_id" validate:"required"`
	ClientID       string          `json:"client_id,omitempty"`
	Items          []QuickSaleItem `json:"items" validate:"required,min=1,dive"`
	Discount       decimal.Decimal `json:"discount" validate:"gte=0"`
	PaymentMethod  PaymentMethod   `json:"payment_method" validate:"required,oneof=cash credit_card debit_card pix bank_transfer check"`
	CashRegisterID string          `json:"cash_register_id,omitempty"`
	Notes          string          `json:"notes,omitempty" validate:"max=500"`
}

// PreloadRequest códigos de barras a precargar en el caché del POS
type PreloadRequest struct {
	Barcodes []string `json:"barcodes" validate:"required,min=1"`
}

// ReceivePurchaseRequest DTO para recibir una compra
type ReceivePurchaseRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// CreditCheckRequest DTO para consultar el crédito disponible
type CreditCheckRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gte=0"`
}

// ===== RESPONSE DTOs =====

// APIResponse envoltorio común de respuestas
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Field   string      `json:"field,omitempty"`
}

// ProductPOSResponse respuesta optimizada para POS
type ProductPOSResponse struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Barcode       string          `json:"barcode"`
	Unit          string          `json:"unit"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
}

// NewProductPOSResponse arma la respuesta POS de un producto
func NewProductPOSResponse(p *Product) ProductPOSResponse {
	return ProductPOSResponse{
		ID:            p.ID,
		Code:          p.Code,
		Name:          p.Name,
		Barcode:       p.Barcode,
		Unit:          p.Unit,
		SalePrice:     p.SalePrice,
		StockQuantity: p.StockQuantity,
	}
}

// ExpectedBalance balance esperado de una caja
type ExpectedBalance struct {
	CashRegisterID string          `json:"cash_register_id"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Expected       decimal.Decimal `json:"expected_balance"`
	Transactions   int             `json:"transactions"`
}

// CategoryTotal total de gastos por categoría
type CategoryTotal struct {
	Category ExpenseCategory `json:"category"`
	Total    decimal.Decimal `json:"total"`
}
