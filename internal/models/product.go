package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto del inventario
type Product struct {
	ID            string          `json:"id"`
	Code          string          `json:"code" validate:"required,max=50"`
	Name          string          `json:"name" validate:"required,min=2,max=200"`
	Description   string          `json:"description,omitempty" validate:"max=1000"`
	Category      string          `json:"category" validate:"max=100"`
	Unit          string          `json:"unit" validate:"max=20"`
	CostPrice     decimal.Decimal `json:"cost_price" validate:"gte=0"`
	SalePrice     decimal.Decimal `json:"sale_price" validate:"gte=0"`
	StockQuantity decimal.Decimal `json:"stock_quantity" validate:"gte=0"`
	MinStock      decimal.Decimal `json:"min_stock" validate:"gte=0"`
	Barcode       string          `json:"barcode,omitempty" validate:"max=50"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Product) GetID() string { return p.ID }

// LowStock reporta si el stock está en o bajo el mínimo
func (p *Product) LowStock() bool {
	return p.StockQuantity.LessThanOrEqual(p.MinStock)
}

// StockMovement registro de auditoría de un cambio de inventario
type StockMovement struct {
	ID               string           `json:"id"`
	ProductID        string           `json:"product_id" validate:"required"`
	Type             MovementType     `json:"type" validate:"oneof=in out adjustment"`
	Quantity         decimal.Decimal  `json:"quantity"`
	PreviousQuantity decimal.Decimal  `json:"previous_quantity"`
	NewQuantity      decimal.Decimal  `json:"new_quantity" validate:"gte=0"`
	UnitCost         *decimal.Decimal `json:"unit_cost,omitempty" validate:"omitempty,gte=0"`
	Reason           string           `json:"reason" validate:"max=500"`
	ReferenceID      string           `json:"reference_id,omitempty"`
	UserID           string           `json:"user_id" validate:"required"`
	CreatedAt        time.Time        `json:"created_at"`
}

func (m *StockMovement) GetID() string { return m.ID }
