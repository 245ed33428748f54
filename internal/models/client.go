package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client cliente con límite de crédito y deuda corriente
type Client struct {
	ID          string          `json:"id"`
	Name        string          `json:"name" validate:"required,min=2,max=200"`
	Document    string          `json:"document" validate:"required,max=20"`
	Email       string          `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone       string          `json:"phone,omitempty" validate:"max=20"`
	Address     string          `json:"address,omitempty" validate:"max=500"`
	City        string          `json:"city,omitempty" validate:"max=100"`
	State       string          `json:"state,omitempty" validate:"max=2"`
	ZipCode     string          `json:"zip_code,omitempty" validate:"max=10"`
	CreditLimit decimal.Decimal `json:"credit_limit" validate:"gte=0"`
	CurrentDebt decimal.Decimal `json:"current_debt" validate:"gte=0"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (c *Client) GetID() string { return c.ID }

// AvailableCredit crédito restante del cliente
func (c *Client) AvailableCredit() decimal.Decimal {
	return c.CreditLimit.Sub(c.CurrentDebt)
}

// Supplier proveedor
type Supplier struct {
	ID            string    `json:"id"`
	Name          string    `json:"name" validate:"required,min=2,max=200"`
	Document      string    `json:"document" validate:"required,max=20"`
	Email         string    `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone         string    `json:"phone,omitempty" validate:"max=20"`
	Address       string    `json:"address,omitempty" validate:"max=500"`
	City          string    `json:"city,omitempty" validate:"max=100"`
	State         string    `json:"state,omitempty" validate:"max=2"`
	ZipCode       string    `json:"zip_code,omitempty" validate:"max=10"`
	ContactPerson string    `json:"contact_person,omitempty" validate:"max=200"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *Supplier) GetID() string { return s.ID }

// Employee empleado
type Employee struct {
	ID              string          `json:"id"`
	Name            string          `json:"name" validate:"required,min=2,max=200"`
	Document        string          `json:"document" validate:"required,max=20"`
	Email           string          `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone           string          `json:"phone,omitempty" validate:"max=20"`
	Position        string          `json:"position" validate:"max=100"`
	Department      string          `json:"department" validate:"max=100"`
	Salary          decimal.Decimal `json:"salary" validate:"gte=0"`
	HireDate        time.Time       `json:"hire_date"`
	TerminationDate *time.Time      `json:"termination_date,omitempty"`
	Address         string          `json:"address,omitempty" validate:"max=500"`
	City            string          `json:"city,omitempty" validate:"max=100"`
	State           string          `json:"state,omitempty" validate:"max=2"`
	ZipCode         string          `json:"zip_code,omitempty" validate:"max=10"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (e *Employee) GetID() string { return e.ID }
