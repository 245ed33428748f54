package repository

import (
	"context"

	"retail-erp/internal/models"
	"retail-erp/internal/store"
)

// Nombres de colección
const (
	Products         = "products"
	StockMovements   = "stock_movements"
	Clients          = "clients"
	Sales            = "sales"
	Purchases        = "purchases"
	Invoices         = "invoices"
	Accounts         = "accounts"
	CashRegisters    = "cash_registers"
	CashTransactions = "cash_transactions"
	Expenses         = "expenses"
	Suppliers        = "suppliers"
	Employees        = "employees"
	Counters         = "counters"
)

// Schema índices de cada colección
func Schema() store.Schema {
	return store.Schema{
		Products: {
			{Field: "code", Unique: true},
			{Field: "barcode"},
			{Field: "category"},
		},
		StockMovements: {
			{Field: "product_id"},
			{Field: "reference_id"},
			{Field: "type"},
		},
		Clients: {
			{Field: "document", Unique: true},
		},
		Sales: {
			{Field: "sale_number", Unique: true},
			{Field: "client_id"},
			{Field: "user_id"},
			{Field: "status"},
		},
		Purchases: {
			{Field: "purchase_number", Unique: true},
			{Field: "supplier_id"},
			{Field: "status"},
		},
		Invoices: {
			{Field: "invoice_number", Unique: true},
			{Field: "client_id"},
			{Field: "sale_id"},
			{Field: "status"},
		},
		Accounts: {
			{Field: "type"},
			{Field: "status"},
		},
		CashRegisters: {
			{Field: "user_id"},
			{Field: "status"},
		},
		CashTransactions: {
			{Field: "cash_register_id"},
			{Field: "reference_id"},
		},
		Expenses: {
			{Field: "category"},
			{Field: "cash_register_id"},
		},
		Suppliers: {
			{Field: "document", Unique: true},
		},
		Employees: {
			{Field: "document", Unique: true},
			{Field: "department"},
		},
		Counters: {},
	}
}

// Repositories agrupa las colecciones del dominio
type Repositories struct {
	Store store.Store

	Products         *Collection[*models.Product]
	StockMovements   *Collection[*models.StockMovement]
	Clients          *Collection[*models.Client]
	Sales            *Collection[*models.Sale]
	Purchases        *Collection[*models.Purchase]
	Invoices         *Collection[*models.Invoice]
	Accounts         *Collection[*models.Account]
	CashRegisters    *Collection[*models.CashRegister]
	CashTransactions *Collection[*models.CashTransaction]
	Expenses         *Collection[*models.Expense]
	Suppliers        *Collection[*models.Supplier]
	Employees        *Collection[*models.Employee]
}

// New crea todas las colecciones sobre s
func New(s store.Store) *Repositories {
	return &Repositories{
		Store:            s,
		Products:         NewCollection(s, Products, func() *models.Product { return new(models.Product) }),
		StockMovements:   NewCollection(s, StockMovements, func() *models.StockMovement { return new(models.StockMovement) }),
		Clients:          NewCollection(s, Clients, func() *models.Client { return new(models.Client) }),
		Sales:            NewCollection(s, Sales, func() *models.Sale { return new(models.Sale) }),
		Purchases:        NewCollection(s, Purchases, func() *models.Purchase { return new(models.Purchase) }),
		Invoices:         NewCollection(s, Invoices, func() *models.Invoice { return new(models.Invoice) }),
		Accounts:         NewCollection(s, Accounts, func() *models.Account { return new(models.Account) }),
		CashRegisters:    NewCollection(s, CashRegisters, func() *models.CashRegister { return new(models.CashRegister) }),
		CashTransactions: NewCollection(s, CashTransactions, func() *models.CashTransaction { return new(models.CashTransaction) }),
		Expenses:         NewCollection(s, Expenses, func() *models.Expense { return new(models.Expense) }),
		Suppliers:        NewCollection(s, Suppliers, func() *models.Supplier { return new(models.Supplier) }),
		Employees:        NewCollection(s, Employees, func() *models.Employee { return new(models.Employee) }),
	}
}

// Counts devuelve la cantidad de registros por colección
func (r *Repositories) Counts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for name := range Schema() {
		n, err := r.Store.Count(ctx, name)
		if err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, nil
}

// Atomic ejecuta fn en una unidad atómica del store (o en la ya abierta en ctx)
func (r *Repositories) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return store.RunAtomic(ctx, r.Store, fn)
}

// Lock serializa, hasta el fin de la unidad abierta en ctx, a quienes pidan la misma clave
func (r *Repositories) Lock(ctx context.Context, key string) error {
	return store.Resolve(ctx, r.Store).Lock(ctx, key)
}
