package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"retail-erp/internal/cache"
	"retail-erp/internal/errs"
	"retail-erp/internal/models"
	"retail-erp/internal/repository"
	"retail-erp/internal/sequence"
	"retail-erp/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Clock devuelve la hora actual; los tests la fijan
type Clock func() time.Time

// StockKeeper lo que ventas y compras necesitan del inventario
type StockKeeper interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	ApplyMovement(ctx context.Context, in models.MovementInput) (*models.StockMovement, error)
}

// DebtLedger lo que ventas y facturas necesitan de la cuenta del cliente
type DebtLedger interface {
	GetByID(ctx context.Context, id string) (*models.Client, error)
	CheckCreditLimit(ctx context.Context, id string, amount decimal.Decimal) (bool, error)
	UpdateDebt(ctx context.Context, id string, delta decimal.Decimal) (*models.Client, error)
}

// CashLedger lo que ventas y gastos necesitan de la caja
type CashLedger interface {
	GetByID(ctx context.Context, id string) (*models.CashRegister, error)
	AddTransaction(ctx context.Context, registerID string, req *models.CashTransactionRequest) (*models.CashTransaction, error)
}

// Options ajustes de negocio de los servicios
type Options struct {
	DeferredPaymentMethods []string
	Clock                  Clock
}

// Services agrupa todos los servicios de dominio ya cableados entre sí
type Services struct {
	Products      ProductService
	Clients       ClientService
	Sales         SaleService
	Purchases     PurchaseService
	Invoices      InvoiceService
	Accounts      AccountService
	CashRegisters CashRegisterService
	Expenses      ExpenseService
	Suppliers     SupplierService
	Employees     EmployeeService
}

// New construye los servicios sobre los repositorios dados
func New(repos *repository.Repositories, seq sequence.Sequencer, productCache *cache.ProductCache, opts Options, logger *zap.Logger) *Services {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	v := validation.New()

	deferred := make(map[models.PaymentMethod]bool)
	for _, m := range opts.DeferredPaymentMethods {
		deferred[models.PaymentMethod(m)] = true
	}
	if len(deferred) == 0 {
		deferred[models.PaymentBankTransfer] = true
	}

	products := NewProductService(repos, productCache, v, clock, logger)
	clients := NewClientService(repos, v, clock, logger)
	registers := NewCashRegisterService(repos, v, clock, logger)

	return &Services{
		Products:      products,
		Clients:       clients,
		Sales:         NewSaleService(repos, seq, products, clients, registers, deferred, v, clock, logger),
		Purchases:     NewPurchaseService(repos, seq, products, v, clock, logger),
		Invoices:      NewInvoiceService(repos, seq, clients, v, clock, logger),
		Accounts:      NewAccountService(repos, v, clock, logger),
		CashRegisters: registers,
		Expenses:      NewExpenseService(repos, registers, v, clock, logger),
		Suppliers:     NewSupplierService(repos, v, clock, logger),
		Employees:     NewEmployeeService(repos, v, clock, logger),
	}
}

func newID() string {
	return uuid.NewString()
}

// seedFrom arma la semilla de una secuencia a partir del mayor número existente
func seedFrom[T repository.Entity](c *repository.Collection[T], number func(T) int64) sequence.SeedFunc {
	return func(ctx context.Context) (int64, error) {
		all, err := c.All(ctx)
		if err != nil {
			return 0, err
		}
		var max int64
		for _, v := range all {
			if n := number(v); n > max {
				max = n
			}
		}
		return max, nil
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func sortByName[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(name(items[i])) < strings.ToLower(name(items[j]))
	})
}

func storageErr(op string, err error) error {
	return errs.Wrap(op, err)
}
