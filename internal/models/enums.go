package models

import "github.com/shopspring/decimal"

// PaymentMethod medio de pago
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentPix          PaymentMethod = "pix"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCheck        PaymentMethod = "check"
)

// PaymentMethods lista los medios de pago aceptados
var PaymentMethods = []PaymentMethod{
	PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentPix, PaymentBankTransfer, PaymentCheck,
}

// Valid reporta si m es un medio de pago conocido
func (m PaymentMethod) Valid() bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleCancelled SaleStatus = "cancelled"
	SalePending   SaleStatus = "pending"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseApproved  PurchaseStatus = "approved"
	PurchaseReceived  PurchaseStatus = "received"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

// PaymentStatus estado compartido por facturas y cuentas
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusPaid      PaymentStatus = "paid"
	StatusOverdue   PaymentStatus = "overdue"
	StatusCancelled PaymentStatus = "cancelled"
)

type AccountType string

const (
	AccountReceivable AccountType = "receivable"
	AccountPayable    AccountType = "payable"
)

type RegisterStatus string

const (
	RegisterOpen   RegisterStatus = "open"
	RegisterClosed RegisterStatus = "closed"
)

type TransactionType string

const (
	TransactionSale       TransactionType = "sale"
	TransactionExpense    TransactionType = "expense"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionDeposit    TransactionType = "deposit"
)

// Inflow reporta si el tipo suma a la caja
func (t TransactionType) Inflow() bool {
	return t == TransactionSale || t == TransactionDeposit
}

// Signed normaliza el signo del monto según el tipo de transacción
func (t TransactionType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t.Inflow() {
		return amount.Abs()
	}
	return amount.Abs().Neg()
}

type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

type ExpenseCategory string

const (
	ExpenseRent        ExpenseCategory = "rent"
	ExpenseUtilities   ExpenseCategory = "utilities"
	ExpenseSalaries    ExpenseCategory = "salaries"
	ExpenseSupplies    ExpenseCategory = "supplies"
	ExpenseMaintenance ExpenseCategory = "maintenance"
	ExpenseTaxes       ExpenseCategory = "taxes"
	ExpenseInsurance   ExpenseCategory = "insurance"
	ExpenseMarketing   ExpenseCategory = "marketing"
	ExpenseTransport   ExpenseCategory = "transport"
	ExpenseOther       ExpenseCategory = "other"
)
