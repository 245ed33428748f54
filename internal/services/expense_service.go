package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"retail-erp/internal/errs"
	"retail-erp/internal/models"
	"retail-erp/internal/repository"
	"retail-erp/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExpenseService define los gastos operativos
type ExpenseService interface {
	Create(ctx context.Context, e *models.Expense) (*models.Expense, error)
	Delete(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (*models.Expense, error)
	GetAll(ctx context.Context) ([]*models.Expense, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.Expense, error)
	GetByCategory(ctx context.Context, category models.ExpenseCategory) ([]*models.Expense, error)
	GetTotalByCategory(ctx context.Context) ([]models.CategoryTotal, error)
}

type expenseService struct {
	repos     *repository.Repositories
	registers CashLedger
	validate  *validation.Validator
	now       Clock
	logger    *zap.Logger
}

func NewExpenseService(repos *repository.Repositories, registers CashLedger, v *validation.Validator, now Clock, logger *zap.Logger) ExpenseService {
	return &expenseService{repos: repos, registers: registers, validate: v, now: now, logger: logger}
}

// Create registra el gasto; con cash_register_id además lo asienta en la caja
func (s *expenseService) Create(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	expense := *e
	expense.ID = newID()
	expense.CreatedAt = s.now()
	if expense.ExpenseDate.IsZero() {
		expense.ExpenseDate = expense.CreatedAt
	}

	if err := s.validate.Struct(&expense); err != nil {
		return nil, err
	}
	if !expense.Amount.IsPositive() {
		return nil, errs.Validation("amount", "amount debe ser mayor que cero")
	}

	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		if err := s.repos.Expenses.Add(ctx, &expense); err != nil {
			return storageErr("create_expense", err)
		}
		if expense.CashRegisterID == "" {
			return nil
		}
		_, err := s.registers.AddTransaction(ctx, expense.CashRegisterID, &models.CashTransactionRequest{
			Type:          models.TransactionExpense,
			Amount:        expense.Amount,
			PaymentMethod: expense.PaymentMethod,
			Description:   fmt.Sprintf("Gasto: %s", expense.Description),
			ReferenceID:   expense.ID,
		})
		return err
	})
	if err != nil {
		s.logger.Warn("❌ Gasto rechazado", zap.String("operation", "create_expense"), zap.Error(err))
		return nil, err
	}

	s.logger.Info("✅ Gasto registrado",
		zap.String("operation", "create_expense"),
		zap.String("expense_id", expense.ID),
		zap.String("category", string(expense.Category)),
		zap.String("amount", expense.Amount.String()))
	return &expense, nil
}

// Delete borra el gasto; lo asentado en caja queda en el libro
func (s *expenseService) Delete(ctx context.Context, id string) error {
	return s.repos.Atomic(ctx, func(ctx context.Context) error {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return storageErr("delete_expense", s.repos.Expenses.Delete(ctx, id))
	})
}

func (s *expenseService) GetByID(ctx context.Context, id string) (*models.Expense, error) {
	e, err := s.repos.Expenses.Get(ctx, id)
	if err != nil {
		return nil, storageErr("get_expense", err)
	}
	if e == nil {
		return nil, errs.NotFound("gasto", id)
	}
	return e, nil
}

// GetAll devuelve los gastos, el más reciente primero
func (s *expenseService) GetAll(ctx context.Context) ([]*models.Expense, error) {
	expenses, err := s.repos.Expenses.All(ctx)
	if err != nil {
		return nil, storageErr("list_expenses", err)
	}
	sort.SliceStable(expenses, func(i, j int) bool { return expenses[i].ExpenseDate.After(expenses[j].ExpenseDate) })
	return expenses, nil
}

// GetByDateRange gastos con expense_date en [start, end]
func (s *expenseService) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.Expense, error) {
	if end.Before(start) {
		return nil, errs.Validation("end", "end no puede ser anterior a start")
	}
	expenses, err := s.repos.Expenses.Filter(ctx, func(e *models.Expense) bool {
		return !e.ExpenseDate.Before(start) && !e.ExpenseDate.After(end)
	})
	if err != nil {
		return nil, storageErr("list_expenses_by_date", err)
	}
	return expenses, nil
}

func (s *expenseService) GetByCategory(ctx context.Context, category models.ExpenseCategory) ([]*models.Expense, error) {
	expenses, err := s.repos.Expenses.ByIndex(ctx, "category", string(category))
	if err != nil {
		return nil, storageErr("list_expenses_by_category", err)
	}
	return expenses, nil
}

// GetTotalByCategory suma por categoría, en orden alfabético
func (s *expenseService) GetTotalByCategory(ctx context.Context) ([]models.CategoryTotal, error) {
	expenses, err := s.repos.Expenses.All(ctx)
	if err != nil {
		return nil, storageErr("total_expenses_by_category", err)
	}

	totals := make(map[models.ExpenseCategory]decimal.Decimal)
	for _, e := range expenses {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}

	out := make([]models.CategoryTotal, 0, len(totals))
	for category, total := range totals {
		out = append(out, models.CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}
