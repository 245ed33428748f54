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

// AccountService define las cuentas por cobrar y por pagar.
// A diferencia de las facturas, una cuenta se paga entera en un solo paso.
type AccountService interface {
	Create(ctx context.Context, a *models.Account) (*models.Account, error)
	Update(ctx context.Context, id string, a *models.Account) (*models.Account, error)
	Pay(ctx context.Context, id string, method models.PaymentMethod) (*models.Account, error)
	Cancel(ctx context.Context, id string) (*models.Account, error)
	UpdateOverdueStatus(ctx context.Context) (int, error)

	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetAll(ctx context.Context) ([]*models.Account, error)
	GetByType(ctx context.Context, t models.AccountType) ([]*models.Account, error)
	GetByStatus(ctx context.Context, status models.PaymentStatus) ([]*models.Account, error)
	GetPending(ctx context.Context, t models.AccountType) ([]*models.Account, error)
	GetOverdue(ctx context.Context) ([]*models.Account, error)

	GetTotalReceivable(ctx context.Context) (decimal.Decimal, error)
	GetTotalPayable(ctx context.Context) (decimal.Decimal, error)
	GetCashFlow(ctx context.Context, start, end time.Time) (*models.CashFlow, error)
}

type accountService struct {
	repos    *repository.Repositories
	validate *validation.Validator
	now      Clock
	logger   *zap.Logger
}

func NewAccountService(repos *repository.Repositories, v *validation.Validator, now Clock, logger *zap.Logger) AccountService {
	return &accountService{repos: repos, validate: v, now: now, logger: logger}
}

func (s *accountService) check(a *models.Account) error {
	if err := s.validate.Struct(a); err != nil {
		return err
	}
	if !a.Amount.IsPositive() {
		return errs.Validation("amount", "amount debe ser mayor que cero")
	}
	return nil
}

// Create registra la cuenta como pendiente
func (s *accountService) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	now := s.now()
	account := *a
	account.ID = newID()
	account.Status = models.StatusPending
	account.PaidDate = nil
	account.CreatedAt = now
	account.UpdatedAt = now

	if err := s.check(&account); err != nil {
		return nil, err
	}
	if err := s.repos.Accounts.Add(ctx, &account); err != nil {
		return nil, storageErr("create_account", err)
	}

	s.logger.Info("✅ Cuenta creada",
		zap.String("operation", "create_account"),
		zap.String("account_id", account.ID),
		zap.String("type", string(account.Type)),
		zap.String("amount", account.Amount.String()))
	return &account, nil
}

// Update edita una cuenta abierta; estado y fecha de pago no se tocan por aquí
func (s *accountService) Update(ctx context.Context, id string, a *models.Account) (*models.Account, error) {
	var updated *models.Account
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		existing, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := openAccount(existing); err != nil {
			return err
		}

		next := *a
		next.ID = existing.ID
		next.Status = existing.Status
		next.PaidDate = existing.PaidDate
		next.CreatedAt = existing.CreatedAt
		next.UpdatedAt = s.now()

		if err := s.check(&next); err != nil {
			return err
		}
		if err := s.repos.Accounts.Put(ctx, &next); err != nil {
			return storageErr("update_account", err)
		}
		updated = &next
		return nil
	})
	return updated, err
}

func openAccount(a *models.Account) error {
	switch a.Status {
	case models.StatusPaid:
		return errs.BusinessRule(errs.CodeAlreadyPaid, "la cuenta ya está pagada")
	case models.StatusCancelled:
		return errs.BusinessRule(errs.CodeAlreadyCancelled, "la cuenta está cancelada")
	}
	return nil
}

// Pay salda la cuenta completa
func (s *accountService) Pay(ctx context.Context, id string, method models.PaymentMethod) (*models.Account, error) {
	if !method.Valid() {
		return nil, errs.Validation("payment_method", fmt.Sprintf("medio de pago inválido: %s", method))
	}

	var account *models.Account
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := openAccount(account); err != nil {
			return err
		}

		now := s.now()
		account.Status = models.StatusPaid
		account.PaidDate = &now
		account.PaymentMethod = method
		account.UpdatedAt = now
		return storageErr("pay_account", s.repos.Accounts.Put(ctx, account))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("✅ Cuenta pagada",
		zap.String("operation", "pay_account"),
		zap.String("account_id", id),
		zap.String("amount", account.Amount.String()))
	return account, nil
}

func (s *accountService) Cancel(ctx context.Context, id string) (*models.Account, error) {
	var account *models.Account
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := openAccount(account); err != nil {
			return err
		}
		account.Status = models.StatusCancelled
		account.UpdatedAt = s.now()
		return storageErr("cancel_account", s.repos.Accounts.Put(ctx, account))
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// UpdateOverdueStatus pasa a overdue las pendientes vencidas y devuelve cuántas cambió
func (s *accountService) UpdateOverdueStatus(ctx context.Context) (int, error) {
	now := s.now()
	updated := 0
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		pending, err := s.repos.Accounts.ByIndex(ctx, "status", string(models.StatusPending))
		if err != nil {
			return storageErr("list_pending_accounts", err)
		}
		for _, a := range pending {
			if !a.DueDate.Before(now) {
				continue
			}
			a.Status = models.StatusOverdue
			a.UpdatedAt = now
			if err := s.repos.Accounts.Put(ctx, a); err != nil {
				return storageErr("mark_account_overdue", err)
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if updated > 0 {
		s.logger.Info("Cuentas vencidas actualizadas",
			zap.String("operation", "account_overdue_sweep"),
			zap.Int("updated", updated))
	}
	return updated, nil
}

func (s *accountService) GetByID(ctx context.Context, id string) (*models.Account, error) {
	a, err := s.repos.Accounts.Get(ctx, id)
	if err != nil {
		return nil, storageErr("get_account", err)
	}
	if a == nil {
		return nil, errs.NotFound("cuenta", id)
	}
	return a, nil
}

// GetAll devuelve las cuentas, el vencimiento más lejano primero
func (s *accountService) GetAll(ctx context.Context) ([]*models.Account, error) {
	accounts, err := s.repos.Accounts.All(ctx)
	if err != nil {
		return nil, storageErr("list_accounts", err)
	}
	sort.SliceStable(accounts, func(i, j int) bool { return accounts[i].DueDate.After(accounts[j].DueDate) })
	return accounts, nil
}

func (s *accountService) GetByType(ctx context.Context, t models.AccountType) ([]*models.Account, error) {
	accounts, err := s.repos.Accounts.ByIndex(ctx, "type", string(t))
	if err != nil {
		return nil, storageErr("list_accounts_by_type", err)
	}
	return accounts, nil
}

func (s *accountService) GetByStatus(ctx context.Context, status models.PaymentStatus) ([]*models.Account, error) {
	accounts, err := s.repos.Accounts.ByIndex(ctx, "status", string(status))
	if err != nil {
		return nil, storageErr("list_accounts_by_status", err)
	}
	return accounts, nil
}

// GetPending cuentas del tipo dado que todavía se deben, vencidas o no
func (s *accountService) GetPending(ctx context.Context, t models.AccountType) ([]*models.Account, error) {
	accounts, err := s.GetByType(ctx, t)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Account, 0, len(accounts))
	for _, a := range accounts {
		if a.Status == models.StatusPending || a.Status == models.StatusOverdue {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *accountService) GetOverdue(ctx context.Context) ([]*models.Account, error) {
	now := s.now()
	accounts, err := s.repos.Accounts.Filter(ctx, func(a *models.Account) bool {
		return isOverdue(a.Status, a.DueDate, now)
	})
	if err != nil {
		return nil, storageErr("list_overdue_accounts", err)
	}
	return accounts, nil
}

func (s *accountService) GetTotalReceivable(ctx context.Context) (decimal.Decimal, error) {
	return s.totalPending(ctx, models.AccountReceivable)
}

func (s *accountService) GetTotalPayable(ctx context.Context) (decimal.Decimal, error) {
	return s.totalPending(ctx, models.AccountPayable)
}

func (s *accountService) totalPending(ctx context.Context, t models.AccountType) (decimal.Decimal, error) {
	accounts, err := s.GetPending(ctx, t)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Amount)
	}
	return total, nil
}

// GetCashFlow suma las cuentas pagadas con paid_date en [start, end]
func (s *accountService) GetCashFlow(ctx context.Context, start, end time.Time) (*models.CashFlow, error) {
	if end.Before(start) {
		return nil, errs.Validation("end", "end no puede ser anterior a start")
	}

	paid, err := s.GetByStatus(ctx, models.StatusPaid)
	if err != nil {
		return nil, err
	}

	flow := &models.CashFlow{Start: start, End: end, Inflow: decimal.Zero, Outflow: decimal.Zero}
	for _, a := range paid {
		if a.PaidDate == nil || a.PaidDate.Before(start) || a.PaidDate.After(end) {
			continue
		}
		if a.Type == models.AccountReceivable {
			flow.Inflow = flow.Inflow.Add(a.Amount)
		} else {
			flow.Outflow = flow.Outflow.Add(a.Amount)
		}
	}
	flow.Net = flow.Inflow.Sub(flow.Outflow)
	return flow, nil
}
