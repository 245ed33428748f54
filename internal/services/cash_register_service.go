package services

import (
	"context"
	"sort"

	"retail-erp/internal/errs"
	"retail-erp/internal/models"
	"retail-erp/internal/repository"
	"retail-erp/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CashRegisterService define las sesiones de caja y su libro de movimientos.
//
// El libro (cash_transactions) es la fuente de verdad. total_sales y
// total_expenses del registro son un resumen que se actualiza en la misma
// unidad atómica que cada movimiento y que RebuildTotals puede recalcular.
type CashRegisterService interface {
	Open(ctx context.Context, req *models.OpenRegisterRequest) (*models.CashRegister, error)
	Close(ctx context.Context, id string, req *models.CloseRegisterRequest) (*models.CashRegister, error)
	AddTransaction(ctx context.Context, registerID string, req *models.CashTransactionRequest) (*models.CashTransaction, error)

	GetByID(ctx context.Context, id string) (*models.CashRegister, error)
	GetAll(ctx context.Context) ([]*models.CashRegister, error)
	GetByUser(ctx context.Context, userID string) ([]*models.CashRegister, error)
	GetOpenRegister(ctx context.Context, userID string) (*models.CashRegister, error)
	GetTodayRegisters(ctx context.Context) ([]*models.CashRegister, error)
	GetTransactions(ctx context.Context, registerID string) ([]*models.CashTransaction, error)

	CalculateExpectedBalance(ctx context.Context, registerID string) (*models.ExpectedBalance, error)
	RebuildTotals(ctx context.Context, registerID string) (*models.CashRegister, error)
}

type cashRegisterService struct {
	repos    *repository.Repositories
	validate *validation.Validator
	now      Clock
	logger   *zap.Logger
}

func NewCashRegisterService(repos *repository.Repositories, v *validation.Validator, now Clock, logger *zap.Logger) CashRegisterService {
	return &cashRegisterService{repos: repos, validate: v, now: now, logger: logger}
}

// Open abre una caja; un usuario no puede tener dos abiertas
func (s *cashRegisterService) Open(ctx context.Context, req *models.OpenRegisterRequest) (*models.CashRegister, error) {
	logger := s.logger.With(zap.String("operation", "open_register"), zap.String("user_id", req.UserID))

	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	register := &models.CashRegister{
		ID:             newID(),
		UserID:         req.UserID,
		OpeningDate:    s.now(),
		OpeningBalance: req.OpeningBalance,
		TotalSales:     decimal.Zero,
		TotalExpenses:  decimal.Zero,
		Status:         models.RegisterOpen,
		Notes:          req.Notes,
	}

	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		if err := s.repos.Lock(ctx, "register:user:"+req.UserID); err != nil {
			return storageErr("open_register", err)
		}
		open, err := s.GetOpenRegister(ctx, req.UserID)
		if err != nil {
			return err
		}
		if open != nil {
			return errs.BusinessRule(errs.CodeRegisterAlreadyOpen, "el usuario ya tiene una caja abierta")
		}
		if err := s.validate.Struct(register); err != nil {
			return err
		}
		return storageErr("open_register", s.repos.CashRegisters.Add(ctx, register))
	})
	if err != nil {
		logger.Warn("❌ Caja no abierta", zap.Error(err))
		return nil, err
	}

	logger.Info("✅ Caja abierta",
		zap.String("register_id", register.ID),
		zap.String("opening_balance", register.OpeningBalance.String()))
	return register, nil
}

// Close cierra la caja. No concilia el saldo informado con el esperado.
func (s *cashRegisterService) Close(ctx context.Context, id string, req *models.CloseRegisterRequest) (*models.CashRegister, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	var closed *models.CashRegister
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		r, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !r.IsOpen() {
			return errs.BusinessRule(errs.CodeRegisterClosed, "la caja ya está cerrada")
		}

		now := s.now()
		balance := req.ClosingBalance
		r.ClosingDate = &now
		r.ClosingBalance = &balance
		r.Status = models.RegisterClosed
		if req.Notes != "" {
			r.Notes = req.Notes
		}

		if err := s.validate.Struct(r); err != nil {
			return err
		}
		if err := s.repos.CashRegisters.Put(ctx, r); err != nil {
			return storageErr("close_register", err)
		}
		closed = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("✅ Caja cerrada",
		zap.String("operation", "close_register"),
		zap.String("register_id", id),
		zap.String("closing_balance", req.ClosingBalance.String()))
	return closed, nil
}

// AddTransaction agrega un movimiento al libro y actualiza el resumen del registro.
// El signo del monto se normaliza según el tipo.
func (s *cashRegisterService) AddTransaction(ctx context.Context, registerID string, req *models.CashTransactionRequest) (*models.CashTransaction, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Amount.IsZero() {
		return nil, errs.Validation("amount", "amount debe ser distinto de cero")
	}

	var tx *models.CashTransaction
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		r, err := s.GetByID(ctx, registerID)
		if err != nil {
			return err
		}
		if !r.IsOpen() {
			return errs.BusinessRule(errs.CodeRegisterClosed, "la caja está cerrada")
		}

		tx = &models.CashTransaction{
			ID:             newID(),
			CashRegisterID: registerID,
			Type:           req.Type,
			Amount:         req.Type.Signed(req.Amount),
			PaymentMethod:  req.PaymentMethod,
			Description:    req.Description,
			ReferenceID:    req.ReferenceID,
			CreatedAt:      s.now(),
		}
		if err := s.validate.Struct(tx); err != nil {
			return err
		}
		if err := s.repos.CashTransactions.Add(ctx, tx); err != nil {
			return storageErr("add_cash_transaction", err)
		}

		applyToTotals(r, tx)
		return storageErr("add_cash_transaction", s.repos.CashRegisters.Put(ctx, r))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Movimiento de caja registrado",
		zap.String("operation", "add_cash_transaction"),
		zap.String("register_id", registerID),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.String()))
	return tx, nil
}

func applyToTotals(r *models.CashRegister, tx *models.CashTransaction) {
	if tx.Type.Inflow() {
		r.TotalSales = r.TotalSales.Add(tx.Amount)
		return
	}
	r.TotalExpenses = r.TotalExpenses.Add(tx.Amount.Abs())
}

func (s *cashRegisterService) GetByID(ctx context.Context, id string) (*models.CashRegister, error) {
	r, err := s.repos.CashRegisters.Get(ctx, id)
	if err != nil {
		return nil, storageErr("get_register", err)
	}
	if r == nil {
		return nil, errs.NotFound("caja", id)
	}
	return r, nil
}

// GetAll devuelve las cajas, la apertura más reciente primero
func (s *cashRegisterService) GetAll(ctx context.Context) ([]*models.CashRegister, error) {
	registers, err := s.repos.CashRegisters.All(ctx)
	if err != nil {
		return nil, storageErr("list_registers", err)
	}
	sort.SliceStable(registers, func(i, j int) bool {
		return registers[i].OpeningDate.After(registers[j].OpeningDate)
	})
	return registers, nil
}

func (s *cashRegisterService) GetByUser(ctx context.Context, userID string) ([]*models.CashRegister, error) {
	registers, err := s.repos.CashRegisters.ByIndex(ctx, "user_id", userID)
	if err != nil {
		return nil, storageErr("list_registers_by_user", err)
	}
	return registers, nil
}

// GetOpenRegister devuelve la caja abierta del usuario, o nil si no tiene
func (s *cashRegisterService) GetOpenRegister(ctx context.Context, userID string) (*models.CashRegister, error) {
	registers, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, r := range registers {
		if r.IsOpen() {
			return r, nil
		}
	}
	return nil, nil
}

func (s *cashRegisterService) GetTodayRegisters(ctx context.Context) ([]*models.CashRegister, error) {
	registers, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	today := s.now()
	out := make([]*models.CashRegister, 0)
	for _, r := range registers {
		if sameDay(r.OpeningDate, today) {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetTransactions devuelve el libro de la caja, el más reciente primero
func (s *cashRegisterService) GetTransactions(ctx context.Context, registerID string) ([]*models.CashTransaction, error) {
	txs, err := s.repos.CashTransactions.ByIndex(ctx, "cash_register_id", registerID)
	if err != nil {
		return nil, storageErr("list_cash_transactions", err)
	}
	for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
		txs[i], txs[j] = txs[j], txs[i]
	}
	return txs, nil
}

// CalculateExpectedBalance suma el saldo de apertura y todo el libro,
// sin mirar el resumen guardado en el registro
func (s *cashRegisterService) CalculateExpectedBalance(ctx context.Context, registerID string) (*models.ExpectedBalance, error) {
	r, err := s.GetByID(ctx, registerID)
	if err != nil {
		return nil, err
	}
	txs, err := s.GetTransactions(ctx, registerID)
	if err != nil {
		return nil, err
	}

	balance := r.OpeningBalance
	for _, tx := range txs {
		balance = balance.Add(tx.Type.Signed(tx.Amount))
	}

	return &models.ExpectedBalance{
		CashRegisterID: registerID,
		OpeningBalance: r.OpeningBalance,
		Expected:       balance,
		Transactions:   len(txs),
	}, nil
}

// RebuildTotals recalcula total_sales y total_expenses desde el libro
func (s *cashRegisterService) RebuildTotals(ctx context.Context, registerID string) (*models.CashRegister, error) {
	var rebuilt *models.CashRegister
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		r, err := s.GetByID(ctx, registerID)
		if err != nil {
			return err
		}
		txs, err := s.GetTransactions(ctx, registerID)
		if err != nil {
			return err
		}

		before := [2]decimal.Decimal{r.TotalSales, r.TotalExpenses}
		r.TotalSales = decimal.Zero
		r.TotalExpenses = decimal.Zero
		for _, tx := range txs {
			applyToTotals(r, tx)
		}

		if !before[0].Equal(r.TotalSales) || !before[1].Equal(r.TotalExpenses) {
			s.logger.Warn("Resumen de caja corregido",
				zap.String("operation", "rebuild_totals"),
				zap.String("register_id", registerID),
				zap.String("total_sales_before", before[0].String()),
				zap.String("total_sales", r.TotalSales.String()),
				zap.String("total_expenses_before", before[1].String()),
				zap.String("total_expenses", r.TotalExpenses.String()))
		}

		if err := s.repos.CashRegisters.Put(ctx, r); err != nil {
			return storageErr("rebuild_totals", err)
		}
		rebuilt = r
		return nil
	})
	return rebuilt, err
}
