package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"retail-erp/internal/errs"
	"retail-erp/internal/models"
	"retail-erp/internal/repository"
	"retail-erp/internal/sequence"
	"retail-erp/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const invoiceSequence = "invoice"

// InvoiceService define la emisión y el cobro de facturas.
// Los pagos descuentan la deuda del cliente; la factura no la genera.
type InvoiceService interface {
	Create(ctx context.Context, req *models.CreateInvoiceRequest) (*models.Invoice, error)
	Pay(ctx context.Context, id string, req *models.PaymentRequest) (*models.Invoice, error)
	Cancel(ctx context.Context, id string) (*models.Invoice, error)
	UpdateOverdueStatus(ctx context.Context) (int, error)

	GetByID(ctx context.Context, id string) (*models.Invoice, error)
	GetAll(ctx context.Context) ([]*models.Invoice, error)
	GetByClient(ctx context.Context, clientID string) ([]*models.Invoice, error)
	GetByStatus(ctx context.Context, status models.PaymentStatus) ([]*models.Invoice, error)
	GetOverdue(ctx context.Context) ([]*models.Invoice, error)
}

type invoiceService struct {
	repos    *repository.Repositories
	seq      sequence.Sequencer
	clients  DebtLedger
	validate *validation.Validator
	now      Clock
	logger   *zap.Logger
}

func NewInvoiceService(repos *repository.Repositories, seq sequence.Sequencer, clients DebtLedger, v *validation.Validator, now Clock, logger *zap.Logger) InvoiceService {
	return &invoiceService{repos: repos, seq: seq, clients: clients, validate: v, now: now, logger: logger}
}

// Create emite una factura pendiente sin pagos
func (s *invoiceService) Create(ctx context.Context, req *models.CreateInvoiceRequest) (*models.Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	var invoice *models.Invoice
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		if _, err := s.clients.GetByID(ctx, req.ClientID); err != nil {
			return err
		}
		if req.SaleID != "" {
			sale, err := s.repos.Sales.Get(ctx, req.SaleID)
			if err != nil {
				return storageErr("get_sale", err)
			}
			if sale == nil {
				return errs.NotFound("venta", req.SaleID)
			}
		}

		now := s.now()
		issue := now
		if req.IssueDate != nil {
			issue = *req.IssueDate
		}
		if req.DueDate.Before(issue) {
			return errs.Validation("due_date", "due_date no puede ser anterior a issue_date")
		}

		invoice = &models.Invoice{
			ID:         newID(),
			SaleID:     req.SaleID,
			ClientID:   req.ClientID,
			IssueDate:  issue,
			DueDate:    req.DueDate,
			Amount:     req.Amount,
			PaidAmount: decimal.Zero,
			Status:     models.StatusPending,
			Notes:      req.Notes,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		number, err := s.seq.Next(ctx, invoiceSequence, seedFrom(s.repos.Invoices, func(i *models.Invoice) int64 { return i.InvoiceNumber }))
		if err != nil {
			return storageErr("next_invoice_number", err)
		}
		invoice.InvoiceNumber = number

		if err := s.validate.Struct(invoice); err != nil {
			return err
		}
		return storageErr("create_invoice", s.repos.Invoices.Add(ctx, invoice))
	})
	if err != nil {
		s.logger.Warn("❌ Factura rechazada", zap.String("operation", "create_invoice"), zap.Error(err))
		return nil, err
	}

	s.logger.Info("✅ Factura emitida",
		zap.String("operation", "create_invoice"),
		zap.String("invoice_id", invoice.ID),
		zap.Int64("invoice_number", invoice.InvoiceNumber),
		zap.String("amount", invoice.Amount.String()))
	return invoice, nil
}

// Pay registra un pago total o parcial. Un pago parcial no cambia el estado.
func (s *invoiceService) Pay(ctx context.Context, id string, req *models.PaymentRequest) (*models.Invoice, error) {
	logger := s.logger.With(
		zap.String("operation", "pay_invoice"),
		zap.String("invoice_id", id),
		zap.String("amount", req.Amount.String()),
	)

	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, errs.Validation("amount", "amount debe ser mayor que cero")
	}

	var invoice *models.Invoice
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		switch invoice.Status {
		case models.StatusPaid:
			return errs.BusinessRule(errs.CodeAlreadyPaid, "la factura ya está pagada")
		case models.StatusCancelled:
			return errs.BusinessRule(errs.CodeAlreadyCancelled, "la factura está cancelada")
		}

		paid := invoice.PaidAmount.Add(req.Amount)
		if paid.GreaterThan(invoice.Amount) {
			return errs.BusinessRule(errs.CodeOverpayment,
				fmt.Sprintf("el pago excede el saldo de la factura (saldo %s, pago %s)", invoice.Outstanding(), req.Amount))
		}

		invoice.PaidAmount = paid
		invoice.PaymentMethod = req.PaymentMethod
		if paid.Equal(invoice.Amount) {
			invoice.Status = models.StatusPaid
		}
		invoice.UpdatedAt = s.now()
		if err := s.repos.Invoices.Put(ctx, invoice); err != nil {
			return storageErr("pay_invoice", err)
		}

		_, err = s.clients.UpdateDebt(ctx, invoice.ClientID, req.Amount.Neg())
		return err
	})
	if err != nil {
		logger.Warn("❌ Pago rechazado", zap.Error(err))
		return nil, err
	}

	logger.Info("✅ Pago registrado",
		zap.String("paid_amount", invoice.PaidAmount.String()),
		zap.String("status", string(invoice.Status)))
	return invoice, nil
}

// Cancel anula la factura y devuelve a la deuda lo ya cobrado
func (s *invoiceService) Cancel(ctx context.Context, id string) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		switch invoice.Status {
		case models.StatusPaid:
			return errs.BusinessRule(errs.CodeAlreadyPaid, "no se puede cancelar una factura pagada")
		case models.StatusCancelled:
			return errs.BusinessRule(errs.CodeAlreadyCancelled, "la factura ya está cancelada")
		}

		invoice.Status = models.StatusCancelled
		invoice.UpdatedAt = s.now()
		if err := s.repos.Invoices.Put(ctx, invoice); err != nil {
			return storageErr("cancel_invoice", err)
		}

		if invoice.PaidAmount.IsPositive() {
			if _, err := s.clients.UpdateDebt(ctx, invoice.ClientID, invoice.PaidAmount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Factura cancelada",
		zap.String("operation", "cancel_invoice"),
		zap.String("invoice_id", id),
		zap.String("paid_amount_restored", invoice.PaidAmount.String()))
	return invoice, nil
}

// UpdateOverdueStatus pasa a overdue las pendientes ya vencidas y devuelve cuántas cambió
func (s *invoiceService) UpdateOverdueStatus(ctx context.Context) (int, error) {
	now := s.now()
	updated := 0
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		pending, err := s.repos.Invoices.ByIndex(ctx, "status", string(models.StatusPending))
		if err != nil {
			return storageErr("list_pending_invoices", err)
		}
		for _, inv := range pending {
			if !inv.DueDate.Before(now) {
				continue
			}
			inv.Status = models.StatusOverdue
			inv.UpdatedAt = now
			if err := s.repos.Invoices.Put(ctx, inv); err != nil {
				return storageErr("mark_invoice_overdue", err)
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if updated > 0 {
		s.logger.Info("Facturas vencidas actualizadas",
			zap.String("operation", "invoice_overdue_sweep"),
			zap.Int("updated", updated))
	}
	return updated, nil
}

func (s *invoiceService) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := s.repos.Invoices.Get(ctx, id)
	if err != nil {
		return nil, storageErr("get_invoice", err)
	}
	if inv == nil {
		return nil, errs.NotFound("factura", id)
	}
	return inv, nil
}

// GetAll devuelve las facturas, la emisión más reciente primero
func (s *invoiceService) GetAll(ctx context.Context) ([]*models.Invoice, error) {
	invoices, err := s.repos.Invoices.All(ctx)
	if err != nil {
		return nil, storageErr("list_invoices", err)
	}
	byIssueDesc(invoices)
	return invoices, nil
}

func (s *invoiceService) GetByClient(ctx context.Context, clientID string) ([]*models.Invoice, error) {
	invoices, err := s.repos.Invoices.ByIndex(ctx, "client_id", clientID)
	if err != nil {
		return nil, storageErr("list_invoices_by_client", err)
	}
	byIssueDesc(invoices)
	return invoices, nil
}

func (s *invoiceService) GetByStatus(ctx context.Context, status models.PaymentStatus) ([]*models.Invoice, error) {
	invoices, err := s.repos.Invoices.ByIndex(ctx, "status", string(status))
	if err != nil {
		return nil, storageErr("list_invoices_by_status", err)
	}
	return invoices, nil
}

// GetOverdue facturas impagas con vencimiento pasado, marcadas o no por el barrido
func (s *invoiceService) GetOverdue(ctx context.Context) ([]*models.Invoice, error) {
	now := s.now()
	invoices, err := s.repos.Invoices.Filter(ctx, func(i *models.Invoice) bool {
		return isOverdue(i.Status, i.DueDate, now)
	})
	if err != nil {
		return nil, storageErr("list_overdue_invoices", err)
	}
	return invoices, nil
}

func isOverdue(status models.PaymentStatus, due, now time.Time) bool {
	return (status == models.StatusPending || status == models.StatusOverdue) && due.Before(now)
}

func byIssueDesc(invoices []*models.Invoice) {
	sort.SliceStable(invoices, func(i, j int) bool { return invoices[i].IssueDate.After(invoices[j].IssueDate) })
}
