package services

import (
	"context"
	"fmt"
	"sort"

	"retail-erp/internal/errs"
	"retail-erp/internal/models"
	"retail-erp/internal/repository"
	"retail-erp/internal/sequence"
	"retail-erp/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const saleSequence = "sale"

// SaleService define el registro y la anulación de ventas.
//
// Create y Cancel corren en una sola unidad atómica: stock, movimientos,
// deuda del cliente y caja se confirman juntos o no se confirma nada.
type SaleService interface {
	Create(ctx context.Context, req *models.CreateSaleRequest) (*models.Sale, error)
	Cancel(ctx context.Context, id string) (*models.Sale, error)

	GetByID(ctx context.Context, id string) (*models.Sale, error)
	GetAll(ctx context.Context) ([]*models.Sale, error)
	GetByUser(ctx context.Context, userID string) ([]*models.Sale, error)
	GetByClient(ctx context.Context, clientID string) ([]*models.Sale, error)
	GetTodaySales(ctx context.Context) ([]*models.Sale, error)
	GetTodayTotal(ctx context.Context) (decimal.Decimal, error)
}

type saleService struct {
	repos     *repository.Repositories
	seq       sequence.Sequencer
	products  StockKeeper
	clients   DebtLedger
	registers CashLedger
	deferred  map[models.PaymentMethod]bool
	validate  *validation.Validator
	now       Clock
	logger    *zap.Logger
}

func NewSaleService(
	repos *repository.Repositories,
	seq sequence.Sequencer,
	products StockKeeper,
	clients DebtLedger,
	registers CashLedger,
	deferred map[models.PaymentMethod]bool,
	v *validation.Validator,
	now Clock,
	logger *zap.Logger,
) SaleService {
	return &saleService{
		repos:     repos,
		seq:       seq,
		products:  products,
		clients:   clients,
		registers: registers,
		deferred:  deferred,
		validate:  v,
		now:       now,
		logger:    logger,
	}
}

// chargesDebt decide al registrar la venta si se salda contra la cuenta del cliente
func (s *saleService) chargesDebt(sale *models.Sale) bool {
	return sale.ClientID != "" && s.deferred[sale.PaymentMethod]
}

// Create registra una venta completa
func (s *saleService) Create(ctx context.Context, req *models.CreateSaleRequest) (*models.Sale, error) {
	logger := s.logger.With(
		zap.String("operation", "create_sale"),
		zap.String("user_id", req.UserID),
		zap.Int("items", len(req.Items)),
	)

	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	var sale *models.Sale
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		items, err := s.buildItems(ctx, req.Items)
		if err != nil {
			return err
		}

		total, final := models.Totals(items, req.Discount)
		if final.IsNegative() {
			return errs.BusinessRule(errs.CodeInvalidAmount,
				fmt.Sprintf("el descuento %s supera el total %s", req.Discount, total))
		}

		sale = &models.Sale{
			ID:             newID(),
			ClientID:       req.ClientID,
			UserID:         req.UserID,
			Items:          items,
			TotalAmount:    total,
			Discount:       req.Discount,
			FinalAmount:    final,
			PaymentMethod:  req.PaymentMethod,
			Status:         models.SaleCompleted,
			Notes:          req.Notes,
			CashRegisterID: req.CashRegisterID,
			CreatedAt:      s.now(),
		}
		sale.ChargedToDebt = s.chargesDebt(sale)
		sale.CashBooked = !sale.ChargedToDebt && sale.CashRegisterID != "" && sale.FinalAmount.IsPositive()

		if sale.ClientID != "" {
			if _, err := s.clients.GetByID(ctx, sale.ClientID); err != nil {
				return err
			}
		}
		if sale.ChargedToDebt {
			ok, err := s.clients.CheckCreditLimit(ctx, sale.ClientID, sale.FinalAmount)
			if err != nil {
				return err
			}
			if !ok {
				return errs.BusinessRule(errs.CodeCreditLimitExceeded, "el cliente excedió su límite de crédito")
			}
		}
		if sale.CashRegisterID != "" && !sale.ChargedToDebt {
			if _, err := s.registers.GetByID(ctx, sale.CashRegisterID); err != nil {
				return err
			}
		}

		number, err := s.seq.Next(ctx, saleSequence, seedFrom(s.repos.Sales, func(v *models.Sale) int64 { return v.SaleNumber }))
		if err != nil {
			return storageErr("next_sale_number", err)
		}
		sale.SaleNumber = number

		if err := s.validate.Struct(sale); err != nil {
			return err
		}
		if err := s.repos.Sales.Add(ctx, sale); err != nil {
			return storageErr("create_sale", err)
		}

		for _, it := range sale.Items {
			_, err := s.products.ApplyMovement(ctx, models.MovementInput{
				ProductID:   it.ProductID,
				Delta:       it.Quantity.Neg(),
				Type:        models.MovementOut,
				Reason:      fmt.Sprintf("Venta #%d", sale.SaleNumber),
				ReferenceID: sale.ID,
				UserID:      sale.UserID,
			})
			if err != nil {
				return err
			}
		}

		if sale.ChargedToDebt {
			if _, err := s.clients.UpdateDebt(ctx, sale.ClientID, sale.FinalAmount); err != nil {
				return err
			}
		} else if sale.CashBooked {
			_, err := s.registers.AddTransaction(ctx, sale.CashRegisterID, &models.CashTransactionRequest{
				Type:          models.TransactionSale,
				Amount:        sale.FinalAmount,
				PaymentMethod: sale.PaymentMethod,
				Description:   fmt.Sprintf("Venta #%d", sale.SaleNumber),
				ReferenceID:   sale.ID,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Warn("❌ Venta rechazada", zap.Error(err))
		return nil, err
	}

	logger.Info("✅ Venta registrada",
		zap.String("sale_id", sale.ID),
		zap.Int64("sale_number", sale.SaleNumber),
		zap.String("final_amount", sale.FinalAmount.String()),
		zap.String("payment_method", string(sale.PaymentMethod)))
	return sale, nil
}

// buildItems arma las líneas de la venta y verifica el stock antes de escribir nada.
// Las líneas repetidas de un mismo producto se suman para la verificación.
func (s *saleService) buildItems(ctx context.Context, reqItems []models.SaleItemRequest) ([]models.LineItem, error) {
	items := make([]models.LineItem, 0, len(reqItems))
	needed := make(map[string]decimal.Decimal)
	products := make(map[string]*models.Product)
	order := make([]string, 0)

	for _, ri := range reqItems {
		p, ok := products[ri.ProductID]
		if !ok {
			var err error
			p, err = s.products.GetByID(ctx, ri.ProductID)
			if err != nil {
				return nil, err
			}
			products[ri.ProductID] = p
			order = append(order, ri.ProductID)
		}

		price := p.SalePrice
		if ri.UnitPrice != nil {
			price = *ri.UnitPrice
		}
		items = append(items, models.LineItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    ri.Quantity,
			UnitPrice:   price,
			Subtotal:    ri.Quantity.Mul(price),
		})
		needed[p.ID] = needed[p.ID].Add(ri.Quantity)
	}

	for _, id := range order {
		p := products[id]
		if p.StockQuantity.LessThan(needed[id]) {
			return nil, errs.BusinessRule(errs.CodeInsufficientStock,
				fmt.Sprintf("stock insuficiente para %s: disponible %s, solicitado %s", p.Name, p.StockQuantity, needed[id]))
		}
	}
	return items, nil
}

// Cancel anula una venta y revierte stock, deuda y caja
func (s *saleService) Cancel(ctx context.Context, id string) (*models.Sale, error) {
	logger := s.logger.With(zap.String("operation", "cancel_sale"), zap.String("sale_id", id))

	var sale *models.Sale
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if sale.Status == models.SaleCancelled {
			return errs.BusinessRule(errs.CodeAlreadyCancelled, "la venta ya está cancelada")
		}

		for _, it := range sale.Items {
			_, err := s.products.ApplyMovement(ctx, models.MovementInput{
				ProductID:   it.ProductID,
				Delta:       it.Quantity,
				Type:        models.MovementIn,
				Reason:      fmt.Sprintf("Cancelación venta #%d", sale.SaleNumber),
				ReferenceID: sale.ID,
				UserID:      sale.UserID,
			})
			if err != nil {
				return err
			}
		}

		if sale.ChargedToDebt {
			if _, err := s.clients.UpdateDebt(ctx, sale.ClientID, sale.FinalAmount.Neg()); err != nil {
				return err
			}
		} else if err := s.refundCash(ctx, sale); err != nil {
			return err
		}

		now := s.now()
		sale.Status = models.SaleCancelled
		sale.CancelledAt = &now
		return storageErr("cancel_sale", s.repos.Sales.Put(ctx, sale))
	})
	if err != nil {
		logger.Warn("❌ Venta no cancelada", zap.Error(err))
		return nil, err
	}

	logger.Info("✅ Venta cancelada", zap.Int64("sale_number", sale.SaleNumber))
	return sale, nil
}

// refundCash devuelve el efectivo a la caja de la venta si sigue abierta.
// Con la caja cerrada la diferencia queda para el arqueo.
func (s *saleService) refundCash(ctx context.Context, sale *models.Sale) error {
	if !sale.CashBooked {
		return nil
	}
	register, err := s.registers.GetByID(ctx, sale.CashRegisterID)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !register.IsOpen() {
		s.logger.Warn("Caja cerrada, la devolución no se registra",
			zap.String("sale_id", sale.ID),
			zap.String("register_id", register.ID))
		return nil
	}
	_, err = s.registers.AddTransaction(ctx, register.ID, &models.CashTransactionRequest{
		Type:          models.TransactionWithdrawal,
		Amount:        sale.FinalAmount,
		PaymentMethod: sale.PaymentMethod,
		Description:   fmt.Sprintf("Cancelación venta #%d", sale.SaleNumber),
		ReferenceID:   sale.ID,
	})
	return err
}

func (s *saleService) GetByID(ctx context.Context, id string) (*models.Sale, error) {
	sale, err := s.repos.Sales.Get(ctx, id)
	if err != nil {
		return nil, storageErr("get_sale", err)
	}
	if sale == nil {
		return nil, errs.NotFound("venta", id)
	}
	return sale, nil
}

// GetAll devuelve las ventas, la más reciente primero
func (s *saleService) GetAll(ctx context.Context) ([]*models.Sale, error) {
	sales, err := s.repos.Sales.All(ctx)
	if err != nil {
		return nil, storageErr("list_sales", err)
	}
	newestFirst(sales)
	return sales, nil
}

func (s *saleService) GetByUser(ctx context.Context, userID string) ([]*models.Sale, error) {
	sales, err := s.repos.Sales.ByIndex(ctx, "user_id", userID)
	if err != nil {
		return nil, storageErr("list_sales_by_user", err)
	}
	newestFirst(sales)
	return sales, nil
}

func (s *saleService) GetByClient(ctx context.Context, clientID string) ([]*models.Sale, error) {
	sales, err := s.repos.Sales.ByIndex(ctx, "client_id", clientID)
	if err != nil {
		return nil, storageErr("list_sales_by_client", err)
	}
	newestFirst(sales)
	return sales, nil
}

// GetTodaySales ventas completadas del día
func (s *saleService) GetTodaySales(ctx context.Context) ([]*models.Sale, error) {
	today := s.now()
	sales, err := s.repos.Sales.Filter(ctx, func(v *models.Sale) bool {
		return v.Status == models.SaleCompleted && sameDay(v.CreatedAt, today)
	})
	if err != nil {
		return nil, storageErr("list_today_sales", err)
	}
	newestFirst(sales)
	return sales, nil
}

func (s *saleService) GetTodayTotal(ctx context.Context) (decimal.Decimal, error) {
	sales, err := s.GetTodaySales(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, v := range sales {
		total = total.Add(v.FinalAmount)
	}
	return total, nil
}

func newestFirst(sales []*models.Sale) {
	sort.SliceStable(sales, func(i, j int) bool { return sales[i].CreatedAt.After(sales[j].CreatedAt) })
}
