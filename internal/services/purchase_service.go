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

	"go.uber.org/zap"
)

const purchaseSequence = "purchase"

// PurchaseService define el ciclo de una orden de compra:
// pending -> approved -> received, o cancelled antes de recibirse.
type PurchaseService interface {
	Create(ctx context.Context, req *models.CreatePurchaseRequest) (*models.Purchase, error)
	Update(ctx context.Context, id string, req *models.CreatePurchaseRequest) (*models.Purchase, error)
	Approve(ctx context.Context, id string) (*models.Purchase, error)
	Receive(ctx context.Context, id, userID string) (*models.Purchase, error)
	Cancel(ctx context.Context, id string) (*models.Purchase, error)

	GetByID(ctx context.Context, id string) (*models.Purchase, error)
	GetAll(ctx context.Context) ([]*models.Purchase, error)
	GetBySupplier(ctx context.Context, supplierID string) ([]*models.Purchase, error)
}

type purchaseService struct {
	repos    *repository.Repositories
	seq      sequence.Sequencer
	products StockKeeper
	validate *validation.Validator
	now      Clock
	logger   *zap.Logger
}

func NewPurchaseService(repos *repository.Repositories, seq sequence.Sequencer, products StockKeeper, v *validation.Validator, now Clock, logger *zap.Logger) PurchaseService {
	return &purchaseService{repos: repos, seq: seq, products: products, validate: v, now: now, logger: logger}
}

// Create registra la orden en estado pending
func (s *purchaseService) Create(ctx context.Context, req *models.CreatePurchaseRequest) (*models.Purchase, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	var purchase *models.Purchase
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		now := s.now()
		purchase = &models.Purchase{
			ID:        newID(),
			Status:    models.PurchasePending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.fill(ctx, purchase, req); err != nil {
			return err
		}

		number, err := s.seq.Next(ctx, purchaseSequence, seedFrom(s.repos.Purchases, func(p *models.Purchase) int64 { return p.PurchaseNumber }))
		if err != nil {
			return storageErr("next_purchase_number", err)
		}
		purchase.PurchaseNumber = number

		if err := s.validate.Struct(purchase); err != nil {
			return err
		}
		return storageErr("create_purchase", s.repos.Purchases.Add(ctx, purchase))
	})
	if err != nil {
		s.logger.Warn("❌ Compra rechazada", zap.String("operation", "create_purchase"), zap.Error(err))
		return nil, err
	}

	s.logger.Info("✅ Compra creada",
		zap.String("operation", "create_purchase"),
		zap.String("purchase_id", purchase.ID),
		zap.Int64("purchase_number", purchase.PurchaseNumber),
		zap.String("final_amount", purchase.FinalAmount.String()))
	return purchase, nil
}

// fill copia el pedido a la orden y recalcula las líneas y los totales
func (s *purchaseService) fill(ctx context.Context, p *models.Purchase, req *models.CreatePurchaseRequest) error {
	supplier, err := s.repos.Suppliers.Get(ctx, req.SupplierID)
	if err != nil {
		return storageErr("get_supplier", err)
	}
	if supplier == nil {
		return errs.NotFound("proveedor", req.SupplierID)
	}

	items := make([]models.LineItem, 0, len(req.Items))
	for _, ri := range req.Items {
		product, err := s.products.GetByID(ctx, ri.ProductID)
		if err != nil {
			return err
		}
		items = append(items, models.LineItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    ri.Quantity,
			UnitPrice:   ri.UnitPrice,
			Subtotal:    ri.Quantity.Mul(ri.UnitPrice),
		})
	}

	total, final := models.Totals(items, req.Discount)
	if final.IsNegative() {
		return errs.BusinessRule(errs.CodeInvalidAmount,
			fmt.Sprintf("el descuento %s supera el total %s", req.Discount, total))
	}

	p.SupplierID = req.SupplierID
	p.UserID = req.UserID
	p.Items = items
	p.TotalAmount = total
	p.Discount = req.Discount
	p.FinalAmount = final
	p.ExpectedDate = req.ExpectedDate
	p.Notes = req.Notes
	return nil
}

// Update edita una orden que todavía no fue aprobada
func (s *purchaseService) Update(ctx context.Context, id string, req *models.CreatePurchaseRequest) (*models.Purchase, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	var purchase *models.Purchase
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		var err error
		purchase, err = s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if purchase.Status != models.PurchasePending {
			return errs.BusinessRule(errs.CodeInvalidState,
				fmt.Sprintf("sólo se editan compras pendientes (estado %s)", purchase.Status))
		}
		if err := s.fill(ctx, purchase, req); err != nil {
			return err
		}
		purchase.UpdatedAt = s.now()
		if err := s.validate.Struct(purchase); err != nil {
			return err
		}
		return storageErr("update_purchase", s.repos.Purchases.Put(ctx, purchase))
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

func (s *purchaseService) Approve(ctx context.Context, id string) (*models.Purchase, error) {
	return s.transition(ctx, "approve_purchase", id, models.PurchaseApproved, models.PurchasePending)
}

// Cancel anula una orden pendiente o aprobada; una recibida ya movió stock
func (s *purchaseService) Cancel(ctx context.Context, id string) (*models.Purchase, error) {
	return s.transition(ctx, "cancel_purchase", id, models.PurchaseCancelled, models.PurchasePending, models.PurchaseApproved)
}

func (s *purchaseService) transition(ctx context.Context, op, id string, to models.PurchaseStatus, from ...models.PurchaseStatus) (*models.Purchase, error) {
	var purchase *models.Purchase
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		var err error
		purchase, err = s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if purchase.Status == models.PurchaseCancelled {
			return errs.BusinessRule(errs.CodeAlreadyCancelled, "la compra ya está cancelada")
		}
		allowed := false
		for _, st := range from {
			if purchase.Status == st {
				allowed = true
			}
		}
		if !allowed {
			return errs.BusinessRule(errs.CodeInvalidState,
				fmt.Sprintf("la compra no puede pasar de %s a %s", purchase.Status, to))
		}
		purchase.Status = to
		purchase.UpdatedAt = s.now()
		return storageErr(op, s.repos.Purchases.Put(ctx, purchase))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Compra actualizada",
		zap.String("operation", op),
		zap.String("purchase_id", id),
		zap.String("status", string(to)))
	return purchase, nil
}

// Receive ingresa la mercadería: una sola vez y sólo desde approved
func (s *purchaseService) Receive(ctx context.Context, id, userID string) (*models.Purchase, error) {
	logger := s.logger.With(zap.String("operation", "receive_purchase"), zap.String("purchase_id", id))

	if userID == "" {
		return nil, errs.Validation("user_id", "user_id es obligatorio")
	}

	var purchase *models.Purchase
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		var err error
		purchase, err = s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if purchase.Status != models.PurchaseApproved {
			return errs.BusinessRule(errs.CodeInvalidState,
				fmt.Sprintf("sólo se reciben compras aprobadas (estado %s)", purchase.Status))
		}

		for _, it := range purchase.Items {
			cost := it.UnitPrice
			_, err := s.products.ApplyMovement(ctx, models.MovementInput{
				ProductID:   it.ProductID,
				Delta:       it.Quantity,
				Type:        models.MovementIn,
				Reason:      fmt.Sprintf("Entrada de compra #%d", purchase.PurchaseNumber),
				ReferenceID: purchase.ID,
				UserID:      userID,
				UnitCost:    &cost,
			})
			if err != nil {
				return err
			}
		}

		now := s.now()
		purchase.Status = models.PurchaseReceived
		purchase.ReceivedDate = &now
		purchase.UpdatedAt = now
		return storageErr("receive_purchase", s.repos.Purchases.Put(ctx, purchase))
	})
	if err != nil {
		logger.Warn("❌ Compra no recibida", zap.Error(err))
		return nil, err
	}

	logger.Info("✅ Compra recibida",
		zap.Int64("purchase_number", purchase.PurchaseNumber),
		zap.Int("items", len(purchase.Items)))
	return purchase, nil
}

func (s *purchaseService) GetByID(ctx context.Context, id string) (*models.Purchase, error) {
	p, err := s.repos.Purchases.Get(ctx, id)
	if err != nil {
		return nil, storageErr("get_purchase", err)
	}
	if p == nil {
		return nil, errs.NotFound("compra", id)
	}
	return p, nil
}

// GetAll devuelve las compras por número descendente
func (s *purchaseService) GetAll(ctx context.Context) ([]*models.Purchase, error) {
	purchases, err := s.repos.Purchases.All(ctx)
	if err != nil {
		return nil, storageErr("list_purchases", err)
	}
	sort.SliceStable(purchases, func(i, j int) bool {
		return purchases[i].PurchaseNumber > purchases[j].PurchaseNumber
	})
	return purchases, nil
}

func (s *purchaseService) GetBySupplier(ctx context.Context, supplierID string) ([]*models.Purchase, error) {
	purchases, err := s.repos.Purchases.ByIndex(ctx, "supplier_id", supplierID)
	if err != nil {
		return nil, storageErr("list_purchases_by_supplier", err)
	}
	return purchases, nil
}
