package services

import (
	"context"
	"fmt"
	"strings"

	"retail-erp/internal/cache"
	"retail-erp/internal/errs"
	"retail-erp/internal/models"
	"retail-erp/internal/repository"
	"retail-erp/internal/store"
	"retail-erp/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductService define las operaciones de productos e inventario
type ProductService interface {
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	Update(ctx context.Context, id string, p *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetAll(ctx context.Context) ([]*models.Product, error)
	GetByCode(ctx context.Context, code string) (*models.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	GetLowStock(ctx context.Context) ([]*models.Product, error)
	Search(ctx context.Context, query string) ([]*models.Product, error)

	// Stock
	UpdateStock(ctx context.Context, id string, delta decimal.Decimal) (*models.Product, error)
	ApplyMovement(ctx context.Context, in models.MovementInput) (*models.StockMovement, error)
	AdjustStock(ctx context.Context, id string, req *models.StockAdjustmentRequest) (*models.StockMovement, error)
	GetMovements(ctx context.Context, productID string) ([]*models.StockMovement, error)

	InvalidateCache(ctx context.Context) (int, error)
}

type productService struct {
	repos    *repository.Repositories
	cache    *cache.ProductCache
	validate *validation.Validator
	now      Clock
	logger   *zap.Logger
}

// NewProductService crea el servicio; productCache puede ser nil
func NewProductService(repos *repository.Repositories, productCache *cache.ProductCache, v *validation.Validator, now Clock, logger *zap.Logger) ProductService {
	return &productService{
		repos:    repos,
		cache:    productCache,
		validate: v,
		now:      now,
		logger:   logger,
	}
}

func (s *productService) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	logger := s.logger.With(zap.String("operation", "create_product"), zap.String("code", p.Code))

	now := s.now()
	product := *p
	product.ID = newID()
	product.Active = true
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.validate.Struct(&product); err != nil {
		return nil, err
	}

	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		existing, err := s.repos.Products.First(ctx, "code", product.Code)
		if err != nil {
			return storageErr("create_product", err)
		}
		if existing != nil {
			return errs.BusinessRule(errs.CodeDuplicate, fmt.Sprintf("el código de producto %s ya existe", product.Code))
		}
		return storageErr("create_product", s.repos.Products.Add(ctx, &product))
	})
	if err != nil {
		logger.Warn("❌ Producto no creado", zap.Error(err))
		return nil, err
	}

	logger.Info("✅ Producto creado", zap.String("product_id", product.ID))
	return &product, nil
}

// Update reemplaza los datos del producto. El stock sólo cambia por movimientos
// y active sólo por Delete.
func (s *productService) Update(ctx context.Context, id string, p *models.Product) (*models.Product, error) {
	var updated *models.Product
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		existing, err := s.mustGet(ctx, id)
		if err != nil {
			return err
		}

		if p.Code != existing.Code {
			other, err := s.repos.Products.First(ctx, "code", p.Code)
			if err != nil {
				return storageErr("update_product", err)
			}
			if other != nil && other.ID != id {
				return errs.BusinessRule(errs.CodeDuplicate, fmt.Sprintf("el código de producto %s ya existe", p.Code))
			}
		}

		next := *p
		next.ID = existing.ID
		next.StockQuantity = existing.StockQuantity
		next.Active = existing.Active
		next.CreatedAt = existing.CreatedAt
		next.UpdatedAt = s.now()

		if err := s.validate.Struct(&next); err != nil {
			return err
		}
		if err := s.repos.Products.Put(ctx, &next); err != nil {
			return storageErr("update_product", err)
		}
		s.invalidate(ctx, existing.Barcode, next.Barcode)
		updated = &next
		return nil
	})
	return updated, err
}

// Delete es un borrado lógico
func (s *productService) Delete(ctx context.Context, id string) error {
	return s.repos.Atomic(ctx, func(ctx context.Context) error {
		p, err := s.mustGet(ctx, id)
		if err != nil {
			return err
		}
		p.Active = false
		p.UpdatedAt = s.now()
		if err := s.repos.Products.Put(ctx, p); err != nil {
			return storageErr("delete_product", err)
		}
		s.invalidate(ctx, p.Barcode)
		return nil
	})
}

func (s *productService) GetByID(ctx context.Context, id string) (*models.Product, error) {
	return s.mustGet(ctx, id)
}

func (s *productService) mustGet(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.repos.Products.Get(ctx, id)
	if err != nil {
		return nil, storageErr("get_product", err)
	}
	if p == nil {
		return nil, errs.NotFound("producto", id)
	}
	return p, nil
}

// GetAll devuelve los productos activos ordenados por nombre
func (s *productService) GetAll(ctx context.Context) ([]*models.Product, error) {
	products, err := s.repos.Products.Filter(ctx, func(p *models.Product) bool { return p.Active })
	if err != nil {
		return nil, storageErr("list_products", err)
	}
	sortByName(products, func(p *models.Product) string { return p.Name })
	return products, nil
}

func (s *productService) GetByCode(ctx context.Context, code string) (*models.Product, error) {
	p, err := s.repos.Products.First(ctx, "code", code)
	if err != nil {
		return nil, storageErr("get_product_by_code", err)
	}
	if p == nil {
		return nil, errs.NotFound("producto", code)
	}
	return p, nil
}

// GetByBarcode busca primero en el caché y luego en el store
func (s *productService) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	if s.cache != nil {
		if p, ok := s.cache.GetProduct(ctx, barcode); ok {
			return p, nil
		}
	}

	matches, err := s.repos.Products.ByIndex(ctx, "barcode", barcode)
	if err != nil {
		return nil, storageErr("get_product_by_barcode", err)
	}
	for _, p := range matches {
		if !p.Active {
			continue
		}
		if s.cache != nil && !store.InTx(ctx) {
			if err := s.cache.SetProduct(ctx, barcode, p); err != nil {
				s.logger.Warn("No se pudo cachear producto", zap.String("barcode", barcode), zap.Error(err))
			}
		}
		return p, nil
	}
	return nil, errs.NotFound("producto", barcode)
}

func (s *productService) GetLowStock(ctx context.Context) ([]*models.Product, error) {
	products, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Product, 0)
	for _, p := range products {
		if p.LowStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

// Search busca por nombre, código o código de barras
func (s *productService) Search(ctx context.Context, query string) ([]*models.Product, error) {
	products, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]*models.Product, 0)
	for _, p := range products {
		if contains(p.Name, q) || contains(p.Code, q) || (p.Barcode != "" && contains(p.Barcode, q)) {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpdateStock suma delta al stock; rechaza un resultado negativo
func (s *productService) UpdateStock(ctx context.Context, id string, delta decimal.Decimal) (*models.Product, error) {
	var updated *models.Product
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		p, _, err := s.changeStock(ctx, id, delta)
		updated = p
		return err
	})
	return updated, err
}

func (s *productService) changeStock(ctx context.Context, id string, delta decimal.Decimal) (*models.Product, decimal.Decimal, error) {
	p, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, decimal.Zero, err
	}

	previous := p.StockQuantity
	next := previous.Add(delta)
	if next.IsNegative() {
		return nil, previous, errs.BusinessRule(errs.CodeInsufficientStock,
			fmt.Sprintf("stock insuficiente para %s: disponible %s, solicitado %s", p.Name, previous, delta.Neg()))
	}

	p.StockQuantity = next
	p.UpdatedAt = s.now()
	if err := s.repos.Products.Put(ctx, p); err != nil {
		return nil, previous, storageErr("update_stock", err)
	}
	s.invalidate(ctx, p.Barcode)
	return p, previous, nil
}

// ApplyMovement cambia el stock y deja el registro de auditoría en la misma unidad
func (s *productService) ApplyMovement(ctx context.Context, in models.MovementInput) (*models.StockMovement, error) {
	logger := s.logger.With(
		zap.String("operation", "apply_movement"),
		zap.String("product_id", in.ProductID),
		zap.String("type", string(in.Type)),
		zap.String("delta", in.Delta.String()),
	)

	var movement *models.StockMovement
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		p, previous, err := s.changeStock(ctx, in.ProductID, in.Delta)
		if err != nil {
			return err
		}

		movement = &models.StockMovement{
			ID:               newID(),
			ProductID:        in.ProductID,
			Type:             in.Type,
			Quantity:         in.Delta,
			PreviousQuantity: previous,
			NewQuantity:      p.StockQuantity,
			UnitCost:         in.UnitCost,
			Reason:           in.Reason,
			ReferenceID:      in.ReferenceID,
			UserID:           in.UserID,
			CreatedAt:        s.now(),
		}
		if err := s.validate.Struct(movement); err != nil {
			return err
		}
		return storageErr("create_movement", s.repos.StockMovements.Add(ctx, movement))
	})
	if err != nil {
		logger.Warn("❌ Movimiento rechazado", zap.Error(err))
		return nil, err
	}

	logger.Debug("Movimiento registrado",
		zap.String("previous_quantity", movement.PreviousQuantity.String()),
		zap.String("new_quantity", movement.NewQuantity.String()))
	return movement, nil
}

// AdjustStock lleva el stock a la cantidad contada con un movimiento de ajuste
func (s *productService) AdjustStock(ctx context.Context, id string, req *models.StockAdjustmentRequest) (*models.StockMovement, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	var movement *models.StockMovement
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		p, err := s.mustGet(ctx, id)
		if err != nil {
			return err
		}
		movement, err = s.ApplyMovement(ctx, models.MovementInput{
			ProductID: id,
			Delta:     req.Quantity.Sub(p.StockQuantity),
			Type:      models.MovementAdjustment,
			Reason:    req.Reason,
			UserID:    req.UserID,
		})
		return err
	})
	return movement, err
}

// GetMovements devuelve el historial de un producto, más reciente primero
func (s *productService) GetMovements(ctx context.Context, productID string) ([]*models.StockMovement, error) {
	movements, err := s.repos.StockMovements.ByIndex(ctx, "product_id", productID)
	if err != nil {
		return nil, storageErr("list_movements", err)
	}
	for i, j := 0, len(movements)-1; i < j; i, j = i+1, j-1 {
		movements[i], movements[j] = movements[j], movements[i]
	}
	return movements, nil
}

func (s *productService) InvalidateCache(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	return s.cache.InvalidateAll(ctx)
}

// invalidate saca los códigos de barras del caché una vez confirmada la unidad
func (s *productService) invalidate(ctx context.Context, barcodes ...string) {
	if s.cache == nil {
		return
	}
	store.AfterCommit(ctx, func() {
		for _, b := range barcodes {
			if b == "" {
				continue
			}
			if err := s.cache.InvalidateProduct(context.Background(), b); err != nil {
				s.logger.Warn("No se pudo invalidar caché", zap.String("barcode", b), zap.Error(err))
			}
		}
	})
}
