package services

import (
	"context"
	"fmt"

	"retail-erp/internal/errs"
	"retail-erp/internal/models"
	"retail-erp/internal/repository"
	"retail-erp/internal/validation"

	"go.uber.org/zap"
)

// SupplierService define el catálogo de proveedores
type SupplierService interface {
	Create(ctx context.Context, sp *models.Supplier) (*models.Supplier, error)
	Update(ctx context.Context, id string, sp *models.Supplier) (*models.Supplier, error)
	Delete(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (*models.Supplier, error)
	GetAll(ctx context.Context) ([]*models.Supplier, error)
	GetActive(ctx context.Context) ([]*models.Supplier, error)
}

type supplierService struct {
	repos    *repository.Repositories
	validate *validation.Validator
	now      Clock
	logger   *zap.Logger
}

func NewSupplierService(repos *repository.Repositories, v *validation.Validator, now Clock, logger *zap.Logger) SupplierService {
	return &supplierService{repos: repos, validate: v, now: now, logger: logger}
}

func (s *supplierService) Create(ctx context.Context, sp *models.Supplier) (*models.Supplier, error) {
	now := s.now()
	supplier := *sp
	supplier.ID = newID()
	supplier.Active = true
	supplier.CreatedAt = now
	supplier.UpdatedAt = now

	if err := s.validate.Struct(&supplier); err != nil {
		return nil, err
	}

	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		if err := s.ensureDocumentFree(ctx, supplier.Document, ""); err != nil {
			return err
		}
		return storageErr("create_supplier", s.repos.Suppliers.Add(ctx, &supplier))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("✅ Proveedor creado",
		zap.String("operation", "create_supplier"),
		zap.String("supplier_id", supplier.ID))
	return &supplier, nil
}

func (s *supplierService) ensureDocumentFree(ctx context.Context, document, selfID string) error {
	other, err := s.repos.Suppliers.First(ctx, "document", document)
	if err != nil {
		return storageErr("check_supplier_document", err)
	}
	if other != nil && other.ID != selfID {
		return errs.BusinessRule(errs.CodeDuplicate, fmt.Sprintf("ya existe un proveedor con el documento %s", document))
	}
	return nil
}

func (s *supplierService) Update(ctx context.Context, id string, sp *models.Supplier) (*models.Supplier, error) {
	var updated *models.Supplier
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		existing, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if sp.Document != existing.Document {
			if err := s.ensureDocumentFree(ctx, sp.Document, id); err != nil {
				return err
			}
		}

		next := *sp
		next.ID = existing.ID
		next.Active = existing.Active
		next.CreatedAt = existing.CreatedAt
		next.UpdatedAt = s.now()

		if err := s.validate.Struct(&next); err != nil {
			return err
		}
		if err := s.repos.Suppliers.Put(ctx, &next); err != nil {
			return storageErr("update_supplier", err)
		}
		updated = &next
		return nil
	})
	return updated, err
}

// Delete desactiva al proveedor; sus compras siguen referenciándolo
func (s *supplierService) Delete(ctx context.Context, id string) error {
	return s.repos.Atomic(ctx, func(ctx context.Context) error {
		sp, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		sp.Active = false
		sp.UpdatedAt = s.now()
		return storageErr("delete_supplier", s.repos.Suppliers.Put(ctx, sp))
	})
}

func (s *supplierService) GetByID(ctx context.Context, id string) (*models.Supplier, error) {
	sp, err := s.repos.Suppliers.Get(ctx, id)
	if err != nil {
		return nil, storageErr("get_supplier", err)
	}
	if sp == nil {
		return nil, errs.NotFound("proveedor", id)
	}
	return sp, nil
}

// GetAll incluye los inactivos
func (s *supplierService) GetAll(ctx context.Context) ([]*models.Supplier, error) {
	suppliers, err := s.repos.Suppliers.All(ctx)
	if err != nil {
		return nil, storageErr("list_suppliers", err)
	}
	sortByName(suppliers, func(sp *models.Supplier) string { return sp.Name })
	return suppliers, nil
}

func (s *supplierService) GetActive(ctx context.Context) ([]*models.Supplier, error) {
	suppliers, err := s.repos.Suppliers.Filter(ctx, func(sp *models.Supplier) bool { return sp.Active })
	if err != nil {
		return nil, storageErr("list_active_suppliers", err)
	}
	sortByName(suppliers, func(sp *models.Supplier) string { return sp.Name })
	return suppliers, nil
}
