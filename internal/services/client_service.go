package services

import (
	"context"
	"fmt"
	"strings"

	"retail-erp/internal/errs"
	"retail-erp/internal/models"
	"retail-erp/internal/repository"
	"retail-erp/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ClientService define las operaciones de clientes y su crédito
type ClientService interface {
	Create(ctx context.Context, c *models.Client) (*models.Client, error)
	Update(ctx context.Context, id string, c *models.Client) (*models.Client, error)
	Delete(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (*models.Client, error)
	GetAll(ctx context.Context) ([]*models.Client, error)
	GetByDocument(ctx context.Context, document string) (*models.Client, error)
	Search(ctx context.Context, query string) ([]*models.Client, error)

	// Crédito
	UpdateDebt(ctx context.Context, id string, delta decimal.Decimal) (*models.Client, error)
	CheckCreditLimit(ctx context.Context, id string, amount decimal.Decimal) (bool, error)
}

type clientService struct {
	repos    *repository.Repositories
	validate *validation.Validator
	now      Clock
	logger   *zap.Logger
}

func NewClientService(repos *repository.Repositories, v *validation.Validator, now Clock, logger *zap.Logger) ClientService {
	return &clientService{repos: repos, validate: v, now: now, logger: logger}
}

// Create registra un cliente sin deuda
func (s *clientService) Create(ctx context.Context, c *models.Client) (*models.Client, error) {
	now := s.now()
	client := *c
	client.ID = newID()
	client.CurrentDebt = decimal.Zero
	client.Active = true
	client.CreatedAt = now
	client.UpdatedAt = now

	if err := s.validate.Struct(&client); err != nil {
		return nil, err
	}

	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		if err := s.ensureDocumentFree(ctx, client.Document, ""); err != nil {
			return err
		}
		return storageErr("create_client", s.repos.Clients.Add(ctx, &client))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("✅ Cliente creado",
		zap.String("operation", "create_client"),
		zap.String("client_id", client.ID))
	return &client, nil
}

func (s *clientService) ensureDocumentFree(ctx context.Context, document, selfID string) error {
	other, err := s.repos.Clients.First(ctx, "document", document)
	if err != nil {
		return storageErr("check_client_document", err)
	}
	if other != nil && other.ID != selfID {
		return errs.BusinessRule(errs.CodeDuplicate, fmt.Sprintf("ya existe un cliente con el documento %s", document))
	}
	return nil
}

// Update nunca toca la deuda; ésa sólo cambia con UpdateDebt
func (s *clientService) Update(ctx context.Context, id string, c *models.Client) (*models.Client, error) {
	var updated *models.Client
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		existing, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c.Document != existing.Document {
			if err := s.ensureDocumentFree(ctx, c.Document, id); err != nil {
				return err
			}
		}

		next := *c
		next.ID = existing.ID
		next.CurrentDebt = existing.CurrentDebt
		next.Active = existing.Active
		next.CreatedAt = existing.CreatedAt
		next.UpdatedAt = s.now()

		if err := s.validate.Struct(&next); err != nil {
			return err
		}
		if err := s.repos.Clients.Put(ctx, &next); err != nil {
			return storageErr("update_client", err)
		}
		updated = &next
		return nil
	})
	return updated, err
}

// Delete desactiva al cliente; sus ventas y facturas siguen legibles
func (s *clientService) Delete(ctx context.Context, id string) error {
	return s.repos.Atomic(ctx, func(ctx context.Context) error {
		c, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		c.Active = false
		c.UpdatedAt = s.now()
		return storageErr("delete_client", s.repos.Clients.Put(ctx, c))
	})
}

func (s *clientService) GetByID(ctx context.Context, id string) (*models.Client, error) {
	c, err := s.repos.Clients.Get(ctx, id)
	if err != nil {
		return nil, storageErr("get_client", err)
	}
	if c == nil {
		return nil, errs.NotFound("cliente", id)
	}
	return c, nil
}

func (s *clientService) GetAll(ctx context.Context) ([]*models.Client, error) {
	clients, err := s.repos.Clients.Filter(ctx, func(c *models.Client) bool { return c.Active })
	if err != nil {
		return nil, storageErr("list_clients", err)
	}
	sortByName(clients, func(c *models.Client) string { return c.Name })
	return clients, nil
}

func (s *clientService) GetByDocument(ctx context.Context, document string) (*models.Client, error) {
	c, err := s.repos.Clients.First(ctx, "document", document)
	if err != nil {
		return nil, storageErr("get_client_by_document", err)
	}
	if c == nil || !c.Active {
		return nil, errs.NotFound("cliente", document)
	}
	return c, nil
}

func (s *clientService) Search(ctx context.Context, query string) ([]*models.Client, error) {
	clients, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]*models.Client, 0)
	for _, c := range clients {
		if contains(c.Name, q) || contains(c.Document, q) || (c.Email != "" && contains(c.Email, q)) {
			out = append(out, c)
		}
	}
	return out, nil
}

// UpdateDebt suma delta a la deuda; rechaza un resultado negativo
func (s *clientService) UpdateDebt(ctx context.Context, id string, delta decimal.Decimal) (*models.Client, error) {
	logger := s.logger.With(
		zap.String("operation", "update_debt"),
		zap.String("client_id", id),
		zap.String("delta", delta.String()),
	)

	var updated *models.Client
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		c, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}

		next := c.CurrentDebt.Add(delta)
		if next.IsNegative() {
			return errs.BusinessRule(errs.CodeNegativeDebt,
				fmt.Sprintf("la deuda de %s no puede quedar negativa (actual %s, cambio %s)", c.Name, c.CurrentDebt, delta))
		}

		c.CurrentDebt = next
		c.UpdatedAt = s.now()
		if err := s.repos.Clients.Put(ctx, c); err != nil {
			return storageErr("update_debt", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		logger.Warn("❌ Deuda no actualizada", zap.Error(err))
		return nil, err
	}

	logger.Debug("Deuda actualizada", zap.String("current_debt", updated.CurrentDebt.String()))
	return updated, nil
}

// CheckCreditLimit reporta si current_debt + amount <= credit_limit
func (s *clientService) CheckCreditLimit(ctx context.Context, id string, amount decimal.Decimal) (bool, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return c.CurrentDebt.Add(amount).LessThanOrEqual(c.CreditLimit), nil
}
