package services

import (
	"context"
	"fmt"

	"retail-erp/internal/errs"
	"retail-erp/internal/models"
	"retail-erp/internal/repository"
	"retail-erp/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EmployeeService define el legajo de empleados
type EmployeeService interface {
	Create(ctx context.Context, e *models.Employee) (*models.Employee, error)
	Update(ctx context.Context, id string, e *models.Employee) (*models.Employee, error)
	Delete(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (*models.Employee, error)
	GetAll(ctx context.Context) ([]*models.Employee, error)
	GetActive(ctx context.Context) ([]*models.Employee, error)
	GetByDepartment(ctx context.Context, department string) ([]*models.Employee, error)
	GetTotalPayroll(ctx context.Context) (decimal.Decimal, error)
}

type employeeService struct {
	repos    *repository.Repositories
	validate *validation.Validator
	now      Clock
	logger   *zap.Logger
}

func NewEmployeeService(repos *repository.Repositories, v *validation.Validator, now Clock, logger *zap.Logger) EmployeeService {
	return &employeeService{repos: repos, validate: v, now: now, logger: logger}
}

func (s *employeeService) Create(ctx context.Context, e *models.Employee) (*models.Employee, error) {
	now := s.now()
	employee := *e
	employee.ID = newID()
	employee.Active = true
	employee.TerminationDate = nil
	employee.CreatedAt = now
	employee.UpdatedAt = now
	if employee.HireDate.IsZero() {
		employee.HireDate = now
	}

	if err := s.validate.Struct(&employee); err != nil {
		return nil, err
	}

	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		if err := s.ensureDocumentFree(ctx, employee.Document, ""); err != nil {
			return err
		}
		return storageErr("create_employee", s.repos.Employees.Add(ctx, &employee))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("✅ Empleado creado",
		zap.String("operation", "create_employee"),
		zap.String("employee_id", employee.ID),
		zap.String("department", employee.Department))
	return &employee, nil
}

func (s *employeeService) ensureDocumentFree(ctx context.Context, document, selfID string) error {
	other, err := s.repos.Employees.First(ctx, "document", document)
	if err != nil {
		return storageErr("check_employee_document", err)
	}
	if other != nil && other.ID != selfID {
		return errs.BusinessRule(errs.CodeDuplicate, fmt.Sprintf("ya existe un empleado con el documento %s", document))
	}
	return nil
}

func (s *employeeService) Update(ctx context.Context, id string, e *models.Employee) (*models.Employee, error) {
	var updated *models.Employee
	err := s.repos.Atomic(ctx, func(ctx context.Context) error {
		existing, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if e.Document != existing.Document {
			if err := s.ensureDocumentFree(ctx, e.Document, id); err != nil {
				return err
			}
		}

		next := *e
		next.ID = existing.ID
		next.Active = existing.Active
		next.TerminationDate = existing.TerminationDate
		next.CreatedAt = existing.CreatedAt
		next.UpdatedAt = s.now()
		if next.HireDate.IsZero() {
			next.HireDate = existing.HireDate
		}

		if err := s.validate.Struct(&next); err != nil {
			return err
		}
		if err := s.repos.Employees.Put(ctx, &next); err != nil {
			return storageErr("update_employee", err)
		}
		updated = &next
		return nil
	})
	return updated, err
}

// Delete da de baja al empleado y registra la fecha de egreso
func (s *employeeService) Delete(ctx context.Context, id string) error {
	return s.repos.Atomic(ctx, func(ctx context.Context) error {
		e, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		e.Active = false
		if e.TerminationDate == nil {
			e.TerminationDate = &now
		}
		e.UpdatedAt = now
		return storageErr("delete_employee", s.repos.Employees.Put(ctx, e))
	})
}

func (s *employeeService) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	e, err := s.repos.Employees.Get(ctx, id)
	if err != nil {
		return nil, storageErr("get_employee", err)
	}
	if e == nil {
		return nil, errs.NotFound("empleado", id)
	}
	return e, nil
}

func (s *employeeService) GetAll(ctx context.Context) ([]*models.Employee, error) {
	employees, err := s.repos.Employees.All(ctx)
	if err != nil {
		return nil, storageErr("list_employees", err)
	}
	sortByName(employees, func(e *models.Employee) string { return e.Name })
	return employees, nil
}

func (s *employeeService) GetActive(ctx context.Context) ([]*models.Employee, error) {
	employees, err := s.repos.Employees.Filter(ctx, func(e *models.Employee) bool { return e.Active })
	if err != nil {
		return nil, storageErr("list_active_employees", err)
	}
	sortByName(employees, func(e *models.Employee) string { return e.Name })
	return employees, nil
}

func (s *employeeService) GetByDepartment(ctx context.Context, department string) ([]*models.Employee, error) {
	employees, err := s.repos.Employees.ByIndex(ctx, "department", department)
	if err != nil {
		return nil, storageErr("list_employees_by_department", err)
	}
	return employees, nil
}

// GetTotalPayroll suma los salarios de los empleados activos
func (s *employeeService) GetTotalPayroll(ctx context.Context) (decimal.Decimal, error) {
	active, err := s.GetActive(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range active {
		total = total.Add(e.Salary)
	}
	return total, nil
}
