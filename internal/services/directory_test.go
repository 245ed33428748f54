package services

import (
	"testing"
	"time"

	"retail-erp/internal/errs"
	"retail-erp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentsAreUnique(t *testing.T) {
	f := newFixture(t)

	c := f.client(t, "20111", "0")
	_, err := f.svc.Clients.Create(f.ctx, &models.Client{Name: "Otro", Document: "20111"})
	assertCode(t, err, errs.CodeDuplicate)

	// también contra clientes inactivos
	require.NoError(t, f.svc.Clients.Delete(f.ctx, c.ID))
	_, err = f.svc.Clients.Create(f.ctx, &models.Client{Name: "Otro", Document: "20111"})
	assertCode(t, err, errs.CodeDuplicate)

	other := f.client(t, "20222", "0")
	other.Document = "20111"
	_, err = f.svc.Clients.Update(f.ctx, other.ID, other)
	assertCode(t, err, errs.CodeDuplicate)

	sp := f.supplier(t, "30-1")
	_, err = f.svc.Suppliers.Create(f.ctx, &models.Supplier{Name: "Otro", Document: "30-1"})
	assertCode(t, err, errs.CodeDuplicate)
	require.NoError(t, f.svc.Suppliers.Delete(f.ctx, sp.ID))
	_, err = f.svc.Suppliers.Create(f.ctx, &models.Supplier{Name: "Otro", Document: "30-1"})
	assertCode(t, err, errs.CodeDuplicate)

	_, err = f.svc.Employees.Create(f.ctx, &models.Employee{Name: "Ana", Document: "E1"})
	require.NoError(t, err)
	_, err = f.svc.Employees.Create(f.ctx, &models.Employee{Name: "Beto", Document: "E1"})
	assertCode(t, err, errs.CodeDuplicate)

	f.product(t, "A1", "0", "1")
	_, err = f.svc.Products.Create(f.ctx, &models.Product{Code: "A1", Name: "Repetido"})
	assertCode(t, err, errs.CodeDuplicate)
}

func TestSupplierSoftDelete(t *testing.T) {
	f := newFixture(t)
	a := f.supplier(t, "30-1")
	f.supplier(t, "30-2")

	a.ContactPerson = "Marta"
	updated, err := f.svc.Suppliers.Update(f.ctx, a.ID, a)
	require.NoError(t, err)
	assert.Equal(t, "Marta", updated.ContactPerson)
	assert.True(t, updated.Active)

	require.NoError(t, f.svc.Suppliers.Delete(f.ctx, a.ID))

	active, err := f.svc.Suppliers.GetActive(f.ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := f.svc.Suppliers.GetAll(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := f.svc.Suppliers.GetByID(f.ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	assert.True(t, errs.IsNotFound(f.svc.Suppliers.Delete(f.ctx, "ghost")))
}

func TestEmployeePayroll(t *testing.T) {
	f := newFixture(t)

	ana, err := f.svc.Employees.Create(f.ctx, &models.Employee{
		Name: "Ana", Document: "E1", Department: "ventas", Salary: dec("1500"),
	})
	require.NoError(t, err)
	assert.True(t, f.clock.Now().Equal(ana.HireDate))
	assert.True(t, ana.Active)

	beto, err := f.svc.Employees.Create(f.ctx, &models.Employee{
		Name: "Beto", Document: "E2", Department: "depósito", Salary: dec("1000"),
		HireDate: f.clock.Now().Add(-365 * 24 * time.Hour),
	})
	require.NoError(t, err)

	payroll, err := f.svc.Employees.GetTotalPayroll(f.ctx)
	require.NoError(t, err)
	assertDecimal(t, "2500", payroll)

	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.Employees.Delete(f.ctx, ana.ID))

	got, err := f.svc.Employees.GetByID(f.ctx, ana.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	require.NotNil(t, got.TerminationDate)
	assert.True(t, f.clock.Now().Equal(*got.TerminationDate))

	payroll, err = f.svc.Employees.GetTotalPayroll(f.ctx)
	require.NoError(t, err)
	assertDecimal(t, "1000", payroll)

	sales, err := f.svc.Employees.GetByDepartment(f.ctx, "ventas")
	require.NoError(t, err)
	assert.Len(t, sales, 1)

	beto.Salary = dec("1200")
	updated, err := f.svc.Employees.Update(f.ctx, beto.ID, beto)
	require.NoError(t, err)
	assertDecimal(t, "1200", updated.Salary)
	assert.True(t, beto.HireDate.Equal(updated.HireDate))
}
