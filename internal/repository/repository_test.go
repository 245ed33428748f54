package repository

import (
	"context"
	"errors"
	"testing"

	"retail-erp/internal/models"
	"retail-erp/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepos() *Repositories {
	return New(store.NewMemoryStore(Schema()))
}

func TestCollectionRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newRepos()

	p := &models.Product{ID: "p1", Code: "ARZ-1", Name: "Arroz", StockQuantity: decimal.RequireFromString("12.5"), Active: true}
	require.NoError(t, r.Products.Add(ctx, p))

	got, err := r.Products.Get(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Arroz", got.Name)
	assert.True(t, got.StockQuantity.Equal(decimal.RequireFromString("12.5")))

	missing, err := r.Products.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUniqueCodeIsEnforcedByStore(t *testing.T) {
	ctx := context.Background()
	r := newRepos()

	require.NoError(t, r.Products.Add(ctx, &models.Product{ID: "p1", Code: "X"}))
	err := r.Products.Add(ctx, &models.Product{ID: "p2", Code: "X"})
	assert.ErrorIs(t, err, store.ErrConstraint)
}

func TestNumericIndexLookup(t *testing.T) {
	ctx := context.Background()
	r := newRepos()

	require.NoError(t, r.Sales.Add(ctx, &models.Sale{ID: "s1", SaleNumber: 1}))
	require.NoError(t, r.Sales.Add(ctx, &models.Sale{ID: "s2", SaleNumber: 2}))

	s, err := r.Sales.First(ctx, "sale_number", "2")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "s2", s.ID)
}

func TestAtomicRollsBackAcrossCollections(t *testing.T) {
	ctx := context.Background()
	r := newRepos()

	boom := errors.New("boom")
	err := r.Atomic(ctx, func(ctx context.Context) error {
		require.NoError(t, r.Clients.Add(ctx, &models.Client{ID: "c1", Document: "1"}))
		require.NoError(t, r.Products.Add(ctx, &models.Product{ID: "p1", Code: "A"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	counts, err := r.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts[Clients])
	assert.Zero(t, counts[Products])
}
