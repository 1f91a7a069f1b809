package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/stockpdv/internal/database/dbtest"
	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

func countMovements(t *testing.T, svc Service, id uuid.UUID) int {
	t.Helper()
	movements, err := svc.ListMovements(context.Background(), MovementFilter{ProductID: &id})
	require.NoError(t, err)
	return len(movements)
}

func TestPostgresConcurrentSalesNeverOversell(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(NewPostgresRepository(db), 0)
	ctx := context.Background()

	id := dbtest.InsertProduct(t, db, "Leite 1L", 0)
	_, err := svc.AdjustStock(ctx, AdjustStockRequest{ProductID: id, Quantity: 5, Type: MovementIn})
	require.NoError(t, err)

	// Several rounds so the two transactions really contend for the row lock.
	for round := 0; round < 10; round++ {
		if round > 0 {
			_, err := svc.CountStock(ctx, CountStockRequest{ProductID: id, Count: 5})
			require.NoError(t, err)
		}

		var (
			g         errgroup.Group
			mu        sync.Mutex
			successes int
			failures  []error
		)
		for i := 0; i < 2; i++ {
			g.Go(func() error {
				_, err := svc.AdjustStock(ctx, AdjustStockRequest{
					ProductID: id, Quantity: 3, Type: MovementOut, PaymentMethod: method(PaymentCash),
				})
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failures = append(failures, err)
				} else {
					successes++
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		assert.Equal(t, 1, successes)
		require.Len(t, failures, 1)
		assert.ErrorIs(t, failures[0], ErrInsufficientStock)
		assert.Contains(t, failures[0].Error(), "requested 3, available 2")
		assert.Equal(t, 2, dbtest.Stock(t, db, id))
	}

	discrepancies, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	for _, d := range discrepancies {
		assert.NotEqual(t, id, d.ProductID, "ledger drifted from stored stock")
	}
}

func TestPostgresOutIsAtomic(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(NewPostgresRepository(db), 0)
	ctx := context.Background()

	id := dbtest.InsertProduct(t, db, "Café 500g", 0)
	_, err := svc.AdjustStock(ctx, AdjustStockRequest{ProductID: id, Quantity: 2, Type: MovementIn})
	require.NoError(t, err)

	_, err = svc.AdjustStock(ctx, AdjustStockRequest{ProductID: id, Quantity: 3, Type: MovementOut, PaymentMethod: method(PaymentPix)})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, dbtest.Stock(t, db, id))
	assert.Equal(t, 1, countMovements(t, svc, id))

	m, err := svc.AdjustStock(ctx, AdjustStockRequest{ProductID: id, Quantity: 2, Type: MovementOut, PaymentMethod: method(PaymentPix)})
	require.NoError(t, err)
	assert.Equal(t, 0, m.StockAfter)
	assert.False(t, m.CreatedAt.IsZero())
	assert.Equal(t, 0, dbtest.Stock(t, db, id))

	movements, err := svc.ListMovements(ctx, MovementFilter{ProductID: &id})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, MovementOut, movements[0].Type, "newest first")
	require.NotNil(t, movements[0].PaymentMethod)
	assert.Equal(t, PaymentPix, *movements[0].PaymentMethod)
	assert.Contains(t, movements[0].ProductName, "Café 500g")
}

func TestPostgresUnknownProductAndOverflow(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(NewPostgresRepository(db), 0)
	ctx := context.Background()

	_, err := svc.AdjustStock(ctx, AdjustStockRequest{ProductID: uuid.New(), Quantity: 1, Type: MovementOut})
	assert.ErrorIs(t, err, ErrProductNotFound)
	_, err = svc.AdjustStock(ctx, AdjustStockRequest{ProductID: uuid.New(), Quantity: 1, Type: MovementIn})
	assert.ErrorIs(t, err, ErrProductNotFound)

	id := dbtest.InsertProduct(t, db, "Palito", MaxStock-1)
	_, err = svc.AdjustStock(ctx, AdjustStockRequest{ProductID: id, Quantity: 2, Type: MovementIn})
	assert.ErrorIs(t, err, ErrStockOverflow)
	assert.Equal(t, servererrors.KindValidation, servererrors.KindOf(err))
	assert.Equal(t, MaxStock-1, dbtest.Stock(t, db, id))
	assert.Equal(t, 0, countMovements(t, svc, id))
}

func TestPostgresCountStockAndReconcile(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(NewPostgresRepository(db), 0)
	ctx := context.Background()

	counted := dbtest.InsertProduct(t, db, "Vinagre", 0)
	m, err := svc.CountStock(ctx, CountStockRequest{ProductID: counted, Count: 12})
	require.NoError(t, err)
	assert.Equal(t, MovementIn, m.Type)
	assert.Equal(t, 12, m.Quantity)

	m, err = svc.CountStock(ctx, CountStockRequest{ProductID: counted, Count: 7})
	require.NoError(t, err)
	assert.Equal(t, MovementOut, m.Type)
	assert.Equal(t, 5, m.Quantity)
	assert.Equal(t, 7, dbtest.Stock(t, db, counted))

	m, err = svc.CountStock(ctx, CountStockRequest{ProductID: counted, Count: 7})
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, 2, countMovements(t, svc, counted))

	_, err = svc.CountStock(ctx, CountStockRequest{ProductID: uuid.New(), Count: 1})
	assert.ErrorIs(t, err, ErrProductNotFound)

	// A direct write behind the ledger's back must show up in the audit.
	drifted := dbtest.InsertProduct(t, db, "Desvio", 4)

	discrepancies, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	byID := map[uuid.UUID]Discrepancy{}
	for _, d := range discrepancies {
		byID[d.ProductID] = d
	}
	assert.NotContains(t, byID, counted)
	require.Contains(t, byID, drifted)
	assert.Equal(t, 4, byID[drifted].CurrentStock)
	assert.Equal(t, 0, byID[drifted].LedgerStock)
}
