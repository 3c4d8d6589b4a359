package merging

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/internal/database"
	"github.com/Ramsey-B/clover/pkg/models"
)

type fakeTx struct {
	database.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) IsOpen() bool { return !t.committed && !t.rolledBack }

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	database.DB
	tx *fakeTx
}

func (db *fakeDB) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	return ctx, db.tx, nil
}

type fakeCustomerStore struct {
	db        database.DB
	customers map[string]models.Customer

	contactUpdated  bool
	lastOverrides   *models.MergeOverrides
	aggregateCount  int
	aggregateSpent  float64
	aggregatesSet   bool
	deleteErr       error
	updateErr       error
	aggregateUpdErr error
}

func (s *fakeCustomerStore) GetByIDs(ctx context.Context, tenantID string, ids []string) ([]models.Customer, error) {
	var out []models.Customer
	for _, id := range ids {
		if c, ok := s.customers[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeCustomerStore) UpdateContact(ctx context.Context, tenantID string, id string, overrides *models.MergeOverrides) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.contactUpdated = true
	s.lastOverrides = overrides
	return nil
}

func (s *fakeCustomerStore) UpdateAggregates(ctx context.Context, tenantID string, id string, totalBookings int, totalSpent float64) error {
	if s.aggregateUpdErr != nil {
		return s.aggregateUpdErr
	}
	s.aggregatesSet = true
	s.aggregateCount = totalBookings
	s.aggregateSpent = totalSpent
	return nil
}

func (s *fakeCustomerStore) DeleteBatch(ctx context.Context, tenantID string, ids []string) (int64, error) {
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	var removed int64
	for _, id := range ids {
		if _, ok := s.customers[id]; ok {
			delete(s.customers, id)
			removed++
		}
	}
	return removed, nil
}

func (s *fakeCustomerStore) DB() database.DB { return s.db }

type fakeBookingStore struct {
	amounts     map[string][]float64
	reassignErr error
}

func (s *fakeBookingStore) ReassignCustomer(ctx context.Context, tenantID string, fromCustomerID string, toCustomerID string) (int64, error) {
	if s.reassignErr != nil {
		return 0, s.reassignErr
	}
	moved := s.amounts[fromCustomerID]
	s.amounts[toCustomerID] = append(s.amounts[toCustomerID], moved...)
	delete(s.amounts, fromCustomerID)
	return int64(len(moved)), nil
}

func (s *fakeBookingStore) AggregateByCustomer(ctx context.Context, tenantID string, customerID string) (*models.BookingAggregate, error) {
	var total float64
	for _, amount := range s.amounts[customerID] {
		total += amount
	}
	return &models.BookingAggregate{
		Count:       len(s.amounts[customerID]),
		TotalAmount: total,
	}, nil
}

func newFixture(reassignErr, deleteErr error) (*Engine, *fakeCustomerStore, *fakeBookingStore, *fakeTx) {
	tx := &fakeTx{}
	customers := &fakeCustomerStore{
		db: &fakeDB{tx: tx},
		customers: map[string]models.Customer{
			"primary": {ID: "primary", TenantID: "tenant-1", Email: "alice@example.com"},
			"dup-1":   {ID: "dup-1", TenantID: "tenant-1", Email: "alice@example.com"},
			"dup-2":   {ID: "dup-2", TenantID: "tenant-1", Email: "alice@gmail.com"},
		},
		deleteErr: deleteErr,
	}
	bookings := &fakeBookingStore{
		amounts: map[string][]float64{
			"primary": {100},
			"dup-1":   {50, 25},
			"dup-2":   {10},
		},
		reassignErr: reassignErr,
	}
	engine := NewEngine(customers, bookings, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
	return engine, customers, bookings, tx
}

func TestMerge_Success(t *testing.T) {
	engine, customers, bookings, tx := newFixture(nil, nil)

	result, err := engine.Merge(context.Background(), "tenant-1", &models.MergeRequest{
		PrimaryCustomerID: "primary",
		DuplicateIDs:      []string{"dup-1", "dup-2"},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "primary", result.PrimaryCustomerID)
	assert.Equal(t, int64(3), result.BookingsReassigned)
	assert.Equal(t, int64(2), result.DuplicatesRemoved)

	// Duplicates gone, all bookings owned by the primary.
	assert.NotContains(t, customers.customers, "dup-1")
	assert.NotContains(t, customers.customers, "dup-2")
	assert.Len(t, bookings.amounts["primary"], 4)

	// Aggregates recomputed from bookings, not incremented.
	assert.True(t, customers.aggregatesSet)
	assert.Equal(t, 4, customers.aggregateCount)
	assert.InDelta(t, 185.0, customers.aggregateSpent, 0.001)

	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestMerge_AppliesOverrides(t *testing.T) {
	engine, customers, _, _ := newFixture(nil, nil)

	email := "kept@example.com"
	result, err := engine.Merge(context.Background(), "tenant-1", &models.MergeRequest{
		PrimaryCustomerID: "primary",
		DuplicateIDs:      []string{"dup-1"},
		Overrides:         &models.MergeOverrides{Email: &email},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.True(t, customers.contactUpdated)
	require.NotNil(t, customers.lastOverrides.Email)
	assert.Equal(t, email, *customers.lastOverrides.Email)
}

func TestMerge_EmptyOverridesSkipContactUpdate(t *testing.T) {
	engine, customers, _, _ := newFixture(nil, nil)

	_, err := engine.Merge(context.Background(), "tenant-1", &models.MergeRequest{
		PrimaryCustomerID: "primary",
		DuplicateIDs:      []string{"dup-1"},
		Overrides:         &models.MergeOverrides{},
	})

	require.NoError(t, err)
	assert.False(t, customers.contactUpdated)
}

func TestMerge_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		req  *models.MergeRequest
	}{
		{
			name: "missing primary",
			req:  &models.MergeRequest{DuplicateIDs: []string{"dup-1"}},
		},
		{
			name: "no duplicates",
			req:  &models.MergeRequest{PrimaryCustomerID: "primary"},
		},
		{
			name: "primary listed as duplicate",
			req: &models.MergeRequest{
				PrimaryCustomerID: "primary",
				DuplicateIDs:      []string{"dup-1", "primary"},
			},
		},
		{
			name: "repeated duplicate id",
			req: &models.MergeRequest{
				PrimaryCustomerID: "primary",
				DuplicateIDs:      []string{"dup-1", "dup-1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, customers, bookings, tx := newFixture(nil, nil)

			result, err := engine.Merge(context.Background(), "tenant-1", tt.req)

			require.Error(t, err)
			assert.False(t, result.Success)
			assert.NotEmpty(t, result.Error)

			// Nothing mutated.
			assert.Len(t, customers.customers, 3)
			assert.Len(t, bookings.amounts["dup-1"], 2)
			assert.False(t, tx.committed)
		})
	}
}

func TestMerge_UnknownPrimary(t *testing.T) {
	engine, _, _, tx := newFixture(nil, nil)

	result, err := engine.Merge(context.Background(), "tenant-1", &models.MergeRequest{
		PrimaryCustomerID: "ghost",
		DuplicateIDs:      []string{"dup-1"},
	})

	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not found")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestMerge_UnknownDuplicate(t *testing.T) {
	engine, customers, _, tx := newFixture(nil, nil)

	result, err := engine.Merge(context.Background(), "tenant-1", &models.MergeRequest{
		PrimaryCustomerID: "primary",
		DuplicateIDs:      []string{"dup-1", "ghost"},
	})

	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, customers.customers, "dup-1")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestMerge_ReassignFailureRollsBack(t *testing.T) {
	engine, customers, _, tx := newFixture(errors.New("connection reset"), nil)

	result, err := engine.Merge(context.Background(), "tenant-1", &models.MergeRequest{
		PrimaryCustomerID: "primary",
		DuplicateIDs:      []string{"dup-1"},
	})

	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "connection reset", result.Error)
	assert.Contains(t, customers.customers, "dup-1")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestMerge_DeleteFailureRollsBack(t *testing.T) {
	engine, customers, _, tx := newFixture(nil, errors.New("deadlock detected"))

	result, err := engine.Merge(context.Background(), "tenant-1", &models.MergeRequest{
		PrimaryCustomerID: "primary",
		DuplicateIDs:      []string{"dup-1"},
	})

	require.Error(t, err)
	assert.False(t, result.Success)
	assert.False(t, customers.aggregatesSet)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}
