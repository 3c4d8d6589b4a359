package customer

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/internal/database"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/models"
)

const customerColumns = "id, tenant_id, email, first_name, last_name, phone, total_bookings, total_spent, created_at, updated_at"

// Repository handles customer persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new customer repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// DB exposes the underlying handle so callers can open transactions that
// span customer and booking mutations.
func (r *Repository) DB() database.DB {
	return r.db
}

// List returns every customer in scope ordered by creation time (earliest
// first, id as tiebreaker). The ordering is what makes rescans reproducible
// and what decides which record of a cluster becomes its primary. An empty
// tenantID lists the whole table.
func (r *Repository) List(ctx context.Context, tenantID string) ([]models.Customer, error) {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(customerColumns)
	sb.From("customers")
	if tenantID != "" {
		sb.Where(sb.Equal("tenant_id", tenantID))
	}
	sb.OrderBy("created_at ASC", "id ASC")

	query, args := sb.Build()
	var customers []models.Customer
	if err := database.QuerierFromContext(ctx, r.db).SelectContext(ctx, &customers, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list customers")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list customers")
	}

	return customers, nil
}

// Get retrieves a customer by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.Customer, error) {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(customerColumns)
	sb.From("customers")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var customer models.Customer
	if err := database.QuerierFromContext(ctx, r.db).GetContext(ctx, &customer, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("customer %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get customer")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get customer")
	}

	return &customer, nil
}

// GetByIDs retrieves multiple customers by id
func (r *Repository) GetByIDs(ctx context.Context, tenantID string, ids []string) ([]models.Customer, error) {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.GetByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(customerColumns)
	sb.From("customers")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.In("id", idsToAny(ids)...),
	)

	query, args := sb.Build()
	var customers []models.Customer
	if err := database.QuerierFromContext(ctx, r.db).SelectContext(ctx, &customers, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get customers by ids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get customers")
	}

	return customers, nil
}

// UpdateContact applies the merge field overrides to a customer in a single
// update. A request with no overrides set is a no-op.
func (r *Repository) UpdateContact(ctx context.Context, tenantID string, id string, overrides *models.MergeOverrides) error {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.UpdateContact")
	defer span.End()

	if overrides.IsEmpty() {
		return nil
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("customers")

	assignments := []string{sb.Assign("updated_at", time.Now().UTC())}
	if overrides.Email != nil {
		assignments = append(assignments, sb.Assign("email", *overrides.Email))
	}
	if overrides.Phone != nil {
		assignments = append(assignments, sb.Assign("phone", *overrides.Phone))
	}
	if overrides.FirstName != nil {
		assignments = append(assignments, sb.Assign("first_name", *overrides.FirstName))
	}
	if overrides.LastName != nil {
		assignments = append(assignments, sb.Assign("last_name", *overrides.LastName))
	}
	sb.Set(assignments...)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	result, err := database.QuerierFromContext(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"customer_id": id}).Error("Failed to update customer contact fields")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update customer")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("customer %s not found", id))
	}

	return nil
}

// UpdateAggregates writes the recomputed booking count and lifetime spend
// for a customer. Callers derive the values from the bookings table, never
// from incremental arithmetic on stale fields.
func (r *Repository) UpdateAggregates(ctx context.Context, tenantID string, id string, totalBookings int, totalSpent float64) error {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.UpdateAggregates")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("customers")
	sb.Set(
		sb.Assign("total_bookings", totalBookings),
		sb.Assign("total_spent", totalSpent),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	if _, err := database.QuerierFromContext(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"customer_id": id}).Error("Failed to update customer aggregates")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update customer aggregates")
	}

	return nil
}

// DeleteBatch removes customers by id in one statement and returns the
// number of rows removed.
func (r *Repository) DeleteBatch(ctx context.Context, tenantID string, ids []string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "customer.Repository.DeleteBatch")
	defer span.End()

	if len(ids) == 0 {
		return 0, nil
	}

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("customers")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.In("id", idsToAny(ids)...),
	)

	query, args := sb.Build()
	result, err := database.QuerierFromContext(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete customers batch")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete customers")
	}

	rows, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{"count": rows}).Debug("Deleted customers batch")
	return rows, nil
}

func idsToAny(ids []string) []any {
	result := make([]any, len(ids))
	for i, id := range ids {
		result[i] = id
	}
	return result
}
