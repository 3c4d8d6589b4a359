package booking

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/internal/database"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/models"
)

const bookingColumns = "id, tenant_id, customer_id, amount, status, starts_at, created_at"

// Repository handles booking persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new booking repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListByCustomer returns a customer's bookings, newest scheduled first.
func (r *Repository) ListByCustomer(ctx context.Context, tenantID string, customerID string) ([]models.Booking, error) {
	ctx, span := tracing.StartSpan(ctx, "booking.Repository.ListByCustomer")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(bookingColumns)
	sb.From("bookings")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("customer_id", customerID),
	)
	sb.OrderBy("starts_at DESC")

	query, args := sb.Build()
	var bookings []models.Booking
	if err := database.QuerierFromContext(ctx, r.db).SelectContext(ctx, &bookings, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list bookings for customer")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list bookings")
	}

	return bookings, nil
}

// ReassignCustomer moves every booking from one customer to another and
// returns the number of rows moved.
func (r *Repository) ReassignCustomer(ctx context.Context, tenantID string, fromCustomerID string, toCustomerID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "booking.Repository.ReassignCustomer")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("bookings")
	sb.Set(sb.Assign("customer_id", toCustomerID))
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("customer_id", fromCustomerID),
	)

	query, args := sb.Build()
	result, err := database.QuerierFromContext(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"from_customer_id": fromCustomerID,
			"to_customer_id":   toCustomerID,
		}).Error("Failed to reassign bookings")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reassign bookings")
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}

// AggregateByCustomer recomputes a customer's booking count and lifetime
// spend directly from the bookings table.
func (r *Repository) AggregateByCustomer(ctx context.Context, tenantID string, customerID string) (*models.BookingAggregate, error) {
	ctx, span := tracing.StartSpan(ctx, "booking.Repository.AggregateByCustomer")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*) AS booking_count", "COALESCE(SUM(amount), 0) AS total_amount")
	sb.From("bookings")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("customer_id", customerID),
	)

	query, args := sb.Build()
	var aggregate models.BookingAggregate
	if err := database.QuerierFromContext(ctx, r.db).GetContext(ctx, &aggregate, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to aggregate bookings for customer")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to aggregate bookings")
	}

	return &aggregate, nil
}
