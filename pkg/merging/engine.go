// Package merging folds duplicate customer records into a surviving primary
package merging

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/database"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/models"
)

// CustomerStore is the slice of the customer repository the merge engine needs
type CustomerStore interface {
	GetByIDs(ctx context.Context, tenantID string, ids []string) ([]models.Customer, error)
	UpdateContact(ctx context.Context, tenantID string, id string, overrides *models.MergeOverrides) error
	UpdateAggregates(ctx context.Context, tenantID string, id string, totalBookings int, totalSpent float64) error
	DeleteBatch(ctx context.Context, tenantID string, ids []string) (int64, error)
	DB() database.DB
}

// BookingStore is the slice of the booking repository the merge engine needs
type BookingStore interface {
	ReassignCustomer(ctx context.Context, tenantID string, fromCustomerID string, toCustomerID string) (int64, error)
	AggregateByCustomer(ctx context.Context, tenantID string, customerID string) (*models.BookingAggregate, error)
}

// Engine orchestrates customer merges. Every merge runs inside one database
// transaction: either all bookings move, overrides apply, aggregates update,
// and duplicates disappear, or none of it does.
type Engine struct {
	customers CustomerStore
	bookings  BookingStore
	logger    ectologger.Logger
}

// NewEngine creates a new merge engine
func NewEngine(customers CustomerStore, bookings BookingStore, logger ectologger.Logger) *Engine {
	return &Engine{
		customers: customers,
		bookings:  bookings,
		logger:    logger,
	}
}

// Merge folds the request's duplicates into its primary. The returned result
// always carries the primary id; on failure Success is false, Error holds
// the message, and the returned error preserves the HTTP status for callers.
func (e *Engine) Merge(ctx context.Context, tenantID string, req *models.MergeRequest) (*models.MergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.Merge")
	defer span.End()

	result := &models.MergeResult{
		PrimaryCustomerID: req.PrimaryCustomerID,
	}

	bookingsReassigned, duplicatesRemoved, err := e.merge(ctx, tenantID, req)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"primary_customer_id": req.PrimaryCustomerID,
			"duplicate_count":     len(req.DuplicateIDs),
		}).Error("Merge failed")
		result.Error = err.Error()
		return result, err
	}

	result.Success = true
	result.BookingsReassigned = bookingsReassigned
	result.DuplicatesRemoved = duplicatesRemoved

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"primary_customer_id": req.PrimaryCustomerID,
		"bookings_reassigned": bookingsReassigned,
		"duplicates_removed":  duplicatesRemoved,
	}).Info("Merged duplicate customers")

	return result, nil
}

func (e *Engine) merge(ctx context.Context, tenantID string, req *models.MergeRequest) (int64, int64, error) {
	if err := validateRequest(req); err != nil {
		return 0, 0, err
	}

	ctx, tx, err := e.customers.DB().GetTx(ctx, nil)
	if err != nil {
		return 0, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin merge transaction")
	}
	defer tx.Rollback(ctx)

	if err := e.verifyCustomers(ctx, tenantID, req); err != nil {
		return 0, 0, err
	}

	var bookingsReassigned int64
	for _, duplicateID := range req.DuplicateIDs {
		moved, err := e.bookings.ReassignCustomer(ctx, tenantID, duplicateID, req.PrimaryCustomerID)
		if err != nil {
			return 0, 0, err
		}
		bookingsReassigned += moved
	}

	if !req.Overrides.IsEmpty() {
		if err := e.customers.UpdateContact(ctx, tenantID, req.PrimaryCustomerID, req.Overrides); err != nil {
			return 0, 0, err
		}
	}

	duplicatesRemoved, err := e.customers.DeleteBatch(ctx, tenantID, req.DuplicateIDs)
	if err != nil {
		return 0, 0, err
	}

	// Aggregates are recomputed from the bookings table after the moves and
	// deletes, never incremented from the old values.
	aggregate, err := e.bookings.AggregateByCustomer(ctx, tenantID, req.PrimaryCustomerID)
	if err != nil {
		return 0, 0, err
	}
	if err := e.customers.UpdateAggregates(ctx, tenantID, req.PrimaryCustomerID, aggregate.Count, aggregate.TotalAmount); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit merge transaction")
	}

	return bookingsReassigned, duplicatesRemoved, nil
}

// verifyCustomers confirms the primary and every duplicate exist in scope
// before anything is mutated.
func (e *Engine) verifyCustomers(ctx context.Context, tenantID string, req *models.MergeRequest) error {
	ids := append([]string{req.PrimaryCustomerID}, req.DuplicateIDs...)
	customers, err := e.customers.GetByIDs(ctx, tenantID, ids)
	if err != nil {
		return err
	}

	found := make(map[string]bool, len(customers))
	for _, c := range customers {
		found[c.ID] = true
	}

	if !found[req.PrimaryCustomerID] {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("primary customer %s not found", req.PrimaryCustomerID))
	}
	for _, id := range req.DuplicateIDs {
		if !found[id] {
			return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("duplicate customer %s not found", id))
		}
	}

	return nil
}

func validateRequest(req *models.MergeRequest) error {
	if req.PrimaryCustomerID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "primary customer id is required")
	}
	if len(req.DuplicateIDs) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "at least one duplicate id is required")
	}

	seen := make(map[string]bool, len(req.DuplicateIDs))
	for _, id := range req.DuplicateIDs {
		if id == req.PrimaryCustomerID {
			return httperror.NewHTTPError(http.StatusBadRequest, "primary customer cannot be listed as a duplicate")
		}
		if seen[id] {
			return httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("duplicate id %s listed more than once", id))
		}
		seen[id] = true
	}

	return nil
}
