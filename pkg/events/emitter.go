// Package events handles event emission for customer lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter handles event emission for Clover
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitCustomerMerged emits a customer.merged event with details about the
// merge. Emission failures are logged and returned but never affect the
// already-committed merge itself.
func (e *Emitter) EmitCustomerMerged(ctx context.Context, tenantID string, result *models.MergeResult, sourceIDs []string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitCustomerMerged")
	defer span.End()

	mergeData := map[string]any{
		"schema_version":      SchemaVersion,
		"bookings_reassigned": result.BookingsReassigned,
		"duplicates_removed":  result.DuplicatesRemoved,
	}
	dataJSON, _ := json.Marshal(mergeData)

	event := &kafka.CustomerEvent{
		EventType:       "customer.merged",
		TenantID:        tenantID,
		CustomerID:      result.PrimaryCustomerID,
		Data:            dataJSON,
		SourceCustomers: sourceIDs,
	}

	if err := e.producer.PublishCustomerEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit customer.merged event")
		return err
	}

	return nil
}

// EmitScanCompleted emits a dedup.scan.completed event summarizing a scan
func (e *Emitter) EmitScanCompleted(ctx context.Context, tenantID string, customersScanned int, groupsFound int) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitScanCompleted")
	defer span.End()

	data := map[string]any{
		"schema_version":    SchemaVersion,
		"customers_scanned": customersScanned,
		"groups_found":      groupsFound,
	}
	dataJSON, _ := json.Marshal(data)

	event := &kafka.CustomerEvent{
		EventType: "dedup.scan.completed",
		TenantID:  tenantID,
		Data:      dataJSON,
	}

	if err := e.producer.PublishCustomerEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit dedup.scan.completed event")
		return err
	}

	return nil
}
