// Package dedup coordinates duplicate scans and merges for a scope
package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/models"
)

// CustomerLister provides the customer list a scan runs over
type CustomerLister interface {
	List(ctx context.Context, tenantID string) ([]models.Customer, error)
}

// Clusterer groups a customer list into duplicate groups
type Clusterer interface {
	Cluster(ctx context.Context, customers []models.Customer) []models.DuplicateGroup
}

// Merger folds duplicates into a primary record
type Merger interface {
	Merge(ctx context.Context, tenantID string, req *models.MergeRequest) (*models.MergeResult, error)
}

// EventEmitter publishes dedup lifecycle events
type EventEmitter interface {
	EmitCustomerMerged(ctx context.Context, tenantID string, result *models.MergeResult, sourceIDs []string) error
	EmitScanCompleted(ctx context.Context, tenantID string, customersScanned int, groupsFound int) error
}

// SessionStatus is a point-in-time snapshot of the controller's state
type SessionStatus struct {
	Scanning   bool       `json:"scanning"`
	Merging    bool       `json:"merging"`
	GroupCount int        `json:"group_count"`
	LastError  string     `json:"last_error,omitempty"`
	LastScanAt *time.Time `json:"last_scan_at,omitempty"`
}

// Service is the stateful session controller over scanning and merging. A
// mutex serializes scans and merges so the cached group list never reflects
// a half-finished operation; the error of the most recent operation is kept
// until the next one starts.
type Service struct {
	customers CustomerLister
	clusterer Clusterer
	merger    Merger
	emitter   EventEmitter // nil disables event emission
	logger    ectologger.Logger

	mu             sync.Mutex
	scanning       bool
	merging        bool
	groups         []models.DuplicateGroup
	lastError      string
	lastScanAt     *time.Time
	totalCustomers int
}

// NewService creates a new dedup session controller. The emitter may be nil.
func NewService(customers CustomerLister, clusterer Clusterer, merger Merger, emitter EventEmitter, logger ectologger.Logger) *Service {
	return &Service{
		customers: customers,
		clusterer: clusterer,
		merger:    merger,
		emitter:   emitter,
		logger:    logger,
	}
}

// FindDuplicates runs a full scan over the scope's customers and replaces
// the cached group list with the fresh result.
func (s *Service) FindDuplicates(ctx context.Context, tenantID string) ([]models.DuplicateGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "dedup.Service.FindDuplicates")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.scanning = true
	s.lastError = ""
	defer func() { s.scanning = false }()

	groups, total, err := s.scan(ctx, tenantID)
	if err != nil {
		s.lastError = err.Error()
		return nil, err
	}

	if s.emitter != nil {
		if err := s.emitter.EmitScanCompleted(ctx, tenantID, total, len(groups)); err != nil {
			// Emission failures never fail the scan.
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit scan completed event")
		}
	}

	return cloneGroups(groups), nil
}

// scan fetches and clusters; the caller holds the lock.
func (s *Service) scan(ctx context.Context, tenantID string) ([]models.DuplicateGroup, int, error) {
	customers, err := s.customers.List(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}

	groups := s.clusterer.Cluster(ctx, customers)

	now := time.Now().UTC()
	s.groups = groups
	s.lastScanAt = &now
	s.totalCustomers = len(customers)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"customers": len(customers),
		"groups":    len(groups),
	}).Info("Duplicate scan completed")

	return groups, len(customers), nil
}

// Groups returns the groups from the most recent scan
func (s *Service) Groups(ctx context.Context) []models.DuplicateGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneGroups(s.groups)
}

// MergeCustomers merges a group's duplicates into its primary. On success
// the group leaves the cached list; on failure it stays so the operator can
// retry, and the error is surfaced via Status until the next operation.
func (s *Service) MergeCustomers(ctx context.Context, tenantID string, req *models.MergeRequest) (*models.MergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "dedup.Service.MergeCustomers")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.merging = true
	s.lastError = ""
	defer func() { s.merging = false }()

	result, err := s.merger.Merge(ctx, tenantID, req)
	if err != nil {
		s.lastError = err.Error()
		return result, err
	}

	s.removeGroup(req.PrimaryCustomerID)

	if s.emitter != nil {
		if err := s.emitter.EmitCustomerMerged(ctx, tenantID, result, req.DuplicateIDs); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit customer merged event")
		}
	}

	return result, nil
}

// DismissGroup drops a group from the cached list without merging anything.
// Returns false when no group has the given primary.
func (s *Service) DismissGroup(ctx context.Context, primaryCustomerID string) bool {
	_, span := tracing.StartSpan(ctx, "dedup.Service.DismissGroup")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeGroup(primaryCustomerID)
}

// removeGroup drops the group keyed by primary id; the caller holds the lock.
func (s *Service) removeGroup(primaryCustomerID string) bool {
	for i, g := range s.groups {
		if g.PrimaryCustomerID == primaryCustomerID {
			s.groups = append(s.groups[:i], s.groups[i+1:]...)
			return true
		}
	}
	return false
}

// Stats re-runs the scan and summarizes it, so the numbers always reflect
// the current table contents rather than a stale cache.
func (s *Service) Stats(ctx context.Context, tenantID string) (*models.DedupStats, error) {
	ctx, span := tracing.StartSpan(ctx, "dedup.Service.Stats")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.scanning = true
	s.lastError = ""
	defer func() { s.scanning = false }()

	groups, total, err := s.scan(ctx, tenantID)
	if err != nil {
		s.lastError = err.Error()
		return nil, err
	}

	duplicates := 0
	for _, g := range groups {
		duplicates += len(g.Candidates)
	}

	return &models.DedupStats{
		TotalCustomers: total,
		DuplicateCount: duplicates,
		GroupCount:     len(groups),
		LastScanAt:     s.lastScanAt,
	}, nil
}

// Status reports the controller's current state
func (s *Service) Status(ctx context.Context) SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionStatus{
		Scanning:   s.scanning,
		Merging:    s.merging,
		GroupCount: len(s.groups),
		LastError:  s.lastError,
		LastScanAt: s.lastScanAt,
	}
}

func cloneGroups(groups []models.DuplicateGroup) []models.DuplicateGroup {
	out := make([]models.DuplicateGroup, len(groups))
	copy(out, groups)
	return out
}
