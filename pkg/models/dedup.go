package models

import "time"

// Match reason categories surfaced in DuplicateGroup.MatchedOn.
const (
	MatchCategoryEmail = "email"
	MatchCategoryPhone = "phone"
	MatchCategoryName  = "name"
)

// MatchResult is the outcome of scoring one customer pair.
type MatchResult struct {
	SourceCustomerID    string   `json:"source_customer_id"`
	CandidateCustomerID string   `json:"candidate_customer_id"`
	Score               int      `json:"score"`
	Reasons             []string `json:"reasons,omitempty"`
}

// DuplicateCandidate is a customer judged likely to be a duplicate of a
// group's primary record, carrying its pair score and the reasons for it.
type DuplicateCandidate struct {
	CustomerID    string    `json:"customer_id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Phone         *string   `json:"phone,omitempty"`
	TotalBookings int       `json:"total_bookings"`
	TotalSpent    float64   `json:"total_spent"`
	CreatedAt     time.Time `json:"created_at"`
	Score         int       `json:"score"`
	Reasons       []string  `json:"reasons"`
}

// DuplicateGroup is one cluster of probable duplicates. A customer id
// appears in at most one group per scan and the primary is never listed
// among its own candidates.
type DuplicateGroup struct {
	PrimaryCustomerID string               `json:"primary_customer_id"`
	Primary           Customer             `json:"primary"`
	Candidates        []DuplicateCandidate `json:"candidates"`
	MatchedOn         []string             `json:"matched_on"`
}

// MergeOverrides are optional field values applied to the primary record
// after its duplicates are merged into it.
type MergeOverrides struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// IsEmpty reports whether no override fields are set.
func (o *MergeOverrides) IsEmpty() bool {
	return o == nil || (o.Email == nil && o.Phone == nil && o.FirstName == nil && o.LastName == nil)
}

// MergeRequest asks the merge engine to fold a set of duplicate customers
// into a surviving primary record.
type MergeRequest struct {
	PrimaryCustomerID string          `json:"primary_customer_id" validate:"required"`
	DuplicateIDs      []string        `json:"duplicate_ids" validate:"required,min=1"`
	Overrides         *MergeOverrides `json:"overrides,omitempty"`
}

// MergeResult is the transient outcome of one merge invocation. It is
// consumed by the caller and never persisted.
type MergeResult struct {
	Success            bool   `json:"success"`
	PrimaryCustomerID  string `json:"primary_customer_id"`
	BookingsReassigned int64  `json:"bookings_reassigned"`
	DuplicatesRemoved  int64  `json:"duplicates_removed"`
	Error              string `json:"error,omitempty"`
}

// DedupStats summarizes the most recent scan for a scope. It is derived on
// every scan and never persisted independently of one.
type DedupStats struct {
	TotalCustomers int        `json:"total_customers"`
	DuplicateCount int        `json:"duplicate_count"`
	GroupCount     int        `json:"group_count"`
	LastScanAt     *time.Time `json:"last_scan_at,omitempty"`
}
