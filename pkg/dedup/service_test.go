package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

type fakeLister struct {
	customers []models.Customer
	err       error
	calls     int
}

func (f *fakeLister) List(ctx context.Context, tenantID string) ([]models.Customer, error) {
	f.calls++
	return f.customers, f.err
}

type fakeClusterer struct {
	groups []models.DuplicateGroup
}

func (f *fakeClusterer) Cluster(ctx context.Context, customers []models.Customer) []models.DuplicateGroup {
	return f.groups
}

type fakeMerger struct {
	result *models.MergeResult
	err    error
}

func (f *fakeMerger) Merge(ctx context.Context, tenantID string, req *models.MergeRequest) (*models.MergeResult, error) {
	if f.err != nil {
		return &models.MergeResult{PrimaryCustomerID: req.PrimaryCustomerID, Error: f.err.Error()}, f.err
	}
	return f.result, nil
}

type fakeEmitter struct {
	mergedEvents int
	scanEvents   int
	err          error
}

func (f *fakeEmitter) EmitCustomerMerged(ctx context.Context, tenantID string, result *models.MergeResult, sourceIDs []string) error {
	f.mergedEvents++
	return f.err
}

func (f *fakeEmitter) EmitScanCompleted(ctx context.Context, tenantID string, customersScanned int, groupsFound int) error {
	f.scanEvents++
	return f.err
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func sampleGroups() []models.DuplicateGroup {
	return []models.DuplicateGroup{
		{
			PrimaryCustomerID: "cust-1",
			Candidates: []models.DuplicateCandidate{
				{CustomerID: "cust-2", Score: 100},
				{CustomerID: "cust-3", Score: 80},
			},
		},
		{
			PrimaryCustomerID: "cust-4",
			Candidates: []models.DuplicateCandidate{
				{CustomerID: "cust-5", Score: 70},
			},
		},
	}
}

func TestFindDuplicates_CachesGroupsAndEmits(t *testing.T) {
	lister := &fakeLister{customers: make([]models.Customer, 6)}
	emitter := &fakeEmitter{}
	svc := NewService(lister, &fakeClusterer{groups: sampleGroups()}, &fakeMerger{}, emitter, testLogger())

	groups, err := svc.FindDuplicates(context.Background(), "tenant-1")

	require.NoError(t, err)
	assert.Len(t, groups, 2)
	assert.Equal(t, 1, emitter.scanEvents)

	status := svc.Status(context.Background())
	assert.Equal(t, 2, status.GroupCount)
	assert.Empty(t, status.LastError)
	assert.NotNil(t, status.LastScanAt)
	assert.False(t, status.Scanning)
}

func TestFindDuplicates_ListFailureSurfacesError(t *testing.T) {
	lister := &fakeLister{err: errors.New("db unavailable")}
	svc := NewService(lister, &fakeClusterer{}, &fakeMerger{}, nil, testLogger())

	_, err := svc.FindDuplicates(context.Background(), "tenant-1")

	require.Error(t, err)
	status := svc.Status(context.Background())
	assert.Equal(t, "db unavailable", status.LastError)
}

func TestFindDuplicates_NilEmitter(t *testing.T) {
	svc := NewService(&fakeLister{}, &fakeClusterer{groups: sampleGroups()}, &fakeMerger{}, nil, testLogger())

	_, err := svc.FindDuplicates(context.Background(), "tenant-1")
	require.NoError(t, err)
}

func TestMergeCustomers_RemovesGroupOnSuccess(t *testing.T) {
	merger := &fakeMerger{result: &models.MergeResult{
		Success:            true,
		PrimaryCustomerID:  "cust-1",
		BookingsReassigned: 3,
		DuplicatesRemoved:  2,
	}}
	emitter := &fakeEmitter{}
	svc := NewService(&fakeLister{}, &fakeClusterer{groups: sampleGroups()}, merger, emitter, testLogger())

	_, err := svc.FindDuplicates(context.Background(), "tenant-1")
	require.NoError(t, err)

	result, err := svc.MergeCustomers(context.Background(), "tenant-1", &models.MergeRequest{
		PrimaryCustomerID: "cust-1",
		DuplicateIDs:      []string{"cust-2", "cust-3"},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, emitter.mergedEvents)

	remaining := svc.Groups(context.Background())
	require.Len(t, remaining, 1)
	assert.Equal(t, "cust-4", remaining[0].PrimaryCustomerID)
}

func TestMergeCustomers_KeepsGroupOnFailure(t *testing.T) {
	merger := &fakeMerger{err: errors.New("deadlock detected")}
	emitter := &fakeEmitter{}
	svc := NewService(&fakeLister{}, &fakeClusterer{groups: sampleGroups()}, merger, emitter, testLogger())

	_, err := svc.FindDuplicates(context.Background(), "tenant-1")
	require.NoError(t, err)

	_, err = svc.MergeCustomers(context.Background(), "tenant-1", &models.MergeRequest{
		PrimaryCustomerID: "cust-1",
		DuplicateIDs:      []string{"cust-2"},
	})

	require.Error(t, err)
	assert.Equal(t, 0, emitter.mergedEvents)
	assert.Len(t, svc.Groups(context.Background()), 2)

	status := svc.Status(context.Background())
	assert.Equal(t, "deadlock detected", status.LastError)
	assert.False(t, status.Merging)
}

func TestMergeCustomers_ErrorClearedByNextOperation(t *testing.T) {
	merger := &fakeMerger{err: errors.New("deadlock detected")}
	svc := NewService(&fakeLister{}, &fakeClusterer{groups: sampleGroups()}, merger, nil, testLogger())

	_, _ = svc.MergeCustomers(context.Background(), "tenant-1", &models.MergeRequest{
		PrimaryCustomerID: "cust-1",
		DuplicateIDs:      []string{"cust-2"},
	})
	require.NotEmpty(t, svc.Status(context.Background()).LastError)

	_, err := svc.FindDuplicates(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Empty(t, svc.Status(context.Background()).LastError)
}

func TestDismissGroup(t *testing.T) {
	svc := NewService(&fakeLister{}, &fakeClusterer{groups: sampleGroups()}, &fakeMerger{}, nil, testLogger())

	_, err := svc.FindDuplicates(context.Background(), "tenant-1")
	require.NoError(t, err)

	assert.True(t, svc.DismissGroup(context.Background(), "cust-4"))
	assert.False(t, svc.DismissGroup(context.Background(), "cust-4"))
	assert.False(t, svc.DismissGroup(context.Background(), "unknown"))

	remaining := svc.Groups(context.Background())
	require.Len(t, remaining, 1)
	assert.Equal(t, "cust-1", remaining[0].PrimaryCustomerID)
}

func TestStats_RescansForFreshNumbers(t *testing.T) {
	lister := &fakeLister{customers: make([]models.Customer, 10)}
	svc := NewService(lister, &fakeClusterer{groups: sampleGroups()}, &fakeMerger{}, nil, testLogger())

	stats, err := svc.Stats(context.Background(), "tenant-1")

	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalCustomers)
	assert.Equal(t, 3, stats.DuplicateCount)
	assert.Equal(t, 2, stats.GroupCount)
	assert.NotNil(t, stats.LastScanAt)
	assert.Equal(t, 1, lister.calls)

	_, err = svc.Stats(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 2, lister.calls)
}
