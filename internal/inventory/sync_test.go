package inventory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPage = errors.New("boom")

// fakeRecords serves total records in pages; pages listed in fail return
// errPage.
type fakeRecords struct {
	total       int
	fail        map[int]bool
	reportTotal bool
	requests    []PageRequest
	onRequest   func(page int)
}

func (f *fakeRecords) ListRecords(_ context.Context, req PageRequest) (RecordPage, error) {
	f.requests = append(f.requests, req)
	if f.onRequest != nil {
		f.onRequest(req.Page)
	}
	if f.fail[req.Page] {
		return RecordPage{}, errPage
	}

	start := req.Page * req.PageSize
	end := min(start+req.PageSize, f.total)
	var page RecordPage
	for i := start; i < end; i++ {
		page.Records = append(page.Records, Record{
			Serial:  fmt.Sprintf("SN%04d", i),
			VenueID: fmt.Sprintf("v%d", i%2),
			Status:  "2_00_Operational",
		})
	}
	if f.reportTotal {
		page.TotalElements = f.total
	}
	return page, nil
}

type fakeGroups struct {
	groups []Group
	err    error
	calls  int
}

func (f *fakeGroups) ListGroups(_ context.Context, req PageRequest) (GroupPage, error) {
	f.calls++
	if f.err != nil {
		return GroupPage{}, f.err
	}
	start := req.Page * req.PageSize
	if start >= len(f.groups) {
		return GroupPage{}, nil
	}
	end := min(start+req.PageSize, len(f.groups))
	return GroupPage{Groups: f.groups[start:end], TotalElements: len(f.groups)}, nil
}

type memoryCache struct {
	names  map[string]string
	stored map[string]string
}

func (m *memoryCache) Load(context.Context) (map[string]string, bool) {
	return m.names, m.names != nil
}

func (m *memoryCache) Store(_ context.Context, names map[string]string) {
	m.stored = names
}

func TestFetchAll_RequestCounts(t *testing.T) {
	const pageSize = 10

	tests := []struct {
		name         string
		total        int
		reportTotal  bool
		wantRequests int
	}{
		{name: "exact multiple with reported total", total: 3 * pageSize, reportTotal: true, wantRequests: 3},
		{name: "short last page with reported total", total: 3*pageSize - 1, reportTotal: true, wantRequests: 3},
		{name: "exact multiple without total needs a trailing empty page", total: 3 * pageSize, wantRequests: 4},
		{name: "short last page stops", total: 3*pageSize - 1, wantRequests: 3},
		{name: "empty inventory", total: 0, wantRequests: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := &fakeRecords{total: tt.total, reportTotal: tt.reportTotal}
			sync := NewSync(records, nil, WithPageSize(pageSize))

			result, err := sync.FetchAll(context.Background())
			require.NoError(t, err)

			assert.Len(t, records.requests, tt.wantRequests)
			assert.Len(t, result.Records, tt.total)
			assert.Equal(t, tt.wantRequests, result.Pages)
			for i, req := range records.requests {
				assert.Equal(t, i, req.Page)
				assert.Equal(t, pageSize, req.PageSize)
				assert.Equal(t, SortAscending, req.SortOrder)
			}
		})
	}
}

func TestFetchAll_SkipsFailedPage(t *testing.T) {
	records := &fakeRecords{total: 25, fail: map[int]bool{1: true}}
	sync := NewSync(records, nil, WithPageSize(10))

	result, err := sync.FetchAll(context.Background())
	require.NoError(t, err)

	assert.Len(t, records.requests, 3)
	assert.Len(t, result.Records, 15, "pages 0 and 2 only")
	assert.Equal(t, 1, result.FailedPages())
	require.ErrorIs(t, result.PageErrors, errPage)
	assert.Contains(t, result.PageErrors.Error(), "page 1")
	assert.Equal(t, "SN0020", result.Records[10].Serial)
}

func TestFetchAll_StopsOnceReportedTotalFetched(t *testing.T) {
	records := &fakeRecords{total: 30, reportTotal: true}
	sync := NewSync(records, nil, WithPageSize(10))

	result, err := sync.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, records.requests, 3)
	assert.Equal(t, 30, result.TotalElements)
	assert.Equal(t, 3, result.Pages)
	assert.Len(t, result.Records, 30)
}

func TestFetchAll_PageCeiling(t *testing.T) {
	records := &fakeRecords{total: 1_000_000}
	sync := NewSync(records, nil, WithPageSize(10))

	result, err := sync.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, records.requests, DefaultPageCeiling)
	assert.Len(t, result.Records, DefaultPageCeiling*10)
}

func TestFetchAll_CeilingAppliesToFailingPages(t *testing.T) {
	fail := make(map[int]bool)
	for i := range 200 {
		fail[i] = true
	}
	records := &fakeRecords{total: 50, fail: fail}
	sync := NewSync(records, nil, WithPageSize(10), WithPageCeiling(5))

	result, err := sync.FetchAll(context.Background())
	require.ErrorIs(t, err, ErrInventoryUnavailable)
	require.ErrorIs(t, err, errPage)
	assert.Len(t, records.requests, 5)
	assert.Equal(t, 5, result.FailedPages())
}

func TestFetchAll_GroupNames(t *testing.T) {
	t.Run("live names", func(t *testing.T) {
		groups := &fakeGroups{groups: []Group{{ID: "v0", Name: "HQ"}, {ID: "v1", Name: "Branch"}}}
		cache := &memoryCache{}
		sync := NewSync(&fakeRecords{total: 3}, groups, WithPageSize(10), WithGroupCache(cache))

		result, err := sync.FetchAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, GroupNamesLive, result.GroupNames)
		assert.Equal(t, "HQ", result.Records[0].VenueName)
		assert.Equal(t, "Branch", result.Records[1].VenueName)
		assert.Equal(t, "HQ", cache.stored["v0"])
	})

	t.Run("failure falls back to cache", func(t *testing.T) {
		groups := &fakeGroups{err: errPage}
		cache := &memoryCache{names: map[string]string{"v0": "Cached HQ"}}
		sync := NewSync(&fakeRecords{total: 2}, groups, WithGroupCache(cache))

		result, err := sync.FetchAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, GroupNamesCache, result.GroupNames)
		assert.Equal(t, "Cached HQ", result.Records[0].VenueName)
		assert.Equal(t, UnknownGroupName, result.Records[1].VenueName)
	})

	t.Run("failure without cache degrades to Unknown", func(t *testing.T) {
		sync := NewSync(&fakeRecords{total: 2}, &fakeGroups{err: errPage})

		result, err := sync.FetchAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, GroupNamesNone, result.GroupNames)
		for _, rec := range result.Records {
			assert.Equal(t, UnknownGroupName, rec.VenueName)
		}
	})

	t.Run("group pagination", func(t *testing.T) {
		var many []Group
		for i := range 25 {
			many = append(many, Group{ID: fmt.Sprintf("g%d", i), Name: fmt.Sprintf("G%d", i)})
		}
		groups := &fakeGroups{groups: many}
		sync := NewSync(&fakeRecords{}, groups, WithPageSize(10))

		names, err := sync.FetchGroupNames(context.Background())
		require.NoError(t, err)
		assert.Len(t, names, 25)
		assert.Equal(t, 3, groups.calls)
	})
}

func TestFetchAll_InterruptedReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := &fakeRecords{total: 100, onRequest: func(page int) {
		if page == 1 {
			cancel()
		}
	}}
	sync := NewSync(records, nil, WithPageSize(10))

	result, err := sync.FetchAll(ctx)
	require.NoError(t, err)
	assert.True(t, result.Interrupted)
	assert.Len(t, records.requests, 2)
	assert.Len(t, result.Records, 20, "page 1 completed before the loop noticed")
}

func TestPageMeta(t *testing.T) {
	meta := NewPageMeta(0, 100, 250, 0, 100)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.Equal(t, "1/3", meta.Label())

	last := NewPageMeta(2, 100, 300, 0, 100)
	assert.False(t, last.HasNext, "full page but last known page")
	assert.Equal(t, "3/3", last.Label())

	unknown := NewPageMeta(4, 100, 0, 0, 7)
	assert.False(t, unknown.HasNext)
	assert.Equal(t, "5/?", unknown.Label())
}
