package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildStatusCache(t *testing.T) {
	t.Run("collects statuses across pages", func(t *testing.T) {
		records := &fakeRecords{total: 25}
		cache := BuildStatusCache(context.Background(), records, 10, StatusPageCap)

		assert.Equal(t, 25, cache.Len())
		status, ok := cache.Lookup("SN0024")
		assert.True(t, ok)
		assert.Equal(t, "2_00_Operational", status)
		assert.Len(t, records.requests, 3)
	})

	t.Run("any page failure yields an empty cache", func(t *testing.T) {
		records := &fakeRecords{total: 25, fail: map[int]bool{2: true}}
		cache := BuildStatusCache(context.Background(), records, 10, StatusPageCap)

		assert.Equal(t, 0, cache.Len())
		_, ok := cache.Lookup("SN0000")
		assert.False(t, ok)
	})

	t.Run("page cap truncates", func(t *testing.T) {
		records := &fakeRecords{total: 100}
		cache := BuildStatusCache(context.Background(), records, 10, 3)

		assert.Equal(t, 30, cache.Len())
		_, ok := cache.Lookup("SN0030")
		assert.False(t, ok, "records past the cap are absent")
	})

	t.Run("stops at reported total", func(t *testing.T) {
		records := &fakeRecords{total: 20, reportTotal: true}
		_ = BuildStatusCache(context.Background(), records, 10, StatusPageCap)
		assert.Len(t, records.requests, 2, "no trailing empty page when the total is known")
	})

	t.Run("defaults", func(t *testing.T) {
		records := &fakeRecords{total: 5}
		_ = BuildStatusCache(context.Background(), records, 0, 0)
		assert.Equal(t, StatusPageSize, records.requests[0].PageSize)
	})
}

type sliceSink struct {
	records []Record
	err     error
}

func (s *sliceSink) WriteRecords(records []Record) error {
	s.records = records
	return s.err
}

func TestRunExport(t *testing.T) {
	t.Run("writes records", func(t *testing.T) {
		sink := &sliceSink{}
		result, err := NewExporter(NewSync(&fakeRecords{total: 3}, nil), sink).RunExport(context.Background())
		assert.NoError(t, err)
		assert.Len(t, sink.records, 3)
		assert.Len(t, result.Records, 3)
	})

	t.Run("empty inventory", func(t *testing.T) {
		sink := &sliceSink{}
		_, err := NewExporter(NewSync(&fakeRecords{}, nil), sink).RunExport(context.Background())
		assert.ErrorIs(t, err, ErrNoRecords)
		assert.Nil(t, sink.records)
	})

	t.Run("sink failure", func(t *testing.T) {
		sink := &sliceSink{err: errPage}
		_, err := NewExporter(NewSync(&fakeRecords{total: 1}, nil), sink).RunExport(context.Background())
		assert.ErrorIs(t, err, errPage)
	})
}
