package marketplace

import (
	"context"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthire/agenthire-go/internal/types"
	"github.com/agenthire/agenthire-go/pkg/errs"
)

// fakeReader serves canned registry state and counts lookups.
type fakeReader struct {
	services map[uint64]types.Service
	jobs     map[uint64]types.Job
	tags     map[string][]uint64

	serviceReads int
}

func (f *fakeReader) GetService(ctx context.Context, id uint64) (*types.Service, error) {
	f.serviceReads++
	svc, ok := f.services[id]
	if !ok {
		return nil, errorsmod.Wrapf(errs.ErrNotFound, "service %d", id)
	}
	return &svc, nil
}

func (f *fakeReader) GetJob(ctx context.Context, id uint64) (*types.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, errorsmod.Wrapf(errs.ErrNotFound, "job %d", id)
	}
	return &job, nil
}

func (f *fakeReader) FindByTag(ctx context.Context, tag string) ([]uint64, error) {
	return f.tags[tag], nil
}

func (f *fakeReader) ServiceCount(ctx context.Context) (uint64, error) {
	var max uint64
	for id := range f.services {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (f *fakeReader) JobCount(ctx context.Context) (uint64, error) {
	var max uint64
	for id := range f.jobs {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func testRegistry() *fakeReader {
	return &fakeReader{
		services: map[uint64]types.Service{
			1: {ID: 1, Name: "translator", Tags: []string{"translation"}, PricePerJob: math.NewInt(100),
				Active: true, TotalJobs: 10, TotalRating: 40, RatingCount: 10},
			2: {ID: 2, Name: "reviewer", Tags: []string{"code-review"}, PricePerJob: math.NewInt(300),
				Active: true, TotalJobs: 50, TotalRating: 25, RatingCount: 5},
			3: {ID: 3, Name: "retired", Tags: []string{"translation"}, PricePerJob: math.NewInt(50),
				Active: false},
			4: {ID: 4, Name: "polyglot", Tags: []string{"translation", "code-review"}, PricePerJob: math.NewInt(200),
				Active: true, TotalJobs: 20, TotalRating: 9, RatingCount: 2},
		},
		tags: map[string][]uint64{
			"translation": {1, 3, 4},
			"code-review": {2, 4},
		},
	}
}

func ids(services []types.Service) []uint64 {
	out := make([]uint64, len(services))
	for i, s := range services {
		out[i] = s.ID
	}
	return out
}

func TestFindExcludesInactive(t *testing.T) {
	q := New(testRegistry())

	services, err := q.Find(context.Background(), types.FindOptions{Tags: []string{"translation"}})
	require.NoError(t, err)
	for _, s := range services {
		assert.True(t, s.Active)
	}
	assert.NotContains(t, ids(services), uint64(3))
}

func TestFindTagUnionDedupes(t *testing.T) {
	reg := testRegistry()
	q := New(reg)

	services, err := q.Find(context.Background(), types.FindOptions{
		Tags:   []string{"translation", "code-review"},
		SortBy: types.SortByVolume,
	})
	require.NoError(t, err)

	// Service 4 carries both tags but must appear once.
	assert.Equal(t, []uint64{2, 4, 1}, ids(services))
	// A deduped id is fetched at most once per Find.
	assert.Equal(t, 4, reg.serviceReads)
}

func TestFindMaxPrice(t *testing.T) {
	q := New(testRegistry())
	max := math.NewInt(200)

	services, err := q.Find(context.Background(), types.FindOptions{
		Tags:     []string{"translation", "code-review"},
		MaxPrice: &max,
		SortBy:   types.SortByPrice,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 4}, ids(services))
}

func TestFindNoTagsEnumeratesAll(t *testing.T) {
	q := New(testRegistry())

	services, err := q.Find(context.Background(), types.FindOptions{SortBy: types.SortByRating})
	require.NoError(t, err)
	// rating order: 2 (5.0), 4 (4.5), 1 (4.0)
	assert.Equal(t, []uint64{2, 4, 1}, ids(services))
}

func TestFindStaleTagIndexEntrySkipped(t *testing.T) {
	reg := testRegistry()
	reg.tags["translation"] = append(reg.tags["translation"], 99)
	q := New(reg)

	services, err := q.Find(context.Background(), types.FindOptions{Tags: []string{"translation"}})
	require.NoError(t, err)
	assert.NotContains(t, ids(services), uint64(99))
}

func TestSortStableOnTies(t *testing.T) {
	services := []types.Service{
		{ID: 1, TotalRating: 8, RatingCount: 2, PricePerJob: math.NewInt(1)},
		{ID: 2, TotalRating: 4, RatingCount: 1, PricePerJob: math.NewInt(1)},
		{ID: 3, TotalRating: 12, RatingCount: 3, PricePerJob: math.NewInt(1)},
	}
	sortServices(services, types.SortByRating)
	// All rate 4.0, so input order survives.
	assert.Equal(t, []uint64{1, 2, 3}, ids(services))

	sortServices(services, types.SortByPrice)
	assert.Equal(t, []uint64{1, 2, 3}, ids(services))
}

func TestAllServicesIncludesInactive(t *testing.T) {
	q := New(testRegistry())

	services, err := q.AllServices(context.Background())
	require.NoError(t, err)
	assert.Len(t, services, 4)
}

func TestStats(t *testing.T) {
	q := New(testRegistry())

	stats, err := q.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Services)
	assert.Equal(t, 3, stats.ActiveServices)
	assert.Equal(t, uint64(80), stats.TotalJobs)
	assert.Equal(t, 3, stats.RatedServices)
	assert.InDelta(t, 4.5, stats.MeanRating, 1e-9)
	assert.InDelta(t, 162.5, stats.MeanPrice, 1e-9)
}
