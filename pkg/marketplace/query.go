package marketplace

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/agenthire/agenthire-go/internal/types"
	"github.com/agenthire/agenthire-go/pkg/errs"
	"github.com/agenthire/agenthire-go/pkg/gateway"
)

// Query is a read-only, uncached view over the service registry. Every call
// re-fetches current contract state.
type Query struct {
	reader gateway.Reader
}

func New(reader gateway.Reader) *Query {
	return &Query{reader: reader}
}

// Find returns active services matching the options, ordered per SortBy.
// With tags set the result is the union of per-tag matches, deduplicated by
// id with per-tag gateway order preserved; without tags all services are
// enumerated by ascending id. Missing ids are treated as absent, not as
// errors.
func (q *Query) Find(ctx context.Context, opts types.FindOptions) ([]types.Service, error) {
	var services []types.Service
	var err error
	if len(opts.Tags) > 0 {
		services, err = q.findByTags(ctx, opts.Tags)
	} else {
		services, err = q.activeServices(ctx)
	}
	if err != nil {
		return nil, err
	}

	if opts.MaxPrice != nil {
		filtered := services[:0]
		for _, s := range services {
			if s.PricePerJob.LTE(*opts.MaxPrice) {
				filtered = append(filtered, s)
			}
		}
		services = filtered
	}

	sortServices(services, opts.SortBy)
	return services, nil
}

func (q *Query) findByTags(ctx context.Context, tags []string) ([]types.Service, error) {
	seen := make(map[uint64]bool)
	var services []types.Service
	for _, tag := range tags {
		ids, err := q.reader.FindByTag(ctx, tag)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			svc, err := q.reader.GetService(ctx, id)
			if err != nil {
				if errs.IsNotFound(err) {
					continue
				}
				return nil, err
			}
			if svc.Active {
				services = append(services, *svc)
			}
		}
	}
	return services, nil
}

func (q *Query) activeServices(ctx context.Context) ([]types.Service, error) {
	count, err := q.reader.ServiceCount(ctx)
	if err != nil {
		return nil, err
	}
	var services []types.Service
	for id := uint64(1); id <= count; id++ {
		svc, err := q.reader.GetService(ctx, id)
		if err != nil {
			if errs.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if svc.Active {
			services = append(services, *svc)
		}
	}
	return services, nil
}

// sortServices orders in place. Stable so equal keys keep their pre-sort
// relative order.
func sortServices(services []types.Service, order types.SortOrder) {
	switch order {
	case types.SortByPrice:
		sort.SliceStable(services, func(i, j int) bool {
			return services[i].PricePerJob.LT(services[j].PricePerJob)
		})
	case types.SortByVolume:
		sort.SliceStable(services, func(i, j int) bool {
			return services[i].TotalJobs > services[j].TotalJobs
		})
	default: // rating, the default order
		sort.SliceStable(services, func(i, j int) bool {
			return services[i].AvgRating() > services[j].AvgRating()
		})
	}
}

// AllServices enumerates every registered service, active or not.
func (q *Query) AllServices(ctx context.Context) ([]types.Service, error) {
	count, err := q.reader.ServiceCount(ctx)
	if err != nil {
		return nil, err
	}
	var services []types.Service
	for id := uint64(1); id <= count; id++ {
		svc, err := q.reader.GetService(ctx, id)
		if err != nil {
			if errs.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		services = append(services, *svc)
	}
	return services, nil
}

// AllJobs enumerates every job on the escrow.
func (q *Query) AllJobs(ctx context.Context) ([]types.Job, error) {
	count, err := q.reader.JobCount(ctx)
	if err != nil {
		return nil, err
	}
	var jobs []types.Job
	for id := uint64(1); id <= count; id++ {
		job, err := q.reader.GetJob(ctx, id)
		if err != nil {
			if errs.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// MarketStats aggregates the registry for the stats command.
type MarketStats struct {
	Services       int
	ActiveServices int
	TotalJobs      uint64
	RatedServices  int
	MeanRating     float64
	RatingStdDev   float64
	MeanPrice      float64
}

// Stats computes marketplace-wide aggregates over all registered services.
func (q *Query) Stats(ctx context.Context) (*MarketStats, error) {
	services, err := q.AllServices(ctx)
	if err != nil {
		return nil, err
	}

	stats := &MarketStats{Services: len(services)}
	var ratings, prices []float64
	for _, s := range services {
		if s.Active {
			stats.ActiveServices++
		}
		stats.TotalJobs += s.TotalJobs
		if s.RatingCount > 0 {
			stats.RatedServices++
			ratings = append(ratings, s.AvgRating())
		}
		price, _ := s.PricePerJob.BigInt().Float64()
		prices = append(prices, price)
	}
	if len(ratings) > 0 {
		stats.MeanRating = stat.Mean(ratings, nil)
		if len(ratings) > 1 {
			stats.RatingStdDev = stat.StdDev(ratings, nil)
		}
	}
	if len(prices) > 0 {
		stats.MeanPrice = stat.Mean(prices, nil)
	}
	return stats, nil
}
