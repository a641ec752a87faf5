package types

import (
	"cosmossdk.io/math"
)

// JobStatus mirrors the escrow contract's status enum.
type JobStatus uint8

const (
	JobStatusCreated JobStatus = iota
	JobStatusSubmitted
	JobStatusCompleted
	JobStatusCancelled
)

func (s JobStatus) String() string {
	switch s {
	case JobStatusCreated:
		return "created"
	case JobStatusSubmitted:
		return "submitted"
	case JobStatusCompleted:
		return "completed"
	case JobStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further status transition is possible.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// Service is a registered offering on the ServiceRegistry contract.
// Services are never deleted; Active=false is the only form of removal.
type Service struct {
	ID          uint64   `json:"id"`
	Provider    string   `json:"provider"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	PricePerJob math.Int `json:"price_per_job"`
	Active      bool     `json:"active"`
	TotalJobs   uint64   `json:"total_jobs"`
	TotalRating uint64   `json:"total_rating"`
	RatingCount uint64   `json:"rating_count"`
	CreatedAt   int64    `json:"created_at"`
}

// AvgRating derives the average star rating, 0 when unrated.
func (s Service) AvgRating() float64 {
	if s.RatingCount == 0 {
		return 0
	}
	return float64(s.TotalRating) / float64(s.RatingCount)
}

// HasTag reports whether the service carries the given tag.
func (s Service) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Job is one escrow-backed engagement on the JobEscrow contract.
// Provider is denormalized from the service at creation time and never
// changes afterwards, same for Amount.
type Job struct {
	ID              uint64    `json:"id"`
	ServiceID       uint64    `json:"service_id"`
	Consumer        string    `json:"consumer"`
	Provider        string    `json:"provider"`
	Amount          math.Int  `json:"amount"`
	TaskDescription string    `json:"task_description"`
	Result          string    `json:"result"`
	Status          JobStatus `json:"status"`
	Rating          uint8     `json:"rating"`
	CreatedAt       int64     `json:"created_at"`
	SubmittedAt     int64     `json:"submitted_at"`
	CompletedAt     int64     `json:"completed_at"`
}

// Terminal reports whether the job reached a final state.
func (j Job) Terminal() bool {
	return j.Status.Terminal()
}

// Rated reports whether the consumer already rated the job.
func (j Job) Rated() bool {
	return j.Rating != 0
}

// ServiceConfig describes a service to be registered by a provider.
type ServiceConfig struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	PricePerJob math.Int `yaml:"price_per_job"`
}

// SortOrder selects the marketplace sort key.
type SortOrder string

const (
	SortByRating SortOrder = "rating"
	SortByPrice  SortOrder = "price"
	SortByVolume SortOrder = "volume"
)

// FindOptions narrows and orders a marketplace search. A nil MaxPrice
// means no price ceiling; an empty Tags slice enumerates all services.
type FindOptions struct {
	Tags     []string
	MaxPrice *math.Int
	SortBy   SortOrder
}
