package types

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
)

func TestJobStatusString(t *testing.T) {
	assert.Equal(t, "created", JobStatusCreated.String())
	assert.Equal(t, "submitted", JobStatusSubmitted.String())
	assert.Equal(t, "completed", JobStatusCompleted.String())
	assert.Equal(t, "cancelled", JobStatusCancelled.String())
	assert.Equal(t, "unknown", JobStatus(99).String())
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusCreated.Terminal())
	assert.False(t, JobStatusSubmitted.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusCancelled.Terminal())
}

func TestServiceAvgRating(t *testing.T) {
	svc := Service{TotalRating: 0, RatingCount: 0}
	assert.Zero(t, svc.AvgRating())

	svc = Service{TotalRating: 9, RatingCount: 2}
	assert.InDelta(t, 4.5, svc.AvgRating(), 1e-9)
}

func TestServiceHasTag(t *testing.T) {
	svc := Service{Tags: []string{"translation", "code-review"}}
	assert.True(t, svc.HasTag("translation"))
	assert.False(t, svc.HasTag("Translation"))
	assert.False(t, svc.HasTag("audio"))
}

func TestJobRated(t *testing.T) {
	job := Job{Amount: math.NewInt(100)}
	assert.False(t, job.Rated())
	job.Rating = 5
	assert.True(t, job.Rated())
}
