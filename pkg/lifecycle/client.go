package lifecycle

import (
	"context"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/agenthire/agenthire-go/internal/types"
	"github.com/agenthire/agenthire-go/pkg/errs"
	"github.com/agenthire/agenthire-go/pkg/gateway"
)

const (
	// DefaultResultTimeout bounds AwaitResult when the caller passes 0.
	DefaultResultTimeout = 5 * time.Minute
	// DefaultPollInterval is the fallback polling cadence.
	DefaultPollInterval = 4 * time.Second
)

// Config tunes one lifecycle client.
type Config struct {
	EscrowAddress string
	PollInterval  time.Duration
	ResultTimeout time.Duration
}

// Client drives a single job from hire to settlement on the consumer side:
// hire, await result, confirm, rate. All state lives on chain; the client
// only holds the gateway handles.
type Client struct {
	reader gateway.Reader
	writer gateway.Writer
	events gateway.EventSource
	cfg    Config
}

// New builds a consumer client. writer may be nil for read-only
// configurations, in which case every write operation fails fast. events may
// be nil, which forces AwaitResult onto the polling strategy.
func New(reader gateway.Reader, writer gateway.Writer, events gateway.EventSource, cfg Config) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ResultTimeout <= 0 {
		cfg.ResultTimeout = DefaultResultTimeout
	}
	return &Client{reader: reader, writer: writer, events: events, cfg: cfg}
}

func (c *Client) requireSigner(op string) error {
	if c.writer == nil {
		return errorsmod.Wrapf(errs.ErrConfiguration, "signer required to %s", op)
	}
	return nil
}

// Hire locks the service's current price in escrow and returns the new job
// id. The price is re-fetched immediately before paying; a stale price is
// never reused.
func (c *Client) Hire(ctx context.Context, serviceID uint64, task string) (uint64, error) {
	if err := c.requireSigner("hire"); err != nil {
		return 0, err
	}
	svc, err := c.reader.GetService(ctx, serviceID)
	if err != nil {
		return 0, err
	}
	if !svc.Active {
		return 0, errorsmod.Wrapf(errs.ErrStateConflict, "service %d (%s) is not active", svc.ID, svc.Name)
	}
	if strings.EqualFold(svc.Provider, c.writer.Address()) {
		return 0, errorsmod.Wrap(errs.ErrValidation, "cannot hire your own service")
	}

	receipt, err := c.writer.CreateJob(ctx, serviceID, task, svc.PricePerJob)
	if err != nil {
		return 0, err
	}
	jobID, ok := receipt.Uint64Attr(gateway.ActionCreateJob, "job_id")
	if !ok {
		return 0, errorsmod.Wrapf(errs.ErrGateway, "tx %s: no job creation event in receipt", receipt.TxHash)
	}
	return jobID, nil
}

// AwaitResult blocks until the job leaves the Created state or the timeout
// elapses. A job that is already submitted, completed or cancelled is
// returned immediately. With an event source the wait is event-driven;
// otherwise it polls at the configured interval.
func (c *Client) AwaitResult(ctx context.Context, jobID uint64, timeout time.Duration) (*types.Job, error) {
	if timeout <= 0 {
		timeout = c.cfg.ResultTimeout
	}

	job, err := c.reader.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != types.JobStatusCreated {
		return job, nil
	}

	if c.events != nil {
		return c.awaitByEvent(ctx, jobID, timeout)
	}
	return c.awaitByPoll(ctx, jobID, timeout)
}

func (c *Client) awaitByEvent(ctx context.Context, jobID uint64, timeout time.Duration) (*types.Job, error) {
	// Any escrow event for this job id signals a state change; the result
	// submission and a cancellation both end the wait.
	query := gateway.JobQuery(c.cfg.EscrowAddress, jobID)

	_, err := gateway.WaitForEvent(ctx, c.events, query, timeout, func(ev gateway.Event) bool {
		id, ok := ev.JobID()
		if !ok || id != jobID {
			return false
		}
		switch ev.First(gateway.AttrAction) {
		case gateway.ActionSubmitResult, gateway.ActionCancelJob:
			return true
		}
		return false
	})
	if err != nil {
		if errs.IsTimeout(err) {
			// The transition may have landed between the initial read and
			// the subscription being live. One last look before giving up.
			job, readErr := c.reader.GetJob(ctx, jobID)
			if readErr == nil && job.Status != types.JobStatusCreated {
				return job, nil
			}
		}
		return nil, err
	}
	return c.reader.GetJob(ctx, jobID)
}

func (c *Client) awaitByPoll(ctx context.Context, jobID uint64, timeout time.Duration) (*types.Job, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, errorsmod.Wrap(errs.ErrTransient, ctx.Err().Error())
		case <-ticker.C:
			job, err := c.reader.GetJob(ctx, jobID)
			if err != nil {
				if errs.IsTransient(err) {
					continue
				}
				return nil, err
			}
			if job.Status != types.JobStatusCreated {
				return job, nil
			}
			if time.Now().After(deadline) {
				return nil, errorsmod.Wrapf(errs.ErrTimeout, "job %d: no result within %s", jobID, timeout)
			}
		}
	}
}

// ConfirmComplete releases the escrowed funds to the provider. The contract
// call is not idempotent, so the current status is checked first.
func (c *Client) ConfirmComplete(ctx context.Context, jobID uint64) error {
	if err := c.requireSigner("confirm completion"); err != nil {
		return err
	}
	job, err := c.reader.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	switch job.Status {
	case types.JobStatusSubmitted:
		// fallthrough to the contract call
	case types.JobStatusCreated:
		return errorsmod.Wrapf(errs.ErrStateConflict, "job %d: no result submitted yet", jobID)
	case types.JobStatusCompleted:
		return errorsmod.Wrapf(errs.ErrStateConflict, "job %d: already completed", jobID)
	case types.JobStatusCancelled:
		return errorsmod.Wrapf(errs.ErrStateConflict, "job %d: cancelled, nothing to confirm", jobID)
	}

	_, err = c.writer.ConfirmComplete(ctx, jobID)
	return err
}

// Rate records a 1-5 star rating for a completed job. Out-of-range stars
// are rejected before any gateway call is made, and an already rated job is
// refused without the wasted round trip.
func (c *Client) Rate(ctx context.Context, jobID uint64, stars uint8) error {
	if stars < 1 || stars > 5 {
		return errorsmod.Wrapf(errs.ErrValidation, "rating must be 1-5, got %d", stars)
	}
	if err := c.requireSigner("rate"); err != nil {
		return err
	}
	job, err := c.reader.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != types.JobStatusCompleted {
		return errorsmod.Wrapf(errs.ErrStateConflict, "job %d: cannot rate in status %s", jobID, job.Status)
	}
	if job.Rated() {
		return errorsmod.Wrapf(errs.ErrStateConflict, "job %d: already rated %d stars", jobID, job.Rating)
	}

	_, err = c.writer.RateJob(ctx, jobID, stars)
	return err
}

// Cancel aborts a non-terminal job, returning the escrowed funds per the
// contract's cancellation rules.
func (c *Client) Cancel(ctx context.Context, jobID uint64) error {
	if err := c.requireSigner("cancel"); err != nil {
		return err
	}
	job, err := c.reader.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Terminal() {
		return errorsmod.Wrapf(errs.ErrStateConflict, "job %d: already %s", jobID, job.Status)
	}

	_, err = c.writer.CancelJob(ctx, jobID)
	return err
}

// Run drives the whole consumer flow for one task: hire, await the result,
// confirm, rate. A cancelled job ends the flow early and is returned as-is;
// stars 0 skips the rating step.
func (c *Client) Run(ctx context.Context, serviceID uint64, task string, timeout time.Duration, stars uint8) (*types.Job, error) {
	jobID, err := c.Hire(ctx, serviceID, task)
	if err != nil {
		return nil, err
	}

	job, err := c.AwaitResult(ctx, jobID, timeout)
	if err != nil {
		return nil, err
	}
	if job.Status == types.JobStatusCancelled {
		return job, nil
	}

	if err := c.ConfirmComplete(ctx, jobID); err != nil {
		return nil, err
	}
	if stars > 0 {
		if err := c.Rate(ctx, jobID, stars); err != nil {
			return nil, err
		}
	}
	return c.reader.GetJob(ctx, jobID)
}
