package provider

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	errorsmod "cosmossdk.io/errors"

	"github.com/agenthire/agenthire-go/internal/types"
	"github.com/agenthire/agenthire-go/pkg/errs"
	"github.com/agenthire/agenthire-go/pkg/gateway"
)

// Handler executes one incoming job and returns the result payload to be
// submitted on chain.
type Handler func(ctx context.Context, job types.Job) (string, error)

// Config tunes one provider node.
type Config struct {
	EscrowAddress string
}

// Node watches the escrow for jobs assigned to this provider's identity and
// fulfills them. In-flight jobs run concurrently and independently; the node
// never blocks event receipt on a running handler.
type Node struct {
	reader gateway.Reader
	writer gateway.Writer
	events gateway.EventSource
	cfg    Config

	wg sync.WaitGroup
}

// New builds a provider node. Providers always sign, so a writer is
// mandatory.
func New(reader gateway.Reader, writer gateway.Writer, events gateway.EventSource, cfg Config) (*Node, error) {
	if writer == nil {
		return nil, errorsmod.Wrap(errs.ErrConfiguration, "provider node requires a signing key")
	}
	return &Node{reader: reader, writer: writer, events: events, cfg: cfg}, nil
}

// Register publishes a service on the registry and returns its id. The
// contract enforces the same constraints; validating here fails fast without
// a wasted write.
func (n *Node) Register(ctx context.Context, cfg types.ServiceConfig) (uint64, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return 0, errorsmod.Wrap(errs.ErrValidation, "service name required")
	}
	if len(cfg.Tags) == 0 {
		return 0, errorsmod.Wrap(errs.ErrValidation, "at least one tag required")
	}
	for _, tag := range cfg.Tags {
		if strings.TrimSpace(tag) == "" {
			return 0, errorsmod.Wrap(errs.ErrValidation, "empty tag")
		}
	}
	if cfg.PricePerJob.IsNil() || !cfg.PricePerJob.IsPositive() {
		return 0, errorsmod.Wrap(errs.ErrValidation, "price per job must be > 0")
	}

	receipt, err := n.writer.RegisterService(ctx, cfg)
	if err != nil {
		return 0, err
	}
	id, ok := receipt.Uint64Attr(gateway.ActionRegisterService, "service_id")
	if !ok {
		return 0, errorsmod.Wrapf(errs.ErrGateway, "tx %s: no service registration event in receipt", receipt.TxHash)
	}
	return id, nil
}

// Listen subscribes to job-creation events and dispatches each job assigned
// to this provider to the handler, submitting the handler's result back to
// the escrow. It returns when ctx is cancelled, after unsubscribing and
// waiting for in-flight jobs: shutdown stops accepting new work, it does not
// abort active work.
func (n *Node) Listen(ctx context.Context, handler Handler) error {
	query := gateway.ContractEventQuery(n.cfg.EscrowAddress, gateway.ActionCreateJob)
	events, unsubscribe, err := n.events.Subscribe(ctx, query)
	if err != nil {
		return err
	}
	defer unsubscribe()

	log.Printf("provider %s listening for jobs", n.writer.Address())

	for {
		select {
		case <-ctx.Done():
			unsubscribe()
			n.wg.Wait()
			return nil
		case ev, ok := <-events:
			if !ok {
				n.wg.Wait()
				return errorsmod.Wrap(errs.ErrTransient, "event stream closed")
			}
			jobID, ok := ev.JobID()
			if !ok {
				continue
			}
			// Cheap filter on the event attribute; the fetched job record
			// remains authoritative.
			if p := ev.First(gateway.AttrProvider); p != "" && !strings.EqualFold(p, n.writer.Address()) {
				continue
			}
			n.wg.Add(1)
			// Detached from the listen context so shutdown does not cut a
			// running handler or its result submission short.
			go n.process(context.WithoutCancel(ctx), jobID, handler)
		}
	}
}

func (n *Node) process(ctx context.Context, jobID uint64, handler Handler) {
	defer n.wg.Done()

	job, err := n.reader.GetJob(ctx, jobID)
	if err != nil {
		log.Printf("job %d: fetch failed: %v", jobID, err)
		return
	}
	if !strings.EqualFold(job.Provider, n.writer.Address()) {
		return
	}
	if job.Status != types.JobStatusCreated {
		return
	}

	log.Printf("job %d: new task from %s", job.ID, job.Consumer)

	result, err := handler(ctx, *job)
	if err != nil {
		// Submit a structured failure instead of leaving the job hanging, so
		// the consumer sees the failure and can cancel to reclaim funds.
		log.Printf("job %d: handler failed: %v", job.ID, err)
		payload, _ := json.Marshal(map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		result = string(payload)
	}

	if _, err := n.writer.SubmitResult(ctx, job.ID, result); err != nil {
		log.Printf("job %d: submit result failed: %v", job.ID, err)
		return
	}
	log.Printf("job %d: result submitted", job.ID)
}
