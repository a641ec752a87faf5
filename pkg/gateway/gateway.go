package gateway

import (
	"context"
	"fmt"
	"strconv"

	"cosmossdk.io/math"

	"github.com/agenthire/agenthire-go/internal/types"
)

// Contract actions emitted as wasm event attributes.
const (
	ActionRegisterService   = "register_service"
	ActionUpdateService     = "update_service"
	ActionDeactivateService = "deactivate_service"
	ActionCreateJob         = "create_job"
	ActionSubmitResult      = "submit_result"
	ActionConfirmComplete   = "confirm_complete"
	ActionCancelJob         = "cancel_job"
	ActionRateJob           = "rate_job"
)

// Flattened websocket event attribute keys.
const (
	AttrAction    = "wasm.action"
	AttrServiceID = "wasm.service_id"
	AttrJobID     = "wasm.job_id"
	AttrProvider  = "wasm.provider"
	AttrConsumer  = "wasm.consumer"
)

// Reader is the gateway read surface over the registry and escrow contracts.
type Reader interface {
	GetService(ctx context.Context, id uint64) (*types.Service, error)
	GetJob(ctx context.Context, id uint64) (*types.Job, error)
	FindByTag(ctx context.Context, tag string) ([]uint64, error)
	ServiceCount(ctx context.Context) (uint64, error)
	JobCount(ctx context.Context) (uint64, error)
}

// Writer is the gateway write surface. A Writer always carries a signing
// identity; read-only configurations simply have no Writer at all.
type Writer interface {
	Address() string
	RegisterService(ctx context.Context, cfg types.ServiceConfig) (*Receipt, error)
	UpdateService(ctx context.Context, id uint64, cfg types.ServiceConfig) (*Receipt, error)
	DeactivateService(ctx context.Context, id uint64) (*Receipt, error)
	CreateJob(ctx context.Context, serviceID uint64, task string, amount math.Int) (*Receipt, error)
	SubmitResult(ctx context.Context, jobID uint64, result string) (*Receipt, error)
	ConfirmComplete(ctx context.Context, jobID uint64) (*Receipt, error)
	CancelJob(ctx context.Context, jobID uint64) (*Receipt, error)
	RateJob(ctx context.Context, jobID uint64, stars uint8) (*Receipt, error)
}

// EventSource delivers contract events matching a cometbft query string.
// The returned unsubscribe func is idempotent and must be called on every
// exit path so no listener outlives its logical owner.
type EventSource interface {
	Subscribe(ctx context.Context, query string) (<-chan Event, func(), error)
}

// Event is one contract event as delivered over the websocket, with
// attributes flattened to "wasm.job_id"-style keys.
type Event struct {
	Attrs map[string][]string
}

// First returns the first value of the given attribute, or "".
func (e Event) First(key string) string {
	if vals := e.Attrs[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// JobID extracts the wasm.job_id attribute.
func (e Event) JobID() (uint64, bool) {
	id, err := strconv.ParseUint(e.First(AttrJobID), 10, 64)
	return id, err == nil
}

// Receipt is the decoded result of a committed transaction.
type Receipt struct {
	TxHash string
	Height int64
	Events []TxEvent
}

// TxEvent is an event recorded in a transaction result.
type TxEvent struct {
	Type       string           `json:"type"`
	Attributes []EventAttribute `json:"attributes"`
}

// EventAttribute is a single key/value pair of a tx event.
type EventAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Attr scans the receipt for the first attribute of the given key inside
// wasm events carrying the given action.
func (r *Receipt) Attr(action, key string) (string, bool) {
	for _, ev := range r.Events {
		if ev.Type != "wasm" {
			continue
		}
		matched := action == ""
		for _, attr := range ev.Attributes {
			if attr.Key == "action" && attr.Value == action {
				matched = true
			}
		}
		if !matched {
			continue
		}
		for _, attr := range ev.Attributes {
			if attr.Key == key {
				return attr.Value, true
			}
		}
	}
	return "", false
}

// Uint64Attr is Attr for integer-valued attributes.
func (r *Receipt) Uint64Attr(action, key string) (uint64, bool) {
	val, ok := r.Attr(action, key)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ContractEventQuery builds the subscription query for one contract action,
// e.g. all submit_result events of the escrow contract.
func ContractEventQuery(contractAddr, action string) string {
	return fmt.Sprintf("tm.event='Tx' AND wasm._contract_address='%s' AND wasm.action='%s'",
		contractAddr, action)
}

// JobEventQuery narrows ContractEventQuery to a single job id.
func JobEventQuery(contractAddr, action string, jobID uint64) string {
	return fmt.Sprintf("%s AND wasm.job_id='%d'", ContractEventQuery(contractAddr, action), jobID)
}

// JobQuery matches every contract event touching one job, regardless of
// action.
func JobQuery(contractAddr string, jobID uint64) string {
	return fmt.Sprintf("tm.event='Tx' AND wasm._contract_address='%s' AND wasm.job_id='%d'",
		contractAddr, jobID)
}
