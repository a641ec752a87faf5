package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/cenkalti/backoff/v4"
	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/google/uuid"

	"github.com/agenthire/agenthire-go/internal/types"
	"github.com/agenthire/agenthire-go/pkg/errs"
)

// Config describes one chain connection shared by all components of a
// process. Registry and Escrow are the two contract addresses; KeyName is
// empty for read-only use.
type Config struct {
	Binary          string
	ChainID         string
	RPCEndpoint     string
	RegistryAddress string
	EscrowAddress   string
	Denom           string
	Fees            string
	KeyName         string
	KeyringBackend  string
	SignerAddress   string
}

// ChainGateway talks to the registry and escrow contracts through the chain
// daemon CLI for queries and transactions, and through the cometbft RPC
// websocket for event subscriptions.
type ChainGateway struct {
	cfg Config

	mu sync.Mutex
	ws *rpchttp.HTTP
}

// Interface checks.
var (
	_ Reader      = (*ChainGateway)(nil)
	_ Writer      = (*ChainGateway)(nil)
	_ EventSource = (*ChainGateway)(nil)
)

func NewChainGateway(cfg Config) (*ChainGateway, error) {
	if cfg.Binary == "" {
		cfg.Binary = "agenthired"
	}
	if cfg.KeyringBackend == "" {
		cfg.KeyringBackend = "test"
	}
	if cfg.RPCEndpoint == "" {
		return nil, errorsmod.Wrap(errs.ErrConfiguration, "rpc endpoint required")
	}
	if cfg.RegistryAddress == "" || cfg.EscrowAddress == "" {
		return nil, errorsmod.Wrap(errs.ErrConfiguration, "registry and escrow contract addresses required")
	}
	return &ChainGateway{cfg: cfg}, nil
}

// CanSign reports whether the gateway carries a signing key.
func (g *ChainGateway) CanSign() bool { return g.cfg.KeyName != "" }

// Address returns the signer's bech32 address, empty in read-only mode.
func (g *ChainGateway) Address() string { return g.cfg.SignerAddress }

// ── Read surface ──

// rawService is the registry contract's JSON shape. Amounts arrive as
// string-encoded u128; positional or loosely typed access never leaves
// this file.
type rawService struct {
	ID          uint64   `json:"id"`
	Provider    string   `json:"provider"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	PricePerJob string   `json:"price_per_job"`
	Active      bool     `json:"active"`
	TotalJobs   uint64   `json:"total_jobs"`
	TotalRating uint64   `json:"total_rating"`
	RatingCount uint64   `json:"rating_count"`
	CreatedAt   int64    `json:"created_at"`
}

type rawJob struct {
	ID              uint64 `json:"id"`
	ServiceID       uint64 `json:"service_id"`
	Consumer        string `json:"consumer"`
	Provider        string `json:"provider"`
	Amount          string `json:"amount"`
	TaskDescription string `json:"task_description"`
	Result          string `json:"result"`
	Status          uint8  `json:"status"`
	Rating          uint8  `json:"rating"`
	CreatedAt       int64  `json:"created_at"`
	SubmittedAt     int64  `json:"submitted_at"`
	CompletedAt     int64  `json:"completed_at"`
}

func (g *ChainGateway) GetService(ctx context.Context, id uint64) (*types.Service, error) {
	query := fmt.Sprintf(`{"service":{"id":%d}}`, id)
	var raw rawService
	if err := g.smartQuery(ctx, g.cfg.RegistryAddress, query, &raw); err != nil {
		return nil, err
	}
	if raw.ID == 0 {
		return nil, errorsmod.Wrapf(errs.ErrNotFound, "service %d", id)
	}
	price, ok := math.NewIntFromString(raw.PricePerJob)
	if !ok {
		return nil, errorsmod.Wrapf(errs.ErrGateway, "service %d: bad price %q", id, raw.PricePerJob)
	}
	return &types.Service{
		ID:          raw.ID,
		Provider:    raw.Provider,
		Name:        raw.Name,
		Description: raw.Description,
		Tags:        raw.Tags,
		PricePerJob: price,
		Active:      raw.Active,
		TotalJobs:   raw.TotalJobs,
		TotalRating: raw.TotalRating,
		RatingCount: raw.RatingCount,
		CreatedAt:   raw.CreatedAt,
	}, nil
}

func (g *ChainGateway) GetJob(ctx context.Context, id uint64) (*types.Job, error) {
	query := fmt.Sprintf(`{"job":{"id":%d}}`, id)
	var raw rawJob
	if err := g.smartQuery(ctx, g.cfg.EscrowAddress, query, &raw); err != nil {
		return nil, err
	}
	if raw.ID == 0 {
		return nil, errorsmod.Wrapf(errs.ErrNotFound, "job %d", id)
	}
	amount, ok := math.NewIntFromString(raw.Amount)
	if !ok {
		return nil, errorsmod.Wrapf(errs.ErrGateway, "job %d: bad amount %q", id, raw.Amount)
	}
	return &types.Job{
		ID:              raw.ID,
		ServiceID:       raw.ServiceID,
		Consumer:        raw.Consumer,
		Provider:        raw.Provider,
		Amount:          amount,
		TaskDescription: raw.TaskDescription,
		Result:          raw.Result,
		Status:          types.JobStatus(raw.Status),
		Rating:          raw.Rating,
		CreatedAt:       raw.CreatedAt,
		SubmittedAt:     raw.SubmittedAt,
		CompletedAt:     raw.CompletedAt,
	}, nil
}

func (g *ChainGateway) FindByTag(ctx context.Context, tag string) ([]uint64, error) {
	msg, _ := json.Marshal(map[string]any{"services_by_tag": map[string]string{"tag": tag}})
	var raw struct {
		IDs []uint64 `json:"ids"`
	}
	if err := g.smartQuery(ctx, g.cfg.RegistryAddress, string(msg), &raw); err != nil {
		return nil, err
	}
	return raw.IDs, nil
}

func (g *ChainGateway) ServiceCount(ctx context.Context) (uint64, error) {
	var raw struct {
		Count uint64 `json:"count"`
	}
	if err := g.smartQuery(ctx, g.cfg.RegistryAddress, `{"service_count":{}}`, &raw); err != nil {
		return 0, err
	}
	return raw.Count, nil
}

func (g *ChainGateway) JobCount(ctx context.Context) (uint64, error) {
	var raw struct {
		Count uint64 `json:"count"`
	}
	if err := g.smartQuery(ctx, g.cfg.EscrowAddress, `{"job_count":{}}`, &raw); err != nil {
		return 0, err
	}
	return raw.Count, nil
}

// smartQuery runs a wasm smart query through the chain CLI, retrying
// transient transport failures with bounded exponential backoff.
func (g *ChainGateway) smartQuery(ctx context.Context, contractAddr, query string, out any) error {
	op := func() error {
		cmd := exec.CommandContext(ctx,
			g.cfg.Binary, "query", "wasm", "contract-state", "smart",
			contractAddr, query,
			"--node", g.cfg.RPCEndpoint,
			"--output", "json",
		)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			classified := errs.ClassifyChainError(err, stderr.String())
			if errs.IsTransient(classified) {
				return classified
			}
			return backoff.Permanent(classified)
		}
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(stdout.Bytes(), &envelope); err != nil {
			return backoff.Permanent(errorsmod.Wrapf(errs.ErrGateway, "parse query response: %v", err))
		}
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return backoff.Permanent(errorsmod.Wrapf(errs.ErrGateway, "decode query data: %v", err))
		}
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(op, policy)
}

// ── Write surface ──

func (g *ChainGateway) RegisterService(ctx context.Context, cfg types.ServiceConfig) (*Receipt, error) {
	msg := executeMsg("register_service", map[string]any{
		"name":          cfg.Name,
		"description":   cfg.Description,
		"tags":          cfg.Tags,
		"price_per_job": cfg.PricePerJob.String(),
	})
	return g.execute(ctx, g.cfg.RegistryAddress, msg, "")
}

func (g *ChainGateway) UpdateService(ctx context.Context, id uint64, cfg types.ServiceConfig) (*Receipt, error) {
	msg := executeMsg("update_service", map[string]any{
		"id":            id,
		"name":          cfg.Name,
		"description":   cfg.Description,
		"tags":          cfg.Tags,
		"price_per_job": cfg.PricePerJob.String(),
	})
	return g.execute(ctx, g.cfg.RegistryAddress, msg, "")
}

func (g *ChainGateway) DeactivateService(ctx context.Context, id uint64) (*Receipt, error) {
	msg := executeMsg("deactivate_service", map[string]any{"id": id})
	return g.execute(ctx, g.cfg.RegistryAddress, msg, "")
}

func (g *ChainGateway) CreateJob(ctx context.Context, serviceID uint64, task string, amount math.Int) (*Receipt, error) {
	msg := executeMsg("create_job", map[string]any{
		"service_id":       serviceID,
		"task_description": task,
	})
	return g.execute(ctx, g.cfg.EscrowAddress, msg, amount.String()+g.cfg.Denom)
}

func (g *ChainGateway) SubmitResult(ctx context.Context, jobID uint64, result string) (*Receipt, error) {
	msg := executeMsg("submit_result", map[string]any{"job_id": jobID, "result": result})
	return g.execute(ctx, g.cfg.EscrowAddress, msg, "")
}

func (g *ChainGateway) ConfirmComplete(ctx context.Context, jobID uint64) (*Receipt, error) {
	msg := executeMsg("confirm_complete", map[string]any{"job_id": jobID})
	return g.execute(ctx, g.cfg.EscrowAddress, msg, "")
}

func (g *ChainGateway) CancelJob(ctx context.Context, jobID uint64) (*Receipt, error) {
	msg := executeMsg("cancel_job", map[string]any{"job_id": jobID})
	return g.execute(ctx, g.cfg.EscrowAddress, msg, "")
}

func (g *ChainGateway) RateJob(ctx context.Context, jobID uint64, stars uint8) (*Receipt, error) {
	msg := executeMsg("rate_job", map[string]any{"job_id": jobID, "rating": stars})
	return g.execute(ctx, g.cfg.EscrowAddress, msg, "")
}

func executeMsg(action string, body map[string]any) string {
	msg, _ := json.Marshal(map[string]any{action: body})
	return string(msg)
}

// execute broadcasts one contract execution and waits for it to land in a
// block, returning the decoded receipt. Broadcast is attempted once: a
// failure before the tx is accepted is classified and surfaced, never
// blindly retried.
func (g *ChainGateway) execute(ctx context.Context, contractAddr, msg, amount string) (*Receipt, error) {
	if !g.CanSign() {
		return nil, errorsmod.Wrap(errs.ErrConfiguration, "signer required: no key configured")
	}
	args := []string{
		"tx", "wasm", "execute", contractAddr, msg,
		"--from", g.cfg.KeyName,
		"--keyring-backend", g.cfg.KeyringBackend,
		"--gas", "auto",
		"--gas-adjustment", "1.3",
		"--fees", g.cfg.Fees,
		"-y",
		"--node", g.cfg.RPCEndpoint,
		"--chain-id", g.cfg.ChainID,
		"--output", "json",
	}
	if amount != "" {
		args = append(args, "--amount", amount)
	}
	cmd := exec.CommandContext(ctx, g.cfg.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errs.ClassifyChainError(err, stderr.String()+stdout.String())
	}

	var txResp struct {
		TxHash string `json:"txhash"`
		Code   uint32 `json:"code"`
		RawLog string `json:"raw_log"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &txResp); err != nil {
		return nil, errorsmod.Wrapf(errs.ErrGateway, "parse tx response: %v", err)
	}
	if txResp.Code != 0 {
		return nil, errs.ClassifyChainError(fmt.Errorf("tx rejected with code %d", txResp.Code), txResp.RawLog)
	}
	return g.waitForTx(ctx, txResp.TxHash)
}

// waitForTx polls the tx by hash until it is committed. A fresh hash is not
// queryable for a block or two, so not-found here means "keep waiting".
func (g *ChainGateway) waitForTx(ctx context.Context, txHash string) (*Receipt, error) {
	deadline := time.Now().Add(45 * time.Second)
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, errorsmod.Wrap(errs.ErrTransient, ctx.Err().Error())
		case <-ticker.C:
			receipt, err := g.queryTx(ctx, txHash)
			if err == nil {
				return receipt, nil
			}
			if !errs.IsNotFound(err) && !errs.IsTransient(err) {
				return nil, err
			}
			if time.Now().After(deadline) {
				return nil, errorsmod.Wrapf(errs.ErrTransient, "timed out waiting for tx %s", txHash)
			}
		}
	}
}

func (g *ChainGateway) queryTx(ctx context.Context, txHash string) (*Receipt, error) {
	cmd := exec.CommandContext(ctx,
		g.cfg.Binary, "query", "tx", txHash,
		"--node", g.cfg.RPCEndpoint,
		"--output", "json",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errs.ClassifyChainError(err, stderr.String())
	}

	var txResp struct {
		Height string    `json:"height"`
		Code   uint32    `json:"code"`
		RawLog string    `json:"raw_log"`
		TxHash string    `json:"txhash"`
		Events []TxEvent `json:"events"`
		Logs   []struct {
			Events []TxEvent `json:"events"`
		} `json:"logs"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &txResp); err != nil {
		return nil, errorsmod.Wrapf(errs.ErrGateway, "parse tx: %v", err)
	}
	if txResp.Code != 0 {
		return nil, errs.ClassifyChainError(fmt.Errorf("tx failed with code %d", txResp.Code), txResp.RawLog)
	}

	receipt := &Receipt{TxHash: txResp.TxHash}
	receipt.Height, _ = strconv.ParseInt(txResp.Height, 10, 64)
	receipt.Events = append(receipt.Events, txResp.Events...)
	for _, log := range txResp.Logs {
		receipt.Events = append(receipt.Events, log.Events...)
	}
	return receipt, nil
}

// ── Event surface ──

// Subscribe opens a websocket subscription for the given query. Each call
// uses a unique subscriber id so concurrent waits never collide.
func (g *ChainGateway) Subscribe(ctx context.Context, query string) (<-chan Event, func(), error) {
	ws, err := g.ensureWS()
	if err != nil {
		return nil, nil, err
	}

	subscriber := "agenthire-" + uuid.NewString()
	src, err := ws.Subscribe(ctx, subscriber, query, 16)
	if err != nil {
		return nil, nil, errorsmod.Wrapf(errs.ErrTransient, "subscribe: %v", err)
	}

	out := make(chan Event, 16)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case ev, ok := <-src:
				if !ok {
					return
				}
				select {
				case out <- Event{Attrs: ev.Events}:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			unsubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ws.Unsubscribe(unsubCtx, subscriber, query)
		})
	}
	return out, unsubscribe, nil
}

func (g *ChainGateway) ensureWS() (*rpchttp.HTTP, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ws != nil {
		return g.ws, nil
	}
	ws, err := rpchttp.New(g.cfg.RPCEndpoint, "/websocket")
	if err != nil {
		return nil, errorsmod.Wrapf(errs.ErrConfiguration, "rpc client: %v", err)
	}
	if err := ws.Start(); err != nil {
		return nil, errorsmod.Wrapf(errs.ErrTransient, "rpc client start: %v", err)
	}
	g.ws = ws
	return ws, nil
}

// Close stops the websocket client if one was started.
func (g *ChainGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ws == nil {
		return nil
	}
	err := g.ws.Stop()
	g.ws = nil
	if err != nil && !strings.Contains(err.Error(), "already stopped") {
		return err
	}
	return nil
}
