// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshotvm

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stellar/go/xdr"

	"github.com/ava-labs/snapshotvm/invoke"
	"github.com/ava-labs/snapshotvm/ledger"
	"github.com/ava-labs/snapshotvm/modules"
	"github.com/ava-labs/snapshotvm/vmerr"
)

const (
	Name = "snapshotvm"
)

var (
	Version = &version.Semantic{
		Major: 1,
		Minor: 0,
		Patch: 0,
	}
)

type Config struct {
	// Passphrase is used when a request names no network.
	Passphrase    string
	Builder       ledger.BuilderConfig
	Invoke        invoke.Config
	SpecCacheSize int
}

func DefaultConfig() Config {
	return Config{
		Passphrase:    ledger.DefaultPassphrase,
		Builder:       ledger.DefaultBuilderConfig(),
		Invoke:        invoke.DefaultConfig(),
		SpecCacheSize: invoke.DefaultSpecCacheSize,
	}
}

// InvokeRequest is a call against caller-supplied ledger state.
type InvokeRequest struct {
	LedgerSequence uint32
	Records        []ledger.Record
	ContractID     xdr.Hash
	Source         ids.ID
	Function       string
	Args           []xdr.ScVal

	Passphrase    string
	NetworkConfig *invoke.NetworkConfig
	Adjustment    *invoke.AdjustmentConfig
	Budget        *invoke.Budget
}

// Outcome holds either a result or, when the request touches expired
// state, the restore that must happen first.
type Outcome struct {
	Result          *invoke.Result
	RestorePreamble *ledger.RestorePreamble
}

// Pipeline turns requests into snapshots and runs them.
type Pipeline struct {
	config      Config
	store       modules.Store
	resolver    *modules.Resolver
	coordinator *invoke.Coordinator
	metrics     *metrics
}

func NewPipeline(config Config, store modules.Store, host invoke.Host, registerer prometheus.Registerer) (*Pipeline, error) {
	specs, err := invoke.NewSpecResolver(config.SpecCacheSize, registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to create spec resolver: %w", err)
	}
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return &Pipeline{
		config:      config,
		store:       store,
		resolver:    modules.NewResolver(store),
		coordinator: invoke.NewCoordinator(config.Invoke, host, specs),
		metrics:     m,
	}, nil
}

func (p *Pipeline) Simulate(ctx context.Context, req *InvokeRequest) (*Outcome, error) {
	return p.run(ctx, invoke.ModeSimulate, req)
}

func (p *Pipeline) Execute(ctx context.Context, req *InvokeRequest) (*Outcome, error) {
	return p.run(ctx, invoke.ModeExecute, req)
}

func (p *Pipeline) run(ctx context.Context, mode invoke.Mode, req *InvokeRequest) (*Outcome, error) {
	// no record outlives MaxUint32 and execute advances one ledger past it
	if req.LedgerSequence == math.MaxUint32 {
		return nil, vmerr.Validationf("ledger sequence %d is out of range", req.LedgerSequence)
	}

	inferred, err := p.resolver.Resolve(ctx, req.Records)
	if err != nil {
		return nil, err
	}
	p.metrics.inferredModules.Add(float64(len(inferred)))

	passphrase := req.Passphrase
	if passphrase == "" {
		passphrase = p.config.Passphrase
	}
	builder := ledger.NewBuilder(req.NetworkConfig.ApplyTTL(p.config.Builder))
	snap, err := builder.Build(req.LedgerSequence, passphrase, req.Records, inferred)
	if err != nil {
		return nil, err
	}
	defer snap.Close()

	// classify what the snapshot holds, after duplicate keys were merged
	records, err := snap.Records()
	if err != nil {
		return nil, vmerr.InvalidSnapshot(fmt.Errorf("failed to list records: %w", err))
	}
	if _, expired := ledger.Classify(req.LedgerSequence, records); len(expired) > 0 {
		p.metrics.restorePreambles.Inc()
		return &Outcome{RestorePreamble: ledger.NewRestorePreamble(expired)}, nil
	}

	res, err := p.coordinator.Run(ctx, snap, &invoke.Call{
		Mode:          mode,
		ContractID:    req.ContractID,
		Function:      req.Function,
		Args:          req.Args,
		Source:        req.Source,
		Budget:        req.Budget,
		NetworkConfig: req.NetworkConfig,
		Adjustment:    req.Adjustment,
	})
	if err != nil {
		return nil, err
	}
	p.metrics.cpuInstructions.Observe(float64(res.CPUInstructions))
	return &Outcome{Result: res}, nil
}

// ExecuteCode deploys [code] at [contractID] of an empty ledger and calls
// [function] on it.
func (p *Pipeline) ExecuteCode(ctx context.Context, contractID xdr.Hash, code []byte, function string, args []xdr.ScVal) (*invoke.Result, error) {
	if err := modules.ValidateWasm(code); err != nil {
		return nil, err
	}
	snap, err := ledger.NewBuilder(p.config.Builder).Build(0, p.config.Passphrase, nil, nil)
	if err != nil {
		return nil, err
	}
	defer snap.Close()

	res, err := p.coordinator.Run(ctx, snap, &invoke.Call{
		Mode:       invoke.ModeExecute,
		ContractID: contractID,
		Function:   function,
		Args:       args,
		Code:       code,
	})
	if err != nil {
		return nil, err
	}
	p.metrics.cpuInstructions.Observe(float64(res.CPUInstructions))
	return res, nil
}

func (p *Pipeline) Upload(ctx context.Context, code []byte) (ids.ID, error) {
	return modules.Upload(ctx, p.store, code)
}

// Module returns the bytecode stored under [hash].
func (p *Pipeline) Module(ctx context.Context, hash ids.ID) ([]byte, error) {
	code, err := p.store.Get(ctx, hash.Hex())
	switch {
	case errors.Is(err, modules.ErrNotFound):
		return nil, vmerr.NotFound(hash)
	case err != nil:
		return nil, vmerr.Unavailable(err)
	}
	return code, nil
}
