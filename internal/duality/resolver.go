package duality

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Resolver supplies the native token's contract address. Implementations may
// cache; the transforms treat resolution as a fast read-only lookup and
// propagate failures unchanged.
type Resolver interface {
	NativeTokenAddress(ctx context.Context) (common.Address, error)
}

// StaticResolver returns a pre-configured token address.
type StaticResolver struct {
	address common.Address
}

func NewStaticResolver(address common.Address) *StaticResolver {
	return &StaticResolver{address: address}
}

func (r *StaticResolver) NativeTokenAddress(_ context.Context) (common.Address, error) {
	return r.address, nil
}

// ContractCaller is the slice of the chain client the registry resolver needs.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

const registryABIJSON = `[{"constant":true,"inputs":[{"name":"identifier","type":"string"}],"name":"getAddressForString","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"}]`

// RegistryResolver looks up the native token address in an on-chain registry
// contract and caches the first successful result.
type RegistryResolver struct {
	caller   ContractCaller
	registry common.Address
	entry    string
	abi      abi.ABI
	logger   *zap.Logger

	mu     sync.RWMutex
	cached *common.Address
}

func NewRegistryResolver(caller ContractCaller, registry common.Address, entry string, logger *zap.Logger) (*RegistryResolver, error) {
	if entry == "" {
		return nil, fmt.Errorf("registry entry name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := abi.JSON(strings.NewReader(registryABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}
	return &RegistryResolver{
		caller:   caller,
		registry: registry,
		entry:    entry,
		abi:      parsed,
		logger:   logger,
	}, nil
}

func (r *RegistryResolver) NativeTokenAddress(ctx context.Context) (common.Address, error) {
	r.mu.RLock()
	cached := r.cached
	r.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}

	data, err := r.abi.Pack("getAddressForString", r.entry)
	if err != nil {
		return common.Address{}, fmt.Errorf("pack registry call: %w", err)
	}

	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &r.registry, Data: data}, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("registry call: %w", err)
	}

	values, err := r.abi.Unpack("getAddressForString", out)
	if err != nil {
		return common.Address{}, fmt.Errorf("unpack registry result: %w", err)
	}
	address, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("registry returned unexpected type %T", values[0])
	}
	if address == (common.Address{}) {
		return common.Address{}, fmt.Errorf("registry has no entry for %q", r.entry)
	}

	r.mu.Lock()
	r.cached = &address
	r.mu.Unlock()

	r.logger.Debug("resolved native token address",
		zap.String("registry", r.registry.Hex()),
		zap.String("entry", r.entry),
		zap.String("address", address.Hex()),
	)
	return address, nil
}
