package duality

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

type fakeCaller struct {
	result common.Address
	calls  int
}

func (f *fakeCaller) CallContract(_ context.Context, _ ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	return common.LeftPadBytes(f.result.Bytes(), 32), nil
}

func TestStaticResolver(t *testing.T) {
	resolver := NewStaticResolver(testToken)

	got, err := resolver.NativeTokenAddress(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != testToken {
		t.Fatalf("got %s, want %s", got.Hex(), testToken.Hex())
	}
}

func TestRegistryResolverCaches(t *testing.T) {
	caller := &fakeCaller{result: testToken}
	registry := common.HexToAddress("0x4444444444444444444444444444444444444444")

	resolver, err := NewRegistryResolver(caller, registry, "NativeToken", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := resolver.NativeTokenAddress(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != testToken {
			t.Fatalf("got %s, want %s", got.Hex(), testToken.Hex())
		}
	}

	if caller.calls != 1 {
		t.Fatalf("registry called %d times, want 1", caller.calls)
	}
}

func TestRegistryResolverMissingEntry(t *testing.T) {
	caller := &fakeCaller{}
	registry := common.HexToAddress("0x4444444444444444444444444444444444444444")

	resolver, err := NewRegistryResolver(caller, registry, "NativeToken", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := resolver.NativeTokenAddress(context.Background()); err == nil {
		t.Fatalf("expected error for zero-address registry entry")
	}
}

func TestRegistryResolverRequiresEntryName(t *testing.T) {
	if _, err := NewRegistryResolver(&fakeCaller{}, common.Address{}, "", nil); err == nil {
		t.Fatalf("expected error for empty entry name")
	}
}
