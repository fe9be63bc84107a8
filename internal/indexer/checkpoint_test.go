package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckpointStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewCheckpointStore(path, true)
	ctx := context.Background()

	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v", ok, err)
	}

	if err := store.Save(ctx, 42, "0xToken"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	cp, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected checkpoint after save")
	}
	if cp.LastProcessedBlock != 42 || cp.TokenAddress != "0xToken" {
		t.Fatalf("checkpoint mismatch: %+v", cp)
	}
}

func TestCheckpointStoreDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewCheckpointStore(path, false)
	ctx := context.Background()

	if err := store.Save(ctx, 42, "0xToken"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("disabled store wrote a file: %v", err)
	}
	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("disabled store: ok=%v err=%v", ok, err)
	}
}

type fakeStateStore struct {
	block uint64
	token string
	ok    bool
	saves int
}

func (f *fakeStateStore) LoadState(_ context.Context, _ string) (uint64, string, bool, error) {
	return f.block, f.token, f.ok, nil
}

func (f *fakeStateStore) SaveState(_ context.Context, _ string, block uint64, tokenAddress string) error {
	f.block = block
	f.token = tokenAddress
	f.ok = true
	f.saves++
	return nil
}

func TestStateCheckpointRoundTrip(t *testing.T) {
	fake := &fakeStateStore{}
	cp, err := NewStateCheckpoint(fake, "native_transfers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if _, ok, err := cp.Load(ctx); err != nil || ok {
		t.Fatalf("fresh state: ok=%v err=%v", ok, err)
	}

	if err := cp.Save(ctx, 7, "0xToken"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if fake.saves != 1 {
		t.Fatalf("state store saved %d times, want 1", fake.saves)
	}

	loaded, ok, err := cp.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected checkpoint after save")
	}
	if loaded.LastProcessedBlock != 7 || loaded.TokenAddress != "0xToken" {
		t.Fatalf("checkpoint mismatch: %+v", loaded)
	}
}

func TestStateCheckpointRequiresName(t *testing.T) {
	if _, err := NewStateCheckpoint(&fakeStateStore{}, ""); err == nil {
		t.Fatalf("expected error for empty state name")
	}
	if _, err := NewStateCheckpoint(nil, "native_transfers"); err == nil {
		t.Fatalf("expected error for nil state store")
	}
}
