package indexer

import (
	"testing"

	"coinScope/internal/chain"
)

func TestFlattenTraces(t *testing.T) {
	traces := []chain.TxTrace{
		{
			TxHash: "0xaaa",
			Result: chain.CallFrame{
				Type:  "CALL",
				From:  "0x1",
				To:    "0x2",
				Value: "0x64",
				Calls: []chain.CallFrame{
					{
						Type:  "CALL",
						From:  "0x2",
						To:    "0x3",
						Value: "0xa",
						Calls: []chain.CallFrame{
							{Type: "DELEGATECALL", From: "0x3", To: "0x4"},
						},
					},
					{Type: "CREATE", From: "0x2", To: "0x5", Value: "0x1"},
				},
			},
		},
		{
			TxHash: "0xbbb",
			Result: chain.CallFrame{Type: "CALL", From: "0x1", To: "0x2", Error: "out of gas"},
		},
	}

	itxs, err := FlattenTraces(traces, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(itxs) != 5 {
		t.Fatalf("got %d frames, want 5", len(itxs))
	}

	// Depth-first order with the root frame at index 0.
	wantIndices := []uint64{0, 1, 2, 3, 0}
	for i, want := range wantIndices {
		if itxs[i].Index != want {
			t.Fatalf("frame %d: index %d, want %d", i, itxs[i].Index, want)
		}
	}

	if itxs[0].TransactionIndex != 0 || itxs[4].TransactionIndex != 1 {
		t.Fatalf("transaction indices wrong: %d, %d", itxs[0].TransactionIndex, itxs[4].TransactionIndex)
	}
	if itxs[0].Value != "100" {
		t.Fatalf("root value: got %s, want 100", itxs[0].Value)
	}
	if itxs[2].CallType != "delegatecall" {
		t.Fatalf("call type: got %s, want delegatecall", itxs[2].CallType)
	}
	if itxs[2].Value != "0" {
		t.Fatalf("missing value should decode as 0, got %s", itxs[2].Value)
	}
	if itxs[3].CreatedContractAddress != "0x5" || itxs[3].ToAddress != "" {
		t.Fatalf("create frame recipient wrong: %+v", itxs[3])
	}
	if itxs[4].Error != "out of gas" {
		t.Fatalf("error marker lost: %+v", itxs[4])
	}
	for _, itx := range itxs {
		if itx.BlockNumber != 100 {
			t.Fatalf("block number: got %d, want 100", itx.BlockNumber)
		}
	}
}

func TestFlattenTracesBadValue(t *testing.T) {
	traces := []chain.TxTrace{
		{TxHash: "0xaaa", Result: chain.CallFrame{Type: "CALL", Value: "nonsense"}},
	}
	if _, err := FlattenTraces(traces, 1); err == nil {
		t.Fatalf("expected error for undecodable value")
	}
}
