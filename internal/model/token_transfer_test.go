package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTokenTransferJSONShape(t *testing.T) {
	transfer := TokenTransfer{
		Amount:               decimal.NewFromInt(500),
		BlockHash:            "0xblock",
		BlockNumber:          100,
		FromAddress:          "0x1111111111111111111111111111111111111111",
		ToAddress:            "0x2222222222222222222222222222222222222222",
		LogIndex:             -60000,
		TokenContractAddress: "0x471EcE3750Da237f93B8E339c536989b8978a438",
		TokenType:            TokenTypeERC20,
		TransactionHash:      "0xaaa",
	}

	data, err := json.Marshal(transfer)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if _, ok := decoded["amount"].(string); !ok {
		t.Fatalf("amount should encode as string, got %T", decoded["amount"])
	}
	if decoded["token_id"] != nil {
		t.Fatalf("token_id should be null, got %v", decoded["token_id"])
	}
	if decoded["log_index"].(float64) != -60000 {
		t.Fatalf("log_index: got %v", decoded["log_index"])
	}

	var roundTrip TokenTransfer
	if err := json.Unmarshal(data, &roundTrip); err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if !roundTrip.Amount.Equal(transfer.Amount) {
		t.Fatalf("amount changed: %s != %s", roundTrip.Amount, transfer.Amount)
	}
}
