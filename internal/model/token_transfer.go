package model

import (
	"github.com/shopspring/decimal"
)

// TokenTypeERC20 tags fungible token transfers and tokens.
const TokenTypeERC20 = "ERC-20"

// TokenTransfer is a token movement in the same shape as transfers decoded
// from contract event logs. Synthetic transfers derived from native-coin
// movements use strictly negative log indices, so they can never collide
// with log-derived transfers, whose indices are always >= 0.
type TokenTransfer struct {
	Amount               decimal.Decimal  `json:"amount"`
	BlockHash            string           `json:"block_hash"`
	BlockNumber          uint64           `json:"block_number"`
	FromAddress          string           `json:"from_address"`
	ToAddress            string           `json:"to_address"`
	LogIndex             int64            `json:"log_index"`
	TokenContractAddress string           `json:"token_contract_address"`
	TokenID              *decimal.Decimal `json:"token_id"`
	TokenType            string           `json:"token_type"`
	TransactionHash      string           `json:"transaction_hash"`
}

// Token describes a token contract seen while deriving transfers.
type Token struct {
	ContractAddress string `json:"contract_address"`
	Type            string `json:"type"`
}
