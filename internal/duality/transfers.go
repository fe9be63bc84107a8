// Package duality derives ERC-20-style transfer records for chains whose
// native coin doubles as a token contract. Native value movements emit no
// Transfer event log, so transfers are reconstructed from transactions and
// call traces and assigned synthetic negative log indices.
package duality

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"coinScope/internal/model"
)

// BufferWidth spaces out transaction-level synthetic log indices so the
// interior of each slot holds that transaction's internal call indices.
// The value is shared with previously persisted records; changing it would
// break index-range compatibility.
const BufferWidth = 20_000

// delegateCallType marks calls that run in the caller's context and move no
// value of their own.
const delegateCallType = "delegatecall"

// Bundle is the output of one derivation pass, ready for persistence
// alongside log-derived transfers and tokens.
type Bundle struct {
	Transfers []model.TokenTransfer `json:"transfers"`
	Tokens    []model.Token         `json:"tokens"`
}

// TransactionLogIndex encodes a transaction's block position as a synthetic
// log index: -(index+1) * BufferWidth. Distinct positions map to distinct
// multiples of the buffer width.
func TransactionLogIndex(index uint64) int64 {
	return -(int64(index) + 1) * BufferWidth
}

// InternalTransactionLogIndex encodes a call's position within its parent
// transaction as -(txIndex*BufferWidth + callIndex). For call indices in
// (0, BufferWidth) the result lies strictly between the parent's own
// transaction-level index and the previous transaction's, so the two
// encodings never collide.
func InternalTransactionLogIndex(txIndex, callIndex uint64) int64 {
	return -(int64(txIndex)*BufferWidth + int64(callIndex))
}

// FromTransactions derives transfers for every transaction that moves
// positive native value. Zero-value transactions are skipped; a negative or
// unparseable value aborts the whole call.
func FromTransactions(txs []model.Transaction, token common.Address) (Bundle, error) {
	transfers := make([]model.TokenTransfer, 0, len(txs))
	for _, tx := range txs {
		value, err := parseValue(tx.Value)
		if err != nil {
			return Bundle{}, fmt.Errorf("transaction %s: %w", tx.Hash, err)
		}
		if value.Sign() == 0 {
			continue
		}

		to, err := recipient(tx.ToAddress, tx.CreatedContractAddress)
		if err != nil {
			return Bundle{}, fmt.Errorf("transaction %s: %w", tx.Hash, err)
		}

		transfers = append(transfers, model.TokenTransfer{
			Amount:               decimal.NewFromBigInt(value, 0),
			BlockHash:            tx.BlockHash,
			BlockNumber:          tx.BlockNumber,
			FromAddress:          tx.FromAddress,
			ToAddress:            to,
			LogIndex:             TransactionLogIndex(tx.Index),
			TokenContractAddress: token.Hex(),
			TokenType:            model.TokenTypeERC20,
			TransactionHash:      tx.Hash,
		})
	}

	return Bundle{Transfers: transfers, Tokens: deriveTokens(transfers, token)}, nil
}

// FromInternalTransactions derives transfers for call-trace frames that move
// positive native value. Root frames (index 0) duplicate the top-level
// transaction and are skipped, as are errored frames and delegate calls.
// blockHashes must cover every block number present in itxs.
func FromInternalTransactions(itxs []model.InternalTransaction, token common.Address, blockHashes map[uint64]string) (Bundle, error) {
	transfers := make([]model.TokenTransfer, 0, len(itxs))
	for _, itx := range itxs {
		if itx.Index == 0 {
			continue
		}
		if itx.Error != "" {
			continue
		}
		if strings.EqualFold(itx.CallType, delegateCallType) {
			continue
		}

		value, err := parseValue(itx.Value)
		if err != nil {
			return Bundle{}, fmt.Errorf("internal transaction %s.%d: %w", itx.TransactionHash, itx.Index, err)
		}
		if value.Sign() == 0 {
			continue
		}

		to, err := recipient(itx.ToAddress, itx.CreatedContractAddress)
		if err != nil {
			return Bundle{}, fmt.Errorf("internal transaction %s.%d: %w", itx.TransactionHash, itx.Index, err)
		}

		blockHash, ok := blockHashes[itx.BlockNumber]
		if !ok {
			return Bundle{}, fmt.Errorf("internal transaction %s.%d: no block hash for block %d", itx.TransactionHash, itx.Index, itx.BlockNumber)
		}

		transfers = append(transfers, model.TokenTransfer{
			Amount:               decimal.NewFromBigInt(value, 0),
			BlockHash:            blockHash,
			BlockNumber:          itx.BlockNumber,
			FromAddress:          itx.FromAddress,
			ToAddress:            to,
			LogIndex:             InternalTransactionLogIndex(itx.TransactionIndex, itx.Index),
			TokenContractAddress: token.Hex(),
			TokenType:            model.TokenTypeERC20,
			TransactionHash:      itx.TransactionHash,
		})
	}

	return Bundle{Transfers: transfers, Tokens: deriveTokens(transfers, token)}, nil
}

// deriveTokens emits the token descriptor only when at least one transfer
// was produced, so a token with zero transfers is never registered.
func deriveTokens(transfers []model.TokenTransfer, token common.Address) []model.Token {
	if len(transfers) == 0 {
		return nil
	}
	return []model.Token{{ContractAddress: token.Hex(), Type: model.TokenTypeERC20}}
}

func parseValue(raw string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("unparseable value %q", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("negative value %q", raw)
	}
	return value, nil
}

func recipient(to, createdContract string) (string, error) {
	if to != "" {
		return to, nil
	}
	if createdContract != "" {
		return createdContract, nil
	}
	return "", fmt.Errorf("no recipient or created contract address")
}
