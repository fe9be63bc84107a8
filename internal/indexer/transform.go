package indexer

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"coinScope/internal/model"
)

func buildTransactions(block *types.Block, signer types.Signer) ([]model.Transaction, error) {
	txs := block.Transactions()
	records := make([]model.Transaction, 0, len(txs))
	for i, tx := range txs {
		from, err := types.Sender(signer, tx)
		if err != nil {
			return nil, fmt.Errorf("recover sender of %s: %w", tx.Hash().Hex(), err)
		}

		record := model.Transaction{
			Hash:        tx.Hash().Hex(),
			BlockHash:   block.Hash().Hex(),
			BlockNumber: block.NumberU64(),
			Index:       uint64(i),
			FromAddress: from.Hex(),
			Value:       tx.Value().String(),
		}
		if to := tx.To(); to != nil {
			record.ToAddress = to.Hex()
		} else {
			record.CreatedContractAddress = crypto.CreateAddress(from, tx.Nonce()).Hex()
		}
		records = append(records, record)
	}
	return records, nil
}
