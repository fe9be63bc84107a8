package indexer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"coinScope/internal/chain"
	"coinScope/internal/model"
)

// FlattenTraces converts callTracer output into internal transaction records.
// Frame indices are assigned here in depth-first order, with the root frame
// of every trace at index 0, so index 0 always mirrors the enclosing
// transaction rather than relying on the tracer to promise that.
func FlattenTraces(traces []chain.TxTrace, blockNumber uint64) ([]model.InternalTransaction, error) {
	itxs := make([]model.InternalTransaction, 0, len(traces))

	for txIndex, trace := range traces {
		index := uint64(0)

		var walk func(frame chain.CallFrame) error
		walk = func(frame chain.CallFrame) error {
			value, err := traceValue(frame.Value)
			if err != nil {
				return fmt.Errorf("trace %s frame %d: %w", trace.TxHash, index, err)
			}

			itx := model.InternalTransaction{
				TransactionHash:  trace.TxHash,
				TransactionIndex: uint64(txIndex),
				Index:            index,
				BlockNumber:      blockNumber,
				FromAddress:      frame.From,
				Value:            value,
				CallType:         strings.ToLower(frame.Type),
				Error:            frame.Error,
			}
			if isCreate(frame.Type) {
				itx.CreatedContractAddress = frame.To
			} else {
				itx.ToAddress = frame.To
			}
			itxs = append(itxs, itx)
			index++

			for _, child := range frame.Calls {
				if err := walk(child); err != nil {
					return err
				}
			}
			return nil
		}

		if err := walk(trace.Result); err != nil {
			return nil, err
		}
	}

	return itxs, nil
}

func traceValue(raw string) (string, error) {
	if raw == "" {
		return "0", nil
	}
	value, err := hexutil.DecodeBig(raw)
	if err != nil {
		return "", fmt.Errorf("decode value %q: %w", raw, err)
	}
	return value.String(), nil
}

func isCreate(frameType string) bool {
	return strings.HasPrefix(strings.ToUpper(frameType), "CREATE")
}
