package model

// Transaction is the normalized representation of a top-level transaction.
// Value is a base-10 string so amounts survive JSON without precision loss.
type Transaction struct {
	Hash                   string `json:"hash"`
	BlockHash              string `json:"block_hash"`
	BlockNumber            uint64 `json:"block_number"`
	Index                  uint64 `json:"index"`
	FromAddress            string `json:"from_address"`
	ToAddress              string `json:"to_address,omitempty"`
	CreatedContractAddress string `json:"created_contract_address,omitempty"`
	Value                  string `json:"value"`
	// Error is accepted from raw input for record completeness. Unlike call
	// trace frames, top-level transactions are filtered on value alone, so
	// the marker never suppresses a transfer.
	Error string `json:"error,omitempty"`
}

// InternalTransaction is one frame of a transaction's call trace. Index is
// the frame's position in depth-first trace order; index 0 is the root frame
// mirroring the enclosing transaction. Internal transactions do not carry a
// block hash; callers resolve it through the owning block.
type InternalTransaction struct {
	TransactionHash        string `json:"transaction_hash"`
	TransactionIndex       uint64 `json:"transaction_index"`
	Index                  uint64 `json:"index"`
	BlockNumber            uint64 `json:"block_number"`
	FromAddress            string `json:"from_address"`
	ToAddress              string `json:"to_address,omitempty"`
	CreatedContractAddress string `json:"created_contract_address,omitempty"`
	Value                  string `json:"value"`
	CallType               string `json:"call_type,omitempty"`
	Error                  string `json:"error,omitempty"`
}
