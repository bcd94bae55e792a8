package connector

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/purvik6062/nitro-explorer/internal/model"
)

// JSON-RPC result shapes. Nitro adds transaction types go-ethereum's
// core/types cannot decode, so results are decoded field by field.

type rpcBlock struct {
	Number        hexutil.Uint64    `json:"number"`
	Hash          common.Hash       `json:"hash"`
	ParentHash    common.Hash       `json:"parentHash"`
	Timestamp     hexutil.Uint64    `json:"timestamp"`
	Miner         common.Address    `json:"miner"`
	GasUsed       hexutil.Uint64    `json:"gasUsed"`
	GasLimit      hexutil.Uint64    `json:"gasLimit"`
	BaseFee       *hexutil.Big      `json:"baseFeePerGas"`
	L1BlockNumber *hexutil.Uint64   `json:"l1BlockNumber"`
	Transactions  []json.RawMessage `json:"transactions"`
}

type rpcTransaction struct {
	Hash             common.Hash     `json:"hash"`
	BlockNumber      *hexutil.Uint64 `json:"blockNumber"`
	BlockHash        *common.Hash    `json:"blockHash"`
	TransactionIndex *hexutil.Uint64 `json:"transactionIndex"`
	From             common.Address  `json:"from"`
	To               *common.Address `json:"to"`
	Value            *hexutil.Big    `json:"value"`
	GasPrice         *hexutil.Big    `json:"gasPrice"`
	Gas              hexutil.Uint64  `json:"gas"`
	Nonce            hexutil.Uint64  `json:"nonce"`
	Type             hexutil.Uint64  `json:"type"`
	Input            hexutil.Bytes   `json:"input"`
}

type rpcReceipt struct {
	TransactionHash   common.Hash       `json:"transactionHash"`
	BlockNumber       hexutil.Uint64    `json:"blockNumber"`
	BlockHash         common.Hash       `json:"blockHash"`
	From              common.Address    `json:"from"`
	To                *common.Address   `json:"to"`
	Status            hexutil.Uint64    `json:"status"`
	GasUsed           hexutil.Uint64    `json:"gasUsed"`
	CumulativeGasUsed hexutil.Uint64    `json:"cumulativeGasUsed"`
	EffectiveGasPrice *hexutil.Big      `json:"effectiveGasPrice"`
	ContractAddress   *common.Address   `json:"contractAddress"`
	Logs              []json.RawMessage `json:"logs"`
	GasUsedForL1      *hexutil.Uint64   `json:"gasUsedForL1"`
}

func addressHex(a *common.Address) string {
	if a == nil {
		return ""
	}
	return a.Hex()
}

func bigOrZero(b *hexutil.Big) *big.Int {
	if b == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b.ToInt())
}

func optionalUint64(v *hexutil.Uint64) *uint64 {
	if v == nil {
		return nil
	}
	u := uint64(*v)
	return &u
}

func (b *rpcBlock) toModel() (*model.Block, error) {
	block := &model.Block{
		Number:        uint64(b.Number),
		Hash:          b.Hash.Hex(),
		ParentHash:    b.ParentHash.Hex(),
		Timestamp:     time.Unix(int64(b.Timestamp), 0).UTC(),
		Miner:         b.Miner.Hex(),
		GasUsed:       uint64(b.GasUsed),
		GasLimit:      uint64(b.GasLimit),
		L1BlockNumber: optionalUint64(b.L1BlockNumber),
		Transactions:  make([]model.BlockTransaction, 0, len(b.Transactions)),
	}
	if b.BaseFee != nil {
		block.BaseFee = bigOrZero(b.BaseFee)
	}

	for i, raw := range b.Transactions {
		entry, err := decodeBlockTransaction(raw)
		if err != nil {
			return nil, fmt.Errorf("block %d transaction %d: %w", block.Number, i, err)
		}
		block.Transactions = append(block.Transactions, entry)
	}

	return block, nil
}

// decodeBlockTransaction accepts either a bare hash string or a full
// transaction object.
func decodeBlockTransaction(raw json.RawMessage) (model.BlockTransaction, error) {
	if len(raw) > 0 && raw[0] == '"' {
		var hash common.Hash
		if err := json.Unmarshal(raw, &hash); err != nil {
			return model.BlockTransaction{}, err
		}
		return model.BlockTransaction{Hash: hash.Hex()}, nil
	}

	var tx rpcTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return model.BlockTransaction{}, err
	}
	full := tx.toModel()
	return model.BlockTransaction{Hash: full.Hash, Tx: full}, nil
}

func (t *rpcTransaction) toModel() *model.Transaction {
	tx := &model.Transaction{
		Hash:      t.Hash.Hex(),
		From:      t.From.Hex(),
		To:        addressHex(t.To),
		Value:     bigOrZero(t.Value),
		GasPrice:  bigOrZero(t.GasPrice),
		Gas:       uint64(t.Gas),
		Nonce:     uint64(t.Nonce),
		Type:      uint64(t.Type),
		InputData: hexutil.Encode(t.Input),
	}
	if t.BlockNumber != nil {
		tx.BlockNumber = uint64(*t.BlockNumber)
	}
	if t.BlockHash != nil {
		tx.BlockHash = t.BlockHash.Hex()
	}
	if t.TransactionIndex != nil {
		tx.Index = uint64(*t.TransactionIndex)
	}
	return tx
}

func (r *rpcReceipt) toModel() *model.Receipt {
	receipt := &model.Receipt{
		TransactionHash:   r.TransactionHash.Hex(),
		BlockNumber:       uint64(r.BlockNumber),
		BlockHash:         r.BlockHash.Hex(),
		From:              r.From.Hex(),
		To:                addressHex(r.To),
		Status:            r.Status == 1,
		GasUsed:           uint64(r.GasUsed),
		CumulativeGasUsed: uint64(r.CumulativeGasUsed),
		ContractAddress:   addressHex(r.ContractAddress),
		LogCount:          len(r.Logs),
		GasUsedForL1:      optionalUint64(r.GasUsedForL1),
	}
	if r.EffectiveGasPrice != nil {
		receipt.EffectiveGasPrice = bigOrZero(r.EffectiveGasPrice)
	}
	return receipt
}
