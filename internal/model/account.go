package model

import "math/big"

// Account holds the balance and nonce of an address at the latest block
type Account struct {
	Address string   `json:"address"`
	Balance *big.Int `json:"balance"`
	Nonce   uint64   `json:"nonce"`
}
