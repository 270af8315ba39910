package solana

import (
	"bytes"
	"encoding/json"
)

// RawTransaction is the jsonParsed getTransaction payload, kept close to the
// wire shape so normalization can work directly on it.
type RawTransaction struct {
	Slot        uint64      `json:"slot"`
	BlockTime   *int64      `json:"blockTime"`
	Meta        *RawMeta    `json:"meta"`
	Transaction RawEnvelope `json:"transaction"`
}

// RawMeta carries balances and fee data for one transaction.
type RawMeta struct {
	Err               interface{}    `json:"err"`
	Fee               uint64         `json:"fee"`
	PreBalances       []uint64       `json:"preBalances"`
	PostBalances      []uint64       `json:"postBalances"`
	PreTokenBalances  []TokenBalance `json:"preTokenBalances"`
	PostTokenBalances []TokenBalance `json:"postTokenBalances"`
	LogMessages       []string       `json:"logMessages"`
}

// RawEnvelope wraps the signatures and message of a transaction.
type RawEnvelope struct {
	Signatures []string `json:"signatures"`
	Message    struct {
		AccountKeys []AccountKey `json:"accountKeys"`
	} `json:"message"`
}

// AccountKey is one entry of message.accountKeys. The jsonParsed encoding
// returns objects; the plain json encoding returns bare strings. Both are
// accepted.
type AccountKey struct {
	Pubkey   string `json:"pubkey"`
	Signer   bool   `json:"signer"`
	Writable bool   `json:"writable"`
}

func (k *AccountKey) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &k.Pubkey)
	}
	type plain AccountKey
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*k = AccountKey(p)
	return nil
}

// TokenBalance is one pre/post token balance entry.
type TokenBalance struct {
	AccountIndex  int           `json:"accountIndex"`
	Mint          string        `json:"mint"`
	Owner         string        `json:"owner"`
	UITokenAmount UITokenAmount `json:"uiTokenAmount"`
}

// UITokenAmount is the RPC token amount form. UIAmount is null for zero
// balances on some providers, so it stays a pointer.
type UITokenAmount struct {
	Amount   string   `json:"amount"`
	Decimals uint8    `json:"decimals"`
	UIAmount *float64 `json:"uiAmount"`
}

// SignatureInfo is one getSignaturesForAddress result entry.
type SignatureInfo struct {
	Signature string      `json:"signature"`
	Slot      uint64      `json:"slot"`
	BlockTime *int64      `json:"blockTime"`
	Err       interface{} `json:"err"`
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // start searching backwards from this signature
	Until  string // search until this signature
	Limit  int    // maximum number of signatures to return
}
