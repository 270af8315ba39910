package domain

// SignatureRecord identifies one confirmed transaction touching an
// address, in newest-first order as returned by upstream providers.
type SignatureRecord struct {
	Hash      string `json:"hash"`
	BlockTime int64  `json:"blockTime"`
	Slot      uint64 `json:"slot"`
	Failed    bool   `json:"errorFlag"`
	Address   string `json:"address,omitempty"`
}
