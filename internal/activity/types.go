package activity

import "encoding/json"

// signatureEntry is one entry of the chunked signatures response.
type signatureEntry struct {
	Hash      string  `json:"hash"`
	BlockTime int64   `json:"blockTime"`
	Slot      uint64  `json:"slot"`
	PublicKey string  `json:"publicKey"`
	Err       *string `json:"err"`
}

// Record is one transaction entry of the chunked transactions response.
// The provider renders records as nested display components; the parts
// needed for normalization are typed, the rest is ignored.
type Record struct {
	Hash         string          `json:"hash"`
	Type         string          `json:"type"`
	Fee          json.RawMessage `json:"fee"`
	Components   Components      `json:"components"`
	ExpandedData *ExpandedData   `json:"expandedData"`
}

// Components holds the rendered line item of a record.
type Components struct {
	LineItem LineItem `json:"lineItem"`
}

// LineItem carries named display properties, including blockTime and the
// balances block.
type LineItem struct {
	Props []Prop `json:"props"`
}

// Prop is one named property. Value shapes vary per name, so it stays raw
// until the consumer knows what to expect.
type Prop struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// ExpandedData holds the detail rows with sender and recipient addresses.
type ExpandedData struct {
	Details []Detail `json:"details"`
}

// Detail is one detail row of the expanded view.
type Detail struct {
	Props []Prop `json:"props"`
}

// BalancesValue is the value shape of the "balances" property.
type BalancesValue struct {
	Props []Prop `json:"props"`
}

// BalanceEntry is one positive or negative balance movement.
type BalanceEntry struct {
	Amount   string `json:"amount"`
	Symbol   string `json:"symbol"`
	Image    string `json:"image"`
	Decimals uint8  `json:"decimals"`
}

// PropByName returns the named property from a list, or false.
func PropByName(props []Prop, name string) (Prop, bool) {
	for _, p := range props {
		if p.Name == name {
			return p, true
		}
	}
	return Prop{}, false
}

// chunkEnvelope is the common wrapper of one response chunk.
type chunkEnvelope struct {
	Data json.RawMessage `json:"data"`
}
