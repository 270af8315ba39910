package domain

// Transaction type classifications. Provider-specific type tags are mapped
// onto this set; anything unrecognized becomes TxTypeUnknown.
const (
	TxTypeReceived       = "RECEIVED"
	TxTypeSent           = "SENT"
	TxTypeAppInteraction = "APP_INTERACTION"
	TxTypeClosedAccount  = "CLOSED_ACCOUNT"
	TxTypeTransfer       = "TRANSFER"
	TxTypeUnknown        = "UNKNOWN"
)

// Transaction status values reported in ChainMeta.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// NormalizedTransaction is the canonical record shape returned to all callers
// regardless of which upstream provider produced the raw payload.
// Identity is ID; duplicates across calls are possible and not deduplicated.
type NormalizedTransaction struct {
	ID              string          `json:"id"`
	Timestamp       int64           `json:"timestamp"`
	InteractionData InteractionData `json:"interactionData"`
	ChainMeta       ChainMeta       `json:"chainMeta"`
}

// InteractionData groups the classified type with the asset movements.
type InteractionData struct {
	TransactionType string          `json:"transactionType"`
	BalanceChanges  []BalanceChange `json:"balanceChanges"`
}

// BalanceChange is a single asset movement attributable to one transaction
// and one wallet. Amount is an unsigned decimal magnitude; direction is
// encoded only via From/To, never via sign.
type BalanceChange struct {
	Amount string    `json:"amount"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Token  TokenInfo `json:"token"`
}

// TokenInfo is the display form of a token attached to a balance change.
type TokenInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	LogoURI     string `json:"logoURI"`
}

// ChainMeta carries chain-level facts about the transaction.
type ChainMeta struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	NetworkFee    string `json:"networkFee"`
}
