package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"solana-activity-gateway/internal/activity"
	"solana-activity-gateway/internal/domain"
)

// FromActivity converts one activity provider record. The provider renders
// transactions as display components, so extraction walks named props;
// missing parties degrade to a placeholder, while a missing hash or block
// time fails the record. Returns (nil, nil) when no balance changes remain,
// which callers treat as a dropped record.
func (e *Engine) FromActivity(rec activity.Record, wallet string) (*domain.NormalizedTransaction, error) {
	if rec.Hash == "" {
		e.dropped("missing_hash")
		return nil, fmt.Errorf("%w: missing hash", ErrMalformedRecord)
	}
	props := rec.Components.LineItem.Props
	if len(props) == 0 {
		e.dropped("missing_props")
		return nil, fmt.Errorf("%w: missing line item props", ErrMalformedRecord)
	}

	p, ok := activity.PropByName(props, "blockTime")
	if !ok {
		e.dropped("missing_block_time")
		return nil, fmt.Errorf("%w: missing block time", ErrMalformedRecord)
	}
	var blockTime int64
	if err := json.Unmarshal(p.Value, &blockTime); err != nil {
		e.dropped("missing_block_time")
		return nil, fmt.Errorf("%w: bad block time: %v", ErrMalformedRecord, err)
	}

	sender, recipient := extractParties(rec.ExpandedData)

	var balances activity.BalancesValue
	if p, ok := activity.PropByName(props, "balances"); ok {
		json.Unmarshal(p.Value, &balances)
	}

	failed := false
	if p, ok := activity.PropByName(balances.Props, "failedText"); ok {
		var text string
		json.Unmarshal(p.Value, &text)
		failed = text == "Failed"
	}

	// Positives (received by the wallet) come before negatives.
	var changes []domain.BalanceChange
	for _, entry := range balanceEntries(balances.Props, "positives") {
		changes = append(changes, activityChange(entry, sender, wallet))
	}
	for _, entry := range balanceEntries(balances.Props, "negatives") {
		changes = append(changes, activityChange(entry, wallet, recipient))
	}
	if len(changes) == 0 {
		e.dropped("no_balance_changes")
		return nil, nil
	}

	status := domain.StatusSuccess
	if failed {
		status = domain.StatusFailed
	}

	tx := &domain.NormalizedTransaction{
		ID:        domain.FormatTransactionID(rec.Hash),
		Timestamp: blockTime,
		InteractionData: domain.InteractionData{
			TransactionType: ClassifyType(rec.Type),
			BalanceChanges:  changes,
		},
		ChainMeta: domain.ChainMeta{
			TransactionID: rec.Hash,
			Status:        status,
			NetworkFee:    feeString(rec.Fee),
		},
	}
	e.normalized(SchemaActivity)
	return tx, nil
}

// extractParties reads sender and recipient from the expanded detail rows.
// The provider puts the sender in the first row and the recipient in the
// third; absence degrades to the unknown placeholder.
func extractParties(expanded *activity.ExpandedData) (sender, recipient string) {
	sender, recipient = domain.UnknownAddress, domain.UnknownAddress
	if expanded == nil {
		return
	}
	if s := detailContent(expanded.Details, 0); s != "" {
		sender = s
	}
	if r := detailContent(expanded.Details, 2); r != "" {
		recipient = r
	}
	return
}

func detailContent(details []activity.Detail, idx int) string {
	if idx >= len(details) {
		return ""
	}
	p, ok := activity.PropByName(details[idx].Props, "content")
	if !ok {
		return ""
	}
	var content string
	json.Unmarshal(p.Value, &content)
	return content
}

func balanceEntries(props []activity.Prop, name string) []activity.BalanceEntry {
	p, ok := activity.PropByName(props, name)
	if !ok {
		return nil
	}
	var entries []activity.BalanceEntry
	json.Unmarshal(p.Value, &entries)
	return entries
}

// activityChange builds a BalanceChange from a provider balance entry. The
// activity schema carries no mint, so the token ID is derived from the
// symbol the provider displays.
func activityChange(entry activity.BalanceEntry, from, to string) domain.BalanceChange {
	amount := entry.Amount
	if amount == "" {
		amount = "0"
	}
	symbol := entry.Symbol
	if symbol == "" {
		symbol = "UNKNOWN"
	}
	return domain.BalanceChange{
		Amount: amount,
		From:   from,
		To:     to,
		Token: domain.TokenInfo{
			ID:          domain.FormatTokenID(symbol),
			DisplayName: symbol,
			Symbol:      symbol,
			Decimals:    entry.Decimals,
			LogoURI:     entry.Image,
		},
	}
}

// feeString renders the provider fee, which arrives as a number or a
// string depending on the record.
func feeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "0"
	}
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "0"
	}
	if s[0] == '"' {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil || v == "" {
			return "0"
		}
		return v
	}
	return s
}
