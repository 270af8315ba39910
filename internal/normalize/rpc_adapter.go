package normalize

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"solana-activity-gateway/internal/domain"
	"solana-activity-gateway/internal/solana"
)

const lamportsPerSol = 1e9

// FromRPC converts a parsed RPC transaction by diffing the wallet's pre and
// post balances. Returns (nil, nil) when the wallet saw no balance change,
// which callers treat as a dropped record.
func (e *Engine) FromRPC(ctx context.Context, tx *solana.RawTransaction, wallet string) (*domain.NormalizedTransaction, error) {
	if tx == nil || tx.Meta == nil {
		e.dropped("missing_meta")
		return nil, fmt.Errorf("%w: missing meta", ErrMalformedRecord)
	}
	if len(tx.Transaction.Signatures) == 0 {
		e.dropped("missing_signature")
		return nil, fmt.Errorf("%w: missing signature", ErrMalformedRecord)
	}
	if tx.BlockTime == nil {
		e.dropped("missing_block_time")
		return nil, fmt.Errorf("%w: missing block time", ErrMalformedRecord)
	}
	signature := tx.Transaction.Signatures[0]
	meta := tx.Meta
	blockTime := *tx.BlockTime

	// Positives (received by the wallet) precede negatives in the final
	// change list, whatever order the payload yields them in.
	var positives, negatives []domain.BalanceChange

	// Native balance delta and fee, only when the wallet signs or holds a
	// balance in this transaction.
	walletIndex := -1
	for i, key := range tx.Transaction.Message.AccountKeys {
		if key.Pubkey == wallet {
			walletIndex = i
			break
		}
	}
	if walletIndex >= 0 && walletIndex < len(meta.PreBalances) && walletIndex < len(meta.PostBalances) {
		pre := meta.PreBalances[walletIndex]
		post := meta.PostBalances[walletIndex]
		delta := int64(post) - int64(pre)
		if delta > 0 {
			positives = append(positives, nativeChange(domain.UnknownAddress, wallet, float64(delta)/lamportsPerSol))
		} else if delta < 0 {
			negatives = append(negatives, nativeChange(wallet, domain.UnknownAddress, float64(-delta)/lamportsPerSol))
		}
		if meta.Fee > 0 {
			negatives = append(negatives, domain.BalanceChange{
				Amount: decimalString(float64(meta.Fee) / lamportsPerSol),
				From:   domain.FormatAddress(wallet),
				To:     domain.FeeSinkID,
				Token:  domain.NativeTokenInfo(),
			})
		}
	}

	// Per-mint token deltas for the wallet's own entries.
	deltas, hints := tokenDeltas(meta, wallet)
	mints := make([]string, 0, len(deltas))
	for mint := range deltas {
		mints = append(mints, mint)
	}
	sort.Strings(mints)

	if len(mints) > 0 && e.resolver != nil {
		resolved := e.resolver.ResolveAll(ctx, hints)
		for _, mint := range mints {
			delta := deltas[mint]
			change := domain.BalanceChange{
				Amount: decimalString(math.Abs(delta)),
				From:   domain.FormatAddress(domain.UnknownAddress),
				To:     domain.FormatAddress(wallet),
				Token:  resolved[mint].TokenInfo(mint),
			}
			if delta < 0 {
				change.From = domain.FormatAddress(wallet)
				change.To = domain.FormatAddress(domain.UnknownAddress)
				negatives = append(negatives, change)
				continue
			}
			positives = append(positives, change)
		}
	}

	changes := append(positives, negatives...)
	if len(changes) == 0 {
		e.dropped("no_balance_changes")
		return nil, nil
	}

	status := domain.StatusSuccess
	if meta.Err != nil {
		status = domain.StatusFailed
	}

	out := &domain.NormalizedTransaction{
		ID:        domain.FormatTransactionID(signature),
		Timestamp: blockTime,
		InteractionData: domain.InteractionData{
			TransactionType: domain.TxTypeTransfer,
			BalanceChanges:  changes,
		},
		ChainMeta: domain.ChainMeta{
			TransactionID: signature,
			Status:        status,
			NetworkFee:    strconv.FormatUint(meta.Fee, 10),
		},
	}
	e.normalized(SchemaRPC)
	return out, nil
}

// tokenDeltas sums the wallet's pre and post token balances per mint,
// skipping the native mint and zero deltas. Hints carry the on-chain
// decimals for placeholder construction.
func tokenDeltas(meta *solana.RawMeta, wallet string) (map[string]float64, map[string]uint8) {
	sums := func(balances []solana.TokenBalance, acc map[string]float64) {
		for _, b := range balances {
			if b.Owner != wallet || b.Mint == domain.NativeMint {
				continue
			}
			v := 0.0
			if b.UITokenAmount.UIAmount != nil {
				v = *b.UITokenAmount.UIAmount
			}
			acc[b.Mint] += v
		}
	}

	pre := make(map[string]float64)
	post := make(map[string]float64)
	sums(meta.PreTokenBalances, pre)
	sums(meta.PostTokenBalances, post)

	deltas := make(map[string]float64)
	hints := make(map[string]uint8)
	for mint := range merge(pre, post) {
		delta := post[mint] - pre[mint]
		if delta == 0 {
			continue
		}
		deltas[mint] = delta
		hints[mint] = decimalsHint(meta, mint)
	}
	return deltas, hints
}

func merge(a, b map[string]float64) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

// decimalsHint finds the decimals of a mint from any balance entry.
func decimalsHint(meta *solana.RawMeta, mint string) uint8 {
	for _, b := range meta.PreTokenBalances {
		if b.Mint == mint {
			return b.UITokenAmount.Decimals
		}
	}
	for _, b := range meta.PostTokenBalances {
		if b.Mint == mint {
			return b.UITokenAmount.Decimals
		}
	}
	return 0
}

func nativeChange(from, to string, amount float64) domain.BalanceChange {
	return domain.BalanceChange{
		Amount: decimalString(amount),
		From:   domain.FormatAddress(from),
		To:     domain.FormatAddress(to),
		Token:  domain.NativeTokenInfo(),
	}
}

// decimalString renders an amount magnitude without exponent notation and
// without trailing zeros.
func decimalString(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
