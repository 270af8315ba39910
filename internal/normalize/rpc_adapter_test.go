package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-activity-gateway/internal/domain"
	"solana-activity-gateway/internal/solana"
)

// stubResolver answers from a fixed map, falling back to a placeholder.
type stubResolver struct {
	tokens map[string]domain.TokenMetadata
	calls  []map[string]uint8
}

func (s *stubResolver) ResolveAll(_ context.Context, hints map[string]uint8) map[string]domain.TokenMetadata {
	s.calls = append(s.calls, hints)
	out := make(map[string]domain.TokenMetadata, len(hints))
	for mint, hint := range hints {
		if m, ok := s.tokens[mint]; ok {
			out[mint] = m
		} else {
			out[mint] = domain.TokenMetadata{Name: "Unknown Token", Symbol: "UNKNOWN", Decimals: hint}
		}
	}
	return out
}

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

const wallet = "walletAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func rawTx(meta *solana.RawMeta, keys ...string) *solana.RawTransaction {
	tx := &solana.RawTransaction{
		Slot:      100,
		BlockTime: i64(1700000000),
		Meta:      meta,
	}
	tx.Transaction.Signatures = []string{"sig1"}
	for _, k := range keys {
		tx.Transaction.Message.AccountKeys = append(tx.Transaction.Message.AccountKeys, solana.AccountKey{Pubkey: k})
	}
	return tx
}

func TestFromRPC_NativeDeltaAndFee(t *testing.T) {
	e := NewEngine(EngineOptions{Resolver: &stubResolver{}})

	tx := rawTx(&solana.RawMeta{
		Fee:          5000,
		PreBalances:  []uint64{1000000000, 50},
		PostBalances: []uint64{900000000, 50},
	}, wallet, "otherAccount")

	got, err := e.FromRPC(context.Background(), tx, wallet)
	require.NoError(t, err)
	require.NotNil(t, got)

	require.Len(t, got.InteractionData.BalanceChanges, 2)

	native := got.InteractionData.BalanceChanges[0]
	assert.Equal(t, "0.1", native.Amount)
	assert.Equal(t, domain.FormatAddress(wallet), native.From)
	assert.Equal(t, domain.UnknownAddress, native.To)
	assert.Equal(t, domain.NativeTokenID, native.Token.ID)

	fee := got.InteractionData.BalanceChanges[1]
	assert.Equal(t, "0.000005", fee.Amount)
	assert.Equal(t, domain.FormatAddress(wallet), fee.From)
	assert.Equal(t, domain.FeeSinkID, fee.To)

	assert.Equal(t, domain.TxTypeTransfer, got.InteractionData.TransactionType)
	assert.Equal(t, domain.StatusSuccess, got.ChainMeta.Status)
	assert.Equal(t, "5000", got.ChainMeta.NetworkFee)
	assert.Equal(t, "solana:101/tx:sig1", got.ID)
	assert.Equal(t, int64(1700000000), got.Timestamp)
}

func TestFromRPC_NativeReceived(t *testing.T) {
	e := NewEngine(EngineOptions{Resolver: &stubResolver{}})

	tx := rawTx(&solana.RawMeta{
		PreBalances:  []uint64{100},
		PostBalances: []uint64{1000000100},
	}, wallet)

	got, err := e.FromRPC(context.Background(), tx, wallet)
	require.NoError(t, err)
	require.NotNil(t, got)

	require.Len(t, got.InteractionData.BalanceChanges, 1)
	change := got.InteractionData.BalanceChanges[0]
	assert.Equal(t, "1", change.Amount)
	assert.Equal(t, domain.UnknownAddress, change.From)
	assert.Equal(t, domain.FormatAddress(wallet), change.To)
}

func TestFromRPC_TokenDelta(t *testing.T) {
	resolver := &stubResolver{tokens: map[string]domain.TokenMetadata{
		"mintUSDC": {Name: "USD Coin", Symbol: "USDC", Decimals: 6},
	}}
	e := NewEngine(EngineOptions{Resolver: resolver})

	tx := rawTx(&solana.RawMeta{
		PreTokenBalances: []solana.TokenBalance{
			{Mint: "mintUSDC", Owner: wallet, UITokenAmount: solana.UITokenAmount{UIAmount: f64(10), Decimals: 6}},
		},
		PostTokenBalances: []solana.TokenBalance{
			{Mint: "mintUSDC", Owner: wallet, UITokenAmount: solana.UITokenAmount{UIAmount: f64(7.5), Decimals: 6}},
		},
	}, "someoneElse")

	got, err := e.FromRPC(context.Background(), tx, wallet)
	require.NoError(t, err)
	require.NotNil(t, got)

	require.Len(t, got.InteractionData.BalanceChanges, 1)
	change := got.InteractionData.BalanceChanges[0]
	assert.Equal(t, "2.5", change.Amount)
	assert.Equal(t, domain.FormatAddress(wallet), change.From)
	assert.Equal(t, "USDC", change.Token.Symbol)
	assert.Equal(t, domain.FormatTokenID("mintUSDC"), change.Token.ID)

	require.Len(t, resolver.calls, 1)
	assert.Equal(t, map[string]uint8{"mintUSDC": 6}, resolver.calls[0])
}

func TestFromRPC_ZeroDeltaTokenDropped(t *testing.T) {
	var droppedReason string
	e := NewEngine(EngineOptions{
		Resolver:  &stubResolver{},
		OnDropped: func(reason string) { droppedReason = reason },
	})

	tx := rawTx(&solana.RawMeta{
		PreTokenBalances: []solana.TokenBalance{
			{Mint: "mintA", Owner: wallet, UITokenAmount: solana.UITokenAmount{UIAmount: f64(3), Decimals: 6}},
		},
		PostTokenBalances: []solana.TokenBalance{
			{Mint: "mintA", Owner: wallet, UITokenAmount: solana.UITokenAmount{UIAmount: f64(3), Decimals: 6}},
		},
	}, "someoneElse")

	got, err := e.FromRPC(context.Background(), tx, wallet)
	require.NoError(t, err)
	assert.Nil(t, got, "record with no balance changes must be dropped")
	assert.Equal(t, "no_balance_changes", droppedReason)
}

func TestFromRPC_OtherOwnersIgnored(t *testing.T) {
	e := NewEngine(EngineOptions{Resolver: &stubResolver{}})

	tx := rawTx(&solana.RawMeta{
		PreTokenBalances: []solana.TokenBalance{
			{Mint: "mintA", Owner: "otherWallet", UITokenAmount: solana.UITokenAmount{UIAmount: f64(5), Decimals: 6}},
		},
		PostTokenBalances: []solana.TokenBalance{
			{Mint: "mintA", Owner: "otherWallet", UITokenAmount: solana.UITokenAmount{UIAmount: f64(1), Decimals: 6}},
		},
	}, "otherWallet")

	got, err := e.FromRPC(context.Background(), tx, wallet)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFromRPC_FailedStatus(t *testing.T) {
	e := NewEngine(EngineOptions{Resolver: &stubResolver{}})

	tx := rawTx(&solana.RawMeta{
		Err:          map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
		Fee:          5000,
		PreBalances:  []uint64{10000},
		PostBalances: []uint64{5000},
	}, wallet)

	got, err := e.FromRPC(context.Background(), tx, wallet)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatusFailed, got.ChainMeta.Status)
}

func TestFromRPC_UnresolvedTokenGetsPlaceholder(t *testing.T) {
	e := NewEngine(EngineOptions{Resolver: &stubResolver{}})

	tx := rawTx(&solana.RawMeta{
		PostTokenBalances: []solana.TokenBalance{
			{Mint: "mintMystery", Owner: wallet, UITokenAmount: solana.UITokenAmount{UIAmount: f64(42), Decimals: 4}},
		},
	}, "someoneElse")

	got, err := e.FromRPC(context.Background(), tx, wallet)
	require.NoError(t, err)
	require.NotNil(t, got)

	change := got.InteractionData.BalanceChanges[0]
	assert.Equal(t, "UNKNOWN", change.Token.Symbol)
	assert.Equal(t, "Unknown Token", change.Token.DisplayName)
	assert.Equal(t, uint8(4), change.Token.Decimals, "decimals hint from payload")
}

func TestFromRPC_MissingBlockTimeRejected(t *testing.T) {
	var droppedReason string
	e := NewEngine(EngineOptions{
		Resolver:  &stubResolver{},
		OnDropped: func(reason string) { droppedReason = reason },
	})

	tx := rawTx(&solana.RawMeta{
		Fee:          5000,
		PreBalances:  []uint64{1000000000},
		PostBalances: []uint64{900000000},
	}, wallet)
	tx.BlockTime = nil

	got, err := e.FromRPC(context.Background(), tx, wallet)
	assert.ErrorIs(t, err, ErrMalformedRecord)
	assert.Nil(t, got, "a record without a block time must never be emitted")
	assert.Equal(t, "missing_block_time", droppedReason)
}

func TestFromRPC_PositivesBeforeNegatives(t *testing.T) {
	resolver := &stubResolver{tokens: map[string]domain.TokenMetadata{
		"mintJUP": {Name: "Jupiter", Symbol: "JUP", Decimals: 6},
	}}
	e := NewEngine(EngineOptions{Resolver: resolver})

	// Wallet spends SOL plus the fee and receives a token.
	tx := rawTx(&solana.RawMeta{
		Fee:          5000,
		PreBalances:  []uint64{1000000000},
		PostBalances: []uint64{499995000},
		PostTokenBalances: []solana.TokenBalance{
			{Mint: "mintJUP", Owner: wallet, UITokenAmount: solana.UITokenAmount{UIAmount: f64(12), Decimals: 6}},
		},
	}, wallet)

	got, err := e.FromRPC(context.Background(), tx, wallet)
	require.NoError(t, err)
	require.NotNil(t, got)

	require.Len(t, got.InteractionData.BalanceChanges, 3)
	first := got.InteractionData.BalanceChanges[0]
	assert.Equal(t, "JUP", first.Token.Symbol, "received token comes first")
	assert.Equal(t, domain.FormatAddress(wallet), first.To)
	for _, change := range got.InteractionData.BalanceChanges[1:] {
		assert.Equal(t, domain.FormatAddress(wallet), change.From, "spends follow receives")
	}
}

func TestFromRPC_Malformed(t *testing.T) {
	e := NewEngine(EngineOptions{Resolver: &stubResolver{}})

	_, err := e.FromRPC(context.Background(), nil, wallet)
	assert.ErrorIs(t, err, ErrMalformedRecord)

	tx := rawTx(&solana.RawMeta{})
	tx.Transaction.Signatures = nil
	_, err = e.FromRPC(context.Background(), tx, wallet)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}
