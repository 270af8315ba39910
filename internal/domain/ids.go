package domain

import "fmt"

// Chain-qualified identifier scheme. All addresses, tokens and transactions
// are namespaced under the Solana mainnet chain ID so records stay
// unambiguous when mixed with other chains downstream.
const (
	ChainID       = "solana:101"
	NativeTokenID = "solana:101/nativeToken:501"

	// FeeSinkID is the synthetic recipient of network fees.
	FeeSinkID = "solana:101/fee"

	// UnknownAddress is the literal placeholder used when a counterparty
	// cannot be extracted from a payload.
	UnknownAddress = "unknown"
)

// Native asset (SOL) display constants.
const (
	NativeMint     = "So11111111111111111111111111111111111111112"
	NativeSymbol   = "SOL"
	NativeDecimals = 9
	NativeLogoURI  = "https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/So11111111111111111111111111111111111111112/logo.png"
)

// FormatAddress qualifies a raw address with the chain namespace.
// The "unknown" placeholder is passed through unqualified.
func FormatAddress(address string) string {
	if address == "" || address == UnknownAddress {
		return UnknownAddress
	}
	return fmt.Sprintf("%s/address:%s", ChainID, address)
}

// FormatTokenID qualifies a token mint with the chain namespace.
func FormatTokenID(mint string) string {
	return fmt.Sprintf("%s/address:%s", ChainID, mint)
}

// FormatTransactionID qualifies a transaction signature with the chain namespace.
func FormatTransactionID(signature string) string {
	return fmt.Sprintf("%s/tx:%s", ChainID, signature)
}

// NativeTokenInfo returns the display info for the native asset.
func NativeTokenInfo() TokenInfo {
	return TokenInfo{
		ID:          NativeTokenID,
		DisplayName: NativeSymbol,
		Symbol:      NativeSymbol,
		Decimals:    NativeDecimals,
		LogoURI:     NativeLogoURI,
	}
}
