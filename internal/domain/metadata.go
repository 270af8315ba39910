package domain

// TokenMetadata is resolved display metadata for a token mint.
// Values are treated as immutable: cache and store entries are
// overwritten wholesale, never mutated in place.
type TokenMetadata struct {
	Name     string
	Symbol   string
	LogoURI  string
	Decimals uint8
}

// TokenInfo builds the balance-change display form for the given mint.
func (m TokenMetadata) TokenInfo(mint string) TokenInfo {
	return TokenInfo{
		ID:          FormatTokenID(mint),
		DisplayName: m.Name,
		Symbol:      m.Symbol,
		Decimals:    m.Decimals,
		LogoURI:     m.LogoURI,
	}
}
