package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrInvalidAddress reports a string that is not a valid Solana public key.
var ErrInvalidAddress = errors.New("invalid address")

// ValidateAddress checks that the string is base58-encoded 32-byte data.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("%w: decoded to %d bytes, want 32", ErrInvalidAddress, len(raw))
	}
	return nil
}

// IsOnCurve reports whether the address decodes to a point on the ed25519
// curve. Wallet addresses are on-curve; program-derived addresses are not.
func IsOnCurve(address string) bool {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
