package normalize

import (
	"strings"

	"solana-activity-gateway/internal/domain"
)

// ClassifyType maps a provider type tag onto the canonical transaction
// types. Substring rules take precedence over the exact-match table;
// unrecognized tags classify as UNKNOWN rather than failing.
func ClassifyType(tag string) string {
	switch {
	case strings.Contains(tag, "RECEIVED"):
		return domain.TxTypeReceived
	case strings.Contains(tag, "INTERACTED_WITH_APP"):
		return domain.TxTypeAppInteraction
	}
	switch tag {
	case "SENT_TOKEN":
		return domain.TxTypeSent
	case "CLOSED_ATA":
		return domain.TxTypeClosedAccount
	default:
		return domain.TxTypeUnknown
	}
}
