package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	types "github.com/Apurer/go-order-api-server/internal/domains/ordering/application/types"
)

type normalizedPlaceOrderInput struct {
	Lines []normalizedLine `json:"lines"`
}

type normalizedLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// FingerprintPlaceOrder builds a deterministic hash of the placement payload
// (excluding the idempotency key). Line order is preserved: the same products
// in a different request order are a different request.
func FingerprintPlaceOrder(input types.PlaceOrderInput) (string, error) {
	normalized := normalizedPlaceOrderInput{Lines: make([]normalizedLine, 0, len(input.Lines))}
	for _, line := range input.Lines {
		normalized.Lines = append(normalized.Lines, normalizedLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
