package flipwatch

import (
	"encoding/json"
	"fmt"

	"github.com/zeebo/xxh3"

	"dtl/internal/document"
)

// Fingerprint hashes a document's canonical JSON encoding. encoding/json
// marshals object keys sorted, so two documents holding the same values
// fingerprint identically regardless of map iteration order.
func Fingerprint(doc document.Document) (uint64, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("fingerprint: %w", err)
	}
	return xxh3.Hash(b), nil
}
