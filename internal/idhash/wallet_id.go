package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"swap-telemetry-lab/internal/domain"
)

// ComputeWalletID computes a deterministic wallet id using SHA256 over the
// canonical JSON encoding of the wallet's data payload. The timestamp is
// excluded on purpose: identical balances observed at different times must
// produce the same id, which is what makes the id usable as a dedup key.
// Returns hex-encoded hash (64 characters).
func ComputeWalletID(data domain.WalletData) (string, error) {
	// encoding/json sorts map keys, so the encoding is canonical.
	encoded, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode wallet data: %w", err)
	}

	hash := sha256.Sum256(encoded)
	return hex.EncodeToString(hash[:]), nil
}
