package util

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Md5ThenHex is a quick hasher for decoded sample buffers
func Md5ThenHex(value []byte) string {
	sum := md5.Sum(value)
	return hex.EncodeToString(sum[:])
}

// ContentID derives a stable name-based UUID from the json form of value, so
// equal frame descriptions and digests always map to the same id.
func ContentID(value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("content id: %w", err)
	}
	return uuid.NewMD5(uuid.NameSpaceOID, raw).String(), nil
}

// RunID identifies a single invocation in log output.
func RunID() string {
	return uuid.NewString()
}
