package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/bytedance/sonic"
)

// HashJSON returns the hex SHA-256 of v's JSON encoding. sonic's standard
// config sorts map keys, so equal values hash equally regardless of
// insertion order.
func HashJSON(v any) (string, error) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash: encode: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Fingerprint identifies a property set so a render can tell whether the
// properties it started with are still current.
type Fingerprint string

const defaultFingerprintLen = 16

// Fingerprinter derives fingerprints from resolved widget properties
type Fingerprinter struct {
	length int
}

// NewFingerprinter keeps the first length hex digits of each hash; zero
// or out of range means 16.
func NewFingerprinter(length int) *Fingerprinter {
	if length <= 0 || length > sha256.Size*2 {
		length = defaultFingerprintLen
	}
	return &Fingerprinter{length: length}
}

// Of fingerprints a widget type together with its properties. Unencodable
// properties get a unique fallback so they never collide with a real set.
func (f *Fingerprinter) Of(definitionID string, properties map[string]any) Fingerprint {
	sum, err := HashJSON(struct {
		Widget     string         `json:"widget"`
		Properties map[string]any `json:"properties"`
	}{definitionID, properties})
	if err != nil {
		return Fingerprint(fmt.Sprintf("unhashable:%p", properties))
	}
	return Fingerprint(sum[:f.length])
}
