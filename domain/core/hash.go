package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex digits, for log lines.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// ObservationHash identifies the normalized content of an observation.
// Two observations with the same summary fields and samples hash equally
// regardless of the units they were reported in.
type ObservationHash Hash

func (h ObservationHash) String() string { return Hash(h).String() }

// ComputeObservationHash hashes summary fields in key order followed by the
// samples in their given order. Floats are written in shortest round-trip form.
func ComputeObservationHash(summary map[string]float64, samples []float64) ObservationHash {
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteByte('=')
		data.WriteString(strconv.FormatFloat(summary[key], 'g', -1, 64))
		data.WriteByte(';')
	}
	data.WriteString("samples=")
	for i, x := range samples {
		if i > 0 {
			data.WriteByte(',')
		}
		data.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	}
	return ObservationHash(NewHash([]byte(data.String())))
}
