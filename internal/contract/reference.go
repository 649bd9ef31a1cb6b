package contract

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// EncodeReference maps a free-form payment reference to the bytes32 stored
// on chain. A 0x-prefixed 64 digit hex string is taken verbatim, anything up
// to 32 bytes is right padded with zeros and longer text is keccak256 hashed.
// The empty reference encodes to the zero word.
func EncodeReference(ref string) [32]byte {
	var out [32]byte
	if ref == "" {
		return out
	}
	if len(ref) == 66 && strings.HasPrefix(ref, "0x") {
		if raw, err := hexutil.Decode(ref); err == nil {
			copy(out[:], raw)
			return out
		}
	}
	if len(ref) <= 32 {
		copy(out[:], ref)
		return out
	}
	return crypto.Keccak256Hash([]byte(ref))
}

// ReferenceMatches reports whether a stored word is the encoding of ref.
func ReferenceMatches(stored [32]byte, ref string) bool {
	return stored == EncodeReference(ref)
}

// DecodeReference renders a stored word for display: padded printable text is
// returned as text, anything else as 0x hex.
func DecodeReference(word [32]byte) string {
	trimmed := strings.TrimRight(string(word[:]), "\x00")
	if trimmed == "" {
		return ""
	}
	for _, r := range trimmed {
		if r < 0x20 || r > 0x7e {
			return common.Hash(word).Hex()
		}
	}
	return trimmed
}
