// Package did parses decentralised identifiers of the form
// did:dep:<64 hex> and reduces them to the 32-byte key the on-chain registry
// stores documents under.
package did

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	xerrors "Starfish-Go/internal/errors"
)

// Prefix is the scheme and method every DID starts with.
const Prefix = "did:dep:"

var (
	didPattern     = regexp.MustCompile(`^did:dep:([0-9a-fA-F]{64})(/[^#]*)?(#.*)?$`)
	assetIDPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
)

// DID is a parsed identifier. ID is the lower-cased 64 hex characters; Path
// carries an asset reference such as "/0x..." and Fragment a service name.
type DID struct {
	ID       string
	Path     string
	Fragment string
}

// String renders the DID back to text.
func (d DID) String() string {
	return Prefix + d.ID + d.Path + d.Fragment
}

// Base returns the DID without path or fragment, the part the registry keys on.
func (d DID) Base() string {
	return Prefix + d.ID
}

// Parse validates s and splits it into its parts.
func Parse(s string) (DID, error) {
	m := didPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return DID{}, xerrors.New(xerrors.CodeInvalidDID, fmt.Sprintf("无效的 DID: %q", s))
	}
	return DID{ID: strings.ToLower(m[1]), Path: m[2], Fragment: m[3]}, nil
}

// IsDID reports whether s has DID syntax.
func IsDID(s string) bool {
	return didPattern.MatchString(strings.TrimSpace(s))
}

// ToID reduces a DID to its registry key. The mapping is pure and injective:
// the key is the 32 bytes the hex part encodes, so path and fragment do not
// affect it.
func ToID(s string) ([32]byte, error) {
	var id [32]byte
	parsed, err := Parse(s)
	if err != nil {
		return id, err
	}
	raw, err := hex.DecodeString(parsed.ID)
	if err != nil {
		return id, xerrors.Wrap(xerrors.CodeInvalidDID, err, "DID 十六进制解码失败")
	}
	copy(id[:], raw)
	return id, nil
}

// FromID renders a registry key back as a DID.
func FromID(id [32]byte) string {
	return Prefix + hex.EncodeToString(id[:])
}

// New generates a random DID.
func New() (string, error) {
	var id [32]byte
	if _, err := rand.Read(id[:]); err != nil {
		return "", fmt.Errorf("生成随机 DID 失败: %w", err)
	}
	return FromID(id), nil
}

// ParseAssetID parses a 0x-prefixed 32-byte asset identifier.
func ParseAssetID(s string) ([32]byte, error) {
	var id [32]byte
	s = strings.TrimSpace(s)
	if !assetIDPattern.MatchString(s) {
		return id, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("无效的资产 ID: %q", s))
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return id, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "资产 ID 解码失败")
	}
	copy(id[:], raw)
	return id, nil
}

// AssetDID joins an agent DID and an asset id into an asset DID.
func AssetDID(agentDID string, assetID [32]byte) (string, error) {
	parsed, err := Parse(agentDID)
	if err != nil {
		return "", err
	}
	return parsed.Base() + "/0x" + hex.EncodeToString(assetID[:]), nil
}
