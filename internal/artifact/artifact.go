// Package artifact resolves compiled-contract descriptors (ABI plus deployed
// address) for a network and caches them for the life of the resolver.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	xerrors "Starfish-Go/internal/errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Record is the raw form an artifact takes in a store.
type Record struct {
	Name    string          `json:"name,omitempty"`
	Network string          `json:"network,omitempty"`
	Address string          `json:"address"`
	ABI     json.RawMessage `json:"abi"`
}

// Key returns the conventional "<name>.<network>" lookup key.
func Key(name, network string) string {
	return name + "." + network
}

// Store looks up artifacts by contract name and network name. A missing
// artifact is reported with an ARTIFACT_NOT_FOUND error.
type Store interface {
	Lookup(ctx context.Context, name, network string) (Record, error)
}

// BulkStore can return every artifact deployed on a network at once.
type BulkStore interface {
	Store
	LookupAll(ctx context.Context, network string) ([]Record, error)
}

// Descriptor is a parsed, immutable artifact.
type Descriptor struct {
	Name    string
	Network string
	Address common.Address
	ABI     abi.ABI
	RawABI  json.RawMessage
}

// Parse validates a record and turns it into a Descriptor.
func Parse(name, network string, rec Record) (Descriptor, error) {
	if !common.IsHexAddress(strings.TrimSpace(rec.Address)) {
		return Descriptor{}, xerrors.New(xerrors.CodeInvalidArgument,
			fmt.Sprintf("构件 %s 的合约地址无效: %q", Key(name, network), rec.Address))
	}
	if len(bytes.TrimSpace(rec.ABI)) == 0 {
		return Descriptor{}, xerrors.New(xerrors.CodeInvalidArgument,
			fmt.Sprintf("构件 %s 缺少 ABI", Key(name, network)))
	}
	parsed, err := abi.JSON(bytes.NewReader(rec.ABI))
	if err != nil {
		return Descriptor{}, xerrors.Wrap(xerrors.CodeInvalidArgument, err,
			fmt.Sprintf("解析构件 %s 的 ABI 失败", Key(name, network)))
	}
	return Descriptor{
		Name:    name,
		Network: network,
		Address: common.HexToAddress(rec.Address),
		ABI:     parsed,
		RawABI:  append(json.RawMessage(nil), rec.ABI...),
	}, nil
}

func notFound(name, network string) error {
	return xerrors.New(xerrors.CodeArtifactNotFound,
		fmt.Sprintf("未找到网络 %s 上的合约构件 %s", network, name),
		xerrors.WithMetadata("artifact", Key(name, network)))
}

// IsNotFound reports whether err means the artifact does not exist.
func IsNotFound(err error) bool {
	return xerrors.IsCode(err, xerrors.CodeArtifactNotFound)
}
