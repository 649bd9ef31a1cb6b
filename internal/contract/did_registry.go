package contract

import (
	"context"
	"fmt"

	"Starfish-Go/internal/web3"
)

// DIDRegistry stores a text document per 32 byte identifier.
type DIDRegistry struct {
	*Contract
}

// NewDIDRegistry wraps c.
func NewDIDRegistry(c *Contract) *DIDRegistry {
	return &DIDRegistry{Contract: c}
}

// Register stores text under id.
func (r *DIDRegistry) Register(ctx context.Context, signer web3.Signer, id [32]byte, text string) (web3.Outcome, error) {
	return r.Transact(ctx, signer, "register", id, text)
}

// Get returns the text stored under id, empty when nothing is registered.
func (r *DIDRegistry) Get(ctx context.Context, id [32]byte) (string, error) {
	values, err := r.Call(ctx, "get", id)
	if err != nil {
		return "", err
	}
	if len(values) != 1 {
		return "", fmt.Errorf("get 返回值数量异常: %d", len(values))
	}
	text, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("get 返回值类型异常: %T", values[0])
	}
	return text, nil
}
