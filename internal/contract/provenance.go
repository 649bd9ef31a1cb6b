package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"Starfish-Go/internal/web3"

	"github.com/ethereum/go-ethereum/common"
)

const newProvenanceEvent = "NewProvenance"

// Provenance records asset ownership claims as events.
type Provenance struct {
	*Contract
}

// NewProvenance wraps c.
func NewProvenance(c *Contract) *Provenance {
	return &Provenance{Contract: c}
}

// RegisterProvenance records the signer as owner of assetID.
func (p *Provenance) RegisterProvenance(ctx context.Context, signer web3.Signer, assetID [32]byte) (web3.Outcome, error) {
	return p.Transact(ctx, signer, "registerProvenance", assetID)
}

// ProvenanceEvent is a decoded NewProvenance entry.
type ProvenanceEvent struct {
	AssetID     [32]byte
	Owner       common.Address
	Timestamp   time.Time
	TxHash      common.Hash
	BlockNumber uint64
}

// ProvenanceEvents returns every registration of assetID.
func (p *Provenance) ProvenanceEvents(ctx context.Context, assetID [32]byte) ([]ProvenanceEvent, error) {
	events, err := p.FilterEvents(ctx, newProvenanceEvent, []any{assetID})
	if err != nil {
		return nil, err
	}
	out := make([]ProvenanceEvent, 0, len(events))
	for _, ev := range events {
		id, ok1 := ev.Fields["_assetId"].([32]byte)
		owner, ok2 := ev.Fields["_owner"].(common.Address)
		ts, ok3 := ev.Fields["_timestamp"].(*big.Int)
		if !ok1 || !ok2 || !ok3 {
			return nil, fmt.Errorf("NewProvenance 事件字段不完整: %v", ev.Fields)
		}
		if id != assetID {
			continue
		}
		out = append(out, ProvenanceEvent{
			AssetID:     id,
			Owner:       owner,
			Timestamp:   time.Unix(ts.Int64(), 0).UTC(),
			TxHash:      ev.Log.TxHash,
			BlockNumber: ev.Log.BlockNumber,
		})
	}
	return out, nil
}
