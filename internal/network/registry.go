package network

import (
	"context"

	"Starfish-Go/internal/contract"
	"Starfish-Go/internal/did"
	"Starfish-Go/internal/web3"

	"github.com/ethereum/go-ethereum/common"
)

// TokenSentFilter 与 TokenSentEvent 直接沿用合约层类型。
type (
	TokenSentFilter = contract.TokenSentFilter
	TokenSentEvent  = contract.TokenSentEvent
	ProvenanceEvent = contract.ProvenanceEvent
)

// RegisterProvenance 登记资产归属，返回交易是否成功。
func (n *Network) RegisterProvenance(ctx context.Context, signer web3.Signer, assetID [32]byte) (bool, error) {
	provenance, err := n.Provenance(ctx)
	if err != nil {
		return false, err
	}
	outcome, err := provenance.RegisterProvenance(ctx, signer, assetID)
	n.record(ctx, WorkflowRegisterProvenance, "register", signer.Address(), nil, zeroAmount, outcome, err)
	n.finish(ctx, WorkflowRegisterProvenance, outcome.Success, err)
	return outcome.Success, err
}

// GetProvenanceEventLogs 查询资产的全部登记事件。
func (n *Network) GetProvenanceEventLogs(ctx context.Context, assetID [32]byte) ([]ProvenanceEvent, error) {
	provenance, err := n.Provenance(ctx)
	if err != nil {
		return nil, err
	}
	return provenance.ProvenanceEvents(ctx, assetID)
}

// RegisterDID 将 DDO 文本写入注册表，键为 DID 派生的 32 字节 ID。
func (n *Network) RegisterDID(ctx context.Context, signer web3.Signer, id string, ddoText string) (bool, error) {
	key, err := did.ToID(id)
	if err != nil {
		return false, err
	}
	registry, err := n.DIDRegistry(ctx)
	if err != nil {
		return false, err
	}
	outcome, err := registry.Register(ctx, signer, key, ddoText)
	n.record(ctx, WorkflowRegisterDID, "register", signer.Address(), nil, zeroAmount, outcome, err)
	n.finish(ctx, WorkflowRegisterDID, outcome.Success, err)
	return outcome.Success, err
}

// ResolveDID 读取 DID 对应的文本；未登记时返回 nil。
func (n *Network) ResolveDID(ctx context.Context, id string) (*string, error) {
	key, err := did.ToID(id)
	if err != nil {
		return nil, err
	}
	registry, err := n.DIDRegistry(ctx)
	if err != nil {
		return nil, err
	}
	text, err := registry.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	return &text, nil
}

// TokenSpender 返回带日志转账使用的授权对象地址。
func (n *Network) TokenSpender(ctx context.Context) (common.Address, error) {
	purchase, err := n.DirectPurchase(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return purchase.Address(), nil
}
