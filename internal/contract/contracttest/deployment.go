package contracttest

import (
	"math/big"

	"Starfish-Go/internal/contract"
	"Starfish-Go/internal/web3"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Deployment is a chain with every contract the client uses.
type Deployment struct {
	*Chain

	token *Token

	TokenAddress          common.Address
	DispenserAddress      common.Address
	DirectPurchaseAddress common.Address
	ProvenanceAddress     common.Address
	DIDRegistryAddress    common.Address
}

// Deploy builds a chain for chainID with the full contract set and an
// 18-decimal token.
func Deploy(chainID int64) *Deployment {
	return DeployWithDecimals(chainID, web3.TokenDecimals)
}

// DeployWithDecimals is Deploy with a token declaring decimals.
func DeployWithDecimals(chainID int64, decimals uint8) *Deployment {
	chain := NewChain(chainID)
	token := NewToken(decimals)
	d := &Deployment{Chain: chain, token: token}
	d.TokenAddress = chain.Deploy(contract.TokenContract, contract.TokenABI, token)
	d.DispenserAddress = chain.Deploy(contract.DispenserContract, contract.DispenserABI,
		&Dispenser{token: token, tokenAddr: d.TokenAddress, limit: d.units(decimal.NewFromInt(1000))})
	d.DirectPurchaseAddress = chain.Deploy(contract.DirectPurchaseContract, contract.DirectPurchaseABI,
		&DirectPurchase{token: token, tokenAddr: d.TokenAddress})
	d.ProvenanceAddress = chain.Deploy(contract.ProvenanceContract, contract.ProvenanceABI, Provenance{})
	d.DIDRegistryAddress = chain.Deploy(contract.DIDRegistryContract, contract.DIDRegistryABI, NewDIDRegistry())
	return d
}

// MintTokens credits amount tokens to addr outside any transaction.
func (d *Deployment) MintTokens(addr common.Address, amount decimal.Decimal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	units := d.units(amount)
	d.token.balances[addr] = new(big.Int).Add(d.token.balance(addr), units)
	d.token.supply = new(big.Int).Add(d.token.supply, units)
}

// SetEther sets the native balance of addr in ether.
func (d *Deployment) SetEther(addr common.Address, amount decimal.Decimal) {
	d.SetBalance(addr, mustWei(amount))
}

// TokenBalance reads the token balance of addr directly from state.
func (d *Deployment) TokenBalance(addr common.Address) decimal.Decimal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return web3.FromUnits(d.token.balance(addr), int32(d.token.decimals))
}

// TokenAllowance reads an allowance directly from state.
func (d *Deployment) TokenAllowance(owner, spender common.Address) decimal.Decimal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return web3.FromUnits(d.token.allowance(owner, spender), int32(d.token.decimals))
}

func (d *Deployment) units(amount decimal.Decimal) *big.Int {
	units, err := web3.ToUnits(amount, int32(d.token.decimals))
	if err != nil {
		panic(err)
	}
	return units
}

func mustWei(amount decimal.Decimal) *big.Int {
	wei, err := web3.ToWei(amount)
	if err != nil {
		panic(err)
	}
	return wei
}
