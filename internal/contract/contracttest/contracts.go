package contracttest

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token simulates a fungible token.
type Token struct {
	decimals   uint8
	balances   map[common.Address]*big.Int
	allowances map[[2]common.Address]*big.Int
	supply     *big.Int
}

// NewToken returns a token with no supply and the given decimals.
func NewToken(decimals uint8) *Token {
	return &Token{
		decimals:   decimals,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[[2]common.Address]*big.Int),
		supply:     new(big.Int),
	}
}

func (t *Token) balance(addr common.Address) *big.Int {
	if b, ok := t.balances[addr]; ok {
		return b
	}
	return new(big.Int)
}

func (t *Token) allowance(owner, spender common.Address) *big.Int {
	if a, ok := t.allowances[[2]common.Address{owner, spender}]; ok {
		return a
	}
	return new(big.Int)
}

func (t *Token) mint(env *Env, to common.Address, amount *big.Int) error {
	if !env.Write {
		return nil
	}
	t.balances[to] = new(big.Int).Add(t.balance(to), amount)
	t.supply = new(big.Int).Add(t.supply, amount)
	return env.Emit("Transfer", common.Address{}, to, amount)
}

func (t *Token) move(env *Env, from, to common.Address, amount *big.Int) error {
	if t.balance(from).Cmp(amount) < 0 {
		return ErrReverted
	}
	if !env.Write {
		return nil
	}
	t.balances[from] = new(big.Int).Sub(t.balance(from), amount)
	t.balances[to] = new(big.Int).Add(t.balance(to), amount)
	return env.Emit("Transfer", from, to, amount)
}

// Invoke implements Simulation.
func (t *Token) Invoke(env *Env, method string, args []any) ([]any, error) {
	switch method {
	case "balanceOf":
		return []any{new(big.Int).Set(t.balance(args[0].(common.Address)))}, nil
	case "totalSupply":
		return []any{new(big.Int).Set(t.supply)}, nil
	case "decimals":
		return []any{t.decimals}, nil
	case "allowance":
		return []any{new(big.Int).Set(t.allowance(args[0].(common.Address), args[1].(common.Address)))}, nil
	case "approve":
		spender, value := args[0].(common.Address), args[1].(*big.Int)
		if env.Write {
			t.allowances[[2]common.Address{env.From, spender}] = new(big.Int).Set(value)
		}
		return []any{true}, env.Emit("Approval", env.From, spender, value)
	case "transfer":
		return []any{true}, t.move(env, env.From, args[0].(common.Address), args[1].(*big.Int))
	case "transferFrom":
		from, to, value := args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int)
		allowed := t.allowance(from, env.From)
		if allowed.Cmp(value) < 0 || t.balance(from).Cmp(value) < 0 {
			return nil, ErrReverted
		}
		if env.Write {
			t.allowances[[2]common.Address{from, env.From}] = new(big.Int).Sub(allowed, value)
		}
		return []any{true}, t.move(env, from, to, value)
	}
	return nil, fmt.Errorf("contracttest: token has no method %s", method)
}

// Dispenser mints tokens to whoever asks, up to a per-request limit.
type Dispenser struct {
	token     *Token
	tokenAddr common.Address
	limit     *big.Int
}

// Invoke implements Simulation.
func (d *Dispenser) Invoke(env *Env, method string, args []any) ([]any, error) {
	if method != "requestTokens" {
		return nil, fmt.Errorf("contracttest: dispenser has no method %s", method)
	}
	amount := args[0].(*big.Int)
	if d.limit != nil && amount.Cmp(d.limit) > 0 {
		return []any{false}, env.Emit("RequestLimitExceeded", env.From, amount, d.limit)
	}
	return []any{true}, d.token.mint(env.At(d.tokenAddr), env.From, amount)
}

// DirectPurchase spends the payer's allowance and logs the references.
type DirectPurchase struct {
	token     *Token
	tokenAddr common.Address
}

// Invoke implements Simulation.
func (p *DirectPurchase) Invoke(env *Env, method string, args []any) ([]any, error) {
	if method != "sendTokenAndLog" {
		return nil, fmt.Errorf("contracttest: direct purchase has no method %s", method)
	}
	to, amount := args[0].(common.Address), args[1].(*big.Int)
	ref1, ref2 := args[2].([32]byte), args[3].([32]byte)
	if _, err := p.token.Invoke(env.At(p.tokenAddr), "transferFrom", []any{env.From, to, amount}); err != nil {
		return nil, err
	}
	return nil, env.Emit("TokenSent", env.From, to, amount, ref1, ref2)
}

// Provenance emits one event per registration.
type Provenance struct{}

// Invoke implements Simulation.
func (Provenance) Invoke(env *Env, method string, args []any) ([]any, error) {
	if method != "registerProvenance" {
		return nil, fmt.Errorf("contracttest: provenance has no method %s", method)
	}
	id := args[0].([32]byte)
	return []any{true}, env.Emit("NewProvenance", id, env.From, big.NewInt(env.Now().Unix()))
}

// DIDRegistry keeps the latest document per identifier.
type DIDRegistry struct {
	docs map[[32]byte]string
}

// NewDIDRegistry returns an empty registry.
func NewDIDRegistry() *DIDRegistry {
	return &DIDRegistry{docs: make(map[[32]byte]string)}
}

// Invoke implements Simulation.
func (r *DIDRegistry) Invoke(env *Env, method string, args []any) ([]any, error) {
	switch method {
	case "get":
		return []any{r.docs[args[0].([32]byte)]}, nil
	case "register":
		id, value := args[0].([32]byte), args[1].(string)
		if env.Write {
			r.docs[id] = value
		}
		return nil, env.Emit("DIDRegistered", id, env.From, value)
	}
	return nil, fmt.Errorf("contracttest: did registry has no method %s", method)
}
