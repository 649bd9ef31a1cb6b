// Package contracttest provides an in-memory chain that executes the
// contracts the client drives, for use in tests.
package contracttest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"Starfish-Go/internal/artifact"
	"Starfish-Go/internal/web3"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrReverted is returned by a Simulation to make the transaction fail.
var ErrReverted = errors.New("execution reverted")

// Simulation executes the methods of one deployed contract.
type Simulation interface {
	Invoke(env *Env, method string, args []any) ([]any, error)
}

type deployment struct {
	name string
	abi  abi.ABI
	sim  Simulation
}

// Chain is a single-node ledger satisfying web3.Backend. Transactions are
// mined as soon as they are sent and gas is free.
type Chain struct {
	mu sync.Mutex

	chainID   *big.Int
	network   string
	signer    types.Signer
	balances  map[common.Address]*big.Int
	nonces    map[common.Address]uint64
	contracts map[common.Address]*deployment
	receipts  map[common.Hash]*types.Receipt
	logs      []types.Log
	block     uint64
	nextAddr  int64
	now       time.Time

	submissions int
	rejects     map[string]error
	reverts     map[string]bool

	store *artifact.MemoryStore
}

// NewChain returns an empty chain reporting chainID.
func NewChain(chainID int64) *Chain {
	id := big.NewInt(chainID)
	return &Chain{
		chainID:   id,
		network:   web3.NetworkName(id),
		signer:    types.LatestSignerForChainID(id),
		balances:  make(map[common.Address]*big.Int),
		nonces:    make(map[common.Address]uint64),
		contracts: make(map[common.Address]*deployment),
		receipts:  make(map[common.Hash]*types.Receipt),
		nextAddr:  0x1000,
		now:       time.Unix(1_700_000_000, 0),
		rejects:   make(map[string]error),
		reverts:   make(map[string]bool),
		store:     artifact.NewMemoryStore(),
	}
}

// Network returns the network name of the chain id.
func (c *Chain) Network() string {
	return c.network
}

// Artifacts returns a store holding an artifact for every deployed contract.
func (c *Chain) Artifacts() *artifact.MemoryStore {
	return c.store
}

// Connect opens a connection with fast receipt polling.
func (c *Chain) Connect(ctx context.Context) (*web3.Connection, error) {
	return web3.Connect(ctx, c, web3.WithEndpoint("memory://"+c.network), web3.WithReceiptPolling(time.Millisecond))
}

// Deploy places sim at a fresh address and records its artifact.
func (c *Chain) Deploy(name, abiJSON string, sim Simulation) common.Address {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(fmt.Sprintf("contracttest: invalid ABI for %s: %v", name, err))
	}
	c.mu.Lock()
	c.nextAddr++
	addr := common.BigToAddress(big.NewInt(c.nextAddr))
	c.contracts[addr] = &deployment{name: name, abi: parsed, sim: sim}
	c.mu.Unlock()

	c.store.Put(name, c.network, artifact.Record{Address: addr.Hex(), ABI: json.RawMessage(abiJSON)})
	return addr
}

// SetBalance sets the native balance of addr in wei.
func (c *Chain) SetBalance(addr common.Address, wei *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[addr] = new(big.Int).Set(wei)
}

// RejectMethod makes the node refuse any transaction calling method.
func (c *Chain) RejectMethod(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejects[method] = err
}

// RevertMethod makes every transaction calling method mine as failed.
func (c *Chain) RevertMethod(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reverts[method] = true
}

// Submissions counts SendTransaction calls, rejected ones included.
func (c *Chain) Submissions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submissions
}

// ChainID implements web3.Backend.
func (c *Chain) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

// BalanceAt implements web3.Backend.
func (c *Chain) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.balance(account)), nil
}

func (c *Chain) balance(addr common.Address) *big.Int {
	if b, ok := c.balances[addr]; ok {
		return b
	}
	return new(big.Int)
}

// CodeAt implements web3.Backend. Deployed simulations report placeholder code.
func (c *Chain) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.contracts[account]; !ok {
		return nil, nil
	}
	return []byte{0x00}, nil
}

// CallContract implements web3.Backend. Calls never change state.
func (c *Chain) CallContract(_ context.Context, call gethcore.CallMsg, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if call.To == nil {
		return nil, errors.New("contracttest: call without target")
	}
	dep, ok := c.contracts[*call.To]
	if !ok {
		return nil, nil
	}
	method, args, err := decodeCall(dep.abi, call.Data)
	if err != nil {
		return nil, err
	}
	env := c.newEnv(*call.To, call.From, false)
	ret, err := dep.sim.Invoke(env, method.Name, args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(ret...)
}

// PendingNonceAt implements web3.Backend.
func (c *Chain) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonces[account], nil
}

// SuggestGasPrice implements web3.Backend.
func (c *Chain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

// EstimateGas implements web3.Backend.
func (c *Chain) EstimateGas(_ context.Context, call gethcore.CallMsg) (uint64, error) {
	if len(call.Data) == 0 {
		return 21_000, nil
	}
	return 200_000, nil
}

// SendTransaction implements web3.Backend. The transaction is mined at once.
func (c *Chain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submissions++

	from, err := types.Sender(c.signer, tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if want := c.nonces[from]; tx.Nonce() != want {
		return fmt.Errorf("invalid nonce: have %d, want %d", tx.Nonce(), want)
	}

	var (
		dep    *deployment
		method *abi.Method
		args   []any
	)
	if tx.To() != nil {
		dep = c.contracts[*tx.To()]
	}
	if dep != nil {
		method, args, err = decodeCall(dep.abi, tx.Data())
		if err != nil {
			return err
		}
		if rejectErr, ok := c.rejects[method.Name]; ok {
			return rejectErr
		}
	}

	c.nonces[from]++
	c.block++
	c.now = c.now.Add(15 * time.Second)
	receipt := &types.Receipt{
		Type:        tx.Type(),
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		GasUsed:     tx.Gas(),
		BlockNumber: new(big.Int).SetUint64(c.block),
	}
	c.receipts[tx.Hash()] = receipt

	if c.balance(from).Cmp(tx.Value()) < 0 {
		receipt.Status = types.ReceiptStatusFailed
		return nil
	}

	var logs []*types.Log
	if dep != nil {
		if c.reverts[method.Name] {
			receipt.Status = types.ReceiptStatusFailed
			return nil
		}
		env := c.newEnv(*tx.To(), from, true)
		if _, err := dep.sim.Invoke(env, method.Name, args); err != nil {
			receipt.Status = types.ReceiptStatusFailed
			return nil
		}
		logs = *env.logs
	}

	if tx.Value().Sign() > 0 && tx.To() != nil {
		c.balances[from] = new(big.Int).Sub(c.balance(from), tx.Value())
		c.balances[*tx.To()] = new(big.Int).Add(c.balance(*tx.To()), tx.Value())
	}

	for i, log := range logs {
		log.TxHash = tx.Hash()
		log.BlockNumber = c.block
		log.Index = uint(len(c.logs) + i)
		receipt.Logs = append(receipt.Logs, log)
	}
	for _, log := range logs {
		c.logs = append(c.logs, *log)
	}
	return nil
}

// TransactionReceipt implements web3.Backend.
func (c *Chain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	receipt, ok := c.receipts[hash]
	if !ok {
		return nil, gethcore.NotFound
	}
	return receipt, nil
}

// FilterLogs implements web3.Backend, honouring addresses and topics.
func (c *Chain) FilterLogs(_ context.Context, q gethcore.FilterQuery) ([]types.Log, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []types.Log
	for _, log := range c.logs {
		if matchesQuery(log, q) {
			out = append(out, log)
		}
	}
	return out, nil
}

func matchesQuery(log types.Log, q gethcore.FilterQuery) bool {
	if len(q.Addresses) > 0 {
		found := false
		for _, addr := range q.Addresses {
			if addr == log.Address {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(q.Topics) > len(log.Topics) {
		return false
	}
	for i, alternatives := range q.Topics {
		if len(alternatives) == 0 {
			continue
		}
		found := false
		for _, topic := range alternatives {
			if topic == log.Topics[i] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func decodeCall(contract abi.ABI, data []byte) (*abi.Method, []any, error) {
	if len(data) < 4 {
		return nil, nil, errors.New("contracttest: calldata too short")
	}
	method, err := contract.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	return method, args, nil
}

func (c *Chain) newEnv(self, from common.Address, write bool) *Env {
	return &Env{
		chain: c,
		self:  self,
		abi:   c.contracts[self].abi,
		From:  from,
		Write: write,
		logs:  new([]*types.Log),
	}
}

// Env is the execution context of one contract invocation.
type Env struct {
	chain *Chain
	self  common.Address
	abi   abi.ABI
	logs  *[]*types.Log

	// From is the immediate caller.
	From common.Address
	// Write is false for read-only calls; state must not change then.
	Write bool
}

// Self returns the address of the executing contract.
func (e *Env) Self() common.Address {
	return e.self
}

// Now returns the block time.
func (e *Env) Now() time.Time {
	return e.chain.now
}

// At returns the context for a nested call from this contract to target.
func (e *Env) At(target common.Address) *Env {
	return &Env{
		chain: e.chain,
		self:  target,
		abi:   e.chain.contracts[target].abi,
		From:  e.self,
		Write: e.Write,
		logs:  e.logs,
	}
}

// Emit records event with args given in declaration order.
func (e *Env) Emit(event string, args ...any) error {
	if !e.Write {
		return nil
	}
	ev, ok := e.abi.Events[event]
	if !ok {
		return fmt.Errorf("contracttest: unknown event %s", event)
	}
	if len(args) != len(ev.Inputs) {
		return fmt.Errorf("contracttest: %s expects %d arguments, got %d", event, len(ev.Inputs), len(args))
	}
	topics := []common.Hash{ev.ID}
	var data []any
	for i, input := range ev.Inputs {
		if !input.Indexed {
			data = append(data, args[i])
			continue
		}
		hashes, err := abi.MakeTopics([]any{args[i]})
		if err != nil {
			return err
		}
		topics = append(topics, hashes[0][0])
	}
	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return err
	}
	*e.logs = append(*e.logs, &types.Log{Address: e.self, Topics: topics, Data: packed})
	return nil
}
