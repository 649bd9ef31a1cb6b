package contract_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"Starfish-Go/internal/account"
	"Starfish-Go/internal/artifact"
	"Starfish-Go/internal/contract"
	"Starfish-Go/internal/contract/contracttest"
	xerrors "Starfish-Go/internal/errors"
	"Starfish-Go/internal/web3/web3test"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	chain    *contracttest.Deployment
	store    *artifact.MemoryStore
	registry *contract.Registry
	observer *countingObserver
}

type countingObserver struct {
	calls        int
	transactions int
	failed       int
}

func (o *countingObserver) ObserveCall(string, string, error) { o.calls++ }

func (o *countingObserver) ObserveTransaction(_, _ string, success bool, err error, _ time.Duration) {
	o.transactions++
	if !success || err != nil {
		o.failed++
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	chain := contracttest.Deploy(1337)
	conn, err := chain.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, "local", conn.Name())

	observer := &countingObserver{}
	resolver := artifact.NewResolver(chain.Artifacts(), conn.Name())
	return &fixture{
		chain:    chain,
		store:    chain.Artifacts(),
		registry: contract.NewRegistry(conn, resolver, contract.WithObserver(observer)),
		observer: observer,
	}
}

func newAccount(t *testing.T) *account.Account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	acct, err := account.FromPrivateKey(key, "secret")
	require.NoError(t, err)
	return acct
}

func TestRegistryBindsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.registry.Token(ctx)
	require.NoError(t, err)
	second, err := f.registry.Token(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, f.chain.TokenAddress, first.Address())
	assert.Equal(t, 1, f.store.Lookups())

	generic, err := f.registry.Contract(ctx, contract.TokenContract)
	require.NoError(t, err)
	assert.Equal(t, first.Address(), generic.Address())
	assert.Equal(t, 1, f.store.Lookups(), "descriptor must come from the resolver cache")
}

func TestRegistryMissingArtifact(t *testing.T) {
	chain := contracttest.NewChain(1337)
	conn, err := chain.Connect(context.Background())
	require.NoError(t, err)
	registry := contract.NewRegistry(conn, artifact.NewResolver(chain.Artifacts(), conn.Name()))

	_, err = registry.Provenance(context.Background())
	require.Error(t, err)
	assert.True(t, xerrors.IsCode(err, xerrors.CodeArtifactNotFound))
}

func TestCallWithoutDeployedCode(t *testing.T) {
	ctx := context.Background()
	chain := web3test.New(nil)
	conn, err := chain.Connect(ctx)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	store := artifact.NewMemoryStore()
	store.Put(contract.TokenContract, conn.Name(), artifact.Record{
		Address: "0x000000000000000000000000000000000000dEaD",
		ABI:     json.RawMessage(contract.TokenABI),
	})
	registry := contract.NewRegistry(conn, artifact.NewResolver(store, conn.Name()))

	token, err := registry.Token(ctx)
	require.NoError(t, err)
	_, err = token.TotalSupply(ctx)
	require.Error(t, err)
	assert.True(t, xerrors.IsCode(err, xerrors.CodeArtifactNotFound))
}

func TestTokenReadsAndTransfers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := newAccount(t), newAccount(t)
	f.chain.MintTokens(alice.Address(), decimal.NewFromInt(50))

	token, err := f.registry.Token(ctx)
	require.NoError(t, err)

	decimals, err := token.Decimals(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), decimals)

	supply, err := token.TotalSupply(ctx)
	require.NoError(t, err)
	assert.True(t, supply.Equal(decimal.NewFromInt(50)))

	outcome, err := token.Transfer(ctx, alice, bob.Address(), decimal.RequireFromString("12.5"))
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.NotEmpty(t, outcome.Logs)

	balance, err := token.BalanceOf(ctx, bob.Address())
	require.NoError(t, err)
	assert.Equal(t, "12.5", balance.String())

	outcome, err = token.Approve(ctx, alice, bob.Address(), decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	allowance, err := token.Allowance(ctx, alice.Address(), bob.Address())
	require.NoError(t, err)
	assert.True(t, allowance.Equal(decimal.NewFromInt(3)))

	assert.Equal(t, 2, f.observer.transactions)
	assert.Zero(t, f.observer.failed)
}

func TestTokenScalesByDeclaredDecimals(t *testing.T) {
	ctx := context.Background()
	chain := contracttest.DeployWithDecimals(1337, 6)
	conn, err := chain.Connect(ctx)
	require.NoError(t, err)
	observer := &countingObserver{}
	registry := contract.NewRegistry(conn, artifact.NewResolver(chain.Artifacts(), conn.Name()),
		contract.WithObserver(observer))
	alice, bob := newAccount(t), newAccount(t)
	chain.MintTokens(alice.Address(), decimal.NewFromInt(50))

	token, err := registry.Token(ctx)
	require.NoError(t, err)
	balance, err := token.BalanceOf(ctx, alice.Address())
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 2, observer.calls)

	// decimals 只读取一次
	supply, err := token.TotalSupply(ctx)
	require.NoError(t, err)
	assert.True(t, supply.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 3, observer.calls)

	units, err := token.ToUnits(ctx, decimal.RequireFromString("1.5"))
	require.NoError(t, err)
	assert.Equal(t, int64(1_500_000), units.Int64())
	_, err = token.Transfer(ctx, alice, bob.Address(), decimal.RequireFromString("0.0000001"))
	require.Error(t, err)
	assert.Zero(t, chain.Submissions())

	purchase, err := registry.DirectPurchase(ctx)
	require.NoError(t, err)
	_, err = token.Approve(ctx, alice, purchase.Address(), decimal.NewFromInt(20))
	require.NoError(t, err)
	outcome, err := purchase.SendTokenAndLog(ctx, alice, bob.Address(), decimal.RequireFromString("12.5"), "order-6", "")
	require.NoError(t, err)
	require.True(t, outcome.Success)

	sent, err := purchase.TokenSentInLogs(outcome.Logs)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.True(t, sent[0].Amount.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, chain.TokenBalance(bob.Address()).Equal(decimal.RequireFromString("12.5")))
	assert.True(t, chain.TokenAllowance(alice.Address(), purchase.Address()).Equal(decimal.RequireFromString("7.5")))
}

func TestTokenTransferRevertIsNotAnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := newAccount(t), newAccount(t)

	token, err := f.registry.Token(ctx)
	require.NoError(t, err)
	outcome, err := token.Transfer(ctx, alice, bob.Address(), decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, 1, f.observer.failed)
}

func TestTokenTransferRejectedByNode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := newAccount(t), newAccount(t)
	f.chain.MintTokens(alice.Address(), decimal.NewFromInt(1))
	f.chain.RejectMethod("transfer", errors.New("txpool is full"))

	token, err := f.registry.Token(ctx)
	require.NoError(t, err)
	outcome, err := token.Transfer(ctx, alice, bob.Address(), decimal.NewFromInt(1))
	require.Error(t, err)
	assert.False(t, outcome.Success)
	assert.True(t, xerrors.IsCode(err, xerrors.CodeTransportFailure))
	assert.True(t, xerrors.RetryableError(err))
}

func TestEtherTransfer(t *testing.T) {
	ctx := context.Background()
	alice, bob := newAccount(t), newAccount(t)
	chain := web3test.New(types.GenesisAlloc{alice.Address(): web3test.Funded(2)})
	conn, err := chain.Connect(ctx)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	observer := &countingObserver{}
	registry := contract.NewRegistry(conn, artifact.NewResolver(artifact.NewMemoryStore(), conn.Name()),
		contract.WithObserver(observer))
	ether := registry.Ether()

	outcome, err := ether.Transfer(ctx, alice, bob.Address(), decimal.RequireFromString("0.75"))
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, 1, observer.transactions)
	assert.Zero(t, observer.failed)

	balance, err := ether.BalanceOf(ctx, bob.Address())
	require.NoError(t, err)
	assert.Equal(t, "0.75", balance.String())

	// 余额还需扣除 gas 费用
	balance, err = ether.BalanceOf(ctx, alice.Address())
	require.NoError(t, err)
	assert.True(t, balance.LessThan(decimal.RequireFromString("1.25")))
	assert.True(t, balance.GreaterThan(decimal.RequireFromString("1.2")))
}

func TestDispenserMints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := newAccount(t)

	dispenser, err := f.registry.Dispenser(ctx)
	require.NoError(t, err)
	outcome, err := dispenser.RequestTokens(ctx, alice, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.True(t, f.chain.TokenBalance(alice.Address()).Equal(decimal.NewFromInt(10)))
}

func TestDirectPurchaseEventsFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := newAccount(t), newAccount(t), newAccount(t)
	f.chain.MintTokens(alice.Address(), decimal.NewFromInt(100))

	token, err := f.registry.Token(ctx)
	require.NoError(t, err)
	purchase, err := f.registry.DirectPurchase(ctx)
	require.NoError(t, err)

	_, err = token.Approve(ctx, alice, purchase.Address(), decimal.NewFromInt(30))
	require.NoError(t, err)
	outcome, err := purchase.SendTokenAndLog(ctx, alice, bob.Address(), decimal.NewFromInt(10), "order-1", "invoice-1")
	require.NoError(t, err)
	require.True(t, outcome.Success)
	_, err = purchase.SendTokenAndLog(ctx, alice, carol.Address(), decimal.NewFromInt(5), "order-2", "")
	require.NoError(t, err)

	inReceipt, err := purchase.TokenSentInLogs(outcome.Logs)
	require.NoError(t, err)
	require.Len(t, inReceipt, 1)
	assert.Equal(t, "order-1", contract.DecodeReference(inReceipt[0].Reference1))

	all, err := purchase.TokenSentEvents(ctx, contract.TokenSentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bobAddr := bob.Address()
	toBob, err := purchase.TokenSentEvents(ctx, contract.TokenSentFilter{To: &bobAddr})
	require.NoError(t, err)
	require.Len(t, toBob, 1)
	assert.Equal(t, alice.Address(), toBob[0].From)
	assert.True(t, toBob[0].Amount.Equal(decimal.NewFromInt(10)))

	amount := decimal.NewFromInt(5)
	byAmount, err := purchase.TokenSentEvents(ctx, contract.TokenSentFilter{Amount: &amount})
	require.NoError(t, err)
	require.Len(t, byAmount, 1)
	assert.Equal(t, carol.Address(), byAmount[0].To)

	byRef, err := purchase.TokenSentEvents(ctx, contract.TokenSentFilter{Reference1: "order-1", Reference2: "invoice-1"})
	require.NoError(t, err)
	assert.Len(t, byRef, 1)

	mismatch, err := purchase.TokenSentEvents(ctx, contract.TokenSentFilter{To: &bobAddr, Reference1: "order-2"})
	require.NoError(t, err)
	assert.Empty(t, mismatch)

	assert.True(t, f.chain.TokenBalance(alice.Address()).Equal(decimal.NewFromInt(85)))
	assert.True(t, f.chain.TokenAllowance(alice.Address(), purchase.Address()).Equal(decimal.NewFromInt(15)))
}

func TestProvenanceEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := newAccount(t)

	provenance, err := f.registry.Provenance(ctx)
	require.NoError(t, err)

	asset := crypto.Keccak256Hash([]byte("asset-1"))
	other := crypto.Keccak256Hash([]byte("asset-2"))
	outcome, err := provenance.RegisterProvenance(ctx, alice, asset)
	require.NoError(t, err)
	require.True(t, outcome.Success)
	_, err = provenance.RegisterProvenance(ctx, alice, other)
	require.NoError(t, err)

	events, err := provenance.ProvenanceEvents(ctx, asset)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, [32]byte(asset), events[0].AssetID)
	assert.Equal(t, alice.Address(), events[0].Owner)
	assert.Equal(t, outcome.TxHash, events[0].TxHash)
	assert.False(t, events[0].Timestamp.IsZero())

	none, err := provenance.ProvenanceEvents(ctx, common.Hash{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDIDRegistryRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := newAccount(t)

	registry, err := f.registry.DIDRegistry(ctx)
	require.NoError(t, err)

	id := crypto.Keccak256Hash([]byte("agent"))
	text, err := registry.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, text)

	outcome, err := registry.Register(ctx, alice, id, `{"id":"did:dep:1"}`)
	require.NoError(t, err)
	require.True(t, outcome.Success)

	text, err = registry.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"did:dep:1"}`, text)
}

func TestFilterUnknownEvent(t *testing.T) {
	f := newFixture(t)
	generic, err := f.registry.Contract(context.Background(), contract.TokenContract)
	require.NoError(t, err)

	_, err = generic.FilterEvents(context.Background(), "Nope")
	require.Error(t, err)
	assert.True(t, xerrors.IsCode(err, xerrors.CodeInvalidArgument))
}
