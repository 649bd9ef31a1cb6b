// Package contract translates domain operations into calls and transactions
// against deployed contracts and normalises the results.
package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Starfish-Go/internal/artifact"
	xerrors "Starfish-Go/internal/errors"
	"Starfish-Go/internal/web3"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Observer receives one notification per contract interaction.
type Observer interface {
	ObserveCall(contract, method string, err error)
	ObserveTransaction(contract, method string, success bool, err error, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveCall(string, string, error) {}

func (nopObserver) ObserveTransaction(string, string, bool, error, time.Duration) {}

// Contract is a loaded artifact bound to the process connection. Reads and
// log decoding go through a bind.BoundContract; transactions go through
// web3.Connection.Submit so that signing, receipt polling and error codes
// stay in one place.
type Contract struct {
	desc     artifact.Descriptor
	conn     *web3.Connection
	bound    *bind.BoundContract
	observer Observer
}

// New binds desc to conn.
func New(conn *web3.Connection, desc artifact.Descriptor, observer Observer) *Contract {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Contract{
		desc:     desc,
		conn:     conn,
		bound:    bind.NewBoundContract(desc.Address, desc.ABI, conn.Backend(), nil, nil),
		observer: observer,
	}
}

// Name returns the artifact name.
func (c *Contract) Name() string {
	return c.desc.Name
}

// Address returns the deployed address.
func (c *Contract) Address() common.Address {
	return c.desc.Address
}

// ABI returns the parsed interface.
func (c *Contract) ABI() abi.ABI {
	return c.desc.ABI
}

// Call runs a read-only method and returns its decoded outputs.
func (c *Contract) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	values, err := c.call(ctx, method, args...)
	c.observer.ObserveCall(c.desc.Name, method, err)
	return values, err
}

func (c *Contract) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := c.desc.ABI.Pack(method, args...)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, fmt.Sprintf("编码 %s.%s 调用失败", c.desc.Name, method))
	}
	out, err := c.bound.CallRaw(&bind.CallOpts{Context: ctx}, data)
	if errors.Is(err, bind.ErrNoCode) {
		return nil, xerrors.Wrap(xerrors.CodeArtifactNotFound, err,
			fmt.Sprintf("合约 %s 的地址上没有代码", c.desc.Name),
			xerrors.WithMetadata("address", c.desc.Address.Hex()),
			xerrors.WithMetadata("network", c.conn.Name()))
	}
	if err != nil {
		return nil, c.conn.TransportError(err, fmt.Sprintf("调用 %s.%s 失败", c.desc.Name, method))
	}
	values, err := c.desc.ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("解码 %s.%s 返回值失败: %w", c.desc.Name, method, err)
	}
	return values, nil
}

// Transact submits a state-changing method signed by signer.
func (c *Contract) Transact(ctx context.Context, signer web3.Signer, method string, args ...any) (web3.Outcome, error) {
	started := time.Now()
	outcome, err := c.transact(ctx, signer, method, args...)
	c.observer.ObserveTransaction(c.desc.Name, method, outcome.Success, err, time.Since(started))
	return outcome, err
}

func (c *Contract) transact(ctx context.Context, signer web3.Signer, method string, args ...any) (web3.Outcome, error) {
	data, err := c.desc.ABI.Pack(method, args...)
	if err != nil {
		return web3.Outcome{}, xerrors.Wrap(xerrors.CodeInvalidArgument, err, fmt.Sprintf("编码 %s.%s 交易失败", c.desc.Name, method))
	}
	to := c.desc.Address
	return c.conn.Submit(ctx, signer, web3.TxRequest{To: &to, Data: data})
}

// Event is a decoded log entry.
type Event struct {
	Name   string
	Fields map[string]any
	Log    types.Log
}

// FilterEvents returns the decoded logs of event emitted by the contract.
// Each element of topics restricts one indexed argument in declaration
// order; a nil element matches anything.
func (c *Contract) FilterEvents(ctx context.Context, event string, topics ...[]any) ([]Event, error) {
	events, err := c.filterEvents(ctx, event, topics...)
	c.observer.ObserveCall(c.desc.Name, event, err)
	return events, err
}

func (c *Contract) filterEvents(ctx context.Context, event string, topics ...[]any) ([]Event, error) {
	ev, ok := c.desc.ABI.Events[event]
	if !ok {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("合约 %s 没有事件 %s", c.desc.Name, event))
	}
	query := append([][]any{{ev.ID}}, topics...)
	hashes, err := abi.MakeTopics(query...)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "构造事件过滤条件失败")
	}

	logs, err := c.conn.Backend().FilterLogs(ctx, gethcore.FilterQuery{
		Addresses: []common.Address{c.desc.Address},
		Topics:    hashes,
	})
	if err != nil {
		return nil, c.conn.TransportError(err, fmt.Sprintf("查询 %s 事件失败", event))
	}

	out := make([]Event, 0, len(logs))
	for _, log := range logs {
		decoded, err := c.decodeLog(ev, log)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

// DecodeLogs decodes the entries of logs that belong to event, skipping the
// rest. It is used on receipt logs.
func (c *Contract) DecodeLogs(event string, logs []types.Log) ([]Event, error) {
	ev, ok := c.desc.ABI.Events[event]
	if !ok {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("合约 %s 没有事件 %s", c.desc.Name, event))
	}
	var out []Event
	for _, log := range logs {
		if log.Address != c.desc.Address || len(log.Topics) == 0 || log.Topics[0] != ev.ID {
			continue
		}
		decoded, err := c.decodeLog(ev, log)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

func (c *Contract) decodeLog(ev abi.Event, log types.Log) (Event, error) {
	fields := make(map[string]any)
	if err := c.bound.UnpackLogIntoMap(fields, ev.Name, log); err != nil {
		return Event{}, fmt.Errorf("解码 %s 事件失败: %w", ev.Name, err)
	}
	return Event{Name: ev.Name, Fields: fields, Log: log}, nil
}
