package web3

import (
	"context"
	"errors"
	"math/big"
	"time"

	xerrors "Starfish-Go/internal/errors"
)

// UnknownNetwork is the name given to chain ids missing from the known table.
const UnknownNetwork = "unknown"

var networkNames = map[uint64]string{
	0:       "development",
	1:       "main",
	2:       "morden",
	3:       "ropsten",
	4:       "rinkeby",
	42:      "kovan",
	77:      "POA_Sokol",
	99:      "POA_Core",
	100:     "xDai",
	1337:    "local",
	8995:    "nile",
	8996:    "spree",
	0xcea11: "pacific",
}

// NetworkName maps a chain id to its symbolic network name.
func NetworkName(chainID *big.Int) string {
	if chainID == nil || !chainID.IsUint64() {
		return UnknownNetwork
	}
	if name, ok := networkNames[chainID.Uint64()]; ok {
		return name
	}
	return UnknownNetwork
}

// IsLocalNetwork reports whether name designates a throwaway test chain.
func IsLocalNetwork(name string) bool {
	return name == "local" || name == "development"
}

// Connection is the process-wide link to one node. It is created once at
// startup and handed to every component that needs chain access.
type Connection struct {
	backend  Backend
	endpoint string
	chainID  *big.Int
	name     string
	closer   func()
	polling  time.Duration
}

// ConnectOption customises Connect.
type ConnectOption func(*Connection)

// WithEndpoint records the endpoint the backend talks to, for error reports.
func WithEndpoint(endpoint string) ConnectOption {
	return func(c *Connection) {
		c.endpoint = endpoint
	}
}

// WithReceiptPolling sets how often a pending receipt is polled.
func WithReceiptPolling(interval time.Duration) ConnectOption {
	return func(c *Connection) {
		c.polling = interval
	}
}

// WithCloser registers a function run by Close.
func WithCloser(fn func()) ConnectOption {
	return func(c *Connection) {
		c.closer = fn
	}
}

// Connect queries the chain id once and derives the network name from it.
// There is no retry; a failing backend yields a CONNECTION_FAILURE error.
func Connect(ctx context.Context, backend Backend, opts ...ConnectOption) (*Connection, error) {
	if backend == nil {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "未提供链访问后端")
	}
	conn := &Connection{backend: backend, polling: defaultReceiptPolling}
	for _, opt := range opts {
		if opt != nil {
			opt(conn)
		}
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConnectionFailure, err, "获取链 ID 失败",
			xerrors.WithMetadata("endpoint", conn.endpoint))
	}
	if chainID == nil {
		return nil, xerrors.Wrap(xerrors.CodeConnectionFailure, errors.New("empty chain id"), "获取链 ID 失败",
			xerrors.WithMetadata("endpoint", conn.endpoint))
	}
	conn.chainID = new(big.Int).Set(chainID)
	conn.name = NetworkName(chainID)
	return conn, nil
}

// Backend returns the transport the connection was built from.
func (c *Connection) Backend() Backend {
	return c.backend
}

// ChainID returns a copy of the chain id observed at connect time.
func (c *Connection) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// Name returns the symbolic network name, or UnknownNetwork.
func (c *Connection) Name() string {
	return c.name
}

// Endpoint returns the endpoint recorded with WithEndpoint.
func (c *Connection) Endpoint() string {
	return c.endpoint
}

// Close releases the underlying transport when a closer was registered.
func (c *Connection) Close() {
	if c == nil || c.closer == nil {
		return
	}
	c.closer()
	c.closer = nil
}
