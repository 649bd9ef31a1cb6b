package contract

import (
	"context"
	"fmt"
	"sync"

	"Starfish-Go/internal/artifact"
	"Starfish-Go/internal/web3"
)

// Loader yields artifact descriptors by contract name. *artifact.Resolver
// satisfies it.
type Loader interface {
	Load(ctx context.Context, name string) (artifact.Descriptor, error)
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithObserver reports every call and transaction to o.
func WithObserver(o Observer) RegistryOption {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// Registry hands out one handle per contract name for a connection.
type Registry struct {
	conn     *web3.Connection
	loader   Loader
	observer Observer

	mu      sync.RWMutex
	handles map[string]any
}

// NewRegistry builds a registry over conn whose artifacts come from loader.
func NewRegistry(conn *web3.Connection, loader Loader, opts ...RegistryOption) *Registry {
	r := &Registry{
		conn:     conn,
		loader:   loader,
		observer: nopObserver{},
		handles:  make(map[string]any),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connection returns the connection handles are bound to.
func (r *Registry) Connection() *web3.Connection {
	return r.conn
}

// Contract returns the generic handle for name.
func (r *Registry) Contract(ctx context.Context, name string) (*Contract, error) {
	return Bind(ctx, r, name, func(c *Contract) *Contract { return c })
}

// Bind returns the handle registered under name, building it with factory on
// first use. A name must always be bound with the same wrapper type.
func Bind[T any](ctx context.Context, r *Registry, name string, factory func(*Contract) T) (T, error) {
	key := bindKey[T](name)
	r.mu.RLock()
	cached, ok := r.handles[key]
	r.mu.RUnlock()
	if ok {
		return cached.(T), nil
	}

	var zero T
	desc, err := r.loader.Load(ctx, name)
	if err != nil {
		return zero, err
	}
	handle := factory(New(r.conn, desc, r.observer))

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.handles[key]; ok {
		return existing.(T), nil
	}
	r.handles[key] = handle
	return handle, nil
}

func bindKey[T any](name string) string {
	var zero T
	return fmt.Sprintf("%s/%T", name, zero)
}

// Token returns the fungible token wrapper.
func (r *Registry) Token(ctx context.Context) (*Token, error) {
	return Bind(ctx, r, TokenContract, NewToken)
}

// Dispenser returns the faucet wrapper.
func (r *Registry) Dispenser(ctx context.Context) (*Dispenser, error) {
	decimals, err := r.tokenDecimals(ctx)
	if err != nil {
		return nil, err
	}
	return Bind(ctx, r, DispenserContract, func(c *Contract) *Dispenser {
		d := NewDispenser(c)
		d.decimals = decimals
		return d
	})
}

// DirectPurchase returns the logged payment wrapper.
func (r *Registry) DirectPurchase(ctx context.Context) (*DirectPurchase, error) {
	decimals, err := r.tokenDecimals(ctx)
	if err != nil {
		return nil, err
	}
	return Bind(ctx, r, DirectPurchaseContract, func(c *Contract) *DirectPurchase {
		p := NewDirectPurchase(c)
		p.decimals = decimals
		return p
	})
}

// tokenDecimals reads the decimals of the token the faucet and the payment
// contract move.
func (r *Registry) tokenDecimals(ctx context.Context) (int32, error) {
	token, err := r.Token(ctx)
	if err != nil {
		return 0, err
	}
	d, err := token.Decimals(ctx)
	if err != nil {
		return 0, err
	}
	return int32(d), nil
}

// Provenance returns the provenance wrapper.
func (r *Registry) Provenance(ctx context.Context) (*Provenance, error) {
	return Bind(ctx, r, ProvenanceContract, NewProvenance)
}

// DIDRegistry returns the DID registry wrapper.
func (r *Registry) DIDRegistry(ctx context.Context) (*DIDRegistry, error) {
	return Bind(ctx, r, DIDRegistryContract, NewDIDRegistry)
}

// Ether returns the native currency wrapper. It needs no artifact.
func (r *Registry) Ether() *Ether {
	return NewEther(r.conn, r.observer)
}
