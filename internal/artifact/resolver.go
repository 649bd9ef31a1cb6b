package artifact

import (
	"context"
	"log/slog"
	"sync"

	xerrors "Starfish-Go/internal/errors"
	"Starfish-Go/pkg/logger"
)

// Resolver memoises descriptors by contract name for one network. Concurrent
// first loads of the same name may both hit the store; the first result to
// reach the cache is the one every caller sees afterwards.
type Resolver struct {
	store   Store
	network string
	log     *slog.Logger

	mu    sync.RWMutex
	cache map[string]Descriptor
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// NewResolver creates a resolver for network backed by store.
func NewResolver(store Store, network string, opts ...Option) *Resolver {
	r := &Resolver{
		store:   store,
		network: network,
		log:     logger.Named("artifact"),
		cache:   make(map[string]Descriptor),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Network returns the network the resolver serves.
func (r *Resolver) Network() string {
	return r.network
}

// Load returns the descriptor for name, reading the store only on first use.
func (r *Resolver) Load(ctx context.Context, name string) (Descriptor, error) {
	r.mu.RLock()
	desc, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return desc, nil
	}

	if r.store == nil {
		return Descriptor{}, xerrors.New(xerrors.CodeInitFailure, "未配置合约构件存储")
	}
	rec, err := r.store.Lookup(ctx, name, r.network)
	if err != nil {
		return Descriptor{}, err
	}
	parsed, err := Parse(name, r.network, rec)
	if err != nil {
		return Descriptor{}, err
	}
	r.log.Debug("已加载合约构件", "name", name, "network", r.network, "address", parsed.Address.Hex())
	return r.remember(parsed), nil
}

func (r *Resolver) remember(desc Descriptor) Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.cache[desc.Name]; ok {
		return existing
	}
	r.cache[desc.Name] = desc
	return desc
}

// Preload fills the cache from a bulk store. It returns the number of
// descriptors loaded; stores without bulk support load nothing.
func (r *Resolver) Preload(ctx context.Context) (int, error) {
	bulk, ok := r.store.(BulkStore)
	if !ok {
		return 0, nil
	}
	records, err := bulk.LookupAll(ctx, r.network)
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, rec := range records {
		if rec.Name == "" {
			continue
		}
		desc, err := Parse(rec.Name, r.network, rec)
		if err != nil {
			return loaded, err
		}
		r.remember(desc)
		loaded++
	}
	r.log.Info("已预加载合约构件", "network", r.network, "count", loaded)
	return loaded, nil
}

// Cached reports whether name has been loaded.
func (r *Resolver) Cached(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.cache[name]
	return ok
}
