package artifact

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const balanceOfABI = `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function","stateMutability":"view"}]`

func sampleRecord(address string) Record {
	return Record{Address: address, ABI: json.RawMessage(balanceOfABI)}
}

func TestResolverCachesByName(t *testing.T) {
	store := NewMemoryStore()
	store.Put("OceanToken", "nile", sampleRecord("0x9861da395d7da984d5e8c712c2eda44157ee3a0a"))

	resolver := NewResolver(store, "nile")
	first, err := resolver.Load(context.Background(), "OceanToken")
	require.NoError(t, err)
	second, err := resolver.Load(context.Background(), "OceanToken")
	require.NoError(t, err)

	assert.Equal(t, 1, store.Lookups())
	assert.Equal(t, first.Address, second.Address)
	assert.Contains(t, first.ABI.Methods, "balanceOf")
	assert.Equal(t, "nile", first.Network)
	assert.True(t, resolver.Cached("OceanToken"))
}

func TestResolverConcurrentLoadsAgree(t *testing.T) {
	store := NewMemoryStore()
	store.Put("DirectPurchase", "spree", sampleRecord("0x0d4e8b2b8d3a2a3e5f2a9a8c3b0e6f7d1c2b3a40"))
	resolver := NewResolver(store, "spree")

	const workers = 16
	results := make([]Descriptor, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			desc, err := resolver.Load(context.Background(), "DirectPurchase")
			assert.NoError(t, err)
			results[i] = desc
		}(i)
	}
	wg.Wait()

	for _, desc := range results[1:] {
		assert.Equal(t, results[0].Address, desc.Address)
		assert.JSONEq(t, string(results[0].RawABI), string(desc.RawABI))
	}
	assert.LessOrEqual(t, store.Lookups(), workers)
}

func TestResolverMissingArtifact(t *testing.T) {
	resolver := NewResolver(NewMemoryStore(), "nile")
	_, err := resolver.Load(context.Background(), "Provenance")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, resolver.Cached("Provenance"))
}

func TestResolverRejectsMalformedRecords(t *testing.T) {
	store := NewMemoryStore()
	store.Put("BadAddress", "nile", Record{Address: "nope", ABI: json.RawMessage(balanceOfABI)})
	store.Put("BadABI", "nile", Record{Address: "0x9861da395d7da984d5e8c712c2eda44157ee3a0a", ABI: json.RawMessage(`{`)})
	resolver := NewResolver(store, "nile")

	_, err := resolver.Load(context.Background(), "BadAddress")
	assert.Error(t, err)
	assert.False(t, IsNotFound(err))
	_, err = resolver.Load(context.Background(), "BadABI")
	assert.Error(t, err)
}

func TestResolverPreload(t *testing.T) {
	store := NewMemoryStore()
	store.Put("OceanToken", "local", sampleRecord("0x9861da395d7da984d5e8c712c2eda44157ee3a0a"))
	store.Put("Dispenser", "local", sampleRecord("0x0d4e8b2b8d3a2a3e5f2a9a8c3b0e6f7d1c2b3a40"))
	store.Put("OceanToken", "nile", sampleRecord("0x1111111111111111111111111111111111111111"))

	resolver := NewResolver(store, "local")
	n, err := resolver.Preload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	desc, err := resolver.Load(context.Background(), "OceanToken")
	require.NoError(t, err)
	assert.Equal(t, "0x9861da395d7da984d5e8c712c2eda44157ee3a0a", strings.ToLower(desc.Address.Hex()))
	assert.Equal(t, 0, store.Lookups())
}

type plainStore struct{ Store }

func TestResolverPreloadWithoutBulkSupport(t *testing.T) {
	resolver := NewResolver(plainStore{NewMemoryStore()}, "local")
	n, err := resolver.Preload(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
