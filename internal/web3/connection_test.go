package web3

import (
	"context"
	"errors"
	"math/big"
	"testing"

	xerrors "Starfish-Go/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectMapsKnownChainIDs(t *testing.T) {
	cases := map[int64]string{
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
	for id, want := range cases {
		backend := &stubBackend{chainID: big.NewInt(id)}
		conn, err := Connect(context.Background(), backend)
		require.NoError(t, err, "chain %d", id)
		assert.Equal(t, want, conn.Name(), "chain %d", id)
		assert.Equal(t, id, conn.ChainID().Int64())
	}
}

func TestConnectUnknownChainIsNotAnError(t *testing.T) {
	conn, err := Connect(context.Background(), &stubBackend{chainID: big.NewInt(31337)})
	require.NoError(t, err)
	assert.Equal(t, UnknownNetwork, conn.Name())
	assert.False(t, IsLocalNetwork(conn.Name()))
}

func TestConnectFailsOnceWithoutRetry(t *testing.T) {
	backend := &stubBackend{chainIDErr: errors.New("connection refused")}
	_, err := Connect(context.Background(), backend, WithEndpoint("http://localhost:9"))
	require.Error(t, err)
	assert.True(t, xerrors.IsCode(err, xerrors.CodeConnectionFailure))
	assert.Equal(t, 1, backend.chainIDCalls)

	coded, ok := xerrors.From(err)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:9", coded.Metadata()["endpoint"])
}

func TestConnectionChainIDIsACopy(t *testing.T) {
	conn, err := Connect(context.Background(), &stubBackend{chainID: big.NewInt(8995)})
	require.NoError(t, err)
	conn.ChainID().SetInt64(1)
	assert.Equal(t, int64(8995), conn.ChainID().Int64())
	assert.Equal(t, "nile", conn.Name())
}

func TestConnectionCloseRunsCloserOnce(t *testing.T) {
	calls := 0
	conn, err := Connect(context.Background(), &stubBackend{chainID: big.NewInt(1)}, WithCloser(func() { calls++ }))
	require.NoError(t, err)
	conn.Close()
	conn.Close()
	assert.Equal(t, 1, calls)
}
