package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"Starfish-Go/internal/did"
	xerrors "Starfish-Go/internal/errors"
	"Starfish-Go/internal/journal"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenABI = `[{"type":"function","name":"totalSupply","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"}]`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	state := &appState{opts: &globalOptions{}}
	root := newRootCmd(state)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	require.NoError(t, state.close())
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "starfish.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDIDNew(t *testing.T) {
	out, err := execute(t, "did", "new")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, did.IsDID(got["did"]))
}

func TestAccountNewWritesKeyFile(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "account", "new", "--password", "secret", "--dir", dir)
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.FileExists(t, got["keyfile"])
	assert.Equal(t, dir, filepath.Dir(got["keyfile"]))

	_, err = execute(t, "account", "new", "--dir", dir)
	assert.Error(t, err)
}

func TestArtifactImportAndListFileStore(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, "log:\n  level: error\nartifacts:\n  driver: file\n  dir: "+dir+"\n")
	src := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"address":"0x00000000000000000000000000000000000000aa","abi":`+tokenABI+`}`), 0o600))

	out, err := execute(t, "-c", cfgPath, "artifact", "import", "OceanToken", src, "--network", "nile")
	require.NoError(t, err)
	assert.Contains(t, out, "OceanToken.nile")
	assert.FileExists(t, filepath.Join(dir, "OceanToken.nile.json"))

	out, err = execute(t, "-c", cfgPath, "artifact", "list", "nile")
	require.NoError(t, err)
	var recs []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "OceanToken", recs[0]["name"])
}

func TestArtifactImportRejectsInvalidRecord(t *testing.T) {
	cfgPath := writeConfig(t, "log:\n  level: error\nartifacts:\n  dir: "+t.TempDir()+"\n")
	src := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"address":"nope","abi":[]}`), 0o600))

	_, err := execute(t, "-c", cfgPath, "artifact", "import", "OceanToken", src, "--network", "nile")
	assert.Error(t, err)

	_, err = execute(t, "-c", cfgPath, "artifact", "import", "OceanToken", src)
	assert.Error(t, err)
}

func TestArtifactImportRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cfgPath := writeConfig(t, "log:\n  level: error\nartifacts:\n  driver: redis\n  redis:\n    address: "+mr.Addr()+"\n")
	src := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"network":"nile","address":"0x00000000000000000000000000000000000000aa","abi":`+tokenABI+`}`), 0o600))

	_, err := execute(t, "-c", cfgPath, "artifact", "import", "OceanToken", src)
	require.NoError(t, err)

	out, err := execute(t, "-c", cfgPath, "artifact", "list", "nile")
	require.NoError(t, err)
	assert.Contains(t, out, "0x00000000000000000000000000000000000000aa")
}

func TestArtifactUnknownDriverIsInvalidArgument(t *testing.T) {
	cfgPath := writeConfig(t, "log:\n  level: error\nartifacts:\n  driver: bogus\n")

	_, err := execute(t, "-c", cfgPath, "artifact", "list", "nile")
	require.Error(t, err)
	assert.True(t, xerrors.IsCode(err, xerrors.CodeInvalidArgument))
	assert.Contains(t, err.Error(), "bogus")
}

func TestJournalReadsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	sink, err := journal.NewRedisSink(client, "starfish:journal", 0)
	require.NoError(t, err)
	entry := journal.NewEntry("send_token", "transfer")
	entry.Success = true
	require.NoError(t, sink.Record(context.Background(), entry))

	cfgPath := writeConfig(t, "log:\n  level: error\njournal:\n  driver: redis\n  redis:\n    address: "+mr.Addr()+"\n")
	out, err := execute(t, "-c", cfgPath, "journal", "-n", "5")
	require.NoError(t, err)

	var entries []journal.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, "send_token", entries[0].Workflow)
}

func TestJournalWithoutReader(t *testing.T) {
	_, err := execute(t, "journal")
	assert.Error(t, err)
}

func TestSignerRequiresAccount(t *testing.T) {
	opts := &signerOptions{}
	_, err := opts.load(context.Background(), nil)
	assert.Error(t, err)
}
