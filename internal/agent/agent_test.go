package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"Starfish-Go/internal/config"
	xerrors "Starfish-Go/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDID = "did:dep:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type mapDIDs struct {
	docs  map[string]string
	err   error
	calls []string
}

func (m *mapDIDs) ResolveDID(_ context.Context, id string) (*string, error) {
	m.calls = append(m.calls, id)
	if m.err != nil {
		return nil, m.err
	}
	text, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	return &text, nil
}

func ddoServer(t *testing.T, user, pass string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ddo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != http.MethodGet {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		u, p, ok := r.BasicAuth()
		if !ok && r.Header.Get("Authorization") == "token good-token" {
			u, p, ok = user, pass, true
		}
		if !ok || u != user || p != pass {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"` + testDID + `","service":[{"type":"Ocean.Meta.v1","serviceEndpoint":"http://meta"}]}`))
	}))
}

func TestChainStrategyWinsForRegisteredDID(t *testing.T) {
	dids := &mapDIDs{docs: map[string]string{testDID: `{"id":"` + testDID + `"}`}}
	resolver := NewDefaultResolver(dids, NewClient(nil))

	doc, err := resolver.ResolveAgent(context.Background(), testDID+"/0xabc", nil)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, testDID, doc.ID)
	assert.Equal(t, []string{testDID}, dids.calls, "asset DID resolves through its agent part")
}

func TestUnregisteredDIDResolvesToNil(t *testing.T) {
	dids := &mapDIDs{docs: map[string]string{}}
	resolver := NewDefaultResolver(dids, NewClient(nil))

	doc, err := resolver.ResolveAgent(context.Background(), testDID, nil)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestChainErrorIsSurfaced(t *testing.T) {
	dids := &mapDIDs{err: errors.New("node down")}
	resolver := NewDefaultResolver(dids, NewClient(nil))

	_, err := resolver.ResolveAgent(context.Background(), testDID, nil)
	assert.Error(t, err)
}

func TestRemoteFetchWithBasicAuth(t *testing.T) {
	srv := ddoServer(t, "alice", "secret")
	defer srv.Close()
	resolver := NewDefaultResolver(&mapDIDs{}, NewClient(srv.Client()))

	doc, err := resolver.ResolveAgentWithPassword(context.Background(), srv.URL, "alice", "secret")
	require.NoError(t, err)
	require.NotNil(t, doc)
	endpoint, ok := doc.ServiceEndpoint("ocean.meta.v1")
	assert.True(t, ok)
	assert.Equal(t, "http://meta", endpoint)
	assert.Contains(t, doc.Raw, "serviceEndpoint")
}

func TestRemoteFetchWithToken(t *testing.T) {
	srv := ddoServer(t, "alice", "secret")
	defer srv.Close()
	resolver := NewDefaultResolver(nil, NewClient(srv.Client()))

	doc, err := resolver.ResolveAgent(context.Background(), srv.URL+"/", TokenCredentials("good-token"))
	require.NoError(t, err)
	assert.NotNil(t, doc)
}

func TestRemoteWrongCredentialsIsAnError(t *testing.T) {
	srv := ddoServer(t, "alice", "secret")
	defer srv.Close()
	resolver := NewDefaultResolver(&mapDIDs{}, NewClient(srv.Client()))

	doc, err := resolver.ResolveAgentWithPassword(context.Background(), srv.URL, "alice", "wrong")
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, xerrors.IsCode(err, xerrors.CodeRemoteFetchFailure))

	coded, ok := xerrors.From(err)
	require.True(t, ok)
	assert.Equal(t, "401", coded.Metadata()["status"])
	assert.Equal(t, srv.URL+"/api/ddo", coded.Metadata()["endpoint"])
}

func TestRemoteNotFoundIsNil(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	text, found, err := NewClient(srv.Client()).Fetch(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, text)
}

func TestRemoteTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, _, err := NewClient(nil).Fetch(context.Background(), url, nil)
	require.Error(t, err)
	assert.True(t, xerrors.IsCode(err, xerrors.CodeRemoteFetchFailure))
}

func TestNonURLAddressIsNotFetched(t *testing.T) {
	resolver := NewDefaultResolver(nil, NewClient(nil))
	doc, err := resolver.ResolveAgent(context.Background(), "not a url", nil)
	require.NoError(t, err)
	assert.Nil(t, doc)
	assert.False(t, IsURL("ftp://example.com"))
	assert.True(t, IsURL("https://agent.example.com/base"))
}

func TestTokenClient(t *testing.T) {
	var issued []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/token" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if u, p, ok := r.BasicAuth(); !ok || u != "admin" || p != "pw" {
			http.Error(w, "denied", http.StatusForbidden)
			return
		}
		switch r.Method {
		case http.MethodPost:
			token := "tok-" + strings.Repeat("x", len(issued)+1)
			issued = append(issued, token)
			_ = json.NewEncoder(w).Encode(token)
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(issued)
		}
	}))
	defer srv.Close()

	client := NewTokenClient(NewClient(srv.Client()), srv.URL, "admin", "pw")
	created, err := client.CreateToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-x", created.Token)

	tokens, err := client.ListTokens(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "tok-x", tokens[0].Token)

	denied := NewTokenClient(NewClient(srv.Client()), srv.URL, "admin", "nope")
	_, err = denied.ListTokens(context.Background())
	assert.True(t, xerrors.IsCode(err, xerrors.CodeRemoteFetchFailure))
}

func TestCredentialsFromConfig(t *testing.T) {
	assert.Nil(t, CredentialsFromConfig(config.AgentConfig{}))
	assert.Equal(t, "t", CredentialsFromConfig(config.AgentConfig{Token: "t", Username: "u"}).Token)
	creds := CredentialsFromConfig(config.AgentConfig{Username: "u", Password: "p"})
	assert.Equal(t, "u", creds.Username)
	assert.Equal(t, "p", creds.Password)
}
