package ethereum

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Starfish-Go/internal/web3"

	"github.com/ethereum/go-ethereum/common"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

func newRPCServer(t *testing.T, results map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		result, ok := results[req.Method]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"error":   map[string]any{"code": -32601, "message": "method not found"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
}

func TestDialAndConnectResolvesNetworkName(t *testing.T) {
	t.Parallel()

	srv := newRPCServer(t, map[string]any{
		"eth_chainId":  "0x2323",
		"eth_accounts": []string{"0x00bd138abd70e2f00903268f3db08f2d25677c9e"},
	})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, Config{Name: "nile", RPCURL: srv.URL})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(client.Close)

	conn, err := web3.Connect(ctx, client, web3.WithEndpoint(client.URL()))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if conn.Name() != "nile" {
		t.Fatalf("expected nile, got %s", conn.Name())
	}

	accounts, err := client.Accounts(ctx)
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	want := common.HexToAddress("0x00bd138abd70e2f00903268f3db08f2d25677c9e")
	if len(accounts) != 1 || accounts[0] != want {
		t.Fatalf("unexpected accounts %v", accounts)
	}
}

func TestDialRequiresURL(t *testing.T) {
	if _, err := Dial(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty rpc url")
	}
}

var _ web3.Backend = (*Client)(nil)
