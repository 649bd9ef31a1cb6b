package provider

import (
	"os"
	"path/filepath"
	"testing"

	"Starfish-Go/internal/config"
)

func TestNewRegistryFromChainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chains.yaml")
	content := `
default: spree
chains:
  nile:
    rpc_url: https://nile.example.com
    expected_network: nile
  spree:
    rpc_url: http://localhost:8545
    receipt_poll_ms: 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write chain file: %v", err)
	}

	reg, err := NewRegistry(config.NetworkConfig{ChainConfig: path})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if reg.Default() != "spree" {
		t.Fatalf("expected spree default, got %s", reg.Default())
	}
	chains := reg.Chains()
	if len(chains) != 2 || chains[0] != "nile" || chains[1] != "spree" {
		t.Fatalf("unexpected chains %v", chains)
	}
}

func TestNewRegistryFallsBackToRPCURL(t *testing.T) {
	reg, err := NewRegistry(config.NetworkConfig{RPCURL: "http://localhost:8545"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if reg.Default() != "default" {
		t.Fatalf("expected default chain, got %s", reg.Default())
	}
}

func TestNewRegistryErrors(t *testing.T) {
	if _, err := NewRegistry(config.NetworkConfig{}); err == nil {
		t.Fatal("expected error without endpoints")
	}
	if _, err := NewRegistry(config.NetworkConfig{RPCURL: "http://localhost:8545", Chain: "nile"}); err == nil {
		t.Fatal("expected error for unknown default chain")
	}
}
