// Package web3 holds the chain-facing primitives shared by every contract
// wrapper: the Backend transport contract, the process Connection with its
// chain id to network name table, transaction submission that normalises
// receipts into an Outcome, and lossless conversion between human token
// amounts and their smallest on-chain unit.
package web3
