// Package account provides the signing capability handed to state-changing
// contract calls. Local accounts carry their own key material; remote
// accounts ask the connected node to sign with a key it holds.
package account

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	xerrors "Starfish-Go/internal/errors"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// RPCCaller is the JSON-RPC surface a remote account needs. *rpc.Client
// satisfies it.
type RPCCaller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// Account is an address plus the means to sign for it.
type Account struct {
	address  common.Address
	password string
	keyJSON  []byte
	key      *ecdsa.PrivateKey
	node     RPCCaller
}

// New generates a fresh local account and encrypts its key with password.
func New(password string) (*Account, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("生成私钥失败: %w", err)
	}
	return fromPrivateKey(key, password)
}

// FromPrivateKey wraps an existing private key, encrypting it with password.
func FromPrivateKey(key *ecdsa.PrivateKey, password string) (*Account, error) {
	if key == nil {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "私钥不能为空")
	}
	return fromPrivateKey(key, password)
}

func fromPrivateKey(key *ecdsa.PrivateKey, password string) (*Account, error) {
	address := crypto.PubkeyToAddress(key.PublicKey)
	keyJSON, err := keystore.EncryptKey(&keystore.Key{
		Id:         uuid.New(),
		Address:    address,
		PrivateKey: key,
	}, password, keystore.LightScryptN, keystore.LightScryptP)
	if err != nil {
		return nil, fmt.Errorf("加密私钥失败: %w", err)
	}
	return &Account{address: address, password: password, keyJSON: keyJSON, key: key}, nil
}

// FromKeyJSON decrypts an encrypted key file.
func FromKeyJSON(keyJSON []byte, password string) (*Account, error) {
	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return nil, fmt.Errorf("解密密钥文件失败: %w", err)
	}
	return &Account{
		address:  key.Address,
		password: password,
		keyJSON:  append([]byte(nil), keyJSON...),
		key:      key.PrivateKey,
	}, nil
}

// LoadKeyFile reads and decrypts a key file from disk.
func LoadKeyFile(path, password string) (*Account, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取密钥文件失败: %w", err)
	}
	return FromKeyJSON(content, password)
}

// Remote returns an account whose key is held by the node behind caller.
// password may be empty when the node account is already unlocked.
func Remote(address string, password string, caller RPCCaller) (*Account, error) {
	if !common.IsHexAddress(address) {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("无效的账户地址: %q", address))
	}
	if caller == nil {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "远程账户需要节点 RPC 连接")
	}
	return &Account{address: common.HexToAddress(address), password: password, node: caller}, nil
}

// Address returns the account address.
func (a *Account) Address() common.Address {
	return a.address
}

// ChecksumAddress returns the EIP-55 form of the address.
func (a *Account) ChecksumAddress() string {
	return a.address.Hex()
}

// IsLocal reports whether the account can sign without the node.
func (a *Account) IsLocal() bool {
	return a.key != nil
}

// KeyJSON returns the encrypted key material, or nil for remote accounts.
func (a *Account) KeyJSON() []byte {
	if a.keyJSON == nil {
		return nil
	}
	return append([]byte(nil), a.keyJSON...)
}

// ImportKeyJSON attaches key material to the account. The key must belong to
// the account's address.
func (a *Account) ImportKeyJSON(keyJSON []byte, password string) error {
	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return fmt.Errorf("解密密钥文件失败: %w", err)
	}
	if key.Address != a.address {
		return xerrors.New(xerrors.CodeInvalidArgument,
			fmt.Sprintf("密钥地址 %s 与账户 %s 不符", key.Address.Hex(), a.address.Hex()))
	}
	a.key = key.PrivateKey
	a.password = password
	a.keyJSON = append([]byte(nil), keyJSON...)
	return nil
}

// SaveKeyFile writes the encrypted key into dir using the keystore file name
// convention and returns the path.
func (a *Account) SaveKeyFile(dir string) (string, error) {
	if len(a.keyJSON) == 0 {
		return "", errors.New("账户没有可保存的密钥")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("创建密钥目录失败: %w", err)
	}
	name := "UTC--" + strings.ToLower(a.address.Hex()[2:]) + ".json"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, a.keyJSON, 0o600); err != nil {
		return "", fmt.Errorf("写入密钥文件失败: %w", err)
	}
	return path, nil
}

// SignTx signs tx for chainID, locally or through the node.
func (a *Account) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if a.key != nil {
		return types.SignTx(tx, types.LatestSignerForChainID(chainID), a.key)
	}
	if a.node == nil {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "账户既没有私钥也没有节点连接")
	}
	return a.signRemote(ctx, tx, chainID)
}

type txArgs struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to,omitempty"`
	Gas      hexutil.Uint64  `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Value    *hexutil.Big    `json:"value"`
	Nonce    hexutil.Uint64  `json:"nonce"`
	Input    hexutil.Bytes   `json:"input"`
	ChainID  *hexutil.Big    `json:"chainId"`
}

type signTxResult struct {
	Raw hexutil.Bytes `json:"raw"`
}

func (a *Account) signRemote(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	args := txArgs{
		From:     a.address,
		To:       tx.To(),
		Gas:      hexutil.Uint64(tx.Gas()),
		GasPrice: (*hexutil.Big)(tx.GasPrice()),
		Value:    (*hexutil.Big)(tx.Value()),
		Nonce:    hexutil.Uint64(tx.Nonce()),
		Input:    tx.Data(),
		ChainID:  (*hexutil.Big)(chainID),
	}

	var result signTxResult
	var err error
	if a.password != "" {
		err = a.node.CallContext(ctx, &result, "personal_signTransaction", args, a.password)
	} else {
		err = a.node.CallContext(ctx, &result, "eth_signTransaction", args)
	}
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeTransportFailure, err, "节点签名交易失败",
			xerrors.WithMetadata("address", a.address.Hex()))
	}

	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(result.Raw); err != nil {
		return nil, fmt.Errorf("解析节点签名交易失败: %w", err)
	}
	return signed, nil
}
