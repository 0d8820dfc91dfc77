package chain

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ChopRaffle/internal/interfaces"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/sirupsen/logrus"
)

// Signer 可签名的钱包
type Signer interface {
	Account() types.Account
}

// KeypairWallet 持有本地 keypair 的已连接钱包
type KeypairWallet struct {
	account types.Account
}

// NewKeypairWallet 包装 blocto Account
func NewKeypairWallet(acc types.Account) *KeypairWallet {
	return &KeypairWallet{account: acc}
}

func (w *KeypairWallet) PublicKey() string { return w.account.PublicKey.ToBase58() }
func (w *KeypairWallet) Connected() bool { return true }
func (w *KeypairWallet) Account() types.Account { return w.account }

// DetachedWallet 只有公钥、无法签名的钱包（未连接）
type DetachedWallet struct {
	Key string
}

func (w DetachedWallet) PublicKey() string { return w.Key }
func (w DetachedWallet) Connected() bool { return false }

// Keystore 从目录加载 solana-keygen 生成的 JSON keypair（[int,...] 共 64 字节）
type Keystore struct {
	mu       sync.RWMutex
	accounts map[string]types.Account
	logger   *logrus.Logger
}

// NewKeystore 创建空 keystore
func NewKeystore(logger *logrus.Logger) *Keystore {
	return &Keystore{accounts: make(map[string]types.Account), logger: logger}
}

// LoadKeystore 加载目录下所有 *.json；目录不存在时返回空 keystore
func LoadKeystore(dir string, logger *logrus.Logger) (*Keystore, error) {
	ks := NewKeystore(logger)
	if dir == "" {
		return ks, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.WithField("dir", dir).Warn("keypair 目录不存在，签名钱包为空")
			return ks, nil
		}
		return nil, fmt.Errorf("读取 keypair 目录失败: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		acc, err := LoadKeypairFile(path)
		if err != nil {
			// 单个文件失败不阻塞其它钱包
			logger.WithError(err).WithField("file", path).Warn("加载 keypair 失败，跳过")
			continue
		}
		ks.Add(acc)
	}
	logger.WithField("wallets", ks.Len()).Info("签名钱包加载完成")
	return ks, nil
}

// LoadKeypairFile 读取单个 keypair 文件
func LoadKeypairFile(path string) (types.Account, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.Account{}, err
	}
	return DecodeKeypairJSON(raw)
}

// DecodeKeypairJSON 解析 [int,int,...] 形式的 64 字节密钥
func DecodeKeypairJSON(raw []byte) (types.Account, error) {
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return types.Account{}, fmt.Errorf("keypair json 解析失败: %w", err)
	}
	if len(ints) != 64 {
		return types.Account{}, fmt.Errorf("keypair 长度错误: got %d, want 64", len(ints))
	}
	b := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return types.Account{}, fmt.Errorf("keypair 第 %d 个字节越界: %d", i, v)
		}
		b[i] = byte(v)
	}
	acc, err := types.AccountFromBytes(b)
	if err != nil {
		return types.Account{}, fmt.Errorf("AccountFromBytes: %w", err)
	}
	return acc, nil
}

// Add 注册一个账户
func (k *Keystore) Add(acc types.Account) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.accounts[acc.PublicKey.ToBase58()] = acc
}

// Len 已加载钱包数
func (k *Keystore) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.accounts)
}

// Resolve 实现 interfaces.WalletProvider。未知公钥返回未连接钱包，不报错
func (k *Keystore) Resolve(publicKey string) (interfaces.Wallet, error) {
	publicKey = strings.TrimSpace(publicKey)
	if publicKey == "" {
		return nil, fmt.Errorf("wallet is required")
	}
	k.mu.RLock()
	acc, ok := k.accounts[publicKey]
	k.mu.RUnlock()
	if !ok {
		return DetachedWallet{Key: publicKey}, nil
	}
	return NewKeypairWallet(acc), nil
}
