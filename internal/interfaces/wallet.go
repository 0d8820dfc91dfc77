package interfaces

// Wallet 钱包身份：核心只使用连接状态与公钥，签名由链上客户端通过 Signer 完成
type Wallet interface {
	PublicKey() string
	Connected() bool
}

// WalletProvider 根据公钥解析钱包
type WalletProvider interface {
	Resolve(publicKey string) (Wallet, error)
}
