package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"ChopRaffle/internal/model"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server    ServerConfig            `mapstructure:"server"`    // 服务器配置
	Database  DatabaseConfig          `mapstructure:"database"`  // PostgreSQL配置
	Redis     RedisConfig             `mapstructure:"redis"`     // Redis配置（状态缓存）
	Raffle    RaffleConfig            `mapstructure:"raffle"`    // 抽奖玩法参数
	Chain     ChainConfig             `mapstructure:"chain"`     // Solana 链上程序配置
	Mint      MintConfig              `mapstructure:"mint"`      // 批量铸造编排参数
	Minters   map[string]MinterConfig `mapstructure:"minters"`   // 多个 NFT 铸造后端的独立配置
	Wallets   WalletsConfig           `mapstructure:"wallets"`   // 签名钱包
	Sync      SyncConfig              `mapstructure:"sync"`      // 链上状态刷新调度
	PriceFeed PriceFeedConfig         `mapstructure:"pricefeed"` // SOL/USD 报价
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int      `mapstructure:"port"`         // 服务端口
	Mode        string   `mapstructure:"mode"`         // Gin运行模式：debug/release/test
	CORSOrigins []string `mapstructure:"cors_origins"` // 允许的前端来源
}

// DatabaseConfig PostgreSQL数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	StatusTTL time.Duration `mapstructure:"status_ttl"` // 状态缓存过期时间
}

// PrizeConfig 单个奖项
type PrizeConfig struct {
	Label   string  `mapstructure:"label"`
	Kind    string  `mapstructure:"kind"` // survivor_draw / pool_share / eliminated_draw
	Value   float64 `mapstructure:"value"`
	Winners int     `mapstructure:"winners"`
}

// BreakpointConfig 推荐语分档，up_to 为 0 表示兜底档
type BreakpointConfig struct {
	UpTo    int    `mapstructure:"up_to"`
	Level   string `mapstructure:"level"`
	Message string `mapstructure:"message"`
}

// RaffleConfig 抽奖玩法参数（未配置的项使用默认值）
type RaffleConfig struct {
	TotalSupply        int                `mapstructure:"total_supply"`
	DevReserved        int                `mapstructure:"dev_reserved"`
	Rounds             int                `mapstructure:"rounds"`
	EliminationRate    float64            `mapstructure:"elimination_rate"`
	FinalSurvivors     int                `mapstructure:"final_survivors"`
	Prizes             []PrizeConfig      `mapstructure:"prizes"`
	Breakpoints        []BreakpointConfig `mapstructure:"breakpoints"`
	MinMint            int                `mapstructure:"min_mint"`
	MaxMint            int                `mapstructure:"max_mint"`
	EarlyBirdThreshold uint64             `mapstructure:"early_bird_threshold"` // total_minted 小于该值时为早鸟价
	EarlyBirdPriceSOL  string             `mapstructure:"early_bird_price_sol"`
	RegularPriceSOL    string             `mapstructure:"regular_price_sol"`
	USDPerSOL          float64            `mapstructure:"usd_per_sol"` // 固定汇率（未接入报价源时使用）
}

// ChainConfig Solana 链上程序配置
type ChainConfig struct {
	RPCURL          string        `mapstructure:"rpc_url"`
	ProgramID       string        `mapstructure:"program_id"`
	RafflePDA       string        `mapstructure:"raffle_pda"`
	ProjectWallet   string        `mapstructure:"project_wallet"`
	DevWallet       string        `mapstructure:"dev_wallet"`
	ConfirmAttempts int           `mapstructure:"confirm_attempts"` // 交易确认轮询次数
	ConfirmInterval time.Duration `mapstructure:"confirm_interval"` // 轮询间隔
}

// MintConfig 批量铸造编排参数
type MintConfig struct {
	DefaultBackend string        `mapstructure:"default_backend"`
	Pacing         time.Duration `mapstructure:"pacing"`          // 两次铸造调用之间的间隔
	Concurrency    int           `mapstructure:"concurrency"`     // >1 时启用有界并发
	CallTimeout    time.Duration `mapstructure:"call_timeout"`    // 单次外部调用超时
	ReadRetries    int           `mapstructure:"read_retries"`    // 购票后读取 total_minted 的重试次数
	ReadBaseDelay  time.Duration `mapstructure:"read_base_delay"` // 重试初始间隔（指数翻倍）
}

// MinterConfig 单个铸造后端的配置
type MinterConfig struct {
	BaseURL          string `mapstructure:"base_url"`          // API基础地址（underdog）
	ProjectID        string `mapstructure:"project_id"`        // underdog 项目 ID
	AuthToken        string `mapstructure:"auth_token"`        // Bearer Token
	Timeout          int    `mapstructure:"timeout"`           // 请求超时（秒）
	Proxy            string `mapstructure:"proxy"`             // 代理地址
	Symbol           string `mapstructure:"symbol"`            // NFT 符号
	Description      string `mapstructure:"description"`       // NFT 描述
	ImageBase        string `mapstructure:"image_base"`        // 图片/元数据地址，票号以 ?id= 拼接
	ExternalURL      string `mapstructure:"external_url"`      // 项目主页
	RPCURL           string `mapstructure:"rpc_url"`           // metaplex：为空时使用 chain.rpc_url
	AuthorityKeypair string `mapstructure:"authority_keypair"` // metaplex：mint authority keypair 文件
	CostLamports     uint64 `mapstructure:"cost_lamports"`     // metaplex：单个 NFT 预估成本
	SellerFeeBps     uint16 `mapstructure:"seller_fee_bps"`    // metaplex：版税（基点）
}

// WalletsConfig 签名钱包配置
type WalletsConfig struct {
	KeypairDir string `mapstructure:"keypair_dir"` // solana-keygen JSON 文件目录
}

// SyncConfig 链上状态刷新调度
type SyncConfig struct {
	Cron string `mapstructure:"cron"` // robfig/cron 表达式（支持 @every 30s）
}

// PriceFeedConfig SOL/USD 报价源
type PriceFeedConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	CoinID  string `mapstructure:"coin_id"`
	Timeout int    `mapstructure:"timeout"` // 秒
	Proxy   string `mapstructure:"proxy"`
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）
	return LoadConfigFrom("./config")
}

// LoadConfigFrom 从指定目录读取 config.yaml
func LoadConfigFrom(dir string) (*Config, error) {
	// 2. 读取 config.yaml
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	v.SetTypeByDefaultValue(true)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if u, ok := cfg.Minters["underdog"]; ok {
		if v := os.Getenv("UNDERDOG_AUTH_TOKEN"); v != "" {
			u.AuthToken = v
		}
		if v := os.Getenv("UNDERDOG_PROXY"); v != "" {
			u.Proxy = v
		}
		cfg.Minters["underdog"] = u
	}
	if m, ok := cfg.Minters["metaplex"]; ok {
		if v := os.Getenv("METAPLEX_AUTHORITY_KEYPAIR"); v != "" {
			m.AuthorityKeypair = v
		}
		cfg.Minters["metaplex"] = m
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SOLANA_RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("WALLET_KEYPAIR_DIR"); v != "" {
		cfg.Wallets.KeypairDir = v
	}
	if v := os.Getenv("PRICEFEED_API_KEY"); v != "" {
		cfg.PriceFeed.APIKey = v
	}
}

// applyDefaults 未配置的玩法参数与编排参数回落到默认值
func applyDefaults(cfg *Config) {
	d := model.DefaultRaffleConstants()
	r := &cfg.Raffle
	if r.TotalSupply == 0 {
		r.TotalSupply = d.TotalSupply
	}
	if r.DevReserved == 0 {
		r.DevReserved = d.DevReserved
	}
	if r.Rounds == 0 {
		r.Rounds = d.Rounds
	}
	if r.EliminationRate == 0 {
		r.EliminationRate = d.EliminationRate
	}
	if r.FinalSurvivors == 0 {
		r.FinalSurvivors = d.FinalSurvivors
	}
	if r.MinMint == 0 {
		r.MinMint = d.MinMint
	}
	if r.MaxMint == 0 {
		r.MaxMint = d.MaxMint
	}
	if r.EarlyBirdThreshold == 0 {
		r.EarlyBirdThreshold = 100000
	}
	if r.EarlyBirdPriceSOL == "" {
		r.EarlyBirdPriceSOL = "0.005"
	}
	if r.RegularPriceSOL == "" {
		r.RegularPriceSOL = "0.01"
	}
	if r.USDPerSOL == 0 {
		r.USDPerSOL = 100
	}

	m := &cfg.Mint
	if m.DefaultBackend == "" {
		m.DefaultBackend = "underdog"
	}
	if m.Pacing == 0 {
		m.Pacing = 500 * time.Millisecond
	}
	if m.Concurrency == 0 {
		m.Concurrency = 1
	}
	if m.CallTimeout == 0 {
		m.CallTimeout = 30 * time.Second
	}
	if m.ReadRetries == 0 {
		m.ReadRetries = 3
	}
	if m.ReadBaseDelay == 0 {
		m.ReadBaseDelay = time.Second
	}

	if cfg.Chain.ConfirmAttempts == 0 {
		cfg.Chain.ConfirmAttempts = 30
	}
	if cfg.Chain.ConfirmInterval == 0 {
		cfg.Chain.ConfirmInterval = 2 * time.Second
	}
	if cfg.Redis.StatusTTL == 0 {
		cfg.Redis.StatusTTL = 10 * time.Minute
	}
	if cfg.Sync.Cron == "" {
		cfg.Sync.Cron = "@every 30s"
	}
}

// RaffleConstants 构建只读的玩法参数，供 OddsEngine 与 MintOrchestrator 在构造时注入
func (c *Config) RaffleConstants() model.RaffleConstants {
	rc := model.DefaultRaffleConstants()
	r := c.Raffle
	rc.TotalSupply = r.TotalSupply
	rc.DevReserved = r.DevReserved
	rc.Rounds = r.Rounds
	rc.EliminationRate = r.EliminationRate
	rc.FinalSurvivors = r.FinalSurvivors
	rc.MinMint = r.MinMint
	rc.MaxMint = r.MaxMint
	if len(r.Prizes) > 0 {
		rc.Prizes = make([]model.PrizeTier, 0, len(r.Prizes))
		for _, p := range r.Prizes {
			rc.Prizes = append(rc.Prizes, model.PrizeTier{
				Label:   p.Label,
				Kind:    model.TierKind(p.Kind),
				Value:   p.Value,
				Winners: p.Winners,
			})
		}
	}
	if len(r.Breakpoints) > 0 {
		rc.Breakpoints = make([]model.Breakpoint, 0, len(r.Breakpoints))
		for _, b := range r.Breakpoints {
			rc.Breakpoints = append(rc.Breakpoints, model.Breakpoint{UpTo: b.UpTo, Level: b.Level, Message: b.Message})
		}
	}
	return rc
}

// Validate 拒绝不可能的玩法参数
func (c *Config) Validate() error {
	r := c.Raffle
	var errs []error
	if r.TotalSupply-r.DevReserved <= 0 {
		errs = append(errs, fmt.Errorf("raffle: 公开票数必须大于 0（total_supply=%d, dev_reserved=%d）", r.TotalSupply, r.DevReserved))
	}
	if r.EliminationRate <= 0 || r.EliminationRate >= 1 {
		errs = append(errs, fmt.Errorf("raffle: elimination_rate 必须在 (0,1) 内，当前 %v", r.EliminationRate))
	}
	if r.Rounds <= 0 {
		errs = append(errs, fmt.Errorf("raffle: rounds 必须大于 0"))
	}
	if r.FinalSurvivors <= 0 {
		errs = append(errs, fmt.Errorf("raffle: final_survivors 必须大于 0"))
	}
	if r.MinMint < 1 {
		errs = append(errs, fmt.Errorf("raffle: min_mint 不能小于 1"))
	}
	if r.MaxMint > 0 && r.MaxMint < r.MinMint {
		errs = append(errs, fmt.Errorf("raffle: max_mint(%d) 小于 min_mint(%d)", r.MaxMint, r.MinMint))
	}
	for _, p := range r.Prizes {
		switch model.TierKind(p.Kind) {
		case model.TierSurvivorDraw, model.TierPoolShare, model.TierEliminatedDraw:
		default:
			errs = append(errs, fmt.Errorf("raffle: 奖项 %s 的 kind %q 不支持", p.Label, p.Kind))
		}
	}
	if c.Mint.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("mint: concurrency 不能为负"))
	}
	return errors.Join(errs...)
}

// Minter 获取指定铸造后端配置
func (c *Config) Minter(name string) (MinterConfig, bool) {
	m, ok := c.Minters[name]
	return m, ok
}

// GetGORMConfig 获取数据库配置（适配GORM）
func (d *DatabaseConfig) GetGORMConfig() gorm.Config {
	return gorm.Config{} // 可扩展：添加日志、命名策略等
}
