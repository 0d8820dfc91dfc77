package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ChopRaffle/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
server:
  port: 9090
raffle:
  total_supply: 250000
  dev_reserved: 6250
minters:
  underdog:
    base_url: "https://api.underdogprotocol.com/v2"
    project_id: "3Jsk5s"
mint:
  pacing: 250ms
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfigFromAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15, cfg.Raffle.Rounds)
	assert.Equal(t, 0.5, cfg.Raffle.EliminationRate)
	assert.Equal(t, 2, cfg.Raffle.MinMint)
	assert.Equal(t, "0.005", cfg.Raffle.EarlyBirdPriceSOL)
	assert.Equal(t, uint64(100000), cfg.Raffle.EarlyBirdThreshold)
	assert.Equal(t, 250*time.Millisecond, cfg.Mint.Pacing)
	assert.Equal(t, "underdog", cfg.Mint.DefaultBackend)
	assert.Equal(t, 3, cfg.Mint.ReadRetries)
	assert.Equal(t, time.Second, cfg.Mint.ReadBaseDelay)
	assert.Equal(t, "@every 30s", cfg.Sync.Cron)
	assert.Equal(t, 10*time.Minute, cfg.Redis.StatusTTL)
}

func TestLoadConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("UNDERDOG_AUTH_TOKEN", "secret-token")
	t.Setenv("SOLANA_RPC_URL", "https://rpc.example")
	t.Setenv("DATABASE_DSN", "postgres://u:p@db:5432/chop")

	cfg, err := LoadConfigFrom(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	m, ok := cfg.Minter("underdog")
	require.True(t, ok)
	assert.Equal(t, "secret-token", m.AuthToken)
	assert.Equal(t, "https://rpc.example", cfg.Chain.RPCURL)
	assert.Equal(t, "postgres://u:p@db:5432/chop", cfg.Database.DSN)
}

func TestLoadConfigFromMissingFile(t *testing.T) {
	_, err := LoadConfigFrom(t.TempDir())
	assert.Error(t, err)
}

func TestValidateRejectsImpossibleConstants(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no public allocation", func(c *Config) { c.Raffle.DevReserved = c.Raffle.TotalSupply }},
		{"rate zero", func(c *Config) { c.Raffle.EliminationRate = 0 }},
		{"rate one", func(c *Config) { c.Raffle.EliminationRate = 1 }},
		{"no rounds", func(c *Config) { c.Raffle.Rounds = 0 }},
		{"no finalists", func(c *Config) { c.Raffle.FinalSurvivors = 0 }},
		{"min mint", func(c *Config) { c.Raffle.MinMint = 0 }},
		{"max below min", func(c *Config) { c.Raffle.MaxMint = 1 }},
		{"bad prize kind", func(c *Config) { c.Raffle.Prizes = []PrizeConfig{{Label: "x", Kind: "jackpot"}} }},
		{"negative concurrency", func(c *Config) { c.Mint.Concurrency = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			require.NoError(t, cfg.Validate())
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRaffleConstants(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Raffle.Prizes = []PrizeConfig{{Label: "grand_prize", Kind: "survivor_draw", Value: 1000, Winners: 1}}
	cfg.Raffle.Breakpoints = []BreakpointConfig{{UpTo: 0, Level: "any", Message: "ok"}}

	rc := cfg.RaffleConstants()
	assert.Equal(t, 243750, rc.PublicAllocation())
	require.Len(t, rc.Prizes, 1)
	assert.Equal(t, model.TierSurvivorDraw, rc.Prizes[0].Kind)
	require.Len(t, rc.Breakpoints, 1)
	assert.Equal(t, "any", rc.Breakpoints[0].Level)

	// 未配置奖项时使用默认奖项表
	empty := &Config{}
	applyDefaults(empty)
	assert.Len(t, empty.RaffleConstants().Prizes, len(model.DefaultPrizeTiers()))
}
