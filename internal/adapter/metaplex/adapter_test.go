package metaplex

import (
	"testing"

	"ChopRaffle/internal/adapter"
	"ChopRaffle/internal/config"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimatedCost(t *testing.T) {
	logger, _ := test.NewNullLogger()
	a := NewMetaplexAdapter(&config.MinterConfig{CostLamports: 15115600}, nil, types.NewAccount(), logger)
	assert.InDelta(t, 0.0151156, a.EstimatedCost(), 1e-12)
	assert.Equal(t, Name, a.GetName())
}

func TestFactoryRequiresAuthority(t *testing.T) {
	logger, _ := test.NewNullLogger()
	factory, ok := adapter.GetFactory(Name)
	require.True(t, ok)

	_, err := factory(&config.MinterConfig{}, &config.ChainConfig{}, logger)
	assert.ErrorContains(t, err, "authority_keypair")

	_, err = factory(&config.MinterConfig{AuthorityKeypair: "/nonexistent/authority.json"}, &config.ChainConfig{}, logger)
	assert.Error(t, err)
}
