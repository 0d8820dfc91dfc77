package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ChopRaffle/internal/config"
	"ChopRaffle/internal/model"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	state *model.RaffleState
	err   error
}

func (r stubReader) ReadRaffleState(context.Context) (*model.RaffleState, error) { return r.state, r.err }

type memoryCache struct {
	status *model.RaffleStatus
	sets   int
}

func (m *memoryCache) Get(context.Context) (*model.RaffleStatus, error) {
	if m.status == nil {
		return nil, nil
	}
	cp := *m.status
	return &cp, nil
}

func (m *memoryCache) Set(_ context.Context, s *model.RaffleStatus) error {
	cp := *s
	m.status = &cp
	m.sets++
	return nil
}

func testPricing(t *testing.T) Pricing {
	t.Helper()
	p, err := PricingFromConfig(&config.RaffleConfig{EarlyBirdThreshold: 100000, EarlyBirdPriceSOL: "0.005", RegularPriceSOL: "0.01"})
	require.NoError(t, err)
	return p
}

func newStatusService(t *testing.T, reader stubReader, cache StatusCache) *RaffleStatusService {
	logger, _ := test.NewNullLogger()
	s := NewRaffleStatusService(reader, cache, NewFixedRateConverter(100), model.DefaultRaffleConstants(), testPricing(t), logger)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func TestPhaseFor(t *testing.T) {
	p := testPricing(t)
	phase, price := p.PhaseFor(99999)
	assert.Equal(t, model.PhaseEarlyBird, phase)
	assert.Equal(t, "0.005", price.String())

	phase, price = p.PhaseFor(100000)
	assert.Equal(t, model.PhaseRegular, phase)
	assert.Equal(t, "0.01", price.String())
}

func TestStatusFromChainCaches(t *testing.T) {
	cache := &memoryCache{}
	s := newStatusService(t, stubReader{state: &model.RaffleState{TotalMinted: 120000, DevMintDone: true}}, cache)

	st := s.Status(context.Background())
	assert.False(t, st.Stale)
	assert.Equal(t, uint64(120000), st.TotalMinted)
	assert.Equal(t, uint64(130000), st.Remaining)
	assert.Equal(t, model.PhaseRegular, st.Phase)
	assert.Equal(t, uint64(10_000_000), st.PriceLamports)
	assert.Equal(t, 1, cache.sets)
}

func TestStatusFallsBackToCache(t *testing.T) {
	cache := &memoryCache{status: &model.RaffleStatus{TotalMinted: 7000, Phase: model.PhaseEarlyBird}}
	s := newStatusService(t, stubReader{err: errors.New("rpc down")}, cache)

	st := s.Status(context.Background())
	assert.True(t, st.Stale)
	assert.Equal(t, uint64(7000), st.TotalMinted)
}

func TestStatusFallsBackToDefaults(t *testing.T) {
	s := newStatusService(t, stubReader{err: errors.New("rpc down")}, nil)

	st := s.Status(context.Background())
	assert.True(t, st.Stale)
	assert.Equal(t, uint64(6250), st.TotalMinted)
	assert.True(t, st.DevMintDone)
	assert.Equal(t, model.PhaseEarlyBird, st.Phase)
	assert.Equal(t, uint64(5_000_000), st.PriceLamports)
}

func TestPriceFor(t *testing.T) {
	s := newStatusService(t, stubReader{}, nil)

	q, err := s.PriceFor(context.Background(), 3, 6250)
	require.NoError(t, err)
	assert.Equal(t, "0.015", q.TotalSOL)
	assert.Equal(t, uint64(15_000_000), q.TotalLamports)
	assert.InDelta(t, 0.5, q.UnitUSD, 1e-12)
	assert.InDelta(t, 1.5, q.TotalUSD, 1e-12)

	_, err = s.PriceFor(context.Background(), 0, 6250)
	assert.Error(t, err)
}

func TestPricingFromConfigRejectsBadPrice(t *testing.T) {
	_, err := PricingFromConfig(&config.RaffleConfig{EarlyBirdPriceSOL: "cheap", RegularPriceSOL: "0.01"})
	assert.Error(t, err)
}
