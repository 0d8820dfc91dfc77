package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSpot struct {
	price float64
	err   error
}

func (s stubSpot) SpotUSD(context.Context, string) (float64, error) { return s.price, s.err }

func TestFixedRateConverter(t *testing.T) {
	c := NewFixedRateConverter(100)
	usd, err := c.ConvertToUSD(context.Background(), 0.005, "sol")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, usd, 1e-12)

	usd, err = c.ConvertToUSD(context.Background(), 3, "USDC")
	require.NoError(t, err)
	assert.Equal(t, 3.0, usd)

	_, err = c.ConvertToUSD(context.Background(), 1, "ETH")
	assert.Error(t, err)
}

func TestFeedConverterFallsBack(t *testing.T) {
	logger, hook := test.NewNullLogger()
	fixed := NewFixedRateConverter(100)

	live := NewFeedConverter(stubSpot{price: 150}, fixed, logger)
	usd, err := live.ConvertToUSD(context.Background(), 0.01, "SOL")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, usd, 1e-12)

	down := NewFeedConverter(stubSpot{err: errors.New("timeout")}, fixed, logger)
	usd, err = down.ConvertToUSD(context.Background(), 0.01, "SOL")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, usd, 1e-12)
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "固定汇率")
}
