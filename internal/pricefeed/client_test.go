package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ChopRaffle/internal/config"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpotUSD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "solana", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))
		_, _ = w.Write([]byte(`{"solana":{"usd":142.5}}`))
	}))
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	c := NewClient(&config.PriceFeedConfig{BaseURL: srv.URL, APIKey: "demo-key"}, logger)

	price, err := c.SpotUSD(context.Background(), "sol")
	require.NoError(t, err)
	assert.Equal(t, 142.5, price)

	usd, err := c.SpotUSD(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.0, usd)
}

func TestSpotUSDErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") == "missing" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	c := NewClient(&config.PriceFeedConfig{BaseURL: srv.URL}, logger)
	_, err := c.SpotUSD(context.Background(), "SOL")
	assert.ErrorContains(t, err, "429")

	_, err = c.SpotUSD(context.Background(), "ETH")
	assert.Error(t, err)

	missing := NewClient(&config.PriceFeedConfig{BaseURL: srv.URL, CoinID: "missing"}, logger)
	_, err = missing.SpotUSD(context.Background(), "SOL")
	assert.ErrorContains(t, err, "未返回")
}
