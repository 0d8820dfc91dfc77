package underdog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ChopRaffle/internal/config"
	"ChopRaffle/internal/interfaces"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, h http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewUnderdogAdapter(&config.MinterConfig{
		BaseURL:   srv.URL + "/v2",
		ProjectID: "3Jsk5s",
		AuthToken: "test-token",
		Timeout:   5,
	}, logger)
}

func TestCreateArtifact(t *testing.T) {
	var got map[string]any
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/projects/3Jsk5s/nfts", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactionId":"tx-9","nftId":42,"mintAddress":"Mint111"}`))
	})

	tpl := interfaces.MetadataTemplate{
		Symbol:      "CHOP",
		Description: "CHOPPED raffle ticket",
		ImageBase:   "https://choppedonsol.netlify.app/.netlify/functions/metadata",
		ExternalURL: "https://chopped.live",
	}
	receipt, err := a.CreateArtifact(context.Background(), "Wallet111", 101, tpl.For(101))
	require.NoError(t, err)
	assert.Equal(t, "42", receipt.ExternalID)
	assert.Equal(t, "Mint111", receipt.MintAddress)
	assert.Equal(t, "tx-9", receipt.TxID)

	assert.Equal(t, "CHOP #101", got["name"])
	assert.Equal(t, "CHOP", got["symbol"])
	assert.Equal(t, "Wallet111", got["receiver"])
	assert.Equal(t, "https://chopped.live", got["externalUrl"])
	assert.Equal(t, "https://choppedonsol.netlify.app/.netlify/functions/metadata?id=101", got["image"])
	attrs, ok := got["attributes"].([]any)
	require.True(t, ok)
	require.Len(t, attrs, 2)
	assert.Equal(t, map[string]any{"trait_type": "Number", "value": float64(101)}, attrs[0])
	assert.Equal(t, map[string]any{"trait_type": "Edition", "value": "Standard"}, attrs[1])
}

func TestCreateArtifactErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		status int
		kind   interfaces.ErrorKind
	}{
		{"rate limited", http.StatusTooManyRequests, interfaces.KindRateLimited},
		{"bad request", http.StatusBadRequest, interfaces.KindValidation},
		{"unauthorized", http.StatusUnauthorized, interfaces.KindValidation},
		{"server error", http.StatusBadGateway, interfaces.KindService},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			})
			_, err := a.CreateArtifact(context.Background(), "W", 1, interfaces.ArtifactMetadata{})
			require.Error(t, err)
			assert.Equal(t, tc.kind, interfaces.KindOf(err))
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestCreateArtifactNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	a := NewUnderdogAdapter(&config.MinterConfig{BaseURL: url, ProjectID: "p", Timeout: 1}, logger)
	_, err := a.CreateArtifact(context.Background(), "W", 1, interfaces.ArtifactMetadata{})
	require.Error(t, err)
	assert.Equal(t, interfaces.KindNetwork, interfaces.KindOf(err))
	assert.True(t, interfaces.IsTransient(err))
}

func TestStatus(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/projects/3Jsk5s/nfts/42", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":42,"status":"confirmed","mintAddress":"Mint111","ownerAddress":"Wallet111"}`))
	})
	st, err := a.Status(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", st.ExternalID)
	assert.Equal(t, "confirmed", st.Status)
	assert.Equal(t, "Wallet111", st.Owner)
}
