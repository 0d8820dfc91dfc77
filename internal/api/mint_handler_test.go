package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ChopRaffle/internal/interfaces"
	"ChopRaffle/internal/model"
	"ChopRaffle/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	result   *model.MintBatchResult
	err      error
	progress []model.Progress
	got      model.MintRequest
}

func (s *stubRunner) MintBatch(_ context.Context, req model.MintRequest, onProgress service.ProgressFunc) (*model.MintBatchResult, error) {
	s.got = req
	if onProgress != nil {
		for _, p := range s.progress {
			onProgress(p)
		}
	}
	return s.result, s.err
}

type noCheckers struct{}

func (noCheckers) StatusChecker(name string) (interfaces.ArtifactStatusChecker, error) {
	return nil, errors.New("unknown backend " + name)
}

func newMintRouter(runner mintRunner) *gin.Engine {
	r := gin.New()
	RegisterRoutes(r, Handlers{Mint: NewMintHandler(runner, nil, noCheckers{}, nullLogger())})
	return r
}

func postJSON(r http.Handler, url, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestMintSuccess(t *testing.T) {
	runner := &stubRunner{result: &model.MintBatchResult{TxID: "sig", Successes: 2, Assignment: model.TicketAssignment{Start: 101, Quantity: 2}}}
	w := postJSON(newMintRouter(runner), "/api/mint", `{"wallet":"w1","quantity":2,"backend":"underdog"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.MintRequest{Wallet: "w1", Quantity: 2, Backend: "underdog"}, runner.got)
	var res model.MintBatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, uint64(101), res.Assignment.Start)
}

func TestMintErrorMapping(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		code      int
		committed bool
		txID      string
	}{
		{"validation", &service.OrchestrationError{Stage: service.StageValidation, Err: errors.New("quantity 1 is below the minimum of 2")}, http.StatusBadRequest, false, ""},
		{"purchase", &service.OrchestrationError{Stage: service.StagePurchaseRecording, Err: interfaces.NewCallError(interfaces.KindProgramRejected, "mint_ticket_v2", errors.New("custom error"))}, http.StatusBadGateway, false, ""},
		{"range", &service.OrchestrationError{Stage: service.StageRangeResolution, Committed: true, TxID: "sig-9", Err: errors.New("lagging")}, http.StatusConflict, true, "sig-9"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(newMintRouter(&stubRunner{err: tc.err}), "/api/mint", `{"wallet":"w1","quantity":3}`)
			require.Equal(t, tc.code, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			if tc.code == http.StatusInternalServerError {
				return
			}
			assert.Equal(t, tc.committed, body["committed"])
			if tc.txID != "" {
				assert.Equal(t, tc.txID, body["tx_id"])
			}
		})
	}
}

func TestMintRejectsBadBody(t *testing.T) {
	runner := &stubRunner{}
	w := postJSON(newMintRouter(runner), "/api/mint", `{"quantity":2}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, runner.got.Wallet)
}

func TestMintStreamEmitsProgressThenResult(t *testing.T) {
	runner := &stubRunner{
		progress: []model.Progress{{Label: "purchase recorded", Current: 1, Total: 5}, {Label: "range resolved", Current: 2, Total: 5}},
		result:   &model.MintBatchResult{TxID: "sig"},
	}
	w := postJSON(newMintRouter(runner), "/api/mint/stream", `{"wallet":"w1","quantity":2}`)

	require.Equal(t, http.StatusOK, w.Code)
	out := w.Body.String()
	assert.Equal(t, 2, strings.Count(out, "event:progress"))
	assert.Contains(t, out, "event:result")
	assert.Less(t, strings.LastIndex(out, "event:progress"), strings.Index(out, "event:result"))
}

func TestNFTStatusUnknownBackend(t *testing.T) {
	w := httptest.NewRecorder()
	newMintRouter(&stubRunner{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nfts/crossmint/1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWalletTicketsWithoutHistory(t *testing.T) {
	w := httptest.NewRecorder()
	newMintRouter(&stubRunner{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/wallets/w1/tickets", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
