package listener

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ChopRaffle/internal/model"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *countingRefresher) Refresh(context.Context) (*model.RaffleStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &model.RaffleStatus{TotalMinted: uint64(6250 + r.calls)}, nil
}

func TestRaffleWatcherStartRefreshesImmediately(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := &countingRefresher{}
	w := NewRaffleWatcher(r, "@every 1h", logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	require.NotNil(t, w.Last())
	assert.Equal(t, uint64(6251), w.Last().TotalMinted)
}

func TestRaffleWatcherRejectsBadSpec(t *testing.T) {
	logger, _ := test.NewNullLogger()
	w := NewRaffleWatcher(&countingRefresher{}, "every now and then", logger)
	assert.Error(t, w.Start(context.Background()))
}

func TestRaffleWatcherKeepsLastOnFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := &countingRefresher{}
	w := NewRaffleWatcher(r, "@every 1h", logger)

	w.tick(context.Background())
	r.err = errors.New("rpc down")
	w.tick(context.Background())

	require.NotNil(t, w.Last())
	assert.Equal(t, uint64(6251), w.Last().TotalMinted)
	assert.Equal(t, 2, r.calls)
}
