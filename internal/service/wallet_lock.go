package service

import (
	"context"
	"sync"
)

// walletLocks 同一钱包的批量铸造串行执行，不同钱包互不影响。等待可被 ctx 取消
type walletLocks struct {
	mu    sync.Mutex
	locks map[string]*walletLock
}

type walletLock struct {
	ch   chan struct{}
	refs int
}

func newWalletLocks() *walletLocks {
	return &walletLocks{locks: make(map[string]*walletLock)}
}

// Acquire 获取钱包锁，返回释放函数
func (w *walletLocks) Acquire(ctx context.Context, wallet string) (func(), error) {
	w.mu.Lock()
	l, ok := w.locks[wallet]
	if !ok {
		l = &walletLock{ch: make(chan struct{}, 1)}
		w.locks[wallet] = l
	}
	l.refs++
	w.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.ch
				w.unref(wallet, l)
			})
		}, nil
	case <-ctx.Done():
		w.unref(wallet, l)
		return nil, ctx.Err()
	}
}

func (w *walletLocks) unref(wallet string, l *walletLock) {
	w.mu.Lock()
	defer w.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(w.locks, wallet)
	}
}

func (w *walletLocks) size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.locks)
}
