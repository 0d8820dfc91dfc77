package listener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ChopRaffle/internal/model"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StatusRefresher 读取链上状态并写入缓存
type StatusRefresher interface {
	Refresh(ctx context.Context) (*model.RaffleStatus, error)
}

// RaffleWatcher 按 sync.cron 定时刷新 Raffle 账户状态（只拉取，不订阅）
type RaffleWatcher struct {
	refresher StatusRefresher
	spec      string
	timeout   time.Duration
	logger    *logrus.Logger

	mu   sync.Mutex
	cron *cron.Cron
	last *model.RaffleStatus
}

// NewRaffleWatcher 创建状态刷新任务
func NewRaffleWatcher(refresher StatusRefresher, spec string, logger *logrus.Logger) *RaffleWatcher {
	return &RaffleWatcher{refresher: refresher, spec: spec, timeout: 15 * time.Second, logger: logger}
}

// Start 立即刷新一次，然后按 cron 表达式调度；ctx 结束时停止
func (w *RaffleWatcher) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(w.logger))))
	if _, err := c.AddFunc(w.spec, func() { w.tick(ctx) }); err != nil {
		return fmt.Errorf("解析 sync.cron %q 失败: %w", w.spec, err)
	}
	w.mu.Lock()
	w.cron = c
	w.mu.Unlock()

	w.tick(ctx)
	c.Start()
	w.logger.WithField("cron", w.spec).Info("RaffleWatcher 已启动")

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		w.logger.Info("RaffleWatcher 已停止")
	}()
	return nil
}

// Last 最近一次成功刷新的状态
func (w *RaffleWatcher) Last() *model.RaffleStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *RaffleWatcher) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	tctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	status, err := w.refresher.Refresh(tctx)
	if err != nil {
		// 单次失败不影响后续调度
		w.logger.WithError(err).Warn("刷新 Raffle 状态失败")
		return
	}
	w.mu.Lock()
	w.last = status
	w.mu.Unlock()
	w.logger.WithFields(logrus.Fields{"total_minted": status.TotalMinted, "phase": status.Phase}).Debug("Raffle 状态已刷新")
}
