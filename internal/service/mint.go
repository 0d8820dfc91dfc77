package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ChopRaffle/internal/config"
	"ChopRaffle/internal/interfaces"
	"ChopRaffle/internal/metrics"
	"ChopRaffle/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// fixedSteps 购票、区间解析、完成三个固定进度步骤
const fixedSteps = 3

var errStaleTotal = errors.New("running total has not caught up with the purchase yet")

// MinterSource 按名称解析铸造后端及其元数据模板
type MinterSource interface {
	Resolve(name string) (interfaces.ArtifactMinter, interfaces.MetadataTemplate, error)
}

// BatchRecorder 批量结果落库（尽力而为，失败不影响返回结果）
type BatchRecorder interface {
	RecordBatch(ctx context.Context, result *model.MintBatchResult) error
	RecordUnresolved(ctx context.Context, batchUUID, wallet, backend, txID string, quantity int, cause error) error
}

// ProgressFunc 进度回调，可为 nil
type ProgressFunc func(model.Progress)

// OrchestratorOptions 编排参数
type OrchestratorOptions struct {
	MinMint       int
	MaxMint       int
	Pacing        time.Duration
	Concurrency   int
	CallTimeout   time.Duration
	ReadRetries   int
	ReadBaseDelay time.Duration
}

// OrchestratorOptionsFromConfig 从全局配置构建编排参数
func OrchestratorOptionsFromConfig(cfg *config.Config) OrchestratorOptions {
	return OrchestratorOptions{
		MinMint:       cfg.Raffle.MinMint,
		MaxMint:       cfg.Raffle.MaxMint,
		Pacing:        cfg.Mint.Pacing,
		Concurrency:   cfg.Mint.Concurrency,
		CallTimeout:   cfg.Mint.CallTimeout,
		ReadRetries:   cfg.Mint.ReadRetries,
		ReadBaseDelay: cfg.Mint.ReadBaseDelay,
	}
}

// MintOrchestrator 购票 + 逐张铸造 NFT 的批量编排
//
// 状态：校验 → 链上购票（唯一权威副作用，不重试）→ 读取 total_minted 推导票号区间（指数退避重试）
// → 按票号升序逐张铸造（单张失败不影响后续）→ 汇总。购票成功后一定返回 MintBatchResult。
type MintOrchestrator struct {
	program  interfaces.RaffleProgram
	wallets  interfaces.WalletProvider
	minters  MinterSource
	recorder BatchRecorder
	opts     OrchestratorOptions
	locks    *walletLocks
	logger   *logrus.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewMintOrchestrator 创建编排器。recorder 可为 nil
func NewMintOrchestrator(program interfaces.RaffleProgram, wallets interfaces.WalletProvider, minters MinterSource, recorder BatchRecorder, opts OrchestratorOptions, logger *logrus.Logger) *MintOrchestrator {
	if opts.MinMint < 1 {
		opts.MinMint = 1
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}
	if opts.ReadRetries < 1 {
		opts.ReadRetries = 3
	}
	return &MintOrchestrator{
		program:  program,
		wallets:  wallets,
		minters:  minters,
		recorder: recorder,
		opts:     opts,
		locks:    newWalletLocks(),
		logger:   logger,
		sleep:    sleepContext,
		now:      time.Now,
	}
}

// MinMint 最小购买数量
func (o *MintOrchestrator) MinMint() int {
	return o.opts.MinMint
}

// MintBatch 执行一次批量购票铸造。只有校验、购票、区间解析失败会返回 *OrchestrationError；
// 单张 NFT 失败记录在结果中。ctx 取消只在两张票之间生效，不会中断进行中的外部调用
func (o *MintOrchestrator) MintBatch(ctx context.Context, req model.MintRequest, onProgress ProgressFunc) (*model.MintBatchResult, error) {
	started := o.now()
	logger := o.logger.WithFields(logrus.Fields{"wallet": req.Wallet, "quantity": req.Quantity, "backend": req.Backend})

	// 1. 校验（无副作用）
	wallet, minter, tpl, backendName, err := o.validate(req)
	if err != nil {
		logger.WithError(err).Warn("批量铸造请求被拒绝")
		metrics.RecordBatch("rejected", o.now().Sub(started))
		return nil, err
	}

	// 同一钱包串行
	release, err := o.locks.Acquire(ctx, wallet.PublicKey())
	if err != nil {
		metrics.RecordBatch("rejected", o.now().Sub(started))
		return nil, &OrchestrationError{Stage: StageValidation, Err: fmt.Errorf("等待同钱包的上一批铸造: %w", err)}
	}
	defer release()
	if err := ctx.Err(); err != nil {
		metrics.RecordBatch("rejected", o.now().Sub(started))
		return nil, &OrchestrationError{Stage: StageValidation, Err: err}
	}

	q := req.Quantity
	totalSteps := q + fixedSteps
	progress := newProgressReporter(onProgress, totalSteps)
	batchUUID := uuid.New().String()
	logger = logger.WithFields(logrus.Fields{"batch_uuid": batchUUID, "backend": backendName})

	// 购票前读取基线用于判断购票后读数是否滞后，失败不影响流程
	baseline, hasBaseline := o.readBaseline(ctx)

	// 2. 链上购票，不重试
	callCtx, cancel := o.callContext(ctx)
	txID, err := o.program.RecordPurchase(callCtx, wallet, q)
	cancel()
	if err != nil {
		logger.WithError(err).WithField("tx_id", txID).Error("链上购票失败，未分配任何票号")
		metrics.RecordBatch("purchase_failed", o.now().Sub(started))
		return nil, &OrchestrationError{Stage: StagePurchaseRecording, TxID: txID, Err: err}
	}
	logger = logger.WithField("tx_id", txID)
	logger.Info("链上购票成功")
	progress.step("purchase recorded")

	// 3. 解析票号区间（购票已生效，之后不再响应取消）
	assignment, err := o.resolveRange(ctx, q, baseline, hasBaseline)
	if err != nil {
		logger.WithError(err).Error("购票已上链但票号区间解析失败，需要人工对账")
		o.recordUnresolved(ctx, batchUUID, wallet.PublicKey(), backendName, txID, q, err)
		metrics.RecordBatch("range_unresolved", o.now().Sub(started))
		return nil, &OrchestrationError{Stage: StageRangeResolution, Committed: true, TxID: txID, Err: err}
	}
	logger = logger.WithFields(logrus.Fields{"start": assignment.Start, "end": assignment.End()})
	progress.step("range resolved")

	// 4. 逐张铸造
	var outcomes []model.NftMintOutcome
	var canceled bool
	if o.opts.Concurrency > 1 && q > 1 {
		outcomes, canceled = o.mintPooled(ctx, wallet.PublicKey(), assignment, minter, tpl, backendName, progress, logger)
	} else {
		outcomes, canceled = o.mintSequential(ctx, wallet.PublicKey(), assignment, minter, tpl, backendName, progress, logger)
	}

	// 5. 汇总
	result := o.aggregate(batchUUID, wallet.PublicKey(), backendName, txID, assignment, outcomes, minter.EstimatedCost(), canceled)
	result.StartedAt = started
	result.FinishedAt = o.now()
	progress.finish("completed")

	o.recordBatch(ctx, result, logger)
	outcome := "completed"
	switch {
	case result.Canceled:
		outcome = "canceled"
	case result.Failures > 0:
		outcome = "partial"
	}
	metrics.RecordBatch(outcome, result.FinishedAt.Sub(started))
	logger.WithFields(logrus.Fields{
		"successes": result.Successes,
		"failures":  result.Failures,
		"canceled":  result.Canceled,
	}).Info("批量铸造完成")
	return result, nil
}

func (o *MintOrchestrator) validate(req model.MintRequest) (interfaces.Wallet, interfaces.ArtifactMinter, interfaces.MetadataTemplate, string, error) {
	var tpl interfaces.MetadataTemplate
	if req.Quantity < o.opts.MinMint {
		return nil, nil, tpl, "", validationError("quantity %d is below the minimum of %d", req.Quantity, o.opts.MinMint)
	}
	if o.opts.MaxMint > 0 && req.Quantity > o.opts.MaxMint {
		return nil, nil, tpl, "", validationError("quantity %d exceeds the maximum of %d", req.Quantity, o.opts.MaxMint)
	}
	wallet, err := o.wallets.Resolve(req.Wallet)
	if err != nil {
		return nil, nil, tpl, "", validationError("resolve wallet: %w", err)
	}
	if wallet == nil || !wallet.Connected() {
		return nil, nil, tpl, "", validationError("wallet %s is not connected", req.Wallet)
	}
	minter, tpl, err := o.minters.Resolve(req.Backend)
	if err != nil {
		return nil, nil, tpl, "", validationError("%w", err)
	}
	return wallet, minter, tpl, minter.GetName(), nil
}

// callContext 外部调用使用脱离调用方取消的 ctx，只受单次超时约束
func (o *MintOrchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), o.opts.CallTimeout)
}

func (o *MintOrchestrator) readBaseline(ctx context.Context) (uint64, bool) {
	callCtx, cancel := o.callContext(ctx)
	defer cancel()
	total, err := o.program.ReadRunningTotal(callCtx)
	if err != nil {
		o.logger.WithError(err).Debug("购票前读取 total_minted 失败，跳过滞后检测")
		return 0, false
	}
	return total, true
}

// resolveRange startingNumber = total - quantity + 1。读数小于基线+quantity 视为节点滞后并重试
func (o *MintOrchestrator) resolveRange(ctx context.Context, quantity int, baseline uint64, hasBaseline bool) (model.TicketAssignment, error) {
	q := uint64(quantity)
	var total uint64
	policy := NewRetryPolicy(o.opts.ReadRetries, o.opts.ReadBaseDelay)
	policy.sleep = o.sleep
	policy.OnRetry = func(attempt int, err error) {
		reason := string(interfaces.KindOf(err))
		if errors.Is(err, errStaleTotal) {
			reason = "stale"
		}
		metrics.RecordRangeReadFailure(reason)
		o.logger.WithError(err).WithField("attempt", attempt).Warn("读取 total_minted 失败")
	}

	detached := context.WithoutCancel(ctx)
	err := policy.Execute(detached, func(c context.Context) error {
		callCtx, cancel := context.WithTimeout(c, o.opts.CallTimeout)
		defer cancel()
		t, err := o.program.ReadRunningTotal(callCtx)
		if err != nil {
			return err
		}
		if t < q || (hasBaseline && t < baseline+q) {
			return fmt.Errorf("%w: total=%d baseline=%d quantity=%d", errStaleTotal, t, baseline, q)
		}
		total = t
		return nil
	})
	if err != nil {
		return model.TicketAssignment{}, err
	}
	return model.TicketAssignment{Start: total - q + 1, Quantity: quantity}, nil
}

func (o *MintOrchestrator) mintSequential(ctx context.Context, wallet string, a model.TicketAssignment, minter interfaces.ArtifactMinter, tpl interfaces.MetadataTemplate, backend string, progress *progressReporter, logger *logrus.Entry) ([]model.NftMintOutcome, bool) {
	numbers := a.Numbers()
	outcomes := make([]model.NftMintOutcome, 0, len(numbers))
	for i, n := range numbers {
		// 间隔只出现在两次调用之间
		if i > 0 {
			if err := o.sleep(ctx, o.opts.Pacing); err != nil {
				outcomes = append(outcomes, canceledOutcomes(numbers[i:])...)
				logger.WithField("remaining", len(numbers)-i).Warn("批量铸造被取消，剩余票号未铸造 NFT（票仍有效）")
				return outcomes, true
			}
		}
		if ctx.Err() != nil {
			outcomes = append(outcomes, canceledOutcomes(numbers[i:])...)
			logger.WithField("remaining", len(numbers)-i).Warn("批量铸造被取消，剩余票号未铸造 NFT（票仍有效）")
			return outcomes, true
		}
		outcomes = append(outcomes, o.mintOne(ctx, wallet, n, minter, tpl, backend, logger))
		progress.step(fmt.Sprintf("ticket #%d", n))
	}
	return outcomes, false
}

// mintPooled 有界并发：errgroup 限制并发数，rate.Limiter 控制调用节奏，结果按下标写回保持升序
func (o *MintOrchestrator) mintPooled(ctx context.Context, wallet string, a model.TicketAssignment, minter interfaces.ArtifactMinter, tpl interfaces.MetadataTemplate, backend string, progress *progressReporter, logger *logrus.Entry) ([]model.NftMintOutcome, bool) {
	numbers := a.Numbers()
	outcomes := make([]model.NftMintOutcome, len(numbers))
	limit := rate.Inf
	if o.opts.Pacing > 0 {
		limit = rate.Every(o.opts.Pacing)
	}
	limiter := rate.NewLimiter(limit, 1)

	var mu sync.Mutex
	canceled := false
	markCanceled := func(i int) {
		outcomes[i] = canceledOutcomes(numbers[i : i+1])[0]
		mu.Lock()
		canceled = true
		mu.Unlock()
	}

	// 不使用 WithContext：单张失败不取消其它票
	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)
	for i, n := range numbers {
		if ctx.Err() != nil {
			markCanceled(i)
			continue
		}
		i, n := i, n
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				markCanceled(i)
				return nil
			}
			outcomes[i] = o.mintOne(ctx, wallet, n, minter, tpl, backend, logger)
			progress.step(fmt.Sprintf("ticket #%d", n))
			return nil
		})
	}
	_ = g.Wait()
	if canceled {
		logger.Warn("批量铸造被取消，部分票号未铸造 NFT（票仍有效）")
	}
	return outcomes, canceled
}

func (o *MintOrchestrator) mintOne(ctx context.Context, wallet string, ticket uint64, minter interfaces.ArtifactMinter, tpl interfaces.MetadataTemplate, backend string, logger *logrus.Entry) model.NftMintOutcome {
	callCtx, cancel := o.callContext(ctx)
	defer cancel()
	receipt, err := minter.CreateArtifact(callCtx, wallet, ticket, tpl.For(ticket))
	if err != nil {
		kind := interfaces.KindOf(err)
		metrics.RecordArtifact(backend, false, string(kind))
		logger.WithError(err).WithFields(logrus.Fields{"ticket": ticket, "kind": kind}).Warn("NFT 铸造失败，票号仍有效")
		return model.NftMintOutcome{TicketNumber: ticket, Error: err.Error(), ErrorKind: string(kind)}
	}
	metrics.RecordArtifact(backend, true, "")
	out := model.NftMintOutcome{TicketNumber: ticket, Success: true}
	if receipt != nil {
		out.ExternalID = receipt.ExternalID
		out.MintAddress = receipt.MintAddress
		out.TxID = receipt.TxID
	}
	return out
}

func canceledOutcomes(numbers []uint64) []model.NftMintOutcome {
	out := make([]model.NftMintOutcome, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, model.NftMintOutcome{
			TicketNumber: n,
			Error:        "canceled before NFT creation was attempted",
			ErrorKind:    string(interfaces.KindCanceled),
		})
	}
	return out
}

func (o *MintOrchestrator) aggregate(batchUUID, wallet, backend, txID string, a model.TicketAssignment, outcomes []model.NftMintOutcome, unitCost float64, canceled bool) *model.MintBatchResult {
	res := &model.MintBatchResult{
		BatchUUID:  batchUUID,
		Wallet:     wallet,
		Backend:    backend,
		TxID:       txID,
		Assignment: a,
		Outcomes:   outcomes,
		Canceled:   canceled,
	}
	for _, oc := range outcomes {
		if oc.Success {
			res.Successes++
		} else {
			res.Failures++
		}
	}
	cost, _ := decimal.NewFromFloat(unitCost).Mul(decimal.NewFromInt(int64(res.Successes))).Float64()
	res.EstimatedCost = cost
	if res.Failures > 0 {
		res.Note = fmt.Sprintf("%d of %d NFT creations failed; raffle entries #%d-#%d remain valid", res.Failures, a.Quantity, a.Start, a.End())
	}
	return res
}

func (o *MintOrchestrator) recordBatch(ctx context.Context, result *model.MintBatchResult, logger *logrus.Entry) {
	if o.recorder == nil {
		return
	}
	callCtx, cancel := o.callContext(ctx)
	defer cancel()
	if err := o.recorder.RecordBatch(callCtx, result); err != nil {
		logger.WithError(err).Warn("批量结果落库失败（不影响返回结果）")
	}
}

func (o *MintOrchestrator) recordUnresolved(ctx context.Context, batchUUID, wallet, backend, txID string, quantity int, cause error) {
	if o.recorder == nil {
		return
	}
	callCtx, cancel := o.callContext(ctx)
	defer cancel()
	if err := o.recorder.RecordUnresolved(callCtx, batchUUID, wallet, backend, txID, quantity, cause); err != nil {
		o.logger.WithError(err).WithField("tx_id", txID).Error("区间解析失败记录落库失败")
	}
}

// progressReporter 串行化进度回调（并发模式下也保证 current 单调递增）
type progressReporter struct {
	mu      sync.Mutex
	fn      ProgressFunc
	current int
	total   int
}

func newProgressReporter(fn ProgressFunc, total int) *progressReporter {
	return &progressReporter{fn: fn, total: total}
}

func (p *progressReporter) step(label string) {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	p.fn(model.Progress{Label: label, Current: p.current, Total: p.total})
}

// finish 完成步骤总是 total/total（取消时跳过的票不单独上报）
func (p *progressReporter) finish(label string) {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.total
	p.fn(model.Progress{Label: label, Current: p.total, Total: p.total})
}
