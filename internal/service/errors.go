package service

import (
	"errors"
	"fmt"
)

// Stage 批量铸造失败所处阶段
type Stage string

const (
	StageValidation        Stage = "validation"
	StagePurchaseRecording Stage = "purchase_recording"
	StageRangeResolution   Stage = "range_resolution"
)

var (
	// ErrValidation 请求未通过校验，未发生任何副作用
	ErrValidation = errors.New("mint request rejected")
	// ErrPurchaseRecording 链上购票失败，未分配任何票号
	ErrPurchaseRecording = errors.New("purchase recording failed")
	// ErrRangeResolution 购票已上链但读取 total_minted 失败，票号区间未知
	ErrRangeResolution = errors.New("ticket range resolution failed")
)

// OrchestrationError 批量铸造的硬失败。Committed 为 true 表示链上购票已生效（资金已扣）
type OrchestrationError struct {
	Stage     Stage
	Committed bool
	TxID      string
	Err       error
}

func (e *OrchestrationError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.sentinel().Error(), e.Err)
	if e.Committed {
		msg += fmt.Sprintf(" (purchase %s already committed on chain, tickets remain reserved)", e.TxID)
	} else if e.TxID != "" {
		msg += fmt.Sprintf(" (tx %s)", e.TxID)
	}
	return msg
}

// Unwrap 同时暴露阶段哨兵错误与底层错误
func (e *OrchestrationError) Unwrap() []error {
	return []error{e.sentinel(), e.Err}
}

func (e *OrchestrationError) sentinel() error {
	switch e.Stage {
	case StageValidation:
		return ErrValidation
	case StagePurchaseRecording:
		return ErrPurchaseRecording
	default:
		return ErrRangeResolution
	}
}

func validationError(format string, args ...any) *OrchestrationError {
	return &OrchestrationError{Stage: StageValidation, Err: fmt.Errorf(format, args...)}
}

func errWalletNotConnected(wallet string) error {
	return fmt.Errorf("wallet %s is not connected", wallet)
}
