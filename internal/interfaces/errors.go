package interfaces

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind 外部调用失败的分类，在发起调用的边界处打标，上层不再解析错误字符串
type ErrorKind string

const (
	KindNetwork         ErrorKind = "network"          // 连接失败、超时
	KindRPC             ErrorKind = "rpc"              // RPC 节点返回错误
	KindProgramRejected ErrorKind = "program_rejected" // 链上程序执行失败
	KindRateLimited     ErrorKind = "rate_limited"     // 429
	KindValidation      ErrorKind = "validation"       // 请求参数被拒绝
	KindService         ErrorKind = "service"          // 第三方服务 5xx 或未知应答
	KindCanceled        ErrorKind = "canceled"         // 调用方取消，未发起
)

// CallError 带分类的外部调用错误
type CallError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *CallError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// NewCallError 创建分类错误
func NewCallError(kind ErrorKind, op string, err error) *CallError {
	return &CallError{Kind: kind, Op: op, Err: err}
}

// KindOf 取错误链上最近一层的分类；未打标的 context 错误视为 network（超时）或 canceled
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	return KindService
}

// IsTransient 是否值得重试（network / rpc / rate_limited）
func IsTransient(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindRPC, KindRateLimited:
		return true
	default:
		return false
	}
}
