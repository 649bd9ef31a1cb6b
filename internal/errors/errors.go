package errors

import (
	stdErrors "errors"
	"fmt"
	"log/slog"
)

// Code 标识客户端返回给调用方的错误类别。
type Code string

const (
	CodeUnknown            Code = "UNKNOWN"
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeConnectionFailure  Code = "CONNECTION_FAILURE"
	CodeArtifactNotFound   Code = "ARTIFACT_NOT_FOUND"
	CodeInsufficientFunds  Code = "INSUFFICIENT_FUNDS"
	CodeTransportFailure   Code = "TRANSPORT_FAILURE"
	CodeInvalidDID         Code = "INVALID_DID"
	CodeRemoteFetchFailure Code = "REMOTE_FETCH_FAILURE"
	CodeStorageFailure     Code = "STORAGE_FAILURE"
	CodeInitFailure        Code = "INITIALIZATION_FAILURE"
)

type codeInfo struct {
	text      string
	level     slog.Level
	retryable bool
}

// 调用方输入类错误记为 Info，节点与存储故障记为 Warn 或 Error。
var codes = map[Code]codeInfo{
	CodeUnknown:            {text: "未知错误", level: slog.LevelError},
	CodeInvalidArgument:    {text: "参数无效", level: slog.LevelInfo},
	CodeConnectionFailure:  {text: "连接节点失败", level: slog.LevelError},
	CodeArtifactNotFound:   {text: "合约构件不存在", level: slog.LevelError},
	CodeInsufficientFunds:  {text: "余额不足", level: slog.LevelInfo},
	CodeTransportFailure:   {text: "交易发送失败", level: slog.LevelWarn, retryable: true},
	CodeInvalidDID:         {text: "DID 无效", level: slog.LevelInfo},
	CodeRemoteFetchFailure: {text: "远程 Agent 请求失败", level: slog.LevelWarn, retryable: true},
	CodeStorageFailure:     {text: "存储访问失败", level: slog.LevelError, retryable: true},
	CodeInitFailure:        {text: "组件未初始化", level: slog.LevelWarn},
}

func (c Code) info() codeInfo {
	if info, ok := codes[c]; ok {
		return info
	}
	return codes[CodeUnknown]
}

// Retryable 报告该类错误在重新发起请求后是否可能成功。
func (c Code) Retryable() bool { return c.info().retryable }

// Level 返回记录该类错误时使用的日志级别。
func (c Code) Level() slog.Level { return c.info().level }

// Error 携带错误码、出错时的上下文字段以及底层原因。
type Error struct {
	code      Code
	message   string
	cause     error
	metadata  map[string]string
	retryable *bool
}

// Option 定义可选配置。
type Option func(*Error)

// WithMetadata 附加额外信息，例如节点地址、合约名或 HTTP 状态码。
func WithMetadata(key, value string) Option {
	return func(e *Error) {
		if e.metadata == nil {
			e.metadata = make(map[string]string)
		}
		e.metadata[key] = value
	}
}

// WithRetryable 覆盖错误码默认的可重试属性。
func WithRetryable(retryable bool) Option {
	return func(e *Error) {
		e.retryable = &retryable
	}
}

// New 创建错误。message 为空时使用错误码的默认描述。
func New(code Code, message string, opts ...Option) *Error {
	if message == "" {
		message = code.info().text
	}
	e := &Error{code: code, message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Wrap 以指定错误码包裹 cause。
func Wrap(code Code, cause error, message string, opts ...Option) *Error {
	e := New(code, message, opts...)
	e.cause = cause
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is 使 errors.Is 按错误码匹配。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.code == t.code
}

// Code 返回错误码。
func (e *Error) Code() Code { return e.code }

// Message 返回不含原因的错误描述。
func (e *Error) Message() string { return e.message }

// Metadata 返回附加信息的副本。
func (e *Error) Metadata() map[string]string {
	if len(e.metadata) == 0 {
		return nil
	}
	clone := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		clone[k] = v
	}
	return clone
}

// Retryable 判断是否可重试。
func (e *Error) Retryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	return e.code.Retryable()
}

// From 从错误链中取出第一个 *Error。
func From(err error) (*Error, bool) {
	var target *Error
	if stdErrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf 返回错误链中的错误码，非编码错误视为 UNKNOWN。
func CodeOf(err error) Code {
	if e, ok := From(err); ok {
		return e.code
	}
	return CodeUnknown
}

// RetryableError 判断任意 error 是否可重试。
func RetryableError(err error) bool {
	if e, ok := From(err); ok {
		return e.Retryable()
	}
	return false
}

// IsCode 判断错误链中是否存在指定错误码。
func IsCode(err error, code Code) bool {
	return stdErrors.Is(err, &Error{code: code})
}

// LevelOf 返回记录 err 时应使用的日志级别，nil 对应 Info。
func LevelOf(err error) slog.Level {
	if err == nil {
		return slog.LevelInfo
	}
	return CodeOf(err).Level()
}
