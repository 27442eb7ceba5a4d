package lixi

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode 错误代码类型
type ErrorCode string

// 错误代码常量
const (
	// 系统级错误 (1000-1999)
	ErrCodeRedisConnection ErrorCode = "LIXI_1001"
	ErrCodeConfigInvalid   ErrorCode = "LIXI_1004"
	ErrCodeStorage         ErrorCode = "LIXI_1006"

	// 业务级错误 (2000-2999)
	ErrCodeInvalidParameters        ErrorCode = "LIXI_2000"
	ErrCodeInvalidRange             ErrorCode = "LIXI_2001"
	ErrCodeInvalidDenominationValue ErrorCode = "LIXI_2002"
	ErrCodeInvalidQuantity          ErrorCode = "LIXI_2003"
	ErrCodeDuplicateDenomination    ErrorCode = "LIXI_2004"
	ErrCodeDenominationNotFound     ErrorCode = "LIXI_2005"
	ErrCodeEmptyDenominations       ErrorCode = "LIXI_2006"
	ErrCodePoolExhausted            ErrorCode = "LIXI_2007"
	ErrCodeInvalidRetryAttempts     ErrorCode = "LIXI_2011"
	ErrCodeInvalidRetryInterval     ErrorCode = "LIXI_2012"

	// 状态机错误 (3000-3999)
	ErrCodeInvalidTransition ErrorCode = "LIXI_3000"
	ErrCodeNoCurrentPrize    ErrorCode = "LIXI_3001"
	ErrCodeUnknownAction     ErrorCode = "LIXI_3002"

	// 限流相关错误 (5000-5999)
	ErrCodeCircuitBreakerOpen ErrorCode = "LIXI_5002"

	// 状态相关错误 (6000-6999)
	ErrCodeRoomNotFound          ErrorCode = "LIXI_6000"
	ErrCodeStateCorrupted        ErrorCode = "LIXI_6003"
	ErrCodeSerializationFailed   ErrorCode = "LIXI_6004"
	ErrCodeDeserializationFailed ErrorCode = "LIXI_6005"
)

// ErrorSeverity 错误严重程度
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "critical"
	SeverityMedium   ErrorSeverity = "medium"
)

// LixiError 增强的错误类型
type LixiError struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	Severity  ErrorSeverity  `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	Operation string         `json:"operation,omitempty"`
	Cause     error          `json:"-"`
	Retryable bool           `json:"retryable"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Error 实现 error 接口
func (e *LixiError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap 接口
func (e *LixiError) Unwrap() error {
	return e.Cause
}

// Is 实现 errors.Is 接口, 按错误代码比较
func (e *LixiError) Is(target error) bool {
	if t, ok := target.(*LixiError); ok {
		return e.Code == t.Code
	}
	return false
}

// clone returns a shallow copy so the predefined instances are never mutated
func (e *LixiError) clone() *LixiError {
	c := *e
	c.Timestamp = time.Now()
	if e.Metadata != nil {
		c.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// WithCause 添加原因错误
func (e *LixiError) WithCause(cause error) *LixiError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithDetails 添加详细信息
func (e *LixiError) WithDetails(details string) *LixiError {
	c := e.clone()
	c.Details = details
	return c
}

// WithOperation 添加操作信息
func (e *LixiError) WithOperation(operation string) *LixiError {
	c := e.clone()
	c.Operation = operation
	return c
}

// WithMetadata 添加元数据
func (e *LixiError) WithMetadata(key string, value any) *LixiError {
	c := e.clone()
	if c.Metadata == nil {
		c.Metadata = make(map[string]any)
	}
	c.Metadata[key] = value
	return c
}

// NewError 创建新的错误
func NewError(code ErrorCode, message string) *LixiError {
	return &LixiError{
		Code:      code,
		Message:   message,
		Severity:  SeverityMedium,
		Timestamp: time.Now(),
	}
}

// NewRetryableError 创建可重试的错误
func NewRetryableError(code ErrorCode, message string) *LixiError {
	return &LixiError{
		Code:      code,
		Message:   message,
		Severity:  SeverityMedium,
		Timestamp: time.Now(),
		Retryable: true,
	}
}

// NewCriticalError 创建严重错误
func NewCriticalError(code ErrorCode, message string) *LixiError {
	return &LixiError{
		Code:      code,
		Message:   message,
		Severity:  SeverityCritical,
		Timestamp: time.Now(),
	}
}

// 预定义的错误实例
var (
	// 系统级错误
	ErrRedisConnectionFailed = NewRetryableError(ErrCodeRedisConnection, "Redis connection failed")
	ErrConfigInvalid         = NewCriticalError(ErrCodeConfigInvalid, "configuration is invalid")
	ErrStorageFailure        = NewRetryableError(ErrCodeStorage, "storage operation failed")

	// 业务级错误
	ErrInvalidParameters        = NewError(ErrCodeInvalidParameters, "invalid parameters provided")
	ErrInvalidRange             = NewError(ErrCodeInvalidRange, "invalid range: min must be less than or equal to max")
	ErrInvalidDenominationValue = NewError(ErrCodeInvalidDenominationValue, "invalid denomination value: must be greater than 0")
	ErrInvalidQuantity          = NewError(ErrCodeInvalidQuantity, "invalid quantity: must be greater than 0")
	ErrDuplicateDenomination    = NewError(ErrCodeDuplicateDenomination, "denomination value already exists")
	ErrDenominationNotFound     = NewError(ErrCodeDenominationNotFound, "denomination not found")
	ErrEmptyDenominations       = NewError(ErrCodeEmptyDenominations, "denomination set cannot be empty")
	ErrPoolExhausted            = NewError(ErrCodePoolExhausted, "prize pool is exhausted")
	ErrInvalidRetryAttempts     = NewError(ErrCodeInvalidRetryAttempts, "invalid retry attempts: must be between 0 and 10")
	ErrInvalidRetryInterval     = NewError(ErrCodeInvalidRetryInterval, "invalid retry interval: cannot be negative")

	// 状态机错误
	ErrInvalidTransition = NewError(ErrCodeInvalidTransition, "action is not valid in the current screen")
	ErrNoCurrentPrize    = NewError(ErrCodeNoCurrentPrize, "no prize has been drawn for the current player")
	ErrUnknownAction     = NewError(ErrCodeUnknownAction, "unknown action")

	// 限流相关错误
	ErrCircuitBreakerOpen = NewRetryableError(ErrCodeCircuitBreakerOpen, "circuit breaker is open")

	// 状态相关错误
	ErrRoomNotFound          = NewError(ErrCodeRoomNotFound, "room not found")
	ErrStateCorrupted        = NewError(ErrCodeStateCorrupted, "state data is corrupted")
	ErrSerializationFailed   = NewError(ErrCodeSerializationFailed, "serialization failed")
	ErrDeserializationFailed = NewError(ErrCodeDeserializationFailed, "deserialization failed")
)

// retryablePatterns lists transport failures worth another attempt
var retryablePatterns = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"network is unreachable",
	"temporary failure",
	"server closed",
	"broken pipe",
	"i/o timeout",
	"dial tcp",
	"read tcp",
	"write tcp",
	"connection timed out",
	"no route to host",
	"host is down",
	"connection aborted",
	"socket is not connected",
	"operation timed out",
	"redis: connection pool timeout",
	"redis: client is closed",
	"database is locked",
}

// IsRetryableError 检查是否为可重试错误
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var lixiErr *LixiError
	if errors.As(err, &lixiErr) && lixiErr.Retryable {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
