package lixi

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// loadResult carries a Load result through the breaker
type loadResult struct {
	value string
	ok    bool
}

// CircuitBreakerStore 带熔断器的存储
type CircuitBreakerStore struct {
	store Store

	breaker *gobreaker.CircuitBreaker
	logger  Logger
	config  *CircuitBreakerConfig
}

// NewCircuitBreakerStore 创建带熔断器的存储
func NewCircuitBreakerStore(store Store, config *CircuitBreakerConfig, logger Logger) *CircuitBreakerStore {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	if logger == nil {
		logger = NewSilentLogger()
	}

	s := &CircuitBreakerStore{
		store:  store,
		logger: logger,
		config: config,
	}
	if config.Enabled {
		s.breaker = gobreaker.NewCircuitBreaker(s.settings())
	}
	return s
}

// settings 根据配置生成熔断器参数
func (c *CircuitBreakerStore) settings() gobreaker.Settings {
	config := c.config
	return gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 当请求数达到最小要求且失败率超过阈值时触发熔断
			return counts.Requests >= config.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= config.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if config.OnStateChange {
				c.logger.Info("Circuit breaker '%s' state changed from %s to %s", name, from, to)
			}
		},
		IsSuccessful: func(err error) bool {
			// 参数错误不代表存储不可用
			return err == nil || errors.Is(err, ErrInvalidParameters) ||
				errors.Is(err, context.Canceled)
		},
	}
}

// executeWithBreaker 使用熔断器执行操作
func (c *CircuitBreakerStore) executeWithBreaker(operation func() (any, error)) (any, error) {
	if c.breaker == nil {
		return operation()
	}

	result, err := c.breaker.Execute(operation)
	if errors.Is(err, gobreaker.ErrOpenState) {
		return nil, ErrCircuitBreakerOpen.WithDetails("circuit breaker is open, requests are being rejected")
	}
	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitBreakerOpen.WithDetails("too many requests, circuit breaker is half-open")
	}

	return result, err
}

// Load 读取记录
func (c *CircuitBreakerStore) Load(ctx context.Context, key string) (string, bool, error) {
	result, err := c.executeWithBreaker(func() (any, error) {
		v, ok, err := c.store.Load(ctx, key)
		return loadResult{value: v, ok: ok}, err
	})
	if err != nil {
		return "", false, err
	}

	r := result.(loadResult)
	return r.value, r.ok, nil
}

// Save 写入记录
func (c *CircuitBreakerStore) Save(ctx context.Context, key, value string) error {
	_, err := c.executeWithBreaker(func() (any, error) {
		return nil, c.store.Save(ctx, key, value)
	})
	return err
}

// Remove 删除记录
func (c *CircuitBreakerStore) Remove(ctx context.Context, key string) error {
	_, err := c.executeWithBreaker(func() (any, error) {
		return nil, c.store.Remove(ctx, key)
	})
	return err
}

// GetCircuitBreakerState 获取熔断器状态
func (c *CircuitBreakerStore) GetCircuitBreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}

	switch c.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// GetCircuitBreakerCounts 获取熔断器统计信息
func (c *CircuitBreakerStore) GetCircuitBreakerCounts() gobreaker.Counts {
	if c.breaker == nil {
		return gobreaker.Counts{}
	}
	return c.breaker.Counts()
}

// ResetCircuitBreaker 重置熔断器 (gobreaker 没有 Reset 方法, 重新创建实例)
func (c *CircuitBreakerStore) ResetCircuitBreaker() {
	if c.breaker == nil {
		return
	}
	c.breaker = gobreaker.NewCircuitBreaker(c.settings())
	c.logger.Info("Circuit breaker '%s' has been reset (recreated)", c.config.Name)
}

// Check 执行健康检查
func (c *CircuitBreakerStore) Check() map[string]any {
	result := map[string]any{
		"circuit_breaker_enabled": c.config.Enabled,
		"timestamp":               time.Now().Unix(),
	}

	if c.breaker == nil {
		result["state"] = "disabled"
		result["healthy"] = true
		return result
	}

	state := c.GetCircuitBreakerState()
	counts := c.GetCircuitBreakerCounts()

	result["state"] = state
	result["requests"] = counts.Requests
	result["total_successes"] = counts.TotalSuccesses
	result["total_failures"] = counts.TotalFailures
	result["consecutive_failures"] = counts.ConsecutiveFailures

	healthy := true
	switch state {
	case "open":
		healthy = false
	case "half-open":
		// 半开状态下，如果连续失败次数过多，认为不健康
		if counts.ConsecutiveFailures > 2 {
			healthy = false
		}
	}
	result["healthy"] = healthy

	return result
}
