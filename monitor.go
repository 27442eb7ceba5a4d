package lixi

import (
	"sync/atomic"
	"time"
)

// GameMetrics 游戏指标快照
type GameMetrics struct {
	// 抽奖统计
	TotalDraws     int64 `json:"total_draws"`     // 成功抽出的红包数
	ExhaustedDraws int64 `json:"exhausted_draws"` // 奖池已空时的抽奖次数
	PlayersServed  int64 `json:"players_served"`  // 已确认的玩家数
	MoneyGiven     int64 `json:"money_given"`     // 已发放的金额

	// 状态机统计
	Transitions        int64 `json:"transitions"`         // 成功的状态转换次数
	RejectedTransition int64 `json:"rejected_transition"` // 被拒绝的状态转换次数

	// 存储统计
	StorageWrites int64 `json:"storage_writes"` // 存储写入次数
	StorageErrors int64 `json:"storage_errors"` // 存储错误次数

	// 时间戳
	StartTime      int64 `json:"start_time"`       // 开始时间
	LastUpdateTime int64 `json:"last_update_time"` // 最后更新时间
}

// GameMonitor 游戏监控器, 所有计数器均为原子操作
type GameMonitor struct {
	totalDraws         atomic.Int64
	exhaustedDraws     atomic.Int64
	playersServed      atomic.Int64
	moneyGiven         atomic.Int64
	transitions        atomic.Int64
	rejectedTransition atomic.Int64
	storageWrites      atomic.Int64
	storageErrors      atomic.Int64
	startTime          atomic.Int64
	lastUpdateTime     atomic.Int64
	enabled            atomic.Bool
}

// NewGameMonitor 创建新的游戏监控器
func NewGameMonitor() *GameMonitor {
	m := &GameMonitor{}
	m.enabled.Store(true)
	m.Reset()
	return m
}

// Enable 启用监控
func (m *GameMonitor) Enable() { m.enabled.Store(true) }

// Disable 禁用监控
func (m *GameMonitor) Disable() { m.enabled.Store(false) }

// IsEnabled 检查是否启用了监控
func (m *GameMonitor) IsEnabled() bool { return m.enabled.Load() }

func (m *GameMonitor) touch() { m.lastUpdateTime.Store(time.Now().UnixNano()) }

// RecordDraw 记录抽奖结果
func (m *GameMonitor) RecordDraw(exhausted bool) {
	if !m.IsEnabled() {
		return
	}
	if exhausted {
		m.exhaustedDraws.Add(1)
	} else {
		m.totalDraws.Add(1)
	}
	m.touch()
}

// RecordPlayer 记录一位玩家领取了红包
func (m *GameMonitor) RecordPlayer(prize int64) {
	if !m.IsEnabled() {
		return
	}
	m.playersServed.Add(1)
	m.moneyGiven.Add(prize)
	m.touch()
}

// RecordTransition 记录状态转换
func (m *GameMonitor) RecordTransition(accepted bool) {
	if !m.IsEnabled() {
		return
	}
	if accepted {
		m.transitions.Add(1)
	} else {
		m.rejectedTransition.Add(1)
	}
	m.touch()
}

// RecordStorageWrite 记录存储写入
func (m *GameMonitor) RecordStorageWrite(err error) {
	if !m.IsEnabled() {
		return
	}
	m.storageWrites.Add(1)
	if err != nil {
		m.storageErrors.Add(1)
	}
	m.touch()
}

// GetMetrics 获取指标快照
func (m *GameMonitor) GetMetrics() GameMetrics {
	return GameMetrics{
		TotalDraws:         m.totalDraws.Load(),
		ExhaustedDraws:     m.exhaustedDraws.Load(),
		PlayersServed:      m.playersServed.Load(),
		MoneyGiven:         m.moneyGiven.Load(),
		Transitions:        m.transitions.Load(),
		RejectedTransition: m.rejectedTransition.Load(),
		StorageWrites:      m.storageWrites.Load(),
		StorageErrors:      m.storageErrors.Load(),
		StartTime:          m.startTime.Load(),
		LastUpdateTime:     m.lastUpdateTime.Load(),
	}
}

// Reset 重置指标
func (m *GameMonitor) Reset() {
	m.totalDraws.Store(0)
	m.exhaustedDraws.Store(0)
	m.playersServed.Store(0)
	m.moneyGiven.Store(0)
	m.transitions.Store(0)
	m.rejectedTransition.Store(0)
	m.storageWrites.Store(0)
	m.storageErrors.Store(0)
	now := time.Now().UnixNano()
	m.startTime.Store(now)
	m.lastUpdateTime.Store(now)
}
