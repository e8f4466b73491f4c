// Package market 负责把交易所数据组合成每个评估周期一份的不可变市场快照。
package market

import (
	"spot-grid-bot-go/internal/exchange"
	"spot-grid-bot-go/internal/indicator"
	"spot-grid-bot-go/internal/models"

	"go.uber.org/zap"
)

// SnapshotBuilder 获取近端K线窗口并计算指标。
type SnapshotBuilder struct {
	gateway exchange.Gateway
	symbol  string
	window  int
	logger  *zap.SugaredLogger
}

// NewSnapshotBuilder 创建一个快照构建器。window 是取样的K线数量。
func NewSnapshotBuilder(gateway exchange.Gateway, symbol string, window int, logger *zap.SugaredLogger) *SnapshotBuilder {
	return &SnapshotBuilder{
		gateway: gateway,
		symbol:  symbol,
		window:  window,
		logger:  logger,
	}
}

// Build 基于给定的最新价构建一份快照。
// K线获取失败只会让窗口与指标不可用（Fail Closed）：下游把不可用字段
// 一律当作"条件不成立"，绝不在缺数据时交易。
func (b *SnapshotBuilder) Build(price float64, settings *models.StrategySettings) models.MarketSnapshot {
	snap := models.MarketSnapshot{Valid: true, Price: price}

	closes, err := b.gateway.GetRecentCloses(b.symbol, b.window)
	if err != nil {
		b.logger.Errorf("获取K线窗口失败，本周期指标不可用: %v", err)
		return snap
	}
	if len(closes) == 0 {
		return snap
	}

	snap.HasWindow = true
	snap.WindowMin, snap.WindowMax = closes[0], closes[0]
	var sum float64
	for _, c := range closes {
		if c < snap.WindowMin {
			snap.WindowMin = c
		}
		if c > snap.WindowMax {
			snap.WindowMax = c
		}
		sum += c
	}
	snap.WindowAvg = sum / float64(len(closes))

	snap.RSI.Value, snap.RSI.Valid = indicator.RSI(closes, settings.RSIPeriod)
	snap.SMAShort.Value, snap.SMAShort.Valid = indicator.SMA(closes, settings.SMAShortPeriod)
	snap.SMALong.Value, snap.SMALong.Valid = indicator.SMA(closes, settings.SMALongPeriod)
	return snap
}
