package market

import (
	"errors"
	"testing"

	"spot-grid-bot-go/internal/exchange"
	"spot-grid-bot-go/internal/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testSettings() *models.StrategySettings {
	return &models.StrategySettings{
		RSIPeriod:      3,
		SMAShortPeriod: 2,
		SMALongPeriod:  4,
	}
}

func TestBuildComputesWindowAndIndicators(t *testing.T) {
	sim := exchange.NewSimExchange("BTCUSDT", 0, 0, 0, 0.01)
	for _, p := range []float64{10, 12, 11, 13} {
		sim.SetPrice(p)
	}
	b := NewSnapshotBuilder(sim, "BTCUSDT", 100, zap.NewNop().Sugar())

	snap := b.Build(13, testSettings())
	assert.True(t, snap.Valid)
	assert.True(t, snap.HasWindow)
	assert.Equal(t, 13.0, snap.Price)
	assert.Equal(t, 10.0, snap.WindowMin)
	assert.Equal(t, 13.0, snap.WindowMax)
	assert.InDelta(t, 11.5, snap.WindowAvg, 1e-9)

	// 差分 +2, -1, +2 → 平均涨幅 4/3, 平均跌幅 1/3 → RSI = 80
	assert.True(t, snap.RSI.Valid)
	assert.InDelta(t, 80.0, snap.RSI.Value, 1e-9)

	assert.True(t, snap.SMAShort.Valid)
	assert.InDelta(t, 12.0, snap.SMAShort.Value, 1e-9)
	assert.True(t, snap.SMALong.Valid)
	assert.InDelta(t, 11.5, snap.SMALong.Value, 1e-9)
}

func TestBuildShortHistoryLeavesIndicatorsUnavailable(t *testing.T) {
	sim := exchange.NewSimExchange("BTCUSDT", 0, 0, 0, 0.01)
	sim.SetPrice(10)
	sim.SetPrice(11)
	b := NewSnapshotBuilder(sim, "BTCUSDT", 100, zap.NewNop().Sugar())

	snap := b.Build(11, testSettings())
	assert.True(t, snap.HasWindow)
	assert.False(t, snap.RSI.Valid, "样本不足时RSI必须不可用，而不是一个数值")
	assert.True(t, snap.SMAShort.Valid)
	assert.False(t, snap.SMALong.Valid)
}

func TestBuildKlineFailureFailsClosed(t *testing.T) {
	sim := exchange.NewSimExchange("BTCUSDT", 1.0, 0, 0, 0.01)
	sim.ClosesErr = errors.New("network down")
	b := NewSnapshotBuilder(sim, "BTCUSDT", 100, zap.NewNop().Sugar())

	snap := b.Build(1.0, testSettings())
	assert.True(t, snap.Valid, "价格已知，快照本身有效")
	assert.False(t, snap.HasWindow)
	assert.False(t, snap.RSI.Valid)
	assert.False(t, snap.SMAShort.Valid)
	assert.False(t, snap.SMALong.Valid)
}
