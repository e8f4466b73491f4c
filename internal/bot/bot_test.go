package bot

import (
	"path/filepath"
	"testing"
	"time"

	"spot-grid-bot-go/internal/exchange"
	"spot-grid-bot-go/internal/logger"
	"spot-grid-bot-go/internal/models"
	"spot-grid-bot-go/internal/persistence"
	"spot-grid-bot-go/internal/statemanager"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastSettings() *models.StrategySettings {
	s := testSettings()
	// 短周期指标让三根K线就足够出信号
	s.RSIPeriod = 2
	s.SMAShortPeriod = 1
	s.SMALongPeriod = 2
	s.PricePollInterval = 5 * time.Millisecond
	s.TradeEvalInterval = time.Millisecond
	return s
}

func newTestBot(t *testing.T, sim *exchange.SimExchange, seed *models.PositionState) (*Bot, persistence.StateRepository) {
	t.Helper()
	repo, err := persistence.NewFileRepository(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	if seed != nil {
		require.NoError(t, repo.Save(seed))
	}

	cfg := &models.Config{Symbol: sim.Symbol, KlineWindow: 10}
	manager := statemanager.NewManager(repo, logger.S())
	return NewBot(cfg, sim, manager, fastSettings(), nil), repo
}

func TestBotStartStopIdempotent(t *testing.T) {
	sim := exchange.NewSimExchange("BTCUSDT", 100, 0, 0, 0.001)
	b, _ := newTestBot(t, sim, nil)

	b.Start()
	b.Start() // 重复启动是空操作
	assert.True(t, b.Running())

	b.Stop()
	assert.False(t, b.Running())
	b.Stop() // 重复停止也是空操作
	assert.False(t, b.Running())

	// 停机后可以再次启动
	b.Start()
	assert.True(t, b.Running())
	b.Stop()
}

func TestBotGridBuyCyclePersistsState(t *testing.T) {
	sim := exchange.NewSimExchange("BTCUSDT", 8.5, 0, 100, 0.001)
	// RSI(2)≈20 (超卖)，SMA1=8.5 > SMA2=8.25 (多头)
	sim.SetPrice(10)
	sim.SetPrice(8)
	sim.SetPrice(8.5)

	// 现价 8.5 低于网格中心 10 一格以上，应触发网格部分买入
	b, repo := newTestBot(t, sim, &models.PositionState{GridCenter: 10})

	b.Start()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(sim.Orders) == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	b.Stop()

	require.NotEmpty(t, sim.Orders, "期望至少一笔网格买入")
	order := sim.Orders[0]
	assert.Equal(t, models.Buy, order.Side)
	assert.InDelta(t, 100*0.2/8.5, order.Quantity, 0.01)

	state, err := repo.Load()
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 8.5, state.GridCenter)
	assert.Equal(t, 0.0, state.LastBuyPrice, "网格加仓不记录开仓价")
}

func TestBotStopLeavesStateIntact(t *testing.T) {
	sim := exchange.NewSimExchange("BTCUSDT", 100, 0, 0, 0.001)
	seed := &models.PositionState{GridCenter: 100, LastBuyPrice: 95, PeakPriceAfterBuy: 101}
	b, repo := newTestBot(t, sim, seed)

	b.Start()
	time.Sleep(50 * time.Millisecond)
	b.Stop()

	state, err := repo.Load()
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, *seed, *state)
}

func TestBotRestartRecreatesPriceFeed(t *testing.T) {
	sim := exchange.NewSimExchange("BTCUSDT", 100, 0, 0, 0.001)
	repo, err := persistence.NewFileRepository(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	// 指向一个拒绝连接的地址：流连不上也不影响生命周期，轮询回退REST
	cfg := &models.Config{
		Symbol:            sim.Symbol,
		KlineWindow:       10,
		EnablePriceStream: true,
		WSBaseURL:         "ws://127.0.0.1:1",
	}
	manager := statemanager.NewManager(repo, logger.S())
	b := NewBot(cfg, sim, manager, fastSettings(), nil)

	b.Start()
	first := b.feed
	require.NotNil(t, first)
	b.Stop()
	assert.Nil(t, b.feed)

	// 重启后必须拿到一个全新的价格流实例，而不是复用已停止的那个
	b.Start()
	require.NotNil(t, b.feed)
	assert.NotSame(t, first, b.feed)
	b.Stop()
}

func TestBotReloadSettingsTakesEffect(t *testing.T) {
	sim := exchange.NewSimExchange("BTCUSDT", 100, 0, 0, 0.001)
	b, _ := newTestBot(t, sim, nil)

	next := fastSettings()
	next.GridPercent = 0.05
	b.ReloadSettings(next)
	assert.Equal(t, 0.05, b.settings.Load().GridPercent)
}
