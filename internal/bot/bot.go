package bot

import (
	"context"
	"sync/atomic"
	"time"

	"spot-grid-bot-go/internal/advisor"
	"spot-grid-bot-go/internal/exchange"
	"spot-grid-bot-go/internal/logger"
	"spot-grid-bot-go/internal/market"
	"spot-grid-bot-go/internal/models"
	"spot-grid-bot-go/internal/reporter"
	"spot-grid-bot-go/internal/statemanager"

	"go.uber.org/zap"
)

// panicBackoff 是评估周期崩溃后的额外静默时间，避免在同一个故障上空转。
const panicBackoff = 30 * time.Second

// AdvisorClient 提供仅供日志参考的买卖倾向信号。
type AdvisorClient interface {
	GetSignal(ctx context.Context, symbol string) (advisor.Signal, error)
}

// Bot 是交易主循环：按价格轮询间隔读取最新价，按交易评估间隔
// 跑一次完整的 快照->决策->执行->持久化 周期。
// 单周期内的任何失败只作用于该周期，循环本身不退出。
type Bot struct {
	cfg      *models.Config
	gateway  exchange.Gateway
	manager  *statemanager.Manager
	builder  *market.SnapshotBuilder
	executor *Executor
	report   *reporter.Reporter
	advisor  AdvisorClient
	feed     *exchange.PriceFeed
	logger   *zap.SugaredLogger

	settings atomic.Pointer[models.StrategySettings]
	running  atomic.Bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	lastEval time.Time
}

// NewBot 组装交易机器人。adv 可为nil，表示不接入建议信号。
// 价格流按配置在每次 Start 时新建，Stop 后不复用（流实例是一次性的）。
func NewBot(cfg *models.Config, gateway exchange.Gateway, manager *statemanager.Manager,
	settings *models.StrategySettings, adv AdvisorClient) *Bot {
	log := logger.S()
	b := &Bot{
		cfg:      cfg,
		gateway:  gateway,
		manager:  manager,
		builder:  market.NewSnapshotBuilder(gateway, cfg.Symbol, cfg.KlineWindow, log),
		executor: NewExecutor(gateway, cfg.Symbol, log),
		report:   reporter.New(),
		advisor:  adv,
		logger:   log,
	}
	b.settings.Store(settings)
	return b
}

// Reporter 返回会话交易记录器。
func (b *Bot) Reporter() *reporter.Reporter {
	return b.report
}

// Running 报告循环是否正在运行。
func (b *Bot) Running() bool {
	return b.running.Load()
}

// Start 启动交易循环。重复调用是无害的空操作。
func (b *Bot) Start() {
	if !b.running.CompareAndSwap(false, true) {
		return
	}
	b.stopCh = make(chan struct{})
	b.doneCh = make(chan struct{})
	b.lastEval = time.Time{}
	if b.cfg.EnablePriceStream {
		b.feed = exchange.NewPriceFeed(b.cfg.WSBaseURL, b.cfg.Symbol, b.logger)
		b.feed.Start()
	}
	logger.Start("交易机器人已启动: %s", b.cfg.Symbol)
	go b.run()
}

// Stop 停止循环并等待当前周期结束。重复调用是无害的空操作。
// 停止只中断调度，不回滚任何已持久化的状态。
func (b *Bot) Stop() {
	if !b.running.CompareAndSwap(true, false) {
		return
	}
	close(b.stopCh)
	<-b.doneCh
	if b.feed != nil {
		b.feed.Stop()
		b.feed = nil
	}
	if summary := b.report.Summary(); summary != "" {
		b.logger.Infof("会话结束\n%s", summary)
	}
	b.logger.Infof("交易机器人已停止: %s", b.cfg.Symbol)
}

// ReloadSettings 原子替换策略参数，并在网关支持时重建交易所会话。
// 下一个评估周期即生效，运行中的周期不受影响。
func (b *Bot) ReloadSettings(settings *models.StrategySettings) {
	b.settings.Store(settings)
	if resetter, ok := b.gateway.(exchange.SessionResetter); ok {
		resetter.ResetSession()
	}
	b.logger.Infof("策略参数已热加载")
}

func (b *Bot) run() {
	defer close(b.doneCh)
	for {
		settings := b.settings.Load()
		select {
		case <-b.stopCh:
			return
		case <-time.After(settings.PricePollInterval):
		}
		b.cycle(settings)
	}
}

// cycle 是一次价格轮询；距上次评估超过交易评估间隔时附带一次完整评估。
// 任何panic都被吞掉并追加一段静默期，调度本身不受影响。
func (b *Bot) cycle(settings *models.StrategySettings) {
	defer func() {
		if r := recover(); r != nil {
			logger.Fatal("交易周期崩溃，%s 后恢复: %v", panicBackoff, r)
			b.sleep(panicBackoff)
		}
	}()

	price, ok := b.currentPrice()
	if !ok {
		return
	}
	b.logger.Debugf("%s 最新价 %.8f", b.cfg.Symbol, price)

	if time.Since(b.lastEval) < settings.TradeEvalInterval {
		return
	}
	b.lastEval = time.Now()
	b.evaluate(price, settings)
}

// currentPrice 优先使用价格流的新鲜数据，过期或未启用时回退REST。
func (b *Bot) currentPrice() (float64, bool) {
	if b.feed != nil {
		if price, fresh := b.feed.Latest(); fresh {
			return price, true
		}
	}
	price, err := b.gateway.GetPrice(b.cfg.Symbol)
	if err != nil {
		b.logger.Errorf("获取价格失败，跳过本周期: %v", err)
		return 0, false
	}
	return price, true
}

func (b *Bot) evaluate(price float64, settings *models.StrategySettings) {
	snap := b.builder.Build(price, settings)

	lotStep, err := b.gateway.GetLotStep(b.cfg.Symbol)
	if err != nil {
		b.logger.Errorf("获取交易规则失败，跳过本周期: %v", err)
		return
	}
	balances, err := b.gateway.GetBalances()
	if err != nil {
		b.logger.Errorf("获取余额失败，跳过本周期: %v", err)
		return
	}

	state := b.manager.LoadOrInit(price)
	out := Evaluate(EngineInput{
		Snapshot: snap,
		Balances: balances,
		State:    state,
		Settings: settings,
		LotStep:  lotStep,
	})

	// 峰值推进即使没有动作也要立刻落盘，崩溃后移动止损才不会失忆
	if out.PeakChanged {
		state.PeakPriceAfterBuy = out.Peak
		b.manager.Commit(state)
	}

	if out.Decision.Type == NoAction {
		return
	}
	b.logger.Infof("决策: %s", out.Decision.Reason)
	b.consultAdvisor()

	var result *models.OrderResult
	if out.Decision.Side == models.Buy {
		result = b.executor.Buy(out.Decision.Quantity)
	} else {
		result = b.executor.Sell(out.Decision.Quantity)
	}
	b.report.Record(result)

	if result.Success {
		out.Decision.Apply(state, result.Price)
		b.manager.Commit(state)
	}
}

// consultAdvisor 在每次将要下单时问一次建议信号，仅写日志。
func (b *Bot) consultAdvisor() {
	if b.advisor == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	signal, err := b.advisor.GetSignal(ctx, b.cfg.Symbol)
	if err != nil {
		b.logger.Warnf("获取建议信号失败: %v", err)
		return
	}
	b.logger.Infof("建议信号: %s", signal)
}

// sleep 等待给定时长，Stop会提前打断。
func (b *Bot) sleep(d time.Duration) {
	select {
	case <-b.stopCh:
	case <-time.After(d):
	}
}
