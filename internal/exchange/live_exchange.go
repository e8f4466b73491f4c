package exchange

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"spot-grid-bot-go/internal/models"

	"github.com/adshao/go-binance/v2"
	"github.com/jxskiss/base62"
	"go.uber.org/zap"
)

// LiveExchange 实现了 Gateway 接口，用于与币安现货交易所进行交互。
type LiveExchange struct {
	apiKey        string
	secretKey     string
	baseAsset     string
	quoteAsset    string
	klineInterval string
	logger        *zap.SugaredLogger

	mu      sync.Mutex
	client  *binance.Client
	lotStep float64 // 缓存的LOT_SIZE步长，交易规则在运行期间不变
}

// NewLiveExchange 创建一个新的 LiveExchange 实例。
// isTestnet 为 true 时通过SDK全局开关切换到币安测试网。
func NewLiveExchange(apiKey, secretKey string, cfg *models.Config, logger *zap.SugaredLogger) *LiveExchange {
	binance.UseTestnet = cfg.IsTestnet
	return &LiveExchange{
		apiKey:        apiKey,
		secretKey:     secretKey,
		baseAsset:     cfg.BaseAsset,
		quoteAsset:    cfg.QuoteAsset,
		klineInterval: cfg.KlineInterval,
		logger:        logger,
		client:        binance.NewClient(apiKey, secretKey),
	}
}

// ResetSession 丢弃当前API客户端并重建。设置热加载后调用。
func (e *LiveExchange) ResetSession() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.client = binance.NewClient(e.apiKey, e.secretKey)
	e.logger.Info("交易所API会话已重建")
}

func (e *LiveExchange) api() *binance.Client {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client
}

// GetBalances 获取基础资产与计价资产的可用余额。
func (e *LiveExchange) GetBalances() (models.Balances, error) {
	account, err := e.api().NewGetAccountService().Do(context.Background())
	if err != nil {
		return models.Balances{}, fmt.Errorf("获取账户余额失败: %w", err)
	}

	var balances models.Balances
	for _, b := range account.Balances {
		free, err := strconv.ParseFloat(b.Free, 64)
		if err != nil {
			continue
		}
		switch b.Asset {
		case e.baseAsset:
			balances.Base = free
		case e.quoteAsset:
			balances.Quote = free
		}
	}
	return balances, nil
}

// GetPrice 获取指定交易对的最新成交价。
func (e *LiveExchange) GetPrice(symbol string) (float64, error) {
	prices, err := e.api().NewListPricesService().Symbol(symbol).Do(context.Background())
	if err != nil {
		return 0, fmt.Errorf("获取价格失败: %w", err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("交易所未返回 %s 的价格", symbol)
	}
	return strconv.ParseFloat(prices[0].Price, 64)
}

// GetRecentCloses 获取最近 limit 根K线的收盘价，从旧到新排列。
func (e *LiveExchange) GetRecentCloses(symbol string, limit int) ([]float64, error) {
	klines, err := e.api().NewKlinesService().
		Symbol(symbol).
		Interval(e.klineInterval).
		Limit(limit).
		Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("获取K线失败: %w", err)
	}

	closes := make([]float64, 0, len(klines))
	for _, k := range klines {
		c, err := strconv.ParseFloat(k.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("解析收盘价 %q 失败: %w", k.Close, err)
		}
		closes = append(closes, c)
	}
	return closes, nil
}

// GetLotStep 获取交易对的数量步长，首次成功后缓存。
func (e *LiveExchange) GetLotStep(symbol string) (float64, error) {
	e.mu.Lock()
	cached := e.lotStep
	e.mu.Unlock()
	if cached > 0 {
		return cached, nil
	}

	info, err := e.api().NewExchangeInfoService().Symbol(symbol).Do(context.Background())
	if err != nil {
		return 0, fmt.Errorf("获取交易规则失败: %w", err)
	}
	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}
		filter := s.LotSizeFilter()
		if filter == nil {
			break
		}
		step, err := strconv.ParseFloat(filter.StepSize, 64)
		if err != nil || step <= 0 {
			break
		}
		e.mu.Lock()
		e.lotStep = step
		e.mu.Unlock()
		return step, nil
	}
	return 0, fmt.Errorf("交易规则中没有 %s 的 LOT_SIZE 过滤器", symbol)
}

// PlaceMarketOrder 提交一笔市价单并返回实际成交数量与均价。
func (e *LiveExchange) PlaceMarketOrder(symbol string, side models.Side, quantity float64) (*models.Fill, error) {
	qty := strconv.FormatFloat(quantity, 'f', -1, 64)
	order, err := e.api().NewCreateOrderService().
		Symbol(symbol).
		Side(binance.SideType(side)).
		Type(binance.OrderTypeMarket).
		Quantity(qty).
		NewClientOrderID(newClientOrderID()).
		Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("市价单提交失败: %w", err)
	}

	executed, _ := strconv.ParseFloat(order.ExecutedQuantity, 64)
	quote, _ := strconv.ParseFloat(order.CummulativeQuoteQuantity, 64)
	fill := &models.Fill{Quantity: executed}
	if executed > 0 {
		fill.Price = quote / executed
	}
	return fill, nil
}

// newClientOrderID 生成带有固定前缀的自定义订单号，便于在交易所侧审计。
func newClientOrderID() string {
	return "sgb-" + string(base62.FormatInt(time.Now().UnixNano()))
}
