package bot

import (
	"fmt"
	"time"

	"spot-grid-bot-go/internal/exchange"
	"spot-grid-bot-go/internal/logger"
	"spot-grid-bot-go/internal/models"

	"go.uber.org/zap"
)

// Executor 负责下单前的数量量化与余额校验，并提交市价单。
// 校验失败以带原因的 OrderResult 返回而不是 error；
// 网关错误只记录不重试，下一个评估周期就是重试边界。
type Executor struct {
	gateway exchange.Gateway
	symbol  string
	logger  *zap.SugaredLogger
}

// NewExecutor 创建一个订单执行器。
func NewExecutor(gateway exchange.Gateway, symbol string, log *zap.SugaredLogger) *Executor {
	return &Executor{gateway: gateway, symbol: symbol, logger: log}
}

// Buy 提交一笔市价买单。返回值总是非nil，失败时带有具体原因。
func (x *Executor) Buy(desiredQty float64) *models.OrderResult {
	return x.submit(models.Buy, desiredQty)
}

// Sell 提交一笔市价卖单。返回值总是非nil，失败时带有具体原因。
func (x *Executor) Sell(desiredQty float64) *models.OrderResult {
	return x.submit(models.Sell, desiredQty)
}

func (x *Executor) submit(side models.Side, desiredQty float64) *models.OrderResult {
	result := &models.OrderResult{Side: side, Quantity: desiredQty, Time: time.Now()}

	step, err := x.gateway.GetLotStep(x.symbol)
	if err != nil {
		return x.fail(result, fmt.Sprintf("获取步长失败: %v", err))
	}
	qty := RoundStep(desiredQty, step)
	result.Quantity = qty

	// 快照可能已经过时，下单前重新获取余额与价格
	balances, err := x.gateway.GetBalances()
	if err != nil {
		return x.fail(result, fmt.Sprintf("获取余额失败: %v", err))
	}
	price, err := x.gateway.GetPrice(x.symbol)
	if err != nil {
		return x.fail(result, fmt.Sprintf("获取价格失败: %v", err))
	}
	result.Price = price

	if qty <= 0 {
		return x.fail(result, "量化后的数量不是正数")
	}
	if side == models.Buy && qty*price > balances.Quote {
		return x.fail(result, fmt.Sprintf("计价资产不足: 需要 %.8f, 持有 %.8f", qty*price, balances.Quote))
	}
	if side == models.Sell && qty > balances.Base {
		return x.fail(result, fmt.Sprintf("基础资产不足: 需要 %.8f, 持有 %.8f", qty, balances.Base))
	}

	fill, err := x.gateway.PlaceMarketOrder(x.symbol, side, qty)
	if err != nil {
		return x.fail(result, fmt.Sprintf("交易所拒绝订单: %v", err))
	}

	result.Success = true
	if fill.Quantity > 0 {
		result.Quantity = fill.Quantity
	}
	if fill.Price > 0 {
		result.Price = fill.Price
	}
	logger.Trade("%s %s %.8f @ %.8f", side, x.symbol, result.Quantity, result.Price)
	return result
}

func (x *Executor) fail(result *models.OrderResult, reason string) *models.OrderResult {
	result.Reason = reason
	x.logger.Errorf("%s 订单未提交: %s", result.Side, reason)
	return result
}
