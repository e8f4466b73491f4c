package exchange

import (
	"fmt"
	"sync"

	"spot-grid-bot-go/internal/models"
)

// SimExchange 实现了 Gateway 接口，在内存中模拟一个现货账户。
// 它被循环级与执行器级的测试用来验证完整的 决策→下单→持久化 链路，
// 各 *Err 字段可用来注入对应调用的失败。
type SimExchange struct {
	mu sync.Mutex

	Symbol       string
	Price        float64
	Closes       []float64
	LotStep      float64
	BaseBalance  float64
	QuoteBalance float64

	// 已提交的市价单记录，按提交顺序排列
	Orders []models.OrderResult

	PriceErr    error
	ClosesErr   error
	BalancesErr error
	LotStepErr  error
	OrderErr    error
}

// NewSimExchange 创建一个带初始余额的模拟交易所。
func NewSimExchange(symbol string, price, base, quote, lotStep float64) *SimExchange {
	return &SimExchange{
		Symbol:       symbol,
		Price:        price,
		LotStep:      lotStep,
		BaseBalance:  base,
		QuoteBalance: quote,
	}
}

// SetPrice 更新当前价并把它追加到收盘序列末尾。
func (e *SimExchange) SetPrice(price float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Price = price
	e.Closes = append(e.Closes, price)
}

func (e *SimExchange) GetBalances() (models.Balances, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.BalancesErr != nil {
		return models.Balances{}, e.BalancesErr
	}
	return models.Balances{Base: e.BaseBalance, Quote: e.QuoteBalance}, nil
}

func (e *SimExchange) GetPrice(symbol string) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.PriceErr != nil {
		return 0, e.PriceErr
	}
	return e.Price, nil
}

func (e *SimExchange) GetRecentCloses(symbol string, limit int) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ClosesErr != nil {
		return nil, e.ClosesErr
	}
	closes := e.Closes
	if len(closes) > limit {
		closes = closes[len(closes)-limit:]
	}
	out := make([]float64, len(closes))
	copy(out, closes)
	return out, nil
}

func (e *SimExchange) GetLotStep(symbol string) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.LotStepErr != nil {
		return 0, e.LotStepErr
	}
	return e.LotStep, nil
}

// PlaceMarketOrder 以当前价立即全额成交，并同步调整两侧余额。
func (e *SimExchange) PlaceMarketOrder(symbol string, side models.Side, quantity float64) (*models.Fill, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.OrderErr != nil {
		return nil, e.OrderErr
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("非法下单数量: %v", quantity)
	}

	cost := quantity * e.Price
	switch side {
	case models.Buy:
		if cost > e.QuoteBalance {
			return nil, fmt.Errorf("模拟账户计价资产不足: 需要 %.8f, 持有 %.8f", cost, e.QuoteBalance)
		}
		e.QuoteBalance -= cost
		e.BaseBalance += quantity
	case models.Sell:
		if quantity > e.BaseBalance {
			return nil, fmt.Errorf("模拟账户基础资产不足: 需要 %.8f, 持有 %.8f", quantity, e.BaseBalance)
		}
		e.BaseBalance -= quantity
		e.QuoteBalance += cost
	default:
		return nil, fmt.Errorf("未知交易方向: %s", side)
	}

	e.Orders = append(e.Orders, models.OrderResult{
		Side:     side,
		Quantity: quantity,
		Price:    e.Price,
		Success:  true,
	})
	return &models.Fill{Quantity: quantity, Price: e.Price}, nil
}
