package exchange

import "spot-grid-bot-go/internal/models"

// Gateway 定义了策略所需的全部交易所能力。
// 所有调用都可能失败；失败由调用方按周期保护处理，绝不允许让进程崩溃。
type Gateway interface {
	// GetBalances 返回基础资产与计价资产的可用余额。
	GetBalances() (models.Balances, error)

	// GetPrice 返回交易对的最新成交价。
	GetPrice(symbol string) (float64, error)

	// GetRecentCloses 返回最近 limit 根K线的收盘价，从旧到新排列。
	GetRecentCloses(symbol string, limit int) ([]float64, error)

	// GetLotStep 返回交易对数量精度的最小步长。
	GetLotStep(symbol string) (float64, error)

	// PlaceMarketOrder 提交一笔市价单并返回成交结果。
	PlaceMarketOrder(symbol string, side models.Side, quantity float64) (*models.Fill, error)
}

// SessionResetter 由维护会话/连接的网关实现。
// 设置热加载后调用，丢弃旧的API会话；持仓状态不受影响。
type SessionResetter interface {
	ResetSession()
}
