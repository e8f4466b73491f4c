package models

// PositionState 定义了跨周期存续的全部决策状态。
// 它只有一个写入者（交易循环），每次变更后立即持久化。
type PositionState struct {
	GridCenter        float64 `json:"grid_center"`          // 下一次网格交易的参考价
	LastBuyPrice      float64 `json:"last_buy_price"`       // 开仓价，0 表示无持仓记录
	PeakPriceAfterBuy float64 `json:"peak_price_after_buy"` // 开仓后观察到的最高价，空仓时为0
}

// NewPositionState 以首次观察到的价格初始化状态。
func NewPositionState(price float64) *PositionState {
	return &PositionState{GridCenter: price}
}

// HasOpenEntry 报告是否存在记录在案的开仓价。
// 注意网格加仓不会设置开仓价，只有最佳价入场会。
func (s *PositionState) HasOpenEntry() bool {
	return s.LastBuyPrice > 0
}

// Clone 返回状态的一个独立副本。
func (s *PositionState) Clone() *PositionState {
	c := *s
	return &c
}
