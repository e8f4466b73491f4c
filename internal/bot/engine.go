package bot

import (
	"fmt"
	"math"

	"spot-grid-bot-go/internal/models"
)

// minQuoteBalance 计价资产余额低于该值时不再尝试任何买入分支。
const minQuoteBalance = 1.0

// DecisionType 枚举了引擎可能给出的动作。
type DecisionType int

const (
	NoAction DecisionType = iota
	TrailingStopSell
	TakeProfitSell
	GridPartSell
	BestEntryBuy
	GridPartBuy
)

// Decision 描述引擎在一个评估周期内给出的唯一动作。
type Decision struct {
	Type     DecisionType
	Side     models.Side
	Quantity float64
	Reason   string
}

// EngineInput 汇总一次评估所需的全部输入。引擎不做任何I/O。
type EngineInput struct {
	Snapshot models.MarketSnapshot
	Balances models.Balances
	State    *models.PositionState
	Settings *models.StrategySettings
	LotStep  float64
}

// Outcome 是一次评估的结果：可能更新的峰值价，以及至多一个动作。
type Outcome struct {
	Peak        float64 // 评估后的开仓后峰值价
	PeakChanged bool    // 峰值是否被本次评估推高（即使无动作也要立即持久化）
	Decision    Decision
}

// Evaluate 按固定优先级评估全部分支：移动止损 > 止盈 > 网格部分卖出 >
// 最佳价入场 > 网格部分买入。首个命中的分支生效，每周期至多一个动作。
// 任何不可用的指标都让依赖它的条件不成立，缺数据时绝不交易。
// 引擎本身无副作用；状态变更由 Decision.Apply 在订单成功后执行。
func Evaluate(in EngineInput) Outcome {
	st, s, snap := in.State, in.Settings, in.Snapshot
	price := snap.Price
	out := Outcome{Peak: st.PeakPriceAfterBuy}

	if !snap.Valid || price <= 0 {
		return out
	}

	// 持仓分支：基础资产不少于一个最小步长即视为持仓
	if in.LotStep > 0 && in.Balances.Base >= in.LotStep {
		if price > out.Peak {
			out.Peak = price
			out.PeakChanged = true
		}
		trailingStop := out.Peak * (1 - s.TrailingStopPercent)
		activation := st.LastBuyPrice * (1 + s.TrailingStopActivationPercent)

		switch {
		case st.HasOpenEntry() && price > activation && price < trailingStop &&
			snap.RSI.Valid && snap.RSI.Value > s.RSIOversold:
			out.Decision = Decision{
				Type:     TrailingStopSell,
				Side:     models.Sell,
				Quantity: in.Balances.Base,
				Reason:   fmt.Sprintf("移动止损: 峰值 %.8f 回撤至 %.8f", out.Peak, price),
			}

		case st.HasOpenEntry() && price > st.LastBuyPrice*(1+s.ProfitPercent) &&
			snap.RSI.Valid && snap.RSI.Value > s.RSIOversold:
			out.Decision = Decision{
				Type:     TakeProfitSell,
				Side:     models.Sell,
				Quantity: in.Balances.Base,
				Reason:   fmt.Sprintf("止盈: 开仓 %.8f, 现价 %.8f", st.LastBuyPrice, price),
			}

		case price > st.GridCenter*(1+s.GridPercent) &&
			snap.RSI.Valid && snap.RSI.Value < s.RSIOverbought && smaBullish(snap):
			qty := RoundStep(in.Balances.Base*s.GridPart, in.LotStep)
			if qty >= in.LotStep {
				out.Decision = Decision{
					Type:     GridPartSell,
					Side:     models.Sell,
					Quantity: qty,
					Reason:   fmt.Sprintf("网格: 部分卖出, 中心 %.8f, 现价 %.8f", st.GridCenter, price),
				}
			}
		}
		return out
	}

	// 空仓/加仓分支
	if in.Balances.Quote > minQuoteBalance {
		switch {
		case in.Balances.Base < in.LotStep && snap.HasWindow &&
			price <= snap.WindowMin*(1+s.BestBuyThreshold) &&
			snap.RSI.Valid && snap.RSI.Value < s.RSIOversold && smaBullish(snap):
			// 按单笔风险额度推算仓位：数量 = 风险额 / (现价 - 隐含止损价)
			stopPrice := price * (1 - s.TrailingStopPercent)
			var qty float64
			if price > stopPrice {
				qty = s.RiskPerTrade / (price - stopPrice)
			}
			qty = RoundStep(qty, in.LotStep)
			if qty > 0 && qty*price < in.Balances.Quote {
				out.Decision = Decision{
					Type:     BestEntryBuy,
					Side:     models.Buy,
					Quantity: qty,
					Reason:   fmt.Sprintf("最佳价入场: 窗口最低 %.8f, 现价 %.8f", snap.WindowMin, price),
				}
			}

		case price < st.GridCenter*(1-s.GridPercent) &&
			snap.RSI.Valid && snap.RSI.Value < s.RSIOversold && smaBullish(snap):
			qty := RoundStep(in.Balances.Quote*s.GridPart/price, in.LotStep)
			if qty > 0 && qty*price < in.Balances.Quote {
				out.Decision = Decision{
					Type:     GridPartBuy,
					Side:     models.Buy,
					Quantity: qty,
					Reason:   fmt.Sprintf("网格: 部分买入, 中心 %.8f, 现价 %.8f", st.GridCenter, price),
				}
			}
		}
	}
	return out
}

// Apply 在订单成功后把该决策对应的状态变更写入 state。
// 网格加仓 (GridPartBuy) 有意不更新 last_buy_price：
// 只有最佳价入场被视为真正的开仓，止盈与移动止损始终以它为基准。
func (d Decision) Apply(state *models.PositionState, price float64) {
	switch d.Type {
	case TrailingStopSell, TakeProfitSell:
		state.LastBuyPrice = 0
		state.GridCenter = price
		state.PeakPriceAfterBuy = 0
	case GridPartSell, GridPartBuy:
		state.GridCenter = price
	case BestEntryBuy:
		state.LastBuyPrice = price
		state.GridCenter = price
		state.PeakPriceAfterBuy = price
	}
}

// smaBullish 报告两条SMA均可用且短期在长期之上。
func smaBullish(snap models.MarketSnapshot) bool {
	return snap.SMAShort.Valid && snap.SMALong.Valid && snap.SMAShort.Value > snap.SMALong.Value
}

// RoundStep 将数量量化到最接近的步长整数倍，结果永远非负。
// 步长为0时原样返回（视为无精度限制）。
func RoundStep(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	q := step * math.Round(value/step)
	if q < 0 {
		return 0
	}
	return q
}
