// Package indicator 提供纯函数形式的技术指标计算。
// 所有函数都以 (值, 是否可用) 的形式返回：样本不足不是错误，
// 调用方必须把不可用视为"相关条件不成立"。
package indicator

import "github.com/markcheno/go-talib"

// SMA 返回末端 period 个收盘价的算术平均。
func SMA(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period {
		return 0, false
	}
	series := talib.Sma(closes, period)
	return series[len(series)-1], true
}

// RSI 在末端 period 个差分上取涨跌幅的简单滚动均值（非 Wilder 指数平滑）：
// 平均涨幅 = 窗口内正差分之和 / period，平均跌幅同理取绝对值，
// RS = 涨/跌，RSI = 100 - 100/(1+RS)。
// 平均跌幅为 0 时定义 RSI = 100，绝不触发除零。
func RSI(closes []float64, period int) (float64, bool) {
	// 窗口内需要 period 个差分，即 period+1 个收盘价
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}

	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	if avgLoss == 0 {
		return 100, true
	}

	rs := avgGain / avgLoss
	rsi := 100 - 100/(1+rs)
	if rsi < 0 {
		rsi = 0
	} else if rsi > 100 {
		rsi = 100
	}
	return rsi, true
}
