package models

import "time"

// Side 定义了交易方向的类型
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Config 结构体定义了机器人的运行配置（与策略参数分开存放）
type Config struct {
	Symbol            string    `json:"symbol"`              // 交易对，如 "BTCUSDT"
	BaseAsset         string    `json:"base_asset"`          // 基础资产，如 "BTC"
	QuoteAsset        string    `json:"quote_asset"`         // 计价资产，如 "USDT"
	KlineInterval     string    `json:"kline_interval"`      // 快照取样的K线周期, e.g. "5m"
	KlineWindow       int       `json:"kline_window"`        // 快照取样的K线数量
	IsTestnet         bool      `json:"is_testnet"`          // 是否使用测试网
	StateBackend      string    `json:"state_backend"`       // 状态存储后端: "file" 或 "badger"
	StateFile         string    `json:"state_file"`          // 状态文件路径 (file后端)
	DBPath            string    `json:"db_path"`             // 数据库目录 (badger后端)
	SettingsFile      string    `json:"settings_file"`       // 策略参数文件路径
	EnablePriceStream bool      `json:"enable_price_stream"` // 是否启用WebSocket价格流
	WSBaseURL         string    `json:"ws_base_url"`         // WebSocket基础地址
	AdvisorModel      string    `json:"advisor_model"`       // 可选的AI建议模型名
	LogConfig         LogConfig `json:"log"`                 // 日志配置
}

// LogConfig 定义了日志相关的配置
type LogConfig struct {
	Level      string `json:"level"`       // 日志级别, e.g., "debug", "info", "warn", "error"
	Output     string `json:"output"`      // 输出模式: "console", "file", "both"
	File       string `json:"file"`        // 日志文件路径
	MaxSize    int    `json:"max_size"`    // 单个日志文件的最大大小 (MB)
	MaxBackups int    `json:"max_backups"` // 保留的旧日志文件最大数量
	MaxAge     int    `json:"max_age"`     // 旧日志文件的最大保留天数
	Compress   bool   `json:"compress"`    // 是否压缩旧日志文件
}

// StrategySettings 是策略的全部参数，启动或热加载时从设置文件解析一次，
// 周期内不再重新解析。所有百分比字段均为小数形式 (0.02 = 2%)。
type StrategySettings struct {
	ProfitPercent                 float64       // 止盈比例
	GridPercent                   float64       // 网格间距比例
	GridPart                      float64       // 网格单次交易占比 (0-1)
	BestBuyThreshold              float64       // 最佳买点相对窗口最低价的容差
	RSIPeriod                     int           // RSI周期
	RSIOverbought                 float64       // RSI超买阈值 (0-100)
	RSIOversold                   float64       // RSI超卖阈值 (0-100)
	SMAShortPeriod                int           // 短期SMA周期
	SMALongPeriod                 int           // 长期SMA周期
	TrailingStopActivationPercent float64       // 移动止损激活比例
	TrailingStopPercent           float64       // 移动止损回撤比例
	RiskPerTrade                  float64       // 单笔风险额度 (计价资产)
	PricePollInterval             time.Duration // 价格轮询间隔
	TradeEvalInterval             time.Duration // 交易评估间隔
}

// Balances 是账户中基础资产与计价资产的可用数量。
// 每次交易评估都重新获取，绝不跨周期缓存。
type Balances struct {
	Base  float64
	Quote float64
}

// OptFloat 表示一个可能不可用的指标值（样本不足或数据获取失败）。
type OptFloat struct {
	Value float64
	Valid bool
}

// MarketSnapshot 每个评估周期生成一次，生成后不再修改。
// Valid 为 false 表示价格不可用，本周期不做任何判断；
// HasWindow 为 false 表示K线窗口不可用，依赖窗口的分支视为条件不成立。
type MarketSnapshot struct {
	Valid     bool
	Price     float64
	HasWindow bool
	WindowMin float64
	WindowMax float64
	WindowAvg float64
	RSI       OptFloat
	SMAShort  OptFloat
	SMALong   OptFloat
}

// Fill 是交易所返回的市价单成交结果。
type Fill struct {
	Quantity float64
	Price    float64
}

// OrderResult 记录一次下单尝试的完整结果，仅存在于日志与会话报告中。
type OrderResult struct {
	Side     Side
	Quantity float64
	Price    float64
	Success  bool
	Reason   string // 失败原因，成功时为空
	Time     time.Time
}
