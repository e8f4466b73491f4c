package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"spot-grid-bot-go/internal/models"
)

// settingsDefaults 是策略参数文件的全部键与默认值。
// 文件是一个人工编辑的扁平 key->string 映射，缺失的键回退到这里的默认值。
var settingsDefaults = map[string]string{
	"profit_percent":                   "0.02",
	"grid_percent":                     "0.01",
	"grid_part":                        "0.2",
	"best_buy_threshold":               "0.01",
	"rsi_period":                       "14",
	"rsi_overbought":                   "70",
	"rsi_oversold":                     "30",
	"sma_short_period":                 "9",
	"sma_long_period":                  "21",
	"trailing_stop_activation_percent": "0.02",
	"trailing_stop_percent":            "0.01",
	"risk_per_trade":                   "5.0",
	"price_poll_interval_seconds":      "10",
	"trade_eval_interval_seconds":      "60",
}

// LoadSettings 读取策略参数文件并一次性解析为带类型的 StrategySettings。
// 文件不存在时返回全部默认值；单个键缺失时回退到该键的默认值；
// 值无法解析或越界时返回错误（而不是带着坏参数继续运行）。
func LoadSettings(path string) (*models.StrategySettings, error) {
	raw := make(map[string]string, len(settingsDefaults))
	for k, v := range settingsDefaults {
		raw[k] = v
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		overrides := make(map[string]string)
		if err := json.Unmarshal(data, &overrides); err != nil {
			return nil, fmt.Errorf("设置文件 %s 格式错误: %w", path, err)
		}
		for k, v := range overrides {
			raw[k] = v
		}
	case os.IsNotExist(err):
		// 没有设置文件不是错误，使用默认参数
	default:
		return nil, err
	}

	return parseSettings(raw)
}

// WriteDefaultSettings 将默认参数写入设置文件，便于首次运行后人工调整。
func WriteDefaultSettings(path string) error {
	data, err := json.MarshalIndent(settingsDefaults, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func parseSettings(raw map[string]string) (*models.StrategySettings, error) {
	p := &settingsParser{raw: raw}

	s := &models.StrategySettings{
		ProfitPercent:                 p.float("profit_percent"),
		GridPercent:                   p.float("grid_percent"),
		GridPart:                      p.float("grid_part"),
		BestBuyThreshold:              p.float("best_buy_threshold"),
		RSIPeriod:                     p.integer("rsi_period"),
		RSIOverbought:                 p.float("rsi_overbought"),
		RSIOversold:                   p.float("rsi_oversold"),
		SMAShortPeriod:                p.integer("sma_short_period"),
		SMALongPeriod:                 p.integer("sma_long_period"),
		TrailingStopActivationPercent: p.float("trailing_stop_activation_percent"),
		TrailingStopPercent:           p.float("trailing_stop_percent"),
		RiskPerTrade:                  p.float("risk_per_trade"),
		PricePollInterval:             time.Duration(p.integer("price_poll_interval_seconds")) * time.Second,
		TradeEvalInterval:             time.Duration(p.integer("trade_eval_interval_seconds")) * time.Second,
	}
	if p.err != nil {
		return nil, p.err
	}

	if err := validateSettings(s); err != nil {
		return nil, err
	}
	return s, nil
}

// settingsParser 累积第一个解析错误，避免逐字段的错误处理样板。
type settingsParser struct {
	raw map[string]string
	err error
}

func (p *settingsParser) float(key string) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(p.raw[key], 64)
	if err != nil {
		p.err = fmt.Errorf("参数 %s 的值 %q 不是合法数字", key, p.raw[key])
		return 0
	}
	return v
}

func (p *settingsParser) integer(key string) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(p.raw[key])
	if err != nil {
		p.err = fmt.Errorf("参数 %s 的值 %q 不是合法整数", key, p.raw[key])
		return 0
	}
	return v
}

func validateSettings(s *models.StrategySettings) error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{s.ProfitPercent >= 0, "profit_percent 不能为负"},
		{s.GridPercent >= 0, "grid_percent 不能为负"},
		{s.GridPart > 0 && s.GridPart <= 1, "grid_part 必须在 (0, 1] 区间内"},
		{s.BestBuyThreshold >= 0, "best_buy_threshold 不能为负"},
		{s.RSIPeriod > 0, "rsi_period 必须为正"},
		{s.RSIOverbought >= 0 && s.RSIOverbought <= 100, "rsi_overbought 必须在 [0, 100] 区间内"},
		{s.RSIOversold >= 0 && s.RSIOversold <= 100, "rsi_oversold 必须在 [0, 100] 区间内"},
		{s.SMAShortPeriod > 0, "sma_short_period 必须为正"},
		{s.SMALongPeriod > 0, "sma_long_period 必须为正"},
		{s.TrailingStopActivationPercent >= 0, "trailing_stop_activation_percent 不能为负"},
		{s.TrailingStopPercent >= 0 && s.TrailingStopPercent < 1, "trailing_stop_percent 必须在 [0, 1) 区间内"},
		{s.RiskPerTrade >= 0, "risk_per_trade 不能为负"},
		{s.PricePollInterval > 0, "price_poll_interval_seconds 必须为正"},
		{s.TradeEvalInterval > 0, "trade_eval_interval_seconds 必须为正"},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("非法策略参数: %s", c.msg)
		}
	}
	return nil
}
