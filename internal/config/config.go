package config

import (
	"encoding/json"
	"fmt"
	"os"

	"spot-grid-bot-go/internal/models"
)

// LoadConfig 从指定路径加载JSON配置文件并解析到Config结构体中
func LoadConfig(path string) (*models.Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	config := &models.Config{}
	err = decoder.Decode(config)
	if err != nil {
		return nil, err
	}

	applyConfigDefaults(config)
	if config.Symbol == "" || config.BaseAsset == "" || config.QuoteAsset == "" {
		return nil, fmt.Errorf("配置文件缺少 symbol/base_asset/quote_asset")
	}

	return config, nil
}

// applyConfigDefaults 为未填写的运行配置补上默认值。
func applyConfigDefaults(cfg *models.Config) {
	if cfg.KlineInterval == "" {
		cfg.KlineInterval = "5m"
	}
	if cfg.KlineWindow <= 0 {
		cfg.KlineWindow = 100
	}
	if cfg.StateBackend == "" {
		cfg.StateBackend = "file"
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "trade_state.json"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "state_db"
	}
	if cfg.SettingsFile == "" {
		cfg.SettingsFile = "settings.json"
	}
	if cfg.WSBaseURL == "" {
		cfg.WSBaseURL = "wss://stream.binance.com:9443"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.LogConfig.Output == "" {
		cfg.LogConfig.Output = "console"
	}
}
