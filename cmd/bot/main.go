package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"spot-grid-bot-go/internal/advisor"
	"spot-grid-bot-go/internal/bot"
	"spot-grid-bot-go/internal/config"
	"spot-grid-bot-go/internal/exchange"
	"spot-grid-bot-go/internal/logger"
	"spot-grid-bot-go/internal/models"
	"spot-grid-bot-go/internal/persistence"
	"spot-grid-bot-go/internal/statemanager"

	"github.com/joho/godotenv"
)

func main() {
	// --- 命令行参数定义 ---
	configPath := flag.String("config", "config.json", "path to the config file")
	initSettings := flag.Bool("init-settings", false, "write the default settings file and exit")
	flag.Parse()

	// --- 初始化日志 (提前) ---
	// 在加载.env与配置文件之前就需要能记录日志，先用默认配置初始化一次
	logger.InitLogger(models.LogConfig{Level: "info", Output: "console"})

	// --- 加载 .env 文件 ---
	if err := godotenv.Load(); err != nil {
		logger.S().Info("未找到 .env 文件，将从系统环境变量中读取。")
	} else {
		logger.S().Info("成功从 .env 文件加载配置。")
	}

	// --- 加载 JSON 配置 ---
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.S().Fatalf("无法加载配置文件: %v", err)
	}

	// --- 使用文件中的配置重新初始化日志 ---
	logger.InitLogger(cfg.LogConfig)
	defer logger.S().Sync()

	if *initSettings {
		if err := config.WriteDefaultSettings(cfg.SettingsFile); err != nil {
			logger.S().Fatalf("写入默认策略参数失败: %v", err)
		}
		logger.S().Infof("默认策略参数已写入 %s", cfg.SettingsFile)
		return
	}

	// --- 加载策略参数 ---
	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		logger.S().Fatalf("无法加载策略参数: %v", err)
	}

	// --- 从环境变量加载API密钥 ---
	apiKey := os.Getenv("BINANCE_API_KEY")
	secretKey := os.Getenv("BINANCE_SECRET_KEY")
	if apiKey == "" || secretKey == "" {
		logger.S().Fatal("错误：BINANCE_API_KEY 和 BINANCE_SECRET_KEY 环境变量必须被设置。")
	}
	if cfg.IsTestnet {
		logger.S().Info("正在使用币安测试网...")
	}

	// --- 初始化状态存储 ---
	repo, err := newStateRepository(cfg)
	if err != nil {
		logger.S().Fatalf("初始化状态存储失败: %v", err)
	}
	manager := statemanager.NewManager(repo, logger.S())
	defer func() {
		if err := manager.Close(); err != nil {
			logger.S().Errorf("关闭状态存储失败: %v", err)
		}
	}()

	// --- 初始化交易所与可选组件 ---
	gateway := exchange.NewLiveExchange(apiKey, secretKey, cfg, logger.S())

	var adv bot.AdvisorClient
	if geminiKey := os.Getenv("GEMINI_API_KEY"); geminiKey != "" {
		adv = advisor.NewClient(geminiKey, cfg.AdvisorModel)
		logger.S().Info("建议信号已启用（仅供日志参考，不参与决策）。")
	}

	trader := bot.NewBot(cfg, gateway, manager, settings, adv)
	trader.Start()

	// --- 信号处理：SIGHUP热加载参数，SIGINT/SIGTERM优雅退出 ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			next, err := config.LoadSettings(cfg.SettingsFile)
			if err != nil {
				logger.S().Errorf("热加载策略参数失败，继续使用当前参数: %v", err)
				continue
			}
			trader.ReloadSettings(next)
			continue
		}
		break
	}

	trader.Stop()
	logger.S().Info("机器人已成功停止，状态已保存。")
}

// newStateRepository 按配置选择状态存储后端。
func newStateRepository(cfg *models.Config) (persistence.StateRepository, error) {
	if cfg.StateBackend == "badger" {
		return persistence.NewBadgerRepository(cfg.DBPath)
	}
	return persistence.NewFileRepository(cfg.StateFile)
}
