package exchange

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	feedPongWait   = 60 * time.Second
	feedPingPeriod = (feedPongWait * 9) / 10
	feedRetryDelay = 5 * time.Second
	// 超过该时长未收到成交视为数据过期，轮询方回退到REST
	feedStaleAfter = 30 * time.Second
)

// PriceFeed 通过 WebSocket 成交流维护一个最新价，作为价格轮询的廉价来源。
// 连接断开时自动重连；数据过期时 Latest 返回不可用，调用方回退到REST。
// 生命周期是一次性的：Stop 之后不可再 Start，重启需要新建实例。
type PriceFeed struct {
	url    string
	logger *zap.SugaredLogger

	startOnce sync.Once
	started   bool
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}

	mu     sync.RWMutex
	last   float64
	lastAt time.Time
}

// NewPriceFeed 创建一个订阅指定交易对成交流的价格源。
func NewPriceFeed(wsBaseURL, symbol string, logger *zap.SugaredLogger) *PriceFeed {
	return &PriceFeed{
		url:    fmt.Sprintf("%s/ws/%s@trade", strings.TrimRight(wsBaseURL, "/"), strings.ToLower(symbol)),
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start 启动后台连接循环。重复调用是无操作。
func (f *PriceFeed) Start() {
	f.startOnce.Do(func() {
		f.started = true
		go f.loop()
	})
}

// Stop 关闭价格源并等待后台循环退出。重复调用是无操作。
func (f *PriceFeed) Stop() {
	f.stopOnce.Do(func() {
		close(f.stop)
	})
	if f.started {
		<-f.done
	}
}

// Latest 返回最近一次收到的成交价。数据过期或尚未收到时第二个返回值为 false。
func (f *PriceFeed) Latest() (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.last <= 0 || time.Since(f.lastAt) > feedStaleAfter {
		return 0, false
	}
	return f.last, true
}

// loop 是一个守护循环，负责维持连接和重连。
func (f *PriceFeed) loop() {
	defer close(f.done)
	for {
		select {
		case <-f.stop:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
		if err != nil {
			f.logger.Warnf("价格流连接失败: %v，%s后重试", err, feedRetryDelay)
			if !f.sleep(feedRetryDelay) {
				return
			}
			continue
		}

		f.logger.Info("价格流连接成功")
		if err := f.consume(conn); err != nil {
			f.logger.Warnf("价格流中断: %v", err)
		}
		conn.Close()

		select {
		case <-f.stop:
			return
		default:
			if !f.sleep(feedRetryDelay) {
				return
			}
		}
	}
}

// consume 为一个已建立的连接处理消息，并实现心跳机制。
func (f *PriceFeed) consume(conn *websocket.Conn) error {
	conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(feedPongWait))
		return nil
	})

	pingTicker := time.NewTicker(feedPingPeriod)
	defer pingTicker.Stop()

	readerDone := make(chan struct{})
	defer close(readerDone)

	go func() {
		for {
			select {
			case <-pingTicker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-f.stop:
				// 发送关闭帧并立即截断读超时，唤醒阻塞中的 ReadMessage，
				// 否则安静的流会让 Stop 等到读超时才返回
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				conn.SetReadDeadline(time.Now())
				return
			case <-readerDone:
				return
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-f.stop:
				return nil
			default:
			}
			return fmt.Errorf("读取消息失败: %w", err)
		}

		var trade struct {
			Price json.Number `json:"p"`
		}
		if err := json.Unmarshal(message, &trade); err != nil {
			f.logger.Warnf("解析成交消息失败: %v", err)
			continue
		}
		price, err := trade.Price.Float64()
		if err != nil || price <= 0 {
			continue
		}

		f.mu.Lock()
		f.last = price
		f.lastAt = time.Now()
		f.mu.Unlock()
	}
}

// sleep 等待给定时长，期间收到停止信号时返回 false。
func (f *PriceFeed) sleep(d time.Duration) bool {
	select {
	case <-f.stop:
		return false
	case <-time.After(d):
		return true
	}
}
