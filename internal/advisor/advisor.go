// Package advisor 调用生成式模型接口获取一个参考性的买卖倾向信号。
// 信号只用于日志参考，绝不参与任何下单决策。
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Signal 是顾问给出的倾向。
type Signal string

const (
	SignalBuy    Signal = "buy"
	SignalSell   Signal = "sell"
	SignalHold   Signal = "hold"
	SignalOpaque Signal = "opaque"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client 封装 generateContent 接口。
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建顾问客户端。model 为空时使用 gemini-2.0-flash。
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GetSignal 向模型询问指定交易对的短线倾向。
// 回答无法归类为 buy/sell/hold 时返回 SignalOpaque。
func (c *Client) GetSignal(ctx context.Context, symbol string) (Signal, error) {
	prompt := fmt.Sprintf(
		"You are a cautious crypto market observer. For the spot pair %s, answer with exactly one word: buy, sell or hold.",
		symbol,
	)
	body, err := json.Marshal(&generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return SignalOpaque, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return SignalOpaque, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SignalOpaque, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return SignalOpaque, fmt.Errorf("顾问接口返回 %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return SignalOpaque, fmt.Errorf("解析顾问响应失败: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return SignalOpaque, nil
	}

	answer := strings.ToLower(strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text))
	switch {
	case strings.HasPrefix(answer, "buy"):
		return SignalBuy, nil
	case strings.HasPrefix(answer, "sell"):
		return SignalSell, nil
	case strings.HasPrefix(answer, "hold"):
		return SignalHold, nil
	default:
		return SignalOpaque, nil
	}
}
