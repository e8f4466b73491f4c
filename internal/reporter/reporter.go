// Package reporter 累积本次会话的全部下单结果，停机时输出一张汇总表。
// 报表只来自内存记录：订单结果是瞬态数据，除日志外不做持久化。
package reporter

import (
	"fmt"
	"sync"

	"spot-grid-bot-go/internal/models"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Reporter 是会话级的交易记录器，可被循环与测试并发使用。
type Reporter struct {
	mu      sync.Mutex
	results []models.OrderResult
}

// New 创建一个空的会话记录器。
func New() *Reporter {
	return &Reporter{}
}

// Record 追加一次下单尝试的结果（无论成败）。
func (r *Reporter) Record(result *models.OrderResult) {
	if result == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, *result)
}

// Results 返回记录的副本。
func (r *Reporter) Results() []models.OrderResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.OrderResult, len(r.results))
	copy(out, r.results)
	return out
}

// Summary 渲染会话汇总表。没有任何下单尝试时返回空字符串。
func (r *Reporter) Summary() string {
	results := r.Results()
	if len(results) == 0 {
		return ""
	}

	var buys, sells, failures int
	var bought, sold float64

	t := table.NewWriter()
	t.SetTitle("会话交易汇总")
	t.AppendHeader(table.Row{"时间", "方向", "数量", "价格", "结果", "原因"})
	for _, res := range results {
		outcome := "成功"
		if !res.Success {
			outcome = "失败"
			failures++
		} else if res.Side == models.Buy {
			buys++
			bought += res.Quantity
		} else {
			sells++
			sold += res.Quantity
		}
		t.AppendRow(table.Row{
			res.Time.Format("2006-01-02 15:04:05"),
			res.Side,
			fmt.Sprintf("%.8f", res.Quantity),
			fmt.Sprintf("%.8f", res.Price),
			outcome,
			res.Reason,
		})
	}
	t.AppendFooter(table.Row{
		"", "",
		fmt.Sprintf("买 %.8f / 卖 %.8f", bought, sold),
		"",
		fmt.Sprintf("%d买 %d卖 %d失败", buys, sells, failures),
		"",
	})
	return t.Render()
}
