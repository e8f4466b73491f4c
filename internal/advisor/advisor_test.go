package advisor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient("test-key", "test-model")
	client.baseURL = server.URL
	return client, server
}

func candidateResponse(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":"` + text + `"}]}}]}`
}

func TestGetSignalParsesAnswer(t *testing.T) {
	cases := []struct {
		text string
		want Signal
	}{
		{"buy", SignalBuy},
		{"Buy.", SignalBuy},
		{"SELL", SignalSell},
		{"hold steady", SignalHold},
		{"the market is uncertain", SignalOpaque},
	}
	for _, tc := range cases {
		client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			w.Write([]byte(candidateResponse(tc.text)))
		})
		signal, err := client.GetSignal(context.Background(), "BTCUSDT")
		server.Close()
		require.NoError(t, err)
		assert.Equal(t, tc.want, signal, "answer %q", tc.text)
	}
}

func TestGetSignalEmptyCandidates(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})
	defer server.Close()

	signal, err := client.GetSignal(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, SignalOpaque, signal)
}

func TestGetSignalHTTPError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	defer server.Close()

	signal, err := client.GetSignal(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.Equal(t, SignalOpaque, signal)
	assert.Contains(t, err.Error(), "429")
}
