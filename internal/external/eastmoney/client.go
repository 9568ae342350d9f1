// Package eastmoney fetches cross-border capital flows, the domestic
// sentiment proxy and ETF catalog metadata from the Eastmoney endpoints.
package eastmoney

import (
	"fmt"
	"time"

	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/httputil"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// 공개 쿼리 토큰. 웹 프론트가 쓰는 고정값
const utToken = "b2884a393a59ad64002292a3e90d46a5"

// Client talks to the Eastmoney push2/push2his/fundf10 hosts.
// ⭐ SSOT: Eastmoney 호출은 이 클라이언트에서만
type Client struct {
	httpClient     *httputil.Client
	logger         *logger.Logger
	baseURL        string // realtime (push2)
	histBaseURL    string // history klines (push2his)
	profileBaseURL string // fund profile pages (fundf10)
}

// NewClient creates a new Eastmoney client.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		logger:         log,
		baseURL:        cfg.Sources.EastmoneyBaseURL,
		histBaseURL:    cfg.Sources.EastmoneyHistBaseURL,
		profileBaseURL: cfg.Sources.FundProfileBaseURL,
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Referer": "https://data.eastmoney.com/",
	}
}

// cacheBuster mirrors the `_` query param the web frontend sends.
func cacheBuster() string {
	return fmt.Sprintf("%d", time.Now().UnixMilli())
}
