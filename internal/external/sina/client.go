package sina

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/internal/external/coerce"
	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/httputil"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

// Client fetches index quotes from the Sina quote feed.
// ⭐ SSOT: Sina 시세 호출은 이 클라이언트에서만
//
// The feed is a GBK text response of `var hq_str_<code>="f0,f1,...";`
// lines, one per requested code.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Sina quote client.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.Sources.SinaBaseURL,
	}
}

var quoteLinePattern = regexp.MustCompile(`var hq_str_(\w+)="([^"]*)"`)

// FetchQuotes fetches quotes for a batch of Sina codes in one request.
// Codes missing from the response or failing to parse are skipped.
func (c *Client) FetchQuotes(ctx context.Context, codes []string) (map[string]contracts.Quote, error) {
	if len(codes) == 0 {
		return map[string]contracts.Quote{}, nil
	}

	url := fmt.Sprintf("%s/list=%s", c.baseURL, strings.Join(codes, ","))

	resp, err := c.httpClient.GetWithHeaders(ctx, url, map[string]string{
		"Referer": "https://finance.sina.com.cn/",
	})
	if err != nil {
		return nil, fmt.Errorf("sina quote request failed: %w", err)
	}

	body, err := httputil.ReadBodyGBK(resp)
	if err != nil {
		return nil, fmt.Errorf("read sina response failed: %w", err)
	}

	now := time.Now()
	results := make(map[string]contracts.Quote)
	for _, match := range quoteLinePattern.FindAllStringSubmatch(string(body), -1) {
		code, dataStr := match[1], match[2]

		quote, err := parseQuote(code, dataStr)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"code":  code,
				"error": err.Error(),
			}).Warn("Skipping unparseable sina quote")
			continue
		}
		quote.RecordedAt = now
		results[code] = *quote
	}

	c.logger.WithField("count", len(results)).Debug("Fetched sina quotes")
	return results, nil
}

// FetchIndexQuotes fetches all Sina-sourced monitored subjects, keyed by
// the subject code instead of the raw Sina code.
func (c *Client) FetchIndexQuotes(ctx context.Context) (map[string]contracts.Quote, error) {
	raw, err := c.FetchQuotes(ctx, contracts.SinaCodes())
	if err != nil {
		return nil, err
	}

	results := make(map[string]contracts.Quote, len(raw))
	for sinaCode, quote := range raw {
		indexCode := contracts.IndexCodeForSina(sinaCode)
		if indexCode == "" {
			continue
		}
		quote.IndexCode = indexCode
		results[indexCode] = quote
	}
	return results, nil
}

// parseQuote decodes one quote payload. Domestic (sh/sz) and Hong-Kong
// (hk) codes use different field layouts; empty fields parse to 0.
func parseQuote(code, dataStr string) (*contracts.Quote, error) {
	if dataStr == "" {
		return nil, fmt.Errorf("empty payload")
	}

	parts := strings.Split(dataStr, ",")

	switch {
	// A股: 名称,今开,昨收,当前,最高,最低,买入,卖出,成交量,成交额,...
	case strings.HasPrefix(code, "sh") || strings.HasPrefix(code, "sz"):
		if len(parts) < 10 {
			return nil, fmt.Errorf("domestic row has %d fields, want >= 10", len(parts))
		}
		current := coerce.Float(parts[3])
		prevClose := coerce.Float(parts[2])
		change := current - prevClose
		changePercent := 0.0
		if prevClose != 0 {
			changePercent = coerce.Round(change/prevClose*100, 2)
		}
		return &contracts.Quote{
			Name:          parts[0],
			Price:         current,
			Change:        change,
			ChangePercent: changePercent,
			Open:          coerce.Float(parts[1]),
			High:          coerce.Float(parts[4]),
			Low:           coerce.Float(parts[5]),
			Volume:        coerce.Float(parts[8]),
			Amount:        coerce.Float(parts[9]),
		}, nil

	// 港股: 名称,今开,昨收,最高,最低,当前,涨跌,涨幅%,买入,卖出,成交量,成交额,时间
	// (change and percent arrive pre-computed)
	case strings.HasPrefix(code, "hk"):
		if len(parts) < 10 {
			return nil, fmt.Errorf("hk row has %d fields, want >= 10", len(parts))
		}
		quote := &contracts.Quote{
			Name:          parts[0],
			Price:         coerce.Float(parts[6]),
			Change:        coerce.Float(parts[7]),
			ChangePercent: coerce.Float(parts[8]),
			Open:          coerce.Float(parts[2]),
			High:          coerce.Float(parts[4]),
			Low:           coerce.Float(parts[5]),
		}
		if len(parts) > 11 {
			quote.Volume = coerce.Float(parts[11])
		}
		return quote, nil

	default:
		return nil, fmt.Errorf("unknown market prefix in code %s", code)
	}
}
