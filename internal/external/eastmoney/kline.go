package eastmoney

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/internal/external/coerce"
)

// FetchNorthFlowHistory fetches the northbound daily kline for the last
// `days` trading days. Rows are "日期,沪,深,合计,..." in 万; short rows
// are skipped.
func (c *Client) FetchNorthFlowHistory(ctx context.Context, days int) ([]contracts.DailyFlow, error) {
	if days <= 0 {
		days = 20
	}

	url := fmt.Sprintf("%s/api/qt/kamt.kline/get"+
		"?fields1=f1,f2,f3,f4,f5,f6,f7,f8,f9,f10,f11,f12,f13"+
		"&fields2=f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61"+
		"&klt=101&lmt=%d&ut=%s&_=%s", c.histBaseURL, days, utToken, cacheBuster())

	var payload flowResponse
	if err := c.httpClient.GetJSON(ctx, url, c.headers(), &payload); err != nil {
		return nil, fmt.Errorf("north flow history request failed: %w", err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("north flow history response has no data block")
	}

	results := make([]contracts.DailyFlow, 0, len(payload.Data.S2N))
	for _, row := range payload.Data.S2N {
		parts := strings.Split(row, ",")
		if len(parts) < 4 {
			continue
		}
		results = append(results, contracts.DailyFlow{
			Date:      parts[0],
			SHConnect: coerce.WanToYi(coerce.Float(parts[1])),
			SZConnect: coerce.WanToYi(coerce.Float(parts[2])),
			Total:     coerce.WanToYi(coerce.Float(parts[3])),
		})
	}

	c.logger.WithField("count", len(results)).Debug("Fetched north flow history")
	return results, nil
}
