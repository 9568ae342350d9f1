package eastmoney

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/internal/external/coerce"
)

// flowResponse is the realtime minute-series payload. The series rows
// are comma-joined strings: "时间,沪净流入,深净流入,合计,...", in 万.
type flowResponse struct {
	Data *struct {
		S2N []string `json:"s2n"`
		N2S []string `json:"n2s"`
	} `json:"data"`
}

// FetchNorthFlow fetches the latest northbound (沪股通+深股通) net flow.
func (c *Client) FetchNorthFlow(ctx context.Context) (*contracts.FlowRecord, error) {
	url := fmt.Sprintf("%s/api/qt/kamt.rtmin/get?fields1=f1,f2,f3,f4"+
		"&fields2=f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61,f62,f63,f64,f65,f66"+
		"&ut=%s&_=%s", c.baseURL, utToken, cacheBuster())

	var payload flowResponse
	if err := c.httpClient.GetJSON(ctx, url, c.headers(), &payload); err != nil {
		return nil, fmt.Errorf("north flow request failed: %w", err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("north flow response has no data block")
	}

	record, err := parseMinuteSeries(payload.Data.S2N, contracts.FlowNorth)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"sh_connect": record.SHConnect,
		"sz_connect": record.SZConnect,
		"total":      record.Total,
	}).Debug("Fetched north flow")
	return record, nil
}

// FetchSouthFlow fetches the latest southbound (港股通) net flow.
func (c *Client) FetchSouthFlow(ctx context.Context) (*contracts.FlowRecord, error) {
	url := fmt.Sprintf("%s/api/qt/kamtbs.rtmin/get?fields1=f1,f2,f3,f4"+
		"&fields2=f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61,f62,f63,f64,f65,f66"+
		"&ut=%s&_=%s", c.baseURL, utToken, cacheBuster())

	var payload flowResponse
	if err := c.httpClient.GetJSON(ctx, url, c.headers(), &payload); err != nil {
		return nil, fmt.Errorf("south flow request failed: %w", err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("south flow response has no data block")
	}

	record, err := parseMinuteSeries(payload.Data.N2S, contracts.FlowSouth)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"sh_connect": record.SHConnect,
		"sz_connect": record.SZConnect,
		"total":      record.Total,
	}).Debug("Fetched south flow")
	return record, nil
}

// parseMinuteSeries takes the last (most recent) row of the minute
// series and converts 万 to 亿. An empty series is not an error: before
// the session opens the endpoint legitimately returns no rows, and the
// caller gets a zero-valued record.
func parseMinuteSeries(series []string, flowType string) (*contracts.FlowRecord, error) {
	record := &contracts.FlowRecord{
		FlowType:   flowType,
		RecordedAt: time.Now(),
	}
	if len(series) == 0 {
		return record, nil
	}

	latest := series[len(series)-1]
	parts := strings.Split(latest, ",")
	if len(parts) < 4 {
		return nil, fmt.Errorf("flow row has %d fields, want >= 4", len(parts))
	}

	record.UpdateTime = parts[0]
	record.SHConnect = coerce.WanToYi(coerce.Float(parts[1]))
	record.SZConnect = coerce.WanToYi(coerce.Float(parts[2]))
	record.Total = coerce.WanToYi(coerce.Float(parts[3]))
	return record, nil
}
