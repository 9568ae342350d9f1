package eastmoney

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/pkg/httputil"
)

// FetchFundProfile scrapes one fund profile page (GBK, label/value
// table) for catalog metadata.
func (c *Client) FetchFundProfile(ctx context.Context, code string) (*contracts.FundProfile, error) {
	url := fmt.Sprintf("%s/jbgk_%s.html", c.profileBaseURL, code)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fund profile request failed for %s: %w", code, err)
	}

	body, err := httputil.ReadBodyGBK(resp)
	if err != nil {
		return nil, fmt.Errorf("read fund profile failed for %s: %w", code, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse fund profile failed for %s: %w", code, err)
	}

	// 기본개황 테이블: th=라벨, 바로 옆 td=값
	fields := make(map[string]string)
	doc.Find("table.info th").Each(func(_ int, th *goquery.Selection) {
		label := strings.TrimSpace(th.Text())
		value := strings.TrimSpace(th.Next().Text())
		if label != "" {
			fields[label] = value
		}
	})

	name := fields["基金全称"]
	if name == "" {
		name = fields["基金简称"]
	}
	if name == "" {
		return nil, fmt.Errorf("fund profile page for %s has no name field", code)
	}

	fundType := fields["基金类型"]

	return &contracts.FundProfile{
		Code:       code,
		Name:       name,
		IndexType:  contracts.IndexTypeForFund(code),
		Company:    fields["基金管理人"],
		TrackIndex: fields["跟踪标的"],
		IsQDII:     strings.Contains(fundType, "QDII") || strings.Contains(name, "QDII"),
		UpdatedAt:  time.Now(),
	}, nil
}

// FetchFundProfiles scrapes every tracked fund. Row-scoped failures
// skip that fund so one broken page never aborts a catalog sync.
func (c *Client) FetchFundProfiles(ctx context.Context) ([]contracts.FundProfile, error) {
	codes := contracts.AllTrackedFundCodes()
	profiles := make([]contracts.FundProfile, 0, len(codes))

	for _, code := range codes {
		profile, err := c.FetchFundProfile(ctx, code)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"fund_code": code,
				"error":     err.Error(),
			}).Warn("Skipping failed fund profile")
			continue
		}
		profiles = append(profiles, *profile)
	}

	if len(profiles) == 0 {
		return nil, fmt.Errorf("no fund profiles could be fetched")
	}
	return profiles, nil
}
