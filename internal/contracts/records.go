package contracts

import "time"

// 캐노니컬 레코드 모델
// ⭐ SSOT: 모든 소스 어댑터는 업스트림 포맷을 여기 정의된 타입으로만 변환함

// Quote is a normalized index quote from any upstream source.
// 국내/홍콩 지수는 Sina, 미국 지수는 Yahoo에서 수집됨
type Quote struct {
	IndexCode     string    `json:"index_code"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Volume        float64   `json:"volume"`
	Amount        float64   `json:"amount,omitempty"`       // 成交额, domestic rows only
	MarketState   string    `json:"market_state,omitempty"` // PRE/REGULAR/POST/CLOSED, Yahoo rows only
	RecordedAt    time.Time `json:"recorded_at"`
}

// PremiumRecord is one QDII fund's premium/discount snapshot.
// NAV prefers the intraday estimate over the official value when the
// estimate is present and positive.
type PremiumRecord struct {
	FundCode     string    `json:"fund_code"`
	FundName     string    `json:"fund_name"`
	IndexType    string    `json:"index_type"`
	Price        float64   `json:"price"`
	NAV          float64   `json:"nav"`
	NavDate      string    `json:"nav_date"`
	PremiumRate  float64   `json:"premium_rate"`
	Volume       float64   `json:"volume"`      // 成交额（万）
	IncreaseRate float64   `json:"increase_rt"` // 当日涨跌幅
	ApplyStatus  string    `json:"apply_status"`
	RedeemStatus string    `json:"redeem_status"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Flow direction tags
const (
	FlowNorth = "north" // 북향: 沪股通 + 深股通
	FlowSouth = "south" // 남향: 港股通(沪) + 港股通(深)
)

// FlowRecord is a cross-border connect-program capital flow snapshot.
// Values are in 亿; the upstream reports 万 and adapters divide down.
type FlowRecord struct {
	FlowType   string    `json:"flow_type"`
	SHConnect  float64   `json:"sh_connect"`
	SZConnect  float64   `json:"sz_connect"`
	Total      float64   `json:"total"`
	UpdateTime string    `json:"update_time"`
	RecordedAt time.Time `json:"recorded_at"`
}

// DailyFlow is one day of the northbound connect-program kline, in 亿.
type DailyFlow struct {
	Date      string  `json:"date"`
	SHConnect float64 `json:"sh_connect"`
	SZConnect float64 `json:"sz_connect"`
	Total     float64 `json:"total"`
}

// FundProfile is ETF catalog metadata scraped from the fund profile
// pages. IndexType is resolved from the tracked-fund mapping, the rest
// comes from the page itself.
type FundProfile struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	IndexType  string    `json:"index_type"`
	Company    string    `json:"fund_company"`
	TrackIndex string    `json:"track_index"`
	IsQDII     bool      `json:"is_qdii"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// VIXIndicator is the volatility index reading with its qualitative level.
type VIXIndicator struct {
	Value         float64   `json:"value"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	PreviousClose float64   `json:"previous_close"`
	Level         string    `json:"level"` // low/normal/elevated/high
	Sentiment     string    `json:"sentiment"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DXYIndicator is the dollar index reading with its qualitative trend.
type DXYIndicator struct {
	Value         float64   `json:"value"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	PreviousClose float64   `json:"previous_close"`
	Trend         string    `json:"trend"` // strong/neutral/weak
	Description   string    `json:"description"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TreasuryYield is a single treasury yield curve point.
type TreasuryYield struct {
	Maturity      string    `json:"maturity"` // 2Y/5Y/10Y/30Y
	Yield         float64   `json:"yield"`
	Change        float64   `json:"change"`
	PreviousClose float64   `json:"previous_close"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// YieldCurve is the derived 10Y-2Y spread.
type YieldCurve struct {
	Spread      float64 `json:"spread"`
	Inverted    bool    `json:"inverted"`
	Description string  `json:"description"`
}

// SentimentIndicator is the 0-100 market sentiment ladder derived from
// the domestic benchmark's day change.
type SentimentIndicator struct {
	Score        int       `json:"score"`
	Level        string    `json:"level"` // extreme_greed/greed/neutral/fear/extreme_fear
	Description  string    `json:"description"`
	MarketChange float64   `json:"market_change"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MarketIndicators bundles all macro indicator readings. Any member may
// be nil when its upstream fetch failed; consumers must tolerate that.
type MarketIndicators struct {
	VIX         *VIXIndicator       `json:"vix"`
	DXY         *DXYIndicator       `json:"dxy"`
	Treasury10Y *TreasuryYield      `json:"treasury_10y"`
	Treasury2Y  *TreasuryYield      `json:"treasury_2y"`
	YieldCurve  *YieldCurve         `json:"yield_curve"`
	FearGreed   *SentimentIndicator `json:"fear_greed"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Event types
const (
	EventPremiumAlert = "premium_alert"
	EventFundFlow     = "fund_flow"
	EventIndexMove    = "index_move"
)

// Impact polarity
const (
	ImpactPositive = "positive"
	ImpactNegative = "negative"
	ImpactNeutral  = "neutral"
)

// Event is an alert generated by the alert engine. Events are immutable
// once created; the events table is append-only.
type Event struct {
	ID          int64                  `json:"id"`
	EventType   string                 `json:"event_type"`
	TargetIndex string                 `json:"target_index"`
	Title       string                 `json:"title"`
	Summary     string                 `json:"summary"`
	Impact      string                 `json:"impact"`
	Importance  int                    `json:"importance"` // 1-5
	SourceURL   string                 `json:"source_url,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// Prediction directions
const (
	DirectionBullish = "bullish"
	DirectionBearish = "bearish"
	DirectionNeutral = "neutral"
)

// Prediction confidence levels
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// PredictionFactor is one contributing signal surfaced on a prediction.
type PredictionFactor struct {
	Type   string `json:"type"`
	Label  string `json:"label"`
	Value  string `json:"value"`
	Impact string `json:"impact"`
}

// Prediction is a 48-hour directional forecast for one subject.
type Prediction struct {
	ID              int64              `json:"id"`
	IndexCode       string             `json:"index_code"`
	IndexName       string             `json:"index_name"`
	CurrentPrice    float64            `json:"current_price"`
	PredictedChange float64            `json:"predicted_change"`
	Direction       string             `json:"direction"`
	Confidence      string             `json:"confidence"`
	Factors         []PredictionFactor `json:"factors"`
	Summary         string             `json:"summary"`
	PredictedAt     time.Time          `json:"predicted_at"`
	ExpiresAt       time.Time          `json:"expires_at"`
}

// Valid reports whether the prediction is still current. The boundary is
// exclusive: a prediction expires the instant now reaches ExpiresAt.
func (p *Prediction) Valid(now time.Time) bool {
	return now.Before(p.ExpiresAt)
}
