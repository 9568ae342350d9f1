package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wonny/indexpulse/backend/internal/contracts"
	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/httputil"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

func chartFixture(symbol, shortName string, price, prevClose float64) string {
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{
		"symbol":%q,"shortName":%q,"marketState":"REGULAR",
		"regularMarketPrice":%v,"previousClose":%v,
		"regularMarketOpen":%v,"regularMarketDayHigh":%v,
		"regularMarketDayLow":%v,"regularMarketVolume":1000000
	}}],"error":null}}`, symbol, shortName, price, prevClose, prevClose, price, prevClose)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		LogLevel:  "error",
		LogFormat: "console",
		Sources: config.SourcesConfig{
			YahooBaseURL: server.URL,
			Timeout:      5 * time.Second,
		},
	}
	log := logger.New(cfg)
	return NewClient(cfg, httputil.New(cfg, log).DisableRetry(), log), server
}

func TestFetchQuote(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v8/finance/chart/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("range") != "1d" {
			t.Errorf("range = %q, want 1d", r.URL.Query().Get("range"))
		}
		fmt.Fprint(w, chartFixture("^GSPC", "S&P 500", 5100.0, 5000.0))
	})

	quote, err := client.FetchQuote(context.Background(), "^GSPC")
	if err != nil {
		t.Fatalf("FetchQuote() error = %v", err)
	}

	if quote.Price != 5100.0 {
		t.Errorf("Price = %v, want 5100", quote.Price)
	}
	if quote.Change != 100.0 {
		t.Errorf("Change = %v, want 100", quote.Change)
	}
	if quote.ChangePercent != 2.0 {
		t.Errorf("ChangePercent = %v, want 2.0", quote.ChangePercent)
	}
	if quote.Name != "S&P 500" {
		t.Errorf("Name = %q, want S&P 500", quote.Name)
	}
	if quote.MarketState != "REGULAR" {
		t.Errorf("MarketState = %q, want REGULAR", quote.MarketState)
	}
}

func TestFetchQuoteZeroPreviousClose(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartFixture("^NDX", "NASDAQ 100", 18000.0, 0))
	})

	quote, err := client.FetchQuote(context.Background(), "^NDX")
	if err != nil {
		t.Fatalf("FetchQuote() error = %v", err)
	}
	if quote.ChangePercent != 0 {
		t.Errorf("ChangePercent = %v, want 0 when previous close is missing", quote.ChangePercent)
	}
}

func TestFetchQuoteChartError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	})

	if _, err := client.FetchQuote(context.Background(), "^BOGUS"); err == nil {
		t.Error("FetchQuote() expected error for chart error payload")
	}
}

func TestFetchVIXLevels(t *testing.T) {
	tests := []struct {
		price         float64
		wantLevel     string
		wantSentiment string
	}{
		{12.5, "low", "贪婪"},
		{17.0, "normal", "平稳"},
		{24.0, "elevated", "谨慎"},
		{35.0, "high", "恐慌"},
	}

	for _, tt := range tests {
		t.Run(tt.wantLevel, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("range") != "5d" {
					t.Errorf("range = %q, want 5d", r.URL.Query().Get("range"))
				}
				fmt.Fprint(w, chartFixture("^VIX", "CBOE Volatility Index", tt.price, tt.price))
			})

			vix, err := client.FetchVIX(context.Background())
			if err != nil {
				t.Fatalf("FetchVIX() error = %v", err)
			}
			if vix.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", vix.Level, tt.wantLevel)
			}
			if vix.Sentiment != tt.wantSentiment {
				t.Errorf("Sentiment = %q, want %q", vix.Sentiment, tt.wantSentiment)
			}
		})
	}
}

func TestFetchDXYTrends(t *testing.T) {
	tests := []struct {
		price     float64
		wantTrend string
	}{
		{106.2, "strong"},
		{103.0, "neutral"},
		{98.5, "weak"},
	}

	for _, tt := range tests {
		t.Run(tt.wantTrend, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, chartFixture("DX-Y.NYB", "US Dollar Index", tt.price, tt.price))
			})

			dxy, err := client.FetchDXY(context.Background())
			if err != nil {
				t.Fatalf("FetchDXY() error = %v", err)
			}
			if dxy.Trend != tt.wantTrend {
				t.Errorf("Trend = %q, want %q (price %v)", dxy.Trend, tt.wantTrend, tt.price)
			}
		})
	}
}

func TestFetchTreasuryYieldScaling(t *testing.T) {
	// bond symbols arrive scaled by 10; the short-rate proxy does not
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "%5ETNX"), strings.Contains(r.URL.Path, "^TNX"):
			fmt.Fprint(w, chartFixture("^TNX", "10Y", 45.3, 44.8))
		case strings.Contains(r.URL.Path, "%5EIRX"), strings.Contains(r.URL.Path, "^IRX"):
			fmt.Fprint(w, chartFixture("^IRX", "13W", 5.2, 5.2))
		default:
			http.NotFound(w, r)
		}
	})

	t10, err := client.FetchTreasuryYield(context.Background(), "10Y")
	if err != nil {
		t.Fatalf("FetchTreasuryYield(10Y) error = %v", err)
	}
	if t10.Yield != 4.53 {
		t.Errorf("10Y Yield = %v, want 4.53 (divided by 10)", t10.Yield)
	}
	if t10.Change != 0.05 {
		t.Errorf("10Y Change = %v, want 0.05", t10.Change)
	}

	t2, err := client.FetchTreasuryYield(context.Background(), "2Y")
	if err != nil {
		t.Fatalf("FetchTreasuryYield(2Y) error = %v", err)
	}
	if t2.Yield != 5.2 {
		t.Errorf("2Y Yield = %v, want 5.2 (no scaling)", t2.Yield)
	}

	if _, err := client.FetchTreasuryYield(context.Background(), "7Y"); err == nil {
		t.Error("expected error for unsupported maturity")
	}
}

func TestBuildYieldCurve(t *testing.T) {
	long := &contracts.TreasuryYield{Maturity: "10Y", Yield: 4.5}
	short := &contracts.TreasuryYield{Maturity: "2Y", Yield: 5.0}

	curve := BuildYieldCurve(long, short)
	if curve == nil {
		t.Fatal("BuildYieldCurve() = nil")
	}
	if curve.Spread != -0.5 {
		t.Errorf("Spread = %v, want -0.5", curve.Spread)
	}
	if !curve.Inverted {
		t.Error("Inverted = false, want true")
	}
	if curve.Description != "收益率曲线倒挂" {
		t.Errorf("Description = %q", curve.Description)
	}

	if BuildYieldCurve(nil, short) != nil {
		t.Error("BuildYieldCurve(nil, _) should be nil")
	}
}
