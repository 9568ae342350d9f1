package contracts

// IndexInfo maps a tracked subject to its upstream quote codes.
type IndexInfo struct {
	Name      string `json:"name"`
	SinaCode  string `json:"sina_code,omitempty"`
	YahooCode string `json:"yahoo_code,omitempty"`
}

// IndexMapping is the set of monitored index subjects.
// ⭐ SSOT: 모니터링 지수 목록은 여기서만 정의
var IndexMapping = map[string]IndexInfo{
	"csi300":    {Name: "沪深300", SinaCode: "sh000300"},
	"star50":    {Name: "科创50", SinaCode: "sh000688"},
	"hsi":       {Name: "恒生指数", SinaCode: "hkHSI"},
	"hstech":    {Name: "恒生科技", SinaCode: "hkHSTECH"},
	"sp500":     {Name: "标普500", YahooCode: "^GSPC"},
	"nasdaq100": {Name: "纳斯达克100", YahooCode: "^NDX"},
}

// IndexOrder fixes the iteration order over IndexMapping so snapshots,
// predictions and status payloads come out deterministic.
var IndexOrder = []string{"csi300", "star50", "hsi", "hstech", "sp500", "nasdaq100"}

// TrackedFunds maps each overseas index subject to the QDII fund codes
// that track it on the domestic exchanges.
var TrackedFunds = map[string][]string{
	"sp500":     {"513500", "159612", "513650", "513850"},
	"nasdaq100": {"513100", "159941", "513300", "159632"},
	"hsi":       {"159920", "513660", "513030"},
	"hstech":    {"513180", "513130", "159740"},
}

// TrackedFundOrder fixes iteration order over TrackedFunds.
var TrackedFundOrder = []string{"sp500", "nasdaq100", "hsi", "hstech"}

var allTrackedCodes = func() map[string]string {
	codes := make(map[string]string)
	for indexType, funds := range TrackedFunds {
		for _, code := range funds {
			codes[code] = indexType
		}
	}
	return codes
}()

// IsTrackedFund reports whether the fund code belongs to the allow-list.
func IsTrackedFund(code string) bool {
	_, ok := allTrackedCodes[code]
	return ok
}

// IndexTypeForFund returns the index family a fund tracks, or "".
func IndexTypeForFund(code string) string {
	return allTrackedCodes[code]
}

// AllTrackedFundCodes returns every tracked fund code in a stable order.
func AllTrackedFundCodes() []string {
	codes := make([]string, 0, len(allTrackedCodes))
	for _, indexType := range TrackedFundOrder {
		codes = append(codes, TrackedFunds[indexType]...)
	}
	return codes
}

// SinaCodes returns the Sina quote codes of all Sina-sourced subjects,
// in IndexOrder.
func SinaCodes() []string {
	var codes []string
	for _, indexCode := range IndexOrder {
		if info := IndexMapping[indexCode]; info.SinaCode != "" {
			codes = append(codes, info.SinaCode)
		}
	}
	return codes
}

// IndexCodeForSina resolves a Sina quote code back to its subject, or "".
func IndexCodeForSina(sinaCode string) string {
	for indexCode, info := range IndexMapping {
		if info.SinaCode == sinaCode {
			return indexCode
		}
	}
	return ""
}

// IsDomesticIndex reports whether the subject is an A-share index,
// the ones north flow acts on.
func IsDomesticIndex(indexCode string) bool {
	return indexCode == "csi300" || indexCode == "star50"
}

// IsHKIndex reports whether the subject is Hong-Kong listed.
func IsHKIndex(indexCode string) bool {
	return indexCode == "hsi" || indexCode == "hstech"
}

// IsUSIndex reports whether the subject tracks a US market.
func IsUSIndex(indexCode string) bool {
	return indexCode == "sp500" || indexCode == "nasdaq100"
}

// HasPremiumFunds reports whether the subject has a mapped QDII fund
// family whose premium feeds the scoring engine.
func HasPremiumFunds(indexCode string) bool {
	switch indexCode {
	case "sp500", "nasdaq100", "hsi":
		return true
	}
	return false
}
