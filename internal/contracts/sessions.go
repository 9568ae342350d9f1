package contracts

import "time"

// 거래 세션 판정. 스케줄 잡은 장중 여부와 무관하게 돌지만
// /api/status가 세션 상태를 노출함

// IsTradingTimeCN reports whether t falls inside the A-share session:
// Mon-Fri 09:30-11:30 and 13:00-15:00 local time.
func IsTradingTimeCN(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}

	hm := t.Hour()*100 + t.Minute()
	if hm >= 930 && hm <= 1130 {
		return true
	}
	if hm >= 1300 && hm <= 1500 {
		return true
	}
	return false
}

// IsTradingTimeUS reports whether t falls inside the US session seen
// from Beijing time. Simplified to the 21:00-06:00 night window, with
// Saturday mornings cut off at 06:00 and Sundays closed.
func IsTradingTimeUS(t time.Time) bool {
	if t.Weekday() == time.Saturday && t.Hour() >= 6 {
		return false
	}
	if t.Weekday() == time.Sunday {
		return false
	}

	return t.Hour() >= 21 || t.Hour() < 6
}

// MarketSessions summarizes session state for the status endpoint.
func MarketSessions(t time.Time) map[string]bool {
	return map[string]bool{
		"cn_open": IsTradingTimeCN(t),
		"us_open": IsTradingTimeUS(t),
	}
}
