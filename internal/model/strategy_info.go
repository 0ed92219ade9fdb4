package model

// StrategyInfo carries the band whose violation triggers a reset.
// It is passed by value so each reallocation produces a fresh snapshot.
type StrategyInfo struct {
	ResetRangeMid   float64 `json:"reset_range_mid"`
	ResetRangeLower float64 `json:"reset_range_lower"`
	ResetRangeUpper float64 `json:"reset_range_upper"`
	LatestSignal    Signal  `json:"latest_signal"`
}
