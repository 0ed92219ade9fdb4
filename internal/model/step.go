package model

import "time"

// Step is one market tick fed to the backtest driver.
type Step struct {
	Time          time.Time `json:"time"`
	Price         float64   `json:"price,omitempty"`
	Tick          int       `json:"tick"`
	Volume0       float64   `json:"volume0,omitempty"`
	Volume1       float64   `json:"volume1,omitempty"`
	PoolLiquidity string    `json:"pool_liquidity,omitempty"`
}
