package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderType is the direction of an order as reported by the validator.
type OrderType string

// Order type constants
const (
	OrderTypeLong  OrderType = "LONG"
	OrderTypeShort OrderType = "SHORT"
	OrderTypeFlat  OrderType = "FLAT"
)

// TradePair is the validator's trade pair tuple, e.g.
// ["BTCUSD", "BTC/USD", 0.003, 0.001, 0.5]. Element 0 is the pair name.
type TradePair []interface{}

// Name returns the pair identifier, or "" when absent.
func (tp TradePair) Name() string {
	if len(tp) == 0 {
		return ""
	}
	switch v := tp[0].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Order is one fill event.
type Order struct {
	OrderUUID   string              `json:"order_uuid"`
	TradePair   TradePair           `json:"trade_pair"`
	ProcessedMs int64               `json:"processed_ms"`
	OrderType   OrderType           `json:"order_type"`
	Leverage    decimal.NullDecimal `json:"leverage"` // signed; Valid=false when absent
	Price       decimal.NullDecimal `json:"price"`
	Src         int                 `json:"src"` // provenance tag
}

// LeverageFloat returns the leverage as float64, 0 when absent.
func (o Order) LeverageFloat() float64 {
	if !o.Leverage.Valid {
		return 0
	}
	return o.Leverage.Decimal.InexactFloat64()
}

// Position groups the orders of one trade.
type Position struct {
	MinerHotkey      string    `json:"miner_hotkey"`
	PositionUUID     string    `json:"position_uuid"`
	TradePair        TradePair `json:"trade_pair"`
	Orders           []Order   `json:"orders"`
	OpenMs           int64     `json:"open_ms"`
	CloseMs          int64     `json:"close_ms"`
	CurrentReturn    *float64  `json:"current_return"` // nil is treated as 1.0
	ReturnAtClose    *float64  `json:"return_at_close"`
	IsClosedPosition bool      `json:"is_closed_position"`
}

// Return returns the position's current return multiplier, 1.0 when unknown.
func (p Position) Return() float64 {
	if p.CurrentReturn == nil {
		return 1.0
	}
	return *p.CurrentReturn
}

// Portfolio is everything the engine needs about one miner.
type Portfolio struct {
	MinerHotkey string
	Ledger      PerfLedger
	Positions   []Position
}
