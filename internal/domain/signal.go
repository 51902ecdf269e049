package domain

import "proof-of-portfolio/internal/field"

// Signal order type codes as the circuit expects them.
const (
	SignalPadding    = 0 // sentinel
	SignalOpenLong   = 1
	SignalCloseLong  = 2
	SignalOpenShort  = 3
	SignalCloseShort = 4
)

// SignalFieldCount is the number of field elements a Signal flattens to.
const SignalFieldCount = 12

// Signal is the fixed-width encoding of one order. The zero value is the
// padding sentinel.
type Signal struct {
	MinerHotkey    [2]field.Element `json:"miner_hotkey"` // hi, lo
	TradePairID    field.Element    `json:"trade_pair_id"`
	OrderType      field.Element    `json:"order_type"`
	LeverageScaled field.Element    `json:"leverage_scaled"`
	PriceScaled    field.Element    `json:"price_scaled"`
	ProcessedMs    field.Element    `json:"processed_ms"`
	OrderUUID      [2]field.Element `json:"order_uuid"`    // hi, lo
	PositionUUID   [2]field.Element `json:"position_uuid"` // hi, lo
	Src            field.Element    `json:"src"`
}

// Fields flattens the signal in circuit struct order.
func (s Signal) Fields() []field.Element {
	return []field.Element{
		s.MinerHotkey[0], s.MinerHotkey[1],
		s.TradePairID,
		s.OrderType,
		s.LeverageScaled,
		s.PriceScaled,
		s.ProcessedMs,
		s.OrderUUID[0], s.OrderUUID[1],
		s.PositionUUID[0], s.PositionUUID[1],
		s.Src,
	}
}

// IsSentinel reports whether every field is zero.
func (s Signal) IsSentinel() bool {
	for _, f := range s.Fields() {
		if !f.IsZero() {
			return false
		}
	}
	return true
}
