// Package signals encodes raw orders into fixed-width, field-element
// signals for commitment.
package signals

import (
	"errors"
	"fmt"
	"sort"

	"proof-of-portfolio/internal/config"
	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/field"
)

var (
	// ErrNoSignals is returned when there is nothing to commit: no positions
	// or no complete open/close pair.
	ErrNoSignals = errors.New("no signals")

	// ErrMalformedOrder is returned when an order lacks a required field.
	ErrMalformedOrder = errors.New("malformed order")

	// ErrMalformedPosition is returned for a position without orders.
	ErrMalformedPosition = errors.New("malformed position")
)

const unknownTradePair = "UNKNOWN"

// SignalSet is a padded signal list ready for commitment.
type SignalSet struct {
	Signals        []domain.Signal // length == capacity, sentinel padded
	ActualLen      int             // 2 * encoded pairs
	TruncatedPairs int             // complete pairs beyond capacity
	UnpairedOrders int             // trailing order without a partner
	TradePairs     []string        // names indexed by trade_pair_id, when assigned
}

// Capacity returns the fixed signal capacity.
func (s *SignalSet) Capacity() int {
	return len(s.Signals)
}

// Encoder turns positions into a SignalSet.
type Encoder struct {
	cfg config.Signals
}

// NewEncoder creates an encoder.
func NewEncoder(cfg config.Signals) *Encoder {
	return &Encoder{cfg: cfg}
}

type sourcedOrder struct {
	order     domain.Order
	tradePair string
}

// Encode validates every order, sorts all orders by processed_ms and encodes
// consecutive open/close pairs. Any malformed order or position rejects the
// whole pass. More pairs than capacity/2 are truncated and counted.
func (e *Encoder) Encode(hotkey string, positions []domain.Position) (*SignalSet, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: no positions", ErrNoSignals)
	}

	orders, err := collect(positions)
	if err != nil {
		return nil, err
	}

	var hotkeyFields [2]field.Element
	if e.cfg.BindHotkey {
		if hotkey == "" {
			return nil, fmt.Errorf("%w: empty hotkey", ErrInvalidHotkey)
		}
		if hotkeyFields, err = HotkeyFields(hotkey); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].order.ProcessedMs < orders[j].order.ProcessedMs
	})

	maxPairs := e.cfg.MaxSignals / 2
	pairs := len(orders) / 2

	set := &SignalSet{
		Signals:        make([]domain.Signal, e.cfg.MaxSignals),
		UnpairedOrders: len(orders) % 2,
	}
	if pairs > maxPairs {
		set.TruncatedPairs = pairs - maxPairs
		pairs = maxPairs
	}

	var registry *TradePairRegistry
	if e.cfg.AssignTradePairIDs {
		registry = NewTradePairRegistry()
	}

	for p := 0; p < pairs; p++ {
		open, closing := orders[2*p], orders[2*p+1]

		openSig, closeSig, err := e.encodePair(open, closing, registry)
		if err != nil {
			return nil, err
		}
		openSig.MinerHotkey = hotkeyFields
		closeSig.MinerHotkey = hotkeyFields

		set.Signals[2*p] = openSig
		set.Signals[2*p+1] = closeSig
	}
	set.ActualLen = 2 * pairs

	if set.ActualLen == 0 {
		return nil, fmt.Errorf("%w: no complete order pair", ErrNoSignals)
	}
	if registry != nil {
		set.TradePairs = registry.Names()
	}
	return set, nil
}

func (e *Encoder) encodePair(open, closing sourcedOrder, registry *TradePairRegistry) (domain.Signal, domain.Signal, error) {
	openCode, closeCode := TypeCodes(open.order)
	leverage := field.ScaleDecimal(open.order.Leverage.Decimal.Abs(), e.cfg.ScalingFactor)

	openUUID, err := SplitUUID(open.order.OrderUUID)
	if err != nil {
		return domain.Signal{}, domain.Signal{}, err
	}
	closeUUID, err := SplitUUID(closing.order.OrderUUID)
	if err != nil {
		return domain.Signal{}, domain.Signal{}, err
	}

	openSig := domain.Signal{
		TradePairID:    e.tradePairID(open, registry),
		OrderType:      field.FromInt64(openCode),
		LeverageScaled: leverage,
		PriceScaled:    field.ScaleDecimal(open.order.Price.Decimal, e.cfg.ScalingFactor),
		ProcessedMs:    field.FromInt64(open.order.ProcessedMs),
		OrderUUID:      openUUID,
		PositionUUID:   openUUID,
		Src:            field.FromInt64(int64(open.order.Src)),
	}
	closeSig := domain.Signal{
		TradePairID:    e.tradePairID(closing, registry),
		OrderType:      field.FromInt64(closeCode),
		LeverageScaled: leverage,
		PriceScaled:    field.ScaleDecimal(closing.order.Price.Decimal, e.cfg.ScalingFactor),
		ProcessedMs:    field.FromInt64(closing.order.ProcessedMs),
		OrderUUID:      closeUUID,
		PositionUUID:   openUUID,
		Src:            field.FromInt64(int64(closing.order.Src)),
	}
	return openSig, closeSig, nil
}

func (e *Encoder) tradePairID(o sourcedOrder, registry *TradePairRegistry) field.Element {
	if registry == nil {
		return field.Zero()
	}
	return field.FromInt64(registry.ID(o.tradePair))
}

// TypeCodes returns the open and close codes for a pair opened by o.
// Orders that are neither LONG nor SHORT use the sign of their leverage.
func TypeCodes(o domain.Order) (int64, int64) {
	switch o.OrderType {
	case domain.OrderTypeLong:
		return domain.SignalOpenLong, domain.SignalCloseLong
	case domain.OrderTypeShort:
		return domain.SignalOpenShort, domain.SignalCloseShort
	}
	if o.Leverage.Decimal.IsPositive() {
		return domain.SignalOpenLong, domain.SignalCloseLong
	}
	return domain.SignalOpenShort, domain.SignalCloseShort
}

func collect(positions []domain.Position) ([]sourcedOrder, error) {
	var out []sourcedOrder
	for pi, p := range positions {
		if len(p.Orders) == 0 {
			return nil, fmt.Errorf("%w: position %d (%s) has no orders", ErrMalformedPosition, pi, p.PositionUUID)
		}
		for oi, o := range p.Orders {
			if err := validate(o); err != nil {
				return nil, fmt.Errorf("position %d order %d: %w", pi, oi, err)
			}
			name := o.TradePair.Name()
			if name == "" {
				name = p.TradePair.Name()
			}
			if name == "" {
				name = unknownTradePair
			}
			out = append(out, sourcedOrder{order: o, tradePair: name})
		}
	}
	return out, nil
}

func validate(o domain.Order) error {
	switch {
	case o.OrderUUID == "":
		return fmt.Errorf("%w: missing order_uuid", ErrMalformedOrder)
	case o.ProcessedMs <= 0:
		return fmt.Errorf("%w: missing processed_ms", ErrMalformedOrder)
	case !o.Price.Valid:
		return fmt.Errorf("%w: missing price", ErrMalformedOrder)
	case !o.Leverage.Valid:
		return fmt.Errorf("%w: missing leverage", ErrMalformedOrder)
	}
	if _, err := SplitUUID(o.OrderUUID); err != nil {
		return err
	}
	return nil
}
