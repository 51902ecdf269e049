// Package snapshot decodes validator checkpoint exports into portfolios.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"proof-of-portfolio/internal/domain"
)

var (
	// ErrUnknownHotkey is returned when the snapshot has no ledger for a hotkey.
	ErrUnknownHotkey = errors.New("hotkey not in snapshot")

	// ErrEmptySnapshot is returned when the snapshot carries no ledgers.
	ErrEmptySnapshot = errors.New("snapshot has no perf ledgers")
)

// Snapshot is a decoded validator export keyed by miner hotkey.
type Snapshot struct {
	Ledgers   map[string]domain.PerfLedger
	Positions map[string][]domain.Position
}

type rawSnapshot struct {
	PerfLedgers map[string]domain.PerfLedger `json:"perf_ledgers"`
	Positions   map[string]json.RawMessage   `json:"positions"`
}

// Load reads and decodes a snapshot file.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode decodes a snapshot. Positions for a hotkey may be an object with a
// "positions" list or the list itself.
func Decode(r io.Reader) (*Snapshot, error) {
	var raw rawSnapshot
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if len(raw.PerfLedgers) == 0 {
		return nil, ErrEmptySnapshot
	}

	s := &Snapshot{
		Ledgers:   raw.PerfLedgers,
		Positions: make(map[string][]domain.Position, len(raw.Positions)),
	}
	for hotkey, msg := range raw.Positions {
		positions, err := decodePositions(msg)
		if err != nil {
			return nil, fmt.Errorf("decode positions for %s: %w", hotkey, err)
		}
		s.Positions[hotkey] = positions
	}
	return s, nil
}

func decodePositions(msg json.RawMessage) ([]domain.Position, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 || bytes.Equal(msg, []byte("null")) {
		return nil, nil
	}
	if msg[0] == '[' {
		var list []domain.Position
		if err := json.Unmarshal(msg, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var wrapped struct {
		Positions []domain.Position `json:"positions"`
	}
	if err := json.Unmarshal(msg, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Positions, nil
}

// Hotkeys returns the ledger hotkeys in sorted order.
func (s *Snapshot) Hotkeys() []string {
	out := make([]string, 0, len(s.Ledgers))
	for k := range s.Ledgers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Portfolio assembles the portfolio of hotkey. An empty hotkey selects the
// first hotkey in sorted order.
func (s *Snapshot) Portfolio(hotkey string) (domain.Portfolio, error) {
	if hotkey == "" {
		keys := s.Hotkeys()
		if len(keys) == 0 {
			return domain.Portfolio{}, ErrEmptySnapshot
		}
		hotkey = keys[0]
	}
	ledger, ok := s.Ledgers[hotkey]
	if !ok {
		return domain.Portfolio{}, fmt.Errorf("%w: %s", ErrUnknownHotkey, hotkey)
	}
	positions := s.Positions[hotkey]
	for i := range positions {
		if positions[i].MinerHotkey == "" {
			positions[i].MinerHotkey = hotkey
		}
	}
	return domain.Portfolio{
		MinerHotkey: hotkey,
		Ledger:      ledger,
		Positions:   positions,
	}, nil
}

// Portfolios assembles every portfolio in hotkey order.
func (s *Snapshot) Portfolios() ([]domain.Portfolio, error) {
	keys := s.Hotkeys()
	out := make([]domain.Portfolio, 0, len(keys))
	for _, k := range keys {
		p, err := s.Portfolio(k)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
