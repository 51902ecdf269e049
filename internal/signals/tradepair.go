package signals

// TradePairRegistry assigns dense ids to trade pair names in first-seen order.
type TradePairRegistry struct {
	ids   map[string]int64
	names []string
}

// NewTradePairRegistry creates an empty registry.
func NewTradePairRegistry() *TradePairRegistry {
	return &TradePairRegistry{ids: make(map[string]int64)}
}

// ID returns the id of name, assigning the next one on first sight.
func (r *TradePairRegistry) ID(name string) int64 {
	if id, ok := r.ids[name]; ok {
		return id
	}
	id := int64(len(r.names))
	r.ids[name] = id
	r.names = append(r.names, name)
	return id
}

// Names returns the registered names indexed by id.
func (r *TradePairRegistry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
