package metafields

// Ledger remembers the namespace:key pairs deleted during one invocation.
// It is owned by the scan loop and is not safe for concurrent use.
type Ledger struct {
	seen  map[string]struct{}
	order []string
}

func NewLedger() *Ledger {
	return &Ledger{seen: make(map[string]struct{})}
}

func (l *Ledger) Has(key string) bool {
	_, ok := l.seen[key]
	return ok
}

// Add records key and reports whether it was new.
func (l *Ledger) Add(key string) bool {
	if l.Has(key) {
		return false
	}
	l.seen[key] = struct{}{}
	l.order = append(l.order, key)
	return true
}

func (l *Ledger) Len() int { return len(l.order) }

// Keys returns the recorded keys in insertion order.
func (l *Ledger) Keys() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}
