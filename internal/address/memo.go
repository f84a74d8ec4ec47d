package address

import (
	"encoding/hex"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Memo caches derived addresses for one program. Derivation is pure, so
// entries never go stale and there is no expiry.
type Memo struct {
	entries map[string]Address
	program solana.PublicKey
	hits    int
	misses  int
	mu      sync.RWMutex
}

// NewMemo creates an empty cache for program.
func NewMemo(program solana.PublicKey) *Memo {
	return &Memo{
		program: program,
		entries: make(map[string]Address),
	}
}

// Derive returns the cached address for (kind, seeds), deriving it on a miss.
func (m *Memo) Derive(kind Kind, seeds ...Seed) (Address, error) {
	key := memoKey(kind, seeds)

	m.mu.RLock()
	addr, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		m.mu.Lock()
		m.hits++
		m.mu.Unlock()
		return addr, nil
	}

	addr, err := Derive(m.program, kind, seeds...)
	if err != nil {
		return Address{}, err
	}

	m.mu.Lock()
	m.entries[key] = addr
	m.misses++
	m.mu.Unlock()

	return addr, nil
}

// Stats returns hit and miss counts.
func (m *Memo) Stats() (hits, misses int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits, m.misses
}

// Size returns the number of cached addresses.
func (m *Memo) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Clear removes all entries.
func (m *Memo) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]Address)
}

// memoKey joins hex-encoded seeds with '/', which hex never contains.
func memoKey(kind Kind, seeds []Seed) string {
	var b strings.Builder
	b.WriteString(string(kind))
	for _, s := range seeds {
		b.WriteByte('/')
		b.WriteString(hex.EncodeToString(s))
	}
	return b.String()
}
