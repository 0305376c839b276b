package nonce

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flowstate-hq/flowstate-intents/pkg/models"
)

// Status of a reserved nonce
type Status int

const (
	// Reserved nonces are allocated to a scheduled intent not yet submitted
	Reserved Status = iota
	// Submitted nonces were accepted by the relayer
	Submitted
	// Failed nonces were signed or posted without success and are never reused
	Failed
)

func (s Status) String() string {
	switch s {
	case Reserved:
		return "reserved"
	case Submitted:
		return "submitted"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Record tracks one nonce
type Record struct {
	Nonce     uint64
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ledger remembers every nonce range reserved in this process, per user
type Ledger struct {
	users map[common.Address]*userNonceData
	mu    sync.RWMutex
}

type nonceRange struct {
	start, end uint64 // [start, end)
}

type userNonceData struct {
	ranges  []nonceRange
	records map[uint64]*Record
	next    uint64
	mu      sync.Mutex
}

func NewLedger() *Ledger {
	return &Ledger{users: make(map[common.Address]*userNonceData)}
}

func (l *Ledger) user(addr common.Address) *userNonceData {
	l.mu.RLock()
	data, ok := l.users[addr]
	l.mu.RUnlock()
	if ok {
		return data
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if data, ok = l.users[addr]; !ok {
		data = &userNonceData{records: make(map[uint64]*Record)}
		l.users[addr] = data
	}
	return data
}

// Next returns the first nonce above every range reserved for user
func (l *Ledger) Next(user common.Address) uint64 {
	data := l.user(user)
	data.mu.Lock()
	defer data.mu.Unlock()
	return data.next
}

// Reserve records [base, base+n) for user, failing with ErrNonceCollision
// if any of it was reserved before
func (l *Ledger) Reserve(user common.Address, base uint64, n int) error {
	if n < 1 {
		return fmt.Errorf("cannot reserve %d nonces", n)
	}
	end := base + uint64(n)
	if end < base {
		return fmt.Errorf("nonce range starting at %d overflows", base)
	}

	data := l.user(user)
	data.mu.Lock()
	defer data.mu.Unlock()

	for _, r := range data.ranges {
		if base < r.end && r.start < end {
			return fmt.Errorf("%w: [%d, %d) overlaps [%d, %d) for %s", models.ErrNonceCollision, base, end, r.start, r.end, user.Hex())
		}
	}

	now := time.Now()
	data.ranges = append(data.ranges, nonceRange{start: base, end: end})
	for nonce := base; nonce < end; nonce++ {
		data.records[nonce] = &Record{Nonce: nonce, Status: Reserved, CreatedAt: now, UpdatedAt: now}
	}
	if end > data.next {
		data.next = end
	}
	return nil
}

// MarkSubmitted marks a nonce as accepted by the relayer
func (l *Ledger) MarkSubmitted(user common.Address, nonce uint64) bool {
	return l.mark(user, nonce, Submitted)
}

// MarkFailed marks a nonce whose intent did not reach the relayer
func (l *Ledger) MarkFailed(user common.Address, nonce uint64) bool {
	return l.mark(user, nonce, Failed)
}

func (l *Ledger) mark(user common.Address, nonce uint64, status Status) bool {
	data := l.user(user)
	data.mu.Lock()
	defer data.mu.Unlock()

	rec, ok := data.records[nonce]
	if !ok {
		return false
	}
	rec.Status = status
	rec.UpdatedAt = time.Now()
	return true
}

// Get returns the record for a nonce
func (l *Ledger) Get(user common.Address, nonce uint64) (Record, bool) {
	data := l.user(user)
	data.mu.Lock()
	defer data.mu.Unlock()

	rec, ok := data.records[nonce]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// WithStatus lists the user's nonces in the given status, ascending
func (l *Ledger) WithStatus(user common.Address, status Status) []uint64 {
	data := l.user(user)
	data.mu.Lock()
	defer data.mu.Unlock()

	var out []uint64
	for nonce, rec := range data.records {
		if rec.Status == status {
			out = append(out, nonce)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
