package idgen

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Random is the source of randomness shared by id generation and payment
// simulation. *rand.Rand satisfies it.
type Random interface {
	Float64() float64
	Intn(n int) int
}

// LockedRandom makes a *rand.Rand safe for concurrent use.
type LockedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a seeded source. A zero seed uses the current time.
func NewRandom(seed int64) *LockedRandom {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LockedRandom{rng: rand.New(rand.NewSource(seed))}
}

func (r *LockedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *LockedRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

type Generator struct {
	rnd Random
	now func() time.Time
}

func New(rnd Random, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{rnd: rnd, now: now}
}

// TransactionID is TXN, the unix time in milliseconds, then six base-36
// characters.
func (g *Generator) TransactionID() string {
	return g.id("TXN", 6)
}

// BookingID is BK, the unix time in milliseconds, then four base-36
// characters.
func (g *Generator) BookingID() string {
	return g.id("BK", 4)
}

func (g *Generator) id(prefix string, n int) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(strconv.FormatInt(g.now().UnixMilli(), 10))
	for i := 0; i < n; i++ {
		b.WriteByte(base36[g.rnd.Intn(len(base36))])
	}
	return b.String()
}
