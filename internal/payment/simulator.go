package payment

import (
	"context"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/idgen"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

const (
	DefaultMinLatency  = 2 * time.Second
	DefaultMaxLatency  = 4 * time.Second
	DefaultSuccessRate = 0.8
)

// Simulator stands in for a card processor. Every call waits a random latency
// and then approves or declines at random.
type Simulator struct {
	rnd         idgen.Random
	ids         *idgen.Generator
	now         func() time.Time
	minLatency  time.Duration
	maxLatency  time.Duration
	successRate float64
}

type Option func(*Simulator)

func WithRandom(rnd idgen.Random) Option {
	return func(s *Simulator) { s.rnd = rnd }
}

func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

func WithLatency(min, max time.Duration) Option {
	return func(s *Simulator) {
		s.minLatency = min
		s.maxLatency = max
	}
}

func WithSuccessRate(rate float64) Option {
	return func(s *Simulator) { s.successRate = rate }
}

func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		now:         time.Now,
		minLatency:  DefaultMinLatency,
		maxLatency:  DefaultMaxLatency,
		successRate: DefaultSuccessRate,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = idgen.NewRandom(0)
	}
	if s.maxLatency < s.minLatency {
		s.maxLatency = s.minLatency
	}
	s.ids = idgen.New(s.rnd, s.now)
	return s
}

// Process settles a payment. The outcome is decided when called; if ctx ends
// during the wait the outcome is dropped and ctx.Err() is returned.
func (s *Simulator) Process(ctx context.Context, form domain.PaymentForm) (domain.PaymentResult, error) {
	delay := s.latency()
	result := s.draw()

	logger.DebugContext(ctx, "payment processing",
		"card_type", string(DetectCardType(form.CardNumber)),
		"delay_ms", delay.Milliseconds(),
	)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return domain.PaymentResult{}, ctx.Err()
	case <-timer.C:
	}

	return result, nil
}

func (s *Simulator) latency() time.Duration {
	spread := s.maxLatency - s.minLatency
	return s.minLatency + time.Duration(s.rnd.Float64()*float64(spread))
}

func (s *Simulator) draw() domain.PaymentResult {
	if s.rnd.Float64() < s.successRate {
		return domain.PaymentResult{
			Success:       true,
			TransactionID: s.ids.TransactionID(),
		}
	}
	return domain.PaymentResult{
		Success: false,
		Reason:  domain.PaymentFailures[s.rnd.Intn(len(domain.PaymentFailures))],
	}
}
