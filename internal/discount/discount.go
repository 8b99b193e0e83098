package discount

import (
	"math"
	"sync"
	"time"

	"github.com/transit-ticketing-service/internal/pkg/errors"
	"go.uber.org/zap"
)

// Discount is a system-wide price multiplier. A zero ValidFrom or
// ValidUntil leaves that side of the window open.
type Discount struct {
	Name string
	// Factor multiplies the price, so 0.8 means 20% off.
	Factor     float64
	ValidFrom  time.Time
	ValidUntil time.Time
}

func (d Discount) activeAt(now time.Time) bool {
	if !d.ValidFrom.IsZero() && now.Before(d.ValidFrom) {
		return false
	}
	if !d.ValidUntil.IsZero() && now.After(d.ValidUntil) {
		return false
	}
	return true
}

// Service holds the single configured discount. At most one is set at a
// time; configuring a new one replaces the old.
type Service struct {
	mu      sync.RWMutex
	current Discount
	set     bool
	enabled bool
	logger  *zap.Logger
	now     func() time.Time
}

func New(logger *zap.Logger) *Service {
	return &Service{logger: logger, now: time.Now}
}

// SetClock overrides the time source for the validity window.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Set configures and enables a discount. The factor must lie in [0, 1].
func (s *Service) Set(d Discount) error {
	if d.Factor < 0 || d.Factor > 1 || math.IsNaN(d.Factor) {
		return errors.ErrInvalidDiscount
	}
	if !d.ValidFrom.IsZero() && !d.ValidUntil.IsZero() && d.ValidUntil.Before(d.ValidFrom) {
		return errors.ErrInvalidDiscount.WithDetails(map[string]interface{}{
			"cause": "validity window ends before it starts",
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = d
	s.set = true
	s.enabled = true
	s.logger.Info("Discount set",
		zap.String("name", d.Name),
		zap.Float64("factor", d.Factor))
	return nil
}

// Clear removes the configured discount entirely.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Discount{}
	s.set = false
	s.enabled = false
	s.logger.Info("Discount cleared")
}

// Disable keeps the discount but stops applying it.
func (s *Service) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
}

// Enable re-applies a previously set discount. A no-op when none is set.
func (s *Service) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set {
		s.enabled = true
	}
}

// Active returns the discount currently in effect, checking both the
// enabled flag and the validity window.
func (s *Service) Active() (Discount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set || !s.enabled || !s.current.activeAt(s.now()) {
		return Discount{}, false
	}
	return s.current, true
}

// Apply discounts a price, rounding down. Prices pass through untouched
// when no discount is in effect.
func (s *Service) Apply(price int) int {
	d, ok := s.Active()
	if !ok {
		return price
	}
	return int(math.Floor(float64(price) * d.Factor))
}
