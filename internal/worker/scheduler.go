package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// GateTicker advances all gates by one simulation step.
type GateTicker interface {
	TickAll()
}

// Scheduler is the single goroutine the whole gate simulation runs on.
// Submitted actions and gate ticks are interleaved on this goroutine, so
// gates and the gate manager never need locks.
type Scheduler struct {
	*BaseWorker
	interval time.Duration
	gates    GateTicker
	actions  chan func()
}

func NewScheduler(gates GateTicker, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		BaseWorker: NewBaseWorker("simulation-scheduler", logger),
		interval:   interval,
		gates:      gates,
		actions:    make(chan func(), 256),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.Logger().Info("Scheduler started", zap.Duration("tick_interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.StopChan():
			return nil
		case fn := <-s.actions:
			fn()
		case <-ticker.C:
			s.drainActions()
			s.gates.TickAll()
		}
	}
}

// drainActions runs everything queued before the tick, so an action
// submitted before a tick boundary is observed by that tick.
func (s *Scheduler) drainActions() {
	for {
		select {
		case fn := <-s.actions:
			fn()
		default:
			return
		}
	}
}

// Submit queues an action for the scheduler goroutine.
func (s *Scheduler) Submit(fn func()) error {
	select {
	case s.actions <- fn:
		return nil
	case <-s.StopChan():
		return fmt.Errorf("scheduler stopped")
	}
}

// Do runs an action on the scheduler goroutine and waits for it. This is
// how request-scoped code calls into the simulation, gate passage
// attempts included.
func (s *Scheduler) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := s.Submit(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
