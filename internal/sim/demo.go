package sim

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/transit-ticketing-service/internal/domain"
	"github.com/transit-ticketing-service/internal/gate"
	"github.com/transit-ticketing-service/internal/pkg/errors"
	"github.com/transit-ticketing-service/internal/registry"
	"github.com/transit-ticketing-service/internal/terminal"
	"github.com/transit-ticketing-service/internal/worker"
	"go.uber.org/zap"
)

// Demo walks one traveler through a complete journey: buy a ticket at
// the origin, enter through a fare gate, ride, exit at the destination.
// It exercises the registry, the terminal and the gate simulation end to
// end against a running scheduler.
type Demo struct {
	registry  *registry.Registry
	terminal  *terminal.Terminal
	gates     *gate.Manager
	scheduler *worker.Scheduler
	world     *World
	settings  gate.Settings
	// tickInterval paces the waits between movement steps.
	tickInterval time.Duration
	logger       *zap.Logger
}

func NewDemo(
	reg *registry.Registry,
	term *terminal.Terminal,
	gates *gate.Manager,
	scheduler *worker.Scheduler,
	world *World,
	settings gate.Settings,
	tickInterval time.Duration,
	logger *zap.Logger,
) *Demo {
	return &Demo{
		registry:     reg,
		terminal:     term,
		gates:        gates,
		scheduler:    scheduler,
		world:        world,
		settings:     settings,
		tickInterval: tickInterval,
		logger:       logger,
	}
}

const (
	demoOrigin      = "DEMO-01"
	demoDestination = "DEMO-02"
	demoEntryGate   = "demo-gate-in"
	demoExitGate    = "demo-gate-out"
)

func (d *Demo) Run(ctx context.Context) error {
	if err := d.seedNetwork(); err != nil {
		return fmt.Errorf("seed network: %w", err)
	}
	if err := d.installGates(ctx); err != nil {
		return fmt.Errorf("install gates: %w", err)
	}

	traveler := NewTraveler("demo-traveler", d.logger)
	d.world.Add(traveler)
	defer d.world.Remove(traveler.ID())

	wallet := terminal.NewMemoryWallet(100)
	ticket, err := d.terminal.IssueTicket(ctx, demoOrigin, demoDestination, wallet)
	if err != nil {
		return fmt.Errorf("issue ticket: %w", err)
	}
	traveler.SetTicket(ticket)
	d.logger.Info("Demo ticket purchased",
		zap.String("ticket_id", ticket.ID),
		zap.Int("price", ticket.Price),
		zap.Int("balance", wallet.Balance()))

	if err := d.passGate(ctx, traveler, demoEntryGate); err != nil {
		return err
	}
	d.logger.Info("Demo traveler entered the paid area",
		zap.String("status", ticket.Status.String()))

	// ride to the destination
	time.Sleep(5 * d.tickInterval)

	if err := d.passGate(ctx, traveler, demoExitGate); err != nil {
		return err
	}
	d.logger.Info("Demo journey complete",
		zap.String("status", ticket.Status.String()),
		zap.Int("balance", wallet.Balance()))
	return nil
}

// seedNetwork makes sure the demo stations, line and fare exist. Leftover
// entries from an earlier run are fine.
func (d *Demo) seedNetwork() error {
	stations := []domain.Station{
		{Code: demoOrigin, Name: "Demo Central", Position: domain.Position{X: 0, Y: 64, Z: 0}},
		{Code: demoDestination, Name: "Demo Riverside", Position: domain.Position{X: 500, Y: 64, Z: 0}},
	}
	for _, s := range stations {
		if err := d.registry.AddStation(s); err != nil && !stderrors.Is(err, errors.ErrStationExists) {
			return err
		}
	}

	err := d.registry.AddLine(domain.Line{
		ID: "DEMO", Name: "Demo Line",
		StationCodes: []string{demoOrigin, demoDestination},
	})
	if err != nil && !stderrors.Is(err, errors.ErrLineExists) {
		return err
	}

	err = d.registry.AddFare(domain.Fare{From: demoOrigin, To: demoDestination, Price: 15})
	if err != nil && !stderrors.Is(err, errors.ErrFareExists) {
		return err
	}
	return nil
}

func (d *Demo) installGates(ctx context.Context) error {
	configs := []struct {
		cfg domain.GateConfig
		pos domain.Position
	}{
		{
			cfg: domain.GateConfig{
				GateID:          demoEntryGate,
				AssignedStation: demoOrigin,
				Type:            domain.GateIn,
				Enabled:         true,
			},
			pos: domain.Position{X: 0, Y: 64, Z: 0},
		},
		{
			cfg: domain.GateConfig{
				GateID:              demoExitGate,
				AssignedStation:     demoDestination,
				Type:                domain.GateOut,
				DestroyTicketOnExit: false,
				Enabled:             true,
			},
			pos: domain.Position{X: 500, Y: 64, Z: 0},
		},
	}

	var addErr error
	err := d.scheduler.Do(ctx, func() {
		for _, c := range configs {
			g := gate.New(c.cfg, c.pos, gate.North, d.world, d.settings, d.logger)
			if err := d.gates.Add(g); err != nil {
				addErr = err
				return
			}
		}
	})
	if err != nil {
		return err
	}
	return addErr
}

// passGate walks the traveler up to the gate, attempts the passage and,
// when admitted, steps them through to the far side.
func (d *Demo) passGate(ctx context.Context, traveler *Traveler, gateID string) error {
	var res gate.Result
	err := d.scheduler.Do(ctx, func() {
		g, ok := d.gates.Get(gateID)
		if !ok {
			return
		}
		// stand against the entry face
		pos := g.Position()
		traveler.MoveTo(float64(pos.X)+0.5, float64(pos.Y), float64(pos.Z)-0.05)
		res = g.AttemptPassage(traveler)
	})
	if err != nil {
		return err
	}
	if !res.OK {
		return fmt.Errorf("passage at %s rejected: %s", gateID, res.Reason)
	}

	// step through to the far side and let the next tick detect it
	err = d.scheduler.Do(ctx, func() {
		g, ok := d.gates.Get(gateID)
		if !ok {
			return
		}
		pos := g.Position()
		traveler.MoveTo(float64(pos.X)+0.5, float64(pos.Y), float64(pos.Z)+1.05)
	})
	if err != nil {
		return err
	}
	return d.waitIdle(ctx, gateID)
}

// waitIdle blocks until the gate's tick loop has registered the passage
// completion.
func (d *Demo) waitIdle(ctx context.Context, gateID string) error {
	deadline := time.Now().Add(200 * d.tickInterval)
	for {
		var state gate.State
		err := d.scheduler.Do(ctx, func() {
			if g, ok := d.gates.Get(gateID); ok {
				state = g.State()
			}
		})
		if err != nil {
			return err
		}
		if state == gate.StateIdle {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("gate %s did not return to idle", gateID)
		}
		time.Sleep(d.tickInterval)
	}
}
