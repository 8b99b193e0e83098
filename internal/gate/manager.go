package gate

import (
	"sort"

	"github.com/transit-ticketing-service/internal/pkg/errors"
	"go.uber.org/zap"
)

// Manager owns the live gates. Like the gates themselves it must only be
// touched from the simulation scheduler goroutine; administrative calls
// arrive there through the scheduler's action queue.
type Manager struct {
	gates  map[string]*Gate
	logger *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		gates:  make(map[string]*Gate),
		logger: logger,
	}
}

func (m *Manager) Add(g *Gate) error {
	if _, ok := m.gates[g.ID()]; ok {
		return errors.ErrGateExists.WithDetails(map[string]interface{}{"gate_id": g.ID()})
	}
	m.gates[g.ID()] = g
	m.logger.Info("Gate registered",
		zap.String("gate_id", g.ID()),
		zap.String("station", g.Station()))
	return nil
}

// Remove tears a gate down; a passage pending on it is force-failed.
func (m *Manager) Remove(id string) error {
	g, ok := m.gates[id]
	if !ok {
		return errors.ErrGateNotFound.WithDetails(map[string]interface{}{"gate_id": id})
	}
	g.Remove()
	delete(m.gates, id)
	m.logger.Info("Gate removed", zap.String("gate_id", id))
	return nil
}

func (m *Manager) Get(id string) (*Gate, bool) {
	g, ok := m.gates[id]
	return g, ok
}

// AtStation returns the gates assigned to a station, ordered by id.
func (m *Manager) AtStation(station string) []*Gate {
	result := make([]*Gate, 0)
	for _, g := range m.gates {
		if g.Station() == station {
			result = append(result, g)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

func (m *Manager) All() []*Gate {
	result := make([]*Gate, 0, len(m.gates))
	for _, g := range m.gates {
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

// TickAll advances every gate by one simulation step, in id order.
func (m *Manager) TickAll() {
	for _, g := range m.All() {
		g.OnTick()
	}
}
