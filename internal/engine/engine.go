package engine

import (
	"sort"
	"strings"

	"github.com/transit-ticketing-service/internal/domain"
	"go.uber.org/zap"
)

// Network is the read surface the engine needs from the registry.
type Network interface {
	AllStations() []*domain.Station
	AllLines() []*domain.Line
	AllFares() []domain.Fare
	GetFare(from, to string) (domain.Fare, bool)
	GetStation(code string) (*domain.Station, bool)
	HasStation(code string) bool
}

// Engine answers route and fare queries over the live registry state.
// It holds no state of its own; every query reads the network fresh, so
// registry mutations are picked up without invalidation.
type Engine struct {
	network Network
	logger  *zap.Logger
	// strictFares makes a cumulative line query fail on a missing
	// adjacent fare instead of pricing the segment at zero.
	strictFares bool
}

func New(network Network, strictFares bool, logger *zap.Logger) *Engine {
	return &Engine{
		network:     network,
		logger:      logger,
		strictFares: strictFares,
	}
}

// CalculateFare prices a journey between two stations. Stations on a
// shared line are priced by summing that line's adjacent fares; anything
// else falls back to cheapest-path search. The boolean is false when no
// price can be established at all.
func (e *Engine) CalculateFare(start, end string) (int, bool) {
	if start == end {
		if e.network.HasStation(start) {
			return 0, true
		}
		return 0, false
	}

	if price, ok := e.sameLineFare(start, end); ok {
		return price, true
	}

	route, ok := e.FindRoute(start, end)
	if !ok {
		return 0, false
	}
	return route.TotalPrice, true
}

// sameLineFare tries every line carrying both stations, in id order, and
// returns the first usable cumulative sum.
func (e *Engine) sameLineFare(start, end string) (int, bool) {
	var fallback int
	var haveFallback bool

	for _, line := range e.network.AllLines() {
		if !line.IsComplete() || !line.ContainsStation(start) || !line.ContainsStation(end) {
			continue
		}
		price, complete := e.CumulativeLineFare(line, start, end)
		if complete {
			return price, true
		}
		if !e.strictFares && !haveFallback {
			fallback = price
			haveFallback = true
		}
	}

	if haveFallback {
		return fallback, true
	}
	return 0, false
}

// CumulativeLineFare sums the adjacent-segment fares between two stations
// along a single line, direction-insensitively. A segment without a fare
// contributes zero and marks the result incomplete.
func (e *Engine) CumulativeLineFare(line *domain.Line, start, end string) (price int, complete bool) {
	i := line.StationOrder(start)
	j := line.StationOrder(end)
	if i < 0 || j < 0 {
		return 0, false
	}
	if i > j {
		i, j = j, i
	}

	complete = true
	for k := i; k < j; k++ {
		from, to := line.StationCodes[k], line.StationCodes[k+1]
		fare, ok := e.network.GetFare(from, to)
		if !ok {
			e.logger.Warn("Missing fare for adjacent segment",
				zap.String("line", line.ID),
				zap.String("from", from),
				zap.String("to", to))
			complete = false
			continue
		}
		price += fare.Price
	}
	return price, complete
}

// FareMatrix prices every ordered station pair, an operator debugging
// aid. Pairs with no establishable price are omitted.
func (e *Engine) FareMatrix() map[string]map[string]int {
	stations := e.network.AllStations()
	matrix := make(map[string]map[string]int, len(stations))
	for _, from := range stations {
		row := make(map[string]int)
		for _, to := range stations {
			if from.Code == to.Code {
				continue
			}
			if price, ok := e.CalculateFare(from.Code, to.Code); ok {
				row[to.Code] = price
			}
		}
		if len(row) > 0 {
			matrix[from.Code] = row
		}
	}
	return matrix
}

// TransferGroups clusters stations that share a display name or
// alternate name. Stations of a group are the same physical interchange,
// walkable at zero cost. Groups are returned in deterministic order with
// members sorted by code; singletons are dropped.
func (e *Engine) TransferGroups() [][]string {
	stations := e.network.AllStations()

	parent := make(map[string]string, len(stations))
	var find func(code string) string
	find = func(code string) string {
		if parent[code] != code {
			parent[code] = find(parent[code])
		}
		return parent[code]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	byName := make(map[string][]string)
	for _, s := range stations {
		parent[s.Code] = s.Code
		for _, name := range []string{s.Name, s.AltName} {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			byName[name] = append(byName[name], s.Code)
		}
	}
	for _, codes := range byName {
		for _, code := range codes[1:] {
			union(codes[0], code)
		}
	}

	members := make(map[string][]string)
	for _, s := range stations {
		root := find(s.Code)
		members[root] = append(members[root], s.Code)
	}

	groups := make([][]string, 0)
	for _, codes := range members {
		if len(codes) < 2 {
			continue
		}
		sort.Strings(codes)
		groups = append(groups, codes)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}
