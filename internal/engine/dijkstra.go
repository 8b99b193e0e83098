package engine

import (
	"container/heap"

	"github.com/transit-ticketing-service/internal/domain"
)

type edge struct {
	to       string
	cost     int
	transfer bool
}

type hop struct {
	from     string
	transfer bool
}

// FindRoute returns the cheapest priced path between two stations, or
// false when none exists. Ties between equal-cost paths resolve by queue
// insertion order, which follows fare insertion order, so repeated
// queries over unchanged data give the same route.
func (e *Engine) FindRoute(start, end string) (*domain.Route, bool) {
	if !e.network.HasStation(start) || !e.network.HasStation(end) {
		return nil, false
	}
	if start == end {
		return &domain.Route{
			Start:       start,
			End:         end,
			StationPath: []string{start},
			LinePath:    []string{},
		}, true
	}

	adj := e.buildAdjacency()

	dist := map[string]int{start: 0}
	prev := make(map[string]hop)
	visited := make(map[string]bool)

	pq := &routeQueue{}
	heap.Init(pq)
	seq := 0
	push := func(code string, cost int) {
		heap.Push(pq, &queueItem{code: code, cost: cost, seq: seq})
		seq++
	}
	push(start, 0)

	found := false
	for pq.Len() > 0 {
		item := heap.Pop(pq).(*queueItem)
		if visited[item.code] {
			continue
		}
		visited[item.code] = true
		if item.code == end {
			found = true
			break
		}

		for _, ed := range adj[item.code] {
			if visited[ed.to] {
				continue
			}
			next := item.cost + ed.cost
			if known, ok := dist[ed.to]; ok && known <= next {
				continue
			}
			dist[ed.to] = next
			prev[ed.to] = hop{from: item.code, transfer: ed.transfer}
			push(ed.to, next)
		}
	}

	if !found {
		return nil, false
	}

	stationPath := []string{end}
	transfers := []bool{}
	for at := end; at != start; {
		h := prev[at]
		stationPath = append(stationPath, h.from)
		transfers = append(transfers, h.transfer)
		at = h.from
	}
	reverse(stationPath)
	reverseBools(transfers)

	linePath, hopStations := e.attributeLines(stationPath, transfers)

	return &domain.Route{
		Start:         start,
		End:           end,
		StationPath:   stationPath,
		LinePath:      linePath,
		HopStations:   hopStations,
		TotalPrice:    dist[end],
		TransferCount: domain.TransferCountOf(linePath),
	}, true
}

// buildAdjacency assembles the search graph: every fare as an undirected
// priced edge, then zero-cost edges inside each transfer group.
func (e *Engine) buildAdjacency() map[string][]edge {
	adj := make(map[string][]edge)

	for _, f := range e.network.AllFares() {
		adj[f.From] = append(adj[f.From], edge{to: f.To, cost: f.Price})
		adj[f.To] = append(adj[f.To], edge{to: f.From, cost: f.Price})
	}

	for _, group := range e.TransferGroups() {
		for _, a := range group {
			for _, b := range group {
				if a == b {
					continue
				}
				adj[a] = append(adj[a], edge{to: b, cost: 0, transfer: true})
			}
		}
	}

	return adj
}

// attributeLines maps each priced hop of the station path to a line id.
// The line of the previous hop wins when several lines carry the same
// segment, so a route does not flap between parallel lines mid-journey.
// Transfer hops produce no line entry; the returned hop indices record
// where in the station path each priced hop starts.
func (e *Engine) attributeLines(stationPath []string, transfers []bool) ([]string, []int) {
	linePath := make([]string, 0, len(transfers))
	hopStations := make([]int, 0, len(transfers))
	current := ""
	for i, isTransfer := range transfers {
		if isTransfer {
			current = ""
			continue
		}
		from, to := stationPath[i], stationPath[i+1]
		line := e.findLineForSegment(from, to, current)
		linePath = append(linePath, line)
		hopStations = append(hopStations, i)
		current = line
	}
	return linePath, hopStations
}

// findLineForSegment picks a line on which the two stations are adjacent,
// preferring the given one.
func (e *Engine) findLineForSegment(from, to, preferred string) string {
	candidate := ""
	for _, line := range e.network.AllLines() {
		i, j := line.StationOrder(from), line.StationOrder(to)
		if i < 0 || j < 0 {
			continue
		}
		if i-j != 1 && j-i != 1 {
			continue
		}
		if line.ID == preferred {
			return preferred
		}
		if candidate == "" || line.ID < candidate {
			candidate = line.ID
		}
	}
	if candidate == "" {
		// A fare not backed by any line still prices the hop; carry the
		// current line forward so it does not count as a transfer.
		return preferred
	}
	return candidate
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseBools(s []bool) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// queueItem and routeQueue implement the frontier. Equal costs order by
// insertion sequence.
type queueItem struct {
	code string
	cost int
	seq  int
}

type routeQueue []*queueItem

func (q routeQueue) Len() int { return len(q) }

func (q routeQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].seq < q[j].seq
}

func (q routeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *routeQueue) Push(x interface{}) {
	*q = append(*q, x.(*queueItem))
}

func (q *routeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
