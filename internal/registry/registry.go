package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/transit-ticketing-service/internal/domain"
	"github.com/transit-ticketing-service/internal/domain/repository"
	"github.com/transit-ticketing-service/internal/pkg/errors"
	"github.com/transit-ticketing-service/internal/pkg/validator"
	"go.uber.org/zap"
)

// Registry is the in-memory catalog of stations, lines and fares. It is
// an injected service, owned by the composition root; there are no
// package-level singletons. Reads may run concurrently; each mutating
// call runs to completion (cascades included) before the next one is
// dispatched, and every mutation is followed by a whole-snapshot write.
type Registry struct {
	mu       sync.RWMutex
	stations map[string]*domain.Station
	lines    map[string]*domain.Line
	fares    map[string]domain.Fare
	// fareOrder preserves insertion order of canonical fare keys; the
	// engine's equal-cost tie-breaking relies on it.
	fareOrder []string

	snapshots repository.SnapshotRepository
	cache     repository.FareCacheRepository
	logger    *zap.Logger

	// persistSeq numbers snapshots as mutations produce them (guarded by
	// mu); savedSeq is the newest one committed to storage (guarded by
	// saveMu). A writer drops its snapshot when a newer one already
	// committed, so storage never rolls back to an older state.
	persistSeq uint64
	saveMu     sync.Mutex
	savedSeq   uint64
}

// New builds an empty registry. snapshots and cache may be nil, in which
// case persistence and quote invalidation are skipped.
func New(snapshots repository.SnapshotRepository, cache repository.FareCacheRepository, logger *zap.Logger) *Registry {
	return &Registry{
		stations:  make(map[string]*domain.Station),
		lines:     make(map[string]*domain.Line),
		fares:     make(map[string]domain.Fare),
		fareOrder: make([]string, 0),
		snapshots: snapshots,
		cache:     cache,
		logger:    logger,
	}
}

// Load replaces the registry contents with the stored snapshot.
func (r *Registry) Load(ctx context.Context) error {
	if r.snapshots == nil {
		return nil
	}

	snap, err := r.snapshots.Load(ctx)
	if err != nil {
		r.logger.Error("Failed to load snapshot", zap.Error(err))
		return fmt.Errorf("load snapshot: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.stations = make(map[string]*domain.Station, len(snap.Stations))
	for _, s := range snap.Stations {
		st := *s
		r.stations[st.Code] = &st
	}

	r.lines = make(map[string]*domain.Line, len(snap.Lines))
	for _, l := range snap.Lines {
		ln := *l
		ln.StationCodes = append([]string(nil), l.StationCodes...)
		r.lines[ln.ID] = &ln
	}

	r.fares = make(map[string]domain.Fare, len(snap.Fares))
	r.fareOrder = r.fareOrder[:0]
	for _, f := range snap.Fares {
		if !f.IsValid() {
			r.logger.Warn("Invalid fare skipped during load",
				zap.String("from", f.From),
				zap.String("to", f.To),
				zap.Int("price", f.Price))
			continue
		}
		nf := f.Normalized()
		key := nf.Key()
		if existing, ok := r.fares[key]; ok {
			if existing.Price != nf.Price {
				r.logger.Warn("Duplicate fare for segment in snapshot",
					zap.String("segment", key),
					zap.Int("existing_price", existing.Price),
					zap.Int("new_price", nf.Price))
			}
			continue
		}
		r.fares[key] = nf
		r.fareOrder = append(r.fareOrder, key)
	}

	r.logger.Info("Registry loaded",
		zap.Int("stations", len(r.stations)),
		zap.Int("lines", len(r.lines)),
		zap.Int("fares", len(r.fares)))

	return nil
}

// ==================== stations ====================

func (r *Registry) AddStation(station domain.Station) error {
	if err := validator.Validate(station); err != nil {
		return errors.ErrInvalidStation.WithDetails(map[string]interface{}{"cause": err.Error()})
	}
	if !station.Position.Valid() {
		return errors.ErrInvalidStation.WithDetails(map[string]interface{}{"cause": "position out of world bounds"})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stations[station.Code]; ok {
		return errors.ErrStationExists.WithDetails(map[string]interface{}{"code": station.Code})
	}

	st := station
	r.stations[st.Code] = &st
	r.persistLocked()
	return nil
}

// UpdateStation replaces the mutable fields of an existing station
// (rename and move; the code itself is immutable).
func (r *Registry) UpdateStation(station domain.Station) error {
	if err := validator.Validate(station); err != nil {
		return errors.ErrInvalidStation.WithDetails(map[string]interface{}{"cause": err.Error()})
	}
	if !station.Position.Valid() {
		return errors.ErrInvalidStation.WithDetails(map[string]interface{}{"cause": "position out of world bounds"})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stations[station.Code]; !ok {
		return errors.ErrStationNotFound.WithDetails(map[string]interface{}{"code": station.Code})
	}

	st := station
	r.stations[st.Code] = &st
	r.persistLocked()
	return nil
}

// RemoveStation deletes a station and cascades: the station is first
// stripped from every line's sequence, then every fare touching it is
// deleted, and only then the station itself. All three sub-steps are one
// logical update and persist as one snapshot.
func (r *Registry) RemoveStation(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stations[code]; !ok {
		return errors.ErrStationNotFound.WithDetails(map[string]interface{}{"code": code})
	}

	for _, line := range r.lines {
		line.RemoveStation(code)
	}

	removedFares := 0
	kept := r.fareOrder[:0]
	for _, key := range r.fareOrder {
		if r.fares[key].Touches(code) {
			delete(r.fares, key)
			removedFares++
			continue
		}
		kept = append(kept, key)
	}
	r.fareOrder = kept

	delete(r.stations, code)

	r.logger.Info("Station removed",
		zap.String("code", code),
		zap.Int("fares_removed", removedFares))

	r.persistLocked()
	return nil
}

func (r *Registry) GetStation(code string) (*domain.Station, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stations[code]
	if !ok {
		return nil, false
	}
	st := *s
	return &st, true
}

func (r *Registry) HasStation(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.stations[code]
	return ok
}

// AllStations returns copies of every station, ordered by code.
func (r *Registry) AllStations() []*domain.Station {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Station, 0, len(r.stations))
	for _, s := range r.stations {
		st := *s
		result = append(result, &st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result
}

// ==================== lines ====================

func (r *Registry) AddLine(line domain.Line) error {
	if err := validator.Validate(line); err != nil {
		return errors.ErrInvalidLine.WithDetails(map[string]interface{}{"cause": err.Error()})
	}
	if hasDuplicates(line.StationCodes) {
		return errors.ErrInvalidLine.WithDetails(map[string]interface{}{"cause": "duplicate station codes"})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lines[line.ID]; ok {
		return errors.ErrLineExists.WithDetails(map[string]interface{}{"id": line.ID})
	}

	// A line may reference stations that have not been added yet; this
	// is tolerated but flagged for the operator.
	for _, code := range line.StationCodes {
		if _, ok := r.stations[code]; !ok {
			r.logger.Warn("Line references unknown station",
				zap.String("line", line.ID),
				zap.String("station", code))
		}
	}

	ln := line
	ln.StationCodes = append([]string(nil), line.StationCodes...)
	r.lines[ln.ID] = &ln
	r.persistLocked()
	return nil
}

func (r *Registry) UpdateLine(line domain.Line) error {
	if err := validator.Validate(line); err != nil {
		return errors.ErrInvalidLine.WithDetails(map[string]interface{}{"cause": err.Error()})
	}
	if hasDuplicates(line.StationCodes) {
		return errors.ErrInvalidLine.WithDetails(map[string]interface{}{"cause": "duplicate station codes"})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lines[line.ID]; !ok {
		return errors.ErrLineNotFound.WithDetails(map[string]interface{}{"id": line.ID})
	}

	ln := line
	ln.StationCodes = append([]string(nil), line.StationCodes...)
	r.lines[ln.ID] = &ln
	r.persistLocked()
	return nil
}

func (r *Registry) RemoveLine(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lines[id]; !ok {
		return errors.ErrLineNotFound.WithDetails(map[string]interface{}{"id": id})
	}

	delete(r.lines, id)
	r.persistLocked()
	return nil
}

func (r *Registry) HasLine(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.lines[id]
	return ok
}

func (r *Registry) GetLine(id string) (*domain.Line, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lines[id]
	if !ok {
		return nil, false
	}
	ln := *l
	ln.StationCodes = append([]string(nil), l.StationCodes...)
	return &ln, true
}

// AllLines returns copies of every line, ordered by id.
func (r *Registry) AllLines() []*domain.Line {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Line, 0, len(r.lines))
	for _, l := range r.lines {
		ln := *l
		ln.StationCodes = append([]string(nil), l.StationCodes...)
		result = append(result, &ln)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// LinesContaining returns every line whose sequence includes the station.
func (r *Registry) LinesContaining(code string) []*domain.Line {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Line, 0)
	for _, l := range r.lines {
		if l.ContainsStation(code) {
			ln := *l
			ln.StationCodes = append([]string(nil), l.StationCodes...)
			result = append(result, &ln)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// AddStationToLine creates a station coded after the line and sequence
// number ("<lineID>-NN") and appends it to the line. When seq is 0 the
// next free number on the line is assigned.
func (r *Registry) AddStationToLine(lineID, name, altName string, seq int, pos domain.Position) (string, error) {
	if name == "" {
		return "", errors.ErrInvalidStation.WithDetails(map[string]interface{}{"cause": "empty name"})
	}
	if !pos.Valid() {
		return "", errors.ErrInvalidStation.WithDetails(map[string]interface{}{"cause": "position out of world bounds"})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	line, ok := r.lines[lineID]
	if !ok {
		return "", errors.ErrLineNotFound.WithDetails(map[string]interface{}{"id": lineID})
	}

	if seq <= 0 {
		max := 0
		for _, code := range line.StationCodes {
			prefix, n, ok := domain.ParseStationCode(code)
			if ok && prefix == lineID && n > max {
				max = n
			}
		}
		seq = max + 1
	}

	code := fmt.Sprintf("%s-%02d", lineID, seq)
	if _, exists := r.stations[code]; exists {
		return "", errors.ErrStationExists.WithDetails(map[string]interface{}{"code": code})
	}

	r.stations[code] = &domain.Station{
		Code:           code,
		Name:           name,
		AltName:        altName,
		Position:       pos,
		SequenceNumber: seq,
	}
	line.AddStation(code)

	r.logger.Info("Station added to line",
		zap.String("line", lineID),
		zap.String("code", code),
		zap.String("name", name))

	r.persistLocked()
	return code, nil
}

// ==================== fares ====================

// AddFare stores a fare under its canonical key. There is no implicit
// overwrite: updating a price requires remove-then-add.
func (r *Registry) AddFare(fare domain.Fare) error {
	if !fare.IsValid() {
		return errors.ErrInvalidFare
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stations[fare.From]; !ok {
		return errors.ErrStationNotFound.WithDetails(map[string]interface{}{"code": fare.From})
	}
	if _, ok := r.stations[fare.To]; !ok {
		return errors.ErrStationNotFound.WithDetails(map[string]interface{}{"code": fare.To})
	}

	nf := fare.Normalized()
	key := nf.Key()
	if existing, ok := r.fares[key]; ok {
		return errors.ErrFareExists.WithDetails(map[string]interface{}{
			"segment":        key,
			"existing_price": existing.Price,
		})
	}

	r.fares[key] = nf
	r.fareOrder = append(r.fareOrder, key)
	r.persistLocked()
	return nil
}

func (r *Registry) RemoveFare(from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := domain.FareKey(from, to)
	if _, ok := r.fares[key]; !ok {
		return errors.ErrFareNotFound.WithDetails(map[string]interface{}{"segment": key})
	}

	delete(r.fares, key)
	for i, k := range r.fareOrder {
		if k == key {
			r.fareOrder = append(r.fareOrder[:i], r.fareOrder[i+1:]...)
			break
		}
	}
	r.persistLocked()
	return nil
}

// GetFare is direction-insensitive: (a,b) and (b,a) resolve to the same
// stored entry.
func (r *Registry) GetFare(from, to string) (domain.Fare, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.fares[domain.FareKey(from, to)]
	return f, ok
}

func (r *Registry) HasFare(from, to string) bool {
	_, ok := r.GetFare(from, to)
	return ok
}

// AllFares returns the fares in insertion order.
func (r *Registry) AllFares() []domain.Fare {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Fare, 0, len(r.fareOrder))
	for _, key := range r.fareOrder {
		result = append(result, r.fares[key])
	}
	return result
}

// GenerateFaresForLine fills in the base price for every adjacent pair
// of the line that has no fare yet, and returns how many were created.
func (r *Registry) GenerateFaresForLine(lineID string, basePrice int) (int, error) {
	if basePrice <= 0 {
		return 0, errors.ErrInvalidFare
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	line, ok := r.lines[lineID]
	if !ok {
		return 0, errors.ErrLineNotFound.WithDetails(map[string]interface{}{"id": lineID})
	}
	if !line.IsComplete() {
		return 0, errors.ErrInvalidLine.WithDetails(map[string]interface{}{"cause": "line has fewer than 2 stations"})
	}

	added := 0
	for i := 0; i < len(line.StationCodes)-1; i++ {
		from, to := line.StationCodes[i], line.StationCodes[i+1]
		key := domain.FareKey(from, to)
		if _, exists := r.fares[key]; exists {
			continue
		}
		if _, ok := r.stations[from]; !ok {
			continue
		}
		if _, ok := r.stations[to]; !ok {
			continue
		}
		r.fares[key] = domain.Fare{From: from, To: to, Price: basePrice}.Normalized()
		r.fareOrder = append(r.fareOrder, key)
		added++
	}

	if added > 0 {
		r.persistLocked()
	}
	return added, nil
}

// ==================== integrity ====================

// ValidateData reports referential problems: lines pointing at unknown
// stations, fares pointing at unknown stations, incomplete lines.
func (r *Registry) ValidateData() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issues := make([]string, 0)

	for _, line := range r.lines {
		if !line.IsComplete() {
			issues = append(issues, fmt.Sprintf("line %s is incomplete (%d stations)", line.ID, len(line.StationCodes)))
		}
		for _, code := range line.StationCodes {
			if _, ok := r.stations[code]; !ok {
				issues = append(issues, fmt.Sprintf("line %s references unknown station %s", line.ID, code))
			}
		}
	}

	for _, key := range r.fareOrder {
		f := r.fares[key]
		if _, ok := r.stations[f.From]; !ok {
			issues = append(issues, fmt.Sprintf("fare %s references unknown station %s", key, f.From))
		}
		if _, ok := r.stations[f.To]; !ok {
			issues = append(issues, fmt.Sprintf("fare %s references unknown station %s", key, f.To))
		}
	}

	sort.Strings(issues)
	return issues
}

// ==================== persistence ====================

// persistLocked builds a snapshot under the held write lock and hands it
// to storage off the hot path. Writers are serialized by saveMu and a
// snapshot superseded by a newer one is dropped, so back-to-back
// mutations cannot commit out of order. Write failures are logged, never
// bubbled into the mutation result: memory is the source of truth and
// the next mutation retries the full snapshot anyway.
func (r *Registry) persistLocked() {
	if r.snapshots == nil && r.cache == nil {
		return
	}

	r.persistSeq++
	seq := r.persistSeq
	snap := r.snapshotLocked()
	go func() {
		r.saveMu.Lock()
		defer r.saveMu.Unlock()

		if seq <= r.savedSeq {
			return
		}

		ctx := context.Background()
		if r.cache != nil {
			if err := r.cache.Flush(ctx); err != nil {
				r.logger.Warn("Failed to flush fare quote cache", zap.Error(err))
			}
		}
		if r.snapshots != nil {
			if err := r.snapshots.Save(ctx, snap); err != nil {
				r.logger.Error("Failed to save snapshot", zap.Error(err))
				return
			}
		}
		r.savedSeq = seq
	}()
}

func (r *Registry) snapshotLocked() *domain.Snapshot {
	snap := &domain.Snapshot{
		Stations: make([]*domain.Station, 0, len(r.stations)),
		Lines:    make([]*domain.Line, 0, len(r.lines)),
		Fares:    make([]domain.Fare, 0, len(r.fareOrder)),
	}
	for _, s := range r.stations {
		st := *s
		snap.Stations = append(snap.Stations, &st)
	}
	sort.Slice(snap.Stations, func(i, j int) bool { return snap.Stations[i].Code < snap.Stations[j].Code })
	for _, l := range r.lines {
		ln := *l
		ln.StationCodes = append([]string(nil), l.StationCodes...)
		snap.Lines = append(snap.Lines, &ln)
	}
	sort.Slice(snap.Lines, func(i, j int) bool { return snap.Lines[i].ID < snap.Lines[j].ID })
	for _, key := range r.fareOrder {
		snap.Fares = append(snap.Fares, r.fares[key])
	}
	return snap
}

func hasDuplicates(codes []string) bool {
	seen := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			return true
		}
		seen[c] = struct{}{}
	}
	return false
}
