package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transit-ticketing-service/internal/domain"
	"github.com/transit-ticketing-service/internal/pkg/errors"
	"go.uber.org/zap"
)

type memSnapshotRepo struct {
	mu   sync.Mutex
	snap *domain.Snapshot
}

func (m *memSnapshotRepo) Load(ctx context.Context) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return &domain.Snapshot{}, nil
	}
	return m.snap, nil
}

func (m *memSnapshotRepo) Save(ctx context.Context, snap *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	return nil
}

func newTestRegistry() *Registry {
	return New(nil, nil, zap.NewNop())
}

func station(code, name string) domain.Station {
	return domain.Station{Code: code, Name: name, Position: domain.Position{X: 0, Y: 64, Z: 0}}
}

func TestAddStation(t *testing.T) {
	tests := []struct {
		name    string
		station domain.Station
		setup   func(r *Registry)
		wantErr error
	}{
		{
			name:    "valid station",
			station: station("A-01", "Central"),
		},
		{
			name:    "duplicate code",
			station: station("A-01", "Central"),
			setup: func(r *Registry) {
				_ = r.AddStation(station("A-01", "Central"))
			},
			wantErr: errors.ErrStationExists,
		},
		{
			name:    "missing name",
			station: domain.Station{Code: "A-02"},
			wantErr: errors.ErrInvalidStation,
		},
		{
			name: "position out of bounds",
			station: domain.Station{
				Code: "A-03", Name: "Nowhere",
				Position: domain.Position{X: 0, Y: 90000, Z: 0},
			},
			wantErr: errors.ErrInvalidStation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry()
			if tt.setup != nil {
				tt.setup(r)
			}

			err := r.AddStation(tt.station)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.True(t, r.HasStation(tt.station.Code))
		})
	}
}

func TestRemoveStationCascades(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.AddStation(station("A-01", "Central")))
	require.NoError(t, r.AddStation(station("A-02", "North")))
	require.NoError(t, r.AddStation(station("B-01", "East")))
	require.NoError(t, r.AddLine(domain.Line{
		ID: "A", Name: "Alpha Line",
		StationCodes: []string{"A-01", "A-02"},
	}))
	require.NoError(t, r.AddFare(domain.Fare{From: "A-01", To: "A-02", Price: 10}))
	require.NoError(t, r.AddFare(domain.Fare{From: "A-02", To: "B-01", Price: 15}))

	err := r.RemoveStation("A-02")
	require.NoError(t, err)

	assert.False(t, r.HasStation("A-02"))

	line, ok := r.GetLine("A")
	require.True(t, ok)
	assert.Equal(t, []string{"A-01"}, line.StationCodes)

	assert.False(t, r.HasFare("A-01", "A-02"))
	assert.False(t, r.HasFare("A-02", "B-01"))
	assert.Empty(t, r.AllFares())
}

func TestRemoveStationNotFound(t *testing.T) {
	r := newTestRegistry()
	err := r.RemoveStation("Z-99")
	assert.ErrorIs(t, err, errors.ErrStationNotFound)
}

func TestAddFare(t *testing.T) {
	tests := []struct {
		name    string
		fare    domain.Fare
		wantErr error
	}{
		{
			name: "valid fare",
			fare: domain.Fare{From: "A-01", To: "A-02", Price: 10},
		},
		{
			name:    "reversed duplicate rejected",
			fare:    domain.Fare{From: "A-02", To: "A-01", Price: 12},
			wantErr: errors.ErrFareExists,
		},
		{
			name:    "unknown station",
			fare:    domain.Fare{From: "A-01", To: "Z-99", Price: 10},
			wantErr: errors.ErrStationNotFound,
		},
		{
			name:    "non-positive price",
			fare:    domain.Fare{From: "A-01", To: "A-02", Price: 0},
			wantErr: errors.ErrInvalidFare,
		},
	}

	r := newTestRegistry()
	require.NoError(t, r.AddStation(station("A-01", "Central")))
	require.NoError(t, r.AddStation(station("A-02", "North")))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.AddFare(tt.fare)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGetFareDirectionInsensitive(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.AddStation(station("A-01", "Central")))
	require.NoError(t, r.AddStation(station("A-02", "North")))
	require.NoError(t, r.AddFare(domain.Fare{From: "A-02", To: "A-01", Price: 10}))

	forward, ok := r.GetFare("A-01", "A-02")
	require.True(t, ok)
	backward, ok := r.GetFare("A-02", "A-01")
	require.True(t, ok)

	assert.Equal(t, forward, backward)
	assert.Equal(t, 10, forward.Price)
	// stored endpoints are canonical regardless of insertion direction
	assert.Equal(t, "A-01", forward.From)
	assert.Equal(t, "A-02", forward.To)
}

func TestAllFaresInsertionOrder(t *testing.T) {
	r := newTestRegistry()
	for _, code := range []string{"C-01", "A-01", "B-01", "D-01"} {
		require.NoError(t, r.AddStation(station(code, "Stop "+code)))
	}
	require.NoError(t, r.AddFare(domain.Fare{From: "C-01", To: "D-01", Price: 5}))
	require.NoError(t, r.AddFare(domain.Fare{From: "A-01", To: "B-01", Price: 7}))
	require.NoError(t, r.AddFare(domain.Fare{From: "B-01", To: "C-01", Price: 9}))

	fares := r.AllFares()
	require.Len(t, fares, 3)
	assert.Equal(t, "C-01-D-01", fares[0].Key())
	assert.Equal(t, "A-01-B-01", fares[1].Key())
	assert.Equal(t, "B-01-C-01", fares[2].Key())

	require.NoError(t, r.RemoveFare("A-01", "B-01"))
	fares = r.AllFares()
	require.Len(t, fares, 2)
	assert.Equal(t, "C-01-D-01", fares[0].Key())
	assert.Equal(t, "B-01-C-01", fares[1].Key())
}

func TestAddStationToLine(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.AddLine(domain.Line{ID: "A", Name: "Alpha Line"}))

	pos := domain.Position{X: 100, Y: 64, Z: 100}

	code, err := r.AddStationToLine("A", "Central", "", 0, pos)
	require.NoError(t, err)
	assert.Equal(t, "A-01", code)

	code, err = r.AddStationToLine("A", "North", "", 0, pos)
	require.NoError(t, err)
	assert.Equal(t, "A-02", code)

	// explicit sequence number
	code, err = r.AddStationToLine("A", "Express", "", 10, pos)
	require.NoError(t, err)
	assert.Equal(t, "A-10", code)

	// auto-numbering continues after the highest ordinal
	code, err = r.AddStationToLine("A", "South", "", 0, pos)
	require.NoError(t, err)
	assert.Equal(t, "A-11", code)

	line, ok := r.GetLine("A")
	require.True(t, ok)
	assert.Equal(t, []string{"A-01", "A-02", "A-10", "A-11"}, line.StationCodes)

	_, err = r.AddStationToLine("A", "Clash", "", 10, pos)
	assert.ErrorIs(t, err, errors.ErrStationExists)

	_, err = r.AddStationToLine("Z", "Orphan", "", 0, pos)
	assert.ErrorIs(t, err, errors.ErrLineNotFound)
}

func TestGenerateFaresForLine(t *testing.T) {
	r := newTestRegistry()
	for _, code := range []string{"A-01", "A-02", "A-03"} {
		require.NoError(t, r.AddStation(station(code, "Stop "+code)))
	}
	require.NoError(t, r.AddLine(domain.Line{
		ID: "A", Name: "Alpha Line",
		StationCodes: []string{"A-01", "A-02", "A-03"},
	}))
	require.NoError(t, r.AddFare(domain.Fare{From: "A-01", To: "A-02", Price: 25}))

	added, err := r.GenerateFaresForLine("A", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	// existing fare untouched, missing one filled at the base price
	f, ok := r.GetFare("A-01", "A-02")
	require.True(t, ok)
	assert.Equal(t, 25, f.Price)
	f, ok = r.GetFare("A-02", "A-03")
	require.True(t, ok)
	assert.Equal(t, 10, f.Price)

	added, err = r.GenerateFaresForLine("A", 10)
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestValidateData(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.AddStation(station("A-01", "Central")))
	require.NoError(t, r.AddStation(station("A-02", "North")))
	require.NoError(t, r.AddLine(domain.Line{
		ID: "A", Name: "Alpha Line",
		StationCodes: []string{"A-01", "A-02", "A-03"},
	}))
	require.NoError(t, r.AddLine(domain.Line{
		ID: "B", Name: "Beta Line",
		StationCodes: []string{"A-01"},
	}))
	require.NoError(t, r.AddFare(domain.Fare{From: "A-01", To: "A-02", Price: 10}))

	issues := r.ValidateData()
	require.Len(t, issues, 2)
	assert.Contains(t, issues, "line A references unknown station A-03")
	assert.Contains(t, issues, "line B is incomplete (1 stations)")
}

// stallingSnapshotRepo slows down the save of the smaller, earlier
// snapshot so an unserialized writer would commit it after the newer one.
type stallingSnapshotRepo struct {
	mu    sync.Mutex
	saved *domain.Snapshot
}

func (m *stallingSnapshotRepo) Load(ctx context.Context) (*domain.Snapshot, error) {
	return &domain.Snapshot{}, nil
}

func (m *stallingSnapshotRepo) Save(ctx context.Context, snap *domain.Snapshot) error {
	if len(snap.Stations) < 2 {
		time.Sleep(50 * time.Millisecond)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = snap
	return nil
}

func (m *stallingSnapshotRepo) lastSaved() *domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}

func TestSnapshotWritesKeepMutationOrder(t *testing.T) {
	repo := &stallingSnapshotRepo{}
	r := New(repo, nil, zap.NewNop())

	require.NoError(t, r.AddStation(station("A-01", "Central")))
	require.NoError(t, r.AddStation(station("A-02", "North")))

	require.Eventually(t, func() bool {
		snap := repo.lastSaved()
		return snap != nil && len(snap.Stations) == 2
	}, time.Second, 5*time.Millisecond)

	// the slow one-station write must not land afterwards and roll
	// storage back to the older state
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, repo.lastSaved().Stations, 2)
}

func TestLoadRestoresFareOrder(t *testing.T) {
	repo := &memSnapshotRepo{snap: &domain.Snapshot{
		Stations: []*domain.Station{
			{Code: "A-01", Name: "Central"},
			{Code: "A-02", Name: "North"},
			{Code: "B-01", Name: "East"},
		},
		Lines: []*domain.Line{
			{ID: "A", Name: "Alpha Line", StationCodes: []string{"A-01", "A-02"}},
		},
		Fares: []domain.Fare{
			{From: "A-02", To: "B-01", Price: 15},
			{From: "A-01", To: "A-02", Price: 10},
			{From: "", To: "X", Price: 5}, // invalid, skipped
		},
	}}

	r := New(repo, nil, zap.NewNop())
	require.NoError(t, r.Load(context.Background()))

	assert.Len(t, r.AllStations(), 3)
	assert.Len(t, r.AllLines(), 1)

	fares := r.AllFares()
	require.Len(t, fares, 2)
	assert.Equal(t, "A-02-B-01", fares[0].Key())
	assert.Equal(t, "A-01-A-02", fares[1].Key())
}
