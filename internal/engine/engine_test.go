package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transit-ticketing-service/internal/domain"
	"github.com/transit-ticketing-service/internal/registry"
	"go.uber.org/zap"
)

func seedNetwork(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New(nil, nil, zap.NewNop())

	stations := []domain.Station{
		{Code: "A-01", Name: "West End"},
		{Code: "A-02", Name: "Central"},
		{Code: "A-03", Name: "Harbor"},
		{Code: "B-01", Name: "Union", AltName: "Central"},
		{Code: "B-02", Name: "Airport"},
	}
	for _, s := range stations {
		require.NoError(t, r.AddStation(s))
	}

	require.NoError(t, r.AddLine(domain.Line{
		ID: "A", Name: "Alpha Line",
		StationCodes: []string{"A-01", "A-02", "A-03"},
	}))
	require.NoError(t, r.AddLine(domain.Line{
		ID: "B", Name: "Beta Line",
		StationCodes: []string{"B-01", "B-02"},
	}))

	require.NoError(t, r.AddFare(domain.Fare{From: "A-01", To: "A-02", Price: 10}))
	require.NoError(t, r.AddFare(domain.Fare{From: "A-02", To: "A-03", Price: 15}))
	require.NoError(t, r.AddFare(domain.Fare{From: "B-01", To: "B-02", Price: 20}))

	return r
}

func TestCalculateFareSameLine(t *testing.T) {
	e := New(seedNetwork(t), false, zap.NewNop())

	price, ok := e.CalculateFare("A-01", "A-03")
	require.True(t, ok)
	assert.Equal(t, 25, price)

	// direction does not matter
	price, ok = e.CalculateFare("A-03", "A-01")
	require.True(t, ok)
	assert.Equal(t, 25, price)
}

func TestCalculateFareSameStation(t *testing.T) {
	e := New(seedNetwork(t), false, zap.NewNop())

	price, ok := e.CalculateFare("A-02", "A-02")
	require.True(t, ok)
	assert.Zero(t, price)

	_, ok = e.CalculateFare("Z-99", "Z-99")
	assert.False(t, ok)
}

func TestCalculateFareMissingSegment(t *testing.T) {
	r := registry.New(nil, nil, zap.NewNop())
	for _, code := range []string{"A-01", "A-02", "A-03"} {
		require.NoError(t, r.AddStation(domain.Station{Code: code, Name: "Stop " + code}))
	}
	require.NoError(t, r.AddLine(domain.Line{
		ID: "A", Name: "Alpha Line",
		StationCodes: []string{"A-01", "A-02", "A-03"},
	}))
	require.NoError(t, r.AddFare(domain.Fare{From: "A-01", To: "A-02", Price: 10}))

	// lenient mode prices the unpriced segment at zero
	price, ok := New(r, false, zap.NewNop()).CalculateFare("A-01", "A-03")
	require.True(t, ok)
	assert.Equal(t, 10, price)

	// strict mode rejects the line sum and finds no priced path either
	_, ok = New(r, true, zap.NewNop()).CalculateFare("A-01", "A-03")
	assert.False(t, ok)
}

func TestFindRouteAcrossTransfer(t *testing.T) {
	e := New(seedNetwork(t), false, zap.NewNop())

	route, ok := e.FindRoute("A-01", "B-02")
	require.True(t, ok)

	// A-02 and B-01 share the name "Central", a free interchange
	assert.Equal(t, []string{"A-01", "A-02", "B-01", "B-02"}, route.StationPath)
	assert.Equal(t, []string{"A", "B"}, route.LinePath)
	assert.Equal(t, 30, route.TotalPrice)
	assert.Equal(t, 1, route.TransferCount)
	// the transfer point accounts for the zero-cost interchange hop:
	// the B line is boarded at B-01, not at the station two hops in
	assert.Equal(t, []string{"B-01"}, route.TransferPoints())
}

func TestCalculateFareAcrossTransfer(t *testing.T) {
	e := New(seedNetwork(t), false, zap.NewNop())

	price, ok := e.CalculateFare("A-03", "B-02")
	require.True(t, ok)
	assert.Equal(t, 35, price)
}

func TestFindRouteUnreachable(t *testing.T) {
	r := seedNetwork(t)
	require.NoError(t, r.AddStation(domain.Station{Code: "C-01", Name: "Island"}))
	e := New(r, false, zap.NewNop())

	_, ok := e.FindRoute("A-01", "C-01")
	assert.False(t, ok)

	_, ok = e.FindRoute("A-01", "Z-99")
	assert.False(t, ok)
}

func TestFindRouteSameStation(t *testing.T) {
	e := New(seedNetwork(t), false, zap.NewNop())

	route, ok := e.FindRoute("A-02", "A-02")
	require.True(t, ok)
	assert.Equal(t, []string{"A-02"}, route.StationPath)
	assert.Zero(t, route.TotalPrice)
	assert.Zero(t, route.TransferCount)
}

func TestFindRouteDeterministicTieBreak(t *testing.T) {
	r := registry.New(nil, nil, zap.NewNop())
	for _, code := range []string{"X-01", "X-02", "X-03", "X-04"} {
		require.NoError(t, r.AddStation(domain.Station{Code: code, Name: "Stop " + code}))
	}
	// two equal-cost paths X-01 -> X-04; the first-inserted pair wins
	require.NoError(t, r.AddFare(domain.Fare{From: "X-01", To: "X-02", Price: 5}))
	require.NoError(t, r.AddFare(domain.Fare{From: "X-02", To: "X-04", Price: 5}))
	require.NoError(t, r.AddFare(domain.Fare{From: "X-01", To: "X-03", Price: 5}))
	require.NoError(t, r.AddFare(domain.Fare{From: "X-03", To: "X-04", Price: 5}))

	e := New(r, false, zap.NewNop())
	for i := 0; i < 5; i++ {
		route, ok := e.FindRoute("X-01", "X-04")
		require.True(t, ok)
		assert.Equal(t, []string{"X-01", "X-02", "X-04"}, route.StationPath)
		assert.Equal(t, 10, route.TotalPrice)
	}
}

func TestTransferGroups(t *testing.T) {
	r := registry.New(nil, nil, zap.NewNop())
	stations := []domain.Station{
		{Code: "A-05", Name: "Riverside"},
		{Code: "B-03", Name: "Riverside East", AltName: "Riverside"},
		{Code: "C-02", Name: "Riverside East"},
		{Code: "D-01", Name: "Lonely"},
	}
	for _, s := range stations {
		require.NoError(t, r.AddStation(s))
	}

	groups := New(r, false, zap.NewNop()).TransferGroups()

	// B-03 bridges the two names into one interchange; D-01 is dropped
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"A-05", "B-03", "C-02"}, groups[0])
}

func TestFareMatrix(t *testing.T) {
	r := seedNetwork(t)
	require.NoError(t, r.AddStation(domain.Station{Code: "Z-01", Name: "Island"}))
	e := New(r, false, zap.NewNop())

	matrix := e.FareMatrix()

	assert.Equal(t, 25, matrix["A-01"]["A-03"])
	assert.Equal(t, 25, matrix["A-03"]["A-01"])
	assert.Equal(t, 30, matrix["A-01"]["B-02"])
	// free interchange between the two Central platforms
	assert.Equal(t, 0, matrix["A-02"]["B-01"])

	// unreachable stations have no row
	_, ok := matrix["Z-01"]
	assert.False(t, ok)
}

func TestCumulativeLineFareNotOnLine(t *testing.T) {
	r := seedNetwork(t)
	e := New(r, false, zap.NewNop())

	line, ok := r.GetLine("A")
	require.True(t, ok)

	_, complete := e.CumulativeLineFare(line, "A-01", "B-02")
	assert.False(t, complete)
}
