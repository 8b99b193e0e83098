//go:build ignore

// Seeds a small sample network into the snapshot database. Run with:
//
//	go run scripts/seed_network.go -host localhost -db transit
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/transit-ticketing-service/internal/config"
	"github.com/transit-ticketing-service/internal/domain"
	"github.com/transit-ticketing-service/internal/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	host := flag.String("host", "localhost", "database host")
	port := flag.Int("port", 5432, "database port")
	user := flag.String("user", "postgres", "database user")
	password := flag.String("password", "postgres", "database password")
	dbname := flag.String("db", "transit", "database name")
	flag.Parse()

	logger := zap.NewNop()
	db, err := postgres.New(&config.DatabaseConfig{
		Host:     *host,
		Port:     *port,
		User:     *user,
		Password: *password,
		DBName:   *dbname,
		SSLMode:  "disable",
		MaxConns: 2,
	}, logger)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	snap := &domain.Snapshot{
		Stations: []*domain.Station{
			{Code: "RED-01", Name: "West Terminal", Position: domain.Position{X: -800, Y: 64, Z: 0}, SequenceNumber: 1},
			{Code: "RED-02", Name: "Market Square", Position: domain.Position{X: -300, Y: 64, Z: 0}, SequenceNumber: 2},
			{Code: "RED-03", Name: "Union", Position: domain.Position{X: 0, Y: 64, Z: 0}, SequenceNumber: 3},
			{Code: "RED-04", Name: "Harbor", Position: domain.Position{X: 450, Y: 64, Z: 120}, SequenceNumber: 4},
			{Code: "BLUE-01", Name: "Union North", AltName: "Union", Position: domain.Position{X: 0, Y: 64, Z: -40}, SequenceNumber: 1},
			{Code: "BLUE-02", Name: "University", Position: domain.Position{X: 200, Y: 64, Z: -500}, SequenceNumber: 2},
			{Code: "BLUE-03", Name: "Airport", Position: domain.Position{X: 600, Y: 64, Z: -1200}, SequenceNumber: 3},
		},
		Lines: []*domain.Line{
			{ID: "RED", Name: "Red Line", Color: "#cc3333", StationCodes: []string{"RED-01", "RED-02", "RED-03", "RED-04"}},
			{ID: "BLUE", Name: "Blue Line", Color: "#3355cc", StationCodes: []string{"BLUE-01", "BLUE-02", "BLUE-03"}},
		},
		Fares: []domain.Fare{
			{From: "RED-01", To: "RED-02", Price: 10},
			{From: "RED-02", To: "RED-03", Price: 10},
			{From: "RED-03", To: "RED-04", Price: 15},
			{From: "BLUE-01", To: "BLUE-02", Price: 12},
			{From: "BLUE-02", To: "BLUE-03", Price: 20},
		},
	}

	repo := postgres.NewSnapshotRepository(db)
	if err := repo.Save(ctx, snap); err != nil {
		log.Fatalf("save: %v", err)
	}
	log.Printf("seeded %d stations, %d lines, %d fares",
		len(snap.Stations), len(snap.Lines), len(snap.Fares))
}
