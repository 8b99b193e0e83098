package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/transit-ticketing-service/internal/domain"
	"github.com/transit-ticketing-service/internal/domain/repository"
	"github.com/transit-ticketing-service/internal/pkg/errors"
)

type snapshotRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewSnapshotRepository(db *DB) repository.SnapshotRepository {
	return &snapshotRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

// EnsureSchema creates the snapshot tables when missing. The fares table
// carries an explicit position column; load order must match save order.
func EnsureSchema(ctx context.Context, db *DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS stations (
			code            TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			alt_name        TEXT NOT NULL DEFAULT '',
			x               BIGINT NOT NULL DEFAULT 0,
			y               BIGINT NOT NULL DEFAULT 0,
			z               BIGINT NOT NULL DEFAULT 0,
			sequence_number INT NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS lines (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			alt_name      TEXT NOT NULL DEFAULT '',
			color         TEXT NOT NULL DEFAULT '',
			station_codes TEXT[] NOT NULL DEFAULT '{}'
		);

		CREATE TABLE IF NOT EXISTS fares (
			position     INT NOT NULL,
			from_station TEXT NOT NULL,
			to_station   TEXT NOT NULL,
			price        INT NOT NULL,
			PRIMARY KEY (from_station, to_station)
		);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create snapshot schema: %w", err)
	}
	return nil
}

func (r *snapshotRepository) Load(ctx context.Context) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{
		Stations: make([]*domain.Station, 0),
		Lines:    make([]*domain.Line, 0),
		Fares:    make([]domain.Fare, 0),
	}

	stationRows, err := r.db.QueryxContext(ctx,
		`SELECT code, name, alt_name, x, y, z, sequence_number FROM stations ORDER BY code`)
	if err != nil {
		return nil, errors.ErrSnapshotError.WithDetails(map[string]interface{}{"cause": err.Error()})
	}
	defer stationRows.Close()

	for stationRows.Next() {
		var s domain.Station
		if err := stationRows.Scan(&s.Code, &s.Name, &s.AltName,
			&s.Position.X, &s.Position.Y, &s.Position.Z, &s.SequenceNumber); err != nil {
			return nil, errors.ErrSnapshotError.WithDetails(map[string]interface{}{"cause": err.Error()})
		}
		st := s
		snap.Stations = append(snap.Stations, &st)
	}
	if err := stationRows.Err(); err != nil {
		return nil, errors.ErrSnapshotError.WithDetails(map[string]interface{}{"cause": err.Error()})
	}

	lineRows, err := r.db.QueryxContext(ctx,
		`SELECT id, name, alt_name, color, station_codes FROM lines ORDER BY id`)
	if err != nil {
		return nil, errors.ErrSnapshotError.WithDetails(map[string]interface{}{"cause": err.Error()})
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var l domain.Line
		var codes pq.StringArray
		if err := lineRows.Scan(&l.ID, &l.Name, &l.AltName, &l.Color, &codes); err != nil {
			return nil, errors.ErrSnapshotError.WithDetails(map[string]interface{}{"cause": err.Error()})
		}
		l.StationCodes = []string(codes)
		ln := l
		snap.Lines = append(snap.Lines, &ln)
	}
	if err := lineRows.Err(); err != nil {
		return nil, errors.ErrSnapshotError.WithDetails(map[string]interface{}{"cause": err.Error()})
	}

	fareRows, err := r.db.QueryxContext(ctx,
		`SELECT from_station, to_station, price FROM fares ORDER BY position`)
	if err != nil {
		return nil, errors.ErrSnapshotError.WithDetails(map[string]interface{}{"cause": err.Error()})
	}
	defer fareRows.Close()

	for fareRows.Next() {
		var f domain.Fare
		if err := fareRows.Scan(&f.From, &f.To, &f.Price); err != nil {
			return nil, errors.ErrSnapshotError.WithDetails(map[string]interface{}{"cause": err.Error()})
		}
		snap.Fares = append(snap.Fares, f)
	}
	if err := fareRows.Err(); err != nil {
		return nil, errors.ErrSnapshotError.WithDetails(map[string]interface{}{"cause": err.Error()})
	}

	r.logger.Debug("Snapshot loaded",
		zap.Int("stations", len(snap.Stations)),
		zap.Int("lines", len(snap.Lines)),
		zap.Int("fares", len(snap.Fares)))

	return snap, nil
}

// Save replaces the stored snapshot in one transaction: either the new
// state lands completely or the old one stays.
func (r *snapshotRepository) Save(ctx context.Context, snap *domain.Snapshot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.ErrSnapshotError.WithDetails(map[string]interface{}{"cause": err.Error()})
	}
	defer tx.Rollback()

	for _, table := range []string{"fares", "lines", "stations"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.ErrSnapshotError.WithDetails(map[string]interface{}{"cause": err.Error()})
		}
	}

	for _, s := range snap.Stations {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO stations (code, name, alt_name, x, y, z, sequence_number)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			s.Code, s.Name, s.AltName, s.Position.X, s.Position.Y, s.Position.Z, s.SequenceNumber)
		if err != nil {
			return errors.ErrSnapshotError.WithDetails(map[string]interface{}{"cause": err.Error()})
		}
	}

	for _, l := range snap.Lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO lines (id, name, alt_name, color, station_codes)
			 VALUES ($1, $2, $3, $4, $5)`,
			l.ID, l.Name, l.AltName, l.Color, pq.StringArray(l.StationCodes))
		if err != nil {
			return errors.ErrSnapshotError.WithDetails(map[string]interface{}{"cause": err.Error()})
		}
	}

	for i, f := range snap.Fares {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO fares (position, from_station, to_station, price)
			 VALUES ($1, $2, $3, $4)`,
			i, f.From, f.To, f.Price)
		if err != nil {
			return errors.ErrSnapshotError.WithDetails(map[string]interface{}{"cause": err.Error()})
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.ErrSnapshotError.WithDetails(map[string]interface{}{"cause": err.Error()})
	}

	r.logger.Debug("Snapshot saved",
		zap.Int("stations", len(snap.Stations)),
		zap.Int("lines", len(snap.Lines)),
		zap.Int("fares", len(snap.Fares)))

	return nil
}
