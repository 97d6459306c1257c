package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roman-kulish/tello-pilot/internal/record"
)

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

var _ Store = (*SqliteStore)(nil)

// NewSqliteStore creates a new store backed by the Sqlite database at dbPath.
// Connections are opened and the schema is initialized on first use.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1) // single writer

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateFlight(ctx context.Context, droneAddr string, config any) (flightID uuid.UUID, err error) {
	configData, err := toConfigData(config)
	if err != nil {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertFlightSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	id := uuid.New()
	if _, err = stmt.ExecContext(ctx, id.String(), time.Now().UTC(), droneAddr, configData); err != nil {
		err = fmt.Errorf("inserting flight: %w", err)
		return
	}

	return id, nil
}

func (s *SqliteStore) Flight(ctx context.Context, id uuid.UUID) (flight *Flight, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectFlightSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	f, err := scanFlight(stmt.QueryRowContext(ctx, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: %s", ErrNoFlight, id)
		return
	}
	if err != nil {
		err = fmt.Errorf("scanning flight: %w", err)
		return
	}

	return f, nil
}

func (s *SqliteStore) Flights(ctx context.Context) (flights []*Flight, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectFlightsSQL)
	if err != nil {
		err = fmt.Errorf("querying flights: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var f *Flight
		if f, err = scanFlight(rows); err != nil {
			err = fmt.Errorf("scanning flight: %w", err)
			return
		}
		flights = append(flights, f)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating flights: %w", err)
	}
	return
}

func scanFlight(row interface{ Scan(...any) error }) (*Flight, error) {
	var f Flight
	var id string
	var config sql.NullString
	if err := row.Scan(&id, &f.StartTime, &f.DroneAddr, &config); err != nil {
		return nil, err
	}

	var err error
	if f.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing flight ID: %w", err)
	}
	if config.Valid {
		f.Config = &config.String
	}
	return &f, nil
}

// Write stores a telemetry, response or position record
func (s *SqliteStore) Write(ctx context.Context, r record.Record) error {
	switch rec := r.(type) {
	case record.Telemetry:
		if rec.Snapshot == nil {
			return fmt.Errorf("storing telemetry: empty snapshot")
		}
		return s.storeTelemetry(ctx, toTelemetryData(rec))
	case record.Response:
		return s.storeResponse(ctx, toResponseData(rec))
	case record.Position:
		return s.storePosition(ctx, toPositionData(rec))
	default:
		return fmt.Errorf("storing record: unsupported type %T", r)
	}
}

func (s *SqliteStore) storeTelemetry(ctx context.Context, data *telemetryData) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, insertTelemetrySQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	_, err = stmt.ExecContext(
		ctx,
		data.FlightID.String(),
		data.Timestamp,
		data.Pitch,
		data.Roll,
		data.Yaw,
		data.SpeedX,
		data.SpeedY,
		data.SpeedZ,
		data.AccelX,
		data.AccelY,
		data.AccelZ,
		data.TempLow,
		data.TempHigh,
		data.TimeOfFlight,
		data.Height,
		data.Battery,
		data.Barometer,
		data.MotorTime,
		data.MissionPadID,
		data.Raw,
	)
	if err != nil {
		return fmt.Errorf("inserting telemetry: %w", err)
	}
	return nil
}

func (s *SqliteStore) storeResponse(ctx context.Context, data *responseData) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, insertResponseSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	_, err = stmt.ExecContext(
		ctx,
		data.FlightID.String(),
		data.RequestID.String(),
		data.Timestamp,
		data.Command,
		data.Body,
		data.ElapsedMS,
		data.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting response: %w", err)
	}
	return nil
}

func (s *SqliteStore) storePosition(ctx context.Context, data *positionData) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	_, err = tx.ExecContext(
		ctx,
		insertPositionSQL,
		data.FlightID.String(),
		data.Timestamp,
		data.X,
		data.Y,
		data.Heading,
		data.Confirmed,
		data.Command,
	)
	if err != nil {
		return fmt.Errorf("inserting position: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SqliteStore) Positions(ctx context.Context, flightID uuid.UUID) (positions []record.Position, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectPositionsSQL, flightID.String())
	if err != nil {
		err = fmt.Errorf("querying positions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		p := record.Position{FlightID: flightID}
		if err = rows.Scan(
			&p.Estimate.UpdatedAt,
			&p.Estimate.X,
			&p.Estimate.Y,
			&p.Estimate.Heading,
			&p.Estimate.Confirmed,
			&p.Command,
		); err != nil {
			err = fmt.Errorf("scanning position: %w", err)
			return
		}
		positions = append(positions, p)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating positions: %w", err)
	}
	return
}

func (s *SqliteStore) Summary(ctx context.Context, flightID uuid.UUID) (summary *Summary, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	var sum Summary
	if err = db.QueryRowContext(ctx, selectSummarySQL, flightID.String()).Scan(
		&sum.Telemetry,
		&sum.Responses,
		&sum.Failed,
		&sum.MinBattery,
		&sum.MaxHeight,
		&sum.LastSeen,
	); err != nil {
		err = fmt.Errorf("scanning summary: %w", err)
		return
	}

	return &sum, nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
