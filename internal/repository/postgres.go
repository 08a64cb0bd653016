package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/septivank/eb-billing/internal/db"
)

const pgUniqueViolation = "23505"

// PostgresRepository handles database operations against PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL-backed store
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// CreateSchema creates the tables inside one transaction
func (r *PostgresRepository) CreateSchema(ctx context.Context) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range postgresSchema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}

// InsertClient inserts a client and returns its id
func (r *PostgresRepository) InsertClient(ctx context.Context, client *db.Client) (int64, error) {
	query := `
		INSERT INTO clients (name, meter_no, address, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query, client.Name, client.MeterNo, client.Address, client.Phone).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, fmt.Errorf("meter number %q: %w", client.MeterNo, db.ErrConflict)
		}
		return 0, fmt.Errorf("failed to insert client: %w", err)
	}

	return id, nil
}

// ListClients returns all clients ordered by id
func (r *PostgresRepository) ListClients(ctx context.Context) ([]db.Client, error) {
	query := `
		SELECT id, name, meter_no, address, phone
		FROM clients
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	clients := []db.Client{}
	for rows.Next() {
		var c db.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.MeterNo, &c.Address, &c.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return clients, nil
}

// GetClient fetches a single client
func (r *PostgresRepository) GetClient(ctx context.Context, id int64) (*db.Client, error) {
	query := `
		SELECT id, name, meter_no, address, phone
		FROM clients
		WHERE id = $1
	`

	var c db.Client
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.MeterNo, &c.Address, &c.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("client %d: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query client: %w", err)
	}

	return &c, nil
}

// DeleteClient deletes the client row
func (r *PostgresRepository) DeleteClient(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %d: %w", id, db.ErrNotFound)
	}
	return nil
}

// InsertReading inserts a meter reading
func (r *PostgresRepository) InsertReading(ctx context.Context, reading *db.Reading) (int64, error) {
	query := `
		INSERT INTO readings (client_id, date, reading)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query, reading.ClientID, toDate(reading.Date), reading.Value).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert meter reading: %w", err)
	}

	return id, nil
}

// ListReadings returns readings joined with client names, by date
func (r *PostgresRepository) ListReadings(ctx context.Context) ([]db.ReadingRow, error) {
	query := `
		SELECT r.id, r.client_id, c.name, r.date, r.reading
		FROM readings r
		JOIN clients c ON r.client_id = c.id
		ORDER BY r.date, r.id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	readings := []db.ReadingRow{}
	for rows.Next() {
		var row db.ReadingRow
		if err := rows.Scan(&row.ID, &row.ClientID, &row.ClientName, &row.Date, &row.Value); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		row.Date = toDate(row.Date)
		readings = append(readings, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return readings, nil
}

// ReadingsForPeriod gets the readings a bill is computed from
func (r *PostgresRepository) ReadingsForPeriod(ctx context.Context, clientID int64, start, end time.Time) ([]db.Reading, error) {
	query := `
		SELECT id, client_id, date, reading
		FROM readings
		WHERE client_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, clientID, toDate(start), toDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query period readings: %w", err)
	}
	defer rows.Close()

	var readings []db.Reading
	for rows.Next() {
		var reading db.Reading
		if err := rows.Scan(&reading.ID, &reading.ClientID, &reading.Date, &reading.Value); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		reading.Date = toDate(reading.Date)
		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return readings, nil
}

// InsertBill inserts a bill and returns its id
func (r *PostgresRepository) InsertBill(ctx context.Context, bill *db.Bill) (int64, error) {
	query := `
		INSERT INTO bills (client_id, start_date, end_date, units, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		bill.ClientID,
		toDate(bill.StartDate),
		toDate(bill.EndDate),
		bill.Units,
		bill.Amount,
		bill.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert bill: %w", err)
	}

	return id, nil
}

// ListBills returns bills joined with client names, in insertion order
func (r *PostgresRepository) ListBills(ctx context.Context) ([]db.BillRow, error) {
	query := `
		SELECT b.id, b.client_id, c.name, b.start_date, b.end_date, b.units, b.amount, b.status
		FROM bills b
		JOIN clients c ON b.client_id = c.id
		ORDER BY b.id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	bills := []db.BillRow{}
	for rows.Next() {
		var row db.BillRow
		if err := rows.Scan(
			&row.ID,
			&row.ClientID,
			&row.ClientName,
			&row.StartDate,
			&row.EndDate,
			&row.Units,
			&row.Amount,
			&row.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		row.StartDate = toDate(row.StartDate)
		row.EndDate = toDate(row.EndDate)
		bills = append(bills, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return bills, nil
}

// BillUnitsForClient gets recent billed units for anomaly detection
func (r *PostgresRepository) BillUnitsForClient(ctx context.Context, clientID int64, limit int) ([]float64, error) {
	query := `
		SELECT units
		FROM bills
		WHERE client_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, clientID, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query bill units: %w", err)
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var value float64
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return values, nil
}
