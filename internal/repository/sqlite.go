package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/septivank/eb-billing/internal/db"
	"github.com/septivank/eb-billing/tools/timeparser"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const unpaddedDateLayout = "2006-1-2"

// SQLiteRepository handles database operations against a local SQLite file.
// Dates are written as YYYY-MM-DD text. Files written by older versions may
// hold unpadded dates such as 2025-1-15, so dates are compared after parsing
// rather than as text.
type SQLiteRepository struct {
	conn   *sql.DB
	logger *zap.Logger
}

// NewSQLiteRepository creates a new SQLite-backed store
func NewSQLiteRepository(conn *sql.DB, logger *zap.Logger) *SQLiteRepository {
	return &SQLiteRepository{conn: conn, logger: logger}
}

// CreateSchema creates the tables inside one transaction
func (r *SQLiteRepository) CreateSchema(ctx context.Context) error {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range sqliteSchema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}

// InsertClient inserts a client and returns its id
func (r *SQLiteRepository) InsertClient(ctx context.Context, client *db.Client) (int64, error) {
	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO clients (name, meter_no, address, phone) VALUES (?, ?, ?, ?)`,
		client.Name, client.MeterNo, client.Address, client.Phone,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return 0, fmt.Errorf("meter number %q: %w", client.MeterNo, db.ErrConflict)
		}
		return 0, fmt.Errorf("failed to insert client: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read client id: %w", err)
	}
	return id, nil
}

// ListClients returns all clients ordered by id
func (r *SQLiteRepository) ListClients(ctx context.Context) ([]db.Client, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT id, name, meter_no, address, phone FROM clients ORDER BY id`)
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
func (r *SQLiteRepository) GetClient(ctx context.Context, id int64) (*db.Client, error) {
	var c db.Client
	err := r.conn.QueryRowContext(ctx,
		`SELECT id, name, meter_no, address, phone FROM clients WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.MeterNo, &c.Address, &c.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("client %d: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query client: %w", err)
	}

	return &c, nil
}

// DeleteClient deletes the client row
func (r *SQLiteRepository) DeleteClient(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("client %d: %w", id, db.ErrNotFound)
	}
	return nil
}

// InsertReading inserts a meter reading
func (r *SQLiteRepository) InsertReading(ctx context.Context, reading *db.Reading) (int64, error) {
	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO readings (client_id, date, reading) VALUES (?, ?, ?)`,
		reading.ClientID, timeparser.FormatDate(reading.Date), reading.Value,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert meter reading: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read reading id: %w", err)
	}
	return id, nil
}

// ListReadings returns readings joined with client names, by date
func (r *SQLiteRepository) ListReadings(ctx context.Context) ([]db.ReadingRow, error) {
	query := `
		SELECT r.id, r.client_id, c.name, r.date, r.reading
		FROM readings r
		JOIN clients c ON r.client_id = c.id
		ORDER BY r.id
	`

	rows, err := r.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	readings := []db.ReadingRow{}
	for rows.Next() {
		var (
			row  db.ReadingRow
			date string
		)
		if err := rows.Scan(&row.ID, &row.ClientID, &row.ClientName, &date, &row.Value); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		row.Date = r.storedDate(date, "readings.date", row.ID)
		readings = append(readings, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	// Rows arrive in id order; the stable sort keeps it for equal dates
	sort.SliceStable(readings, func(i, j int) bool { return readings[i].Date.Before(readings[j].Date) })

	return readings, nil
}

// ReadingsForPeriod gets the readings a bill is computed from
func (r *SQLiteRepository) ReadingsForPeriod(ctx context.Context, clientID int64, start, end time.Time) ([]db.Reading, error) {
	query := `
		SELECT id, client_id, date, reading
		FROM readings
		WHERE client_id = ?
		ORDER BY id ASC
	`

	start, end = toDate(start), toDate(end)

	rows, err := r.conn.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query period readings: %w", err)
	}
	defer rows.Close()

	var readings []db.Reading
	for rows.Next() {
		var (
			reading db.Reading
			date    string
		)
		if err := rows.Scan(&reading.ID, &reading.ClientID, &date, &reading.Value); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		reading.Date = r.storedDate(date, "readings.date", reading.ID)
		if reading.Date.Before(start) || reading.Date.After(end) {
			continue
		}
		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	sort.SliceStable(readings, func(i, j int) bool { return readings[i].Date.Before(readings[j].Date) })

	return readings, nil
}

// InsertBill inserts a bill and returns its id
func (r *SQLiteRepository) InsertBill(ctx context.Context, bill *db.Bill) (int64, error) {
	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO bills (client_id, start_date, end_date, units, amount, status) VALUES (?, ?, ?, ?, ?, ?)`,
		bill.ClientID,
		timeparser.FormatDate(bill.StartDate),
		timeparser.FormatDate(bill.EndDate),
		bill.Units,
		bill.Amount,
		bill.Status,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert bill: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read bill id: %w", err)
	}
	return id, nil
}

// ListBills returns bills joined with client names, in insertion order
func (r *SQLiteRepository) ListBills(ctx context.Context) ([]db.BillRow, error) {
	query := `
		SELECT b.id, b.client_id, c.name, b.start_date, b.end_date, b.units, b.amount, b.status
		FROM bills b
		JOIN clients c ON b.client_id = c.id
		ORDER BY b.id
	`

	rows, err := r.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	bills := []db.BillRow{}
	for rows.Next() {
		var (
			row        db.BillRow
			start, end string
		)
		if err := rows.Scan(
			&row.ID,
			&row.ClientID,
			&row.ClientName,
			&start,
			&end,
			&row.Units,
			&row.Amount,
			&row.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		row.StartDate = r.storedDate(start, "bills.start_date", row.ID)
		row.EndDate = r.storedDate(end, "bills.end_date", row.ID)
		bills = append(bills, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return bills, nil
}

// BillUnitsForClient gets recent billed units for anomaly detection
func (r *SQLiteRepository) BillUnitsForClient(ctx context.Context, clientID int64, limit int) ([]float64, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT units FROM bills WHERE client_id = ? ORDER BY id DESC LIMIT ?`,
		clientID, limitOrAll(limit),
	)
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

// storedDate parses a date column. An unreadable value is logged and
// returned as the zero time so one bad row does not hide the others.
func (r *SQLiteRepository) storedDate(value, column string, id int64) time.Time {
	t, err := parseStoredDate(value)
	if err != nil {
		r.logger.Warn("unreadable stored date",
			zap.String("column", column),
			zap.Int64("id", id),
			zap.Error(err),
		)
		return time.Time{}
	}
	return t
}

// parseStoredDate accepts the written YYYY-MM-DD form, the operator input
// layouts and unpadded dates such as 2025-1-15
func parseStoredDate(s string) (time.Time, error) {
	if t, err := time.Parse(timeparser.DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := timeparser.ParseReadingDate(s); err == nil {
		return t, nil
	}
	t, err := time.Parse(unpaddedDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("stored date %q is malformed: %w", s, err)
	}
	return t, nil
}

func isConstraintViolation(err error) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	// Extended codes keep the primary code in the low byte
	return sqlErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
