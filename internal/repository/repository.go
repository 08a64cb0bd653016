package repository

import (
	"context"
	"math"
	"time"

	"github.com/septivank/eb-billing/internal/db"
)

// Store persists clients, readings and bills.
// Implementations return db.ErrConflict for a duplicate meter number and
// db.ErrNotFound when an id does not exist.
type Store interface {
	// CreateSchema creates the clients, readings and bills tables if they are missing
	CreateSchema(ctx context.Context) error

	InsertClient(ctx context.Context, client *db.Client) (int64, error)
	// ListClients returns clients in insertion order
	ListClients(ctx context.Context) ([]db.Client, error)
	GetClient(ctx context.Context, id int64) (*db.Client, error)
	// DeleteClient removes the client row only; its readings and bills are kept
	DeleteClient(ctx context.Context, id int64) error

	InsertReading(ctx context.Context, reading *db.Reading) (int64, error)
	// ListReadings returns every reading whose client still exists, oldest first
	ListReadings(ctx context.Context) ([]db.ReadingRow, error)
	// ReadingsForPeriod returns the client's readings dated within [start, end], oldest first
	ReadingsForPeriod(ctx context.Context, clientID int64, start, end time.Time) ([]db.Reading, error)

	InsertBill(ctx context.Context, bill *db.Bill) (int64, error)
	// ListBills returns every bill whose client still exists, in insertion order
	ListBills(ctx context.Context) ([]db.BillRow, error)
	// BillUnitsForClient returns the units of the client's bills, most recent first
	BillUnitsForClient(ctx context.Context, clientID int64, limit int) ([]float64, error)
}

// toDate normalises t to the calendar date stored in the date columns
func toDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// limitOrAll maps a non-positive limit to "no limit"
func limitOrAll(limit int) int {
	if limit <= 0 {
		return math.MaxInt32
	}
	return limit
}
