package db

import (
	"errors"
	"time"
)

// BillStatusUnpaid is the status every bill is created with
const BillStatusUnpaid = "Unpaid"

var (
	// ErrConflict is returned when a unique column already holds the value
	ErrConflict = errors.New("record already exists")
	// ErrNotFound is returned when no row matches the requested id
	ErrNotFound = errors.New("record not found")
)

// Client represents a billed customer
type Client struct {
	ID      int64
	Name    string
	MeterNo string
	Address string
	Phone   string
}

// Reading represents a meter reading in kWh on a calendar date
type Reading struct {
	ID       int64
	ClientID int64
	Date     time.Time
	Value    float64
}

// ReadingRow is a reading joined with its client's name
type ReadingRow struct {
	Reading
	ClientName string
}

// Bill represents a computed consumption charge for a period
type Bill struct {
	ID        int64
	ClientID  int64
	StartDate time.Time
	EndDate   time.Time
	Units     float64
	Amount    float64
	Status    string
}

// BillRow is a bill joined with its client's name
type BillRow struct {
	Bill
	ClientName string
}
