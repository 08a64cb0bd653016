package console

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/septivank/eb-billing/internal/anomaly"
	"github.com/septivank/eb-billing/internal/db"
	"github.com/septivank/eb-billing/internal/repository"
	"github.com/septivank/eb-billing/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runMenu(t *testing.T, lines ...string) string {
	t.Helper()

	conn, err := db.OpenSQLiteFile(filepath.Join(t.TempDir(), "eb_system.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	logger := zap.NewNop()
	store := repository.NewSQLiteRepository(conn, logger)
	require.NoError(t, store.CreateSchema(context.Background()))

	records := service.NewRecordService(store, logger)
	billing := service.NewBillingService(store, anomaly.NewDetector(3.0, 3), service.NopPublisher{}, logger)

	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer

	menu := NewMenu(records, billing, in, &out, logger)
	require.NoError(t, menu.Run(context.Background()))
	return out.String()
}

func TestMenu_ExitAndInvalidChoice(t *testing.T) {
	out := runMenu(t, "9", "0")

	assert.Contains(t, out, "===== ELECTRICITY BOARD MANAGEMENT SYSTEM =====")
	assert.Contains(t, out, "Invalid choice. Try again!")
	assert.Contains(t, out, "Thank you for using the system!")
}

func TestMenu_EndOfInputExits(t *testing.T) {
	out := runMenu(t, "2")

	assert.Contains(t, out, "No clients found.")
	assert.NotContains(t, out, "Thank you for using the system!")
}

func TestMenu_AddAndViewClients(t *testing.T) {
	out := runMenu(t,
		"1", "Asha", "MTR-1", "1 Main Street", "9876543210",
		"2",
		"0",
	)

	assert.Contains(t, out, "Client added successfully! (ID 1)")
	assert.Contains(t, out, "--- CLIENT LIST ---")
	assert.Contains(t, out, "Asha")
	assert.Contains(t, out, "MTR-1")
	assert.Contains(t, out, "9876543210")
}

func TestMenu_ErrorsKeepTheLoopRunning(t *testing.T) {
	out := runMenu(t,
		"1", "Asha", "MTR-1", "1 Main Street", "12345",
		"1", "Asha", "MTR-1", "1 Main Street", "9876543210",
		"1", "Ravi", "MTR-1", "2 Main Street", "9876543211",
		"3", "42",
		"3", "abc",
		"6", "1", "2025-01-01", "2025-01-31",
		"8",
		"0",
	)

	assert.Contains(t, out, "Invalid phone number! Please enter exactly 10 digits.")
	assert.Contains(t, out, "Meter number already exists! Try a different one.")
	assert.Contains(t, out, "No client found with that ID.")
	assert.Contains(t, out, "Invalid input:")
	assert.Contains(t, out, "Not enough readings to generate bill.")
	assert.Contains(t, out, "No billing data to analyze.")
	assert.Contains(t, out, "Thank you for using the system!")
}

func TestMenu_RemoveClientAsksForConfirmation(t *testing.T) {
	out := runMenu(t,
		"1", "Asha", "MTR-1", "1 Main Street", "9876543210",
		"3", "1", "n",
		"3", "1", "y",
		"2",
		"0",
	)

	assert.Contains(t, out, "Are you sure you want to delete client 'Asha'? (y/n): ")
	assert.Contains(t, out, "Deletion cancelled.")
	assert.Contains(t, out, "Client removed successfully!")
	assert.Contains(t, out, "No clients found.")
}

func TestMenu_BillingFlow(t *testing.T) {
	out := runMenu(t,
		"1", "A", "MTR-A", "1 Main Street", "9876543210",
		"1", "B", "MTR-B", "2 Main Street", "9876543211",
		"4", "1", "2025-01-01", "100",
		"4", "1", "2025-01-31", "110",
		"4", "2", "2025-01-01", "0",
		"4", "2", "2025-01-31", "20",
		"5",
		"6", "1", "2025-01-01", "2025-01-31",
		"6", "2", "2025-01-01", "2025-01-31",
		"7",
		"8",
		"0",
	)

	assert.Contains(t, out, "Reading added successfully!")
	assert.Contains(t, out, "--- METER READINGS ---")
	assert.Contains(t, out, "2025-01-31")
	assert.Contains(t, out, "Bill generated successfully!")
	assert.Contains(t, out, "Units: 10.00")
	assert.Contains(t, out, "Rate: 5.00")
	assert.Contains(t, out, "Amount: 50.00")
	assert.Contains(t, out, "Status: Unpaid")
	assert.Contains(t, out, "--- BILL DETAILS ---")

	assert.Contains(t, out, "Total Units Consumed: 30.00 kWh")
	assert.Contains(t, out, "Total Revenue Collected: 150.00")
	assert.Contains(t, out, "Average Units per Bill: 15.00")
	assert.Contains(t, out, "Highest Consumption in a Bill: 20.00 kWh")
	assert.Contains(t, out, "--- Top 5 Consumers (Name, Units) ---")

	top := out[strings.Index(out, "--- Top 5 Consumers"):]
	assert.Less(t, strings.Index(top, "B → 20.00 kWh"), strings.Index(top, "A → 10.00 kWh"))
}

func TestMenu_OversizedLineIsRejected(t *testing.T) {
	long := strings.Repeat("x", 70000)

	out := runMenu(t,
		long,
		"1", long, "MTR-1", "1 Main Street", "9876543210",
		"2",
		"0",
	)

	assert.Contains(t, out, "Invalid input:")
	assert.NotContains(t, out, "Client added successfully!")
	assert.Contains(t, out, "No clients found.")
	assert.Contains(t, out, "Thank you for using the system!")
}

func TestMenu_LastLineWithoutNewline(t *testing.T) {
	conn, err := db.OpenSQLiteFile(filepath.Join(t.TempDir(), "eb_system.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	logger := zap.NewNop()
	store := repository.NewSQLiteRepository(conn, logger)
	require.NoError(t, store.CreateSchema(context.Background()))

	var out bytes.Buffer
	menu := NewMenu(
		service.NewRecordService(store, logger),
		service.NewBillingService(store, nil, nil, logger),
		strings.NewReader("0"),
		&out,
		logger,
	)
	require.NoError(t, menu.Run(context.Background()))
	assert.Contains(t, out.String(), "Thank you for using the system!")
}
