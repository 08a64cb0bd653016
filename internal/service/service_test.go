package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/septivank/eb-billing/internal/anomaly"
	"github.com/septivank/eb-billing/internal/db"
	"github.com/septivank/eb-billing/internal/mq"
	"github.com/septivank/eb-billing/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type capturingPublisher struct {
	events []mq.BillGeneratedEvent
	err    error
}

func (p *capturingPublisher) PublishBillGenerated(ctx context.Context, event mq.BillGeneratedEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type fixture struct {
	store     repository.Store
	records   *RecordService
	billing   *BillingService
	publisher *capturingPublisher
	logs      *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.OpenSQLiteFile(filepath.Join(t.TempDir(), "eb_system.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	store := repository.NewSQLiteRepository(conn, logger)
	require.NoError(t, store.CreateSchema(context.Background()))
	publisher := &capturingPublisher{}

	return &fixture{
		store:     store,
		records:   NewRecordService(store, logger),
		billing:   NewBillingService(store, anomaly.NewDetector(3.0, 3), publisher, logger),
		publisher: publisher,
		logs:      logs,
	}
}

func (f *fixture) client(t *testing.T, name, meter string) int64 {
	t.Helper()
	id, err := f.records.RegisterClient(context.Background(), name, meter, "1 Main Street", "9876543210")
	require.NoError(t, err)
	return id
}

func (f *fixture) reading(t *testing.T, clientID int64, d time.Time, value float64) {
	t.Helper()
	_, err := f.records.AddReading(context.Background(), clientID, d, value)
	require.NoError(t, err)
}
