package service

import (
	"context"
	"testing"

	"github.com/septivank/eb-billing/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIngestProcessMessage(t *testing.T) {
	f := newFixture(t)
	ingest := NewIngestService(f.records, zap.NewNop())
	ctx := context.Background()

	id := f.client(t, "Asha", "MTR-1")

	require.NoError(t, ingest.ProcessMessage(ctx, []byte(`{"request_id":"r-1","client_id":1,"date":"2025-01-01","value":100}`)))
	require.NoError(t, ingest.ProcessMessage(ctx, []byte(`{"client_id":1,"date":"31/01/2025","value":"135.5"}`)))

	readings, err := f.records.ListReadings(ctx)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, id, readings[0].ClientID)
	assert.Equal(t, date(2025, 1, 1), readings[0].Date)
	assert.Equal(t, 100.0, readings[0].Value)
	assert.Equal(t, date(2025, 1, 31), readings[1].Date)
	assert.Equal(t, 135.5, readings[1].Value)
}

func TestIngestProcessMessage_Rejects(t *testing.T) {
	f := newFixture(t)
	ingest := NewIngestService(f.records, zap.NewNop())
	ctx := context.Background()

	assert.Error(t, ingest.ProcessMessage(ctx, []byte(`not json`)))
	assert.ErrorIs(t, ingest.ProcessMessage(ctx, []byte(`{"client_id":1,"date":"2025-01-01","value":"lots"}`)), validator.ErrInputFormat)
	assert.ErrorIs(t, ingest.ProcessMessage(ctx, []byte(`{"client_id":1,"date":"yesterday","value":1}`)), validator.ErrInputFormat)
	assert.ErrorIs(t, ingest.ProcessMessage(ctx, []byte(`{"client_id":1,"date":"2025-01-01"}`)), validator.ErrInputFormat)
	assert.ErrorIs(t, ingest.ProcessMessage(ctx, []byte(`{"client_id":1,"date":"2025-01-01","value":[100]}`)), validator.ErrInputFormat)
	assert.ErrorIs(t, ingest.ProcessMessage(ctx, []byte(`{"client_id":1,"date":"2025-01-01","value":"0x1p4"}`)), validator.ErrInputFormat)

	readings, err := f.store.ReadingsForPeriod(ctx, 1, date(2000, 1, 1), date(2100, 1, 1))
	require.NoError(t, err)
	assert.Empty(t, readings)
}
