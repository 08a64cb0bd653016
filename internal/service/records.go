package service

import (
	"context"
	"fmt"
	"time"

	"github.com/septivank/eb-billing/internal/db"
	"github.com/septivank/eb-billing/internal/logging"
	"github.com/septivank/eb-billing/internal/repository"
	"github.com/septivank/eb-billing/internal/validator"
	"go.uber.org/zap"
)

// ConfirmFunc is asked before a client is deleted; returning false cancels the deletion.
// An error aborts the removal and is returned as is.
type ConfirmFunc func(client db.Client) (bool, error)

// RecordService registers clients and records meter readings
type RecordService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewRecordService creates a new record service
func NewRecordService(store repository.Store, logger *zap.Logger) *RecordService {
	return &RecordService{
		store:  store,
		logger: logger,
	}
}

// RegisterClient validates the phone number and stores a new client, returning its id
func (s *RecordService) RegisterClient(ctx context.Context, name, meterNo, address, phone string) (int64, error) {
	logger := logging.FromContext(ctx, s.logger)

	if err := validator.ValidatePhone(phone); err != nil {
		logger.Info("client rejected", zap.String("meter_no", meterNo), zap.Error(err))
		return 0, err
	}

	id, err := s.store.InsertClient(ctx, &db.Client{
		Name:    name,
		MeterNo: meterNo,
		Address: address,
		Phone:   phone,
	})
	if err != nil {
		logger.Warn("failed to register client", zap.String("meter_no", meterNo), zap.Error(err))
		return 0, err
	}

	logger.Info("client registered", zap.Int64("client_id", id), zap.String("meter_no", meterNo))
	return id, nil
}

// ListClients returns every client in registration order
func (s *RecordService) ListClients(ctx context.Context) ([]db.Client, error) {
	return s.store.ListClients(ctx)
}

// RemoveClient deletes a client after confirm approves it.
// Readings and bills of the client are left untouched.
func (s *RecordService) RemoveClient(ctx context.Context, id int64, confirm ConfirmFunc) (bool, error) {
	logger := logging.FromContext(ctx, s.logger)

	client, err := s.store.GetClient(ctx, id)
	if err != nil {
		return false, err
	}

	if confirm != nil {
		ok, err := confirm(*client)
		if err != nil {
			return false, err
		}
		if !ok {
			logger.Info("client removal cancelled", zap.Int64("client_id", id))
			return false, nil
		}
	}

	if err := s.store.DeleteClient(ctx, id); err != nil {
		logger.Error("failed to remove client", zap.Int64("client_id", id), zap.Error(err))
		return false, err
	}

	logger.Info("client removed", zap.Int64("client_id", id), zap.String("meter_no", client.MeterNo))
	return true, nil
}

// AddReading stores a meter reading. The client id is not checked.
func (s *RecordService) AddReading(ctx context.Context, clientID int64, date time.Time, value float64) (int64, error) {
	logger := logging.FromContext(ctx, s.logger)

	id, err := s.store.InsertReading(ctx, &db.Reading{
		ClientID: clientID,
		Date:     date,
		Value:    value,
	})
	if err != nil {
		logger.Error("failed to add reading", zap.Int64("client_id", clientID), zap.Error(err))
		return 0, fmt.Errorf("failed to add reading: %w", err)
	}

	logger.Info("reading added",
		zap.Int64("reading_id", id),
		zap.Int64("client_id", clientID),
		zap.Time("date", date),
		zap.Float64("value", value),
	)
	return id, nil
}

// ListReadings returns readings with client names, oldest first
func (s *RecordService) ListReadings(ctx context.Context) ([]db.ReadingRow, error) {
	return s.store.ListReadings(ctx)
}
