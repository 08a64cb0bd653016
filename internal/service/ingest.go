package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/septivank/eb-billing/internal/logging"
	"github.com/septivank/eb-billing/internal/validator"
	"go.uber.org/zap"
)

// ReadingMessage is a meter reading delivered on the ingest queue.
// Value may be a JSON number or a numeric string.
type ReadingMessage struct {
	RequestID string          `json:"request_id"`
	ClientID  int64           `json:"client_id"`
	Date      string          `json:"date"`
	Value     json.RawMessage `json:"value"`
}

// IngestService stores readings received from the message queue
type IngestService struct {
	records *RecordService
	logger  *zap.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(records *RecordService, logger *zap.Logger) *IngestService {
	return &IngestService{
		records: records,
		logger:  logger,
	}
}

// ProcessMessage parses a reading message and stores it.
// Any returned error dead-letters the message.
func (s *IngestService) ProcessMessage(ctx context.Context, body []byte) error {
	var msg ReadingMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	if msg.RequestID == "" {
		msg.RequestID = uuid.NewString()
	}
	reqLogger := logging.WithRequestID(s.logger, msg.RequestID)
	reqLogger.Info("processing reading message",
		zap.Int64("client_id", msg.ClientID),
		zap.String("date", msg.Date),
	)

	date, err := validator.ParseDate(msg.Date)
	if err != nil {
		reqLogger.Warn("rejected reading", zap.Error(err))
		return err
	}

	value, err := validator.ParseReadingValue(strings.Trim(string(msg.Value), `"`))
	if err != nil {
		reqLogger.Warn("rejected reading", zap.Error(err))
		return err
	}

	ctx = logging.WithOperationID(ctx, msg.RequestID)
	if _, err := s.records.AddReading(ctx, msg.ClientID, date, value); err != nil {
		return err
	}

	return nil
}
