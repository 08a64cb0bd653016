package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/septivank/eb-billing/internal/anomaly"
	"github.com/septivank/eb-billing/internal/db"
	"github.com/septivank/eb-billing/internal/logging"
	"github.com/septivank/eb-billing/internal/mq"
	"github.com/septivank/eb-billing/internal/repository"
	"github.com/septivank/eb-billing/tools/timeparser"
	"go.uber.org/zap"
)

// Rate is the price charged per kWh
const Rate = 5.0

// TopConsumerCount is how many clients Analyze ranks
const TopConsumerCount = 5

// Number of earlier bills the anomaly detector compares against
const anomalyHistory = 10

var (
	// ErrInsufficientData is returned when a period has fewer than two readings
	ErrInsufficientData = errors.New("not enough readings to generate bill")
	// ErrNoBillingData is returned by Analyze when no bills exist
	ErrNoBillingData = errors.New("no billing data to analyze")
)

// BillPublisher announces generated bills
type BillPublisher interface {
	PublishBillGenerated(ctx context.Context, event mq.BillGeneratedEvent) error
}

// NopPublisher discards events; used when no broker is configured
type NopPublisher struct{}

// PublishBillGenerated implements BillPublisher
func (NopPublisher) PublishBillGenerated(context.Context, mq.BillGeneratedEvent) error { return nil }

// ConsumerTotal is a client's summed billed units
type ConsumerTotal struct {
	Name  string
	Units float64
}

// Analysis summarises all bills
type Analysis struct {
	BillCount    int
	TotalUnits   float64
	TotalAmount  float64
	AvgUnits     float64
	MaxUnits     float64
	TopConsumers []ConsumerTotal
}

// BillingService generates bills and reports on them
type BillingService struct {
	store     repository.Store
	detector  *anomaly.Detector
	publisher BillPublisher
	logger    *zap.Logger
}

// NewBillingService creates a new billing service
func NewBillingService(
	store repository.Store,
	detector *anomaly.Detector,
	publisher BillPublisher,
	logger *zap.Logger,
) *BillingService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &BillingService{
		store:     store,
		detector:  detector,
		publisher: publisher,
		logger:    logger,
	}
}

// GenerateBill bills the consumption between the first and last reading dated within [start, end]
func (s *BillingService) GenerateBill(ctx context.Context, clientID int64, start, end time.Time) (*db.Bill, error) {
	logger := logging.FromContext(ctx, s.logger).With(zap.Int64("client_id", clientID))

	readings, err := s.store.ReadingsForPeriod(ctx, clientID, start, end)
	if err != nil {
		logger.Error("failed to load readings for bill", zap.Error(err))
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}

	if len(readings) < 2 {
		return nil, fmt.Errorf("%w: found %d for client %d between %s and %s",
			ErrInsufficientData, len(readings), clientID, timeparser.FormatDate(start), timeparser.FormatDate(end))
	}

	first, last := readings[0], readings[len(readings)-1]
	units := round2(last.Value - first.Value)

	bill := &db.Bill{
		ClientID:  clientID,
		StartDate: timeparser.TruncateToDate(start),
		EndDate:   timeparser.TruncateToDate(end),
		Units:     units,
		Amount:    round2(units * Rate),
		Status:    db.BillStatusUnpaid,
	}

	// Fetched before the insert so the new bill is not part of its own history
	previous, histErr := s.store.BillUnitsForClient(ctx, clientID, anomalyHistory)
	if histErr != nil {
		logger.Warn("failed to get previous bills for anomaly detection", zap.Error(histErr))
	}

	id, err := s.store.InsertBill(ctx, bill)
	if err != nil {
		logger.Error("failed to store bill", zap.Error(err))
		return nil, fmt.Errorf("failed to store bill: %w", err)
	}
	bill.ID = id

	logger.Info("bill generated",
		zap.Int64("bill_id", id),
		zap.Float64("units", bill.Units),
		zap.Float64("amount", bill.Amount),
		zap.Int("readings_used", len(readings)),
	)

	if s.detector != nil && histErr == nil {
		if isAnomaly, reason := s.detector.DetectAnomaly(bill.Units, previous); isAnomaly {
			logger.Warn("unusual consumption on bill",
				zap.Int64("bill_id", id),
				zap.String("reason", reason),
			)
		}
	}

	event := mq.BillGeneratedEvent{
		EventID:   uuid.NewString(),
		BillID:    bill.ID,
		ClientID:  bill.ClientID,
		StartDate: timeparser.FormatDate(bill.StartDate),
		EndDate:   timeparser.FormatDate(bill.EndDate),
		Units:     bill.Units,
		Rate:      Rate,
		Amount:    bill.Amount,
		Status:    bill.Status,
	}
	if err := s.publisher.PublishBillGenerated(ctx, event); err != nil {
		// Log error but keep the stored bill
		logger.Error("failed to publish bill event", zap.Error(err), zap.Int64("bill_id", id))
	}

	return bill, nil
}

// ListBills returns bills with client names in creation order
func (s *BillingService) ListBills(ctx context.Context) ([]db.BillRow, error) {
	return s.store.ListBills(ctx)
}

// Analyze computes totals over all bills and ranks the heaviest consumers by name
func (s *BillingService) Analyze(ctx context.Context) (*Analysis, error) {
	bills, err := s.store.ListBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bills: %w", err)
	}
	if len(bills) == 0 {
		return nil, ErrNoBillingData
	}

	analysis := &Analysis{
		BillCount: len(bills),
		MaxUnits:  bills[0].Units,
	}
	perName := make(map[string]float64)

	for _, b := range bills {
		analysis.TotalUnits += b.Units
		analysis.TotalAmount += b.Amount
		if b.Units > analysis.MaxUnits {
			analysis.MaxUnits = b.Units
		}
		perName[b.ClientName] += b.Units
	}
	analysis.AvgUnits = analysis.TotalUnits / float64(len(bills))
	analysis.TopConsumers = topConsumers(perName, TopConsumerCount)

	return analysis, nil
}

// topConsumers orders groups by name, then stably by units descending, and keeps n
func topConsumers(perName map[string]float64, n int) []ConsumerTotal {
	totals := make([]ConsumerTotal, 0, len(perName))
	for name, units := range perName {
		totals = append(totals, ConsumerTotal{Name: name, Units: units})
	}

	sort.Slice(totals, func(i, j int) bool { return totals[i].Name < totals[j].Name })
	sort.SliceStable(totals, func(i, j int) bool { return totals[i].Units > totals[j].Units })

	if len(totals) > n {
		totals = totals[:n]
	}
	return totals
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
