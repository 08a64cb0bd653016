package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/septivank/eb-billing/internal/config"
	"github.com/septivank/eb-billing/internal/mq"
	"github.com/septivank/eb-billing/internal/service"
	"github.com/septivank/eb-billing/internal/validator"
	"github.com/septivank/eb-billing/tools/timeparser"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type readingPublisher struct {
	*mq.Publisher
}

func provideReadingPublisher(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*readingPublisher, error) {
	if !cfg.RabbitMQ.Enabled() {
		return nil, fmt.Errorf("send-reading needs a broker: %w", errBrokerNotConfigured)
	}

	conn, err := mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	publisher, err := mq.NewPublisher(conn, cfg.RabbitMQ.IngestExchange, cfg.RabbitMQ.IngestRoutingKey, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})

	return &readingPublisher{Publisher: publisher}, nil
}

// buildReadingMessage validates operator input and turns it into an ingest message
func buildReadingMessage(clientID int64, date, value string) (service.ReadingMessage, error) {
	d, err := validator.ParseDate(date)
	if err != nil {
		return service.ReadingMessage{}, err
	}
	v, err := validator.ParseReadingValue(value)
	if err != nil {
		return service.ReadingMessage{}, err
	}

	return service.ReadingMessage{
		RequestID: uuid.NewString(),
		ClientID:  clientID,
		Date:      timeparser.FormatDate(d),
		Value:     json.RawMessage(strconv.FormatFloat(v, 'f', -1, 64)),
	}, nil
}

func newSendReadingCmd() *cobra.Command {
	var (
		clientID int64
		date     string
		value    string
	)

	cmd := &cobra.Command{
		Use:   "send-reading",
		Short: "Publish a meter reading to the RabbitMQ ingest exchange",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := buildReadingMessage(clientID, date, value)
			if err != nil {
				return err
			}

			var publisher *readingPublisher
			app := newApp(fx.Provide(provideReadingPublisher), fx.Populate(&publisher))

			return runApp(cmd.Context(), app, func(ctx context.Context) error {
				if err := publisher.PublishJSON(ctx, msg.RequestID, msg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sent reading %s for client %d\n", msg.RequestID, msg.ClientID)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&clientID, "client-id", 0, "client id the reading belongs to")
	cmd.Flags().StringVar(&date, "date", timeparser.FormatDate(time.Now()), "reading date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&value, "value", "", "meter reading in kWh")
	_ = cmd.MarkFlagRequired("client-id")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}
