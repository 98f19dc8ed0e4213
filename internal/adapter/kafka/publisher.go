// Package kafka mirrors the unified record stream to a Kafka topic so other
// consumers can follow collection runs without reading the flat files.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"weather-mapreduce/internal/domain"
)

// Publisher produces unified stream records to a Kafka topic. It implements
// extract.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a producer for the stream topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes and produces the records in a single WriteMessages call.
// Messages are keyed by location so one city's days stay in partition order.
func (p *Publisher) Publish(ctx context.Context, records []domain.WeatherRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish unified records: %w", err)
	}
	p.logger.Debug("published unified records", "count", len(records))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a weather record into a Kafka message.
func serializeToMessage(rec domain.WeatherRecord) (kafkago.Message, error) {
	data, err := domain.EncodeRecordLine(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize weather record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.LocationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "record_date", Value: []byte(rec.Date)},
			{Key: "published_at", Value: []byte(domain.Now().UTC().Format(time.RFC3339))},
		},
	}, nil
}
