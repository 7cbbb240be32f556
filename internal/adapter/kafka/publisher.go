// Package kafka publishes scored county results to a Kafka topic for
// downstream dashboards and notification consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/reai-pipeline/internal/config"
	"github.com/couchcryptid/reai-pipeline/internal/domain"
	"github.com/couchcryptid/reai-pipeline/internal/pipeline"
)

// Publisher produces one message per scored county to the results topic.
// It implements pipeline.ResultSink.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured results topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaResultsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Name identifies the sink in logs.
func (p *Publisher) Name() string { return "kafka" }

// WriteRun publishes the baseline result set, one message per county keyed
// by FIPS so consumers get per-county ordering, in a single WriteMessages
// call.
func (p *Publisher) WriteRun(ctx context.Context, out *pipeline.RunOutput) error {
	results := out.Baseline.Results
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeResult(out, results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	p.logger.Info("results published", "run_id", out.RunID, "messages", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeResult marshals one county result into a Kafka message.
func serializeResult(out *pipeline.RunOutput, r domain.ReaiResult) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize result %s: %w", r.FIPS, err)
	}
	return kafkago.Message{
		Key:   []byte(r.FIPS),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(out.RunID)},
			{Key: "config", Value: []byte(out.Baseline.Config)},
			{Key: "generated_at", Value: []byte(out.Baseline.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
