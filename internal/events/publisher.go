package events

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"hodei-authz/internal/logger"
)

const topic = "hodei-authz-mutation-events"

// Publisher wraps a Sarama async producer for mutation events.
type Publisher struct {
	producer sarama.AsyncProducer
}

// NewPublisher creates a new Kafka publisher.
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("creating producer: %w", err)
	}

	p := &Publisher{producer: producer}
	go p.drainResults()
	return p, nil
}

// Publish queues a mutation event. It never returns a send error to the
// caller: a mutation use case must not fail because eventing is degraded,
// per the fire-and-forget design (§9).
func (p *Publisher) Publish(event MutationEvent) {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}

	msg, err := json.Marshal(event)
	if err != nil {
		logger.Error("events: failed to marshal mutation event", err, "type", string(event.Type))
		return
	}

	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.SubjectHRN),
		Value: sarama.ByteEncoder(msg),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(event.Type)},
		},
	}
}

// drainResults logs producer successes/errors so the async channels never
// block the producer once their buffers fill.
func (p *Publisher) drainResults() {
	log := logger.WithComponent("events_publisher")
	for {
		select {
		case succ, ok := <-p.producer.Successes():
			if !ok {
				return
			}
			log.Debug("mutation event published", "topic", succ.Topic)
		case perr, ok := <-p.producer.Errors():
			if !ok {
				return
			}
			log.Warn("mutation event publish failed", "error", perr.Err.Error())
		}
	}
}

// Close shuts down the publisher.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
