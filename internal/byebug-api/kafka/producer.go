package kafka

import (
	"log"
	"os"
	"strings"

	"github.com/segmentio/kafka-go"
)

const (
	DefaultKafkaBrokers     = "localhost:9092"
	DefaultCodexLaunchTopic = "codex_launch_requests"
)

// NewLaunchProducer builds the writer for codex launch events.
func NewLaunchProducer() *kafka.Writer {
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		kafkaBrokers = DefaultKafkaBrokers
	}
	launchTopic := os.Getenv("CODEX_LAUNCH_TOPIC")
	if launchTopic == "" {
		launchTopic = DefaultCodexLaunchTopic
	}
	brokerList := strings.Split(kafkaBrokers, ",")
	producer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokerList,
		Topic:        launchTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: int(kafka.RequireOne),
		Async:        false,
	})
	log.Printf("Codex launch producer configured for topic: %s", launchTopic)
	return producer
}
