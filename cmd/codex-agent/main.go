package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"

	"byebug-backend/internal/byebug-api/db"
	"byebug-backend/internal/byebug-api/events"
	"byebug-backend/internal/codex-agent/executors"
)

const (
	DefaultKafkaBrokers = "localhost:9092"
	DefaultLaunchTopic  = "codex_launch_requests"
	DefaultGroupID      = "codex-agent-group"
	DefaultResultTopic  = "codex_run_results"
)

func main() {
	log.Println("Starting Codex Agent...")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, relying on process environment.")
	}

	executorType := os.Getenv("AGENT_EXECUTOR")
	if executorType == "" {
		executorType = executors.ExecutorTypeBrowser
	}
	executor, err := executors.GetExecutor(executorType)
	if err != nil {
		log.Fatalf("Codex Agent: %v", err)
	}
	log.Printf("Codex Agent using executor type: %s", executorType)

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		kafkaBrokers = DefaultKafkaBrokers
	}
	launchTopic := os.Getenv("CODEX_LAUNCH_TOPIC")
	if launchTopic == "" {
		launchTopic = DefaultLaunchTopic
	}
	groupID := os.Getenv("AGENT_GROUP_ID")
	if groupID == "" {
		groupID = DefaultGroupID
	}
	resultTopic := os.Getenv("CODEX_RESULT_TOPIC")
	if resultTopic == "" {
		resultTopic = DefaultResultTopic
	}
	brokerList := strings.Split(kafkaBrokers, ",")

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokerList, GroupID: groupID, Topic: launchTopic,
		MinBytes: 10e3, MaxBytes: 10e6, CommitInterval: time.Second, MaxWait: 3 * time.Second,
	})
	defer reader.Close()
	producer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokerList, Topic: resultTopic, Balancer: &kafka.LeastBytes{},
		RequiredAcks: int(kafka.RequireOne),
		Async:        false,
	})
	defer producer.Close()
	log.Printf("Codex Agent consumer configured for brokers: %s, topic: %s, groupID: %s", kafkaBrokers, launchTopic, groupID)
	log.Printf("Codex Agent producer configured for results topic: %s", resultTopic)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := <-signals
		log.Printf("Codex Agent: shutdown signal received (%s). Cancelling context...", sig)
		cancel()
	}()

	log.Println("Codex Agent listening for launch events...")
	for {
		select {
		case <-ctx.Done():
			log.Println("Codex Agent: context cancelled. Exiting message loop.")
			return
		default:
			readCtx, readLoopCancel := context.WithTimeout(ctx, 1*time.Second)
			m, err := reader.ReadMessage(readCtx)
			readLoopCancel()
			if err == context.DeadlineExceeded {
				continue
			}
			if err == context.Canceled {
				log.Println("Codex Agent: read context cancelled, likely due to shutdown.")
				continue
			}
			if err == io.EOF {
				log.Println("Codex Agent: Kafka reader closed (EOF). Exiting.")
				return
			}
			if err != nil {
				log.Printf("Codex Agent: Kafka read error: %v. Retrying...", err)
				time.Sleep(1 * time.Second)
				continue
			}
			log.Printf("Codex Agent: received launch event: topic %s, partition %d, offset %d", m.Topic, m.Partition, m.Offset)

			var launch events.CodexLaunchPayload
			if err := json.Unmarshal(m.Value, &launch); err != nil {
				log.Printf("Codex Agent: unmarshal error for launch payload: %v. Value: %s", err, string(m.Value))
				continue
			}
			if launch.TaskID == "" || launch.CodexURL == "" {
				log.Printf("Codex Agent: dropping launch event without task id or codex URL: %s", string(m.Value))
				continue
			}

			payload := executors.RunPayload{
				RunID:     uuid.NewString(),
				TaskID:    launch.TaskID,
				CodexURL:  launch.CodexURL,
				Prompt:    launch.Prompt,
				RepoLabel: launch.RepoLabel,
			}
			go func(p executors.RunPayload) {
				detail, execErr := executor.Execute(p)
				result := events.CodexRunResultPayload{TaskID: p.TaskID, RunID: p.RunID}
				if execErr != nil {
					log.Printf("Codex Agent: run %s for task %s failed: %v", p.RunID, p.TaskID, execErr)
					result.Status = db.StatusFailed
					result.Detail = execErr.Error()
				} else {
					log.Printf("Codex Agent: run %s for task %s completed.", p.RunID, p.TaskID)
					result.Status = db.StatusFixed
					result.Detail = strings.TrimSpace(detail)
				}
				sendRunResult(context.Background(), producer, result)
			}(payload)
		}
	}
}

func sendRunResult(ctx context.Context, producer *kafka.Writer, result events.CodexRunResultPayload) {
	payloadBytes, err := json.Marshal(result)
	if err != nil {
		log.Printf("Codex Agent: error marshalling result payload for task %s: %v", result.TaskID, err)
		return
	}
	msg := kafka.Message{Key: []byte(result.TaskID), Value: payloadBytes}
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := producer.WriteMessages(writeCtx, msg); err != nil {
		log.Printf("Codex Agent: error publishing run result for task %s: %v", result.TaskID, err)
		return
	}
	log.Printf("Codex Agent: published %s result for task %s (run %s)", result.Status, result.TaskID, result.RunID)
}
