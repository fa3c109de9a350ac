package services

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"byebug-backend/internal/byebug-api/db"
	"byebug-backend/internal/byebug-api/events"
	"byebug-backend/internal/byebug-api/store"
)

const (
	DefaultKafkaBrokers  = "localhost:9092"
	DefaultResultTopic   = "codex_run_results"
	DefaultResultGroupID = "byebug-api-results-group"
)

// ResultService consumes codex run outcomes from Kafka and writes them
// back onto tasks: a progress -> fixed/failed transition plus a history
// entry. This is the out-of-band write-back path for the automation
// agent; the plain PATCH endpoint remains available for manual reports.
type ResultService struct {
	Tasks  *store.TaskStore
	Reader *kafka.Reader
}

func NewResultService(tasks *store.TaskStore) *ResultService {
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		kafkaBrokers = DefaultKafkaBrokers
	}
	resultTopic := os.Getenv("CODEX_RESULT_TOPIC")
	if resultTopic == "" {
		resultTopic = DefaultResultTopic
	}
	groupID := os.Getenv("RESULT_GROUP_ID")
	if groupID == "" {
		groupID = DefaultResultGroupID
	}
	brokerList := strings.Split(kafkaBrokers, ",")
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokerList, GroupID: groupID, Topic: resultTopic,
		MinBytes: 10e3, MaxBytes: 10e6, CommitInterval: time.Second, MaxWait: 3 * time.Second,
	})
	log.Printf("Codex run result consumer configured for topic: %s, groupID: %s", resultTopic, groupID)
	return &ResultService{Tasks: tasks, Reader: reader}
}

func (s *ResultService) StartConsuming(ctx context.Context) {
	log.Println("ResultService starting to consume codex run results...")
	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Println("ResultService: context cancelled, stopping consumer.")
				return
			default:
				readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				msg, err := s.Reader.ReadMessage(readCtx)
				cancel()

				if err == context.DeadlineExceeded {
					continue
				}
				if err == context.Canceled {
					log.Println("ResultService: read context cancelled.")
					return
				}
				if err == io.EOF {
					log.Println("ResultService: Kafka reader closed (EOF), stopping consumption.")
					return
				}
				if err != nil {
					log.Printf("ResultService: error reading message: %v", err)
					time.Sleep(1 * time.Second)
					continue
				}
				s.Apply(ctx, msg.Value)
			}
		}
	}()
}

// Apply processes one result payload. Malformed payloads, unknown
// tasks, and illegal transitions are logged and skipped: the agent
// already finished; there is nothing upstream to fail.
func (s *ResultService) Apply(ctx context.Context, value []byte) {
	var payload events.CodexRunResultPayload
	if err := json.Unmarshal(value, &payload); err != nil {
		log.Printf("ResultService: error unmarshalling run result payload: %v. Value: %s", err, string(value))
		return
	}
	if payload.Status != db.StatusFixed && payload.Status != db.StatusFailed {
		log.Printf("ResultService: ignoring run result for task %s with unexpected status %q", payload.TaskID, payload.Status)
		return
	}

	if _, err := s.Tasks.SetStatus(ctx, payload.TaskID, payload.Status); err != nil {
		log.Printf("ResultService: could not apply status %q to task %s: %v", payload.Status, payload.TaskID, err)
		return
	}

	action := "codex run " + payload.Status
	if payload.Detail != "" {
		action += ": " + payload.Detail
	}
	entry := db.HistoryItem{Action: action, User: "codex-agent"}
	if err := s.Tasks.AppendHistory(ctx, payload.TaskID, entry); err != nil {
		log.Printf("ResultService: failed to append history for task %s: %v", payload.TaskID, err)
		return
	}
	log.Printf("ResultService: task %s updated to %s (run %s)", payload.TaskID, payload.Status, payload.RunID)
}

func (s *ResultService) Close() {
	if s.Reader != nil {
		log.Println("ResultService: closing Kafka reader.")
		s.Reader.Close()
	}
}
