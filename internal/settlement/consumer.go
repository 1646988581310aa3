package settlement

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/givecircle/givecircle-backend/config"
)

// StartKafkaConsumer launches the background reader for the settlement
// feed. Malformed messages are logged and skipped, never retried into a
// poison loop; the feed is idempotent because ingestion upserts.
func StartKafkaConsumer(svc Service, cfg *config.Config) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		Topic:    cfg.KafkaSettlementTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	go func() {
		defer reader.Close()
		log.Printf("✅ Settlement consumer started (topic=%s)", cfg.KafkaSettlementTopic)

		for {
			m, err := reader.ReadMessage(context.Background())
			if err != nil {
				log.Printf("❌ Settlement consumer stopped: %v", err)
				return
			}

			var msg Message
			if err := json.Unmarshal(m.Value, &msg); err != nil {
				log.Printf("⚠️ Skipping malformed settlement message at offset %d: %v", m.Offset, err)
				continue
			}

			if err := svc.Ingest(context.Background(), msg); err != nil {
				log.Printf("⚠️ Settlement ingest failed (beneficiary=%d period=%s): %v",
					msg.BeneficiaryID, msg.PeriodMonth, err)
			}
		}
	}()
}
