package queue

import (
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/grove/pkg/logger"
	"github.com/OFFIS-RIT/grove/pkg/store"

	"github.com/rabbitmq/amqp091-go"
)

// JobMessage is the payload of index, merge and delete jobs. The input
// tables themselves are staged in S3; only identifiers travel through the
// broker.
type JobMessage struct {
	ProjectID int64  `json:"project_id"`
	RunID     string `json:"run_id,omitempty"`
}

func (m JobMessage) validate() error {
	if m.ProjectID <= 0 {
		return fmt.Errorf("invalid project id %d", m.ProjectID)
	}
	return nil
}

// EnqueueJob publishes a job message to the given work queue.
func EnqueueJob(ch *amqp091.Channel, queueName string, msg JobMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal job message: %w", err)
	}
	if err := PublishFIFO(ch, queueName, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queueName, err)
	}
	return nil
}

// publishRunEvent broadcasts a run status change on the run events exchange.
// Delivery is best effort; a lost event never fails the job itself.
func publishRunEvent(ch *amqp091.Channel, run store.Run) {
	data, err := json.Marshal(run)
	if err != nil {
		logger.Warn("[Queue] Failed to marshal run event", "project_id", run.ProjectID, "run_id", run.RunID, "err", err)
		return
	}
	topic := fmt.Sprintf("project.%d.run.%s", run.ProjectID, run.Status)
	if err := PublishTopic(ch, topic, data); err != nil {
		logger.Warn("[Queue] Failed to publish run event", "topic", topic, "err", err)
	}
}
