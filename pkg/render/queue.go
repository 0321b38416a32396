package render

import (
	"context"
	"time"

	"github.com/synaptica-ai/chart-extractor/pkg/common/kafka"
	"github.com/synaptica-ai/chart-extractor/pkg/common/logger"
	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
)

const (
	EventDocumentRequested = "patient.document.requested"
	eventSource            = "chart-extractor"
)

// Publisher is satisfied by kafka.Producer.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType, source, key string, data map[string]interface{}) error
}

// QueueRenderer publishes the flattened fields for a render worker.
type QueueRenderer struct {
	publisher Publisher
	now       func() time.Time
}

func NewQueueRenderer(p Publisher) *QueueRenderer {
	return &QueueRenderer{publisher: p, now: time.Now}
}

func (q *QueueRenderer) Render(ctx context.Context, rec *models.PatientRecord) error {
	flat := Flatten(rec, q.now())
	fields := make(map[string]interface{}, len(flat))
	for k, v := range flat {
		fields[k] = v
	}
	return q.publisher.PublishEvent(ctx, EventDocumentRequested, eventSource, rec.Identifier, map[string]interface{}{
		"contract_version": ContractVersion,
		"document_name":    DocumentName(rec),
		"fields":           fields,
	})
}

// Handler renders document requests consumed from the queue. Malformed requests
// are logged and dropped; only rendering failures are returned for redelivery.
func Handler(r *TemplateRenderer) kafka.EventHandler {
	return func(ctx context.Context, event models.Event) error {
		if event.Type != EventDocumentRequested {
			return nil
		}
		log := logger.Log.WithField("event_id", event.ID)
		raw, _ := event.Data["document_name"].(string)
		name := safeName(raw)
		if name == "" {
			log.WithField("document_name", raw).Warn("Document request without a usable document_name dropped")
			return nil
		}
		if v, _ := event.Data["contract_version"].(string); v != ContractVersion {
			log.WithField("contract_version", v).Warn("Unsupported document contract dropped")
			return nil
		}
		values, ok := event.Data["fields"].(map[string]interface{})
		if !ok {
			log.Warn("Document request without fields dropped")
			return nil
		}
		fields := make(map[string]string, len(values))
		for k, v := range values {
			fields[k] = coerce(v)
		}
		return r.RenderFields(name, fields)
	}
}
