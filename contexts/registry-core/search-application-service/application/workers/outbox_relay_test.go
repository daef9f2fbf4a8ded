package workers_test

import (
	"context"
	"testing"
	"time"

	"ardhi/contexts/registry-core/search-application-service/adapters/memory"
	"ardhi/contexts/registry-core/search-application-service/application/workers"
	"ardhi/contexts/registry-core/search-application-service/domain/entities"
	"ardhi/contexts/registry-core/search-application-service/ports"
)

type capturingPublisher struct {
	topics []string
	events []ports.EventEnvelope
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func TestOutboxRelayPublishesLifecycleEvents(t *testing.T) {
	store := memory.NewStore([]entities.Application{{
		ApplicationID: "app-1",
		ApplicantID:   "applicant-1",
		ParcelNumber:  "NAIROBI/BLOCK1/742",
		Registry:      "nairobi-central",
		Status:        entities.ApplicationStatusPending,
	}})

	ctx := context.Background()
	if _, err := store.ApplyPayment(ctx, "app-1", entities.Payment{
		PaymentID:     "pay-1",
		ApplicationID: "app-1",
		Amount:        entities.SearchFeeAmount,
		InvoiceNumber: "INV-TEST",
		PaidAt:        time.Now().UTC(),
	}); err != nil {
		t.Fatalf("apply payment failed: %v", err)
	}
	if _, err := store.AssignRegistrar(ctx, "app-1", "registrar-1", time.Now().UTC()); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	publisher := &capturingPublisher{}
	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		Topic:     "registry.application.lifecycle",
	}

	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(publisher.events))
	}
	if publisher.events[0].EventType != "registry.application.submitted" ||
		publisher.events[1].EventType != "registry.application.assigned" {
		t.Fatalf("unexpected event order: %s, %s", publisher.events[0].EventType, publisher.events[1].EventType)
	}
	for _, topic := range publisher.topics {
		if topic != "registry.application.lifecycle" {
			t.Fatalf("unexpected topic %s", topic)
		}
	}

	// Published rows are not drained twice.
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("second relay run failed: %v", err)
	}
	if len(publisher.events) != 2 {
		t.Fatalf("expected no additional events, got %d", len(publisher.events))
	}
}
