package audit

import (
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance for a case:
	// freezing the foundation a decision was made on.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine ingestion activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    string
	// AggregateType and AggregateID name the entity the event is about,
	// e.g. "behandling" and its id. They become the outbox aggregate and
	// the Kafka record key, so events for one entity stay ordered.
	AggregateType string
	AggregateID   string
	// Subject is a human-readable reference, e.g. "sak:1234".
	Subject   string
	ActorID   string
	RequestID string
	Reason    string
	Detail    map[string]string
}

type AuditEvent string

const (
	EventOpplysningerLagret AuditEvent = "opplysninger_lagret"
	EventDuplikatBatch      AuditEvent = "duplikat_batch"
	EventGrunnlagOpprettet  AuditEvent = "grunnlag_opprettet"
	EventGrunnlagOppdatert  AuditEvent = "grunnlag_oppdatert"
	EventGrunnlagLaast      AuditEvent = "grunnlag_laast"
	EventGrunnlagLaastTil   AuditEvent = "grunnlag_laast_til_behandling"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventGrunnlagLaast:    CategoryCompliance,
	EventGrunnlagLaastTil: CategoryCompliance,

	EventOpplysningerLagret: CategoryOperations,
	EventDuplikatBatch:      CategoryOperations,
	EventGrunnlagOpprettet:  CategoryOperations,
	EventGrunnlagOppdatert:  CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// OutboxEntry is one persisted event waiting to be relayed.
type OutboxEntry struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}
