package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventAgreementCreated is the topic emitted once per created agreement.
const EventAgreementCreated = "agreement_created_event"

// Event represents a change applied to an agreement.
type Event struct {
	ID          string            `json:"id"`
	AggregateID string            `json:"aggregate_id"`
	Name        string            `json:"name"`
	Version     int               `json:"version"`
	Payload     json.RawMessage   `json:"payload"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewAgreementCreatedEvent builds the notification for a stored agreement.
func NewAgreementCreatedEvent(agreement *RentAgreement) (Event, error) {
	if agreement == nil {
		return Event{}, ErrInvalidPayload
	}
	payload, err := json.Marshal(agreement)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:          uuid.NewString(),
		AggregateID: agreement.AgreementID,
		Name:        EventAgreementCreated,
		Version:     1,
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
