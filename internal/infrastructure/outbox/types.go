package outbox

import (
	"time"

	"github.com/fastygo/rentledger/domain"
)

// Item is a domain event waiting for delivery to the configured sinks.
type Item struct {
	Event     domain.Event `json:"event"`
	Retries   int          `json:"retries"`
	LastError string       `json:"last_error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`

	bucketKey []byte
}

// ID returns the event id, which doubles as the outbox identity.
func (i Item) ID() string {
	return i.Event.ID
}

func (i *Item) normalize() {
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
