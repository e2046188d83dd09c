package monitor

import "time"

type Status struct {
	Backend    string          `json:"backend"`
	Ledger     bool            `json:"ledger"`
	EventSinks map[string]bool `json:"event_sinks"`
	Outbox     bool            `json:"outbox"`
	OutboxSize int             `json:"outbox_size"`
	LastCheck  time.Time       `json:"last_check"`
}

// SinksOnline reports whether every probed event sink answered.
func (s Status) SinksOnline() bool {
	for _, ok := range s.EventSinks {
		if !ok {
			return false
		}
	}
	return true
}
