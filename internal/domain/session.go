package domain

import (
	"context"
	"time"
)

// TripContext is advisory metadata scraped from user messages over the life
// of a conversation (skill level, budget, dates, last mentioned places).
// It rides alongside the continuation token for downstream consumers; it
// never influences detection scoring.
type TripContext struct {
	SkiLevel    string `json:"ski_level,omitempty"`
	Budget      string `json:"budget,omitempty"`
	TravelDates string `json:"travel_dates,omitempty"`
	LastResort  string `json:"last_resort,omitempty"`
	LastCountry string `json:"last_country,omitempty"`
}

// Session maps a conversation ID to the model provider's continuation
// token. The token is an opaque handle that lets the provider recall prior
// turns without the caller resending history; it is replaced, never
// appended, on every completed model round.
type Session struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	Context   TripContext `json:"context"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// SessionStore is the only process-wide mutable state in the core.
// Implementations must support concurrent access per key without
// cross-session interference. Get returns store.ErrNotFound semantics via
// an error the caller tests with errors.Is; Delete on an absent session is
// a no-op.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
